package service

import (
	"context"
	"errors"
	"time"

	"voucher-pool/internal/model"
	"voucher-pool/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// offerService implements OfferService.
type offerService struct {
	repo   repository.OfferRepository
	logger zerolog.Logger
}

// NewOfferService creates a new offer service.
func NewOfferService(repo repository.OfferRepository, logger zerolog.Logger) OfferService {
	return &offerService{
		repo:   repo,
		logger: logger.With().Str("service", "offer").Logger(),
	}
}

// Create validates and stores a new offer.
func (s *offerService) Create(ctx context.Context, req *model.OfferRequest) (*model.Offer, error) {
	if req == nil {
		return nil, model.ValidationError(model.ErrCodeInvalidJSON, "request body is required")
	}

	name, err := requireName("name", req.Name)
	if err != nil {
		return nil, err
	}
	if !model.ValidDiscount(req.DiscountPercentage) {
		return nil, model.ValidationError(model.ErrCodeInvalidDiscount,
			"discountPercentage must be between 0 and 100 with at most 2 decimal places")
	}

	now := time.Now().UTC()
	offer := &model.Offer{
		ID:                 uuid.New(),
		Name:               name,
		DiscountPercentage: req.DiscountPercentage,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(ctx, offer); err != nil {
		if errors.Is(err, repository.ErrDuplicateOfferName) {
			return nil, model.ErrOfferNameTaken
		}
		s.logger.Error().Err(err).Str("offer_name", name).Msg("failed to create offer")
		return nil, model.StorageFailure(err)
	}

	s.logger.Info().
		Str("offer_id", offer.ID.String()).
		Str("offer_name", offer.Name).
		Msg("offer created")

	return offer, nil
}

func (s *offerService) GetByID(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	offer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, model.StorageFailure(err)
	}
	if offer == nil {
		return nil, model.ErrOfferNotFound
	}
	return offer, nil
}

func (s *offerService) List(ctx context.Context, limit, offset int) ([]model.Offer, error) {
	offers, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, model.StorageFailure(err)
	}
	return offers, nil
}

// Delete removes the offer and every voucher issued for it.
func (s *offerService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return model.StorageFailure(err)
	}
	if !deleted {
		return model.ErrOfferNotFound
	}

	s.logger.Info().Str("offer_id", id.String()).Msg("offer deleted")
	return nil
}
