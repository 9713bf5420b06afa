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

// customerService implements CustomerService.
type customerService struct {
	repo   repository.CustomerRepository
	logger zerolog.Logger
}

// NewCustomerService creates a new customer service.
func NewCustomerService(repo repository.CustomerRepository, logger zerolog.Logger) CustomerService {
	return &customerService{
		repo:   repo,
		logger: logger.With().Str("service", "customer").Logger(),
	}
}

// Create validates and stores a new customer. Emails are stored lower-cased.
func (s *customerService) Create(ctx context.Context, req *model.CustomerRequest) (*model.Customer, error) {
	if req == nil {
		return nil, model.ValidationError(model.ErrCodeInvalidJSON, "request body is required")
	}

	name, err := requireName("name", req.Name)
	if err != nil {
		return nil, err
	}
	email, err := normaliseEmail(req.Email)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	customer := &model.Customer{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.ErrCustomerEmailTaken
		}
		s.logger.Error().Err(err).Str("email", email).Msg("failed to create customer")
		return nil, model.StorageFailure(err)
	}

	s.logger.Info().Str("customer_id", customer.ID.String()).Msg("customer created")

	return customer, nil
}

func (s *customerService) GetByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, model.StorageFailure(err)
	}
	if customer == nil {
		return nil, model.ErrCustomerNotFound
	}
	return customer, nil
}

func (s *customerService) List(ctx context.Context, limit, offset int) ([]model.Customer, error) {
	customers, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, model.StorageFailure(err)
	}
	return customers, nil
}

// Delete removes the customer and every voucher issued to them.
func (s *customerService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return model.StorageFailure(err)
	}
	if !deleted {
		return model.ErrCustomerNotFound
	}

	s.logger.Info().Str("customer_id", id.String()).Msg("customer deleted")
	return nil
}
