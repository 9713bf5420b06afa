package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voucher-pool/internal/codegen"
	"voucher-pool/internal/model"
	"voucher-pool/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// VoucherConfig holds voucher service settings.
type VoucherConfig struct {
	// CodeLength is the length of issued codes.
	CodeLength int

	// MaxAttempts caps insert retries on code collisions and redemption
	// retries on lost compare-and-swap races.
	MaxAttempts int
}

// Option customises a voucher service.
type Option func(*voucherService)

// WithClock replaces the wall clock used for expiry checks and usage dates.
func WithClock(now func() time.Time) Option {
	return func(s *voucherService) {
		s.now = now
	}
}

// voucherService implements VoucherService.
type voucherService struct {
	vouchers  repository.VoucherRepository
	customers repository.CustomerRepository
	offers    repository.OfferRepository
	generator codegen.Generator
	cfg       VoucherConfig
	now       func() time.Time
	logger    zerolog.Logger
}

// NewVoucherService creates a new voucher service.
func NewVoucherService(
	vouchers repository.VoucherRepository,
	customers repository.CustomerRepository,
	offers repository.OfferRepository,
	generator codegen.Generator,
	cfg VoucherConfig,
	logger zerolog.Logger,
	opts ...Option,
) VoucherService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = codegen.DefaultConfig().MaxAttempts
	}

	s := &voucherService{
		vouchers:  vouchers,
		customers: customers,
		offers:    offers,
		generator: generator,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.With().Str("service", "voucher").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates a voucher. The offer must exist; the customer is created on
// first use of its email.
func (s *voucherService) Issue(ctx context.Context, req *model.IssueRequest) (*model.Voucher, error) {
	if req == nil {
		return nil, model.ValidationError(model.ErrCodeInvalidJSON, "request body is required")
	}

	name, err := requireName("customerName", req.CustomerName)
	if err != nil {
		return nil, err
	}
	email, err := normaliseEmail(req.CustomerEmail)
	if err != nil {
		return nil, err
	}
	offerName, err := requireName("offerName", req.OfferName)
	if err != nil {
		return nil, err
	}
	expiration, err := parseExpiration(req.ExpirationDate)
	if err != nil {
		return nil, err
	}

	// Look the offer up first so a missing offer leaves no customer behind.
	offer, err := s.offers.GetByName(ctx, offerName)
	if err != nil {
		s.logger.Error().Err(err).Str("offer_name", offerName).Msg("failed to look up offer")
		return nil, model.StorageFailure(err)
	}
	if offer == nil {
		s.logger.Warn().Str("offer_name", offerName).Msg("offer not found")
		return nil, model.ErrOfferNotFound
	}

	now := s.now()
	customer, err := s.customers.Ensure(ctx, &model.Customer{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to resolve customer")
		return nil, model.StorageFailure(err)
	}

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		code, err := s.generator.Generate(ctx, s.cfg.CodeLength)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to generate voucher code")
			return nil, err
		}

		voucher := &model.Voucher{
			ID:             uuid.New(),
			Code:           code,
			CustomerID:     customer.ID,
			OfferID:        offer.ID,
			ExpirationDate: expiration,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		err = s.vouchers.Create(ctx, voucher)
		if errors.Is(err, repository.ErrDuplicateCode) {
			// Another issuer claimed the code after the pre-check.
			s.logger.Warn().Int("attempt", attempt).Msg("voucher code taken at insert, regenerating")
			continue
		}
		if err != nil {
			s.logger.Error().Err(err).Str("customer_id", customer.ID.String()).Msg("failed to persist voucher")
			return nil, model.StorageFailure(err)
		}

		s.logger.Info().
			Str("voucher_code", voucher.Code).
			Str("customer_id", customer.ID.String()).
			Str("offer_id", offer.ID.String()).
			Time("expiration_date", expiration).
			Msg("voucher issued")

		return voucher, nil
	}

	s.logger.Error().Int("max_attempts", s.cfg.MaxAttempts).Msg("voucher codes kept colliding at insert")
	return nil, fmt.Errorf("%d inserts collided: %w", s.cfg.MaxAttempts, model.ErrGenerationExhausted)
}

// Redeem runs the redemption as one transaction. A lost compare-and-swap
// (possible on stores without row locks) re-runs the whole unit of work.
func (s *voucherService) Redeem(ctx context.Context, req *model.RedeemRequest) (*model.RedeemResponse, error) {
	if req == nil {
		return nil, model.ValidationError(model.ErrCodeInvalidJSON, "request body is required")
	}

	code, err := normaliseCode(req.Code)
	if err != nil {
		return nil, err
	}
	email, err := normaliseEmail(req.CustomerEmail)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		resp, err := s.redeemOnce(ctx, code, email)
		if errors.Is(err, repository.ErrConcurrentModification) {
			s.logger.Debug().Str("voucher_code", code).Int("attempt", attempt).Msg("redemption raced, retrying")
			continue
		}
		return resp, err
	}

	s.logger.Error().Str("voucher_code", code).Msg("redemption kept racing, giving up")
	return nil, model.StorageFailure(fmt.Errorf("redeem %s after %d attempts: %w",
		code, s.cfg.MaxAttempts, repository.ErrConcurrentModification))
}

func (s *voucherService) redeemOnce(ctx context.Context, code, email string) (*model.RedeemResponse, error) {
	tx, err := s.vouchers.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin redemption")
		return nil, model.StorageFailure(err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// The caller may already be gone; the rollback must still run.
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			s.logger.Error().Err(rbErr).Str("voucher_code", code).Msg("failed to rollback redemption")
		}
	}()

	customer, err := tx.FindCustomerByEmail(ctx, email)
	if err != nil {
		return nil, model.StorageFailure(err)
	}
	if customer == nil {
		s.logger.Warn().Str("email", email).Msg("redemption by unknown customer")
		return nil, model.ErrCustomerNotFound
	}

	voucher, err := tx.FindByCodeForUpdate(ctx, code)
	if err != nil {
		s.logger.Error().Err(err).Str("voucher_code", code).Msg("failed to lock voucher")
		return nil, model.StorageFailure(err)
	}
	if voucher == nil {
		s.logger.Warn().Str("voucher_code", code).Msg("redemption of unknown voucher")
		return nil, model.ErrVoucherNotFound
	}

	offer, err := tx.FindOfferByID(ctx, voucher.OfferID)
	if err != nil {
		return nil, model.StorageFailure(err)
	}
	if offer == nil {
		s.logger.Error().
			Str("voucher_code", code).
			Str("offer_id", voucher.OfferID.String()).
			Msg("voucher refers to a missing offer")
		return nil, model.ErrOfferNotFound
	}

	now := s.now()

	switch {
	case voucher.CustomerID != customer.ID:
		s.logger.Warn().Str("voucher_code", code).Str("customer_id", customer.ID.String()).Msg("voucher not assigned to customer")
		return nil, model.ErrNotAssignedToCustomer
	case voucher.IsUsed:
		s.logger.Warn().Str("voucher_code", code).Msg("voucher already used")
		return nil, model.ErrAlreadyUsed
	case voucher.ExpirationDate.Before(now):
		s.logger.Warn().Str("voucher_code", code).Time("expiration_date", voucher.ExpirationDate).Msg("voucher expired")
		return nil, model.ErrExpired
	}

	if err := tx.MarkUsed(ctx, voucher.ID, now); err != nil {
		if errors.Is(err, repository.ErrConcurrentModification) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("voucher_code", code).Msg("failed to mark voucher used")
		return nil, model.StorageFailure(err)
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("voucher_code", code).Msg("failed to commit redemption")
		return nil, model.StorageFailure(err)
	}
	committed = true

	s.logger.Info().
		Str("voucher_code", code).
		Str("customer_id", customer.ID.String()).
		Str("discount_percentage", offer.DiscountPercentage.String()).
		Msg("voucher redeemed")

	return &model.RedeemResponse{DiscountPercentage: offer.DiscountPercentage}, nil
}

// ValidVouchers returns the customer's vouchers that are unused and not
// expired at the time of the call. The result is advisory; nothing is locked.
func (s *voucherService) ValidVouchers(ctx context.Context, email string) ([]model.ValidVoucher, error) {
	email, err := normaliseEmail(email)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		return nil, model.StorageFailure(err)
	}
	if customer == nil {
		return nil, model.ErrCustomerNotFound
	}

	vouchers, err := s.vouchers.FindUnusedByCustomer(ctx, customer.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("customer_id", customer.ID.String()).Msg("failed to list vouchers")
		return nil, model.StorageFailure(err)
	}

	now := s.now()
	offers := make(map[uuid.UUID]*model.Offer)
	valid := make([]model.ValidVoucher, 0, len(vouchers))

	for i := range vouchers {
		v := &vouchers[i]
		if !v.ValidAt(now) {
			continue
		}

		offer, ok := offers[v.OfferID]
		if !ok {
			offer, err = s.offers.GetByID(ctx, v.OfferID)
			if err != nil {
				return nil, model.StorageFailure(err)
			}
			if offer == nil {
				s.logger.Error().
					Str("voucher_code", v.Code).
					Str("offer_id", v.OfferID.String()).
					Msg("voucher refers to a missing offer")
				return nil, model.ErrInconsistentOffer
			}
			offers[v.OfferID] = offer
		}

		valid = append(valid, model.ValidVoucher{
			Code:               v.Code,
			OfferName:          offer.Name,
			DiscountPercentage: offer.DiscountPercentage,
			ExpirationDate:     v.ExpirationDate,
		})
	}

	return valid, nil
}

func (s *voucherService) GetByCode(ctx context.Context, code string) (*model.Voucher, error) {
	code, err := normaliseCode(code)
	if err != nil {
		return nil, err
	}

	voucher, err := s.vouchers.FindByCode(ctx, code)
	if err != nil {
		return nil, model.StorageFailure(err)
	}
	if voucher == nil {
		return nil, model.ErrVoucherNotFound
	}
	return voucher, nil
}

func (s *voucherService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.vouchers.Delete(ctx, id)
	if err != nil {
		return model.StorageFailure(err)
	}
	if !deleted {
		return model.ErrVoucherNotFound
	}

	s.logger.Info().Str("voucher_id", id.String()).Msg("voucher deleted")
	return nil
}
