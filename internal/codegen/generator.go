// Package codegen draws random voucher codes that were never issued before.
package codegen

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"voucher-pool/internal/model"

	"github.com/rs/zerolog"
)

// Alphabet is the set of characters a code is drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Code length bounds accepted by Generate.
const (
	MinLength = 8
	MaxLength = 20
)

// Generator produces voucher codes.
type Generator interface {
	// Generate returns an upper-case code of the given length that has never
	// been issued and is not reserved. A length of 0 selects the default.
	// The pre-check is advisory: the store's unique constraint decides.
	Generate(ctx context.Context, length int) (string, error)
}

// CodeChecker reports whether a code was already issued.
type CodeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// ReservedChecker reports whether a code is reserved and must never be issued.
type ReservedChecker interface {
	Contains(code string) bool
}

// Config holds generator settings.
type Config struct {
	// DefaultLength is used when Generate is called with length 0.
	DefaultLength int

	// MaxAttempts caps the number of draws per Generate call.
	MaxAttempts int
}

// DefaultConfig returns the default generator configuration.
func DefaultConfig() Config {
	return Config{
		DefaultLength: 10,
		MaxAttempts:   20,
	}
}

type generator struct {
	cfg      Config
	checker  CodeChecker
	reserved ReservedChecker
	random   io.Reader
	logger   zerolog.Logger
}

// NewGenerator creates a generator backed by crypto/rand. reserved may be nil.
func NewGenerator(cfg Config, checker CodeChecker, reserved ReservedChecker, logger zerolog.Logger) Generator {
	return newGenerator(cfg, checker, reserved, rand.Reader, logger)
}

func newGenerator(cfg Config, checker CodeChecker, reserved ReservedChecker, random io.Reader, logger zerolog.Logger) *generator {
	defaults := DefaultConfig()
	if cfg.DefaultLength == 0 {
		cfg.DefaultLength = defaults.DefaultLength
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}

	return &generator{
		cfg:      cfg,
		checker:  checker,
		reserved: reserved,
		random:   random,
		logger:   logger.With().Str("component", "codegen").Logger(),
	}
}

func (g *generator) Generate(ctx context.Context, length int) (string, error) {
	if length == 0 {
		length = g.cfg.DefaultLength
	}
	if length < MinLength || length > MaxLength {
		return "", model.ValidationError(model.ErrCodeInvalidCode,
			fmt.Sprintf("code length must be between %d and %d", MinLength, MaxLength))
	}

	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		code, err := g.draw(length)
		if err != nil {
			return "", fmt.Errorf("failed to draw code: %w", err)
		}

		if g.reserved != nil && g.reserved.Contains(code) {
			g.logger.Debug().Int("attempt", attempt).Msg("drew reserved code, drawing again")
			continue
		}

		exists, err := g.checker.CodeExists(ctx, code)
		if err != nil {
			return "", model.StorageFailure(err)
		}
		if exists {
			g.logger.Debug().Int("attempt", attempt).Msg("code collision, drawing again")
			continue
		}

		return code, nil
	}

	g.logger.Error().
		Int("length", length).
		Int("max_attempts", g.cfg.MaxAttempts).
		Msg("voucher code space exhausted")

	return "", fmt.Errorf("%d draws of length %d: %w", g.cfg.MaxAttempts, length, model.ErrGenerationExhausted)
}

// draw picks length characters uniformly from Alphabet.
func (g *generator) draw(length int) (string, error) {
	result := make([]byte, length)
	alphabetLength := big.NewInt(int64(len(Alphabet)))

	for i := range result {
		n, err := rand.Int(g.random, alphabetLength)
		if err != nil {
			return "", err
		}
		result[i] = Alphabet[n.Int64()]
	}

	return string(result), nil
}
