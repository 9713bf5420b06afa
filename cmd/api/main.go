package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voucher-pool/internal/codegen"
	"voucher-pool/internal/config"
	"voucher-pool/internal/database"
	"voucher-pool/internal/handler"
	"voucher-pool/internal/ratelimit"
	"voucher-pool/internal/repository"
	"voucher-pool/internal/repository/sqlite"
	"voucher-pool/internal/reserved"
	"voucher-pool/internal/router"
	"voucher-pool/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// stores bundles the repositories of the configured backend.
type stores struct {
	customers repository.CustomerRepository
	offers    repository.OfferRepository
	vouchers  repository.VoucherRepository
	ping      func(ctx context.Context) error
	close     func()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("store", cfg.Store.Driver).Msg("starting voucher-pool API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	registry, err := loadReserved(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to load reserved codes: %w", err)
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		defer client.Close()

		redisLimiter := ratelimit.NewRedisLimiter(client, cfg.RateLimit.Requests, cfg.RateLimit.Window(), logger)
		if err := redisLimiter.Ping(ctx); err != nil {
			// Requests are still served; the limiter fails open per request.
			logger.Warn().Err(err).Str("addr", cfg.RateLimit.RedisAddr).Msg("redis unreachable at startup")
		}
		limiter = redisLimiter
	}

	generator := codegen.NewGenerator(codegen.Config{
		DefaultLength: cfg.Voucher.CodeLength,
		MaxAttempts:   cfg.Voucher.MaxAttempts,
	}, st.vouchers, registry, logger)

	// Initialize services
	voucherService := service.NewVoucherService(st.vouchers, st.customers, st.offers, generator,
		service.VoucherConfig{CodeLength: cfg.Voucher.CodeLength, MaxAttempts: cfg.Voucher.MaxAttempts}, logger)
	offerService := service.NewOfferService(st.offers, logger)
	customerService := service.NewCustomerService(st.customers, logger)

	// Initialize router
	mux := router.New(router.Handlers{
		Vouchers:  handler.NewVoucherHandler(voucherService, logger),
		Offers:    handler.NewOfferHandler(offerService, logger),
		Customers: handler.NewCustomerHandler(customerService, logger),
	}, st.ping, limiter, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// In-flight redemptions finish or roll back before the store closes.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

func openStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.Store.SQLitePath, cfg.Database.LockTimeout(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite store: %w", err)
		}
		return &stores{
			customers: store.Customers(),
			offers:    store.Offers(),
			vouchers:  store.Vouchers(),
			ping:      store.Ping,
			close:     func() { _ = store.Close() },
		}, nil

	default:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := database.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return &stores{
			customers: repository.NewCustomerRepository(pool, logger),
			offers:    repository.NewOfferRepository(pool, logger),
			vouchers:  repository.NewVoucherRepository(pool, cfg.Database.LockTimeout(), logger),
			ping:      pool.Ping,
			close:     pool.Close,
		}, nil
	}
}

// loadReserved builds the reserved code registry, preferring S3 when enabled
// and falling back to the local file system per file.
func loadReserved(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*reserved.Registry, error) {
	if !cfg.Reserved.Enabled {
		logger.Info().Msg("reserved code files disabled")
		return reserved.NewStaticRegistry(), nil
	}

	var s3Loader reserved.Loader
	if cfg.S3.Enabled {
		l, err := reserved.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			s3Loader = l
		}
	} else {
		logger.Info().Msg("using local file system for reserved code files (S3 disabled)")
	}

	loader := reserved.NewFallbackLoader(s3Loader, reserved.NewFileLoader(logger), cfg.S3.ObjectKey, logger)
	return reserved.NewRegistry(ctx, cfg.Reserved.FilePaths, loader, logger)
}
