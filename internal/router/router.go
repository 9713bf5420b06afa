package router

import (
	"context"
	"net/http"
	"time"

	"voucher-pool/internal/handler"
	"voucher-pool/internal/middleware"
	"voucher-pool/internal/ratelimit"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// HealthChecker reports whether the store is reachable.
type HealthChecker func(ctx context.Context) error

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Vouchers  *handler.VoucherHandler
	Offers    *handler.OfferHandler
	Customers *handler.CustomerHandler
}

// New creates a new HTTP router with all routes and middleware configured.
// limiter may be nil, in which case requests are not rate limited.
func New(
	h Handlers,
	health HealthChecker,
	limiter ratelimit.Limiter,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Recovery -> Logging -> CORS -> RateLimit -> APIKeyAuth
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-API-Key"},
		ExposedHeaders: []string{"Retry-After", "X-RateLimit-Remaining"},
		MaxAge:         300,
	}))
	if limiter != nil {
		r.Use(middleware.RateLimit(limiter, logger))
	}
	r.Use(middleware.APIKeyAuth(apiKey, logger))

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if health != nil {
			if err := health(ctx); err != nil {
				logger.Error().Err(err).Msg("health check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status": "unhealthy"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/vouchers", func(r chi.Router) {
			r.Post("/generate", h.Vouchers.Generate)
			r.Post("/redeem", h.Vouchers.Redeem)
			r.Get("/customer-valid", h.Vouchers.CustomerValid)
			r.Get("/{code}", h.Vouchers.GetByCode)
			r.Delete("/{id}", h.Vouchers.Delete)
		})

		r.Route("/offers", func(r chi.Router) {
			r.Post("/", h.Offers.Create)
			r.Get("/", h.Offers.GetAll)
			r.Get("/{id}", h.Offers.GetByID)
			r.Delete("/{id}", h.Offers.Delete)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Post("/", h.Customers.Create)
			r.Get("/", h.Customers.GetAll)
			r.Get("/{id}", h.Customers.GetByID)
			r.Delete("/{id}", h.Customers.Delete)
		})
	})

	return r
}
