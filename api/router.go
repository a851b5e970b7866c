package api

import (
	"net/http"

	"productos_catalog/api/health"
	"productos_catalog/api/middleware"
	"productos_catalog/api/products"
	"productos_catalog/config"
	"productos_catalog/database"
	"productos_catalog/services"
	"productos_catalog/structs"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
	chiware "github.com/go-chi/chi/v5/middleware"
)

// App builds the router from the global configuration and database instance
func App() chi.Router {
	cfg := config.GetConfig()
	db := database.GetInstance()

	svc := services.NewServiceManager(config.GetLogger(), cfg, db)

	return NewRouter(cfg, svc)
}

// NewRouter wires middleware and routes around an already built service manager
func NewRouter(cfg *structs.Config, svc *services.ServiceManager) chi.Router {
	r := chi.NewRouter()

	// create loggers
	mwLogger := config.NewLogger(false)
	standardLogger := config.NewLogger(true)

	// Initialize middleware
	mw := middleware.NewMiddleware(cfg, mwLogger, svc.RateLimiter)

	// Core infra
	r.Use(chiware.RequestID)
	r.Use(chiware.RealIP)
	r.Use(chiware.Recoverer)

	// Limits & security
	r.Use(mw.BodyLimit(cfg.Server.BodyLimit))
	r.Use(mw.SecurityHeaders())

	// Observability
	r.Use(mw.SetupLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware)

	// CORS (must be before auth)
	r.Use(mw.SetupCORS().Handler)

	r.Use(mw.RateLimitMiddleware())

	// Register all routes
	NewRouterManager(
		products.NewProductRoutesManager(standardLogger, svc.ProductService, mw.ServiceTokenMiddleware),
		health.NewHealthRoutesManager(svc.HealthService),
	).RegisterRoutes(r)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		gecho.Success(w,
			gecho.WithMessage("Welcome to the "+cfg.Server.AppName+" API"),
			gecho.Send(),
		)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		gecho.NotFound(w,
			gecho.Send(),
		)
	})

	return r
}
