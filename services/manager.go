package services

import (
	"productos_catalog/database"
	"productos_catalog/structs"

	"github.com/MonkyMars/gecho"
)

type ServiceManager struct {
	CacheService   *CacheService
	HealthService  *HealthService
	ProductService *ProductService
	RateLimiter    RateLimiter
}

func NewServiceManager(logger *gecho.Logger, cfg *structs.Config, db *database.DB) *ServiceManager {
	cacheService := NewCacheService(logger, GetRedisClient())
	healthService := NewHealthService(logger, db, cacheService)
	productService := NewProductService(logger, db)
	rateLimiter := NewRateLimiter(logger, cfg.RateLimit, cacheService)

	return &ServiceManager{
		CacheService:   cacheService,
		HealthService:  healthService,
		ProductService: productService,
		RateLimiter:    rateLimiter,
	}
}
