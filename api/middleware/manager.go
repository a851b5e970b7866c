package middleware

import (
	"productos_catalog/services"
	"productos_catalog/structs"

	"github.com/MonkyMars/gecho"
)

type Middleware struct {
	logger  *gecho.Logger
	cfg     *structs.Config
	limiter services.RateLimiter
}

func NewMiddleware(cfg *structs.Config, logger *gecho.Logger, limiter services.RateLimiter) *Middleware {
	return &Middleware{
		logger:  logger,
		cfg:     cfg,
		limiter: limiter,
	}
}
