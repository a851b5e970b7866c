package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"productos_catalog/lib"

	"github.com/MonkyMars/gecho"
)

// Context keys for storing caller data in request context
type contextKey string

const ClaimsContextKey contextKey = "claims"

// ServiceTokenMiddleware protects mutating routes with a bearer service token when
// AUTH_REQUIRE_TOKEN is set. Otherwise requests pass through untouched.
func (mw *Middleware) ServiceTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !mw.cfg.Auth.RequireToken {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			gecho.Unauthorized(w, gecho.WithMessage("Missing service token"), gecho.Send())
			return
		}

		claims, err := lib.ParseServiceToken(tokenStr, mw.cfg.Auth.ServiceTokenSecret)
		if err != nil {
			mw.logger.Warn("Rejected service token", gecho.Field("error", err))
			msg := "Invalid service token"
			if errors.Is(err, lib.ErrExpiredToken) {
				msg = "Service token expired"
			}
			gecho.Unauthorized(w, gecho.WithMessage(msg), gecho.Send())
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClaimsFromContext is a helper function to extract the service claims from request context
func GetClaimsFromContext(ctx context.Context) (*lib.ServiceClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*lib.ServiceClaims)
	return claims, ok
}
