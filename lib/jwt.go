package lib

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CatalogWriteScope grants access to the mutating catalog routes
const CatalogWriteScope = "catalog:write"

// ServiceClaims are carried by tokens minted for trusted callers of the catalog
type ServiceClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// IssueServiceToken signs a token for subject that is valid for ttl
func IssueServiceToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("service token secret is not configured")
	}

	now := time.Now()
	claims := ServiceClaims{
		Scope: CatalogWriteScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign service token: %w", err)
	}
	return signed, nil
}

// ParseServiceToken parses and validates a service token and returns its claims
func ParseServiceToken(tokenStr, secret string) (*ServiceClaims, error) {
	claims := &ServiceClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Scope != CatalogWriteScope {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
