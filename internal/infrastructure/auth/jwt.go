// Package auth issues and verifies the service's API bearer tokens.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meridian-ads/meridian/internal/shared/biztime"
)

// Claims binds an API token to one tenant. Every request runs in the scope
// of the tenant the token names.
type Claims struct {
	TenantID uint   `json:"tenant_id"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secret      []byte
	expiryHours int
}

func NewJWTService(secret string, expiryHours int) *JWTService {
	if expiryHours <= 0 {
		expiryHours = 24
	}
	return &JWTService{
		secret:      []byte(secret),
		expiryHours: expiryHours,
	}
}

// Generate signs a tenant-scoped token. Name labels the token for audit
// logs; it carries no authority.
func (s *JWTService) Generate(tenantID uint, name string) (string, error) {
	if tenantID == 0 {
		return "", fmt.Errorf("tenant ID is required")
	}

	now := biztime.NowUTC()
	claims := &Claims{
		TenantID: tenantID,
		Name:     name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.expiryHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TenantID == 0 {
		return nil, fmt.Errorf("token has no tenant")
	}
	return claims, nil
}
