package service

import (
	"fmt"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "coffee-admin"

// JWTClaims represents the custom claims in access tokens.
type JWTClaims struct {
	Email string           `json:"email"`
	Role  domain.AdminRole `json:"role"`
	Type  string           `json:"type"`
	jwt.RegisteredClaims
}

// ============================================================
// ValidateToken: used by middleware
// ============================================================

func (s *AuthService) ValidateAccessToken(tokenString string) (*domain.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Invalid or expired token"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "Invalid token"}
	}
	if claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "Invalid token type"}
	}

	return &domain.TokenClaims{
		AdminID: claims.Subject,
		Email:   claims.Email,
		Role:    claims.Role,
	}, nil
}

// ============================================================
// Internal JWT helpers
// ============================================================

func (s *AuthService) signAccessToken(admin *domain.Admin) (string, error) {
	now := s.now()
	claims := JWTClaims{
		Email: admin.Email,
		Role:  admin.Role,
		Type:  "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
