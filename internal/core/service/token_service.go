package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stockroom/storefront/internal/core/domain"
)

type tokenClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256-signed identity assertions.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token service: empty signing secret")
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs claims with an expiry of domain.TokenLifetime from now.
func (s *TokenService) Issue(c domain.Claims) (string, error) {
	now := s.now()
	tc := tokenClaims{
		UserID: c.UserID,
		Email:  c.Email,
		Role:   string(c.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(domain.TokenLifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify reports whether token is well formed, carries a valid signature and
// has not expired. It never returns an error: every failure is (Claims{}, false).
func (s *TokenService) Verify(token string) (domain.Claims, bool) {
	var tc tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &tc, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return domain.Claims{}, false
	}

	role := domain.Role(tc.Role)
	if tc.UserID == "" || !role.Valid() || tc.ExpiresAt == nil {
		return domain.Claims{}, false
	}

	return domain.Claims{
		UserID:    tc.UserID,
		Email:     tc.Email,
		Role:      role,
		ExpiresAt: tc.ExpiresAt.Time,
	}, true
}
