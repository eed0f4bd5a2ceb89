package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stockroom/storefront/internal/core/domain"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestTokens(t *testing.T, secret string, now time.Time) *TokenService {
	t.Helper()
	s, err := NewTokenService(secret)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	s.now = func() time.Time { return now }
	return s
}

func TestTokenService_RoundTrip(t *testing.T) {
	s := newTestTokens(t, "secret", fixedNow)
	in := domain.Claims{UserID: "u1", Email: "u@x.io", Role: domain.RoleAdmin}

	token, err := s.Issue(in)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	got, ok := s.Verify(token)
	if !ok {
		t.Fatalf("expected token to verify")
	}
	if got.UserID != in.UserID || got.Email != in.Email || got.Role != in.Role {
		t.Fatalf("claims mismatch: %+v", got)
	}
	if !got.ExpiresAt.Equal(fixedNow.Add(domain.TokenLifetime)) {
		t.Fatalf("unexpected expiry %v", got.ExpiresAt)
	}
}

func TestTokenService_Expiry(t *testing.T) {
	issuer := newTestTokens(t, "secret", fixedNow)
	token, err := issuer.Issue(domain.Claims{UserID: "u1", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	justBefore := newTestTokens(t, "secret", fixedNow.Add(domain.TokenLifetime-time.Second))
	if _, ok := justBefore.Verify(token); !ok {
		t.Fatalf("token should be valid before its lifetime ends")
	}

	after := newTestTokens(t, "secret", fixedNow.Add(domain.TokenLifetime+time.Second))
	if _, ok := after.Verify(token); ok {
		t.Fatalf("token should be rejected after expiry")
	}
}

func TestTokenService_RejectsTampering(t *testing.T) {
	s := newTestTokens(t, "secret", fixedNow)
	token, err := s.Issue(domain.Claims{UserID: "u1", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := newTestTokens(t, "other-secret", fixedNow)
	if _, ok := other.Verify(token); ok {
		t.Fatalf("token signed with a different secret must be rejected")
	}

	parts := strings.Split(token, ".")
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserID: "u1",
		Role:   string(domain.RoleAdmin),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(fixedNow.Add(time.Hour)),
		},
	})
	forgedSigned, err := forged.SignedString([]byte("attacker"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	forgedParts := strings.Split(forgedSigned, ".")
	spliced := parts[0] + "." + forgedParts[1] + "." + parts[2]
	if _, ok := s.Verify(spliced); ok {
		t.Fatalf("payload swap must invalidate the signature")
	}
}

func TestTokenService_RejectsMalformed(t *testing.T) {
	s := newTestTokens(t, "secret", fixedNow)
	for _, token := range []string{"", "abc", "a.b", "a.b.c", "!!!.???.***"} {
		if _, ok := s.Verify(token); ok {
			t.Fatalf("malformed token %q should be rejected", token)
		}
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	s := newTestTokens(t, "secret", fixedNow)
	claims := tokenClaims{
		UserID: "u1",
		Role:   string(domain.RoleAdmin),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(fixedNow.Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, ok := s.Verify(hs512); ok {
		t.Fatalf("HS512 token should be rejected")
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, ok := s.Verify(none); ok {
		t.Fatalf("unsigned token should be rejected")
	}
}

func TestTokenService_RejectsMissingExpiryOrRole(t *testing.T) {
	s := newTestTokens(t, "secret", fixedNow)

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{UserID: "u1", Role: "USER"}).SignedString([]byte("secret"))
	if _, ok := s.Verify(noExp); ok {
		t.Fatalf("token without expiry should be rejected")
	}

	badRole, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserID:           "u1",
		Role:             "ROOT",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(fixedNow.Add(time.Hour))},
	}).SignedString([]byte("secret"))
	if _, ok := s.Verify(badRole); ok {
		t.Fatalf("token with unknown role should be rejected")
	}
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	if _, err := NewTokenService(""); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
