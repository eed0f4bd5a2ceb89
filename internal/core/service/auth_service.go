package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/stockroom/storefront/internal/core/authz"
	"github.com/stockroom/storefront/internal/core/domain"
	"github.com/stockroom/storefront/internal/core/ports"
	"github.com/stockroom/storefront/internal/core/validation"
)

const bcryptCost = 10

// TokenIssuer signs identity assertions.
type TokenIssuer interface {
	Issue(c domain.Claims) (string, error)
}

// AuthService implements registration, login and profile lookup.
type AuthService struct {
	users  ports.UserRepository
	tokens TokenIssuer
	log    zerolog.Logger
}

func NewAuthService(users ports.UserRepository, tokens TokenIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	role := domain.RoleUser
	if in.Role != "" {
		role = domain.Role(in.Role)
	}

	now := time.Now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Email:        in.Email,
		PasswordHash: string(hash),
		Name:         in.Name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	if role == domain.RoleAdmin {
		// Role is self-selected at registration; keep a trail of new admins.
		s.log.Warn().Str("user_id", created.ID).Str("email", created.Email).Msg("admin account self-registered")
	} else {
		s.log.Info().Str("user_id", created.ID).Msg("user registered")
	}

	return s.issue(created)
}

// Login returns domain.ErrInvalidCredentials for both an unknown email and a
// wrong password.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(user)
}

// Profile reloads the caller's account. A caller whose account no longer
// exists is treated as unauthenticated.
func (s *AuthService) Profile(ctx context.Context, caller domain.Identity) (*domain.User, error) {
	if err := authz.Authorize(caller, authz.OpReadProfile); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("profile: %w", err)
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*ports.AuthResult, error) {
	token, err := s.tokens.Issue(domain.Claims{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{User: user, Token: token}, nil
}
