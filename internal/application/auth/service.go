package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clearlot-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// ErrAdminRequired is returned when valid credentials belong to a non-admin account.
var ErrAdminRequired = fmt.Errorf("access denied: administrator account required: %w", domain.ErrForbidden)

// UserStore is the subset of the user repository sign-in needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// TokenSigner issues bearer tokens.
type TokenSigner interface {
	Sign(userID, email, role string) (string, error)
}

type LoginResult struct {
	Bearer string       `json:"bearer"`
	User   *domain.User `json:"user"`
}

type Service interface {
	// Login checks email and password and admits administrators only.
	Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error)
}

type ServiceDeps struct {
	UserRepo    UserStore
	JWTProvider TokenSigner
}

type service struct {
	userRepo    UserStore
	jwtProvider TokenSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{userRepo: deps.UserRepo, jwtProvider: deps.JWTProvider}
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !u.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}
	if !u.IsAdmin() {
		slog.Warn("non-admin sign-in rejected", "user_id", u.UserID, "role", u.Role)
		return nil, ErrAdminRequired
	}
	bearer, err := s.jwtProvider.Sign(u.UserID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Bearer: bearer, User: u}, nil
}
