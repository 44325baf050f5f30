package http

import (
	"context"
	"io"

	"github.com/clearlot-api/internal/domain"
	jwtinfra "github.com/clearlot-api/internal/infrastructure/jwt"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateStatus(ctx context.Context, userID, status string) error
}

// PurchaseRepository is the minimal interface the router requires from a purchase store.
type PurchaseRepository interface {
	Get(ctx context.Context, purchaseID string) (*domain.Purchase, error)
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.Purchase, string, error)
	UpdateStatus(ctx context.Context, purchaseID, status string) error
}

// OfferRepository is the minimal interface the router requires from an offer store.
type OfferRepository interface {
	Get(ctx context.Context, offerID string) (*domain.Offer, error)
	UpdateStatus(ctx context.Context, offerID, status string) error
	UpdatePrice(ctx context.Context, offerID string, price float64) error
}

// ObjectStore is the minimal interface the router requires from an object storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

// TokenProvider signs admin tokens and verifies bearer tokens.
type TokenProvider interface {
	Sign(userID, email, role string) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}
