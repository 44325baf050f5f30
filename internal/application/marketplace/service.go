package marketplace

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/clearlot-api/internal/application/notification"
	"github.com/clearlot-api/internal/domain"
)

type PurchaseStore interface {
	Get(ctx context.Context, purchaseID string) (*domain.Purchase, error)
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.Purchase, string, error)
	UpdateStatus(ctx context.Context, purchaseID, status string) error
}

type OfferStore interface {
	Get(ctx context.Context, offerID string) (*domain.Offer, error)
	UpdateStatus(ctx context.Context, offerID, status string) error
	UpdatePrice(ctx context.Context, offerID string, price float64) error
}

type UserStore interface {
	UpdateStatus(ctx context.Context, userID, status string) error
}

type Enricher interface {
	Enrich(ctx context.Context, purchases []domain.Purchase) []domain.EnrichedPurchase
}

// Publisher delivers notifications; notification.Service satisfies it.
type Publisher interface {
	Publish(ctx context.Context, in domain.NotificationInput) error
}

type PurchasePage struct {
	Items      []domain.EnrichedPurchase `json:"items"`
	NextCursor string                    `json:"next_cursor,omitempty"`
}

type Announcement struct {
	UserIDs  []string        `json:"user_ids" validate:"required,min=1,dive,required"`
	Title    string          `json:"title" validate:"required,max=200"`
	Message  string          `json:"message" validate:"required,max=2000"`
	Priority domain.Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
}

// Service holds the back-office operations that change marketplace state and
// notify the affected users.
type Service interface {
	ListPurchases(ctx context.Context, limit int32, cursor string) (*PurchasePage, error)
	UpdatePurchaseStatus(ctx context.Context, purchaseID, status string) error
	NotifyPurchase(ctx context.Context, purchaseID string) error
	UpdateOfferStatus(ctx context.Context, offerID, status string) error
	// UpdateOfferPrice reprices an offer; watchers of the offer are told
	// about a drop on their next poll.
	UpdateOfferPrice(ctx context.Context, offerID string, price float64) error
	UpdateAccountStatus(ctx context.Context, userID, status string, verification bool) error
	Announce(ctx context.Context, a Announcement) (int, error)
}

type ServiceDeps struct {
	Purchases PurchaseStore
	Offers    OfferStore
	Users     UserStore
	Enricher  Enricher
	Publisher Publisher
}

type service struct {
	ServiceDeps
}

func NewService(deps ServiceDeps) Service {
	return &service{ServiceDeps: deps}
}

var purchaseStatuses = map[string]bool{
	domain.PurchaseStatusPending:   true,
	domain.PurchaseStatusPaid:      true,
	domain.PurchaseStatusApproved:  true,
	domain.PurchaseStatusShipped:   true,
	domain.PurchaseStatusDelivered: true,
	domain.PurchaseStatusCancelled: true,
}

func (s *service) ListPurchases(ctx context.Context, limit int32, cursor string) (*PurchasePage, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	items, next, err := s.Purchases.ScanPage(ctx, limit, cursor)
	if err != nil {
		return nil, err
	}
	return &PurchasePage{Items: s.Enricher.Enrich(ctx, items), NextCursor: next}, nil
}

func (s *service) UpdatePurchaseStatus(ctx context.Context, purchaseID, status string) error {
	if !purchaseStatuses[status] {
		return fmt.Errorf("unknown purchase status %q: %w", status, domain.ErrBadRequest)
	}
	p, err := s.Purchases.Get(ctx, purchaseID)
	if err != nil {
		return err
	}
	if p.Status == status {
		return nil
	}
	from := p.Status
	if err := s.Purchases.UpdateStatus(ctx, purchaseID, status); err != nil {
		return err
	}
	p.Status = status

	var in domain.NotificationInput
	switch status {
	case domain.PurchaseStatusPaid:
		in = notification.PaymentReceived(*p)
	case domain.PurchaseStatusApproved:
		in = notification.PaymentApproved(*p)
	default:
		in = notification.OrderStatusChanged(*p, from)
	}
	s.publish(ctx, in)
	return nil
}

func (s *service) NotifyPurchase(ctx context.Context, purchaseID string) error {
	p, err := s.Purchases.Get(ctx, purchaseID)
	if err != nil {
		return err
	}
	offer, err := s.Offers.Get(ctx, p.OfferID)
	if err != nil {
		slog.Warn("purchase offer lookup failed", "purchase_id", purchaseID, "offer_id", p.OfferID, "err", err)
		offer = nil
	}
	for _, in := range notification.PurchaseCreated(*p, offer) {
		s.publish(ctx, in)
	}
	return nil
}

func (s *service) UpdateOfferStatus(ctx context.Context, offerID, status string) error {
	if status == "" {
		return fmt.Errorf("status required: %w", domain.ErrBadRequest)
	}
	if err := s.Offers.UpdateStatus(ctx, offerID, status); err != nil {
		return err
	}
	offer, err := s.Offers.Get(ctx, offerID)
	if err != nil {
		return err
	}
	s.publish(ctx, notification.OfferStatusChanged(*offer))
	return nil
}

func (s *service) UpdateOfferPrice(ctx context.Context, offerID string, price float64) error {
	if price <= 0 {
		return fmt.Errorf("price must be positive: %w", domain.ErrBadRequest)
	}
	if err := s.Offers.UpdatePrice(ctx, offerID, price); err != nil {
		return err
	}
	slog.Info("offer repriced", "offer_id", offerID, "price", price)
	return nil
}

func (s *service) UpdateAccountStatus(ctx context.Context, userID, status string, verification bool) error {
	switch status {
	case domain.UserStatusPending, domain.UserStatusVerified, domain.UserStatusRejected,
		domain.UserStatusActive, domain.UserStatusBlocked:
	default:
		return fmt.Errorf("unknown account status %q: %w", status, domain.ErrBadRequest)
	}
	if err := s.Users.UpdateStatus(ctx, userID, status); err != nil {
		return err
	}
	s.publish(ctx, notification.AccountStatusChanged(userID, status, verification))
	return nil
}

// Announce sends a system notification to every listed user and reports how
// many were delivered.
func (s *service) Announce(ctx context.Context, a Announcement) (int, error) {
	sent := 0
	var lastErr error
	for _, uid := range a.UserIDs {
		err := s.Publisher.Publish(ctx, domain.NotificationInput{
			UserID:   uid,
			Type:     domain.NotificationSystem,
			Title:    a.Title,
			Message:  a.Message,
			Priority: a.Priority,
		})
		if err != nil {
			slog.Error("announcement delivery failed", "user_id", uid, "err", err)
			lastErr = err
			continue
		}
		sent++
	}
	if sent == 0 && lastErr != nil {
		return 0, lastErr
	}
	return sent, nil
}

// publish is best effort: the state change already happened and must not be
// reported as failed because a notification could not be delivered.
func (s *service) publish(ctx context.Context, in domain.NotificationInput) {
	if err := s.Publisher.Publish(ctx, in); err != nil {
		slog.Error("publish notification failed", "user_id", in.UserID, "type", in.Type, "err", err)
	}
}
