package domain

import (
	"fmt"
	"time"
)

// NotificationType tags what kind of marketplace event a notification reports.
type NotificationType string

const (
	NotificationPurchase           NotificationType = "purchase"
	NotificationSale               NotificationType = "sale"
	NotificationPayment            NotificationType = "payment"
	NotificationOffer              NotificationType = "offer"
	NotificationSystem             NotificationType = "system"
	NotificationWatchlist          NotificationType = "watchlist"
	NotificationOrderStatus        NotificationType = "order_status"
	NotificationPriceDrop          NotificationType = "price_drop"
	NotificationOfferPurchased     NotificationType = "offer_purchased"
	NotificationAccountStatus      NotificationType = "account_status"
	NotificationVerificationStatus NotificationType = "verification_status"
	NotificationOfferSalesStatus   NotificationType = "offer_sales_status"
	NotificationPaymentApproved    NotificationType = "payment_approved"
	NotificationReport             NotificationType = "report"
	NotificationMessage            NotificationType = "message"
)

var notificationTypes = map[NotificationType]struct{}{
	NotificationPurchase: {}, NotificationSale: {}, NotificationPayment: {},
	NotificationOffer: {}, NotificationSystem: {}, NotificationWatchlist: {},
	NotificationOrderStatus: {}, NotificationPriceDrop: {}, NotificationOfferPurchased: {},
	NotificationAccountStatus: {}, NotificationVerificationStatus: {},
	NotificationOfferSalesStatus: {}, NotificationPaymentApproved: {},
	NotificationReport: {}, NotificationMessage: {},
}

// Valid reports whether t belongs to the closed set of notification types.
func (t NotificationType) Valid() bool {
	_, ok := notificationTypes[t]
	return ok
}

// Priority ranks how prominently a notification is surfaced.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Well-known keys of Notification.Data.
const (
	DataOfferID        = "offerId"
	DataPurchaseID     = "purchaseId"
	DataStatus         = "status"
	DataAmount         = "amount"
	DataActionURL      = "actionUrl"
	DataIdempotencyKey = "idempotencyKey"
)

// Notification is a single message addressed to one user. ID and CreatedAt are
// fixed at creation; Read only ever moves from false to true.
type Notification struct {
	ID        string           `json:"id" dynamodbav:"notification_id"`
	UserID    string           `json:"user_id" dynamodbav:"user_id"`
	Type      NotificationType `json:"type" dynamodbav:"type"`
	Title     string           `json:"title" dynamodbav:"title"`
	Message   string           `json:"message" dynamodbav:"message"`
	Read      bool             `json:"read" dynamodbav:"read"`
	Priority  Priority         `json:"priority" dynamodbav:"priority"`
	Data      map[string]any   `json:"data,omitempty" dynamodbav:"data,omitempty"`
	CreatedAt time.Time        `json:"created" dynamodbav:"created_at"`
}

// NotificationInput is a freshly triggered payload that has not been persisted
// yet and therefore carries no id or timestamp.
type NotificationInput struct {
	UserID   string           `json:"user_id" validate:"required"`
	Type     NotificationType `json:"type" validate:"required"`
	Title    string           `json:"title" validate:"required,max=200"`
	Message  string           `json:"message" validate:"required,max=2000"`
	Priority Priority         `json:"priority" validate:"omitempty,oneof=low medium high"`
	Data     map[string]any   `json:"data,omitempty"`
}

// Normalize applies defaults and rejects unknown types.
func (in *NotificationInput) Normalize() error {
	if !in.Type.Valid() {
		return fmt.Errorf("unknown notification type %q: %w", in.Type, ErrBadRequest)
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	return nil
}

// Build turns the payload into a full record with the given identity.
func (in NotificationInput) Build(id string, createdAt time.Time) Notification {
	return Notification{
		ID:        id,
		UserID:    in.UserID,
		Type:      in.Type,
		Title:     in.Title,
		Message:   in.Message,
		Priority:  in.Priority,
		Data:      in.Data,
		CreatedAt: createdAt,
	}
}

// DataString returns the string form of a correlation field, or "" when absent.
func (n Notification) DataString(key string) string {
	v, ok := n.Data[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// NotificationChange is one delivery of a live feed: the delta against the
// previous delivery together with the full current result set.
type NotificationChange struct {
	Added    []Notification
	Modified []Notification
	Removed  []string
	Snapshot []Notification
}

// Empty reports whether the change carries no delta.
func (c NotificationChange) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Removed) == 0
}
