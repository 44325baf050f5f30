package notification

import (
	"context"
	"time"

	"github.com/clearlot-api/internal/domain"
)

// Store is the durable side of the pipeline. Implementations persist
// notifications and provide a live feed of a user's notifications.
type Store interface {
	Add(ctx context.Context, in domain.NotificationInput) (string, time.Time, error)
	List(ctx context.Context, userID string) ([]domain.Notification, error)
	// Subscribe delivers the user's notifications as deltas until the
	// returned func is called.
	Subscribe(ctx context.Context, userID string, onChange func(domain.NotificationChange)) (func(), error)
	MarkAsRead(ctx context.Context, notificationID string) error
	MarkAllAsRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, notificationID string) error
	DeleteAll(ctx context.Context, userID string) error
}

// Pusher sends the native push that mirrors a newly added notification.
type Pusher interface {
	Push(ctx context.Context, userID, title, body string) error
}

// PushPreferences reports whether a user opted into native push.
type PushPreferences interface {
	PushEnabled(ctx context.Context, userID string) bool
}
