package notification

import (
	"context"
	"time"

	"github.com/clearlot-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

// --- mocks ---

type mockStore struct{ mock.Mock }

func (m *mockStore) Add(ctx context.Context, in domain.NotificationInput) (string, time.Time, error) {
	args := m.Called(ctx, in)
	at, _ := args.Get(1).(time.Time)
	return args.String(0), at, args.Error(2)
}

func (m *mockStore) List(ctx context.Context, userID string) ([]domain.Notification, error) {
	args := m.Called(ctx, userID)
	l, _ := args.Get(0).([]domain.Notification)
	return l, args.Error(1)
}

func (m *mockStore) Subscribe(ctx context.Context, userID string, onChange func(domain.NotificationChange)) (func(), error) {
	args := m.Called(ctx, userID, onChange)
	stop, _ := args.Get(0).(func())
	return stop, args.Error(1)
}

func (m *mockStore) MarkAsRead(ctx context.Context, notificationID string) error {
	return m.Called(ctx, notificationID).Error(0)
}

func (m *mockStore) MarkAllAsRead(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockStore) Delete(ctx context.Context, notificationID string) error {
	return m.Called(ctx, notificationID).Error(0)
}

func (m *mockStore) DeleteAll(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockPusher struct{ mock.Mock }

func (m *mockPusher) Push(ctx context.Context, userID, title, body string) error {
	return m.Called(ctx, userID, title, body).Error(0)
}

type staticPrefs bool

func (p staticPrefs) PushEnabled(context.Context, string) bool { return bool(p) }

// --- helpers ---

var t0 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

// newStore returns a store mock whose List returns initial and whose live feed
// hands its callback to *feed.
func newStore(initial []domain.Notification, feed *func(domain.NotificationChange)) *mockStore {
	st := &mockStore{}
	st.On("List", mock.Anything, "u1").Return(initial, nil)
	st.On("Subscribe", mock.Anything, "u1", mock.Anything).
		Run(func(args mock.Arguments) {
			if feed != nil {
				*feed = args.Get(2).(func(domain.NotificationChange))
			}
		}).
		Return(func() {}, nil)
	return st
}

func openTestSession(st Store, opts SessionOptions) *Session {
	if opts.Now == nil {
		opts.Now = func() time.Time { return t0 }
	}
	return OpenSession(context.Background(), "u1", st, nil, opts)
}

func bare(title, offerID string) domain.Notification {
	return domain.Notification{
		UserID:  "u1",
		Type:    domain.NotificationPurchase,
		Title:   title,
		Message: "You purchased 10 x Cotton T-shirts",
		Data:    map[string]any{domain.DataOfferID: offerID, domain.DataPurchaseID: "p1", domain.DataStatus: "pending"},
	}
}

func ids(ns []domain.Notification) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}
