package notification

import (
	"log/slog"
	"sync"

	"github.com/clearlot-api/internal/domain"
)

// Handler receives a triggered notification payload.
type Handler func(domain.NotificationInput)

type subscription struct {
	userID string
	fn     Handler
}

// Bus is an in-process publish/subscribe channel for freshly triggered
// notifications. Delivery is synchronous and nothing is persisted: an event
// with no subscriber is lost unless the publisher stores it itself.
type Bus struct {
	mu   sync.RWMutex
	subs []*subscription
}

func NewBus() *Bus { return &Bus{} }

// Subscribe registers fn for events addressed to userID. An empty userID
// receives every event. The returned func removes the subscription and is
// safe to call more than once.
func (b *Bus) Subscribe(userID string, fn Handler) func() {
	sub := &subscription{userID: userID, fn: fn}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s == sub {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Trigger invokes every matching subscriber in registration order and returns
// how many were called. A panicking subscriber is logged and skipped so the
// remaining subscribers still receive the event.
func (b *Bus) Trigger(in domain.NotificationInput) int {
	b.mu.RLock()
	targets := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.userID == "" || s.userID == in.UserID {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		if deliver(s, in) {
			delivered++
		}
	}
	return delivered
}

func deliver(s *subscription, in domain.NotificationInput) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("notification subscriber panicked", "user_id", in.UserID, "type", in.Type, "panic", r)
			ok = false
		}
	}()
	s.fn(in)
	return true
}
