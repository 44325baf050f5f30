package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clearlot-api/internal/domain"
	"github.com/clearlot-api/internal/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerSettings configures the circuit breaker around the store.
type BreakerSettings struct {
	Name        string
	MaxRequests uint32        // probes allowed while half-open
	Interval    time.Duration // closed-state count reset
	Timeout     time.Duration // open duration before probing
	MinRequests uint32
	FailureRate float64
}

// DefaultBreakerSettings trips after 60% failures over at least 10 calls.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:        "notification-store",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		MinRequests: 10,
		FailureRate: 0.6,
	}
}

type breakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker[any]
}

// WithBreaker wraps s so that a run of failures opens the circuit and further
// calls fail fast with domain.ErrUnavailable. Not-found results do not count
// as failures.
func WithBreaker(s Store, set BreakerSettings) Store {
	metrics.CircuitBreakerState.WithLabelValues(set.Name).Set(0)
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        set.Name,
		MaxRequests: set.MaxRequests,
		Interval:    set.Interval,
		Timeout:     set.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < set.MinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= set.FailureRate
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
		IsSuccessful: storeHealthy,
	})
	return &breakerStore{next: s, cb: cb}
}

func (b *breakerStore) run(op string, fn func() (any, error)) (any, error) {
	v, err := b.cb.Execute(fn)
	if err == nil {
		return v, nil
	}
	if !storeHealthy(err) {
		metrics.NotificationStoreErrors.WithLabelValues(op).Inc()
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("notification store %s: %w", op, domain.ErrUnavailable)
	}
	return nil, err
}

// storeHealthy reports whether err says nothing about the store's health.
func storeHealthy(err error) bool {
	return err == nil || errors.Is(err, domain.ErrNotFound) || errors.Is(err, context.Canceled)
}

type added struct {
	id string
	at time.Time
}

func (b *breakerStore) Add(ctx context.Context, in domain.NotificationInput) (string, time.Time, error) {
	v, err := b.run("add", func() (any, error) {
		id, at, err := b.next.Add(ctx, in)
		return added{id: id, at: at}, err
	})
	if err != nil {
		return "", time.Time{}, err
	}
	a := v.(added)
	return a.id, a.at, nil
}

func (b *breakerStore) List(ctx context.Context, userID string) ([]domain.Notification, error) {
	v, err := b.run("list", func() (any, error) {
		return b.next.List(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Notification), nil
}

func (b *breakerStore) Subscribe(ctx context.Context, userID string, onChange func(domain.NotificationChange)) (func(), error) {
	v, err := b.run("subscribe", func() (any, error) {
		return b.next.Subscribe(ctx, userID, onChange)
	})
	if err != nil {
		return nil, err
	}
	return v.(func()), nil
}

func (b *breakerStore) MarkAsRead(ctx context.Context, notificationID string) error {
	_, err := b.run("mark_read", func() (any, error) {
		return nil, b.next.MarkAsRead(ctx, notificationID)
	})
	return err
}

func (b *breakerStore) MarkAllAsRead(ctx context.Context, userID string) error {
	_, err := b.run("mark_all_read", func() (any, error) {
		return nil, b.next.MarkAllAsRead(ctx, userID)
	})
	return err
}

func (b *breakerStore) Delete(ctx context.Context, notificationID string) error {
	_, err := b.run("delete", func() (any, error) {
		return nil, b.next.Delete(ctx, notificationID)
	})
	return err
}

func (b *breakerStore) DeleteAll(ctx context.Context, userID string) error {
	_, err := b.run("delete_all", func() (any, error) {
		return nil, b.next.DeleteAll(ctx, userID)
	})
	return err
}
