package dynamo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/clearlot-api/internal/domain"
)

// NotificationLister lists a user's notifications newest first.
type NotificationLister interface {
	List(ctx context.Context, userID string) ([]domain.Notification, error)
}

// PollThrough makes the live feed read through l, usually the circuit-breaker
// wrapped store, so an open circuit also stops the feed's queries. Call it
// before the first Subscribe.
func (r *NotificationRepo) PollThrough(l NotificationLister) { r.feedSource = l }

func (r *NotificationRepo) feedLister() NotificationLister {
	if r.feedSource != nil {
		return r.feedSource
	}
	return r
}

// Subscribe opens a live feed for userID. DynamoDB has no per-query push
// channel, so the user's notifications are polled and each poll that differs
// from the previous one is delivered as a delta plus the full snapshot. The
// first delivery carries the whole current list as Added.
func (r *NotificationRepo) Subscribe(ctx context.Context, userID string, onChange func(domain.NotificationChange)) (func(), error) {
	initial, err := r.feedLister().List(ctx, userID)
	if err != nil {
		return nil, err
	}
	feedCtx, cancel := context.WithCancel(context.Background())
	go r.poll(feedCtx, userID, initial, onChange)
	return cancel, nil
}

func (r *NotificationRepo) poll(ctx context.Context, userID string, prev []domain.Notification, onChange func(domain.NotificationChange)) {
	onChange(diffNotifications(nil, prev))

	lister := r.feedLister()
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		next, err := lister.List(ctx, userID)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			continue
		case errors.Is(err, domain.ErrUnavailable):
			slog.Debug("notification feed paused, store unavailable", "user_id", userID)
			continue
		default:
			slog.Warn("notification feed poll failed", "user_id", userID, "err", err)
			continue
		}
		change := diffNotifications(prev, next)
		prev = next
		if change.Empty() {
			continue
		}
		onChange(change)
	}
}

// diffNotifications compares two snapshots by id. Only the read flag can
// change on an existing record, so that is the only field checked for
// modification.
func diffNotifications(prev, next []domain.Notification) domain.NotificationChange {
	before := make(map[string]domain.Notification, len(prev))
	for _, n := range prev {
		before[n.ID] = n
	}
	change := domain.NotificationChange{Snapshot: next}
	seen := make(map[string]struct{}, len(next))
	for _, n := range next {
		seen[n.ID] = struct{}{}
		old, ok := before[n.ID]
		switch {
		case !ok:
			change.Added = append(change.Added, n)
		case old.Read != n.Read:
			change.Modified = append(change.Modified, n)
		}
	}
	for _, n := range prev {
		if _, ok := seen[n.ID]; !ok {
			change.Removed = append(change.Removed, n.ID)
		}
	}
	return change
}
