package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/clearlot-api/internal/domain"
	"github.com/clearlot-api/internal/metrics"
	"github.com/clearlot-api/internal/pkg/id"
)

// View is a consistent snapshot of a session. Version grows with every change
// so consumers can tell a newer view from an older one.
type View struct {
	Version       uint64                `json:"version"`
	Notifications []domain.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
}

// SessionOptions configures a Session.
type SessionOptions struct {
	DedupWindow time.Duration
	Pusher      Pusher // nil disables native push
	PushEnabled bool
	Now         func() time.Time
}

// Session is the in-memory, deduplicated notification list of one user. It
// merges locally triggered notifications with the store's live feed. All
// mutations go through its methods.
type Session struct {
	userID string
	store  Store
	opts   SessionOptions
	dedup  *deduper

	mu         sync.Mutex
	items      []domain.Notification // newest first
	suppressed map[string]struct{}   // ids persisted but discarded as duplicates
	version    uint64
	watchers   map[uint64]*watcher
	nextWatch  uint64
	closers    []func()
	closed     bool
}

func newSession(userID string, store Store, opts SessionOptions) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		userID:     userID,
		store:      store,
		opts:       opts,
		dedup:      newDeduper(opts.DedupWindow),
		suppressed: make(map[string]struct{}),
		watchers:   make(map[uint64]*watcher),
	}
}

// OpenSession loads the user's notifications, opens the live feed and, when
// bus is non-nil, subscribes to locally triggered events for the user. Store
// failures are logged and leave the session usable with an empty list.
func OpenSession(ctx context.Context, userID string, store Store, bus *Bus, opts SessionOptions) *Session {
	s := newSession(userID, store, opts)

	initial, err := store.List(ctx, userID)
	if err != nil {
		slog.Error("load notifications failed", "user_id", userID, "err", err)
		initial = nil
	}
	s.mu.Lock()
	s.items = sortNewestFirst(append([]domain.Notification(nil), initial...))
	for _, n := range s.items {
		s.dedup.remember(n)
	}
	s.mu.Unlock()

	if stop, err := store.Subscribe(ctx, userID, s.applyChange); err != nil {
		slog.Error("notification feed subscribe failed", "user_id", userID, "err", err)
	} else {
		s.addCloser(stop)
	}

	if bus != nil {
		s.addCloser(bus.Subscribe(userID, func(in domain.NotificationInput) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if _, _, err := s.Add(ctx, in.Build("", time.Time{})); err != nil {
				slog.Error("add triggered notification failed", "user_id", userID, "err", err)
			}
		}))
	}
	return s
}

func (s *Session) UserID() string { return s.userID }

// Add inserts n. A notification without an id is a fresh payload: it is
// persisted first (a local id is synthesized if that fails), stamped, run
// through the duplicate rules and prepended. A notification that already has
// an id is assumed persisted upstream and is only checked against the ids
// already present. The returned bool reports whether the list changed.
func (s *Session) Add(ctx context.Context, n domain.Notification) (domain.Notification, bool, error) {
	if n.UserID == "" {
		n.UserID = s.userID
	}
	if n.UserID != s.userID {
		return n, false, fmt.Errorf("notification for %s added to session of %s: %w", n.UserID, s.userID, domain.ErrForbidden)
	}
	if n.ID != "" {
		return n, s.insertExisting(n), nil
	}

	in := domain.NotificationInput{
		UserID: n.UserID, Type: n.Type, Title: n.Title, Message: n.Message,
		Priority: n.Priority, Data: n.Data,
	}
	if err := in.Normalize(); err != nil {
		return n, false, err
	}
	newID, createdAt, err := s.store.Add(ctx, in)
	if err != nil {
		slog.Error("persist notification failed, keeping local copy", "user_id", s.userID, "type", in.Type, "err", err)
		newID, createdAt = id.Local(), s.opts.Now().UTC()
	}
	record := in.Build(newID, createdAt)

	s.mu.Lock()
	if s.indexLocked(record.ID) >= 0 {
		// The live feed delivered the stored record before this call got the
		// lock. It is already listed and observers have seen it.
		s.dedup.remember(record)
		s.mu.Unlock()
		s.push(ctx, record)
		return record, true, nil
	}
	if rule := s.dedup.check(s.items, record); rule != ruleNone {
		s.suppressed[record.ID] = struct{}{}
		s.mu.Unlock()
		metrics.NotificationsDeduplicated.WithLabelValues(string(rule)).Inc()
		slog.Debug("duplicate notification discarded", "user_id", s.userID, "rule", rule, "type", record.Type)
		return record, false, nil
	}
	s.dedup.remember(record)
	s.items = append([]domain.Notification{record}, s.items...)
	view, watchers := s.changedLocked()
	s.mu.Unlock()

	metrics.NotificationsAdded.WithLabelValues("local").Inc()
	notify(watchers, view)
	s.push(ctx, record)
	return record, true, nil
}

func (s *Session) insertExisting(n domain.Notification) bool {
	s.mu.Lock()
	if s.indexLocked(n.ID) >= 0 {
		s.mu.Unlock()
		metrics.NotificationsDeduplicated.WithLabelValues(string(ruleID)).Inc()
		return false
	}
	s.dedup.remember(n)
	s.items = append([]domain.Notification{n}, s.items...)
	view, watchers := s.changedLocked()
	s.mu.Unlock()

	metrics.NotificationsAdded.WithLabelValues("existing").Inc()
	notify(watchers, view)
	return true
}

// applyChange merges one live-feed delivery into the list.
func (s *Session) applyChange(c domain.NotificationChange) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	changed := false
	if len(c.Removed) > 0 {
		gone := make(map[string]struct{}, len(c.Removed))
		for _, rid := range c.Removed {
			gone[rid] = struct{}{}
		}
		kept := s.items[:0:0]
		for _, n := range s.items {
			if _, ok := gone[n.ID]; !ok {
				kept = append(kept, n)
			}
		}
		changed = changed || len(kept) != len(s.items)
		s.items = kept
	}
	for _, m := range c.Modified {
		if i := s.indexLocked(m.ID); i >= 0 {
			m.Read = m.Read || s.items[i].Read
			s.items[i] = m
			changed = true
		}
	}
	for _, a := range c.Added {
		if _, ok := s.suppressed[a.ID]; ok {
			continue
		}
		if s.indexLocked(a.ID) >= 0 {
			continue
		}
		s.dedup.remember(a)
		s.items = append(s.items, a)
		metrics.NotificationsAdded.WithLabelValues("feed").Inc()
		changed = true
	}
	if !changed {
		s.mu.Unlock()
		return
	}
	s.items = sortNewestFirst(s.items)
	view, watchers := s.changedLocked()
	s.mu.Unlock()
	notify(watchers, view)
}

// MarkAsRead flips the read flag of one notification after the store accepted it.
func (s *Session) MarkAsRead(ctx context.Context, notificationID string) error {
	if err := s.requireOwned(notificationID); err != nil {
		return err
	}
	if err := s.store.MarkAsRead(ctx, notificationID); err != nil {
		slog.Error("mark notification read failed", "user_id", s.userID, "notification_id", notificationID, "err", err)
		return err
	}
	s.mutate(func() {
		if i := s.indexLocked(notificationID); i >= 0 {
			s.items[i].Read = true
		}
	})
	return nil
}

// MarkAllAsRead flips every read flag after the store accepted it.
func (s *Session) MarkAllAsRead(ctx context.Context) error {
	if err := s.store.MarkAllAsRead(ctx, s.userID); err != nil {
		slog.Error("mark all notifications read failed", "user_id", s.userID, "err", err)
		return err
	}
	s.mutate(func() {
		for i := range s.items {
			s.items[i].Read = true
		}
	})
	return nil
}

// Delete removes one notification after the store deleted it. The relative
// order of the remaining entries is unchanged.
func (s *Session) Delete(ctx context.Context, notificationID string) error {
	if err := s.requireOwned(notificationID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, notificationID); err != nil {
		slog.Error("delete notification failed", "user_id", s.userID, "notification_id", notificationID, "err", err)
		return err
	}
	s.mutate(func() {
		if i := s.indexLocked(notificationID); i >= 0 {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
		}
	})
	return nil
}

// ClearAll empties the list after the store deleted every notification. On
// failure the list is left exactly as it was.
func (s *Session) ClearAll(ctx context.Context) error {
	if err := s.store.DeleteAll(ctx, s.userID); err != nil {
		slog.Error("clear notifications failed", "user_id", s.userID, "err", err)
		return err
	}
	s.mutate(func() {
		s.items = nil
	})
	return nil
}

// Notifications returns a copy of the current list, newest first.
func (s *Session) Notifications() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notification{}, s.items...)
}

// UnreadCount is derived from the current list on every call.
func (s *Session) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return unread(s.items)
}

// View returns the list and unread count taken under one lock.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Watch calls fn with a fresh View after every change, starting with the
// current one. The returned func stops the calls.
func (s *Session) Watch(fn func(View)) func() {
	w := &watcher{fn: fn}
	s.mu.Lock()
	s.nextWatch++
	key := s.nextWatch
	s.watchers[key] = w
	view := s.viewLocked()
	s.mu.Unlock()

	w.deliver(view)
	return func() {
		s.mu.Lock()
		delete(s.watchers, key)
		s.mu.Unlock()
	}
}

// Close stops the live feed, the bus subscription and any attached workers.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	closers := s.closers
	s.closers = nil
	s.watchers = make(map[uint64]*watcher)
	s.mu.Unlock()
	for _, c := range closers {
		c()
	}
}

func (s *Session) addCloser(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, fn)
}

func (s *Session) mutate(fn func()) {
	s.mu.Lock()
	fn()
	view, watchers := s.changedLocked()
	s.mu.Unlock()
	notify(watchers, view)
}

func (s *Session) requireOwned(notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(notificationID) < 0 {
		return fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
	}
	return nil
}

func (s *Session) push(ctx context.Context, n domain.Notification) {
	if s.opts.Pusher == nil || !s.opts.PushEnabled {
		return
	}
	if err := s.opts.Pusher.Push(ctx, n.UserID, n.Title, n.Message); err != nil {
		slog.Warn("native push failed", "user_id", n.UserID, "notification_id", n.ID, "err", err)
	}
}

func (s *Session) indexLocked(notificationID string) int {
	for i, n := range s.items {
		if n.ID == notificationID {
			return i
		}
	}
	return -1
}

func (s *Session) viewLocked() View {
	return View{
		Version:       s.version,
		Notifications: append([]domain.Notification{}, s.items...),
		UnreadCount:   unread(s.items),
	}
}

// changedLocked bumps the version and returns the view to publish together
// with the watchers to publish it to.
func (s *Session) changedLocked() (View, []*watcher) {
	s.version++
	out := make([]*watcher, 0, len(s.watchers))
	for _, w := range s.watchers {
		out = append(out, w)
	}
	return s.viewLocked(), out
}

// watcher serializes calls to one observer and drops views older than the
// last one it delivered. Views are published outside the session lock, so
// two changes can reach notify in either order.
type watcher struct {
	mu        sync.Mutex
	delivered bool
	last      uint64
	fn        func(View)
}

func (w *watcher) deliver(v View) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.delivered && v.Version <= w.last {
		return
	}
	w.delivered, w.last = true, v.Version
	w.fn(v)
}

func notify(watchers []*watcher, v View) {
	for _, w := range watchers {
		w.deliver(v)
	}
}

func unread(items []domain.Notification) int {
	count := 0
	for _, n := range items {
		if !n.Read {
			count++
		}
	}
	return count
}

func sortNewestFirst(items []domain.Notification) []domain.Notification {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items
}
