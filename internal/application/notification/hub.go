package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/clearlot-api/internal/domain"
	"github.com/clearlot-api/internal/metrics"
)

// Worker is a background producer attached to an open session, such as the
// order-status and price watchers. Run blocks until ctx is cancelled.
type Worker interface {
	Run(ctx context.Context, userID string, publish func(domain.NotificationInput))
}

// HubOptions configures the sessions a Hub opens.
type HubOptions struct {
	DedupWindow time.Duration
	IdleTimeout time.Duration // how long an unused session stays open; 0 closes immediately
	Pusher      Pusher
	Prefs       PushPreferences
	Workers     []Worker
}

type hubEntry struct {
	ready   chan struct{}
	session *Session
	refs    int
	idle    *time.Timer
	closed  bool
}

// Hub owns one Session per active user and shares it between every request
// and stream of that user.
type Hub struct {
	store Store
	bus   *Bus
	opts  HubOptions

	mu       sync.Mutex
	sessions map[string]*hubEntry
}

func NewHub(store Store, bus *Bus, opts HubOptions) *Hub {
	return &Hub{store: store, bus: bus, opts: opts, sessions: make(map[string]*hubEntry)}
}

// Bus returns the event bus sessions of this hub listen on.
func (h *Hub) Bus() *Bus { return h.bus }

// Acquire returns the user's session, opening it on first use. The release
// func must be called exactly once when the caller is done with it.
func (h *Hub) Acquire(ctx context.Context, userID string) (*Session, func()) {
	h.mu.Lock()
	e, ok := h.sessions[userID]
	if ok {
		e.refs++
		if e.idle != nil {
			e.idle.Stop()
			e.idle = nil
		}
		h.mu.Unlock()
		<-e.ready
		return e.session, h.releaseFunc(userID, e)
	}
	e = &hubEntry{ready: make(chan struct{}), refs: 1}
	h.sessions[userID] = e
	h.mu.Unlock()

	e.session = h.open(ctx, userID)
	close(e.ready)

	h.mu.Lock()
	if h.sessions[userID] != e {
		// Shutdown ran while the session was opening.
		h.closeLocked(userID, e)
	}
	h.mu.Unlock()
	return e.session, h.releaseFunc(userID, e)
}

func (h *Hub) open(ctx context.Context, userID string) *Session {
	opts := SessionOptions{DedupWindow: h.opts.DedupWindow, Pusher: h.opts.Pusher}
	if h.opts.Pusher != nil && h.opts.Prefs != nil {
		opts.PushEnabled = h.opts.Prefs.PushEnabled(ctx, userID)
	}
	s := OpenSession(ctx, userID, h.store, h.bus, opts)

	if len(h.opts.Workers) > 0 {
		wctx, cancel := context.WithCancel(context.Background())
		publish := func(in domain.NotificationInput) { h.bus.Trigger(in) }
		for _, w := range h.opts.Workers {
			go w.Run(wctx, userID, publish)
		}
		s.addCloser(cancel)
	}
	metrics.ActiveSessions.Inc()
	slog.Info("notification session opened", "user_id", userID)
	return s
}

func (h *Hub) releaseFunc(userID string, e *hubEntry) func() {
	var once sync.Once
	return func() { once.Do(func() { h.release(userID, e) }) }
}

func (h *Hub) release(userID string, e *hubEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e.refs--
	if e.refs > 0 {
		return
	}
	if h.opts.IdleTimeout <= 0 {
		h.closeLocked(userID, e)
		return
	}
	e.idle = time.AfterFunc(h.opts.IdleTimeout, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if cur, ok := h.sessions[userID]; ok && cur == e && e.refs == 0 {
			h.closeLocked(userID, e)
		}
	})
}

// closeLocked detaches e and closes its session once. An entry that was
// already replaced or removed is closed without touching the map.
func (h *Hub) closeLocked(userID string, e *hubEntry) {
	if h.sessions[userID] == e {
		delete(h.sessions, userID)
	}
	if e.closed {
		return
	}
	e.closed = true
	e.session.Close()
	metrics.ActiveSessions.Dec()
	slog.Info("notification session closed", "user_id", userID)
}

// Publish delivers a freshly triggered notification. When the user has an
// open session the session persists and deduplicates it; otherwise it is
// written straight to the store so the next session picks it up.
func (h *Hub) Publish(ctx context.Context, in domain.NotificationInput) error {
	if err := in.Normalize(); err != nil {
		return err
	}
	if h.bus.Trigger(in) > 0 {
		return nil
	}
	if _, _, err := h.store.Add(ctx, in); err != nil {
		return err
	}
	if h.opts.Pusher != nil && h.opts.Prefs != nil && h.opts.Prefs.PushEnabled(ctx, in.UserID) {
		if err := h.opts.Pusher.Push(ctx, in.UserID, in.Title, in.Message); err != nil {
			slog.Warn("native push failed", "user_id", in.UserID, "err", err)
		}
	}
	return nil
}

// Open reports how many sessions are currently held.
func (h *Hub) Open() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Shutdown closes every session regardless of outstanding references. A
// session still opening is closed by its opener once it is ready.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, e := range h.sessions {
		if e.idle != nil {
			e.idle.Stop()
		}
		select {
		case <-e.ready:
			h.closeLocked(userID, e)
		default:
			delete(h.sessions, userID)
		}
	}
}
