package notification

import (
	"time"

	"github.com/clearlot-api/internal/domain"
)

// DefaultDedupWindow is how close in time two matching notifications must be
// for the later one to be discarded.
const DefaultDedupWindow = 3 * time.Second

// dedupRule names which rule discarded a candidate.
type dedupRule string

const (
	ruleNone        dedupRule = ""
	ruleID          dedupRule = "id"
	ruleWindow      dedupRule = "window"
	ruleIdempotency dedupRule = "idempotency"
)

// deduper holds the per-session duplicate guards. It is not safe for
// concurrent use; the owning Session serializes access.
type deduper struct {
	window time.Duration
	keys   map[string]struct{}
}

func newDeduper(window time.Duration) *deduper {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	return &deduper{window: window, keys: make(map[string]struct{})}
}

// check decides whether cand duplicates an entry of existing. Candidates with
// an idempotency key are matched by key alone; the rest fall back to the
// content-and-correlation rule bounded by the time window.
func (d *deduper) check(existing []domain.Notification, cand domain.Notification) dedupRule {
	if key := cand.DataString(domain.DataIdempotencyKey); key != "" {
		if _, seen := d.keys[key]; seen {
			return ruleIdempotency
		}
	}
	for _, e := range existing {
		if sameEvent(e, cand) && within(e.CreatedAt, cand.CreatedAt, d.window) {
			return ruleWindow
		}
	}
	return ruleNone
}

// remember records the idempotency key of an accepted notification.
func (d *deduper) remember(n domain.Notification) {
	if key := n.DataString(domain.DataIdempotencyKey); key != "" {
		d.keys[key] = struct{}{}
	}
}

func sameEvent(a, b domain.Notification) bool {
	return a.Type == b.Type &&
		a.Title == b.Title &&
		a.Message == b.Message &&
		a.DataString(domain.DataOfferID) == b.DataString(domain.DataOfferID) &&
		a.DataString(domain.DataPurchaseID) == b.DataString(domain.DataPurchaseID) &&
		a.DataString(domain.DataStatus) == b.DataString(domain.DataStatus)
}

// within compares in both directions so clock skew between the store and
// this process cannot move a duplicate outside the window.
func within(a, b time.Time, window time.Duration) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d < window
}
