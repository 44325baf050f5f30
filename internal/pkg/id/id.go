package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// LocalPrefix marks ids minted in process for records the store never saw.
const LocalPrefix = "local-"

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns a ULID for the current time.
func New() string {
	return NewAt(time.Now())
}

// NewAt returns a ULID whose timestamp is t. Ids minted within the same
// millisecond still sort in creation order.
func NewAt(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Local returns an id for a record that exists only in memory.
func Local() string {
	return LocalPrefix + New()
}

// IsLocal reports whether id was minted by Local.
func IsLocal(id string) bool {
	return len(id) > len(LocalPrefix) && id[:len(LocalPrefix)] == LocalPrefix
}
