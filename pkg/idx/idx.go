// Package idx mints time-sortable ULID strings: request ids, session row ids
// and the secure ids of posts and categories.
package idx

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out ULIDs that are strictly increasing within a
// millisecond. It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewGenerator draws randomness from r.
func NewGenerator(r io.Reader) *Generator {
	return &Generator{entropy: ulid.Monotonic(r, 0)}
}

// At returns an id stamped with t.
func (g *Generator) At(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}

var std = NewGenerator(rand.Reader)

// New returns an id for the current time.
func New() string { return std.At(time.Now().UTC()) }

// NewAt returns an id stamped with t.
func NewAt(t time.Time) string { return std.At(t) }
