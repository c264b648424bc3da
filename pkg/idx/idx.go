// Package idx generates the sortable identifiers attached to sign-in attempts
// and session events so log lines from one flow can be correlated.
package idx

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type ID string

var (
	globalOnce sync.Once
	global     *generator
)

// generator hands out ULIDs from a monotonic source so IDs minted in the same
// millisecond still sort in creation order.
type generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newGenerator() *generator {
	return &generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *generator) newAt(t time.Time) ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	u := ulid.MustNew(ulid.Timestamp(t), g.entropy)
	return ID(u.String())
}

// New returns a new ID stamped with the current UTC time.
func New() ID {
	globalOnce.Do(func() { global = newGenerator() })
	return global.newAt(time.Now().UTC())
}

// String returns the canonical string form.
func (id ID) String() string { return string(id) }
