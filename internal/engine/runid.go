package engine

import (
	"sync"

	"github.com/google/uuid"
)

// RunIDGenerator names new runs.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator names runs with time-ordered UUIDv7 strings. The store
// still orders runs by seq; the id is only a lookup key.
type UUIDv7Generator struct{}

// Generate implements RunIDGenerator.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator hands out the given ids in order and panics once they run
// out, which catches a test that starts more runs than it expected.
type FixedGenerator struct {
	mu   sync.Mutex
	ids  []string
	next int
}

func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate implements RunIDGenerator.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.next == len(g.ids) {
		panic("engine: FixedGenerator has no ids left")
	}
	id := g.ids[g.next]
	g.next++
	return id
}
