package testutil

import (
	"fmt"
	"sync"
)

// SequentialGenerator generates mutation ids "<prefix>-1", "<prefix>-2", ...
//
// The same scenario run with a fresh SequentialGenerator produces identical
// mutation ids, so golden traces compare byte for byte.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int64
}

// NewSequentialGenerator creates a generator. An empty prefix uses "m".
func NewSequentialGenerator(prefix string) *SequentialGenerator {
	if prefix == "" {
		prefix = "m"
	}
	return &SequentialGenerator{prefix: prefix}
}

// Generate returns the next id. Implements engine.IDGenerator.
func (g *SequentialGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts numbering at 1.
func (g *SequentialGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
