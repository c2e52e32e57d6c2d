package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator generates predictable document ids.
//
// This enables deterministic store tests and golden comparison: the same
// sequence of calls always yields "<prefix>-0001", "<prefix>-0002", ...
//
// Thread-safety: FixedIDGenerator is safe for concurrent use.
type FixedIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewFixedIDGenerator creates a generator. If prefix is empty, "test-doc" is used.
func NewFixedIDGenerator(prefix string) *FixedIDGenerator {
	if prefix == "" {
		prefix = "test-doc"
	}
	return &FixedIDGenerator{prefix: prefix}
}

// Generate returns the next id in sequence.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset restarts the sequence.
func (g *FixedIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
