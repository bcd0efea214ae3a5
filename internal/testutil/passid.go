package testutil

import (
	"fmt"
	"sync"
)

// SequentialPassIDs generates "<prefix>-0001", "<prefix>-0002", ...
//
// Unlike engine.FixedGenerator it never runs out, so scenarios do not need
// to predict how many passes they produce. The same scenario always yields
// the same IDs, which keeps golden traces byte-identical.
//
// Thread-safety: safe for concurrent use.
type SequentialPassIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialPassIDs returns a generator with prefix, or "pass" if empty.
func NewSequentialPassIDs(prefix string) *SequentialPassIDs {
	if prefix == "" {
		prefix = "pass"
	}
	return &SequentialPassIDs{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialPassIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
