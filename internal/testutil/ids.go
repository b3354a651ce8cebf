package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/querybuilder/internal/query"
)

// SequentialIDs generates ids "<prefix>1", "<prefix>2", ...
//
// This enables deterministic test execution and golden snapshot comparison.
// The same script with a fresh SequentialIDs produces byte-identical trees.
//
// Thread-safety: Next is safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix defaults to "id-".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "id-"
	}
	return &SequentialIDs{prefix: prefix}
}

// Next returns the next id.
func (s *SequentialIDs) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s%d", s.prefix, s.n)
}

// Generator adapts Next to query.IDGenerator.
func (s *SequentialIDs) Generator() query.IDGenerator {
	return s.Next
}

// Reset restarts numbering at 1.
func (s *SequentialIDs) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n = 0
}
