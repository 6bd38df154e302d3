package testfixtures

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces deterministic identifiers for tests.
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
	uuids   bool
}

// NewIDGenerator constructs a generator that yields identifiers with the given
// prefix. When prefix is empty, "res" is used.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "res"
	}
	return &IDGenerator{prefix: prefix}
}

// NewUUIDGenerator yields UUIDs shaped like production reservation ids.
// They are derived from the prefix and a counter, so a sequence repeats
// between runs.
func NewUUIDGenerator(prefix string) *IDGenerator {
	g := NewIDGenerator(prefix)
	g.uuids = true
	return g
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	name := fmt.Sprintf("%s-%d", g.prefix, g.counter)
	if g.uuids {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
	}
	return name
}

// NextFunc exposes Next as a function suitable for dependency injection.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return uuid.NewString
	}
	return g.Next
}

// SetCounter overrides the internal counter, enabling deterministic resets.
func (g *IDGenerator) SetCounter(counter uint64) {
	g.mu.Lock()
	g.counter = counter
	g.mu.Unlock()
}
