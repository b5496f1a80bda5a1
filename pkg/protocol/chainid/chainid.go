// Package chainid produces the identifiers that correlate a command with
// its result.
package chainid

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces unique chain ids. Implementations must be safe for
// concurrent use.
type Generator interface {
	NewChainID() string
}

// UUID generates random version 4 UUIDs in canonical 8-4-4-4-12 form.
type UUID struct{}

func (UUID) NewChainID() string {
	return uuid.NewString()
}

// Sequence yields prefix-1, prefix-2, ... Useful where ids must be
// predictable.
type Sequence struct {
	prefix string
	n      atomic.Uint64
}

// NewSequence creates a Sequence with the given prefix.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) NewChainID() string {
	return fmt.Sprintf("%s-%d", s.prefix, s.n.Add(1))
}

// IsUUID reports whether id is in canonical UUID form.
func IsUUID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
