package chainid

import (
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

var canonical = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestUUIDFormat(t *testing.T) {
	var g Generator = UUID{}
	id := g.NewChainID()
	assert.Regexp(t, canonical, id)
	assert.True(t, IsUUID(id))
}

func TestUUIDUniqueUnderConcurrency(t *testing.T) {
	var (
		g    Generator = UUID{}
		mu   sync.Mutex
		seen = make(map[string]struct{})
		wg   sync.WaitGroup
	)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := g.NewChainID()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 800)
}

func TestSequence(t *testing.T) {
	s := NewSequence("cmd")
	assert.Equal(t, "cmd-1", s.NewChainID())
	assert.Equal(t, "cmd-2", s.NewChainID())
}

func TestFunc(t *testing.T) {
	var g Generator = Func(func() string { return "fixed" })
	assert.Equal(t, "fixed", g.NewChainID())
}

func TestIsUUID(t *testing.T) {
	assert.True(t, IsUUID("856ccfc0-8c02-4f6b-a6f6-376b4871f246"))
	assert.False(t, IsUUID("de2466e4066b494c86438e4197cc70be"))
	assert.False(t, IsUUID("123"))
}
