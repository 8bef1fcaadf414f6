package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_Next_Increments(t *testing.T) {
	c := NewDeterministicClock()

	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(3), c.Next())
	assert.Equal(t, int64(3), c.Current())
}

func TestDeterministicClock_Reset_RewindsToZero(t *testing.T) {
	c := NewDeterministicClock()
	c.Next()
	c.Next()

	c.Reset()

	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
}

func TestDeterministicClock_Concurrent_NoDuplicates(t *testing.T) {
	c := NewDeterministicClock()

	const goroutines = 8
	const perGoroutine = 100

	var mu sync.Mutex
	seen := make(map[int64]bool)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				seq := c.Next()
				mu.Lock()
				seen[seq] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, goroutines*perGoroutine)
	assert.Equal(t, int64(goroutines*perGoroutine), c.Current())
}

func TestFixedTokenGenerator_Generate_ReturnsFixedToken(t *testing.T) {
	g := NewFixedTokenGenerator("test-session-0042")

	assert.Equal(t, "test-session-0042", g.Generate())
	assert.Equal(t, "test-session-0042", g.Generate())
}

func TestFixedTokenGenerator_EmptyToken_UsesDefault(t *testing.T) {
	g := NewFixedTokenGenerator("")

	assert.Equal(t, "test-session-default", g.Generate())
}
