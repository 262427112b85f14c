package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStepClock_Advances(t *testing.T) {
	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	c := NewStepClock(start, time.Minute)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(time.Minute), c.Now())
	assert.Equal(t, start.Add(2*time.Minute), c.Peek())
	assert.Equal(t, start.Add(2*time.Minute), c.Now())
}

func TestStepClock_Defaults(t *testing.T) {
	c := NewStepClock(time.Time{}, 0)

	assert.Equal(t, Epoch, c.Now())
	assert.Equal(t, Epoch.Add(time.Second), c.Now())
}

func TestStepClock_Reset(t *testing.T) {
	c := NewStepClock(time.Time{}, time.Hour)
	c.Now()
	c.Now()
	c.Reset()

	assert.Equal(t, Epoch, c.Now())
}

func TestStepClock_ConcurrentNowIsUnique(t *testing.T) {
	c := NewStepClock(time.Time{}, time.Millisecond)

	const n = 100
	results := make(chan time.Time, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- c.Now()
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[time.Time]bool)
	for ts := range results {
		assert.False(t, seen[ts], "duplicate timestamp %v", ts)
		seen[ts] = true
	}
	assert.Len(t, seen, n)
}

func TestSequentialIDs_ResetAndDefault(t *testing.T) {
	g := NewSequentialIDs("model")

	assert.Equal(t, "model-0001", g.Generate())
	assert.Equal(t, "model-0002", g.Generate())

	g.Reset()
	assert.Equal(t, "model-0001", g.Generate())

	assert.Equal(t, "id-0001", NewSequentialIDs("").Generate())
}
