package counters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterStartsAtOneAndOnlyGrows(t *testing.T) {
	c := NewCounter("x", 0)
	assert.Equal(t, 1, c.Count)

	c.Add(-5)
	assert.Equal(t, 1, c.Count)
	c.Add(2)
	assert.Equal(t, 3, c.Count)
}

func TestCountersMerge(t *testing.T) {
	cs := NewCounters()
	cs.Increment(CounterTypeResource)
	cs.AddCounter(CounterTypeResource.New(2))
	cs.AddCounter(nil)
	assert.Equal(t, 3, cs.Count(CounterTypeResource))
	assert.Zero(t, cs.Count(CounterTypeAttacksMade))
}

func TestCountersSnapshotIsDetached(t *testing.T) {
	cs := NewCounters()
	cs.Increment(CounterTypeSupportsPlayed)
	cs.Increment(CounterTypeAttacksMade)
	cs.Increment(CounterTypeAttacksMade)

	snap := cs.Snapshot()
	assert.Equal(t, map[string]int{"attacks_made": 2, "supports_played": 1}, snap)
	cs.Increment(CounterTypeAttacksMade)
	assert.Equal(t, 2, snap["attacks_made"])

	cs.Clear()
	assert.Empty(t, cs.Snapshot())
}
