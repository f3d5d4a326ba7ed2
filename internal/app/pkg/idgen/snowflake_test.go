package idgen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNextIDIsMonotonicWithinSecond(t *testing.T) {
	g := NewSnowflakeIDGenerator(7)
	g.now = fixedClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))

	first := g.NextID()
	second := g.NextID()

	assert.Equal(t, first+1, second)
	assert.Equal(t, int64(7), (first/1000)%100)
}

func TestNextIDBorrowsNextSecondWhenSequenceExhausted(t *testing.T) {
	g := NewSnowflakeIDGenerator(1)
	g.now = fixedClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))

	seen := make(map[int64]bool)
	for i := 0; i <= maxSequence+5; i++ {
		id := g.NextID()
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
}

func TestNextIDToleratesClockRollback(t *testing.T) {
	g := NewSnowflakeIDGenerator(1)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	g.now = fixedClock(base)
	a := g.NextID()
	g.now = fixedClock(base.Add(-5 * time.Second))
	b := g.NextID()

	assert.Greater(t, b, a)
}

func TestInvalidMachineIDFallsBackToZero(t *testing.T) {
	g := NewSnowflakeIDGenerator(500)
	assert.Zero(t, g.machineID)
	assert.NotEmpty(t, GenerateID())
}
