package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemClock(t *testing.T) {
	before := time.Now()
	now := System().Now()
	after := time.Now()

	assert.False(t, now.Before(before))
	assert.False(t, now.After(after))
}

func TestManualClock(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	manual := NewManual(start)
	assert.Equal(t, start, manual.Now())

	manual.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), manual.Now())

	later := start.Add(time.Hour)
	manual.Set(later)
	assert.Equal(t, later, manual.Now())
}
