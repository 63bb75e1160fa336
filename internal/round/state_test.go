package round

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPhaseOf(t *testing.T) {
	deadline := time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC)

	tests := []struct {
		name      string
		resolved  bool
		cancelled bool
		now       time.Time
		want      Phase
	}{
		{name: "before the deadline", now: deadline.Add(-time.Minute), want: PhaseActive},
		{name: "exactly at the deadline the window is still open", now: deadline, want: PhaseActive},
		{name: "one second past the deadline", now: deadline.Add(time.Second), want: PhaseAwaitingResolution},
		{name: "long past the deadline", now: deadline.Add(48 * time.Hour), want: PhaseAwaitingResolution},
		{name: "resolved flag wins over the clock", resolved: true, now: deadline.Add(-time.Minute), want: PhaseResolved},
		{name: "cancelled flag wins over the clock", cancelled: true, now: deadline.Add(time.Hour), want: PhaseCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Round{
				RoundID:   "r-phase",
				Deadline:  deadline,
				Resolved:  tt.resolved,
				Cancelled: tt.cancelled,
			}
			assert.Equal(t, tt.want, PhaseOf(r, tt.now))
		})
	}
}

func TestPhaseIsTerminal(t *testing.T) {
	assert.False(t, PhaseActive.IsTerminal())
	assert.False(t, PhaseAwaitingResolution.IsTerminal())
	assert.True(t, PhaseResolved.IsTerminal())
	assert.True(t, PhaseCancelled.IsTerminal())
}
