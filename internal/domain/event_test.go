package domain

import (
	"testing"
	"time"
)

func TestEventStatePhaseAt(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 11, 14, 18, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		state EventState
		now   time.Time
		want  Phase
	}{
		{"unscheduled and disabled", EventState{}, at, PhasePending},
		{"explicitly enabled", EventState{Enabled: true}, at, PhaseActive},
		{"one second before", EventState{ScheduledAt: at}, at.Add(-time.Second), PhasePending},
		{"exactly at scheduled time", EventState{ScheduledAt: at}, at, PhaseActive},
		{"after scheduled time", EventState{ScheduledAt: at}, at.Add(time.Hour), PhaseActive},
		{"enabled before scheduled time", EventState{Enabled: true, ScheduledAt: at}, at.Add(-time.Hour), PhaseActive},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.state.PhaseAt(tt.now); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestTimeRemaining(t *testing.T) {
	t.Parallel()

	target := time.Date(2026, 11, 14, 18, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		now  time.Time
		want Countdown
	}{
		{"mixed units", target.Add(-(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second)), Countdown{2, 3, 4, 5}},
		{"sub-second truncated", target.Add(-1500 * time.Millisecond), Countdown{Seconds: 1}},
		{"exactly at target", target, Countdown{}},
		{"past target clamps", target.Add(time.Minute), Countdown{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := TimeRemaining(tt.now, target)
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
