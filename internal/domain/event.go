package domain

import "time"

// Phase is the event-day phase. PENDING moves to ACTIVE either by the
// explicit admin flag or by reaching the scheduled time.
type Phase string

const (
	PhasePending Phase = "PENDING"
	PhaseActive  Phase = "ACTIVE"
)

// EventState is the singleton event-day configuration.
type EventState struct {
	Enabled bool
	// ScheduledAt is zero when no event time is configured.
	ScheduledAt time.Time
	ActivatedAt *time.Time
	UpdatedAt   time.Time
}

// PhaseAt derives the phase at now. Nothing is cached.
func (s EventState) PhaseAt(now time.Time) Phase {
	if s.Enabled {
		return PhaseActive
	}
	if !s.ScheduledAt.IsZero() && !now.Before(s.ScheduledAt) {
		return PhaseActive
	}
	return PhasePending
}

// Countdown is a whole-unit breakdown of a remaining duration.
type Countdown struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Zero reports whether no time remains.
func (c Countdown) Zero() bool {
	return c == Countdown{}
}

// TimeRemaining returns the time from now until target, clamped to zero once
// the target has passed.
func TimeRemaining(now, target time.Time) Countdown {
	d := target.Sub(now)
	if d <= 0 {
		return Countdown{}
	}
	total := int64(d / time.Second)
	return Countdown{
		Days:    int(total / 86400),
		Hours:   int(total % 86400 / 3600),
		Minutes: int(total % 3600 / 60),
		Seconds: int(total % 60),
	}
}
