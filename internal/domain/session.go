package domain

import "time"

// Session is an authenticated staff identity. It is immutable once issued.
type Session struct {
	ID          string
	Role        Role
	DisplayName string
	UserID      string
	ExpiresAt   time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
