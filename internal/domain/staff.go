package domain

import "time"

// Staff is a login-capable member of the ticketing team.
type Staff struct {
	ID           string
	Username     string
	DisplayName  string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
}

// StoredSession is the server-side record backing an issued session token.
type StoredSession struct {
	ID        string
	StaffID   string
	CreatedAt time.Time
	ExpiresAt time.Time
}
