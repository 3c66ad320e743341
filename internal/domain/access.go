package domain

import "time"

// AccessGrant is one redemption in the used-ticket ledger. The ledger holds
// at most one grant per ticket number.
type AccessGrant struct {
	ID            string
	TicketNumber  string
	StudentNumber string
	StaffID       string
	StaffName     string
	GrantedAt     time.Time
}

func (g AccessGrant) GrantDate() string {
	return g.GrantedAt.UTC().Format(time.DateOnly)
}

func (g AccessGrant) GrantTime() string {
	return g.GrantedAt.UTC().Format(time.TimeOnly)
}
