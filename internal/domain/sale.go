package domain

import "time"

// Sale is a ticket sale record. Records are append-only; confirming a
// duplicate annotates the previously active record as superseded.
type Sale struct {
	ID                 string
	TicketNumber       string
	BuyerStudentNumber string
	ExecutiveID        string
	ExecutiveName      string
	SoldAt             time.Time
	SupersededBy       string
	SupersededAt       *time.Time
}

// SaleDate is the calendar day of the sale in UTC.
func (s Sale) SaleDate() string {
	return s.SoldAt.UTC().Format(time.DateOnly)
}

// Active reports whether the sale has not been superseded.
func (s Sale) Active() bool {
	return s.SupersededAt == nil
}

type ResolutionOutcome string

const (
	OutcomeConfirmed  ResolutionOutcome = "confirmed"
	OutcomeCancelled  ResolutionOutcome = "cancelled"
	OutcomeSuperseded ResolutionOutcome = "superseded"
	OutcomeExpired    ResolutionOutcome = "expired"
)

// DuplicateRequest is a pending human decision raised when a sale attempt
// collides with existing records for the same ticket number.
type DuplicateRequest struct {
	Token         string
	TicketNumber  string
	StudentNumber string
	ExecutiveID   string
	ExecutiveName string
	// Conflicts is populated when the request is raised; it is not persisted.
	Conflicts  []Sale
	CreatedAt  time.Time
	ExpiresAt  time.Time
	ResolvedAt *time.Time
	Outcome    ResolutionOutcome
}

// Resolved reports whether a decision (or supersession) already closed the request.
func (r DuplicateRequest) Resolved() bool {
	return r.ResolvedAt != nil
}
