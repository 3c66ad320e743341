// Package validation holds the field format rules shared by selling and
// event-day redemption.
package validation

import (
	"regexp"
	"strings"

	"github.com/JayMiller08/sci-sa-gala/internal/domain"
)

const (
	FieldTicketNumber  = "ticket_number"
	FieldStudentNumber = "student_number"
	// FieldBuyer names the student number on fault reports.
	FieldBuyer = "buyer"
)

const (
	MsgTicketRequired  = "Ticket number is required"
	MsgTicketFormat    = "Ticket number must be M followed by 3 digits (e.g., M123)"
	MsgStudentRequired = "Student number is required"
	MsgStudentFormat   = "Student number must be exactly 9 digits"
)

var (
	ticketPattern  = regexp.MustCompile(`^M[0-9]{3}$`)
	studentPattern = regexp.MustCompile(`^[0-9]{9}$`)
)

// IsValidTicketNumber reports whether s is an uppercase M followed by three
// digits. Surrounding whitespace is not tolerated.
func IsValidTicketNumber(s string) bool {
	return ticketPattern.MatchString(s)
}

// IsValidStudentNumber reports whether s is exactly nine digits.
func IsValidStudentNumber(s string) bool {
	return studentPattern.MatchString(s)
}

// Result is the outcome of validating a form. Fields holds at most one
// message per field.
type Result struct {
	Valid  bool
	Fields map[string]string
}

// Err returns nil for a valid result and a validation error otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return domain.ValidationError(r.Fields)
}

// RenameField moves the message for field from to field to, for forms that
// name the same input differently.
func (r Result) RenameField(from, to string) Result {
	msg, ok := r.Fields[from]
	if !ok {
		return r
	}
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		if k != from {
			fields[k] = v
		}
	}
	fields[to] = msg
	return Result{Valid: r.Valid, Fields: fields}
}

// ValidateSaleForm checks the ticket/student pair used by sales and grants.
func ValidateSaleForm(ticketNumber, studentNumber string) Result {
	fields := make(map[string]string)
	switch {
	case strings.TrimSpace(ticketNumber) == "":
		fields[FieldTicketNumber] = MsgTicketRequired
	case !IsValidTicketNumber(ticketNumber):
		fields[FieldTicketNumber] = MsgTicketFormat
	}
	switch {
	case strings.TrimSpace(studentNumber) == "":
		fields[FieldStudentNumber] = MsgStudentRequired
	case !IsValidStudentNumber(studentNumber):
		fields[FieldStudentNumber] = MsgStudentFormat
	}
	return Result{Valid: len(fields) == 0, Fields: fields}
}
