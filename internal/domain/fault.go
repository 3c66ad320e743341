package domain

import (
	"strings"
	"time"
)

type IssueType string

const (
	IssueDuplicate IssueType = "duplicate"
	IssueInvalid   IssueType = "invalid"
	IssueFraud     IssueType = "fraud"
	IssueRefund    IssueType = "refund"
	IssueOther     IssueType = "other"
)

// ParseIssueType accepts the wire form of an issue type.
func ParseIssueType(s string) (IssueType, error) {
	switch IssueType(strings.ToLower(strings.TrimSpace(s))) {
	case IssueDuplicate:
		return IssueDuplicate, nil
	case IssueInvalid:
		return IssueInvalid, nil
	case IssueFraud:
		return IssueFraud, nil
	case IssueRefund:
		return IssueRefund, nil
	case IssueOther:
		return IssueOther, nil
	default:
		return "", ErrInvalidIssueType
	}
}

// FaultReport is an audit record of an admin adjudicating a disputed sale.
// It references the sale by ticket number and never modifies it.
type FaultReport struct {
	ID                 string
	TicketNumber       string
	BuyerStudentNumber string
	IssueType          IssueType
	ReporterName       string
	Notes              string
	ReportedBy         string
	CreatedAt          time.Time
}
