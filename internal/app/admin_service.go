package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/JayMiller08/sci-sa-gala/internal/clock"
	"github.com/JayMiller08/sci-sa-gala/internal/domain"
	"github.com/JayMiller08/sci-sa-gala/internal/validation"
)

// EventStateStore persists the event-day flag and schedule.
type EventStateStore interface {
	GetEventState(ctx context.Context) (domain.EventState, error)
	SetEnabled(ctx context.Context, enabled bool, at time.Time) error
	SetSchedule(ctx context.Context, scheduledAt time.Time, at time.Time) error
	SeedSchedule(ctx context.Context, scheduledAt time.Time, at time.Time) (bool, error)
}

type FaultRepository interface {
	CreateFaultReport(ctx context.Context, report domain.FaultReport) error
	ListFaultReports(ctx context.Context, ticketNumber string) ([]domain.FaultReport, error)
}

// AdminService holds privileged operations. Callers are expected to have
// passed the ADMIN route guard.
type AdminService struct {
	events EventStateStore
	faults FaultRepository
	clock  clock.Clock
	logger *slog.Logger
}

func NewAdminService(events EventStateStore, faults FaultRepository, clk clock.Clock, logger *slog.Logger) *AdminService {
	return &AdminService{
		events: events,
		faults: faults,
		clock:  clk,
		logger: loggerOrDefault(logger),
	}
}

// SetEventPhase sets the explicit activation flag and returns the new state.
func (s *AdminService) SetEventPhase(ctx context.Context, enabled bool) (domain.EventState, error) {
	if err := s.events.SetEnabled(ctx, enabled, s.clock.Now()); err != nil {
		return domain.EventState{}, err
	}
	s.logger.InfoContext(ctx, "event day flag changed", slog.Bool("enabled", enabled))
	return s.events.GetEventState(ctx)
}

// SetSchedule sets the scheduled event time. A zero time clears it.
func (s *AdminService) SetSchedule(ctx context.Context, at time.Time) (domain.EventState, error) {
	if err := s.events.SetSchedule(ctx, at.UTC(), s.clock.Now()); err != nil {
		return domain.EventState{}, err
	}
	s.logger.InfoContext(ctx, "event day scheduled", slog.Time("event_date", at.UTC()))
	return s.events.GetEventState(ctx)
}

// EnsureSchedule sets the scheduled time only when none is stored yet, so a
// configured default never overrides an admin's choice.
func (s *AdminService) EnsureSchedule(ctx context.Context, at time.Time) (bool, error) {
	if at.IsZero() {
		return false, nil
	}
	seeded, err := s.events.SeedSchedule(ctx, at.UTC(), s.clock.Now())
	if err != nil {
		return false, err
	}
	if seeded {
		s.logger.InfoContext(ctx, "event day schedule seeded", slog.Time("event_date", at.UTC()))
	}
	return seeded, nil
}

type ResolveFaultInput struct {
	TicketNumber       string
	BuyerStudentNumber string
	IssueType          string
	ReporterName       string
	Notes              string
	ReportedBy         string
}

// ResolveFault records an adjudication. Sales are never modified.
func (s *AdminService) ResolveFault(ctx context.Context, in ResolveFaultInput) (domain.FaultReport, error) {
	res := validation.ValidateSaleForm(in.TicketNumber, in.BuyerStudentNumber).
		RenameField(validation.FieldStudentNumber, validation.FieldBuyer)
	if err := res.Err(); err != nil {
		return domain.FaultReport{}, err
	}
	issue, err := domain.ParseIssueType(in.IssueType)
	if err != nil {
		return domain.FaultReport{}, err
	}
	reporter := strings.TrimSpace(in.ReporterName)
	if reporter == "" {
		return domain.FaultReport{}, domain.ErrReporterRequired
	}

	report := domain.FaultReport{
		ID:                 newUUID(),
		TicketNumber:       in.TicketNumber,
		BuyerStudentNumber: in.BuyerStudentNumber,
		IssueType:          issue,
		ReporterName:       reporter,
		Notes:              strings.TrimSpace(in.Notes),
		ReportedBy:         in.ReportedBy,
		CreatedAt:          s.clock.Now(),
	}
	if err := s.faults.CreateFaultReport(ctx, report); err != nil {
		return domain.FaultReport{}, err
	}

	s.logger.InfoContext(ctx, "fault logged",
		slog.String("ticket_number", report.TicketNumber),
		slog.String("issue_type", string(report.IssueType)),
	)
	return report, nil
}

// ListFaults returns fault reports, newest first. An empty ticket number
// lists all of them.
func (s *AdminService) ListFaults(ctx context.Context, ticketNumber string) ([]domain.FaultReport, error) {
	if ticketNumber != "" && !validation.IsValidTicketNumber(ticketNumber) {
		return nil, domain.ValidationError(map[string]string{validation.FieldTicketNumber: validation.MsgTicketFormat})
	}
	return s.faults.ListFaultReports(ctx, ticketNumber)
}
