package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JayMiller08/sci-sa-gala/internal/clock"
	"github.com/JayMiller08/sci-sa-gala/internal/domain"
	"github.com/JayMiller08/sci-sa-gala/internal/validation"
)

func TestAdminService_SetEventPhase(t *testing.T) {
	t.Parallel()

	events := &fakeEventRepo{state: domain.EventState{ScheduledAt: eventAt}}
	svc := NewAdminService(events, &fakeFaultRepo{}, clock.NewFixed(eventAt.Add(-time.Hour)), nil)

	state, err := svc.SetEventPhase(context.Background(), true)
	if err != nil {
		t.Fatalf("set phase: %v", err)
	}
	if !state.Enabled || state.PhaseAt(eventAt.Add(-time.Hour)) != domain.PhaseActive {
		t.Fatalf("expected enabled active state, got %+v", state)
	}

	state, err = svc.SetEventPhase(context.Background(), false)
	if err != nil {
		t.Fatalf("withdraw phase: %v", err)
	}
	if state.PhaseAt(eventAt.Add(-time.Hour)) != domain.PhasePending {
		t.Fatalf("expected pending after withdrawing flag before schedule")
	}
}

func TestAdminService_SetSchedule(t *testing.T) {
	t.Parallel()

	events := &fakeEventRepo{}
	svc := NewAdminService(events, &fakeFaultRepo{}, clock.NewFixed(eventAt), nil)

	loc := time.FixedZone("SAST", 2*60*60)
	state, err := svc.SetSchedule(context.Background(), time.Date(2026, 11, 14, 20, 0, 0, 0, loc))
	if err != nil {
		t.Fatalf("set schedule: %v", err)
	}
	if !state.ScheduledAt.Equal(eventAt) || state.ScheduledAt.Location() != time.UTC {
		t.Fatalf("expected schedule %s in UTC, got %s", eventAt, state.ScheduledAt)
	}
}

func TestAdminService_ResolveFault(t *testing.T) {
	t.Parallel()

	valid := ResolveFaultInput{
		TicketNumber:       "M123",
		BuyerStudentNumber: "123456789",
		IssueType:          "refund",
		ReporterName:       " Lerato ",
		Notes:              "refunded at the desk",
		ReportedBy:         "admin-1",
	}

	t.Run("records report", func(t *testing.T) {
		faults := &fakeFaultRepo{}
		svc := NewAdminService(&fakeEventRepo{}, faults, clock.NewFixed(eventAt), nil)

		report, err := svc.ResolveFault(context.Background(), valid)
		if err != nil {
			t.Fatalf("resolve fault: %v", err)
		}
		if report.ID == "" || report.IssueType != domain.IssueRefund || report.ReporterName != "Lerato" {
			t.Fatalf("unexpected report %+v", report)
		}
		if len(faults.reports) != 1 {
			t.Fatalf("expected one stored report, got %d", len(faults.reports))
		}
	})

	tests := []struct {
		name   string
		mutate func(*ResolveFaultInput)
		want   error
	}{
		{"bad ticket", func(in *ResolveFaultInput) { in.TicketNumber = "123" }, domain.ErrValidation},
		{"bad buyer", func(in *ResolveFaultInput) { in.BuyerStudentNumber = "12" }, domain.ErrValidation},
		{"missing issue type", func(in *ResolveFaultInput) { in.IssueType = "" }, domain.ErrInvalidIssueType},
		{"unknown issue type", func(in *ResolveFaultInput) { in.IssueType = "lost" }, domain.ErrInvalidIssueType},
		{"missing reporter", func(in *ResolveFaultInput) { in.ReporterName = "  " }, domain.ErrReporterRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faults := &fakeFaultRepo{}
			svc := NewAdminService(&fakeEventRepo{}, faults, clock.NewFixed(eventAt), nil)

			in := valid
			tt.mutate(&in)
			_, err := svc.ResolveFault(context.Background(), in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if len(faults.reports) != 0 {
				t.Fatalf("expected nothing stored")
			}
		})
	}

	t.Run("buyer errors use the form field name", func(t *testing.T) {
		svc := NewAdminService(&fakeEventRepo{}, &fakeFaultRepo{}, clock.NewFixed(eventAt), nil)
		in := valid
		in.BuyerStudentNumber = ""
		_, err := svc.ResolveFault(context.Background(), in)
		fields := domain.FieldErrors(err)
		if fields["buyer"] != validation.MsgStudentRequired {
			t.Fatalf("expected buyer field error, got %v", fields)
		}
		if _, ok := fields["student_number"]; ok {
			t.Fatalf("expected no student_number key, got %v", fields)
		}
	})

	t.Run("notes optional", func(t *testing.T) {
		svc := NewAdminService(&fakeEventRepo{}, &fakeFaultRepo{}, clock.NewFixed(eventAt), nil)
		in := valid
		in.Notes = ""
		if _, err := svc.ResolveFault(context.Background(), in); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}

func TestAdminService_ListFaults(t *testing.T) {
	t.Parallel()

	faults := &fakeFaultRepo{reports: []domain.FaultReport{
		{ID: "f1", TicketNumber: "M001"},
		{ID: "f2", TicketNumber: "M002"},
		{ID: "f3", TicketNumber: "M001"},
	}}
	svc := NewAdminService(&fakeEventRepo{}, faults, clock.NewFixed(eventAt), nil)

	got, err := svc.ListFaults(context.Background(), "M001")
	if err != nil {
		t.Fatalf("list faults: %v", err)
	}
	if len(got) != 2 || got[0].ID != "f3" {
		t.Fatalf("unexpected reports %+v", got)
	}

	all, err := svc.ListFaults(context.Background(), "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(all))
	}

	if _, err := svc.ListFaults(context.Background(), "bad"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdminService_EnsureSchedule(t *testing.T) {
	t.Parallel()

	events := &fakeEventRepo{}
	svc := NewAdminService(events, &fakeFaultRepo{}, clock.NewFixed(eventAt), nil)

	seeded, err := svc.EnsureSchedule(context.Background(), eventAt)
	if err != nil || !seeded {
		t.Fatalf("expected schedule seeded, got %v (%v)", seeded, err)
	}
	seeded, err = svc.EnsureSchedule(context.Background(), eventAt.Add(time.Hour))
	if err != nil || seeded {
		t.Fatalf("expected existing schedule kept, got %v (%v)", seeded, err)
	}
	if !events.state.ScheduledAt.Equal(eventAt) {
		t.Fatalf("expected %s, got %s", eventAt, events.state.ScheduledAt)
	}
	if seeded, _ := svc.EnsureSchedule(context.Background(), time.Time{}); seeded {
		t.Fatalf("expected zero time ignored")
	}
}
