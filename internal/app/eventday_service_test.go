package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JayMiller08/sci-sa-gala/internal/clock"
	"github.com/JayMiller08/sci-sa-gala/internal/domain"
	"github.com/JayMiller08/sci-sa-gala/internal/validation"
)

var eventAt = time.Date(2026, 11, 14, 18, 0, 0, 0, time.UTC)

func TestEventDayService_Status(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		state     domain.EventState
		now       time.Time
		wantPhase domain.Phase
		wantLeft  domain.Countdown
	}{
		{"pending with countdown", domain.EventState{ScheduledAt: eventAt}, eventAt.Add(-(26*time.Hour + 30*time.Second)), domain.PhasePending, domain.Countdown{Days: 1, Hours: 2, Seconds: 30}},
		{"active at scheduled instant", domain.EventState{ScheduledAt: eventAt}, eventAt, domain.PhaseActive, domain.Countdown{}},
		{"active when enabled early", domain.EventState{Enabled: true, ScheduledAt: eventAt}, eventAt.Add(-time.Hour), domain.PhaseActive, domain.Countdown{Hours: 1}},
		{"pending when unscheduled", domain.EventState{}, eventAt, domain.PhasePending, domain.Countdown{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := &fakeEventRepo{state: tt.state}
			svc := NewEventDayService(repo, clock.NewFixed(tt.now), nil)

			status, err := svc.Status(context.Background())
			if err != nil {
				t.Fatalf("status: %v", err)
			}
			if status.Phase != tt.wantPhase {
				t.Fatalf("expected phase %s, got %s", tt.wantPhase, status.Phase)
			}
			if status.TimeRemaining != tt.wantLeft {
				t.Fatalf("expected remaining %+v, got %+v", tt.wantLeft, status.TimeRemaining)
			}
		})
	}
}

func TestEventDayService_GrantAccess(t *testing.T) {
	t.Parallel()

	in := GrantAccessInput{TicketNumber: "M123", StudentNumber: "123456789", StaffID: "staff-1", StaffName: "Thabo"}

	t.Run("grants once then rejects", func(t *testing.T) {
		repo := &fakeEventRepo{state: domain.EventState{Enabled: true}}
		svc := NewEventDayService(repo, clock.NewFixed(eventAt), nil)

		grant, err := svc.GrantAccess(context.Background(), in)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if grant.StaffName != "Thabo" || grant.GrantedAt != eventAt {
			t.Fatalf("unexpected grant %+v", grant)
		}

		_, err = svc.GrantAccess(context.Background(), in)
		if !errors.Is(err, domain.ErrAlreadyRedeemed) {
			t.Fatalf("expected ErrAlreadyRedeemed, got %v", err)
		}
		if domain.KindOf(err) != domain.KindAlreadyRedeemed {
			t.Fatalf("expected kind already_redeemed, got %s", domain.KindOf(err))
		}
		if len(repo.grants) != 1 {
			t.Fatalf("expected one ledger row, got %d", len(repo.grants))
		}
	})

	t.Run("pending event rejects", func(t *testing.T) {
		repo := &fakeEventRepo{state: domain.EventState{ScheduledAt: eventAt}}
		svc := NewEventDayService(repo, clock.NewFixed(eventAt.Add(-time.Second)), nil)

		_, err := svc.GrantAccess(context.Background(), in)
		if !errors.Is(err, domain.ErrEventNotActive) {
			t.Fatalf("expected ErrEventNotActive, got %v", err)
		}
		if len(repo.grants) != 0 {
			t.Fatalf("expected no grants, got %d", len(repo.grants))
		}
	})

	t.Run("validation comes first", func(t *testing.T) {
		repo := &fakeEventRepo{state: domain.EventState{}}
		svc := NewEventDayService(repo, clock.NewFixed(eventAt), nil)

		_, err := svc.GrantAccess(context.Background(), GrantAccessInput{TicketNumber: "M12", StudentNumber: "123456789"})
		if domain.KindOf(err) != domain.KindValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
		if domain.FieldErrors(err)[validation.FieldTicketNumber] != validation.MsgTicketFormat {
			t.Fatalf("unexpected fields %v", domain.FieldErrors(err))
		}
	})

	t.Run("unique constraint maps to already redeemed", func(t *testing.T) {
		repo := &fakeEventRepo{state: domain.EventState{Enabled: true}, grants: []domain.AccessGrant{{TicketNumber: "M123"}}}
		repo.grantCheckOff = true
		svc := NewEventDayService(repo, clock.NewFixed(eventAt), nil)

		_, err := svc.GrantAccess(context.Background(), in)
		if !errors.Is(err, domain.ErrAlreadyRedeemed) {
			t.Fatalf("expected ErrAlreadyRedeemed, got %v", err)
		}
	})

	t.Run("sold ticket check", func(t *testing.T) {
		repo := &fakeEventRepo{
			state: domain.EventState{Enabled: true},
			sales: []domain.Sale{{ID: "s1", TicketNumber: "M123", BuyerStudentNumber: "123456789"}},
		}
		svc := NewEventDayService(repo, clock.NewFixed(eventAt), nil, WithSoldTicketCheck(true))

		_, err := svc.GrantAccess(context.Background(), GrantAccessInput{TicketNumber: "M123", StudentNumber: "999999999", StaffName: "Thabo"})
		if !errors.Is(err, domain.ErrTicketNotSold) {
			t.Fatalf("expected ErrTicketNotSold for wrong buyer, got %v", err)
		}
		_, err = svc.GrantAccess(context.Background(), GrantAccessInput{TicketNumber: "M999", StudentNumber: "123456789", StaffName: "Thabo"})
		if !errors.Is(err, domain.ErrTicketNotSold) {
			t.Fatalf("expected ErrTicketNotSold for unsold ticket, got %v", err)
		}
		if _, err := svc.GrantAccess(context.Background(), in); err != nil {
			t.Fatalf("expected matching buyer to pass, got %v", err)
		}
	})

	t.Run("concurrent grants yield one success", func(t *testing.T) {
		repo := &fakeEventRepo{state: domain.EventState{Enabled: true}}
		svc := NewEventDayService(repo, clock.NewFixed(eventAt), nil)

		var (
			wg        sync.WaitGroup
			successes atomic.Int32
			redeemed  atomic.Int32
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.GrantAccess(context.Background(), in)
				switch {
				case err == nil:
					successes.Add(1)
				case errors.Is(err, domain.ErrAlreadyRedeemed):
					redeemed.Add(1)
				}
			}()
		}
		wg.Wait()

		if successes.Load() != 1 || redeemed.Load() != 7 {
			t.Fatalf("expected 1 success and 7 rejections, got %d and %d", successes.Load(), redeemed.Load())
		}
	})
}

func TestEventDayService_Watch(t *testing.T) {
	t.Parallel()

	t.Run("fires once when schedule is reached", func(t *testing.T) {
		clk := clock.NewManual(eventAt.Add(-2 * time.Second))
		repo := &fakeEventRepo{state: domain.EventState{ScheduledAt: eventAt}}
		svc := NewEventDayService(repo, clk, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var fired atomic.Int32
		done := make(chan error, 1)
		go func() {
			done <- svc.Watch(ctx, 5*time.Millisecond, func(time.Time) { fired.Add(1) })
		}()

		time.Sleep(20 * time.Millisecond)
		if fired.Load() != 0 {
			t.Fatalf("expected no activation before schedule")
		}
		clk.Set(eventAt)

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("watch: %v", err)
			}
		case <-ctx.Done():
			t.Fatalf("watch did not return after activation")
		}
		if fired.Load() != 1 {
			t.Fatalf("expected exactly one activation, got %d", fired.Load())
		}
		if repo.state.ActivatedAt == nil || !repo.state.ActivatedAt.Equal(eventAt) {
			t.Fatalf("expected activation recorded at %s, got %v", eventAt, repo.state.ActivatedAt)
		}
	})

	t.Run("does not refire after recorded activation", func(t *testing.T) {
		activated := eventAt
		repo := &fakeEventRepo{state: domain.EventState{Enabled: true, ActivatedAt: &activated}}
		svc := NewEventDayService(repo, clock.NewFixed(eventAt.Add(time.Hour)), nil)

		var fired atomic.Int32
		if err := svc.Watch(context.Background(), time.Millisecond, func(time.Time) { fired.Add(1) }); err != nil {
			t.Fatalf("watch: %v", err)
		}
		if fired.Load() != 0 {
			t.Fatalf("expected no callback, got %d", fired.Load())
		}
		if repo.markCalls != 0 {
			t.Fatalf("expected no activation write, got %d", repo.markCalls)
		}
	})

	t.Run("retries after failed activation write", func(t *testing.T) {
		repo := &fakeEventRepo{state: domain.EventState{Enabled: true}, markErr: errors.New("db down")}
		svc := NewEventDayService(repo, clock.NewFixed(eventAt), nil)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var fired atomic.Int32
		done := make(chan error, 1)
		go func() {
			done <- svc.Watch(ctx, 5*time.Millisecond, func(time.Time) { fired.Add(1) })
		}()

		time.Sleep(20 * time.Millisecond)
		repo.stateMu.Lock()
		repo.markErr = nil
		repo.stateMu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			t.Fatalf("watch did not recover")
		}
		if fired.Load() != 1 {
			t.Fatalf("expected one activation, got %d", fired.Load())
		}
	})

	t.Run("stops on cancel", func(t *testing.T) {
		repo := &fakeEventRepo{state: domain.EventState{}}
		svc := NewEventDayService(repo, clock.NewFixed(eventAt), nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := svc.Watch(ctx, time.Millisecond, nil); err != nil {
			t.Fatalf("expected nil on cancel, got %v", err)
		}
	})
}
