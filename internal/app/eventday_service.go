package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/JayMiller08/sci-sa-gala/internal/clock"
	"github.com/JayMiller08/sci-sa-gala/internal/domain"
	"github.com/JayMiller08/sci-sa-gala/internal/validation"
)

type EventRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockTicket(ctx context.Context, ticketNumber string) error
	GetEventState(ctx context.Context) (domain.EventState, error)
	MarkActivated(ctx context.Context, at time.Time) (bool, error)
	GetAccessGrant(ctx context.Context, ticketNumber string) (*domain.AccessGrant, error)
	CreateAccessGrant(ctx context.Context, grant domain.AccessGrant) error
	ListAccessGrants(ctx context.Context) ([]domain.AccessGrant, error)
	FindActiveSale(ctx context.Context, ticketNumber string) (*domain.Sale, error)
}

type EventDayService struct {
	repo            EventRepository
	clock           clock.Clock
	logger          *slog.Logger
	checkSoldTicket bool
}

func NewEventDayService(repo EventRepository, clk clock.Clock, logger *slog.Logger, opts ...EventDayOption) *EventDayService {
	svc := &EventDayService{
		repo:   repo,
		clock:  clk,
		logger: loggerOrDefault(logger),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type EventDayOption func(*EventDayService)

// WithSoldTicketCheck requires an active sale to the same student before
// access is granted.
func WithSoldTicketCheck(enabled bool) EventDayOption {
	return func(s *EventDayService) {
		s.checkSoldTicket = enabled
	}
}

type EventStatus struct {
	Phase         domain.Phase
	Enabled       bool
	EventDate     time.Time
	ActivatedAt   *time.Time
	TimeRemaining domain.Countdown
	Now           time.Time
}

// Status derives the current phase and countdown from stored state.
func (s *EventDayService) Status(ctx context.Context) (EventStatus, error) {
	state, err := s.repo.GetEventState(ctx)
	if err != nil {
		return EventStatus{}, err
	}
	now := s.clock.Now()
	status := EventStatus{
		Phase:       state.PhaseAt(now),
		Enabled:     state.Enabled,
		EventDate:   state.ScheduledAt,
		ActivatedAt: state.ActivatedAt,
		Now:         now,
	}
	if !state.ScheduledAt.IsZero() {
		status.TimeRemaining = domain.TimeRemaining(now, state.ScheduledAt)
	}
	return status, nil
}

type GrantAccessInput struct {
	TicketNumber  string
	StudentNumber string
	StaffID       string
	StaffName     string
}

// GrantAccess redeems a ticket at the door. A ticket is redeemed at most once.
func (s *EventDayService) GrantAccess(ctx context.Context, in GrantAccessInput) (domain.AccessGrant, error) {
	if err := validation.ValidateSaleForm(in.TicketNumber, in.StudentNumber).Err(); err != nil {
		return domain.AccessGrant{}, err
	}

	state, err := s.repo.GetEventState(ctx)
	if err != nil {
		return domain.AccessGrant{}, err
	}
	now := s.clock.Now()
	if state.PhaseAt(now) != domain.PhaseActive {
		return domain.AccessGrant{}, domain.ErrEventNotActive
	}

	var grant domain.AccessGrant
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.LockTicket(txCtx, in.TicketNumber); err != nil {
			return err
		}

		if s.checkSoldTicket {
			sale, err := s.repo.FindActiveSale(txCtx, in.TicketNumber)
			if err != nil {
				return err
			}
			if sale == nil || sale.BuyerStudentNumber != in.StudentNumber {
				return domain.ErrTicketNotSold
			}
		}

		existing, err := s.repo.GetAccessGrant(txCtx, in.TicketNumber)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyRedeemed
		}

		grant = domain.AccessGrant{
			ID:            newUUID(),
			TicketNumber:  in.TicketNumber,
			StudentNumber: in.StudentNumber,
			StaffID:       in.StaffID,
			StaffName:     in.StaffName,
			GrantedAt:     now,
		}
		return s.repo.CreateAccessGrant(txCtx, grant)
	})
	if err != nil {
		return domain.AccessGrant{}, err
	}

	s.logger.InfoContext(ctx, "access granted",
		slog.String("ticket_number", grant.TicketNumber),
		slog.String("staff", grant.StaffName),
	)
	return grant, nil
}

// ListGrants returns the redemption ledger, newest first.
func (s *EventDayService) ListGrants(ctx context.Context) ([]domain.AccessGrant, error) {
	return s.repo.ListAccessGrants(ctx)
}

// Watch polls the phase every interval and calls onActivate once, the first
// time the event is observed ACTIVE and the activation is recorded. It
// returns after firing, or when ctx is done. A previously recorded
// activation means the callback never fires in this process.
func (s *EventDayService) Watch(ctx context.Context, interval time.Duration, onActivate func(at time.Time)) error {
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := s.checkActivation(ctx, onActivate)
		if err != nil {
			s.logger.WarnContext(ctx, "phase check failed", slog.Any("error", err))
		}
		if done {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *EventDayService) checkActivation(ctx context.Context, onActivate func(at time.Time)) (bool, error) {
	state, err := s.repo.GetEventState(ctx)
	if err != nil {
		return false, err
	}
	if state.ActivatedAt != nil {
		return true, nil
	}
	now := s.clock.Now()
	if state.PhaseAt(now) != domain.PhaseActive {
		return false, nil
	}

	recorded, err := s.repo.MarkActivated(ctx, now)
	if err != nil {
		return false, err
	}
	if recorded {
		s.logger.InfoContext(ctx, "event day activated", slog.Time("at", now))
		if onActivate != nil {
			onActivate(now)
		}
	}
	return true, nil
}
