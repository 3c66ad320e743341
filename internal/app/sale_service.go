package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/JayMiller08/sci-sa-gala/internal/clock"
	"github.com/JayMiller08/sci-sa-gala/internal/domain"
	"github.com/JayMiller08/sci-sa-gala/internal/validation"
)

type SaleRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockTicket(ctx context.Context, ticketNumber string) error
	ListSalesByTicket(ctx context.Context, ticketNumber string) ([]domain.Sale, error)
	CreateSale(ctx context.Context, sale domain.Sale) error
	SupersedeActiveSale(ctx context.Context, ticketNumber, supersededBy string, at time.Time) error
	CreateDuplicateRequest(ctx context.Context, req domain.DuplicateRequest) error
	DiscardOpenDuplicateRequests(ctx context.Context, ticketNumber string, at time.Time) error
	FindDuplicateRequest(ctx context.Context, token string) (domain.DuplicateRequest, error)
	GetDuplicateRequestForUpdate(ctx context.Context, token string) (domain.DuplicateRequest, error)
	MarkDuplicateResolved(ctx context.Context, token string, outcome domain.ResolutionOutcome, at time.Time) (bool, error)
	ListSalesByExecutive(ctx context.Context, executiveID string) ([]domain.Sale, error)
	ListAllSales(ctx context.Context) ([]domain.Sale, error)
}

type SaleService struct {
	repo         SaleRepository
	clock        clock.Clock
	logger       *slog.Logger
	duplicateTTL time.Duration
}

const defaultDuplicateTTL = 15 * time.Minute

func NewSaleService(repo SaleRepository, clk clock.Clock, logger *slog.Logger, opts ...SaleServiceOption) *SaleService {
	svc := &SaleService{
		repo:         repo,
		clock:        clk,
		logger:       loggerOrDefault(logger),
		duplicateTTL: defaultDuplicateTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type SaleServiceOption func(*SaleService)

// WithDuplicateTTL overrides how long a duplicate resolution token stays usable.
func WithDuplicateTTL(d time.Duration) SaleServiceOption {
	return func(s *SaleService) {
		if d > 0 {
			s.duplicateTTL = d
		}
	}
}

type SaleStatus string

const (
	SaleSold      SaleStatus = "SOLD"
	SaleDuplicate SaleStatus = "DUPLICATE"
	SaleRejected  SaleStatus = "REJECTED"
)

type AttemptSaleInput struct {
	TicketNumber  string
	StudentNumber string
	ExecutiveID   string
	ExecutiveName string
}

// SaleOutcome is the result of a sale attempt. Exactly one of Record,
// Conflicts+ResolutionToken or FieldErrors is meaningful, by Status.
type SaleOutcome struct {
	Status          SaleStatus
	Record          domain.Sale
	Conflicts       []domain.Sale
	ResolutionToken string
	FieldErrors     map[string]string
}

// AttemptSale records a sale, or raises a duplicate request when the ticket
// number already has sale records.
func (s *SaleService) AttemptSale(ctx context.Context, in AttemptSaleInput) (SaleOutcome, error) {
	res := validation.ValidateSaleForm(in.TicketNumber, in.StudentNumber)
	if !res.Valid {
		return SaleOutcome{Status: SaleRejected, FieldErrors: res.Fields}, nil
	}

	now := s.clock.Now()
	var out SaleOutcome

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.LockTicket(txCtx, in.TicketNumber); err != nil {
			return err
		}

		existing, err := s.repo.ListSalesByTicket(txCtx, in.TicketNumber)
		if err != nil {
			return err
		}

		if len(existing) > 0 {
			if err := s.repo.DiscardOpenDuplicateRequests(txCtx, in.TicketNumber, now); err != nil {
				return err
			}
			req := domain.DuplicateRequest{
				Token:         newUUID(),
				TicketNumber:  in.TicketNumber,
				StudentNumber: in.StudentNumber,
				ExecutiveID:   in.ExecutiveID,
				ExecutiveName: in.ExecutiveName,
				CreatedAt:     now,
				ExpiresAt:     now.Add(s.duplicateTTL),
			}
			if err := s.repo.CreateDuplicateRequest(txCtx, req); err != nil {
				return err
			}
			out = SaleOutcome{
				Status:          SaleDuplicate,
				Conflicts:       existing,
				ResolutionToken: req.Token,
			}
			return nil
		}

		sale := domain.Sale{
			ID:                 newUUID(),
			TicketNumber:       in.TicketNumber,
			BuyerStudentNumber: in.StudentNumber,
			ExecutiveID:        in.ExecutiveID,
			ExecutiveName:      in.ExecutiveName,
			SoldAt:             now,
		}
		if err := s.repo.CreateSale(txCtx, sale); err != nil {
			return err
		}
		out = SaleOutcome{Status: SaleSold, Record: sale}
		return nil
	})
	if err != nil {
		return SaleOutcome{}, err
	}

	switch out.Status {
	case SaleSold:
		s.logger.InfoContext(ctx, "sale recorded",
			slog.String("ticket_number", out.Record.TicketNumber),
			slog.String("executive", in.ExecutiveName),
		)
	case SaleDuplicate:
		s.logger.InfoContext(ctx, "duplicate raised",
			slog.String("ticket_number", in.TicketNumber),
			slog.Int("conflicts", len(out.Conflicts)),
			slog.String("executive", in.ExecutiveName),
		)
	}
	return out, nil
}

type ResolutionStatus string

const (
	ResolutionConfirmed       ResolutionStatus = "CONFIRMED"
	ResolutionCancelled       ResolutionStatus = "CANCELLED"
	ResolutionAlreadyResolved ResolutionStatus = "ALREADY_RESOLVED"
)

type ResolveDuplicateInput struct {
	Token       string
	Confirm     bool
	ExecutiveID string
}

type ResolveDuplicateResult struct {
	Status ResolutionStatus
	// Record is set when Status is CONFIRMED.
	Record domain.Sale
	// Outcome is the stored outcome of an already resolved request.
	Outcome domain.ResolutionOutcome
}

// ResolveDuplicate applies the executive's decision on a duplicate request.
// A token takes effect at most once.
func (s *SaleService) ResolveDuplicate(ctx context.Context, in ResolveDuplicateInput) (ResolveDuplicateResult, error) {
	if in.Token == "" {
		return ResolveDuplicateResult{}, domain.ErrResolutionNotFound
	}

	now := s.clock.Now()
	var (
		result  ResolveDuplicateResult
		expired bool
	)

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		peek, err := s.repo.FindDuplicateRequest(txCtx, in.Token)
		if err != nil {
			return err
		}
		if peek.ExecutiveID != in.ExecutiveID {
			return domain.ErrResolutionNotFound
		}
		// The ticket lock is always taken before the request row lock.
		if err := s.repo.LockTicket(txCtx, peek.TicketNumber); err != nil {
			return err
		}
		req, err := s.repo.GetDuplicateRequestForUpdate(txCtx, in.Token)
		if err != nil {
			return err
		}

		if req.Resolved() {
			result = ResolveDuplicateResult{Status: ResolutionAlreadyResolved, Outcome: req.Outcome}
			return nil
		}

		if !now.Before(req.ExpiresAt) {
			if _, err := s.repo.MarkDuplicateResolved(txCtx, req.Token, domain.OutcomeExpired, now); err != nil {
				return err
			}
			expired = true
			return nil
		}

		if !in.Confirm {
			ok, err := s.repo.MarkDuplicateResolved(txCtx, req.Token, domain.OutcomeCancelled, now)
			if err != nil {
				return err
			}
			if !ok {
				result = ResolveDuplicateResult{Status: ResolutionAlreadyResolved}
				return nil
			}
			result = ResolveDuplicateResult{Status: ResolutionCancelled, Outcome: domain.OutcomeCancelled}
			return nil
		}

		ok, err := s.repo.MarkDuplicateResolved(txCtx, req.Token, domain.OutcomeConfirmed, now)
		if err != nil {
			return err
		}
		if !ok {
			result = ResolveDuplicateResult{Status: ResolutionAlreadyResolved}
			return nil
		}

		sale := domain.Sale{
			ID:                 newUUID(),
			TicketNumber:       req.TicketNumber,
			BuyerStudentNumber: req.StudentNumber,
			ExecutiveID:        req.ExecutiveID,
			ExecutiveName:      req.ExecutiveName,
			SoldAt:             now,
		}
		if err := s.repo.SupersedeActiveSale(txCtx, req.TicketNumber, sale.ID, now); err != nil {
			return err
		}
		if err := s.repo.CreateSale(txCtx, sale); err != nil {
			return err
		}
		result = ResolveDuplicateResult{Status: ResolutionConfirmed, Record: sale, Outcome: domain.OutcomeConfirmed}
		return nil
	})
	if err != nil {
		return ResolveDuplicateResult{}, err
	}
	if expired {
		return ResolveDuplicateResult{}, domain.ErrResolutionExpired
	}

	s.logger.InfoContext(ctx, "duplicate resolved",
		slog.String("status", string(result.Status)),
		slog.String("token", in.Token),
	)
	return result, nil
}

// ListMySales returns the executive's own sales, newest first.
func (s *SaleService) ListMySales(ctx context.Context, executiveID string) ([]domain.Sale, error) {
	if executiveID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.ListSalesByExecutive(ctx, executiveID)
}

// ListAllSales returns every sale record, newest first.
func (s *SaleService) ListAllSales(ctx context.Context) ([]domain.Sale, error) {
	return s.repo.ListAllSales(ctx)
}
