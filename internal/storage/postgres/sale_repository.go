package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JayMiller08/sci-sa-gala/internal/domain"
)

type SaleRepository struct {
	db
}

func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{db: db{pool: pool}}
}

const saleColumns = `id, ticket_number, buyer_student_number, executive_id, executive_name, sold_at, superseded_by, superseded_at`

func scanSale(row pgx.Row) (domain.Sale, error) {
	var (
		s            domain.Sale
		supersededBy *string
	)
	if err := row.Scan(&s.ID, &s.TicketNumber, &s.BuyerStudentNumber, &s.ExecutiveID, &s.ExecutiveName, &s.SoldAt, &supersededBy, &s.SupersededAt); err != nil {
		return domain.Sale{}, err
	}
	s.SoldAt = s.SoldAt.UTC()
	if supersededBy != nil {
		s.SupersededBy = *supersededBy
	}
	if s.SupersededAt != nil {
		at := s.SupersededAt.UTC()
		s.SupersededAt = &at
	}
	return s, nil
}

func (r *SaleRepository) listSales(ctx context.Context, sql string, args ...any) ([]domain.Sale, error) {
	rows, err := r.query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Sale, error) {
		return scanSale(row)
	})
}

func (r *SaleRepository) ListSalesByTicket(ctx context.Context, ticketNumber string) ([]domain.Sale, error) {
	sales, err := r.listSales(ctx, `SELECT `+saleColumns+` FROM sales WHERE ticket_number = $1 ORDER BY sold_at, id`, ticketNumber)
	if err != nil {
		return nil, fmt.Errorf("list sales by ticket: %w", err)
	}
	return sales, nil
}

func (r *SaleRepository) ListSalesByExecutive(ctx context.Context, executiveID string) ([]domain.Sale, error) {
	sales, err := r.listSales(ctx, `SELECT `+saleColumns+` FROM sales WHERE executive_id = $1 ORDER BY sold_at DESC, id`, executiveID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list sales by executive: %w", err)
	}
	return sales, nil
}

func (r *SaleRepository) ListAllSales(ctx context.Context) ([]domain.Sale, error) {
	sales, err := r.listSales(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY sold_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list all sales: %w", err)
	}
	return sales, nil
}

func (r *SaleRepository) CreateSale(ctx context.Context, sale domain.Sale) error {
	const stmt = `
INSERT INTO sales (id, ticket_number, buyer_student_number, executive_id, executive_name, sold_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.exec(ctx, stmt, sale.ID, sale.TicketNumber, sale.BuyerStudentNumber, sale.ExecutiveID, sale.ExecutiveName, sale.SoldAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTicketAlreadySold
		}
		if isForeignKeyViolation(err) || isInvalidUUID(err) {
			return domain.ErrStaffNotFound
		}
		return fmt.Errorf("create sale: %w", err)
	}
	return nil
}

func (r *SaleRepository) SupersedeActiveSale(ctx context.Context, ticketNumber, supersededBy string, at time.Time) error {
	const stmt = `
UPDATE sales
SET superseded_by = $2, superseded_at = $3
WHERE ticket_number = $1 AND superseded_at IS NULL`

	if _, err := r.exec(ctx, stmt, ticketNumber, supersededBy, at); err != nil {
		return fmt.Errorf("supersede sale: %w", err)
	}
	return nil
}

func (r *SaleRepository) CreateDuplicateRequest(ctx context.Context, req domain.DuplicateRequest) error {
	const stmt = `
INSERT INTO duplicate_requests (token, ticket_number, student_number, executive_id, executive_name, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt, req.Token, req.TicketNumber, req.StudentNumber, req.ExecutiveID, req.ExecutiveName, req.CreatedAt, req.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateRequestOpen
		}
		if isForeignKeyViolation(err) || isInvalidUUID(err) {
			return domain.ErrStaffNotFound
		}
		return fmt.Errorf("create duplicate request: %w", err)
	}
	return nil
}

func (r *SaleRepository) DiscardOpenDuplicateRequests(ctx context.Context, ticketNumber string, at time.Time) error {
	const stmt = `
UPDATE duplicate_requests
SET resolved_at = $2, outcome = 'superseded'
WHERE ticket_number = $1 AND resolved_at IS NULL`

	if _, err := r.exec(ctx, stmt, ticketNumber, at); err != nil {
		return fmt.Errorf("discard duplicate requests: %w", err)
	}
	return nil
}

const duplicateRequestColumns = `token, ticket_number, student_number, executive_id, executive_name, created_at, expires_at, resolved_at, outcome`

func (r *SaleRepository) getDuplicateRequest(ctx context.Context, sql, token string) (domain.DuplicateRequest, error) {
	var (
		req     domain.DuplicateRequest
		outcome *string
	)
	err := r.queryRow(ctx, sql, token).Scan(
		&req.Token, &req.TicketNumber, &req.StudentNumber, &req.ExecutiveID, &req.ExecutiveName,
		&req.CreatedAt, &req.ExpiresAt, &req.ResolvedAt, &outcome,
	)
	if err != nil {
		if isInvalidUUID(err) || errors.Is(err, pgx.ErrNoRows) {
			return domain.DuplicateRequest{}, domain.ErrResolutionNotFound
		}
		return domain.DuplicateRequest{}, fmt.Errorf("get duplicate request: %w", err)
	}
	if outcome != nil {
		req.Outcome = domain.ResolutionOutcome(*outcome)
	}
	req.CreatedAt = req.CreatedAt.UTC()
	req.ExpiresAt = req.ExpiresAt.UTC()
	return req, nil
}

func (r *SaleRepository) FindDuplicateRequest(ctx context.Context, token string) (domain.DuplicateRequest, error) {
	return r.getDuplicateRequest(ctx, `SELECT `+duplicateRequestColumns+` FROM duplicate_requests WHERE token = $1`, token)
}

func (r *SaleRepository) GetDuplicateRequestForUpdate(ctx context.Context, token string) (domain.DuplicateRequest, error) {
	return r.getDuplicateRequest(ctx, `SELECT `+duplicateRequestColumns+` FROM duplicate_requests WHERE token = $1 FOR UPDATE`, token)
}

func (r *SaleRepository) MarkDuplicateResolved(ctx context.Context, token string, outcome domain.ResolutionOutcome, at time.Time) (bool, error) {
	const stmt = `
UPDATE duplicate_requests
SET resolved_at = $2, outcome = $3
WHERE token = $1 AND resolved_at IS NULL`

	tag, err := r.exec(ctx, stmt, token, at, string(outcome))
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrResolutionNotFound
		}
		return false, fmt.Errorf("resolve duplicate request: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
