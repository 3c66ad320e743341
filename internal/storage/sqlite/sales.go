package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/JayMiller08/sci-sa-gala/internal/domain"
)

const saleColumns = `id, ticket_number, buyer_student_number, executive_id, executive_name, sold_at, superseded_by, superseded_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSale(row scanner) (domain.Sale, error) {
	var (
		s            domain.Sale
		soldAt       int64
		supersededBy sql.NullString
		supersededAt sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.TicketNumber, &s.BuyerStudentNumber, &s.ExecutiveID, &s.ExecutiveName, &soldAt, &supersededBy, &supersededAt); err != nil {
		return domain.Sale{}, err
	}
	s.SoldAt = fromMillis(soldAt)
	s.SupersededBy = supersededBy.String
	s.SupersededAt = timePtr(supersededAt)
	return s, nil
}

func (s *Store) listSales(ctx context.Context, query string, args ...any) ([]domain.Sale, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r *sql.Rows) (domain.Sale, error) { return scanSale(r) })
}

func (s *Store) ListSalesByTicket(ctx context.Context, ticketNumber string) ([]domain.Sale, error) {
	sales, err := s.listSales(ctx, `SELECT `+saleColumns+` FROM sales WHERE ticket_number = ? ORDER BY sold_at, rowid`, ticketNumber)
	if err != nil {
		return nil, fmt.Errorf("list sales by ticket: %w", err)
	}
	return sales, nil
}

func (s *Store) ListSalesByExecutive(ctx context.Context, executiveID string) ([]domain.Sale, error) {
	sales, err := s.listSales(ctx, `SELECT `+saleColumns+` FROM sales WHERE executive_id = ? ORDER BY sold_at DESC, rowid DESC`, executiveID)
	if err != nil {
		return nil, fmt.Errorf("list sales by executive: %w", err)
	}
	return sales, nil
}

func (s *Store) ListAllSales(ctx context.Context) ([]domain.Sale, error) {
	sales, err := s.listSales(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY sold_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all sales: %w", err)
	}
	return sales, nil
}

func (s *Store) FindActiveSale(ctx context.Context, ticketNumber string) (*domain.Sale, error) {
	sale, err := scanSale(s.queryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE ticket_number = ? AND superseded_at IS NULL`, ticketNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active sale: %w", err)
	}
	return &sale, nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) error {
	_, err := s.exec(ctx, `
INSERT INTO sales (id, ticket_number, buyer_student_number, executive_id, executive_name, sold_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		sale.ID, sale.TicketNumber, sale.BuyerStudentNumber, sale.ExecutiveID, sale.ExecutiveName, toMillis(sale.SoldAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTicketAlreadySold
		}
		if isForeignKeyViolation(err) {
			return domain.ErrStaffNotFound
		}
		return fmt.Errorf("create sale: %w", err)
	}
	return nil
}

func (s *Store) SupersedeActiveSale(ctx context.Context, ticketNumber, supersededBy string, at time.Time) error {
	_, err := s.exec(ctx,
		`UPDATE sales SET superseded_by = ?, superseded_at = ? WHERE ticket_number = ? AND superseded_at IS NULL`,
		supersededBy, toMillis(at), ticketNumber,
	)
	if err != nil {
		return fmt.Errorf("supersede sale: %w", err)
	}
	return nil
}

func (s *Store) CreateDuplicateRequest(ctx context.Context, req domain.DuplicateRequest) error {
	_, err := s.exec(ctx, `
INSERT INTO duplicate_requests (token, ticket_number, student_number, executive_id, executive_name, created_at, expires_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.Token, req.TicketNumber, req.StudentNumber, req.ExecutiveID, req.ExecutiveName,
		toMillis(req.CreatedAt), toMillis(req.ExpiresAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateRequestOpen
		}
		if isForeignKeyViolation(err) {
			return domain.ErrStaffNotFound
		}
		return fmt.Errorf("create duplicate request: %w", err)
	}
	return nil
}

func (s *Store) DiscardOpenDuplicateRequests(ctx context.Context, ticketNumber string, at time.Time) error {
	_, err := s.exec(ctx,
		`UPDATE duplicate_requests SET resolved_at = ?, outcome = 'superseded' WHERE ticket_number = ? AND resolved_at IS NULL`,
		toMillis(at), ticketNumber,
	)
	if err != nil {
		return fmt.Errorf("discard duplicate requests: %w", err)
	}
	return nil
}

func (s *Store) FindDuplicateRequest(ctx context.Context, token string) (domain.DuplicateRequest, error) {
	const query = `
SELECT token, ticket_number, student_number, executive_id, executive_name, created_at, expires_at, resolved_at, outcome
FROM duplicate_requests WHERE token = ?`

	var (
		req                  domain.DuplicateRequest
		createdAt, expiresAt int64
		resolvedAt           sql.NullInt64
		outcome              sql.NullString
	)
	err := s.queryRow(ctx, query, token).Scan(
		&req.Token, &req.TicketNumber, &req.StudentNumber, &req.ExecutiveID, &req.ExecutiveName,
		&createdAt, &expiresAt, &resolvedAt, &outcome,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DuplicateRequest{}, domain.ErrResolutionNotFound
		}
		return domain.DuplicateRequest{}, fmt.Errorf("get duplicate request: %w", err)
	}
	req.CreatedAt = fromMillis(createdAt)
	req.ExpiresAt = fromMillis(expiresAt)
	req.ResolvedAt = timePtr(resolvedAt)
	req.Outcome = domain.ResolutionOutcome(outcome.String)
	return req, nil
}

// GetDuplicateRequestForUpdate reads the request inside the caller's
// transaction, which already holds the database write lock.
func (s *Store) GetDuplicateRequestForUpdate(ctx context.Context, token string) (domain.DuplicateRequest, error) {
	return s.FindDuplicateRequest(ctx, token)
}

func (s *Store) MarkDuplicateResolved(ctx context.Context, token string, outcome domain.ResolutionOutcome, at time.Time) (bool, error) {
	res, err := s.exec(ctx,
		`UPDATE duplicate_requests SET resolved_at = ?, outcome = ? WHERE token = ? AND resolved_at IS NULL`,
		toMillis(at), string(outcome), token,
	)
	if err != nil {
		return false, fmt.Errorf("resolve duplicate request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("resolve duplicate request: %w", err)
	}
	return n == 1, nil
}
