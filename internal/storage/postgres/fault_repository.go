package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JayMiller08/sci-sa-gala/internal/domain"
)

type FaultRepository struct {
	db
}

func NewFaultRepository(pool *pgxpool.Pool) *FaultRepository {
	return &FaultRepository{db: db{pool: pool}}
}

func (r *FaultRepository) CreateFaultReport(ctx context.Context, report domain.FaultReport) error {
	const stmt = `
INSERT INTO fault_reports (id, ticket_number, buyer_student_number, issue_type, reporter_name, notes, reported_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var reportedBy *string
	if report.ReportedBy != "" {
		reportedBy = &report.ReportedBy
	}
	_, err := r.exec(ctx, stmt,
		report.ID, report.TicketNumber, report.BuyerStudentNumber, string(report.IssueType),
		report.ReporterName, report.Notes, reportedBy, report.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) || isInvalidUUID(err) {
			return domain.ErrStaffNotFound
		}
		return fmt.Errorf("create fault report: %w", err)
	}
	return nil
}

// ListFaultReports returns reports newest first, optionally for one ticket.
func (r *FaultRepository) ListFaultReports(ctx context.Context, ticketNumber string) ([]domain.FaultReport, error) {
	const query = `
SELECT id, ticket_number, buyer_student_number, issue_type, reporter_name, notes, COALESCE(reported_by::text, ''), created_at
FROM fault_reports
WHERE $1 = '' OR ticket_number = $1
ORDER BY created_at DESC, id`

	rows, err := r.query(ctx, query, ticketNumber)
	if err != nil {
		return nil, fmt.Errorf("list fault reports: %w", err)
	}
	reports, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.FaultReport, error) {
		var (
			f     domain.FaultReport
			issue string
		)
		if err := row.Scan(&f.ID, &f.TicketNumber, &f.BuyerStudentNumber, &issue, &f.ReporterName, &f.Notes, &f.ReportedBy, &f.CreatedAt); err != nil {
			return domain.FaultReport{}, err
		}
		f.IssueType = domain.IssueType(issue)
		f.CreatedAt = f.CreatedAt.UTC()
		return f, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list fault reports: %w", err)
	}
	return reports, nil
}
