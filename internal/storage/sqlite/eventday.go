package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/JayMiller08/sci-sa-gala/internal/domain"
)

func (s *Store) GetEventState(ctx context.Context) (domain.EventState, error) {
	var (
		st                   domain.EventState
		enabled              bool
		scheduled, activated sql.NullInt64
		updatedAt            int64
	)
	err := s.queryRow(ctx, `SELECT enabled, scheduled_at, activated_at, updated_at FROM event_state WHERE id = 1`).
		Scan(&enabled, &scheduled, &activated, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.EventState{}, nil
		}
		return domain.EventState{}, fmt.Errorf("get event state: %w", err)
	}
	st.Enabled = enabled
	if scheduled.Valid {
		st.ScheduledAt = fromMillis(scheduled.Int64)
	}
	st.ActivatedAt = timePtr(activated)
	st.UpdatedAt = fromMillis(updatedAt)
	return st, nil
}

func (s *Store) SetEnabled(ctx context.Context, enabled bool, at time.Time) error {
	_, err := s.exec(ctx, `
INSERT INTO event_state (id, enabled, updated_at) VALUES (1, ?, ?)
ON CONFLICT (id) DO UPDATE SET enabled = excluded.enabled, updated_at = excluded.updated_at`,
		enabled, toMillis(at),
	)
	if err != nil {
		return fmt.Errorf("set event enabled: %w", err)
	}
	return nil
}

func (s *Store) SetSchedule(ctx context.Context, scheduledAt time.Time, at time.Time) error {
	_, err := s.exec(ctx, `
INSERT INTO event_state (id, scheduled_at, updated_at) VALUES (1, ?, ?)
ON CONFLICT (id) DO UPDATE SET scheduled_at = excluded.scheduled_at, updated_at = excluded.updated_at`,
		nullMillis(scheduledAt), toMillis(at),
	)
	if err != nil {
		return fmt.Errorf("set event schedule: %w", err)
	}
	return nil
}

func (s *Store) SeedSchedule(ctx context.Context, scheduledAt time.Time, at time.Time) (bool, error) {
	res, err := s.exec(ctx,
		`UPDATE event_state SET scheduled_at = ?, updated_at = ? WHERE id = 1 AND scheduled_at IS NULL`,
		toMillis(scheduledAt), toMillis(at),
	)
	if err != nil {
		return false, fmt.Errorf("seed event schedule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("seed event schedule: %w", err)
	}
	return n == 1, nil
}

func (s *Store) MarkActivated(ctx context.Context, at time.Time) (bool, error) {
	res, err := s.exec(ctx, `UPDATE event_state SET activated_at = ? WHERE id = 1 AND activated_at IS NULL`, toMillis(at))
	if err != nil {
		return false, fmt.Errorf("mark event activated: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark event activated: %w", err)
	}
	return n == 1, nil
}

const grantColumns = `id, ticket_number, student_number, staff_id, staff_name, granted_at`

func scanGrant(row scanner) (domain.AccessGrant, error) {
	var (
		g         domain.AccessGrant
		grantedAt int64
	)
	if err := row.Scan(&g.ID, &g.TicketNumber, &g.StudentNumber, &g.StaffID, &g.StaffName, &grantedAt); err != nil {
		return domain.AccessGrant{}, err
	}
	g.GrantedAt = fromMillis(grantedAt)
	return g, nil
}

func (s *Store) GetAccessGrant(ctx context.Context, ticketNumber string) (*domain.AccessGrant, error) {
	g, err := scanGrant(s.queryRow(ctx, `SELECT `+grantColumns+` FROM access_grants WHERE ticket_number = ?`, ticketNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get access grant: %w", err)
	}
	return &g, nil
}

func (s *Store) CreateAccessGrant(ctx context.Context, grant domain.AccessGrant) error {
	_, err := s.exec(ctx, `
INSERT INTO access_grants (id, ticket_number, student_number, staff_id, staff_name, granted_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		grant.ID, grant.TicketNumber, grant.StudentNumber, grant.StaffID, grant.StaffName, toMillis(grant.GrantedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyRedeemed
		}
		if isForeignKeyViolation(err) {
			return domain.ErrStaffNotFound
		}
		return fmt.Errorf("create access grant: %w", err)
	}
	return nil
}

func (s *Store) ListAccessGrants(ctx context.Context) ([]domain.AccessGrant, error) {
	rows, err := s.query(ctx, `SELECT `+grantColumns+` FROM access_grants ORDER BY granted_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list access grants: %w", err)
	}
	grants, err := collect(rows, func(r *sql.Rows) (domain.AccessGrant, error) { return scanGrant(r) })
	if err != nil {
		return nil, fmt.Errorf("list access grants: %w", err)
	}
	return grants, nil
}

func (s *Store) CreateFaultReport(ctx context.Context, report domain.FaultReport) error {
	reportedBy := sql.NullString{String: report.ReportedBy, Valid: report.ReportedBy != ""}
	_, err := s.exec(ctx, `
INSERT INTO fault_reports (id, ticket_number, buyer_student_number, issue_type, reporter_name, notes, reported_by, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.TicketNumber, report.BuyerStudentNumber, string(report.IssueType),
		report.ReporterName, report.Notes, reportedBy, toMillis(report.CreatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrStaffNotFound
		}
		return fmt.Errorf("create fault report: %w", err)
	}
	return nil
}

func (s *Store) ListFaultReports(ctx context.Context, ticketNumber string) ([]domain.FaultReport, error) {
	rows, err := s.query(ctx, `
SELECT id, ticket_number, buyer_student_number, issue_type, reporter_name, notes, COALESCE(reported_by, ''), created_at
FROM fault_reports
WHERE ? = '' OR ticket_number = ?
ORDER BY created_at DESC, rowid DESC`, ticketNumber, ticketNumber)
	if err != nil {
		return nil, fmt.Errorf("list fault reports: %w", err)
	}
	reports, err := collect(rows, func(r *sql.Rows) (domain.FaultReport, error) {
		var (
			f         domain.FaultReport
			issue     string
			createdAt int64
		)
		if err := r.Scan(&f.ID, &f.TicketNumber, &f.BuyerStudentNumber, &issue, &f.ReporterName, &f.Notes, &f.ReportedBy, &createdAt); err != nil {
			return domain.FaultReport{}, err
		}
		f.IssueType = domain.IssueType(issue)
		f.CreatedAt = fromMillis(createdAt)
		return f, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list fault reports: %w", err)
	}
	return reports, nil
}
