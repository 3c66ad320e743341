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

// EventRepository stores the event-day singleton and the access ledger.
type EventRepository struct {
	db
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db{pool: pool}}
}

func (r *EventRepository) GetEventState(ctx context.Context) (domain.EventState, error) {
	const query = `SELECT enabled, scheduled_at, activated_at, updated_at FROM event_state WHERE id = 1`

	var (
		s         domain.EventState
		scheduled *time.Time
	)
	err := r.queryRow(ctx, query).Scan(&s.Enabled, &scheduled, &s.ActivatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.EventState{}, nil
		}
		return domain.EventState{}, fmt.Errorf("get event state: %w", err)
	}
	if scheduled != nil {
		s.ScheduledAt = scheduled.UTC()
	}
	if s.ActivatedAt != nil {
		at := s.ActivatedAt.UTC()
		s.ActivatedAt = &at
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

func (r *EventRepository) SetEnabled(ctx context.Context, enabled bool, at time.Time) error {
	const stmt = `
INSERT INTO event_state (id, enabled, updated_at) VALUES (1, $1, $2)
ON CONFLICT (id) DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = EXCLUDED.updated_at`

	if _, err := r.exec(ctx, stmt, enabled, at); err != nil {
		return fmt.Errorf("set event enabled: %w", err)
	}
	return nil
}

func (r *EventRepository) SetSchedule(ctx context.Context, scheduledAt time.Time, at time.Time) error {
	const stmt = `
INSERT INTO event_state (id, scheduled_at, updated_at) VALUES (1, $1, $2)
ON CONFLICT (id) DO UPDATE SET scheduled_at = EXCLUDED.scheduled_at, updated_at = EXCLUDED.updated_at`

	if _, err := r.exec(ctx, stmt, nullTime(scheduledAt), at); err != nil {
		return fmt.Errorf("set event schedule: %w", err)
	}
	return nil
}

func (r *EventRepository) SeedSchedule(ctx context.Context, scheduledAt time.Time, at time.Time) (bool, error) {
	const stmt = `
INSERT INTO event_state (id, scheduled_at, updated_at) VALUES (1, $1, $2)
ON CONFLICT (id) DO UPDATE SET scheduled_at = EXCLUDED.scheduled_at, updated_at = EXCLUDED.updated_at
WHERE event_state.scheduled_at IS NULL`

	tag, err := r.exec(ctx, stmt, scheduledAt, at)
	if err != nil {
		return false, fmt.Errorf("seed event schedule: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkActivated records the first activation. It reports false when an
// activation was already recorded.
func (r *EventRepository) MarkActivated(ctx context.Context, at time.Time) (bool, error) {
	const stmt = `UPDATE event_state SET activated_at = $1 WHERE id = 1 AND activated_at IS NULL`

	tag, err := r.exec(ctx, stmt, at)
	if err != nil {
		return false, fmt.Errorf("mark event activated: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

const grantColumns = `id, ticket_number, student_number, staff_id, staff_name, granted_at`

func scanGrant(row pgx.Row) (domain.AccessGrant, error) {
	var g domain.AccessGrant
	if err := row.Scan(&g.ID, &g.TicketNumber, &g.StudentNumber, &g.StaffID, &g.StaffName, &g.GrantedAt); err != nil {
		return domain.AccessGrant{}, err
	}
	g.GrantedAt = g.GrantedAt.UTC()
	return g, nil
}

func (r *EventRepository) GetAccessGrant(ctx context.Context, ticketNumber string) (*domain.AccessGrant, error) {
	g, err := scanGrant(r.queryRow(ctx, `SELECT `+grantColumns+` FROM access_grants WHERE ticket_number = $1`, ticketNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get access grant: %w", err)
	}
	return &g, nil
}

func (r *EventRepository) CreateAccessGrant(ctx context.Context, grant domain.AccessGrant) error {
	const stmt = `
INSERT INTO access_grants (id, ticket_number, student_number, staff_id, staff_name, granted_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.exec(ctx, stmt, grant.ID, grant.TicketNumber, grant.StudentNumber, grant.StaffID, grant.StaffName, grant.GrantedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyRedeemed
		}
		if isForeignKeyViolation(err) || isInvalidUUID(err) {
			return domain.ErrStaffNotFound
		}
		return fmt.Errorf("create access grant: %w", err)
	}
	return nil
}

func (r *EventRepository) ListAccessGrants(ctx context.Context) ([]domain.AccessGrant, error) {
	rows, err := r.query(ctx, `SELECT `+grantColumns+` FROM access_grants ORDER BY granted_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list access grants: %w", err)
	}
	grants, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AccessGrant, error) {
		return scanGrant(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list access grants: %w", err)
	}
	return grants, nil
}

func (r *EventRepository) FindActiveSale(ctx context.Context, ticketNumber string) (*domain.Sale, error) {
	s, err := scanSale(r.queryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE ticket_number = $1 AND superseded_at IS NULL`, ticketNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active sale: %w", err)
	}
	return &s, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
