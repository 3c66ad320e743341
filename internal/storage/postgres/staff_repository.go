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

// StaffRepository stores staff accounts and their server-side sessions.
type StaffRepository struct {
	db
}

func NewStaffRepository(pool *pgxpool.Pool) *StaffRepository {
	return &StaffRepository{db: db{pool: pool}}
}

const staffColumns = `id, username, display_name, role, password_hash, created_at`

func scanStaff(row pgx.Row) (domain.Staff, error) {
	var (
		s    domain.Staff
		role string
	)
	if err := row.Scan(&s.ID, &s.Username, &s.DisplayName, &role, &s.PasswordHash, &s.CreatedAt); err != nil {
		return domain.Staff{}, err
	}
	s.Role = domain.Role(role)
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

// UpsertStaff inserts a member or updates the one with the same username,
// keeping its id.
func (r *StaffRepository) UpsertStaff(ctx context.Context, staff domain.Staff) (domain.Staff, error) {
	const stmt = `
INSERT INTO staff (id, username, display_name, role, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
ON CONFLICT (username) DO UPDATE SET
	display_name = EXCLUDED.display_name,
	role = EXCLUDED.role,
	password_hash = EXCLUDED.password_hash,
	updated_at = EXCLUDED.updated_at
RETURNING ` + staffColumns

	out, err := scanStaff(r.queryRow(ctx, stmt,
		staff.ID, staff.Username, staff.DisplayName, string(staff.Role), staff.PasswordHash, staff.CreatedAt,
	))
	if err != nil {
		return domain.Staff{}, fmt.Errorf("upsert staff: %w", err)
	}
	return out, nil
}

func (r *StaffRepository) GetStaffByUsername(ctx context.Context, username string) (domain.Staff, error) {
	s, err := scanStaff(r.queryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE username = $1`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Staff{}, domain.ErrStaffNotFound
		}
		return domain.Staff{}, fmt.Errorf("get staff by username: %w", err)
	}
	return s, nil
}

func (r *StaffRepository) GetStaffByID(ctx context.Context, id string) (domain.Staff, error) {
	s, err := scanStaff(r.queryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return domain.Staff{}, domain.ErrStaffNotFound
		}
		return domain.Staff{}, fmt.Errorf("get staff by id: %w", err)
	}
	return s, nil
}

func (r *StaffRepository) ListStaff(ctx context.Context) ([]domain.Staff, error) {
	rows, err := r.query(ctx, `SELECT `+staffColumns+` FROM staff ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	staff, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Staff, error) {
		return scanStaff(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return staff, nil
}

func (r *StaffRepository) CreateSession(ctx context.Context, sess domain.StoredSession) error {
	const stmt = `INSERT INTO sessions (id, staff_id, created_at, expires_at) VALUES ($1, $2, $3, $4)`

	if _, err := r.exec(ctx, stmt, sess.ID, sess.StaffID, sess.CreatedAt, sess.ExpiresAt); err != nil {
		if isForeignKeyViolation(err) || isInvalidUUID(err) {
			return domain.ErrStaffNotFound
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *StaffRepository) GetSession(ctx context.Context, id string) (domain.StoredSession, error) {
	const query = `SELECT id, staff_id, created_at, expires_at FROM sessions WHERE id = $1`

	var s domain.StoredSession
	err := r.queryRow(ctx, query, id).Scan(&s.ID, &s.StaffID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return domain.StoredSession{}, domain.ErrUnauthorized
		}
		return domain.StoredSession{}, fmt.Errorf("get session: %w", err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.ExpiresAt = s.ExpiresAt.UTC()
	return s, nil
}

func (r *StaffRepository) DeleteSession(ctx context.Context, id string) error {
	if _, err := r.exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		if isInvalidUUID(err) {
			return nil
		}
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *StaffRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
