package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/JayMiller08/sci-sa-gala/internal/domain"
)

const staffColumns = `id, username, display_name, role, password_hash, created_at`

func scanStaff(row scanner) (domain.Staff, error) {
	var (
		s         domain.Staff
		role      string
		createdAt int64
	)
	if err := row.Scan(&s.ID, &s.Username, &s.DisplayName, &role, &s.PasswordHash, &createdAt); err != nil {
		return domain.Staff{}, err
	}
	s.Role = domain.Role(role)
	s.CreatedAt = fromMillis(createdAt)
	return s, nil
}

func (s *Store) UpsertStaff(ctx context.Context, staff domain.Staff) (domain.Staff, error) {
	const stmt = `
INSERT INTO staff (id, username, display_name, role, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (username) DO UPDATE SET
	display_name = excluded.display_name,
	role = excluded.role,
	password_hash = excluded.password_hash,
	updated_at = excluded.updated_at
RETURNING ` + staffColumns

	at := toMillis(staff.CreatedAt)
	out, err := scanStaff(s.queryRow(ctx, stmt,
		staff.ID, staff.Username, staff.DisplayName, string(staff.Role), staff.PasswordHash, at, at,
	))
	if err != nil {
		return domain.Staff{}, fmt.Errorf("upsert staff: %w", err)
	}
	return out, nil
}

func (s *Store) GetStaffByUsername(ctx context.Context, username string) (domain.Staff, error) {
	staff, err := scanStaff(s.queryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE username = ?`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Staff{}, domain.ErrStaffNotFound
		}
		return domain.Staff{}, fmt.Errorf("get staff by username: %w", err)
	}
	return staff, nil
}

func (s *Store) GetStaffByID(ctx context.Context, id string) (domain.Staff, error) {
	staff, err := scanStaff(s.queryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Staff{}, domain.ErrStaffNotFound
		}
		return domain.Staff{}, fmt.Errorf("get staff by id: %w", err)
	}
	return staff, nil
}

func (s *Store) ListStaff(ctx context.Context) ([]domain.Staff, error) {
	rows, err := s.query(ctx, `SELECT `+staffColumns+` FROM staff ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	staff, err := collect(rows, func(r *sql.Rows) (domain.Staff, error) { return scanStaff(r) })
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return staff, nil
}

func (s *Store) CreateSession(ctx context.Context, sess domain.StoredSession) error {
	_, err := s.exec(ctx, `INSERT INTO sessions (id, staff_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.StaffID, toMillis(sess.CreatedAt), toMillis(sess.ExpiresAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrStaffNotFound
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (domain.StoredSession, error) {
	var (
		sess                 domain.StoredSession
		createdAt, expiresAt int64
	)
	err := s.queryRow(ctx, `SELECT id, staff_id, created_at, expires_at FROM sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.StaffID, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StoredSession{}, domain.ErrUnauthorized
		}
		return domain.StoredSession{}, fmt.Errorf("get session: %w", err)
	}
	sess.CreatedAt = fromMillis(createdAt)
	sess.ExpiresAt = fromMillis(expiresAt)
	return sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.exec(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
