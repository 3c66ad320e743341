package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/JayMiller08/sci-sa-gala/internal/clock"
	"github.com/JayMiller08/sci-sa-gala/internal/domain"
)

type StaffRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	UpsertStaff(ctx context.Context, staff domain.Staff) (domain.Staff, error)
	GetStaffByUsername(ctx context.Context, username string) (domain.Staff, error)
	GetStaffByID(ctx context.Context, id string) (domain.Staff, error)
	ListStaff(ctx context.Context) ([]domain.Staff, error)
	CreateSession(ctx context.Context, sess domain.StoredSession) error
	GetSession(ctx context.Context, id string) (domain.StoredSession, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(sess domain.Session) (string, error)
	Parse(token string) (domain.Session, error)
}

type AuthService struct {
	repo       StaffRepository
	tokens     TokenIssuer
	clock      clock.Clock
	logger     *slog.Logger
	sessionTTL time.Duration
}

const defaultSessionTTL = 12 * time.Hour

// dummyHash keeps the cost of a login for an unknown username close to that
// of a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("sci-sa-gala"), bcrypt.MinCost)

func NewAuthService(repo StaffRepository, tokens TokenIssuer, clk clock.Clock, logger *slog.Logger, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &AuthService{
		repo:       repo,
		tokens:     tokens,
		clock:      clk,
		logger:     loggerOrDefault(logger),
		sessionTTL: ttl,
	}
}

type LoginResult struct {
	Session domain.Session
	Token   string
}

// Login checks credentials and opens a server-side session.
func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return LoginResult{}, domain.ErrInvalidCredentials
	}

	staff, err := s.repo.GetStaffByUsername(ctx, username)
	if errors.Is(err, domain.ErrStaffNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		s.logger.WarnContext(ctx, "login rejected", slog.String("username", username))
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "login rejected", slog.String("username", username))
		return LoginResult{}, domain.ErrInvalidCredentials
	}

	now := s.clock.Now()
	stored := domain.StoredSession{
		ID:        newUUID(),
		StaffID:   staff.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.repo.CreateSession(ctx, stored); err != nil {
		return LoginResult{}, err
	}

	sess := domain.Session{
		ID:          stored.ID,
		Role:        staff.Role,
		DisplayName: staff.DisplayName,
		UserID:      staff.ID,
		ExpiresAt:   stored.ExpiresAt,
	}
	token, err := s.tokens.Issue(sess)
	if err != nil {
		return LoginResult{}, err
	}

	s.logger.InfoContext(ctx, "login", slog.String("user_id", staff.ID), slog.String("role", string(staff.Role)))
	return LoginResult{Session: sess, Token: token}, nil
}

// Authenticate resolves a token to a live session. Role and display name
// come from the current staff row.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return domain.Session{}, err
	}

	stored, err := s.repo.GetSession(ctx, claims.ID)
	if err != nil {
		return domain.Session{}, err
	}
	if stored.StaffID != claims.UserID {
		return domain.Session{}, domain.ErrUnauthorized
	}
	if !s.clock.Now().Before(stored.ExpiresAt) {
		return domain.Session{}, domain.ErrSessionExpired
	}

	staff, err := s.repo.GetStaffByID(ctx, stored.StaffID)
	if errors.Is(err, domain.ErrStaffNotFound) {
		return domain.Session{}, domain.ErrUnauthorized
	}
	if err != nil {
		return domain.Session{}, err
	}

	return domain.Session{
		ID:          stored.ID,
		Role:        staff.Role,
		DisplayName: staff.DisplayName,
		UserID:      staff.ID,
		ExpiresAt:   stored.ExpiresAt,
	}, nil
}

// Logout destroys the session behind token. Unknown, expired or malformed
// tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}
	return s.repo.DeleteSession(ctx, claims.ID)
}

// PurgeExpiredSessions removes session rows past their expiry.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpiredSessions(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "expired sessions purged", slog.Int64("count", n))
	}
	return n, nil
}
