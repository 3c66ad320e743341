package app

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/JayMiller08/sci-sa-gala/internal/clock"
	"github.com/JayMiller08/sci-sa-gala/internal/domain"
)

type StaffService struct {
	repo       StaffRepository
	clock      clock.Clock
	bcryptCost int
}

func NewStaffService(repo StaffRepository, clk clock.Clock, opts ...StaffServiceOption) *StaffService {
	svc := &StaffService{
		repo:       repo,
		clock:      clk,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type StaffServiceOption func(*StaffService)

// WithBcryptCost overrides the hashing cost for new passwords.
func WithBcryptCost(cost int) StaffServiceOption {
	return func(s *StaffService) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

type AddStaffInput struct {
	Username     string
	DisplayName  string
	Role         string
	// Exactly one of Password or PasswordHash is used; a hash wins.
	Password     string
	PasswordHash string
}

// AddStaff creates or updates a staff member keyed by username.
func (s *StaffService) AddStaff(ctx context.Context, in AddStaffInput) (domain.Staff, error) {
	staff, err := s.buildStaff(in)
	if err != nil {
		return domain.Staff{}, err
	}
	return s.repo.UpsertStaff(ctx, staff)
}

// ImportRoster upserts every entry in one transaction.
func (s *StaffService) ImportRoster(ctx context.Context, entries []AddStaffInput) ([]domain.Staff, error) {
	built := make([]domain.Staff, 0, len(entries))
	for i, in := range entries {
		staff, err := s.buildStaff(in)
		if err != nil {
			return nil, fmt.Errorf("roster entry %d (%s): %w", i+1, in.Username, err)
		}
		built = append(built, staff)
	}

	saved := make([]domain.Staff, 0, len(built))
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		for _, staff := range built {
			out, err := s.repo.UpsertStaff(txCtx, staff)
			if err != nil {
				return err
			}
			saved = append(saved, out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *StaffService) ListStaff(ctx context.Context) ([]domain.Staff, error) {
	return s.repo.ListStaff(ctx)
}

func (s *StaffService) buildStaff(in AddStaffInput) (domain.Staff, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if username == "" {
		return domain.Staff{}, domain.ErrUsernameRequired
	}
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		return domain.Staff{}, domain.ErrDisplayNameRequired
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return domain.Staff{}, err
	}

	hash := strings.TrimSpace(in.PasswordHash)
	switch {
	case hash != "":
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return domain.Staff{}, fmt.Errorf("password hash for %s: %w", username, domain.ErrPasswordRequired)
		}
	case in.Password != "":
		b, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
		if err != nil {
			return domain.Staff{}, fmt.Errorf("hash password: %w", err)
		}
		hash = string(b)
	default:
		return domain.Staff{}, domain.ErrPasswordRequired
	}

	return domain.Staff{
		ID:           newUUID(),
		Username:     username,
		DisplayName:  name,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    s.clock.Now(),
	}, nil
}
