package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/JayMiller08/sci-sa-gala/internal/clock"
	"github.com/JayMiller08/sci-sa-gala/internal/domain"
)

func TestStaffService_AddStaff(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	t.Run("hashes password", func(t *testing.T) {
		repo := newFakeStaffRepo()
		svc := NewStaffService(repo, clock.NewFixed(now), WithBcryptCost(bcrypt.MinCost))

		staff, err := svc.AddStaff(context.Background(), AddStaffInput{Username: "thabo", DisplayName: "Thabo", Role: "exec", Password: "gala2026"})
		if err != nil {
			t.Fatalf("add staff: %v", err)
		}
		if staff.Role != domain.RoleExec {
			t.Fatalf("expected EXEC, got %s", staff.Role)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte("gala2026")); err != nil {
			t.Fatalf("stored hash does not match password: %v", err)
		}
	})

	t.Run("accepts precomputed hash", func(t *testing.T) {
		hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		svc := NewStaffService(newFakeStaffRepo(), clock.NewFixed(now))

		staff, err := svc.AddStaff(context.Background(), AddStaffInput{Username: "lerato", DisplayName: "Lerato", Role: "ADMIN", PasswordHash: string(hash)})
		if err != nil {
			t.Fatalf("add staff: %v", err)
		}
		if staff.PasswordHash != string(hash) {
			t.Fatalf("expected hash stored as given")
		}
	})

	tests := []struct {
		name string
		in   AddStaffInput
		want error
	}{
		{"missing username", AddStaffInput{DisplayName: "X", Role: "EXEC", Password: "pw"}, domain.ErrUsernameRequired},
		{"missing name", AddStaffInput{Username: "x", Role: "EXEC", Password: "pw"}, domain.ErrDisplayNameRequired},
		{"bad role", AddStaffInput{Username: "x", DisplayName: "X", Role: "OWNER", Password: "pw"}, domain.ErrInvalidRole},
		{"missing password", AddStaffInput{Username: "x", DisplayName: "X", Role: "EXEC"}, domain.ErrPasswordRequired},
		{"malformed hash", AddStaffInput{Username: "x", DisplayName: "X", Role: "EXEC", PasswordHash: "plain"}, domain.ErrPasswordRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewStaffService(newFakeStaffRepo(), clock.NewFixed(now), WithBcryptCost(bcrypt.MinCost))
			if _, err := svc.AddStaff(context.Background(), tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestStaffService_ImportRoster(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	t.Run("upserts by username", func(t *testing.T) {
		repo := newFakeStaffRepo()
		svc := NewStaffService(repo, clock.NewFixed(now), WithBcryptCost(bcrypt.MinCost))

		first, err := svc.AddStaff(context.Background(), AddStaffInput{Username: "thabo", DisplayName: "Thabo", Role: "EXEC", Password: "pw"})
		if err != nil {
			t.Fatalf("add staff: %v", err)
		}

		saved, err := svc.ImportRoster(context.Background(), []AddStaffInput{
			{Username: "thabo", DisplayName: "Thabo M", Role: "ADMIN", Password: "pw2"},
			{Username: "lerato", DisplayName: "Lerato", Role: "EXEC", Password: "pw"},
		})
		if err != nil {
			t.Fatalf("import: %v", err)
		}
		if len(saved) != 2 {
			t.Fatalf("expected 2 saved, got %d", len(saved))
		}
		if saved[0].ID != first.ID || saved[0].Role != domain.RoleAdmin {
			t.Fatalf("expected existing member updated in place, got %+v", saved[0])
		}

		all, err := svc.ListStaff(context.Background())
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected 2 staff, got %d", len(all))
		}
	})

	t.Run("invalid entry stores nothing", func(t *testing.T) {
		repo := newFakeStaffRepo()
		svc := NewStaffService(repo, clock.NewFixed(now), WithBcryptCost(bcrypt.MinCost))

		_, err := svc.ImportRoster(context.Background(), []AddStaffInput{
			{Username: "thabo", DisplayName: "Thabo", Role: "EXEC", Password: "pw"},
			{Username: "bad", DisplayName: "Bad", Role: "GUEST", Password: "pw"},
		})
		if !errors.Is(err, domain.ErrInvalidRole) {
			t.Fatalf("expected ErrInvalidRole, got %v", err)
		}
		if len(repo.staff) != 0 {
			t.Fatalf("expected nothing stored, got %d", len(repo.staff))
		}
	})
}
