// Package storage opens the configured backend and exposes it as the
// repositories the services are built on.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JayMiller08/sci-sa-gala/internal/app"
	"github.com/JayMiller08/sci-sa-gala/internal/config"
	"github.com/JayMiller08/sci-sa-gala/internal/storage/postgres"
	"github.com/JayMiller08/sci-sa-gala/internal/storage/sqlite"
	"github.com/JayMiller08/sci-sa-gala/migrations"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type eventStore interface {
	app.EventRepository
	app.EventStateStore
}

// Repositories is one open backend.
type Repositories struct {
	Sales  app.SaleRepository
	Events eventStore
	Faults app.FaultRepository
	Staff  app.StaffRepository
	Health Pinger

	close func()
}

func (r *Repositories) Close() {
	if r != nil && r.close != nil {
		r.close()
	}
}

// Open connects to the backend named by cfg and brings its schema up to date.
func Open(ctx context.Context, cfg config.Storage, logger *slog.Logger) (*Repositories, error) {
	switch cfg.DatabaseType {
	case config.DatabasePostgres:
		return openPostgres(ctx, cfg.DatabaseURL, logger)
	case config.DatabaseSQLite:
		return openSQLite(ctx, cfg.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}
}

func openPostgres(ctx context.Context, url string, logger *slog.Logger) (*Repositories, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if err := migrations.Apply(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("storage ready", slog.String("backend", config.DatabasePostgres))

	events := postgres.NewEventRepository(pool)
	return &Repositories{
		Sales:  postgres.NewSaleRepository(pool),
		Events: events,
		Faults: postgres.NewFaultRepository(pool),
		Staff:  postgres.NewStaffRepository(pool),
		Health: events,
		close:  pool.Close,
	}, nil
}

func openSQLite(ctx context.Context, path string, logger *slog.Logger) (*Repositories, error) {
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	logger.Info("storage ready", slog.String("backend", config.DatabaseSQLite), slog.String("path", path))

	closeStore := func() {
		if err := store.Close(); err != nil {
			logger.Warn("close sqlite store", slog.Any("error", err))
		}
	}
	return &Repositories{
		Sales:  store,
		Events: store,
		Faults: store,
		Staff:  store,
		Health: store,
		close:  closeStore,
	}, nil
}
