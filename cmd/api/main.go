package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JayMiller08/sci-sa-gala/internal/app"
	"github.com/JayMiller08/sci-sa-gala/internal/clock"
	"github.com/JayMiller08/sci-sa-gala/internal/config"
	"github.com/JayMiller08/sci-sa-gala/internal/session"
	"github.com/JayMiller08/sci-sa-gala/internal/storage"
	transporthttp "github.com/JayMiller08/sci-sa-gala/internal/transport/http"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	bootLogger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	cfg, err := config.Load(bootLogger)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startupCtx, cancel := context.WithTimeout(stopCtx, startupTimeout)
	defer cancel()

	repos, err := storage.Open(startupCtx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer repos.Close()

	clk := clock.NewSystem()
	issuer, err := session.NewIssuer([]byte(cfg.SessionSecret), clk)
	if err != nil {
		return err
	}

	authSvc := app.NewAuthService(repos.Staff, issuer, clk, logger, cfg.SessionTTL)
	saleSvc := app.NewSaleService(repos.Sales, clk, logger, app.WithDuplicateTTL(cfg.DuplicateTTL))
	eventSvc := app.NewEventDayService(repos.Events, clk, logger, app.WithSoldTicketCheck(cfg.RequireSoldTicket))
	adminSvc := app.NewAdminService(repos.Events, repos.Faults, clk, logger)

	if _, err := adminSvc.EnsureSchedule(startupCtx, cfg.EventTime); err != nil {
		return err
	}
	if _, err := authSvc.PurgeExpiredSessions(startupCtx); err != nil {
		logger.Warn("purge expired sessions", slog.Any("error", err))
	}

	go func() {
		_ = eventSvc.Watch(stopCtx, cfg.PhaseCheckInterval, func(at time.Time) {
			logger.Info("event day is now active", slog.Time("activated_at", at))
		})
	}()

	handler := transporthttp.NewRouter(transporthttp.Services{
		Auth:     authSvc,
		Sales:    saleSvc,
		EventDay: eventSvc,
		Admin:    adminSvc,
		Health:   repos.Health,
	}, transporthttp.RouterConfig{
		CORSOrigins: cfg.CORSOrigins,
		Cookie:      transporthttp.CookieConfig{Secure: cfg.SessionCookieSecure},
		Logger:      logger,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("api listening", slog.String("addr", cfg.Addr()))
	return serve(stopCtx, server, logger)
}

// serve runs server until it fails or ctx is done, then shuts it down. A
// listen failure is returned so the process exits non-zero.
func serve(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	var serveErr error
	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", slog.Any("error", err))
	}
	logger.Info("server stopped")
	return serveErr
}
