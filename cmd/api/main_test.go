package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"
)

func TestServe_ListenFailureIsReturned(t *testing.T) {
	t.Parallel()

	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer taken.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := &http.Server{Addr: taken.Addr().String(), Handler: http.NotFoundHandler()}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := serve(ctx, server, logger); err == nil {
		t.Fatal("expected an error when the address is already in use")
	}
}

func TestServe_StopsCleanlyOnCancel(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := serve(ctx, server, logger); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
}
