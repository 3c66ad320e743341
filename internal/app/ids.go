package app

import (
	"log/slog"

	"github.com/google/uuid"
)

func newUUID() string {
	return uuid.NewString()
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
