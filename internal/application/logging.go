package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/statusboard/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	return logging.Or(logger)
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	return logging.Component(ctx, base, "service", serviceName, operation, attrs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrSessionInProgress), errors.Is(err, ErrRecordCanceled):
		return "conflict"
	case errors.Is(err, ErrStoreFailure):
		return "store_failure"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "internal"
}

// logResult logs the outcome of an operation once. Expected outcomes are
// warnings; store failures and unexpected errors are errors.
func logResult(ctx context.Context, logger *slog.Logger, err error, msg string, attrs ...any) {
	if err == nil {
		logger.InfoContext(ctx, msg, attrs...)
		return
	}
	attrs = append(attrs, "error", err, "error_kind", ErrorKind(err))
	switch ErrorKind(err) {
	case "validation", "not_found", "conflict":
		logger.WarnContext(ctx, msg+" failed", attrs...)
	default:
		logger.ErrorContext(ctx, msg+" failed", attrs...)
	}
}
