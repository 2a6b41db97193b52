package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/example/statusboard/internal/logging"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestServiceLoggerPrefersContextLogger(t *testing.T) {
	t.Parallel()

	var ctxBuf, baseBuf bytes.Buffer
	ctxLogger := slog.New(slog.NewTextHandler(&ctxBuf, nil))
	base := slog.New(slog.NewTextHandler(&baseBuf, nil))

	ctx := logging.ContextWithLogger(context.Background(), ctxLogger)
	serviceLogger(ctx, base, "IngestionService", "Ingest", "room", "shop-a").Info("hello")

	if baseBuf.Len() != 0 {
		t.Fatalf("expected base logger to stay silent, got %q", baseBuf.String())
	}
	out := ctxBuf.String()
	for _, want := range []string{"service=IngestionService", "operation=Ingest", "room=shop-a"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: ""},
		{err: ErrNotFound, want: "not_found"},
		{err: ErrSessionInProgress, want: "conflict"},
		{err: ErrRecordCanceled, want: "conflict"},
		{err: ErrStoreFailure, want: "store_failure"},
		{err: &ValidationError{FieldErrors: map[string]string{"room": "required"}}, want: "validation"},
		{err: errors.New("boom"), want: "internal"},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Fatalf("expected %q for %v, got %q", tt.want, tt.err, got)
		}
	}
}

func TestLogResultLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	logResult(ctx, logger, nil, "done")
	logResult(ctx, logger, ErrNotFound, "lookup")
	logResult(ctx, logger, ErrStoreFailure, "write")

	out := buf.String()
	for _, want := range []string{
		"level=INFO msg=done",
		"level=WARN msg=\"lookup failed\"",
		"level=ERROR msg=\"write failed\"",
		"error_kind=store_failure",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}
