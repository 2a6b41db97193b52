package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/example/statusboard/internal/config"
	"github.com/example/statusboard/internal/lexicon"
	"github.com/example/statusboard/internal/localtime"
	"github.com/example/statusboard/internal/persistence"
	"github.com/example/statusboard/internal/persistence/sqlite"
)

func TestParseFlags(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts, err := parseFlags(nil, io.Discard)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opts.envFile != ".env" || opts.migrateOnly {
			t.Fatalf("unexpected defaults %+v", opts)
		}
	})

	t.Run("explicit values", func(t *testing.T) {
		opts, err := parseFlags([]string{"--env-file", "prod.env", "--migrate-only"}, io.Discard)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opts.envFile != "prod.env" || !opts.migrateOnly {
			t.Fatalf("unexpected options %+v", opts)
		}
	})

	t.Run("rejects positional arguments", func(t *testing.T) {
		if _, err := parseFlags([]string{"serve"}, io.Discard); err == nil {
			t.Fatalf("expected an error for a positional argument")
		}
	})

	t.Run("help", func(t *testing.T) {
		var out bytes.Buffer
		_, err := parseFlags([]string{"--help"}, &out)
		if !errors.Is(err, pflag.ErrHelp) || !strings.Contains(out.String(), "--migrate-only") {
			t.Fatalf("expected help output, got %v %q", err, out.String())
		}
	})
}

func TestRunMigrateOnly(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "board.db")
	t.Setenv(config.EnvSQLitePath, dbPath)
	t.Setenv(config.EnvLogLevel, "info")

	var out bytes.Buffer
	if err := run(context.Background(), []string{"--env-file", filepath.Join(dir, "missing.env"), "--migrate-only"}, &out); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected the database file to exist: %v", err)
	}
	if !strings.Contains(out.String(), "migrations applied") {
		t.Fatalf("expected a migration log line, got %s", out.String())
	}
}

func TestRunRejectsInvalidConfiguration(t *testing.T) {
	t.Setenv(config.EnvStartPolicy, "queue")
	err := run(context.Background(), []string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), config.EnvStartPolicy) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
}

func TestLoadLexicon(t *testing.T) {
	if lex, err := loadLexicon(""); err != nil || lex == nil {
		t.Fatalf("expected the default lexicon, got %v %v", lex, err)
	}
	if _, err := loadLexicon(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected an error for a missing lexicon file")
	}
}

func TestNewAppServesIngestion(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := store.Migrate(ctx, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	shop := "shop-x"
	seeded := localtime.Date(2025, time.March, 1, 12, 0, 0)
	slot := persistence.Slot{ID: "slot-1", SubjectName: "도아", ShopName: &shop, IsActive: true, CreatedAt: seeded, UpdatedAt: seeded}
	if err := store.Slots.CreateSlot(ctx, slot); err != nil {
		t.Fatalf("seed slot: %v", err)
	}

	cfg := config.Default()
	cfg.Location = time.UTC
	cfg.RoomSweepSchedule = "off"
	now := func() time.Time { return time.Date(2025, time.March, 14, 18, 0, 0, 0, time.UTC) }

	built, err := newApp(cfg, store, lexicon.Default(), now, logger)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	if built.sweeper.Enabled() {
		t.Fatalf("expected the sweeper to be disabled")
	}

	body := `{"room":"shop-x","sender":"manager","message":"703 도아 ㅃ2"}`
	rec := httptest.NewRecorder()
	built.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/bot/message", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Success bool   `json:"success"`
		Type    string `json:"type"`
		Results []struct {
			Type     string `json:"type"`
			RecordID string `json:"recordId"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.Success || payload.Type != "processed" || len(payload.Results) != 1 || payload.Results[0].Type != "start" {
		t.Fatalf("unexpected response %+v", payload)
	}

	record, err := store.Records.GetRecord(ctx, payload.Results[0].RecordID)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if record.StartTime.String() != "2025-03-14 18:00:00" || record.FareTickets == nil || *record.FareTickets != 2 {
		t.Fatalf("unexpected record %+v", record)
	}
}
