package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/example/statusboard/internal/application"
)

var allVariables = []string{
	EnvHTTPPort,
	EnvSQLitePath,
	EnvTimezone,
	EnvLogLevel,
	EnvStartPolicy,
	EnvLexiconPath,
	EnvRoomSweepSchedule,
	EnvRoomOpenTime,
	EnvRoomCloseTime,
}

// clearEnv blanks every variable for the duration of the test. Blank values
// are treated as unset by the loader.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allVariables {
		t.Setenv(key, "")
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 8080 || cfg.Addr() != ":8080" {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLitePath != "statusboard.db" {
			t.Fatalf("unexpected default path: %q", cfg.SQLitePath)
		}
		if cfg.Timezone != "Asia/Seoul" || cfg.Location == nil {
			t.Fatalf("expected Asia/Seoul, got %q", cfg.Timezone)
		}
		if cfg.LogLevel != slog.LevelInfo || cfg.StartPolicy != application.StartPolicyIgnore {
			t.Fatalf("unexpected defaults: level=%v policy=%v", cfg.LogLevel, cfg.StartPolicy)
		}
		if cfg.RoomSweepSchedule != "@every 5m" || cfg.RoomHours != application.DefaultRoomHours() {
			t.Fatalf("unexpected room defaults: %q %+v", cfg.RoomSweepSchedule, cfg.RoomHours)
		}
	})

	t.Run("parses every field", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvHTTPPort, "9090")
		t.Setenv(EnvSQLitePath, "/tmp/board.db")
		t.Setenv(EnvTimezone, "UTC")
		t.Setenv(EnvLogLevel, "debug")
		t.Setenv(EnvStartPolicy, "Supersede")
		t.Setenv(EnvLexiconPath, "/etc/lexicon.yaml")
		t.Setenv(EnvRoomSweepSchedule, "off")
		t.Setenv(EnvRoomOpenTime, "18:00")
		t.Setenv(EnvRoomCloseTime, "04:30")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 9090 || cfg.SQLitePath != "/tmp/board.db" || cfg.Location.String() != "UTC" {
			t.Fatalf("unexpected config: %+v", cfg)
		}
		if cfg.LogLevel != slog.LevelDebug || cfg.StartPolicy != application.StartPolicySupersede {
			t.Fatalf("unexpected level or policy: %v %v", cfg.LogLevel, cfg.StartPolicy)
		}
		if cfg.LexiconPath != "/etc/lexicon.yaml" || cfg.RoomSweepSchedule != "off" {
			t.Fatalf("unexpected lexicon or schedule: %q %q", cfg.LexiconPath, cfg.RoomSweepSchedule)
		}
		if cfg.RoomHours.Open != "18:00" || cfg.RoomHours.Close != "04:30" {
			t.Fatalf("unexpected room hours: %+v", cfg.RoomHours)
		}
	})

	t.Run("reports every invalid value", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvHTTPPort, "http")
		t.Setenv(EnvTimezone, "Mars/Olympus")
		t.Setenv(EnvLogLevel, "loud")
		t.Setenv(EnvStartPolicy, "queue")
		t.Setenv(EnvRoomSweepSchedule, "sometimes")
		t.Setenv(EnvRoomCloseTime, "25:00")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		if got := len(multierr.Errors(err)); got != 6 {
			t.Fatalf("expected 6 errors, got %d: %v", got, err)
		}
		for _, key := range []string{EnvHTTPPort, EnvTimezone, EnvLogLevel, EnvStartPolicy, EnvRoomSweepSchedule, EnvRoomCloseTime} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in %q", key, err.Error())
			}
		}
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("reads variables from the env file", func(t *testing.T) {
		clearEnv(t)
		// godotenv does not override variables that are already set, so the
		// keys read from the file must be absent.
		for _, key := range []string{EnvHTTPPort, EnvStartPolicy} {
			os.Unsetenv(key)
		}
		path := filepath.Join(t.TempDir(), ".env")
		content := EnvHTTPPort + "=7070\n" + EnvStartPolicy + "=reject\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Cleanup(func() {
			os.Unsetenv(EnvHTTPPort)
			os.Unsetenv(EnvStartPolicy)
		})

		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile returned error: %v", err)
		}
		if cfg.HTTPPort != 7070 || cfg.StartPolicy != application.StartPolicyReject {
			t.Fatalf("expected values from the file, got %d %v", cfg.HTTPPort, cfg.StartPolicy)
		}
	})

	t.Run("missing file falls back to the environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvHTTPPort, "8181")

		cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.env"))
		if err != nil {
			t.Fatalf("LoadFile returned error: %v", err)
		}
		if cfg.HTTPPort != 8181 {
			t.Fatalf("expected 8181, got %d", cfg.HTTPPort)
		}
	})
}
