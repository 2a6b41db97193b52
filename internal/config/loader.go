package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"

	"github.com/example/statusboard/internal/application"
	"github.com/example/statusboard/internal/localtime"
)

// Environment variable names.
const (
	EnvHTTPPort          = "STATUSBOARD_HTTP_PORT"
	EnvSQLitePath        = "STATUSBOARD_SQLITE_PATH"
	EnvTimezone          = "STATUSBOARD_TIMEZONE"
	EnvLogLevel          = "STATUSBOARD_LOG_LEVEL"
	EnvStartPolicy       = "STATUSBOARD_START_POLICY"
	EnvLexiconPath       = "STATUSBOARD_LEXICON_PATH"
	EnvRoomSweepSchedule = "STATUSBOARD_ROOM_SWEEP_SCHEDULE"
	EnvRoomOpenTime      = "STATUSBOARD_ROOM_OPEN_TIME"
	EnvRoomCloseTime     = "STATUSBOARD_ROOM_CLOSE_TIME"
)

// Config captures environment driven configuration values for the status board service.
type Config struct {
	HTTPPort          int
	SQLitePath        string
	Timezone          string
	Location          *time.Location
	LogLevel          slog.Level
	StartPolicy       application.StartPolicy
	LexiconPath       string
	RoomSweepSchedule string
	RoomHours         application.RoomHours
}

// Default returns the configuration used when no variable is set.
func Default() Config {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		loc = time.FixedZone("KST", 9*60*60)
	}
	return Config{
		HTTPPort:          8080,
		SQLitePath:        "statusboard.db",
		Timezone:          "Asia/Seoul",
		Location:          loc,
		LogLevel:          slog.LevelInfo,
		StartPolicy:       application.StartPolicyIgnore,
		RoomSweepSchedule: "@every 5m",
		RoomHours:         application.DefaultRoomHours(),
	}
}

// LoadFile loads variables from envFile into the process environment and
// then calls Load. A missing file is not an error; variables already set in
// the environment win over the file.
func LoadFile(envFile string) (Config, error) {
	if envFile = strings.TrimSpace(envFile); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return Load()
}

// Load parses configuration values from the current process environment.
//
// Unset variables keep their defaults. Every invalid value is reported in the
// returned error, not only the first one.
func Load() (Config, error) {
	cfg := Default()
	var errs error

	if value := env(EnvHTTPPort); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 || port > 65535 {
			errs = multierr.Append(errs, invalid(EnvHTTPPort, value, "must be a port number"))
		} else {
			cfg.HTTPPort = port
		}
	}

	if value := env(EnvSQLitePath); value != "" {
		cfg.SQLitePath = value
	}

	if value := env(EnvTimezone); value != "" {
		loc, err := time.LoadLocation(value)
		if err != nil {
			errs = multierr.Append(errs, invalid(EnvTimezone, value, err.Error()))
		} else {
			cfg.Timezone = value
			cfg.Location = loc
		}
	}

	if value := env(EnvLogLevel); value != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(value)); err != nil {
			errs = multierr.Append(errs, invalid(EnvLogLevel, value, "must be debug, info, warn or error"))
		} else {
			cfg.LogLevel = level
		}
	}

	if value := env(EnvStartPolicy); value != "" {
		policy, err := application.ParseStartPolicy(value)
		if err != nil {
			errs = multierr.Append(errs, invalid(EnvStartPolicy, value, "must be ignore, supersede or reject"))
		} else {
			cfg.StartPolicy = policy
		}
	}

	cfg.LexiconPath = env(EnvLexiconPath)

	if value := env(EnvRoomSweepSchedule); value != "" {
		if !strings.EqualFold(value, application.SweepDisabled) {
			if _, err := cron.ParseStandard(value); err != nil {
				errs = multierr.Append(errs, invalid(EnvRoomSweepSchedule, value, err.Error()))
			}
		}
		cfg.RoomSweepSchedule = value
	}

	if value := env(EnvRoomOpenTime); value != "" {
		if _, err := localtime.ParseClock(value); err != nil {
			errs = multierr.Append(errs, invalid(EnvRoomOpenTime, value, "must be HH:MM"))
		} else {
			cfg.RoomHours.Open = value
		}
	}

	if value := env(EnvRoomCloseTime); value != "" {
		if _, err := localtime.ParseClock(value); err != nil {
			errs = multierr.Append(errs, invalid(EnvRoomCloseTime, value, "must be HH:MM"))
		} else {
			cfg.RoomHours.Close = value
		}
	}

	if errs != nil {
		return Config{}, errs
	}
	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.HTTPPort)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func invalid(key, value, reason string) error {
	return fmt.Errorf("%s=%q: %s", key, value, reason)
}
