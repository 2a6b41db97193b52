package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/example/statusboard/internal/localtime"
	"github.com/example/statusboard/internal/persistence"
)

// SweepDisabled turns the periodic room sweep off.
const SweepDisabled = "off"

// RoomSweeper periodically closes rooms that are past their deadline and
// host no in-progress session.
type RoomSweeper struct {
	registry *RoomRegistry
	clock    localtime.Clock
	schedule string
	runner   *cron.Cron
	logger   *slog.Logger
}

// NewRoomSweeper validates schedule and returns a sweeper. An empty schedule
// or SweepDisabled yields a sweeper whose Start does nothing.
func NewRoomSweeper(registry *RoomRegistry, clock localtime.Clock, schedule string, logger *slog.Logger) (*RoomSweeper, error) {
	schedule = strings.TrimSpace(schedule)
	if strings.EqualFold(schedule, SweepDisabled) {
		schedule = ""
	}
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("room sweep schedule %q: %w", schedule, err)
		}
	}
	return &RoomSweeper{
		registry: registry,
		clock:    clock,
		schedule: schedule,
		logger:   defaultLogger(logger),
	}, nil
}

// Enabled reports whether the sweeper has a schedule.
func (s *RoomSweeper) Enabled() bool { return s.schedule != "" }

// Start schedules the sweep. Each run uses ctx for its store calls.
func (s *RoomSweeper) Start(ctx context.Context) error {
	if !s.Enabled() || s.runner != nil {
		return nil
	}
	logger := cronLogger{logger: s.logger.With("service", "RoomSweeper")}
	runner := cron.New(cron.WithLogger(logger), cron.WithChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	))
	if _, err := runner.AddFunc(s.schedule, func() { _, _ = s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule room sweep: %w", err)
	}
	runner.Start()
	s.runner = runner
	s.logger.InfoContext(ctx, "room sweeper started", "service", "RoomSweeper", "schedule", s.schedule)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *RoomSweeper) Stop() {
	if s.runner == nil {
		return
	}
	<-s.runner.Stop().Done()
	s.runner = nil
}

// RunOnce sweeps every active room now.
func (s *RoomSweeper) RunOnce(ctx context.Context) ([]persistence.Room, error) {
	return s.registry.SweepRooms(ctx, s.clock.Now())
}

// cronLogger adapts slog to the cron package's logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
