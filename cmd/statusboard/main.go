package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/example/statusboard/internal/application"
	"github.com/example/statusboard/internal/config"
	httptransport "github.com/example/statusboard/internal/http"
	"github.com/example/statusboard/internal/lexicon"
	"github.com/example/statusboard/internal/localtime"
	"github.com/example/statusboard/internal/parser"
	"github.com/example/statusboard/internal/persistence/sqlite"
	"github.com/example/statusboard/internal/ticket"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	envFile     string
	migrateOnly bool
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("statusboard", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.StringVar(&opts.envFile, "env-file", ".env", "environment file loaded before reading STATUSBOARD_* variables")
	flagSet.BoolVar(&opts.migrateOnly, "migrate-only", false, "apply database migrations and exit")
	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return options{}, fmt.Errorf("unexpected argument: %s", extra[0])
	}
	return opts, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args, stdout)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFile(opts.envFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger := newLogger(stdout, cfg.LogLevel)

	store, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := store.Migrate(ctx, logger); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if opts.migrateOnly {
		logger.Info("migrations applied", "path", cfg.SQLitePath)
		return nil
	}

	lex, err := loadLexicon(cfg.LexiconPath)
	if err != nil {
		return err
	}

	app, err := newApp(cfg, store, lex, time.Now, logger)
	if err != nil {
		return err
	}

	if app.sweeper.Enabled() {
		if err := app.sweeper.Start(ctx); err != nil {
			return fmt.Errorf("start room sweeper: %w", err)
		}
		defer app.sweeper.Stop()
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("status board API listening", "addr", server.Addr, "timezone", cfg.Timezone, "start_policy", cfg.StartPolicy)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func loadLexicon(path string) (*lexicon.Lexicon, error) {
	if path == "" {
		return lexicon.Default(), nil
	}
	lex, err := lexicon.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	return lex, nil
}

type app struct {
	handler   http.Handler
	ingestion *application.IngestionService
	sweeper   *application.RoomSweeper
}

// newApp wires the services and the HTTP handler over store.
func newApp(cfg config.Config, store *sqlite.Store, lex *lexicon.Lexicon, now func() time.Time, logger *slog.Logger) (app, error) {
	repos := application.Repositories{
		Slots:       store.Slots,
		Rooms:       store.Rooms,
		Records:     store.Records,
		MessageLogs: store.MessageLogs,
		Shops:       store.Shops,
		Notices:     store.Notices,
	}
	clock := localtime.NewClock(now, cfg.Location)
	tickets := ticket.New(lex)
	idGenerator := uuid.NewString

	writer := application.NewStatusBoardWriter(repos.Records, logger)
	events := application.NewEventChecker(repos.Shops, repos.Records, logger)
	registry := application.NewRoomRegistry(repos, writer, cfg.RoomHours, idGenerator, logger)
	machine := application.NewSessionMachine(repos.Records, writer, events, tickets, cfg.StartPolicy, idGenerator, logger)
	designated := application.NewDesignatedService(repos.Notices, repos.Records, writer, idGenerator, logger)
	ingestion := application.NewIngestionService(repos, parser.New(lex), clock, registry, machine, designated, idGenerator, logger)
	board := application.NewBoardService(repos.Slots, repos.Records, tickets, clock, logger)

	sweeper, err := application.NewRoomSweeper(registry, clock, cfg.RoomSweepSchedule, logger)
	if err != nil {
		return app{}, err
	}

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Bot:   httptransport.NewBotHandler(ingestion, logger),
		Board: httptransport.NewBoardHandler(board, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			middleware.Recoverer,
		},
	})

	return app{handler: handler, ingestion: ingestion, sweeper: sweeper}, nil
}
