package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/statusboard/internal/persistence/sqlite/migration"
)

// Store bundles the SQLite repositories over one connection pool.
type Store struct {
	pool *ConnectionPool

	Slots       *SlotRepository
	Rooms       *RoomRepository
	Records     *StatusBoardRepository
	MessageLogs *MessageLogRepository
	Shops       *ShopRepository
	Notices     *DesignatedNoticeRepository
}

// Open opens the database file at path with the default configuration.
func Open(path string) (*Store, error) {
	return OpenWithConfig(migration.DefaultSQLiteConfig(path))
}

// OpenWithConfig opens the database described by cfg.
func OpenWithConfig(cfg migration.SQLiteConfig) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sqlite: invalid config: %w", err)
	}
	pool, err := NewConnectionPool(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{
		pool:        pool,
		Slots:       NewSlotRepository(pool),
		Rooms:       NewRoomRepository(pool),
		Records:     NewStatusBoardRepository(pool),
		MessageLogs: NewMessageLogRepository(pool),
		Shops:       NewShopRepository(pool),
		Notices:     NewDesignatedNoticeRepository(pool),
	}, nil
}

// Pool exposes the underlying connection pool.
func (s *Store) Pool() *ConnectionPool {
	return s.pool
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	manager := migration.NewMigrationManager(
		migration.Embedded(),
		migration.NewSQLiteExecutor(s.pool.DB()),
		logger,
	)
	return manager.RunMigrations(ctx)
}
