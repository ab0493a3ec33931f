package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/bg-batch/internal/common"
)

// DB bundles the ent SQL driver with whatever owns the connections.
type DB struct {
	Driver *entsql.Driver
	pool   *pgxpool.Pool // postgres only
	sqlDB  *sql.DB
}

// Dialect returns the ent dialect name of the underlying database.
func (d *DB) Dialect() string {
	return d.Driver.Dialect()
}

// IsPostgresDSN reports whether dsn should be opened with pgx.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open connects to the ledger (postgres via a pgx pool, otherwise a SQLite file),
// wraps it for ent and creates the schema.
func Open(ctx context.Context, cfg common.LedgerConfig, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		db  *DB
		err error
	)
	if IsPostgresDSN(cfg.DSN) {
		db, err = openPostgres(ctx, cfg, logger)
	} else {
		db, err = openSQLite(cfg, logger)
	}
	if err != nil {
		return nil, err
	}

	if err := Migrate(ctx, db); err != nil {
		logger.Error("failed to migrate ledger schema", "error", err)
		Close(db, logger)
		return nil, err
	}
	logger.Info("ledger ready", "dialect", db.Dialect())
	return db, nil
}

func openPostgres(ctx context.Context, cfg common.LedgerConfig, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to ledger database", "dialect", dialect.Postgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse ledger dsn", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "bg-batch"

	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to ledger database", "error", err)
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("failed to ping ledger database", "error", err)
		return nil, err
	}

	// Wrap pool as *sql.DB for ent
	sqlDB := stdlib.OpenDBFromPool(pool)
	return &DB{
		Driver: entsql.OpenDB(dialect.Postgres, sqlDB),
		pool:   pool,
		sqlDB:  sqlDB,
	}, nil
}

func openSQLite(cfg common.LedgerConfig, logger *slog.Logger) (*DB, error) {
	dsn := SQLiteDSN(cfg.DSN)
	logger.Info("opening ledger database", "dialect", dialect.SQLite, "dsn", dsn)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open ledger database", "error", err)
		return nil, err
	}
	return &DB{
		Driver: entsql.OpenDB(dialect.SQLite, sqlDB),
		sqlDB:  sqlDB,
	}, nil
}

// SQLiteDSN turns a path (optionally prefixed with sqlite://) into a modernc DSN with
// foreign keys on, which ent's migrator insists on, and a busy timeout.
func SQLiteDSN(dsn string) string {
	dsn = strings.TrimPrefix(dsn, "sqlite://")
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dsn, sep)
}

// Close closes the database connections gracefully
func Close(db *DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("closing ledger connections")
	if err := db.Driver.Close(); err != nil {
		logger.Error("failed to close ledger driver", "error", err)
	}
	if db.pool != nil {
		db.pool.Close()
	}
	logger.Debug("ledger connections closed")
}

// HealthCheck pings the ledger to catch DSN issues early.
func HealthCheck(ctx context.Context, db *DB, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("pinging ledger database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var err error
	if db.pool != nil {
		err = db.pool.Ping(ctx)
	} else {
		err = db.sqlDB.PingContext(ctx)
	}
	if err != nil {
		logger.Error("ledger ping failed", "error", err)
		return err
	}
	logger.Debug("ledger ping successful")
	return nil
}
