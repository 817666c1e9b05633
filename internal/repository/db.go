package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DB is the ledger database handle. Postgres goes through a pgx pool wrapped
// as *sql.DB; everything else is treated as a sqlite path or URI.
type DB struct {
	SQL     *sql.DB
	Dialect string
	pool    *pgxpool.Pool
}

// IsPostgresDSN reports whether dsn should be opened with pgx.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open connects to the ledger database and applies the schema.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
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
		logger.Error("failed to connect to database", "dialect", dialectOf(cfg.DSN), "error", err)
		return nil, err
	}

	if err := HealthCheck(ctx, db, cfg.DialTimeout, logger); err != nil {
		db.Close(logger)
		return nil, fmt.Errorf("ping %s: %w", db.Dialect, err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close(logger)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("successfully connected to database", "dialect", db.Dialect)
	return db, nil
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "dialect", DialectPostgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "discharge-summarizer"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}

	dctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dctx, pc)
	if err != nil {
		return nil, err
	}
	return &DB{SQL: stdlib.OpenDBFromPool(pool), Dialect: DialectPostgres, pool: pool}, nil
}

func openSQLite(cfg Config, logger *slog.Logger) (*DB, error) {
	dsn := strings.TrimPrefix(cfg.DSN, "sqlite://")
	logger.Info("connecting to database", "dialect", DialectSQLite, "path", dsn)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one writer; also keeps ":memory:" databases on a single connection
	sqlDB.SetMaxOpenConns(1)
	return &DB{SQL: sqlDB, Dialect: DialectSQLite}, nil
}

// Close closes the database connections gracefully
func (db *DB) Close(logger *slog.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("closing database connections")
	if err := db.SQL.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
	if db.pool != nil {
		db.pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings using database/sql to catch DSN issues early.
func HealthCheck(ctx context.Context, db *DB, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	logger.Debug("pinging database")
	if err := db.SQL.PingContext(ctx); err != nil {
		return err
	}
	logger.Debug("database ping successful")
	return nil
}

// placeholder returns the n-th (1-based) bind parameter for the dialect.
func (db *DB) placeholder(n int) string {
	if db.Dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return fmt.Sprintf("?%d", n)
}

func dialectOf(dsn string) string {
	if IsPostgresDSN(dsn) {
		return DialectPostgres
	}
	return DialectSQLite
}

const schema = `
CREATE TABLE IF NOT EXISTS extract_job (
	id            TEXT PRIMARY KEY,
	batch_id      TEXT NOT NULL,
	request_id    TEXT NOT NULL DEFAULT '',
	batch_index   INTEGER NOT NULL,
	filename      TEXT NOT NULL,
	content_hash  TEXT NOT NULL,
	format        TEXT NOT NULL,
	method        TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	text_len      INTEGER NOT NULL DEFAULT 0,
	summary_len   INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	started_at_ms BIGINT NOT NULL,
	finished_at_ms BIGINT
)`

const batchIndex = `CREATE INDEX IF NOT EXISTS extract_job_batch_idx ON extract_job (batch_id, batch_index)`

func migrate(ctx context.Context, db *DB) error {
	for _, stmt := range []string{schema, batchIndex} {
		if _, err := db.SQL.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
