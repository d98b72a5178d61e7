package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spotzerodev/hunter-bot/hunterbot/database/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const defaultConnTimeout = 5 * time.Second

// PoolConfig bounds the shared connection pool. Acquisition is governed by
// per-request context timeouts, so saturation surfaces as a transient error
// instead of an indefinite hang.
type PoolConfig struct {
	MaxConns    int `toml:"pool_size"`
	MinConns    int `toml:"min_idle_conns"`
	MaxLifetime int `toml:"max_lifetime"`
}

// DB wraps a bun handle used by the repositories, plus the pgx pool for
// pool-level operations when running against Postgres. The SQLite variant
// has no pool.
type DB struct {
	pool  *pgxpool.Pool
	bunDB *bun.DB
}

// ConnStringFromEnv reads the Postgres connection string from the process
// environment. A missing value is a startup error, never a runtime one.
func ConnStringFromEnv() (string, error) {
	for _, key := range []string{"DATABASE_URL", "DATABASE_PUBLIC_URL"} {
		if v := os.Getenv(key); v != "" {
			return v, nil
		}
	}
	return "", errors.New("connection string not set")
}

// New connects to Postgres with a bounded pool and verifies the connection
// before returning.
func New(ctx context.Context, connString string, cfg PoolConfig) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxLifetime) * time.Second
	}
	poolConfig.ConnConfig.ConnectTimeout = defaultConnTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(connString)))
	configurePool(sqldb, cfg)
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	return &DB{pool: pool, bunDB: bunDB}, nil
}

// configurePool bounds the handle the repositories actually query through.
// Saturation then queues on acquisition and surfaces through the caller's
// context deadline instead of opening connections without limit.
func configurePool(sqldb *sql.DB, cfg PoolConfig) {
	if cfg.MaxConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MinConns)
	}
	if cfg.MaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)
	}
}

// NewSQLite opens the single-file embedded store. The repositories are
// identical over either backend; this is the store the campaign ran on before
// moving to Postgres, kept for local development and tests.
func NewSQLite(path string) (*DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite handles one writer; a wider pool just trades errors for locks.
	sqldb.SetMaxOpenConns(1)

	return &DB{bunDB: bun.NewDB(sqldb, sqlitedialect.New())}, nil
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

func (db *DB) Ping(ctx context.Context) error {
	if db.pool != nil {
		if err := db.pool.Ping(ctx); err != nil {
			return fmt.Errorf("pgxpool ping failed: %w", err)
		}
	}
	if err := db.bunDB.PingContext(ctx); err != nil {
		return fmt.Errorf("bun ping failed: %w", err)
	}
	return nil
}

func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
	if db.bunDB != nil {
		db.bunDB.Close()
	}
}

// InitializeSchema creates the tables and indexes the bot needs. Idempotent;
// runs at every startup.
func (db *DB) InitializeSchema(ctx context.Context) error {
	tables := []interface{}{
		(*models.UserLink)(nil),
		(*models.QuestRecord)(nil),
		(*models.VerificationLog)(nil),
	}

	for _, model := range tables {
		_, err := db.bunDB.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		// One steam identity may not be claimed by two Discord identities.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_user_links_steam_id ON user_links(steam_id) WHERE steam_id IS NOT NULL;",
		"CREATE INDEX IF NOT EXISTS idx_quest_records_quest_status ON quest_records(quest_index, status);",
		"CREATE INDEX IF NOT EXISTS idx_verification_logs_user ON verification_logs(discord_id, created_at);",
	}

	for _, idx := range indexes {
		if err := db.execDDL(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func (db *DB) execDDL(ctx context.Context, ddl string) error {
	start := time.Now()
	_, err := db.bunDB.ExecContext(ctx, ddl)
	if err != nil {
		slog.Error("DDL failed",
			slog.String("type", "db"),
			slog.String("query", ddl),
			slog.Duration("took", time.Since(start)),
			slog.Any("error", err))
		return err
	}
	slog.Debug("DDL executed",
		slog.String("type", "db"),
		slog.String("query", ddl),
		slog.Duration("took", time.Since(start)))
	return nil
}
