package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lsst-sqre/exposurelog/common/config"
	"github.com/lsst-sqre/exposurelog/common/logger"
)

// DB holds the message database handle.
// Exactly one of Pool (postgres) and SQL (sqlite) is set.
type DB struct {
	*pgxpool.Pool
	SQL    *sql.DB
	Driver string
	log    *logger.Logger
}

// New connects to the database selected by cfg.Database.Driver
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*DB, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		sqlDB, err := OpenSQLite(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		log.Info("database opened", "driver", "sqlite", "path", cfg.Database.Path)
		return &DB{SQL: sqlDB, Driver: "sqlite", log: log}, nil
	case "postgres":
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Database.Driver)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("database connected", "host", cfg.Database.Host, "db", cfg.Database.Database)

	return &DB{
		Pool:   pool,
		Driver: "postgres",
		log:    log,
	}, nil
}

// OpenSQLite opens (creating if needed) a SQLite database at path.
// SQLite allows one writer, so the handle is limited to one connection.
func OpenSQLite(path string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return sqlDB, nil
}

// Close closes the underlying database handle
func (db *DB) Close() {
	db.log.Info("closing database", "driver", db.Driver)
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.SQL != nil {
		db.SQL.Close()
	}
}

// Health checks database health
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if db.Pool != nil {
		return db.Pool.Ping(ctx)
	}
	return db.SQL.PingContext(ctx)
}
