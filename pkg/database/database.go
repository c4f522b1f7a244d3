package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/OldStager01/pool-occupancy/internal/logger"
)

// RequiredTables are the tables the service reads and writes. Migrations create them.
var RequiredTables = []string{"occupancy_readings", "pool_capacity"}

type DB struct {
	*sql.DB
}

type Config struct {
	DSN             string
	MaxConnections  int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	ConnectAttempts int
	ConnectBackoff  time.Duration
}

func (c *Config) applyDefaults() {
	if c.MaxConnections <= 0 {
		c.MaxConnections = 10
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 30 * time.Minute
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = 5 * time.Minute
	}
	if c.PingTimeout == 0 {
		c.PingTimeout = 10 * time.Second
	}
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = 5
	}
	if c.ConnectBackoff == 0 {
		c.ConnectBackoff = time.Second
	}
}

// New opens the pool and pings until the server answers, doubling the backoff
// between attempts. Postgres commonly starts after the service in compose setups.
func New(ctx context.Context, cfg Config) (*DB, error) {
	cfg.applyDefaults()

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(max(1, cfg.MaxConnections/2))
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	backoff := cfg.ConnectBackoff
	for attempt := 1; ; attempt++ {
		err = ping(ctx, db, cfg.PingTimeout)
		if err == nil {
			return &DB{DB: db}, nil
		}
		if attempt >= cfg.ConnectAttempts {
			break
		}

		logger.WithField("attempt", attempt).Warnf("Database not reachable, retrying in %s: %v", backoff, err)

		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	db.Close()
	return nil, fmt.Errorf("failed to ping database after %d attempts: %w", cfg.ConnectAttempts, err)
}

func ping(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return db.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.DB.Close()
}

func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}
