package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/athome/driveops/internal/config"
	"github.com/athome/driveops/internal/pkg/auth"
	"github.com/athome/driveops/internal/pkg/logger"
)

// PostgresDB database connection structure
type PostgresDB struct {
	Pool    *pgxpool.Pool
	rlsRole string
}

// NewPostgresDB creates a new PostgreSQL connection pool
func NewPostgresDB(cfg *config.Config) (*PostgresDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.GetPostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgxpool config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime

	poolConfig.BeforeAcquire = func(ctx context.Context, conn *pgx.Conn) bool {
		if err := conn.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("Unhealthy connection detected")
			return false
		}
		return true
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to establish database connection: %w", err)
	}

	return &PostgresDB{Pool: pool, rlsRole: cfg.Database.RLSRole}, nil
}

// Close closing method
func (db *PostgresDB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// TransactionFn is a function that executes within a transaction
type TransactionFn func(ctx context.Context, tx pgx.Tx) error

// WithTransaction runs a function within a transaction
func (db *PostgresDB) WithTransaction(ctx context.Context, fn TransactionFn) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			logger.Error().Err(rbErr).Msg("Failed to rollback transaction")
			return fmt.Errorf("error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// WithIdentity runs fn in a transaction that acts as the caller attached to ctx:
// the session claims are published as request.jwt.claims and the configured
// RLS role is assumed, so row-level-security policies see the caller. Without
// an identity fn runs with the pool's own privileges.
func (db *PostgresDB) WithIdentity(ctx context.Context, fn TransactionFn) error {
	id, ok := auth.IdentityFrom(ctx)
	return db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if ok {
			if err := assume(ctx, tx, id, db.rlsRole); err != nil {
				return err
			}
		}
		return fn(ctx, tx)
	})
}

func assume(ctx context.Context, tx pgx.Tx, id auth.Identity, role string) error {
	if _, err := tx.Exec(ctx, `SELECT set_config('request.jwt.claims', $1, true)`, id.Claims); err != nil {
		return fmt.Errorf("failed to publish session claims: %w", err)
	}
	if role == "" {
		return nil
	}
	if _, err := tx.Exec(ctx, "SET LOCAL ROLE "+pgx.Identifier{role}.Sanitize()); err != nil {
		return fmt.Errorf("failed to assume role %s: %w", role, err)
	}
	return nil
}
