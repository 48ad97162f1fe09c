package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is a DBTX that can also be pinged, as *pgxpool.Pool is.
type Pool interface {
	DBTX
	Ping(ctx context.Context) error
}

// Store aggregates repositories backed by PostgreSQL.
type Store struct {
	pool Pool

	Users    UserRepository
	Sessions SessionRepository
	Shifts   ShiftRepository
}

// New wires concrete repository implementations with a shared connection pool.
func New(pool Pool) *Store {
	return &Store{
		pool:     pool,
		Users:    &userRepo{db: pool},
		Sessions: &sessionRepo{db: pool},
		Shifts:   &shiftRepo{db: pool},
	}
}

// HealthCheck verifies that the underlying database is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	defer observeDB(ctx, "db.healthcheck")()
	return s.pool.Ping(ctx)
}
