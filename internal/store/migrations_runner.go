package store

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"gitea.jw6.us/james/tiptrack/internal/migrations"
)

// PgxPool represents the subset of pgxpool.Pool used by migration helpers.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Migrator applies *.sql files from a filesystem in name order, recording
// each applied file in schema_migrations.
type Migrator struct {
	pool  PgxPool
	files fs.FS
}

func NewMigrator(pool PgxPool, files fs.FS) *Migrator {
	return &Migrator{pool: pool, files: files}
}

// ApplyMigrations applies the embedded schema migrations that have not run yet.
func ApplyMigrations(ctx context.Context, pool PgxPool) error {
	return NewMigrator(pool, migrations.Files).Apply(ctx)
}

// Apply runs every pending migration, each in its own transaction. It stops
// at the first failure; earlier migrations stay applied.
func (m *Migrator) Apply(ctx context.Context) error {
	names, err := fs.Glob(m.files, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil
	}

	const ensure = `CREATE TABLE IF NOT EXISTS schema_migrations (
        version TEXT PRIMARY KEY,
        applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if _, err := m.pool.Exec(ctx, ensure); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, name := range names {
		applied, err := m.applied(ctx, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		if err := m.apply(ctx, name); err != nil {
			return err
		}
		zap.L().Info("applied migration", zap.String("version", name))
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context, name string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version=$1)`
	var exists bool
	if err := m.pool.QueryRow(ctx, q, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("check migration %s: %w", name, err)
	}
	return exists, nil
}

func (m *Migrator) apply(ctx context.Context, name string) error {
	contents, err := fs.ReadFile(m.files, path.Clean(name))
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}

	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, string(contents)); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	const record = `INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT (version) DO NOTHING`
	if _, err := tx.Exec(ctx, record, name); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	return nil
}
