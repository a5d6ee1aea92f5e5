package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/docvault/internal/dbx"
)

// queries holds the SQL shared by the plain and transactional views.
type queries struct {
	db dbx.DBTX
}

func (q *queries) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := q.db.QueryRowContext(ctx, `SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state[%s]: %w", key, err)
	}
	return value, nil
}

func (q *queries) Set(ctx context.Context, key string, value []byte) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set state[%s]: %w", key, err)
	}
	return nil
}

func (q *queries) Delete(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM state WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete state[%s]: %w", key, err)
	}
	return nil
}

func (q *queries) Clear(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM state`)
	if err != nil {
		return fmt.Errorf("failed to clear state: %w", err)
	}
	return nil
}

// SQLiteRepository is the Repository used in real runs, backed by the
// client's local sqlite database.
type SQLiteRepository struct {
	queries
	sqlDB *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{queries: queries{db: db}, sqlDB: db}
}

func (r *SQLiteRepository) Update(ctx context.Context, fn func(Repository) error) error {
	return dbx.WithTx(ctx, r.sqlDB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(&txRepository{queries: queries{db: tx}})
	})
}

// txRepository is the transactional view handed to Update callbacks.
type txRepository struct {
	queries
}

// Update inside an open transaction reuses it.
func (r *txRepository) Update(ctx context.Context, fn func(Repository) error) error {
	return fn(r)
}
