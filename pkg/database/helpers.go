package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

type TxFunc func(tx *sql.Tx) error

// WithTransaction runs fn in a transaction, rolling back when fn fails.
func WithTransaction(ctx context.Context, db *sql.DB, fn TxFunc) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// MissingTables returns the names in tables that do not exist in the public schema,
// in the order given.
func (db *DB) MissingTables(ctx context.Context, tables ...string) ([]string, error) {
	if len(tables) == 0 {
		return nil, nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_name = ANY($1)`, pq.Array(tables))
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool, len(tables))
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []string
	for _, t := range tables {
		if !present[t] {
			missing = append(missing, t)
		}
	}
	return missing, nil
}
