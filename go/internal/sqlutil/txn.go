package sqlutil

import (
	"context"
	"database/sql"
)

// ReadOnly executes fn inside a read-only *sql.Tx so every query sees the
// same snapshot. The tx is always rolled back.
func ReadOnly(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	return fn(tx)
}
