package sqlite

import (
	"context"
	"fmt"
	"time"
)

// QuoteFee records a fee under key unless one is already recorded, and
// returns the recorded fee.
func (s *SQLiteStore) QuoteFee(ctx context.Context, key string, fee int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO fee_quotes (idempotency_key, fee, created_at) VALUES (?, ?, ?)",
		key, fee, time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to quote fee for %s: %w", key, err)
	}

	var quoted int64
	if err := tx.QueryRowContext(ctx, "SELECT fee FROM fee_quotes WHERE idempotency_key = ?", key).Scan(&quoted); err != nil {
		return 0, fmt.Errorf("failed to read fee quote for %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return quoted, nil
}
