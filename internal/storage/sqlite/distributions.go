package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tontine/internal/models"
)

const distributionColumns = "id, group_id, sequence, beneficiary_id, gross, fee, net, created_at"

func scanDistribution(row interface{ Scan(...any) error }) (*models.Distribution, error) {
	d := &models.Distribution{}
	if err := row.Scan(&d.ID, &d.GroupID, &d.Sequence, &d.BeneficiaryID,
		&d.Gross, &d.Fee, &d.Net, &d.CreatedAt); err != nil {
		return nil, err
	}
	return d, nil
}

// GetDistribution retrieves the distribution of one round sequence.
func (s *SQLiteStore) GetDistribution(ctx context.Context, groupID string, seq int) (*models.Distribution, error) {
	d, err := scanDistribution(s.db.QueryRowContext(ctx,
		`SELECT `+distributionColumns+` FROM distributions WHERE group_id = ? AND sequence = ?`,
		groupID, seq,
	))
	if err != nil {
		return nil, notFound(err, "distribution", fmt.Sprintf("%s/%d", groupID, seq))
	}
	return d, nil
}

// ListDistributions retrieves all distributions for a group by sequence.
func (s *SQLiteStore) ListDistributions(ctx context.Context, groupID string) ([]*models.Distribution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+distributionColumns+` FROM distributions WHERE group_id = ? ORDER BY sequence`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list distributions: %w", err)
	}
	defer rows.Close()

	var out []*models.Distribution
	for rows.Next() {
		d, err := scanDistribution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan distribution: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate distributions: %w", err)
	}
	return out, nil
}

// RecordDistribution stores the payout, empties escrow and opens the next
// round in one transaction.
func (s *SQLiteStore) RecordDistribution(ctx context.Context, d *models.Distribution, next []*models.ContributionRound) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt == 0 {
		d.CreatedAt = time.Now().Unix()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO distributions (`+distributionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.GroupID, d.Sequence, d.BeneficiaryID, d.Gross, d.Fee, d.Net, d.CreatedAt,
		)
		if err != nil {
			return mapConstraint(err, "insert distribution")
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE groups SET escrow_balance = escrow_balance - ?
			 WHERE id = ? AND current_round = ? AND escrow_balance = ?`,
			d.Gross, d.GroupID, d.Sequence, d.Gross,
		)
		if err != nil {
			return fmt.Errorf("failed to debit escrow: %w", err)
		}
		if err := expectOne(res, "debit escrow"); err != nil {
			return err
		}

		return openRound(ctx, tx, d.GroupID, d.Sequence+1, next)
	})
}
