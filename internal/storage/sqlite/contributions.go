package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/tontine/internal/models"
)

const contributionColumns = "id, group_id, member_id, sequence, amount, fee_amount, status, due_at, paid_at"

func scanContribution(row interface{ Scan(...any) error }) (*models.ContributionRound, error) {
	c := &models.ContributionRound{}
	var status string
	if err := row.Scan(&c.ID, &c.GroupID, &c.MemberID, &c.Sequence, &c.Amount,
		&c.FeeAmount, &status, &c.DueAt, &c.PaidAt); err != nil {
		return nil, err
	}
	c.Status = models.ContributionStatus(status)
	return c, nil
}

// openRound advances the round pointer from seq-1 to seq and inserts rows.
func openRound(ctx context.Context, tx *sql.Tx, groupID string, seq int, rows []*models.ContributionRound) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE groups SET current_round = ? WHERE id = ? AND current_round = ?",
		seq, groupID, seq-1,
	)
	if err != nil {
		return fmt.Errorf("failed to advance round pointer: %w", err)
	}
	if err := expectOne(res, "advance round pointer"); err != nil {
		return err
	}

	for _, c := range rows {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		c.GroupID = groupID
		c.Sequence = seq
		if c.Status == "" {
			c.Status = models.ContributionUnvalidated
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO contributions (`+contributionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.GroupID, c.MemberID, c.Sequence, c.Amount, c.FeeAmount,
			string(c.Status), c.DueAt, c.PaidAt,
		)
		if err != nil {
			return mapConstraint(err, "insert contribution")
		}
	}
	return nil
}

// OpenRound opens round seq for a group.
func (s *SQLiteStore) OpenRound(ctx context.Context, groupID string, seq int, rows []*models.ContributionRound) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return openRound(ctx, tx, groupID, seq, rows)
	})
}

// GetContribution retrieves one obligation by ID.
func (s *SQLiteStore) GetContribution(ctx context.Context, contributionID string) (*models.ContributionRound, error) {
	c, err := scanContribution(s.db.QueryRowContext(ctx,
		`SELECT `+contributionColumns+` FROM contributions WHERE id = ?`,
		contributionID,
	))
	if err != nil {
		return nil, notFound(err, "contribution", contributionID)
	}
	return c, nil
}

// ListContributions retrieves all obligations of a round sequence.
func (s *SQLiteStore) ListContributions(ctx context.Context, groupID string, seq int) ([]*models.ContributionRound, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+contributionColumns+` FROM contributions WHERE group_id = ? AND sequence = ? ORDER BY member_id`,
		groupID, seq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}
	defer rows.Close()

	var out []*models.ContributionRound
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contributions: %w", err)
	}
	return out, nil
}

// ValidateContribution marks an obligation paid and credits escrow by its
// amount in the same transaction.
func (s *SQLiteStore) ValidateContribution(ctx context.Context, contributionID string, feeAmount, paidAt int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var groupID string
		var amount int64
		err := tx.QueryRowContext(ctx,
			"SELECT group_id, amount FROM contributions WHERE id = ?",
			contributionID,
		).Scan(&groupID, &amount)
		if err != nil {
			return notFound(err, "contribution", contributionID)
		}

		res, err := tx.ExecContext(ctx,
			"UPDATE contributions SET status = ?, fee_amount = ?, paid_at = ? WHERE id = ? AND status = ?",
			string(models.ContributionValidated), feeAmount, paidAt, contributionID,
			string(models.ContributionUnvalidated),
		)
		if err != nil {
			return fmt.Errorf("failed to validate contribution: %w", err)
		}
		if err := expectOne(res, "validate contribution"); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx,
			"UPDATE groups SET escrow_balance = escrow_balance + ? WHERE id = ?",
			amount, groupID,
		)
		if err != nil {
			return fmt.Errorf("failed to credit escrow: %w", err)
		}
		return expectOne(res, "credit escrow")
	})
}
