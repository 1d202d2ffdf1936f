package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tontine/internal/models"
)

const penaltyColumns = `id, group_id, member_id, round_sequence, amount, reason, note, status,
	created_by, created_at, paid_at`

func scanPenalty(row interface{ Scan(...any) error }) (*models.Penalty, error) {
	p := &models.Penalty{}
	var reason, status string
	var note sql.NullString
	if err := row.Scan(&p.ID, &p.GroupID, &p.MemberID, &p.RoundSequence, &p.Amount,
		&reason, &note, &status, &p.CreatedBy, &p.CreatedAt, &p.PaidAt); err != nil {
		return nil, err
	}
	p.Reason = models.PenaltyReason(reason)
	p.Status = models.PenaltyStatus(status)
	if note.Valid {
		p.Note = note.String
	}
	return p, nil
}

// CreatePenalty persists a new penalty.
func (s *SQLiteStore) CreatePenalty(ctx context.Context, p *models.Penalty) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}
	if p.Status == "" {
		p.Status = models.PenaltyUnpaid
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO penalties (`+penaltyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.GroupID, p.MemberID, p.RoundSequence, p.Amount, string(p.Reason),
		nullString(p.Note), string(p.Status), p.CreatedBy, p.CreatedAt, p.PaidAt,
	)
	if err != nil {
		return mapConstraint(err, "insert penalty")
	}
	return nil
}

// GetPenalty retrieves a penalty by ID.
func (s *SQLiteStore) GetPenalty(ctx context.Context, penaltyID string) (*models.Penalty, error) {
	p, err := scanPenalty(s.db.QueryRowContext(ctx,
		`SELECT `+penaltyColumns+` FROM penalties WHERE id = ?`,
		penaltyID,
	))
	if err != nil {
		return nil, notFound(err, "penalty", penaltyID)
	}
	return p, nil
}

// ListPenalties retrieves all penalties for a group, newest first.
func (s *SQLiteStore) ListPenalties(ctx context.Context, groupID string) ([]*models.Penalty, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+penaltyColumns+` FROM penalties WHERE group_id = ? ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list penalties: %w", err)
	}
	defer rows.Close()

	var penalties []*models.Penalty
	for rows.Next() {
		p, err := scanPenalty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan penalty: %w", err)
		}
		penalties = append(penalties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate penalties: %w", err)
	}
	return penalties, nil
}

// MarkPenaltyPaid moves a penalty from UNPAID to PAID.
func (s *SQLiteStore) MarkPenaltyPaid(ctx context.Context, penaltyID string, paidAt int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE penalties SET status = ?, paid_at = ? WHERE id = ? AND status = ?",
		string(models.PenaltyPaid), paidAt, penaltyID, string(models.PenaltyUnpaid),
	)
	if err != nil {
		return fmt.Errorf("failed to mark penalty paid: %w", err)
	}
	return expectOne(res, "mark penalty paid")
}
