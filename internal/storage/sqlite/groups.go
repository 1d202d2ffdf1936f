package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tontine/internal/models"
)

const groupColumns = `id, name, amount, currency, cadence, ordering_mode, order_seed, status,
	escrow_balance, current_round, invitation_code_hash, created_by, created_at`

// CreateGroup persists a new group and its admin member in one transaction.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group, admin *models.Member) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if group.Status == "" {
		group.Status = models.GroupActive
	}
	if admin.ID == "" {
		admin.ID = uuid.New().String()
	}
	admin.GroupID = group.ID
	if admin.InvitedAt == 0 {
		admin.InvitedAt = group.CreatedAt
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO groups (`+groupColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			group.ID, group.Name, group.Amount, group.Currency, string(group.Cadence),
			string(group.OrderingMode), int64(group.OrderSeed), string(group.Status),
			group.EscrowBalance, group.CurrentRound, group.InvitationCodeHash,
			group.CreatedBy, group.CreatedAt,
		)
		if err != nil {
			return mapConstraint(err, "insert group")
		}
		return insertMember(ctx, tx, admin)
	})
}

// GetGroup retrieves a group by ID, including its rotation order.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return getGroup(ctx, s.db, groupID)
}

func getGroup(ctx context.Context, q querier, groupID string) (*models.Group, error) {
	group := &models.Group{}
	var cadence, mode, status string
	var seed int64
	err := q.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE id = ?`,
		groupID,
	).Scan(&group.ID, &group.Name, &group.Amount, &group.Currency, &cadence, &mode, &seed,
		&status, &group.EscrowBalance, &group.CurrentRound, &group.InvitationCodeHash,
		&group.CreatedBy, &group.CreatedAt)
	if err != nil {
		return nil, notFound(err, "group", groupID)
	}
	group.Cadence = models.Cadence(cadence)
	group.OrderingMode = models.OrderingMode(mode)
	group.Status = models.GroupStatus(status)
	group.OrderSeed = uint64(seed)

	order, err := rotationOrder(ctx, q, groupID)
	if err != nil {
		return nil, err
	}
	group.RotationOrder = order

	return group, nil
}

func rotationOrder(ctx context.Context, q querier, groupID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT member_id FROM rotation_slots WHERE group_id = ? ORDER BY position",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get rotation order: %w", err)
	}
	defer rows.Close()

	var order []string
	for rows.Next() {
		var memberID string
		if err := rows.Scan(&memberID); err != nil {
			return nil, fmt.Errorf("failed to scan rotation slot: %w", err)
		}
		order = append(order, memberID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rotation slots: %w", err)
	}
	return order, nil
}

// UpdateGroupStatus moves a group from status from to status to.
func (s *SQLiteStore) UpdateGroupStatus(ctx context.Context, groupID string, from, to models.GroupStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE groups SET status = ? WHERE id = ? AND status = ?",
		string(to), groupID, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update group status: %w", err)
	}
	return expectOne(res, "update group status")
}

// SetRotationOrder replaces the rotation order while no round has opened.
func (s *SQLiteStore) SetRotationOrder(ctx context.Context, groupID string, mode models.OrderingMode, order []string, seed uint64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE groups SET ordering_mode = ?, order_seed = ? WHERE id = ? AND current_round = 0",
			string(mode), int64(seed), groupID,
		)
		if err != nil {
			return fmt.Errorf("failed to update ordering mode: %w", err)
		}
		if err := expectOne(res, "set rotation order"); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM rotation_slots WHERE group_id = ?", groupID); err != nil {
			return fmt.Errorf("failed to clear rotation order: %w", err)
		}
		for i, memberID := range order {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO rotation_slots (group_id, position, member_id) VALUES (?, ?, ?)",
				groupID, i+1, memberID,
			)
			if err != nil {
				return mapConstraint(err, "insert rotation slot")
			}
		}
		return nil
	})
}

// appendRotationSlot adds memberID after the last slot if the group has an
// order. Groups without an order are left alone.
func appendRotationSlot(ctx context.Context, tx *sql.Tx, groupID, memberID string) error {
	var count, last int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(MAX(position), 0) FROM rotation_slots WHERE group_id = ?",
		groupID,
	).Scan(&count, &last)
	if err != nil {
		return fmt.Errorf("failed to read rotation order: %w", err)
	}
	if count == 0 {
		return nil
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO rotation_slots (group_id, position, member_id) VALUES (?, ?, ?)",
		groupID, last+1, memberID,
	)
	return mapConstraint(err, "append rotation slot")
}

