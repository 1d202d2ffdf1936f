package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tontine/internal/models"
)

const memberColumns = "id, group_id, user_id, wallet_id, role, status, invited_at, joined_at"

func insertMember(ctx context.Context, q querier, member *models.Member) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO members (`+memberColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		member.ID, member.GroupID, member.UserID, member.WalletID,
		string(member.Role), string(member.Status), member.InvitedAt, member.JoinedAt,
	)
	return mapConstraint(err, "insert member")
}

func scanMember(row interface{ Scan(...any) error }) (*models.Member, error) {
	member := &models.Member{}
	var role, status string
	if err := row.Scan(&member.ID, &member.GroupID, &member.UserID, &member.WalletID,
		&role, &status, &member.InvitedAt, &member.JoinedAt); err != nil {
		return nil, err
	}
	member.Role = models.Role(role)
	member.Status = models.MemberStatus(status)
	return member, nil
}

// CreateMember persists a new membership.
func (s *SQLiteStore) CreateMember(ctx context.Context, member *models.Member) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.InvitedAt == 0 {
		member.InvitedAt = time.Now().Unix()
	}
	if member.Status == "" {
		member.Status = models.MemberPending
	}
	if member.Role == "" {
		member.Role = models.RoleMember
	}
	return insertMember(ctx, s.db, member)
}

// GetMember retrieves a membership by ID.
func (s *SQLiteStore) GetMember(ctx context.Context, memberID string) (*models.Member, error) {
	member, err := scanMember(s.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = ?`,
		memberID,
	))
	if err != nil {
		return nil, notFound(err, "member", memberID)
	}
	return member, nil
}

// GetMemberByUser retrieves the live (non-rejected) membership of a user.
func (s *SQLiteStore) GetMemberByUser(ctx context.Context, groupID, userID string) (*models.Member, error) {
	member, err := scanMember(s.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE group_id = ? AND user_id = ? AND status != ?`,
		groupID, userID, string(models.MemberRejected),
	))
	if err != nil {
		return nil, notFound(err, "member", userID)
	}
	return member, nil
}

// ListMembers retrieves all memberships of a group in invitation order.
func (s *SQLiteStore) ListMembers(ctx context.Context, groupID string) ([]*models.Member, error) {
	return listMembers(ctx, s.db, groupID)
}

func listMembers(ctx context.Context, q querier, groupID string) ([]*models.Member, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE group_id = ? ORDER BY invited_at, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// ActivateMember moves a PENDING membership to ACTIVE and appends it to the
// rotation order when one exists.
func (s *SQLiteStore) ActivateMember(ctx context.Context, memberID string, joinedAt int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var groupID string
		err := tx.QueryRowContext(ctx, "SELECT group_id FROM members WHERE id = ?", memberID).Scan(&groupID)
		if err != nil {
			return notFound(err, "member", memberID)
		}

		res, err := tx.ExecContext(ctx,
			"UPDATE members SET status = ?, joined_at = ? WHERE id = ? AND status = ?",
			string(models.MemberActive), joinedAt, memberID, string(models.MemberPending),
		)
		if err != nil {
			return fmt.Errorf("failed to activate member: %w", err)
		}
		if err := expectOne(res, "activate member"); err != nil {
			return err
		}

		return appendRotationSlot(ctx, tx, groupID, memberID)
	})
}

// RejectMember moves a PENDING membership to REJECTED.
func (s *SQLiteStore) RejectMember(ctx context.Context, memberID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE members SET status = ? WHERE id = ? AND status = ?",
		string(models.MemberRejected), memberID, string(models.MemberPending),
	)
	if err != nil {
		return fmt.Errorf("failed to reject member: %w", err)
	}
	return expectOne(res, "reject member")
}
