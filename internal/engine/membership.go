package engine

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/mmynk/tontine/internal/apperr"
	"github.com/mmynk/tontine/internal/auth"
	"github.com/mmynk/tontine/internal/fees"
	"github.com/mmynk/tontine/internal/models"
	"github.com/mmynk/tontine/internal/notify"
	"github.com/mmynk/tontine/internal/storage"
)

// NewGroup is the input of CreateGroup.
type NewGroup struct {
	Name     string
	Amount   int64
	Currency string
	Cadence  models.Cadence
	// AdminWalletID is the wallet of the creating admin.
	AdminWalletID string
}

// CreatedGroup is the result of CreateGroup. InvitationCode is only ever
// returned here; the group stores its hash.
type CreatedGroup struct {
	Group          *models.Group
	Admin          *models.Member
	InvitationCode string
}

// Decision is an invitee's answer to an invitation.
type Decision string

const (
	DecisionJoin   Decision = "JOIN"
	DecisionReject Decision = "REJECT"
)

// CreateGroup creates an ACTIVE group administered by the caller.
func (e *Engine) CreateGroup(ctx context.Context, in NewGroup) (res *CreatedGroup, err error) {
	defer func() { e.observe("create_group", err) }()

	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	switch {
	case in.Name == "":
		return nil, apperr.New(apperr.CodeInvalidArgument, "name is required")
	case in.Amount <= 0:
		return nil, apperr.New(apperr.CodeInvalidArgument, "amount must be positive")
	case in.Amount > fees.MaxAmount:
		return nil, apperr.Newf(apperr.CodeInvalidArgument, "amount must not exceed %d", fees.MaxAmount).
			WithDetail("max_amount", strconv.FormatInt(fees.MaxAmount, 10))
	case in.Currency == "":
		return nil, apperr.New(apperr.CodeInvalidArgument, "currency is required")
	case !in.Cadence.Valid():
		return nil, apperr.Newf(apperr.CodeInvalidArgument, "unknown cadence %q", in.Cadence)
	case in.AdminWalletID == "":
		return nil, apperr.New(apperr.CodeInvalidArgument, "admin wallet_id is required")
	}

	e.logger.InfoContext(ctx, "CreateGroup request received",
		"name", in.Name,
		"amount", in.Amount,
		"currency", in.Currency,
		"cadence", in.Cadence,
	)

	code, hash, err := auth.GenerateInvitationCode()
	if err != nil {
		return nil, internal("failed to generate invitation code", err)
	}

	now := e.now().Unix()
	group := &models.Group{
		Name:               in.Name,
		Amount:             in.Amount,
		Currency:           in.Currency,
		Cadence:            in.Cadence,
		Status:             models.GroupActive,
		InvitationCodeHash: hash,
		CreatedBy:          userID,
		CreatedAt:          now,
	}
	admin := &models.Member{
		UserID:    userID,
		WalletID:  in.AdminWalletID,
		Role:      models.RoleAdmin,
		Status:    models.MemberActive,
		InvitedAt: now,
		JoinedAt:  now,
	}
	if err := e.store.CreateGroup(ctx, group, admin); err != nil {
		err = internal("failed to create group", err)
		e.logFailure(ctx, "CreateGroup", err)
		return nil, err
	}

	e.logger.InfoContext(ctx, "Group created", "group_id", group.ID, "admin_member_id", admin.ID)
	e.emit(ctx, notify.Event{Type: notify.GroupCreated, GroupID: group.ID, MemberID: admin.ID})

	return &CreatedGroup{Group: group, Admin: admin, InvitationCode: code}, nil
}

// Invite creates a PENDING membership for userID. Admin only.
func (e *Engine) Invite(ctx context.Context, groupID, userID, walletID string) (member *models.Member, err error) {
	defer func() { e.observe("invite", err) }()

	if userID == "" || walletID == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "user_id and wallet_id are required")
	}
	if _, err := e.requireAdmin(ctx, groupID); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "Invite request received", "group_id", groupID, "user_id", userID)

	err = e.withGroupLock(ctx, groupID, func() error {
		group, err := e.loadGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if group.Status == models.GroupClosed {
			return apperr.New(apperr.CodeGroupClosed, "group is closed")
		}

		_, err = e.store.GetMemberByUser(ctx, groupID, userID)
		switch {
		case err == nil:
			return apperr.New(apperr.CodeDuplicateMember, "user is already invited or a member").
				WithDetail("user_id", userID)
		case !errors.Is(err, storage.ErrNotFound):
			return internal("failed to look up membership", err)
		}

		member = &models.Member{
			GroupID:   groupID,
			UserID:    userID,
			WalletID:  walletID,
			Role:      models.RoleMember,
			Status:    models.MemberPending,
			InvitedAt: e.now().Unix(),
		}
		if err := e.store.CreateMember(ctx, member); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return apperr.Wrap(apperr.CodeDuplicateMember, "user is already invited or a member", err)
			}
			return internal("failed to create member", err)
		}
		return nil
	})
	if err != nil {
		e.logFailure(ctx, "Invite", err, "group_id", groupID, "user_id", userID)
		return nil, err
	}

	e.logger.InfoContext(ctx, "Invite successful", "group_id", groupID, "member_id", member.ID)
	e.emit(ctx, notify.Event{Type: notify.MemberInvited, GroupID: groupID, MemberID: member.ID})
	return member, nil
}

// RespondToInvite applies the invitee's decision. Only the invited user may
// answer. JOIN requires the group's invitation code.
func (e *Engine) RespondToInvite(ctx context.Context, memberID string, decision Decision, invitationCode string) (member *models.Member, err error) {
	defer func() { e.observe("respond_to_invite", err) }()

	if decision != DecisionJoin && decision != DecisionReject {
		return nil, apperr.Newf(apperr.CodeInvalidArgument, "unknown decision %q", decision)
	}
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	member, err = e.store.GetMember(ctx, memberID)
	if err != nil {
		return nil, storeErr(err, apperr.CodeMemberNotFound, "member "+memberID)
	}
	if member.UserID != userID {
		return nil, apperr.New(apperr.CodeNotAuthorized, "only the invited user can respond")
	}

	e.logger.InfoContext(ctx, "RespondToInvite request received",
		"group_id", member.GroupID,
		"member_id", memberID,
		"decision", decision,
	)

	err = e.withGroupLock(ctx, member.GroupID, func() error {
		group, err := e.loadGroup(ctx, member.GroupID)
		if err != nil {
			return err
		}
		current, err := e.store.GetMember(ctx, memberID)
		if err != nil {
			return storeErr(err, apperr.CodeMemberNotFound, "member "+memberID)
		}
		if current.Status != models.MemberPending {
			return apperr.Newf(apperr.CodeMemberNotPending, "membership is %s", current.Status)
		}

		if decision == DecisionReject {
			if err := e.store.RejectMember(ctx, memberID); err != nil {
				return pendingConflict(err)
			}
			return nil
		}

		if group.Status == models.GroupClosed {
			return apperr.New(apperr.CodeGroupClosed, "group is closed")
		}
		if err := auth.VerifyInvitationCode(group.InvitationCodeHash, invitationCode); err != nil {
			return apperr.Wrap(apperr.CodeInvalidInvitation, "invitation code does not match", err)
		}
		if err := e.store.ActivateMember(ctx, memberID, e.now().Unix()); err != nil {
			return pendingConflict(err)
		}
		return nil
	})
	if err != nil {
		e.logFailure(ctx, "RespondToInvite", err, "member_id", memberID)
		return nil, err
	}

	member, err = e.store.GetMember(ctx, memberID)
	if err != nil {
		return nil, storeErr(err, apperr.CodeMemberNotFound, "member "+memberID)
	}

	typ := notify.MemberJoined
	if decision == DecisionReject {
		typ = notify.MemberRejected
	}
	e.logger.InfoContext(ctx, "RespondToInvite successful", "member_id", memberID, "status", member.Status)
	e.emit(ctx, notify.Event{Type: typ, GroupID: member.GroupID, MemberID: memberID})
	return member, nil
}

func pendingConflict(err error) error {
	if errors.Is(err, storage.ErrConflict) {
		return apperr.Wrap(apperr.CodeMemberNotPending, "membership is no longer pending", err)
	}
	return internal("failed to update membership", err)
}

// ChangeGroupStatus moves the group to status. Admin only. CLOSED is
// terminal.
func (e *Engine) ChangeGroupStatus(ctx context.Context, groupID string, status models.GroupStatus) (group *models.Group, err error) {
	defer func() { e.observe("change_group_status", err) }()

	if !status.Valid() {
		return nil, apperr.Newf(apperr.CodeInvalidArgument, "unknown group status %q", status)
	}
	if _, err := e.requireAdmin(ctx, groupID); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "ChangeGroupStatus request received", "group_id", groupID, "status", status)

	err = e.withGroupLock(ctx, groupID, func() error {
		group, err = e.loadGroup(ctx, groupID)
		if err != nil {
			return err
		}
		switch {
		case group.Status == models.GroupClosed:
			return apperr.New(apperr.CodeGroupClosed, "group is closed")
		case group.Status == status:
			return apperr.Newf(apperr.CodeAlreadyInState, "group is already %s", status)
		}
		if err := e.store.UpdateGroupStatus(ctx, groupID, group.Status, status); err != nil {
			return internal("failed to update group status", err)
		}
		group.Status = status
		return nil
	})
	if err != nil {
		e.logFailure(ctx, "ChangeGroupStatus", err, "group_id", groupID)
		return nil, err
	}

	e.logger.InfoContext(ctx, "ChangeGroupStatus successful", "group_id", groupID, "status", status)
	e.emit(ctx, notify.Event{Type: notify.GroupStatusChanged, GroupID: groupID, Detail: string(status)})
	return group, nil
}
