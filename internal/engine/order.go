package engine

import (
	"context"
	"errors"
	"sort"

	"github.com/mmynk/tontine/internal/apperr"
	"github.com/mmynk/tontine/internal/models"
	"github.com/mmynk/tontine/internal/notify"
	"github.com/mmynk/tontine/internal/rotation"
	"github.com/mmynk/tontine/internal/storage"
)

// AssignOrder fixes the payout order of a group. Admin only.
//
// FIXED stores explicit verbatim after checking it is a permutation of the
// ACTIVE members. RANDOM shuffles the ACTIVE members with a fresh seed; a
// retried RANDOM call returns the order already persisted. The order may be
// replaced until round 1 opens.
func (e *Engine) AssignOrder(ctx context.Context, groupID string, mode models.OrderingMode, explicit []string) (group *models.Group, err error) {
	defer func() { e.observe("assign_order", err) }()

	if !mode.Valid() {
		return nil, apperr.Newf(apperr.CodeInvalidArgument, "unknown ordering mode %q", mode)
	}
	if mode == models.OrderRandom && len(explicit) > 0 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "RANDOM ordering takes no explicit order")
	}
	if _, err := e.requireAdmin(ctx, groupID); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "AssignOrder request received",
		"group_id", groupID,
		"mode", mode,
		"explicit_count", len(explicit),
	)

	err = e.withGroupLock(ctx, groupID, func() error {
		group, err = e.loadGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if group.Status == models.GroupClosed {
			return apperr.New(apperr.CodeGroupClosed, "group is closed")
		}
		if mode == models.OrderRandom && group.OrderingMode == models.OrderRandom && len(group.RotationOrder) > 0 {
			return errOrderReplayed
		}
		if group.OrderLocked() {
			return apperr.New(apperr.CodeOrderLocked, "rotation order is fixed once round 1 has opened")
		}

		active, err := e.activeMembers(ctx, groupID)
		if err != nil {
			return err
		}
		ids := memberIDs(active)

		var order []string
		var seed uint64
		switch mode {
		case models.OrderFixed:
			if err := rotation.ValidateFixed(explicit, ids); err != nil {
				return orderErr(err)
			}
			order = explicit
		case models.OrderRandom:
			if len(ids) == 0 {
				return apperr.New(apperr.CodeInvalidArgument, "group has no active members")
			}
			seed, err = rotation.NewSeed()
			if err != nil {
				return internal("failed to draw seed", err)
			}
			order = rotation.Shuffle(ids, seed)
		}

		if err := e.store.SetRotationOrder(ctx, groupID, mode, order, seed); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return apperr.Wrap(apperr.CodeOrderLocked, "rotation order is fixed once round 1 has opened", err)
			}
			return internal("failed to store rotation order", err)
		}
		group.OrderingMode = mode
		group.OrderSeed = seed
		group.RotationOrder = order
		return nil
	})
	if errors.Is(err, errOrderReplayed) {
		e.logger.InfoContext(ctx, "AssignOrder returned persisted order", "group_id", groupID)
		return group, nil
	}
	if err != nil {
		e.logFailure(ctx, "AssignOrder", err, "group_id", groupID)
		return nil, err
	}

	e.logger.InfoContext(ctx, "AssignOrder successful", "group_id", groupID, "mode", mode, "size", len(group.RotationOrder))
	e.emit(ctx, notify.Event{Type: notify.OrderAssigned, GroupID: groupID, Detail: string(mode)})
	return group, nil
}

var errOrderReplayed = errors.New("rotation order already persisted")

// activeMembers returns the ACTIVE members ordered by join time, then ID.
func (e *Engine) activeMembers(ctx context.Context, groupID string) ([]*models.Member, error) {
	all, err := e.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, internal("failed to list members", err)
	}
	active := make([]*models.Member, 0, len(all))
	for _, m := range all {
		if m.IsActive() {
			active = append(active, m)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].JoinedAt != active[j].JoinedAt {
			return active[i].JoinedAt < active[j].JoinedAt
		}
		return active[i].ID < active[j].ID
	})
	return active, nil
}

func memberIDs(members []*models.Member) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}

func orderErr(err error) error {
	var oe *rotation.OrderError
	var ids []string
	if errors.As(err, &oe) {
		ids = oe.MemberIDs
	}
	var code apperr.Code
	switch {
	case errors.Is(err, rotation.ErrDuplicate):
		code = apperr.CodeDuplicateOrderEntry
	case errors.Is(err, rotation.ErrUnknown):
		code = apperr.CodeUnknownOrderEntry
	case errors.Is(err, rotation.ErrIncomplete):
		code = apperr.CodeIncompleteOrder
	default:
		code = apperr.CodeInvalidArgument
	}
	ae := apperr.Wrap(code, "invalid rotation order", err)
	if len(ids) > 0 {
		ae = ae.WithDetail("member_ids", ids...)
	}
	return ae
}
