package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/tontine/internal/apperr"
	"github.com/mmynk/tontine/internal/metrics"
	"github.com/mmynk/tontine/internal/models"
	"github.com/mmynk/tontine/internal/notify"
	"github.com/mmynk/tontine/internal/storage"
)

// NewPenalty is the input of RaisePenalty.
type NewPenalty struct {
	GroupID  string
	MemberID string
	Reason   models.PenaltyReason
	Amount   int64
	Note     string
	// RoundSequence optionally names the round the penalty relates to.
	RoundSequence int
}

// SettleResult is the outcome of SettlePenalty.
type SettleResult struct {
	Penalty *models.Penalty
	// AlreadyPaid is true when the penalty had been settled before this
	// call; no money moved.
	AlreadyPaid   bool
	WalletBalance int64
}

// RaisePenalty records an UNPAID penalty against an ACTIVE member. Admin
// only. A LATE or ABSENCE penalty naming a round is accepted only once that
// round's deadline has passed.
func (e *Engine) RaisePenalty(ctx context.Context, in NewPenalty) (p *models.Penalty, err error) {
	defer func() { e.observe("raise_penalty", err) }()

	in.Note = strings.TrimSpace(in.Note)
	switch {
	case !in.Reason.Valid():
		return nil, apperr.Newf(apperr.CodeInvalidArgument, "unknown penalty reason %q", in.Reason)
	case in.Amount <= 0:
		return nil, apperr.New(apperr.CodeInvalidArgument, "amount must be positive")
	case in.RoundSequence < 0:
		return nil, apperr.New(apperr.CodeInvalidArgument, "round_sequence must not be negative")
	case in.MemberID == "":
		return nil, apperr.New(apperr.CodeInvalidArgument, "member_id is required")
	}
	admin, err := e.requireAdmin(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "RaisePenalty request received",
		"group_id", in.GroupID,
		"member_id", in.MemberID,
		"reason", in.Reason,
		"amount", in.Amount,
		"sequence", in.RoundSequence,
	)

	err = e.withGroupLock(ctx, in.GroupID, func() error {
		group, err := e.loadGroup(ctx, in.GroupID)
		if err != nil {
			return err
		}
		if group.Status == models.GroupClosed {
			return apperr.New(apperr.CodeGroupClosed, "group is closed")
		}
		member, err := e.store.GetMember(ctx, in.MemberID)
		if err != nil || member.GroupID != in.GroupID {
			if err == nil {
				err = storage.ErrNotFound
			}
			return storeErr(err, apperr.CodeMemberNotFound, "member "+in.MemberID)
		}
		if !member.IsActive() {
			return apperr.Newf(apperr.CodeMemberNotActive, "membership is %s", member.Status)
		}
		if in.RoundSequence > 0 {
			if err := e.checkPenaltyRound(ctx, group, in); err != nil {
				return err
			}
		}

		p = &models.Penalty{
			GroupID:       in.GroupID,
			MemberID:      in.MemberID,
			RoundSequence: in.RoundSequence,
			Amount:        in.Amount,
			Reason:        in.Reason,
			Note:          in.Note,
			Status:        models.PenaltyUnpaid,
			CreatedBy:     admin.UserID,
			CreatedAt:     e.now().Unix(),
		}
		if err := e.store.CreatePenalty(ctx, p); err != nil {
			return internal("failed to create penalty", err)
		}
		return nil
	})
	if err != nil {
		e.logFailure(ctx, "RaisePenalty", err, "group_id", in.GroupID, "member_id", in.MemberID)
		return nil, err
	}

	e.logger.InfoContext(ctx, "RaisePenalty successful", "penalty_id", p.ID)
	e.emit(ctx, notify.Event{
		Type:     notify.PenaltyRaised,
		GroupID:  p.GroupID,
		MemberID: p.MemberID,
		Amount:   p.Amount,
		Sequence: p.RoundSequence,
		Detail:   string(p.Reason),
	})
	return p, nil
}

func (e *Engine) checkPenaltyRound(ctx context.Context, group *models.Group, in NewPenalty) error {
	round, err := e.round(ctx, group, in.RoundSequence)
	if err != nil {
		return err
	}
	if in.Reason == models.PenaltyOther {
		return nil
	}
	var due int64
	for _, c := range round.Contributions {
		if c.MemberID == in.MemberID {
			due = c.DueAt
		}
	}
	if due == 0 {
		return apperr.Newf(apperr.CodeInvalidArgument, "member had no obligation in round %d", in.RoundSequence)
	}
	if e.now().Unix() < due {
		return apperr.Newf(apperr.CodeRoundNotDue, "round %d is not due yet", in.RoundSequence).
			WithDetail("due_at", fmt.Sprint(due))
	}
	return nil
}

// SettlePenalty debits the penalty amount from the member's wallet and
// marks it PAID. Settling a PAID penalty is a success with AlreadyPaid set.
// The member or the group admin may settle. No group lock is taken.
func (e *Engine) SettlePenalty(ctx context.Context, penaltyID string) (res *SettleResult, err error) {
	defer func() {
		if res != nil && res.AlreadyPaid {
			e.metrics.Operation("settle_penalty", metrics.OutcomeReplay)
			return
		}
		e.observe("settle_penalty", err)
	}()

	if penaltyID == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "penalty_id is required")
	}
	p, err := e.store.GetPenalty(ctx, penaltyID)
	if err != nil {
		return nil, storeErr(err, apperr.CodePenaltyNotFound, "penalty "+penaltyID)
	}
	member, err := e.store.GetMember(ctx, p.MemberID)
	if err != nil {
		return nil, storeErr(err, apperr.CodeMemberNotFound, "member "+p.MemberID)
	}
	if err := e.requireSelfOrAdmin(ctx, member); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "SettlePenalty request received",
		"penalty_id", penaltyID,
		"member_id", p.MemberID,
		"amount", p.Amount,
	)

	if p.IsPaid() {
		return &SettleResult{Penalty: p, AlreadyPaid: true}, nil
	}

	balance, err := e.debit(ctx, member.WalletID, p.Amount, PenaltyKey(p.ID),
		fmt.Sprintf("Penalty (%s)", strings.ToLower(string(p.Reason))))
	if err != nil {
		e.logFailure(ctx, "SettlePenalty", err, "penalty_id", penaltyID)
		return nil, err
	}

	now := e.now().Unix()
	if err := e.store.MarkPenaltyPaid(ctx, p.ID, now); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// Settled concurrently; the wallet replayed the same debit.
			current, gerr := e.store.GetPenalty(ctx, p.ID)
			if gerr != nil {
				return nil, storeErr(gerr, apperr.CodePenaltyNotFound, "penalty "+p.ID)
			}
			return &SettleResult{Penalty: current, AlreadyPaid: true, WalletBalance: balance}, nil
		}
		err = internal("failed to mark penalty paid", err)
		e.logFailure(ctx, "SettlePenalty", err, "penalty_id", penaltyID)
		return nil, err
	}
	p.Status = models.PenaltyPaid
	p.PaidAt = now

	e.logger.InfoContext(ctx, "SettlePenalty successful", "penalty_id", p.ID, "balance", balance)
	e.emit(ctx, notify.Event{
		Type:     notify.PenaltySettled,
		GroupID:  p.GroupID,
		MemberID: p.MemberID,
		Amount:   p.Amount,
		Sequence: p.RoundSequence,
	})
	return &SettleResult{Penalty: p, WalletBalance: balance}, nil
}

// PenaltyKey is the wallet idempotency key of a penalty debit.
func PenaltyKey(penaltyID string) string {
	return "penalty:" + penaltyID
}
