package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/tontine/internal/apperr"
	"github.com/mmynk/tontine/internal/fees"
	"github.com/mmynk/tontine/internal/metrics"
	"github.com/mmynk/tontine/internal/models"
	"github.com/mmynk/tontine/internal/notify"
	"github.com/mmynk/tontine/internal/storage"
)

// Round is the state of one round sequence of a group.
type Round struct {
	GroupID       string
	Sequence      int
	BeneficiaryID string
	Currency      string
	DueAt         int64
	Contributions []*models.ContributionRound
	// Outstanding lists members whose contribution is not yet VALIDATED.
	Outstanding []string
	Complete    bool
	// Distribution is set once the round has been paid out.
	Distribution *models.Distribution
}

// PaymentResult is the outcome of RecordPayment.
type PaymentResult struct {
	Contribution *models.ContributionRound
	// AlreadyValidated is true when the contribution had been paid before
	// this call; no money moved.
	AlreadyValidated bool
	// Charged is amount plus transaction fee debited by this call.
	Charged int64
	// WalletBalance is the member's balance after the debit.
	WalletBalance int64
}

func newRound(group *models.Group, seq int, rows []*models.ContributionRound) *Round {
	r := &Round{
		GroupID:       group.ID,
		Sequence:      seq,
		Currency:      group.Currency,
		Contributions: rows,
		Outstanding:   []string{},
	}
	r.BeneficiaryID, _ = group.Beneficiary(seq)
	for _, c := range rows {
		if c.DueAt > r.DueAt {
			r.DueAt = c.DueAt
		}
		if !c.IsValidated() {
			r.Outstanding = append(r.Outstanding, c.MemberID)
		}
	}
	r.Complete = len(rows) > 0 && len(r.Outstanding) == 0
	return r
}

// roundRows builds the obligations of round seq for the current ACTIVE
// members.
func (e *Engine) roundRows(ctx context.Context, group *models.Group) ([]*models.ContributionRound, error) {
	active, err := e.activeMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	due, err := group.Cadence.NextDue(e.now())
	if err != nil {
		return nil, internal("failed to compute deadline", err)
	}
	rows := make([]*models.ContributionRound, 0, len(active))
	for _, m := range active {
		rows = append(rows, &models.ContributionRound{
			GroupID:  group.ID,
			MemberID: m.ID,
			Amount:   group.Amount,
			Status:   models.ContributionUnvalidated,
			DueAt:    due.Unix(),
		})
	}
	return rows, nil
}

// OpenRound opens the next round of a group: one UNVALIDATED obligation per
// ACTIVE member. Admin only. Rounds after the first are opened by Distribute.
func (e *Engine) OpenRound(ctx context.Context, groupID string) (round *Round, err error) {
	defer func() { e.observe("open_round", err) }()

	if _, err := e.requireAdmin(ctx, groupID); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "OpenRound request received", "group_id", groupID)

	err = e.withGroupLock(ctx, groupID, func() error {
		group, err := e.loadGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if group.Status != models.GroupActive {
			return apperr.Newf(apperr.CodeGroupNotActive, "group is %s", group.Status)
		}
		if len(group.RotationOrder) == 0 {
			return apperr.New(apperr.CodeOrderNotAssigned, "assign a rotation order first")
		}
		if group.CurrentRound > 0 {
			_, err := e.store.GetDistribution(ctx, groupID, group.CurrentRound)
			if errors.Is(err, storage.ErrNotFound) {
				return apperr.Newf(apperr.CodeRoundAlreadyOpen, "round %d is still open", group.CurrentRound)
			}
			if err != nil {
				return internal("failed to read distribution", err)
			}
		}

		rows, err := e.roundRows(ctx, group)
		if err != nil {
			return err
		}
		seq := group.CurrentRound + 1
		if err := e.store.OpenRound(ctx, groupID, seq, rows); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return apperr.Wrap(apperr.CodeRoundAlreadyOpen, "round already opened", err)
			}
			return internal("failed to open round", err)
		}
		group.CurrentRound = seq
		round = newRound(group, seq, rows)
		return nil
	})
	if err != nil {
		e.logFailure(ctx, "OpenRound", err, "group_id", groupID)
		return nil, err
	}

	e.logger.InfoContext(ctx, "OpenRound successful",
		"group_id", groupID,
		"sequence", round.Sequence,
		"obligations", len(round.Contributions),
	)
	e.emit(ctx, notify.Event{Type: notify.RoundOpened, GroupID: groupID, Sequence: round.Sequence})
	return round, nil
}

// RecordPayment pays one contribution from the member's wallet: it debits
// amount plus transaction fee, then marks the obligation VALIDATED and
// credits escrow by amount. Paying an already VALIDATED obligation is a
// success with AlreadyValidated set and no debit.
//
// The debit runs outside the group lock so members of one round can pay
// concurrently. The wallet idempotency key is derived from the contribution
// and the fee is quoted once per key, so a retried call replays the same
// debit even after the fee rates change.
func (e *Engine) RecordPayment(ctx context.Context, contributionID, memberID string) (res *PaymentResult, err error) {
	defer func() {
		if res != nil && res.AlreadyValidated {
			e.metrics.Operation("record_payment", metrics.OutcomeReplay)
			return
		}
		e.observe("record_payment", err)
	}()

	if contributionID == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "round_id is required")
	}
	c, err := e.store.GetContribution(ctx, contributionID)
	if err != nil {
		return nil, storeErr(err, apperr.CodeRoundNotFound, "contribution "+contributionID)
	}
	if memberID != "" && memberID != c.MemberID {
		return nil, apperr.New(apperr.CodeInvalidArgument, "contribution belongs to another member")
	}
	member, err := e.store.GetMember(ctx, c.MemberID)
	if err != nil {
		return nil, storeErr(err, apperr.CodeMemberNotFound, "member "+c.MemberID)
	}
	if err := e.requireSelfOrAdmin(ctx, member); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "RecordPayment request received",
		"group_id", c.GroupID,
		"member_id", c.MemberID,
		"sequence", c.Sequence,
		"amount", c.Amount,
	)

	if c.IsValidated() {
		return &PaymentResult{Contribution: c, AlreadyValidated: true}, nil
	}

	group, err := e.loadGroup(ctx, c.GroupID)
	if err != nil {
		return nil, err
	}
	if group.Status != models.GroupActive {
		return nil, apperr.Newf(apperr.CodeGroupNotActive, "group is %s", group.Status)
	}
	if c.Sequence != group.CurrentRound {
		return nil, apperr.Newf(apperr.CodeRoundNotOpen, "round %d is not the open round", c.Sequence)
	}

	sched, err := e.rates(ctx)
	if err != nil {
		return nil, err
	}
	fee, err := fees.TransactionFee(c.Amount, sched.Transaction)
	if err != nil {
		return nil, internal("failed to compute transaction fee", err)
	}
	key := ContributionKey(c.ID)
	if fee, err = e.quote(ctx, key, fee); err != nil {
		return nil, err
	}
	charged := c.Amount + fee

	balance, err := e.debit(ctx, member.WalletID, charged, key,
		fmt.Sprintf("Contribution round %d (%s)", c.Sequence, fees.Format(c.Amount, group.Currency)))
	if err != nil {
		e.logFailure(ctx, "RecordPayment", err, "group_id", c.GroupID, "member_id", c.MemberID)
		return nil, err
	}

	res = &PaymentResult{Charged: charged, WalletBalance: balance}
	var escrow int64
	err = e.withGroupLock(ctx, c.GroupID, func() error {
		current, err := e.store.GetContribution(ctx, c.ID)
		if err != nil {
			return storeErr(err, apperr.CodeRoundNotFound, "contribution "+c.ID)
		}
		if current.IsValidated() {
			// A concurrent call with the same key committed first; the
			// wallet replayed our debit.
			res.AlreadyValidated = true
			res.Contribution = current
			return nil
		}
		group, err := e.loadGroup(ctx, c.GroupID)
		if err != nil {
			return err
		}
		if group.Status == models.GroupClosed {
			return errGroupClosedAfterDebit
		}

		now := e.now().Unix()
		if err := e.store.ValidateContribution(ctx, c.ID, fee, now); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				res.AlreadyValidated = true
				current.Status = models.ContributionValidated
				res.Contribution = current
				return nil
			}
			return internal("failed to validate contribution", err)
		}
		current.Status = models.ContributionValidated
		current.FeeAmount = fee
		current.PaidAt = now
		res.Contribution = current
		escrow = group.EscrowBalance + current.Amount
		return nil
	})
	if errors.Is(err, errGroupClosedAfterDebit) {
		err = e.refund(ctx, member.WalletID, c, charged)
	}
	if err != nil {
		e.logFailure(ctx, "RecordPayment", err, "group_id", c.GroupID, "member_id", c.MemberID)
		return nil, err
	}
	if res.AlreadyValidated {
		res.Charged = 0
		return res, nil
	}

	e.metrics.Escrow(c.GroupID, escrow)
	e.logger.InfoContext(ctx, "RecordPayment successful",
		"group_id", c.GroupID,
		"member_id", c.MemberID,
		"sequence", c.Sequence,
		"charged", charged,
		"escrow", escrow,
	)
	e.emit(ctx, notify.Event{
		Type:     notify.PaymentRecorded,
		GroupID:  c.GroupID,
		MemberID: c.MemberID,
		Amount:   c.Amount,
		Sequence: c.Sequence,
	})
	return res, nil
}

var errGroupClosedAfterDebit = errors.New("group closed while the debit was in flight")

// refund returns a debit whose contribution can no longer be recorded.
// CLOSED is terminal, so the contribution key is never replayed afterwards.
func (e *Engine) refund(ctx context.Context, walletID string, c *models.ContributionRound, charged int64) error {
	if err := e.credit(ctx, walletID, charged, RefundKey(c.ID), "Refund: group closed"); err != nil {
		return err
	}
	e.emit(ctx, notify.Event{
		Type:     notify.PaymentRefunded,
		GroupID:  c.GroupID,
		MemberID: c.MemberID,
		Amount:   charged,
		Sequence: c.Sequence,
	})
	return apperr.New(apperr.CodeGroupNotActive, "group was closed before the payment could be recorded; the debit was refunded")
}

// IsRoundComplete reports whether every obligation of round seq is
// VALIDATED. seq 0 means the group's current round.
func (e *Engine) IsRoundComplete(ctx context.Context, groupID string, seq int) (bool, error) {
	round, err := e.RoundStatus(ctx, groupID, seq)
	if err != nil {
		return false, err
	}
	return round.Complete, nil
}

// RoundStatus returns round seq of a group with its outstanding members.
// seq 0 means the group's current round. Any live member may read it.
func (e *Engine) RoundStatus(ctx context.Context, groupID string, seq int) (*Round, error) {
	if _, err := e.requireMember(ctx, groupID); err != nil {
		return nil, err
	}
	group, err := e.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return e.round(ctx, group, seq)
}

func (e *Engine) round(ctx context.Context, group *models.Group, seq int) (*Round, error) {
	if seq == 0 {
		seq = group.CurrentRound
	}
	if seq <= 0 || seq > group.CurrentRound {
		return nil, apperr.Newf(apperr.CodeRoundNotFound, "round %d does not exist", seq)
	}
	rows, err := e.store.ListContributions(ctx, group.ID, seq)
	if err != nil {
		return nil, internal("failed to list contributions", err)
	}
	round := newRound(group, seq, rows)

	d, err := e.store.GetDistribution(ctx, group.ID, seq)
	switch {
	case err == nil:
		round.Distribution = d
	case !errors.Is(err, storage.ErrNotFound):
		return nil, internal("failed to read distribution", err)
	}
	return round, nil
}

// ContributionKey is the wallet idempotency key of a contribution debit.
func ContributionKey(contributionID string) string {
	return "contribution:" + contributionID
}

// RefundKey is the wallet idempotency key of a contribution refund.
func RefundKey(contributionID string) string {
	return "refund:contribution:" + contributionID
}
