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

// DistributionResult is the outcome of Distribute.
type DistributionResult struct {
	Distribution *models.Distribution
	Currency     string
	// AlreadyRecorded is true when the round had been distributed before
	// this call; no money moved.
	AlreadyRecorded bool
	// NextRound is the round opened by this distribution.
	NextRound *Round
}

// Distribute pays out round seq of a group (0 means the current round) to
// its beneficiary and opens the next round. Admin only.
//
// The whole operation holds the group lock. The beneficiary's wallet is
// credited with gross minus distribution fee first; only then are the
// distribution row, the emptied escrow and the next round committed in one
// transaction. A failed credit leaves the group untouched. Distributing a
// round that already has a distribution returns it with AlreadyRecorded set.
func (e *Engine) Distribute(ctx context.Context, groupID string, seq int) (res *DistributionResult, err error) {
	defer func() {
		if res != nil && res.AlreadyRecorded {
			e.metrics.Operation("distribute", metrics.OutcomeReplay)
			return
		}
		e.observe("distribute", err)
	}()

	if seq < 0 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "sequence must not be negative")
	}
	if _, err := e.requireAdmin(ctx, groupID); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "Distribute request received", "group_id", groupID, "sequence", seq)

	err = e.withGroupLock(ctx, groupID, func() error {
		res, err = e.distributeLocked(ctx, groupID, seq)
		return err
	})
	if err != nil {
		e.logFailure(ctx, "Distribute", err, "group_id", groupID, "sequence", seq)
		return nil, err
	}
	if res.AlreadyRecorded {
		e.logger.InfoContext(ctx, "Distribute already recorded",
			"group_id", groupID,
			"sequence", res.Distribution.Sequence,
		)
		return res, nil
	}

	d := res.Distribution
	e.metrics.Escrow(groupID, 0)
	e.logger.InfoContext(ctx, "Distribute successful",
		"group_id", groupID,
		"sequence", d.Sequence,
		"beneficiary_id", d.BeneficiaryID,
		"gross", d.Gross,
		"fee", d.Fee,
		"net", d.Net,
	)
	e.emit(ctx, notify.Event{
		Type:     notify.DistributionCompleted,
		GroupID:  groupID,
		MemberID: d.BeneficiaryID,
		Amount:   d.Net,
		Sequence: d.Sequence,
	})
	e.emit(ctx, notify.Event{Type: notify.RoundOpened, GroupID: groupID, Sequence: res.NextRound.Sequence})
	return res, nil
}

func (e *Engine) distributeLocked(ctx context.Context, groupID string, seq int) (*DistributionResult, error) {
	group, err := e.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if seq == 0 {
		seq = group.CurrentRound
	}
	if seq == 0 {
		return nil, apperr.New(apperr.CodeRoundNotOpen, "no round has been opened")
	}

	existing, err := e.store.GetDistribution(ctx, groupID, seq)
	switch {
	case err == nil:
		return &DistributionResult{Distribution: existing, Currency: group.Currency, AlreadyRecorded: true}, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, internal("failed to read distribution", err)
	}
	if seq != group.CurrentRound {
		return nil, apperr.Newf(apperr.CodeRoundNotOpen, "round %d is not the open round", seq)
	}
	if group.Status != models.GroupActive {
		return nil, apperr.Newf(apperr.CodeGroupNotActive, "group is %s", group.Status)
	}

	round, err := e.round(ctx, group, seq)
	if err != nil {
		return nil, err
	}
	if !round.Complete {
		return nil, apperr.Newf(apperr.CodeRoundIncomplete, "%d contributions outstanding", len(round.Outstanding)).
			WithDetail("outstanding_member_ids", round.Outstanding...)
	}

	var pooled int64
	for _, c := range round.Contributions {
		pooled += c.Amount
	}
	gross := group.EscrowBalance
	if gross != pooled {
		return nil, internal("escrow does not match validated contributions",
			fmt.Errorf("escrow %d, validated %d", gross, pooled))
	}

	beneficiaryID, ok := group.Beneficiary(seq)
	if !ok {
		return nil, apperr.New(apperr.CodeOrderNotAssigned, "group has no rotation order")
	}
	beneficiary, err := e.store.GetMember(ctx, beneficiaryID)
	if err != nil {
		return nil, storeErr(err, apperr.CodeMemberNotFound, "beneficiary "+beneficiaryID)
	}

	sched, err := e.rates(ctx)
	if err != nil {
		return nil, err
	}
	fee, _, err := fees.SplitDistribution(gross, sched.Distribution)
	if err != nil {
		return nil, internal("failed to compute distribution fee", err)
	}
	key := DistributionKey(groupID, seq)
	if fee, err = e.quote(ctx, key, fee); err != nil {
		return nil, err
	}
	net := gross - fee

	if net > 0 {
		err := e.credit(ctx, beneficiary.WalletID, net, key,
			fmt.Sprintf("Tontine payout round %d (%s)", seq, fees.Format(net, group.Currency)))
		if err != nil {
			return nil, err
		}
	}

	next, err := e.roundRows(ctx, group)
	if err != nil {
		return nil, err
	}
	d := &models.Distribution{
		GroupID:       groupID,
		Sequence:      seq,
		BeneficiaryID: beneficiaryID,
		Gross:         gross,
		Fee:           fee,
		Net:           net,
		CreatedAt:     e.now().Unix(),
	}
	if err := e.store.RecordDistribution(ctx, d, next); err != nil {
		// The credit is keyed by group and sequence and its fee is quoted,
		// so a retry after this failure replays the same credit.
		if errors.Is(err, storage.ErrConflict) {
			if existing, gerr := e.store.GetDistribution(ctx, groupID, seq); gerr == nil {
				return &DistributionResult{Distribution: existing, Currency: group.Currency, AlreadyRecorded: true}, nil
			}
		}
		return nil, internal("failed to record distribution", err)
	}

	group.CurrentRound = seq + 1
	group.EscrowBalance = 0
	return &DistributionResult{Distribution: d, Currency: group.Currency, NextRound: newRound(group, seq+1, next)}, nil
}

// DistributionKey is the wallet idempotency key of a round payout.
func DistributionKey(groupID string, seq int) string {
	return fmt.Sprintf("distribution:%s:%d", groupID, seq)
}
