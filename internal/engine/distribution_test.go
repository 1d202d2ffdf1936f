package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tontine/internal/apperr"
	"github.com/mmynk/tontine/internal/models"
	"github.com/mmynk/tontine/internal/notify"
)

func TestDistributeFullRound(t *testing.T) {
	h := newHarness(t)
	group, _, members := h.setupGroup(1000, "alice", "bob")
	round := h.startRound(group.ID, members)
	for _, m := range members {
		h.pay(round, m)
	}
	require.Equal(t, int64(3000), h.group(group.ID).EscrowBalance)

	res, err := h.engine.Distribute(as("admin"), group.ID, 0)
	require.NoError(t, err)
	assert.False(t, res.AlreadyRecorded)

	d := res.Distribution
	assert.Equal(t, 1, d.Sequence)
	assert.Equal(t, members[0].ID, d.BeneficiaryID)
	assert.Equal(t, int64(3000), d.Gross)
	assert.Equal(t, int64(300), d.Fee)
	assert.Equal(t, int64(2700), d.Net)
	assert.Equal(t, d.Gross, d.Fee+d.Net)

	g := h.group(group.ID)
	assert.Equal(t, 2, g.CurrentRound)
	assert.Zero(t, g.EscrowBalance)
	assert.Equal(t, int64(startingBalance-1010+2700), h.balance("admin"))

	require.NotNil(t, res.NextRound)
	assert.Equal(t, 2, res.NextRound.Sequence)
	assert.Equal(t, members[1].ID, res.NextRound.BeneficiaryID)
	assert.Len(t, res.NextRound.Contributions, 3)

	t.Run("retry returns the recorded distribution", func(t *testing.T) {
		again, err := h.engine.Distribute(as("admin"), group.ID, 1)
		require.NoError(t, err)
		assert.True(t, again.AlreadyRecorded)
		assert.Equal(t, d.ID, again.Distribution.ID)
		assert.Equal(t, int64(startingBalance-1010+2700), h.balance("admin"))

		entries, err := h.ledger.Entries(context.Background(), walletOf("admin"))
		require.NoError(t, err)
		credits := 0
		for _, e := range entries {
			if e.Key == DistributionKey(group.ID, 1) {
				credits++
			}
		}
		assert.Equal(t, 1, credits)
	})

	t.Run("next round cannot be distributed yet", func(t *testing.T) {
		_, err := h.engine.Distribute(as("admin"), group.ID, 0)
		ae := requireCode(t, err, apperr.CodeRoundIncomplete)
		assert.Len(t, ae.Details["outstanding_member_ids"], 3)
	})

	t.Run("history", func(t *testing.T) {
		list, err := h.engine.ListDistributions(as("bob"), group.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, d.ID, list[0].ID)

		status, err := h.engine.RoundStatus(as("bob"), group.ID, 1)
		require.NoError(t, err)
		require.NotNil(t, status.Distribution)
		assert.True(t, status.Complete)
	})

	t.Run("events and metrics", func(t *testing.T) {
		events := h.drain()
		assert.Contains(t, events, notify.DistributionCompleted)
		assert.Equal(t, notify.RoundOpened, events[len(events)-1])

		expected := fmt.Sprintf(`
# HELP test_group_escrow_balance Escrow balance per group in minor units after the last commit
# TYPE test_group_escrow_balance gauge
test_group_escrow_balance{group_id=%q} 0
`, group.ID)
		assert.NoError(t, testutil.GatherAndCompare(h.metrics.Registry(), strings.NewReader(expected), "test_group_escrow_balance"))
	})
}

func TestDistributeIncompleteRound(t *testing.T) {
	h := newHarness(t)
	group, _, members := h.setupGroup(1000, "alice", "bob")
	round := h.startRound(group.ID, members)
	h.pay(round, members[0])
	h.pay(round, members[1])

	_, err := h.engine.Distribute(as("admin"), group.ID, 0)
	ae := requireCode(t, err, apperr.CodeRoundIncomplete)
	assert.Equal(t, []string{members[2].ID}, ae.Details["outstanding_member_ids"])

	g := h.group(group.ID)
	assert.Equal(t, int64(2000), g.EscrowBalance)
	assert.Equal(t, 1, g.CurrentRound)
	assert.Equal(t, int64(startingBalance-1010), h.balance("admin"))
}

func TestDistributeRejections(t *testing.T) {
	h := newHarness(t)
	group, _, members := h.setupGroup(1000, "alice")

	t.Run("no round yet", func(t *testing.T) {
		_, err := h.engine.Distribute(as("admin"), group.ID, 0)
		requireCode(t, err, apperr.CodeRoundNotOpen)
	})

	round := h.startRound(group.ID, members)
	for _, m := range members {
		h.pay(round, m)
	}

	t.Run("member cannot distribute", func(t *testing.T) {
		_, err := h.engine.Distribute(as("alice"), group.ID, 0)
		requireCode(t, err, apperr.CodeNotAuthorized)
	})

	t.Run("future round", func(t *testing.T) {
		_, err := h.engine.Distribute(as("admin"), group.ID, 4)
		requireCode(t, err, apperr.CodeRoundNotOpen)
	})

	t.Run("suspended group", func(t *testing.T) {
		_, err := h.engine.ChangeGroupStatus(as("admin"), group.ID, models.GroupSuspended)
		require.NoError(t, err)
		_, err = h.engine.Distribute(as("admin"), group.ID, 0)
		requireCode(t, err, apperr.CodeGroupNotActive)
		_, err = h.engine.ChangeGroupStatus(as("admin"), group.ID, models.GroupActive)
		require.NoError(t, err)
	})

	t.Run("unknown group", func(t *testing.T) {
		_, err := h.engine.Distribute(as("admin"), "missing", 0)
		requireCode(t, err, apperr.CodeGroupNotFound)
	})
}

func TestDistributeWalletFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness)
		code  apperr.Code
	}{
		{
			name:  "credit rejected",
			setup: func(h *harness) { h.wallet.creditErr = errors.New("wallet provider unavailable") },
			code:  apperr.CodeWalletCreditFailed,
		},
		{
			name:  "credit times out",
			setup: func(h *harness) { h.wallet.blockCredit = true },
			code:  apperr.CodeWalletTimeout,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(d *Deps) { d.WalletTimeout = 20 * time.Millisecond })
			group, _, members := h.setupGroup(1000, "alice", "bob")
			round := h.startRound(group.ID, members)
			for _, m := range members {
				h.pay(round, m)
			}

			tt.setup(h)
			_, err := h.engine.Distribute(as("admin"), group.ID, 0)
			ae := requireCode(t, err, tt.code)
			assert.Equal(t, apperr.KindExternal, ae.Kind())

			g := h.group(group.ID)
			assert.Equal(t, int64(3000), g.EscrowBalance)
			assert.Equal(t, 1, g.CurrentRound)
			list, err := h.engine.ListDistributions(as("admin"), group.ID)
			require.NoError(t, err)
			assert.Empty(t, list)
			assert.Equal(t, int64(startingBalance-1010), h.balance("admin"))

			// Once the wallet recovers the same round pays out exactly once.
			h.wallet.creditErr, h.wallet.blockCredit = nil, false
			res, err := h.engine.Distribute(as("admin"), group.ID, 0)
			require.NoError(t, err)
			assert.Equal(t, int64(2700), res.Distribution.Net)
			assert.Equal(t, int64(startingBalance-1010+2700), h.balance("admin"))
		})
	}
}

func TestDistributeRetryAfterCommitFailure(t *testing.T) {
	h := newHarness(t)
	group, _, members := h.setupGroup(1000, "alice", "bob")
	round := h.startRound(group.ID, members)
	for _, m := range members {
		h.pay(round, m)
	}

	h.faults.failNext(0, 1)
	_, err := h.engine.Distribute(as("admin"), group.ID, 0)
	requireCode(t, err, apperr.CodeInternal)

	// The payout reached the wallet but nothing was committed.
	assert.Equal(t, int64(startingBalance-1010+2700), h.balance("admin"))
	g := h.group(group.ID)
	assert.Equal(t, 1, g.CurrentRound)
	assert.Equal(t, int64(3000), g.EscrowBalance)

	// Retries keep the fee quoted on the first attempt.
	h.rates.set("1", "5")
	for i := 0; i < 3; i++ {
		res, err := h.engine.Distribute(as("admin"), group.ID, 1)
		require.NoError(t, err, "attempt %d", i+1)
		assert.Equal(t, i > 0, res.AlreadyRecorded)
		assert.Equal(t, int64(300), res.Distribution.Fee)
		assert.Equal(t, int64(2700), res.Distribution.Net)
	}

	g = h.group(group.ID)
	assert.Equal(t, 2, g.CurrentRound)
	assert.Zero(t, g.EscrowBalance)
	assert.Equal(t, int64(startingBalance-1010+2700), h.balance("admin"))

	entries, err := h.ledger.Entries(context.Background(), walletOf("admin"))
	require.NoError(t, err)
	credits := 0
	for _, e := range entries {
		if e.Key == DistributionKey(group.ID, 1) {
			credits++
		}
	}
	assert.Equal(t, 1, credits)

	list, err := h.engine.ListDistributions(as("admin"), group.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// The next round is charged at the new rate.
	next, err := h.engine.RoundStatus(as("admin"), group.ID, 2)
	require.NoError(t, err)
	for _, m := range members {
		h.pay(next, m)
	}
	res, err := h.engine.Distribute(as("admin"), group.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(150), res.Distribution.Fee)
}

func TestFullCycle(t *testing.T) {
	h := newHarness(t)
	group, _, members := h.setupGroup(2000, "alice", "bob", "carol")
	_, err := h.engine.AssignOrder(as("admin"), group.ID, models.OrderRandom, nil)
	require.NoError(t, err)
	round, err := h.engine.OpenRound(as("admin"), group.ID)
	require.NoError(t, err)

	paid := map[string]int64{}
	for seq := 1; seq <= len(members); seq++ {
		for _, m := range members {
			h.pay(round, m)
		}
		res, err := h.engine.Distribute(as("admin"), group.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, seq, res.Distribution.Sequence)
		paid[res.Distribution.BeneficiaryID] += res.Distribution.Net
		round = res.NextRound
	}

	// Every member was paid exactly once over a full rotation.
	require.Len(t, paid, len(members))
	for _, m := range members {
		assert.Equal(t, int64(7200), paid[m.ID])
		assert.Equal(t, int64(startingBalance-4*2020+7200), h.balance(m.UserID))
	}
}
