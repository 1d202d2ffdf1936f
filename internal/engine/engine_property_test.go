package engine

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/mmynk/tontine/internal/apperr"
)

// TestMoneyConservation drives a group through random payments and payouts.
// Property: escrow equals the validated amounts of the open round, and every
// minor unit that left a wallet is in escrow, in a fee or back in a wallet.
func TestMoneyConservation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 15
	properties := gopter.NewProperties(parameters)

	properties.Property("escrow and fees account for every debit", prop.ForAll(
		func(ops []int) bool {
			h := newHarness(t)
			group, _, members := h.setupGroup(1500, "alice", "bob", "carol")
			users := []string{"admin", "alice", "bob", "carol"}
			h.startRound(group.ID, members)
			total := int64(len(users)) * startingBalance

			for _, op := range ops {
				switch {
				case op < 6:
					m := members[op%len(members)]
					round, err := h.engine.RoundStatus(as("admin"), group.ID, 0)
					if err != nil {
						return false
					}
					_, err = h.engine.RecordPayment(as(m.UserID), contributionOf(t, round, m.ID).ID, m.ID)
					if err != nil {
						return false
					}
				case op < 8:
					_, err := h.engine.Distribute(as("admin"), group.ID, 0)
					if err != nil && !apperr.HasCode(err, apperr.CodeRoundIncomplete) {
						return false
					}
				default:
					g := h.group(group.ID)
					if g.CurrentRound > 1 {
						res, err := h.engine.Distribute(as("admin"), group.ID, g.CurrentRound-1)
						if err != nil || !res.AlreadyRecorded {
							return false
						}
					}
				}

				if !conserved(t, h, group.ID, users, total) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(25, gen.IntRange(0, 8)),
	))

	properties.TestingRun(t)
}

func conserved(t *testing.T, h *harness, groupID string, users []string, total int64) bool {
	ctx := context.Background()
	g := h.group(groupID)
	if g.EscrowBalance < 0 {
		return false
	}

	var fees, validated int64
	for seq := 1; seq <= g.CurrentRound; seq++ {
		rows, err := h.store.ListContributions(ctx, groupID, seq)
		if err != nil {
			t.Logf("list contributions: %v", err)
			return false
		}
		for _, c := range rows {
			if !c.IsValidated() {
				continue
			}
			fees += c.FeeAmount
			if seq == g.CurrentRound {
				validated += c.Amount
			}
		}
	}
	if validated != g.EscrowBalance {
		t.Logf("escrow %d, validated %d", g.EscrowBalance, validated)
		return false
	}

	ds, err := h.store.ListDistributions(ctx, groupID)
	if err != nil {
		return false
	}
	for _, d := range ds {
		if d.Fee+d.Net != d.Gross {
			return false
		}
		fees += d.Fee
	}

	var wallets int64
	for _, u := range users {
		wallets += h.balance(u)
	}
	if wallets+g.EscrowBalance+fees != total {
		t.Logf("wallets %d + escrow %d + fees %d != %d", wallets, g.EscrowBalance, fees, total)
		return false
	}
	return true
}
