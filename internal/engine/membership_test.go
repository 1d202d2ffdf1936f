package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tontine/internal/apperr"
	"github.com/mmynk/tontine/internal/fees"
	"github.com/mmynk/tontine/internal/models"
	"github.com/mmynk/tontine/internal/notify"
)

func TestCreateGroup(t *testing.T) {
	h := newHarness(t)

	t.Run("caller becomes the single admin", func(t *testing.T) {
		created, err := h.engine.CreateGroup(as("admin"), NewGroup{
			Name: " Savings ", Amount: 5000, Currency: "xof", Cadence: models.CadenceMonthly, AdminWalletID: "w",
		})
		require.NoError(t, err)
		assert.Equal(t, "Savings", created.Group.Name)
		assert.Equal(t, "XOF", created.Group.Currency)
		assert.Equal(t, models.GroupActive, created.Group.Status)
		assert.NotEmpty(t, created.InvitationCode)
		assert.NotEqual(t, created.InvitationCode, created.Group.InvitationCodeHash)

		members, err := h.engine.ListMembers(as("admin"), created.Group.ID)
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.True(t, members[0].IsAdmin())
		assert.True(t, members[0].IsActive())
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			in   NewGroup
		}{
			{"empty name", NewGroup{Amount: 1, Currency: "XOF", Cadence: models.CadenceDaily, AdminWalletID: "w"}},
			{"zero amount", NewGroup{Name: "g", Currency: "XOF", Cadence: models.CadenceDaily, AdminWalletID: "w"}},
			{"no currency", NewGroup{Name: "g", Amount: 1, Cadence: models.CadenceDaily, AdminWalletID: "w"}},
			{"bad cadence", NewGroup{Name: "g", Amount: 1, Currency: "XOF", Cadence: "HOURLY", AdminWalletID: "w"}},
			{"no wallet", NewGroup{Name: "g", Amount: 1, Currency: "XOF", Cadence: models.CadenceDaily}},
			{"amount too large for fees", NewGroup{Name: "g", Amount: 1 << 62, Currency: "XOF", Cadence: models.CadenceDaily, AdminWalletID: "w"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := h.engine.CreateGroup(as("admin"), tt.in)
				requireCode(t, err, apperr.CodeInvalidArgument)
			})
		}
	})

	t.Run("largest payable amount", func(t *testing.T) {
		created, err := h.engine.CreateGroup(as("admin"), NewGroup{
			Name: "Whales", Amount: fees.MaxAmount, Currency: "XOF", Cadence: models.CadenceMonthly, AdminWalletID: "w",
		})
		require.NoError(t, err)
		assert.Equal(t, fees.MaxAmount, created.Group.Amount)

		_, err = h.engine.CreateGroup(as("admin"), NewGroup{
			Name: "Whales", Amount: fees.MaxAmount + 1, Currency: "XOF", Cadence: models.CadenceMonthly, AdminWalletID: "w",
		})
		ae := requireCode(t, err, apperr.CodeInvalidArgument)
		assert.NotEmpty(t, ae.Details["max_amount"])
	})

	t.Run("anonymous caller", func(t *testing.T) {
		_, err := h.engine.CreateGroup(context.Background(), NewGroup{Name: "g", Amount: 1, Currency: "XOF", Cadence: models.CadenceDaily, AdminWalletID: "w"})
		requireCode(t, err, apperr.CodeUnauthenticated)
	})
}

func TestInviteAndRespond(t *testing.T) {
	h := newHarness(t)
	group, code, _ := h.setupGroup(1000)

	t.Run("only the admin invites", func(t *testing.T) {
		h.join(group.ID, code, "alice")
		_, err := h.engine.Invite(as("alice"), group.ID, "bob", "w-bob")
		requireCode(t, err, apperr.CodeNotAuthorized)
	})

	t.Run("unknown group", func(t *testing.T) {
		_, err := h.engine.Invite(as("admin"), "missing", "bob", "w-bob")
		requireCode(t, err, apperr.CodeGroupNotFound)
	})

	t.Run("duplicate member", func(t *testing.T) {
		_, err := h.engine.Invite(as("admin"), group.ID, "carol", "w")
		require.NoError(t, err)
		_, err = h.engine.Invite(as("admin"), group.ID, "carol", "w")
		requireCode(t, err, apperr.CodeDuplicateMember)
		_, err = h.engine.Invite(as("admin"), group.ID, "admin", "w")
		requireCode(t, err, apperr.CodeDuplicateMember)
	})

	t.Run("wrong code keeps the member pending", func(t *testing.T) {
		m, err := h.engine.Invite(as("admin"), group.ID, "dave", "w")
		require.NoError(t, err)
		_, err = h.engine.RespondToInvite(as("dave"), m.ID, DecisionJoin, "WRONG")
		requireCode(t, err, apperr.CodeInvalidInvitation)

		got, err := h.store.GetMember(context.Background(), m.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MemberPending, got.Status)
	})

	t.Run("only the invitee responds", func(t *testing.T) {
		m, err := h.engine.Invite(as("admin"), group.ID, "erin", "w")
		require.NoError(t, err)
		_, err = h.engine.RespondToInvite(as("admin"), m.ID, DecisionJoin, code)
		requireCode(t, err, apperr.CodeNotAuthorized)
	})

	t.Run("reject then re-invite", func(t *testing.T) {
		m, err := h.engine.Invite(as("admin"), group.ID, "frank", "w")
		require.NoError(t, err)
		rejected, err := h.engine.RespondToInvite(as("frank"), m.ID, DecisionReject, "")
		require.NoError(t, err)
		assert.Equal(t, models.MemberRejected, rejected.Status)

		_, err = h.engine.RespondToInvite(as("frank"), m.ID, DecisionJoin, code)
		requireCode(t, err, apperr.CodeMemberNotPending)

		again, err := h.engine.Invite(as("admin"), group.ID, "frank", "w")
		require.NoError(t, err)
		assert.NotEqual(t, m.ID, again.ID)
	})

	t.Run("code is case insensitive", func(t *testing.T) {
		m, err := h.engine.Invite(as("admin"), group.ID, "gina", "w")
		require.NoError(t, err)
		joined, err := h.engine.RespondToInvite(as("gina"), m.ID, DecisionJoin, " "+strings.ToLower(code)+" ")
		require.NoError(t, err)
		assert.True(t, joined.IsActive())
		assert.NotZero(t, joined.JoinedAt)
	})

	t.Run("events", func(t *testing.T) {
		types := h.drain()
		assert.Contains(t, types, notify.MemberInvited)
		assert.Contains(t, types, notify.MemberJoined)
		assert.Contains(t, types, notify.MemberRejected)
	})
}

func TestChangeGroupStatus(t *testing.T) {
	h := newHarness(t)
	group, code, _ := h.setupGroup(1000)
	h.join(group.ID, code, "alice")

	_, err := h.engine.ChangeGroupStatus(as("alice"), group.ID, models.GroupSuspended)
	requireCode(t, err, apperr.CodeNotAuthorized)

	_, err = h.engine.ChangeGroupStatus(as("admin"), group.ID, models.GroupActive)
	requireCode(t, err, apperr.CodeAlreadyInState)

	_, err = h.engine.ChangeGroupStatus(as("admin"), group.ID, "PAUSED")
	requireCode(t, err, apperr.CodeInvalidArgument)

	g, err := h.engine.ChangeGroupStatus(as("admin"), group.ID, models.GroupSuspended)
	require.NoError(t, err)
	assert.Equal(t, models.GroupSuspended, g.Status)

	g, err = h.engine.ChangeGroupStatus(as("admin"), group.ID, models.GroupActive)
	require.NoError(t, err)
	assert.Equal(t, models.GroupActive, g.Status)

	_, err = h.engine.ChangeGroupStatus(as("admin"), group.ID, models.GroupClosed)
	require.NoError(t, err)

	_, err = h.engine.ChangeGroupStatus(as("admin"), group.ID, models.GroupActive)
	requireCode(t, err, apperr.CodeGroupClosed)
	_, err = h.engine.Invite(as("admin"), group.ID, "bob", "w")
	requireCode(t, err, apperr.CodeGroupClosed)
}
