package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tontine/internal/apperr"
	"github.com/mmynk/tontine/internal/models"
	"github.com/mmynk/tontine/internal/notify"
)

func TestPenaltyLifecycle(t *testing.T) {
	h := newHarness(t)
	group, _, members := h.setupGroup(1000, "alice", "bob")
	h.startRound(group.ID, members)
	bob := members[2]

	late := NewPenalty{GroupID: group.ID, MemberID: bob.ID, Reason: models.PenaltyLate, Amount: 500, RoundSequence: 1, Note: "  paid after market day "}

	_, err := h.engine.RaisePenalty(as("admin"), late)
	ae := requireCode(t, err, apperr.CodeRoundNotDue)
	assert.NotEmpty(t, ae.Details["due_at"])

	h.clock.Advance(14 * 24 * time.Hour)

	p, err := h.engine.RaisePenalty(as("admin"), late)
	require.NoError(t, err)
	assert.Equal(t, models.PenaltyUnpaid, p.Status)
	assert.Equal(t, "paid after market day", p.Note)
	assert.Equal(t, "admin", p.CreatedBy)

	res, err := h.engine.SettlePenalty(as("bob"), p.ID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyPaid)
	assert.Equal(t, models.PenaltyPaid, res.Penalty.Status)
	assert.Equal(t, int64(startingBalance-500), res.WalletBalance)
	assert.Equal(t, int64(startingBalance-500), h.balance("bob"))

	again, err := h.engine.SettlePenalty(as("bob"), p.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyPaid)
	assert.Equal(t, int64(startingBalance-500), h.balance("bob"))

	listed, err := h.engine.ListPenalties(as("alice"), group.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, models.PenaltyPaid, listed[0].Status)

	events := h.drain()
	assert.Contains(t, events, notify.PenaltyRaised)
	assert.Contains(t, events, notify.PenaltySettled)
}

func TestRaisePenaltyRejections(t *testing.T) {
	h := newHarness(t)
	group, _, members := h.setupGroup(1000, "alice")
	alice := members[1]

	tests := []struct {
		name string
		ctx  string
		in   NewPenalty
		code apperr.Code
	}{
		{
			name: "zero amount",
			ctx:  "admin",
			in:   NewPenalty{GroupID: group.ID, MemberID: alice.ID, Reason: models.PenaltyOther},
			code: apperr.CodeInvalidArgument,
		},
		{
			name: "unknown reason",
			ctx:  "admin",
			in:   NewPenalty{GroupID: group.ID, MemberID: alice.ID, Reason: "RUDE", Amount: 100},
			code: apperr.CodeInvalidArgument,
		},
		{
			name: "member cannot raise",
			ctx:  "alice",
			in:   NewPenalty{GroupID: group.ID, MemberID: alice.ID, Reason: models.PenaltyOther, Amount: 100},
			code: apperr.CodeNotAuthorized,
		},
		{
			name: "unknown member",
			ctx:  "admin",
			in:   NewPenalty{GroupID: group.ID, MemberID: "ghost", Reason: models.PenaltyOther, Amount: 100},
			code: apperr.CodeMemberNotFound,
		},
		{
			name: "unknown round",
			ctx:  "admin",
			in:   NewPenalty{GroupID: group.ID, MemberID: alice.ID, Reason: models.PenaltyAbsence, Amount: 100, RoundSequence: 3},
			code: apperr.CodeRoundNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.engine.RaisePenalty(as(tt.ctx), tt.in)
			requireCode(t, err, tt.code)
		})
	}

	t.Run("pending member", func(t *testing.T) {
		pending, err := h.engine.Invite(as("admin"), group.ID, "carol", walletOf("carol"))
		require.NoError(t, err)
		_, err = h.engine.RaisePenalty(as("admin"), NewPenalty{GroupID: group.ID, MemberID: pending.ID, Reason: models.PenaltyOther, Amount: 100})
		requireCode(t, err, apperr.CodeMemberNotActive)
	})

	t.Run("OTHER ignores the deadline", func(t *testing.T) {
		h.startRound(group.ID, members)
		_, err := h.engine.RaisePenalty(as("admin"), NewPenalty{GroupID: group.ID, MemberID: alice.ID, Reason: models.PenaltyOther, Amount: 100, RoundSequence: 1})
		require.NoError(t, err)
	})
}

func TestSettlePenaltyRejections(t *testing.T) {
	h := newHarness(t)
	group, _, members := h.setupGroup(1000, "alice", "bob")

	p, err := h.engine.RaisePenalty(as("admin"), NewPenalty{GroupID: group.ID, MemberID: members[1].ID, Reason: models.PenaltyOther, Amount: 300})
	require.NoError(t, err)

	t.Run("another member cannot settle", func(t *testing.T) {
		_, err := h.engine.SettlePenalty(as("bob"), p.ID)
		requireCode(t, err, apperr.CodeNotAuthorized)
	})

	t.Run("admin may settle on the member's behalf", func(t *testing.T) {
		res, err := h.engine.SettlePenalty(as("admin"), p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(startingBalance-300), h.balance("alice"))
		assert.Equal(t, int64(startingBalance), h.balance("admin"))
		assert.False(t, res.AlreadyPaid)
	})

	t.Run("unknown penalty", func(t *testing.T) {
		_, err := h.engine.SettlePenalty(as("admin"), "missing")
		requireCode(t, err, apperr.CodePenaltyNotFound)
	})

	t.Run("insufficient funds leaves the penalty unpaid", func(t *testing.T) {
		q, err := h.engine.RaisePenalty(as("admin"), NewPenalty{GroupID: group.ID, MemberID: members[2].ID, Reason: models.PenaltyOther, Amount: startingBalance + 1})
		require.NoError(t, err)
		_, err = h.engine.SettlePenalty(as("bob"), q.ID)
		requireCode(t, err, apperr.CodeInsufficientFunds)

		stored, err := h.store.GetPenalty(as("bob"), q.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PenaltyUnpaid, stored.Status)
	})
}
