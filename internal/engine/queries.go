package engine

import (
	"context"

	"github.com/mmynk/tontine/internal/models"
)

// GetGroup returns a group. Any live member may read it.
func (e *Engine) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	if _, err := e.requireMember(ctx, groupID); err != nil {
		return nil, err
	}
	return e.loadGroup(ctx, groupID)
}

// ListMembers returns every membership of a group, rejected ones included.
func (e *Engine) ListMembers(ctx context.Context, groupID string) ([]*models.Member, error) {
	if _, err := e.requireMember(ctx, groupID); err != nil {
		return nil, err
	}
	members, err := e.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, internal("failed to list members", err)
	}
	return members, nil
}

// ListPenalties returns the penalties of a group, newest first.
func (e *Engine) ListPenalties(ctx context.Context, groupID string) ([]*models.Penalty, error) {
	if _, err := e.requireMember(ctx, groupID); err != nil {
		return nil, err
	}
	penalties, err := e.store.ListPenalties(ctx, groupID)
	if err != nil {
		return nil, internal("failed to list penalties", err)
	}
	return penalties, nil
}

// ListDistributions returns the payouts of a group by sequence.
func (e *Engine) ListDistributions(ctx context.Context, groupID string) ([]*models.Distribution, error) {
	if _, err := e.requireMember(ctx, groupID); err != nil {
		return nil, err
	}
	ds, err := e.store.ListDistributions(ctx, groupID)
	if err != nil {
		return nil, internal("failed to list distributions", err)
	}
	return ds, nil
}
