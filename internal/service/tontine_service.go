package service

import (
	"context"

	"connectrpc.com/connect"

	"github.com/mmynk/tontine/internal/engine"
	"github.com/mmynk/tontine/internal/models"
	"github.com/mmynk/tontine/pkg/api"
	"github.com/mmynk/tontine/pkg/api/apiconnect"
)

var _ apiconnect.TontineServiceHandler = (*TontineService)(nil)

// TontineService implements the Connect TontineService on top of the engine.
// Every call runs as the identity the auth interceptor put in the context.
type TontineService struct {
	engine *engine.Engine
	fees   FeeSettings
}

// NewTontineService creates a TontineService. fees serves the fee RPCs.
func NewTontineService(eng *engine.Engine, fees FeeSettings) *TontineService {
	return &TontineService{engine: eng, fees: fees}
}

// CreateGroup creates a group administered by the caller.
func (s *TontineService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	res, err := s.engine.CreateGroup(ctx, engine.NewGroup{
		Name:          req.Msg.Name,
		Amount:        req.Msg.Amount,
		Currency:      req.Msg.Currency,
		Cadence:       models.Cadence(req.Msg.Cadence),
		AdminWalletID: req.Msg.AdminWalletID,
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.CreateGroupResponse{
		Group:          toAPIGroup(res.Group),
		Admin:          toAPIMember(res.Admin),
		InvitationCode: res.InvitationCode,
	}), nil
}

// GetGroup returns a group to one of its members.
func (s *TontineService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	group, err := s.engine.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group)}), nil
}

// ListMembers lists the memberships of a group.
func (s *TontineService) ListMembers(ctx context.Context, req *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error) {
	members, err := s.engine.ListMembers(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connectError(err)
	}
	out := make([]*api.Member, len(members))
	for i, m := range members {
		out[i] = toAPIMember(m)
	}
	return connect.NewResponse(&api.ListMembersResponse{Members: out}), nil
}

// InviteMember invites a user into a group.
func (s *TontineService) InviteMember(ctx context.Context, req *connect.Request[api.InviteMemberRequest]) (*connect.Response[api.InviteMemberResponse], error) {
	member, err := s.engine.Invite(ctx, req.Msg.GroupID, req.Msg.UserID, req.Msg.WalletID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.InviteMemberResponse{Member: toAPIMember(member)}), nil
}

// RespondToInvite accepts or declines an invitation.
func (s *TontineService) RespondToInvite(ctx context.Context, req *connect.Request[api.RespondToInviteRequest]) (*connect.Response[api.RespondToInviteResponse], error) {
	member, err := s.engine.RespondToInvite(ctx, req.Msg.MemberID, engine.Decision(req.Msg.Decision), req.Msg.InvitationCode)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.RespondToInviteResponse{Member: toAPIMember(member)}), nil
}

// ChangeGroupStatus suspends, resumes or closes a group.
func (s *TontineService) ChangeGroupStatus(ctx context.Context, req *connect.Request[api.ChangeGroupStatusRequest]) (*connect.Response[api.ChangeGroupStatusResponse], error) {
	group, err := s.engine.ChangeGroupStatus(ctx, req.Msg.GroupID, models.GroupStatus(req.Msg.Status))
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.ChangeGroupStatusResponse{Group: toAPIGroup(group)}), nil
}

// AssignOrder fixes the payout order of a group.
func (s *TontineService) AssignOrder(ctx context.Context, req *connect.Request[api.AssignOrderRequest]) (*connect.Response[api.AssignOrderResponse], error) {
	group, err := s.engine.AssignOrder(ctx, req.Msg.GroupID, models.OrderingMode(req.Msg.Mode), req.Msg.MemberIDs)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.AssignOrderResponse{Group: toAPIGroup(group)}), nil
}

// OpenRound opens the first round of a group.
func (s *TontineService) OpenRound(ctx context.Context, req *connect.Request[api.OpenRoundRequest]) (*connect.Response[api.OpenRoundResponse], error) {
	round, err := s.engine.OpenRound(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.OpenRoundResponse{Round: toAPIRound(round)}), nil
}

// RecordPayment pays a contribution from the member's wallet.
func (s *TontineService) RecordPayment(ctx context.Context, req *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.RecordPaymentResponse], error) {
	res, err := s.engine.RecordPayment(ctx, req.Msg.ContributionID, req.Msg.MemberID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.RecordPaymentResponse{
		Contribution:     toAPIContribution(res.Contribution),
		AlreadyValidated: res.AlreadyValidated,
		Charged:          res.Charged,
		WalletBalance:    res.WalletBalance,
	}), nil
}

// GetRound returns a round with its outstanding members.
func (s *TontineService) GetRound(ctx context.Context, req *connect.Request[api.GetRoundRequest]) (*connect.Response[api.GetRoundResponse], error) {
	round, err := s.engine.RoundStatus(ctx, req.Msg.GroupID, req.Msg.Sequence)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.GetRoundResponse{Round: toAPIRound(round)}), nil
}

// IsRoundComplete reports whether every contribution of a round is paid.
func (s *TontineService) IsRoundComplete(ctx context.Context, req *connect.Request[api.IsRoundCompleteRequest]) (*connect.Response[api.IsRoundCompleteResponse], error) {
	complete, err := s.engine.IsRoundComplete(ctx, req.Msg.GroupID, req.Msg.Sequence)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.IsRoundCompleteResponse{Complete: complete}), nil
}

// RaisePenalty records a penalty against a member.
func (s *TontineService) RaisePenalty(ctx context.Context, req *connect.Request[api.RaisePenaltyRequest]) (*connect.Response[api.RaisePenaltyResponse], error) {
	p, err := s.engine.RaisePenalty(ctx, engine.NewPenalty{
		GroupID:       req.Msg.GroupID,
		MemberID:      req.Msg.MemberID,
		Reason:        models.PenaltyReason(req.Msg.Reason),
		Amount:        req.Msg.Amount,
		Note:          req.Msg.Note,
		RoundSequence: req.Msg.RoundSequence,
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.RaisePenaltyResponse{Penalty: toAPIPenalty(p)}), nil
}

// SettlePenalty pays a penalty from the member's wallet.
func (s *TontineService) SettlePenalty(ctx context.Context, req *connect.Request[api.SettlePenaltyRequest]) (*connect.Response[api.SettlePenaltyResponse], error) {
	res, err := s.engine.SettlePenalty(ctx, req.Msg.PenaltyID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.SettlePenaltyResponse{
		Penalty:       toAPIPenalty(res.Penalty),
		AlreadyPaid:   res.AlreadyPaid,
		WalletBalance: res.WalletBalance,
	}), nil
}

// ListPenalties lists the penalties of a group, newest first.
func (s *TontineService) ListPenalties(ctx context.Context, req *connect.Request[api.ListPenaltiesRequest]) (*connect.Response[api.ListPenaltiesResponse], error) {
	penalties, err := s.engine.ListPenalties(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connectError(err)
	}
	out := make([]*api.Penalty, len(penalties))
	for i, p := range penalties {
		out[i] = toAPIPenalty(p)
	}
	return connect.NewResponse(&api.ListPenaltiesResponse{Penalties: out}), nil
}

// Distribute pays out a complete round and opens the next one.
func (s *TontineService) Distribute(ctx context.Context, req *connect.Request[api.DistributeRequest]) (*connect.Response[api.DistributeResponse], error) {
	res, err := s.engine.Distribute(ctx, req.Msg.GroupID, req.Msg.Sequence)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.DistributeResponse{
		Distribution:    toAPIDistribution(res.Distribution, res.Currency),
		AlreadyRecorded: res.AlreadyRecorded,
		NextRound:       toAPIRound(res.NextRound),
	}), nil
}

// ListDistributions lists the payouts of a group.
func (s *TontineService) ListDistributions(ctx context.Context, req *connect.Request[api.ListDistributionsRequest]) (*connect.Response[api.ListDistributionsResponse], error) {
	group, err := s.engine.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connectError(err)
	}
	ds, err := s.engine.ListDistributions(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connectError(err)
	}
	out := make([]*api.Distribution, len(ds))
	for i, d := range ds {
		out[i] = toAPIDistribution(d, group.Currency)
	}
	return connect.NewResponse(&api.ListDistributionsResponse{Distributions: out}), nil
}
