// Package apiconnect wires the TontineService messages to Connect handlers
// and clients.
package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/tontine/pkg/api"
)

// TontineServiceName is the fully-qualified name of the TontineService.
const TontineServiceName = "tontine.v1.TontineService"

// Procedure paths of the TontineService.
const (
	TontineServiceCreateGroupProcedure       = "/tontine.v1.TontineService/CreateGroup"
	TontineServiceGetGroupProcedure          = "/tontine.v1.TontineService/GetGroup"
	TontineServiceListMembersProcedure       = "/tontine.v1.TontineService/ListMembers"
	TontineServiceInviteMemberProcedure      = "/tontine.v1.TontineService/InviteMember"
	TontineServiceRespondToInviteProcedure   = "/tontine.v1.TontineService/RespondToInvite"
	TontineServiceChangeGroupStatusProcedure = "/tontine.v1.TontineService/ChangeGroupStatus"
	TontineServiceAssignOrderProcedure       = "/tontine.v1.TontineService/AssignOrder"
	TontineServiceOpenRoundProcedure         = "/tontine.v1.TontineService/OpenRound"
	TontineServiceRecordPaymentProcedure     = "/tontine.v1.TontineService/RecordPayment"
	TontineServiceGetRoundProcedure          = "/tontine.v1.TontineService/GetRound"
	TontineServiceIsRoundCompleteProcedure   = "/tontine.v1.TontineService/IsRoundComplete"
	TontineServiceRaisePenaltyProcedure      = "/tontine.v1.TontineService/RaisePenalty"
	TontineServiceSettlePenaltyProcedure     = "/tontine.v1.TontineService/SettlePenalty"
	TontineServiceListPenaltiesProcedure     = "/tontine.v1.TontineService/ListPenalties"
	TontineServiceDistributeProcedure        = "/tontine.v1.TontineService/Distribute"
	TontineServiceListDistributionsProcedure = "/tontine.v1.TontineService/ListDistributions"
	TontineServiceGetFeeRatesProcedure       = "/tontine.v1.TontineService/GetFeeRates"
	TontineServiceSetFeeRatesProcedure       = "/tontine.v1.TontineService/SetFeeRates"
)

// TontineServiceHandler is implemented by the server.
type TontineServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	ListMembers(context.Context, *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error)
	InviteMember(context.Context, *connect.Request[api.InviteMemberRequest]) (*connect.Response[api.InviteMemberResponse], error)
	RespondToInvite(context.Context, *connect.Request[api.RespondToInviteRequest]) (*connect.Response[api.RespondToInviteResponse], error)
	ChangeGroupStatus(context.Context, *connect.Request[api.ChangeGroupStatusRequest]) (*connect.Response[api.ChangeGroupStatusResponse], error)
	AssignOrder(context.Context, *connect.Request[api.AssignOrderRequest]) (*connect.Response[api.AssignOrderResponse], error)
	OpenRound(context.Context, *connect.Request[api.OpenRoundRequest]) (*connect.Response[api.OpenRoundResponse], error)
	RecordPayment(context.Context, *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.RecordPaymentResponse], error)
	GetRound(context.Context, *connect.Request[api.GetRoundRequest]) (*connect.Response[api.GetRoundResponse], error)
	IsRoundComplete(context.Context, *connect.Request[api.IsRoundCompleteRequest]) (*connect.Response[api.IsRoundCompleteResponse], error)
	RaisePenalty(context.Context, *connect.Request[api.RaisePenaltyRequest]) (*connect.Response[api.RaisePenaltyResponse], error)
	SettlePenalty(context.Context, *connect.Request[api.SettlePenaltyRequest]) (*connect.Response[api.SettlePenaltyResponse], error)
	ListPenalties(context.Context, *connect.Request[api.ListPenaltiesRequest]) (*connect.Response[api.ListPenaltiesResponse], error)
	Distribute(context.Context, *connect.Request[api.DistributeRequest]) (*connect.Response[api.DistributeResponse], error)
	ListDistributions(context.Context, *connect.Request[api.ListDistributionsRequest]) (*connect.Response[api.ListDistributionsResponse], error)
	GetFeeRates(context.Context, *connect.Request[api.GetFeeRatesRequest]) (*connect.Response[api.GetFeeRatesResponse], error)
	SetFeeRates(context.Context, *connect.Request[api.SetFeeRatesRequest]) (*connect.Response[api.SetFeeRatesResponse], error)
}

// NewTontineServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewTontineServiceHandler(svc TontineServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(TontineServiceCreateGroupProcedure, connect.NewUnaryHandler(TontineServiceCreateGroupProcedure, svc.CreateGroup, opts...))
	mux.Handle(TontineServiceGetGroupProcedure, connect.NewUnaryHandler(TontineServiceGetGroupProcedure, svc.GetGroup, opts...))
	mux.Handle(TontineServiceListMembersProcedure, connect.NewUnaryHandler(TontineServiceListMembersProcedure, svc.ListMembers, opts...))
	mux.Handle(TontineServiceInviteMemberProcedure, connect.NewUnaryHandler(TontineServiceInviteMemberProcedure, svc.InviteMember, opts...))
	mux.Handle(TontineServiceRespondToInviteProcedure, connect.NewUnaryHandler(TontineServiceRespondToInviteProcedure, svc.RespondToInvite, opts...))
	mux.Handle(TontineServiceChangeGroupStatusProcedure, connect.NewUnaryHandler(TontineServiceChangeGroupStatusProcedure, svc.ChangeGroupStatus, opts...))
	mux.Handle(TontineServiceAssignOrderProcedure, connect.NewUnaryHandler(TontineServiceAssignOrderProcedure, svc.AssignOrder, opts...))
	mux.Handle(TontineServiceOpenRoundProcedure, connect.NewUnaryHandler(TontineServiceOpenRoundProcedure, svc.OpenRound, opts...))
	mux.Handle(TontineServiceRecordPaymentProcedure, connect.NewUnaryHandler(TontineServiceRecordPaymentProcedure, svc.RecordPayment, opts...))
	mux.Handle(TontineServiceGetRoundProcedure, connect.NewUnaryHandler(TontineServiceGetRoundProcedure, svc.GetRound, opts...))
	mux.Handle(TontineServiceIsRoundCompleteProcedure, connect.NewUnaryHandler(TontineServiceIsRoundCompleteProcedure, svc.IsRoundComplete, opts...))
	mux.Handle(TontineServiceRaisePenaltyProcedure, connect.NewUnaryHandler(TontineServiceRaisePenaltyProcedure, svc.RaisePenalty, opts...))
	mux.Handle(TontineServiceSettlePenaltyProcedure, connect.NewUnaryHandler(TontineServiceSettlePenaltyProcedure, svc.SettlePenalty, opts...))
	mux.Handle(TontineServiceListPenaltiesProcedure, connect.NewUnaryHandler(TontineServiceListPenaltiesProcedure, svc.ListPenalties, opts...))
	mux.Handle(TontineServiceDistributeProcedure, connect.NewUnaryHandler(TontineServiceDistributeProcedure, svc.Distribute, opts...))
	mux.Handle(TontineServiceListDistributionsProcedure, connect.NewUnaryHandler(TontineServiceListDistributionsProcedure, svc.ListDistributions, opts...))
	mux.Handle(TontineServiceGetFeeRatesProcedure, connect.NewUnaryHandler(TontineServiceGetFeeRatesProcedure, svc.GetFeeRates, opts...))
	mux.Handle(TontineServiceSetFeeRatesProcedure, connect.NewUnaryHandler(TontineServiceSetFeeRatesProcedure, svc.SetFeeRates, opts...))

	return "/" + TontineServiceName + "/", mux
}

// TontineServiceClient is a client for the TontineService.
type TontineServiceClient struct {
	createGroup       *connect.Client[api.CreateGroupRequest, api.CreateGroupResponse]
	getGroup          *connect.Client[api.GetGroupRequest, api.GetGroupResponse]
	listMembers       *connect.Client[api.ListMembersRequest, api.ListMembersResponse]
	inviteMember      *connect.Client[api.InviteMemberRequest, api.InviteMemberResponse]
	respondToInvite   *connect.Client[api.RespondToInviteRequest, api.RespondToInviteResponse]
	changeGroupStatus *connect.Client[api.ChangeGroupStatusRequest, api.ChangeGroupStatusResponse]
	assignOrder       *connect.Client[api.AssignOrderRequest, api.AssignOrderResponse]
	openRound         *connect.Client[api.OpenRoundRequest, api.OpenRoundResponse]
	recordPayment     *connect.Client[api.RecordPaymentRequest, api.RecordPaymentResponse]
	getRound          *connect.Client[api.GetRoundRequest, api.GetRoundResponse]
	isRoundComplete   *connect.Client[api.IsRoundCompleteRequest, api.IsRoundCompleteResponse]
	raisePenalty      *connect.Client[api.RaisePenaltyRequest, api.RaisePenaltyResponse]
	settlePenalty     *connect.Client[api.SettlePenaltyRequest, api.SettlePenaltyResponse]
	listPenalties     *connect.Client[api.ListPenaltiesRequest, api.ListPenaltiesResponse]
	distribute        *connect.Client[api.DistributeRequest, api.DistributeResponse]
	listDistributions *connect.Client[api.ListDistributionsRequest, api.ListDistributionsResponse]
	getFeeRates       *connect.Client[api.GetFeeRatesRequest, api.GetFeeRatesResponse]
	setFeeRates       *connect.Client[api.SetFeeRatesRequest, api.SetFeeRatesResponse]
}

// NewTontineServiceClient constructs a client for the TontineService at
// baseURL, e.g. http://localhost:8080.
func NewTontineServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *TontineServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &TontineServiceClient{
		createGroup:       connect.NewClient[api.CreateGroupRequest, api.CreateGroupResponse](httpClient, baseURL+TontineServiceCreateGroupProcedure, opts...),
		getGroup:          connect.NewClient[api.GetGroupRequest, api.GetGroupResponse](httpClient, baseURL+TontineServiceGetGroupProcedure, opts...),
		listMembers:       connect.NewClient[api.ListMembersRequest, api.ListMembersResponse](httpClient, baseURL+TontineServiceListMembersProcedure, opts...),
		inviteMember:      connect.NewClient[api.InviteMemberRequest, api.InviteMemberResponse](httpClient, baseURL+TontineServiceInviteMemberProcedure, opts...),
		respondToInvite:   connect.NewClient[api.RespondToInviteRequest, api.RespondToInviteResponse](httpClient, baseURL+TontineServiceRespondToInviteProcedure, opts...),
		changeGroupStatus: connect.NewClient[api.ChangeGroupStatusRequest, api.ChangeGroupStatusResponse](httpClient, baseURL+TontineServiceChangeGroupStatusProcedure, opts...),
		assignOrder:       connect.NewClient[api.AssignOrderRequest, api.AssignOrderResponse](httpClient, baseURL+TontineServiceAssignOrderProcedure, opts...),
		openRound:         connect.NewClient[api.OpenRoundRequest, api.OpenRoundResponse](httpClient, baseURL+TontineServiceOpenRoundProcedure, opts...),
		recordPayment:     connect.NewClient[api.RecordPaymentRequest, api.RecordPaymentResponse](httpClient, baseURL+TontineServiceRecordPaymentProcedure, opts...),
		getRound:          connect.NewClient[api.GetRoundRequest, api.GetRoundResponse](httpClient, baseURL+TontineServiceGetRoundProcedure, opts...),
		isRoundComplete:   connect.NewClient[api.IsRoundCompleteRequest, api.IsRoundCompleteResponse](httpClient, baseURL+TontineServiceIsRoundCompleteProcedure, opts...),
		raisePenalty:      connect.NewClient[api.RaisePenaltyRequest, api.RaisePenaltyResponse](httpClient, baseURL+TontineServiceRaisePenaltyProcedure, opts...),
		settlePenalty:     connect.NewClient[api.SettlePenaltyRequest, api.SettlePenaltyResponse](httpClient, baseURL+TontineServiceSettlePenaltyProcedure, opts...),
		listPenalties:     connect.NewClient[api.ListPenaltiesRequest, api.ListPenaltiesResponse](httpClient, baseURL+TontineServiceListPenaltiesProcedure, opts...),
		distribute:        connect.NewClient[api.DistributeRequest, api.DistributeResponse](httpClient, baseURL+TontineServiceDistributeProcedure, opts...),
		listDistributions: connect.NewClient[api.ListDistributionsRequest, api.ListDistributionsResponse](httpClient, baseURL+TontineServiceListDistributionsProcedure, opts...),
		getFeeRates:       connect.NewClient[api.GetFeeRatesRequest, api.GetFeeRatesResponse](httpClient, baseURL+TontineServiceGetFeeRatesProcedure, opts...),
		setFeeRates:       connect.NewClient[api.SetFeeRatesRequest, api.SetFeeRatesResponse](httpClient, baseURL+TontineServiceSetFeeRatesProcedure, opts...),
	}
}

func (c *TontineServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *TontineServiceClient) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *TontineServiceClient) ListMembers(ctx context.Context, req *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error) {
	return c.listMembers.CallUnary(ctx, req)
}

func (c *TontineServiceClient) InviteMember(ctx context.Context, req *connect.Request[api.InviteMemberRequest]) (*connect.Response[api.InviteMemberResponse], error) {
	return c.inviteMember.CallUnary(ctx, req)
}

func (c *TontineServiceClient) RespondToInvite(ctx context.Context, req *connect.Request[api.RespondToInviteRequest]) (*connect.Response[api.RespondToInviteResponse], error) {
	return c.respondToInvite.CallUnary(ctx, req)
}

func (c *TontineServiceClient) ChangeGroupStatus(ctx context.Context, req *connect.Request[api.ChangeGroupStatusRequest]) (*connect.Response[api.ChangeGroupStatusResponse], error) {
	return c.changeGroupStatus.CallUnary(ctx, req)
}

func (c *TontineServiceClient) AssignOrder(ctx context.Context, req *connect.Request[api.AssignOrderRequest]) (*connect.Response[api.AssignOrderResponse], error) {
	return c.assignOrder.CallUnary(ctx, req)
}

func (c *TontineServiceClient) OpenRound(ctx context.Context, req *connect.Request[api.OpenRoundRequest]) (*connect.Response[api.OpenRoundResponse], error) {
	return c.openRound.CallUnary(ctx, req)
}

func (c *TontineServiceClient) RecordPayment(ctx context.Context, req *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.RecordPaymentResponse], error) {
	return c.recordPayment.CallUnary(ctx, req)
}

func (c *TontineServiceClient) GetRound(ctx context.Context, req *connect.Request[api.GetRoundRequest]) (*connect.Response[api.GetRoundResponse], error) {
	return c.getRound.CallUnary(ctx, req)
}

func (c *TontineServiceClient) IsRoundComplete(ctx context.Context, req *connect.Request[api.IsRoundCompleteRequest]) (*connect.Response[api.IsRoundCompleteResponse], error) {
	return c.isRoundComplete.CallUnary(ctx, req)
}

func (c *TontineServiceClient) RaisePenalty(ctx context.Context, req *connect.Request[api.RaisePenaltyRequest]) (*connect.Response[api.RaisePenaltyResponse], error) {
	return c.raisePenalty.CallUnary(ctx, req)
}

func (c *TontineServiceClient) SettlePenalty(ctx context.Context, req *connect.Request[api.SettlePenaltyRequest]) (*connect.Response[api.SettlePenaltyResponse], error) {
	return c.settlePenalty.CallUnary(ctx, req)
}

func (c *TontineServiceClient) ListPenalties(ctx context.Context, req *connect.Request[api.ListPenaltiesRequest]) (*connect.Response[api.ListPenaltiesResponse], error) {
	return c.listPenalties.CallUnary(ctx, req)
}

func (c *TontineServiceClient) Distribute(ctx context.Context, req *connect.Request[api.DistributeRequest]) (*connect.Response[api.DistributeResponse], error) {
	return c.distribute.CallUnary(ctx, req)
}

func (c *TontineServiceClient) ListDistributions(ctx context.Context, req *connect.Request[api.ListDistributionsRequest]) (*connect.Response[api.ListDistributionsResponse], error) {
	return c.listDistributions.CallUnary(ctx, req)
}

func (c *TontineServiceClient) GetFeeRates(ctx context.Context, req *connect.Request[api.GetFeeRatesRequest]) (*connect.Response[api.GetFeeRatesResponse], error) {
	return c.getFeeRates.CallUnary(ctx, req)
}

func (c *TontineServiceClient) SetFeeRates(ctx context.Context, req *connect.Request[api.SetFeeRatesRequest]) (*connect.Response[api.SetFeeRatesResponse], error) {
	return c.setFeeRates.CallUnary(ctx, req)
}
