// Package api defines the request and response messages of the tontine.v1
// TontineService. Messages travel as JSON.
package api

// Group is a tontine.
type Group struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Amount        int64    `json:"amount"`
	AmountDisplay string   `json:"amount_display"`
	Currency      string   `json:"currency"`
	Cadence       string   `json:"cadence"`
	OrderingMode  string   `json:"ordering_mode,omitempty"`
	Status        string   `json:"status"`
	EscrowBalance int64    `json:"escrow_balance"`
	RotationOrder []string `json:"rotation_order"`
	CurrentRound  int      `json:"current_round"`
	CreatedBy     string   `json:"created_by"`
	CreatedAt     int64    `json:"created_at"`
}

// Member is a user's membership in a group.
type Member struct {
	ID        string `json:"id"`
	GroupID   string `json:"group_id"`
	UserID    string `json:"user_id"`
	WalletID  string `json:"wallet_id"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	InvitedAt int64  `json:"invited_at"`
	JoinedAt  int64  `json:"joined_at,omitempty"`
}

// Contribution is one member's obligation in one round.
type Contribution struct {
	ID        string `json:"id"`
	GroupID   string `json:"group_id"`
	MemberID  string `json:"member_id"`
	Sequence  int    `json:"sequence"`
	Amount    int64  `json:"amount"`
	FeeAmount int64  `json:"fee_amount"`
	Status    string `json:"status"`
	DueAt     int64  `json:"due_at"`
	PaidAt    int64  `json:"paid_at,omitempty"`
}

// Round is the state of one round sequence.
type Round struct {
	GroupID              string          `json:"group_id"`
	Sequence             int             `json:"sequence"`
	BeneficiaryID        string          `json:"beneficiary_id"`
	DueAt                int64           `json:"due_at"`
	Contributions        []*Contribution `json:"contributions"`
	OutstandingMemberIDs []string        `json:"outstanding_member_ids"`
	Complete             bool            `json:"complete"`
	Distribution         *Distribution   `json:"distribution,omitempty"`
}

// Penalty is an obligation raised by the group admin.
type Penalty struct {
	ID            string `json:"id"`
	GroupID       string `json:"group_id"`
	MemberID      string `json:"member_id"`
	RoundSequence int    `json:"round_sequence,omitempty"`
	Amount        int64  `json:"amount"`
	Reason        string `json:"reason"`
	Note          string `json:"note,omitempty"`
	Status        string `json:"status"`
	CreatedBy     string `json:"created_by"`
	CreatedAt     int64  `json:"created_at"`
	PaidAt        int64  `json:"paid_at,omitempty"`
}

// Distribution is the payout of one round.
type Distribution struct {
	ID            string `json:"id"`
	GroupID       string `json:"group_id"`
	Sequence      int    `json:"sequence"`
	BeneficiaryID string `json:"beneficiary_id"`
	Gross         int64  `json:"gross"`
	Fee           int64  `json:"fee"`
	Net           int64  `json:"net"`
	NetDisplay    string `json:"net_display"`
	CreatedAt     int64  `json:"created_at"`
}

type CreateGroupRequest struct {
	Name          string `json:"name"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Cadence       string `json:"cadence"`
	AdminWalletID string `json:"admin_wallet_id"`
}

type CreateGroupResponse struct {
	Group *Group  `json:"group"`
	Admin *Member `json:"admin"`
	// InvitationCode is returned once; only its hash is stored.
	InvitationCode string `json:"invitation_code"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListMembersRequest struct {
	GroupID string `json:"group_id"`
}

type ListMembersResponse struct {
	Members []*Member `json:"members"`
}

type InviteMemberRequest struct {
	GroupID  string `json:"group_id"`
	UserID   string `json:"user_id"`
	WalletID string `json:"wallet_id"`
}

type InviteMemberResponse struct {
	Member *Member `json:"member"`
}

type RespondToInviteRequest struct {
	MemberID string `json:"member_id"`
	// Decision is JOIN or REJECT.
	Decision       string `json:"decision"`
	InvitationCode string `json:"invitation_code,omitempty"`
}

type RespondToInviteResponse struct {
	Member *Member `json:"member"`
}

type ChangeGroupStatusRequest struct {
	GroupID string `json:"group_id"`
	Status  string `json:"status"`
}

type ChangeGroupStatusResponse struct {
	Group *Group `json:"group"`
}

type AssignOrderRequest struct {
	GroupID string `json:"group_id"`
	// Mode is FIXED or RANDOM.
	Mode string `json:"mode"`
	// MemberIDs is the explicit order of a FIXED assignment.
	MemberIDs []string `json:"member_ids,omitempty"`
}

type AssignOrderResponse struct {
	Group *Group `json:"group"`
}

type OpenRoundRequest struct {
	GroupID string `json:"group_id"`
}

type OpenRoundResponse struct {
	Round *Round `json:"round"`
}

type RecordPaymentRequest struct {
	ContributionID string `json:"contribution_id"`
	MemberID       string `json:"member_id,omitempty"`
}

type RecordPaymentResponse struct {
	Contribution     *Contribution `json:"contribution"`
	AlreadyValidated bool          `json:"already_validated"`
	Charged          int64         `json:"charged"`
	WalletBalance    int64         `json:"wallet_balance"`
}

type GetRoundRequest struct {
	GroupID string `json:"group_id"`
	// Sequence 0 selects the current round.
	Sequence int `json:"sequence,omitempty"`
}

type GetRoundResponse struct {
	Round *Round `json:"round"`
}

type IsRoundCompleteRequest struct {
	GroupID  string `json:"group_id"`
	Sequence int    `json:"sequence,omitempty"`
}

type IsRoundCompleteResponse struct {
	Complete bool `json:"complete"`
}

type RaisePenaltyRequest struct {
	GroupID       string `json:"group_id"`
	MemberID      string `json:"member_id"`
	Reason        string `json:"reason"`
	Amount        int64  `json:"amount"`
	Note          string `json:"note,omitempty"`
	RoundSequence int    `json:"round_sequence,omitempty"`
}

type RaisePenaltyResponse struct {
	Penalty *Penalty `json:"penalty"`
}

type SettlePenaltyRequest struct {
	PenaltyID string `json:"penalty_id"`
}

type SettlePenaltyResponse struct {
	Penalty       *Penalty `json:"penalty"`
	AlreadyPaid   bool     `json:"already_paid"`
	WalletBalance int64    `json:"wallet_balance"`
}

type ListPenaltiesRequest struct {
	GroupID string `json:"group_id"`
}

type ListPenaltiesResponse struct {
	Penalties []*Penalty `json:"penalties"`
}

type DistributeRequest struct {
	GroupID string `json:"group_id"`
	// Sequence 0 selects the current round.
	Sequence int `json:"sequence,omitempty"`
}

type DistributeResponse struct {
	Distribution    *Distribution `json:"distribution"`
	AlreadyRecorded bool          `json:"already_recorded"`
	NextRound       *Round        `json:"next_round,omitempty"`
}

type ListDistributionsRequest struct {
	GroupID string `json:"group_id"`
}

type ListDistributionsResponse struct {
	Distributions []*Distribution `json:"distributions"`
}

type GetFeeRatesRequest struct{}

// FeeRates are percentages as decimal strings, e.g. "1.5".
type FeeRates struct {
	TransactionPercent  string `json:"transaction_percent"`
	DistributionPercent string `json:"distribution_percent"`
}

type GetFeeRatesResponse struct {
	Rates *FeeRates `json:"rates"`
}

type SetFeeRatesRequest struct {
	Rates *FeeRates `json:"rates"`
}

type SetFeeRatesResponse struct {
	Rates *FeeRates `json:"rates"`
}
