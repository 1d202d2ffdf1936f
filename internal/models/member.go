package models

// Role is a member's authority within a group.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// MemberStatus is the membership lifecycle state.
type MemberStatus string

const (
	MemberPending  MemberStatus = "PENDING"
	MemberActive   MemberStatus = "ACTIVE"
	MemberRejected MemberStatus = "REJECTED"
)

// Member links a user to a group.
type Member struct {
	// ID is the unique identifier for the membership (UUID format).
	ID string

	// GroupID is the group this membership belongs to.
	GroupID string

	// UserID is the external user reference.
	UserID string

	// WalletID is the wallet debited for contributions and penalties and
	// credited with distributions.
	WalletID string

	Role   Role
	Status MemberStatus

	// InvitedAt is the Unix timestamp of the invitation.
	InvitedAt int64

	// JoinedAt is the Unix timestamp of activation, 0 while PENDING.
	JoinedAt int64
}

// IsAdmin reports whether m is the group admin.
func (m *Member) IsAdmin() bool {
	return m.Role == RoleAdmin
}

// IsActive reports whether m has obligations and may receive payouts.
func (m *Member) IsActive() bool {
	return m.Status == MemberActive
}
