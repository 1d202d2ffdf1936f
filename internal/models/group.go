package models

// GroupStatus is the lifecycle state of a group.
type GroupStatus string

const (
	GroupActive    GroupStatus = "ACTIVE"
	GroupSuspended GroupStatus = "SUSPENDED"
	GroupClosed    GroupStatus = "CLOSED"
)

// Valid reports whether s is a known group status.
func (s GroupStatus) Valid() bool {
	switch s {
	case GroupActive, GroupSuspended, GroupClosed:
		return true
	}
	return false
}

// OrderingMode selects how the rotation order is produced.
type OrderingMode string

const (
	// OrderFixed stores an admin-supplied permutation verbatim.
	OrderFixed OrderingMode = "FIXED"
	// OrderRandom stores a seeded shuffle of the active members.
	OrderRandom OrderingMode = "RANDOM"
)

// Valid reports whether m is a known ordering mode.
func (m OrderingMode) Valid() bool {
	return m == OrderFixed || m == OrderRandom
}

// Group represents a tontine.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Market Women Tontine").
	Name string

	// Amount is the fixed per-round contribution in minor units.
	Amount int64

	// Currency is the ISO 4217 code of Amount and EscrowBalance.
	Currency string

	// Cadence is how often a new round is due.
	Cadence Cadence

	// OrderingMode is empty until the rotation order is assigned.
	OrderingMode OrderingMode

	// Status is the lifecycle state. CLOSED is terminal.
	Status GroupStatus

	// EscrowBalance is the pooled, not yet distributed sum of validated
	// contributions for the current round. Never negative.
	EscrowBalance int64

	// RotationOrder is the payout order as member IDs.
	// Round n pays RotationOrder[(n-1) % len(RotationOrder)].
	RotationOrder []string

	// OrderSeed is the seed of the RANDOM shuffle, kept so the order can be
	// reproduced and audited. Zero for FIXED orders.
	OrderSeed uint64

	// CurrentRound is the sequence of the most recently opened round,
	// 0 before the first round is opened.
	CurrentRound int

	// InvitationCodeHash is the bcrypt hash of the group's invitation code.
	InvitationCodeHash string

	// CreatedBy is the user ID of the creating admin.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Beneficiary returns the member due the payout of round sequence seq.
// It returns false if no order is assigned or seq is not positive.
func (g *Group) Beneficiary(seq int) (string, bool) {
	if len(g.RotationOrder) == 0 || seq < 1 {
		return "", false
	}
	return g.RotationOrder[(seq-1)%len(g.RotationOrder)], true
}

// OrderLocked reports whether the rotation order may no longer be replaced.
func (g *Group) OrderLocked() bool {
	return g.CurrentRound > 0
}
