package models

// ContributionStatus is the payment state of one obligation.
type ContributionStatus string

const (
	ContributionUnvalidated ContributionStatus = "UNVALIDATED"
	ContributionValidated   ContributionStatus = "VALIDATED"
)

// ContributionRound is one member's obligation for one round sequence.
type ContributionRound struct {
	// ID is the unique identifier for the obligation (UUID format).
	ID string

	GroupID  string
	MemberID string

	// Sequence is the round number, starting at 1.
	Sequence int

	// Amount is the required contribution in minor units. It is copied from
	// the group when the round opens.
	Amount int64

	// FeeAmount is the transaction fee charged on top of Amount when the
	// payment was recorded. It is not pooled into escrow.
	FeeAmount int64

	Status ContributionStatus

	// DueAt is the Unix timestamp of the round's cadence deadline.
	DueAt int64

	// PaidAt is the Unix timestamp of validation, 0 while unpaid.
	PaidAt int64
}

// IsValidated reports whether the obligation has been paid.
func (c *ContributionRound) IsValidated() bool {
	return c.Status == ContributionValidated
}
