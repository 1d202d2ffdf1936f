package models

// PenaltyReason classifies why a penalty was raised.
type PenaltyReason string

const (
	PenaltyLate    PenaltyReason = "LATE"
	PenaltyAbsence PenaltyReason = "ABSENCE"
	PenaltyOther   PenaltyReason = "OTHER"
)

// Valid reports whether r is a known reason.
func (r PenaltyReason) Valid() bool {
	switch r {
	case PenaltyLate, PenaltyAbsence, PenaltyOther:
		return true
	}
	return false
}

// PenaltyStatus is the settlement state of a penalty.
type PenaltyStatus string

const (
	PenaltyUnpaid PenaltyStatus = "UNPAID"
	PenaltyPaid   PenaltyStatus = "PAID"
)

// Penalty is a monetary obligation raised by the admin against a member.
// It is immutable once created except for the UNPAID -> PAID transition.
type Penalty struct {
	ID       string
	GroupID  string
	MemberID string

	// RoundSequence is the originating round, 0 if none.
	RoundSequence int

	Amount int64
	Reason PenaltyReason
	Note   string
	Status PenaltyStatus

	// CreatedBy is the user ID of the admin who raised the penalty.
	CreatedBy string
	CreatedAt int64
	PaidAt    int64
}

// IsPaid reports whether the penalty has been settled.
func (p *Penalty) IsPaid() bool {
	return p.Status == PenaltyPaid
}
