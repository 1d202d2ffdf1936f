package models

// Distribution records the payout of one round. There is at most one per
// (GroupID, Sequence) and its amounts are never recomputed.
type Distribution struct {
	ID            string
	GroupID       string
	Sequence      int
	BeneficiaryID string

	// Gross is the escrow balance at distribution time.
	Gross int64
	// Fee is the distribution fee withheld from Gross.
	Fee int64
	// Net is the amount credited to the beneficiary. Net == Gross - Fee.
	Net int64

	CreatedAt int64
}
