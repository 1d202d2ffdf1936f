package fees

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDistributionConservation verifies no minor unit is created or lost.
// Property: fee + net == gross and 0 <= fee <= gross.
func TestDistributionConservation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("fee plus net equals gross", prop.ForAll(
		func(gross int64, bps int64) bool {
			fee, net, err := SplitDistribution(gross, Rate(bps))
			if err != nil {
				return false
			}
			return fee+net == gross && fee >= 0 && fee <= gross
		},
		gen.Int64Range(0, 1_000_000_000_000),
		gen.Int64Range(0, int64(MaxRate)),
	))

	properties.TestingRun(t)
}

// TestFeeDeterminism verifies repeated runs never drift.
// Property: TransactionFee(a, r) is stable and monotonic in a.
func TestFeeDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("fee is deterministic and monotonic", prop.ForAll(
		func(amount int64, bps int64) bool {
			a, errA := TransactionFee(amount, Rate(bps))
			b, errB := TransactionFee(amount, Rate(bps))
			c, errC := TransactionFee(amount+1, Rate(bps))
			if errA != nil || errB != nil || errC != nil {
				return false
			}
			return a == b && c >= a
		},
		gen.Int64Range(0, 10_000_000_000),
		gen.Int64Range(0, int64(MaxRate)),
	))

	properties.TestingRun(t)
}
