// Package fees is the single fee policy of the engine.
//
// Percentages are carried as basis points so every computation stays in
// integer minor units:
//
//	fee = round_half_up(amount * percent / 100)
//	    = (amount * bps + 5000) / 10000
package fees

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Rate is a percentage in basis points: 1% == 100, 100% == 10000.
type Rate int64

// MaxRate is 100%.
const MaxRate Rate = 10000

// MaxAmount is the largest amount a fee can be computed on.
const MaxAmount = (math.MaxInt64 - int64(MaxRate)/2) / int64(MaxRate)

var (
	ErrInvalidRate   = errors.New("fee rate must be between 0 and 100 percent with at most two decimals")
	ErrInvalidAmount = errors.New("amount must be non-negative")
	ErrOverflow      = errors.New("amount too large for fee computation")
)

// Schedule is the pair of rates applied by the engine.
type Schedule struct {
	// Transaction is charged on top of every contribution.
	Transaction Rate
	// Distribution is withheld from every payout.
	Distribution Rate
}

// ParseRate parses a decimal percentage such as "1.5" or "10".
func ParseRate(s string) (Rate, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRate, s)
	}
	bps := d.Shift(2)
	if !bps.IsInteger() || bps.IsNegative() || bps.GreaterThan(decimal.NewFromInt(int64(MaxRate))) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRate, s)
	}
	return Rate(bps.IntPart()), nil
}

// MustParseRate is ParseRate for constants and tests.
func MustParseRate(s string) Rate {
	r, err := ParseRate(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Valid reports whether r lies within [0, MaxRate].
func (r Rate) Valid() bool {
	return r >= 0 && r <= MaxRate
}

// String renders the rate as a percentage, e.g. "1.5".
func (r Rate) String() string {
	return decimal.New(int64(r), -2).String()
}

// TransactionFee is the fee charged on top of a contribution of amount.
func TransactionFee(amount int64, rate Rate) (int64, error) {
	return apply(amount, rate)
}

// DistributionFee is the fee withheld from a payout of gross.
func DistributionFee(gross int64, rate Rate) (int64, error) {
	return apply(gross, rate)
}

// SplitDistribution returns the fee and the net payout of gross.
// fee + net == gross always holds.
func SplitDistribution(gross int64, rate Rate) (fee, net int64, err error) {
	fee, err = DistributionFee(gross, rate)
	if err != nil {
		return 0, 0, err
	}
	return fee, gross - fee, nil
}

func apply(amount int64, rate Rate) (int64, error) {
	if !rate.Valid() {
		return 0, ErrInvalidRate
	}
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	if amount > MaxAmount {
		return 0, ErrOverflow
	}
	return (amount*int64(rate) + int64(MaxRate)/2) / int64(MaxRate), nil
}
