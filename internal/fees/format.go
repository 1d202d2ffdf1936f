package fees

import "github.com/shopspring/decimal"

// zeroDecimal lists ISO 4217 currencies without a minor unit.
var zeroDecimal = map[string]bool{
	"XOF": true,
	"XAF": true,
	"GNF": true,
	"KMF": true,
	"RWF": true,
	"UGX": true,
	"JPY": true,
}

// Format renders an amount in minor units for logs and notification memos,
// e.g. Format(150050, "EUR") == "1500.50 EUR".
func Format(amount int64, currency string) string {
	if zeroDecimal[currency] {
		return decimal.NewFromInt(amount).String() + " " + currency
	}
	return decimal.New(amount, -2).StringFixed(2) + " " + currency
}
