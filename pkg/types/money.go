package types

import "github.com/shopspring/decimal"

// FormatCents renders an integer cent amount as a fixed two-decimal string.
func FormatCents(cents int64) string {
	return decimal.NewFromInt(cents).Shift(-2).StringFixed(2)
}
