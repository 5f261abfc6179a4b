package models

import (
	"github.com/shopspring/decimal"
)

// DecimalFromString parses a configured decimal value, treating anything
// unparseable as zero. Used for config knobs like the minimum withdrawal
// and the default brokerage percentage, where zero is a safe fallback.
func DecimalFromString(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}
