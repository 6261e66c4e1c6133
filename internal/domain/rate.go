package domain

import "github.com/shopspring/decimal"

// Rate is one conversion-rate snapshot as reported by the quote source.
type Rate struct {
	Rate decimal.Decimal
	Date string
}
