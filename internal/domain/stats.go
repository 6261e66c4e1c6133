package domain

import "github.com/shopspring/decimal"

// Stats is a read-only aggregation over the resting book. Best-price fields
// are nil when the corresponding side is empty; LastMatchPrice is nil until
// the first match, CurrentRate until the first successful quote.
type Stats struct {
	OrderCount int
	UserCount  int

	BestBuyerPrice      *decimal.Decimal
	BestBuyerThreshold  *decimal.Decimal
	BestSellerPrice     *decimal.Decimal
	BestSellerThreshold *decimal.Decimal

	TotalBuyerAmount  decimal.Decimal
	TotalSellerAmount decimal.Decimal

	LastMatchPrice *decimal.Decimal
	CurrentRate    *Rate
}
