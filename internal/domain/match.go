package domain

import "github.com/shopspring/decimal"

// Match records one matching event. SellOrder and BuyOrder are snapshots of
// both sides taken immediately before the fill.
type Match struct {
	ID        string
	SellOrder Order
	BuyOrder  Order
	Price     decimal.Decimal
	Amount    decimal.Decimal
}
