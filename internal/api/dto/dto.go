package dto

import "github.com/shopspring/decimal"

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type PlaceOrderRequest struct {
	UserID         int64           `json:"user_id" binding:"required"`
	UserName       string          `json:"user_name"`
	Side           Side            `json:"side" binding:"required"`
	Price          decimal.Decimal `json:"price,omitempty"`
	RelativeRate   decimal.Decimal `json:"relative_rate,omitempty"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	MinOpThreshold decimal.Decimal `json:"min_op_threshold,omitempty"`
	LifetimeSec    int64           `json:"lifetime_sec" binding:"required"`
}

type PlaceOrderResponse struct {
	OrderID int64  `json:"order_id"`
	Message string `json:"message,omitempty"`
}

type CancelOrderRequest struct {
	OrderID int64 `json:"order_id" binding:"required"`
	UserID  int64 `json:"user_id" binding:"required"`
}

type CancelOrderResponse struct {
	OrderID   int64  `json:"order_id"`
	Cancelled bool   `json:"cancelled"`
	Message   string `json:"message,omitempty"`
}

type ListOrdersResponse struct {
	Orders []Order `json:"orders"`
}

type Order struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	UserName       string          `json:"user_name"`
	Side           Side            `json:"side"`
	Price          decimal.Decimal `json:"price"`
	RelativeRate   decimal.Decimal `json:"relative_rate"`
	AmountInitial  decimal.Decimal `json:"amount_initial"`
	AmountLeft     decimal.Decimal `json:"amount_left"`
	MinOpThreshold decimal.Decimal `json:"min_op_threshold"`
	LifetimeSec    int64           `json:"lifetime_sec"`
	CreationTime   int64           `json:"creation_time"`
}

type StatsResponse struct {
	OrderCount int `json:"order_cnt"`
	UserCount  int `json:"user_cnt"`

	BestBuyerPrice      *decimal.Decimal `json:"max_buyer_price,omitempty"`
	BestBuyerThreshold  *decimal.Decimal `json:"max_buyer_min_op_threshold,omitempty"`
	BestSellerPrice     *decimal.Decimal `json:"min_seller_price,omitempty"`
	BestSellerThreshold *decimal.Decimal `json:"min_seller_min_op_threshold,omitempty"`

	TotalBuyerAmount  decimal.Decimal `json:"total_buyer_amount"`
	TotalSellerAmount decimal.Decimal `json:"total_seller_amount"`

	LastMatchPrice *decimal.Decimal `json:"last_match_price,omitempty"`
	CurrentRate    *string          `json:"current_rate,omitempty"`
	RateDate       *string          `json:"rate_date,omitempty"`

	Text string `json:"text"`
}
