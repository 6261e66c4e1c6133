package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	Sell Side = "SELL"
	Buy  Side = "BUY"
)

// RelativeRateUnset marks an order priced absolutely rather than as a
// multiplier over the live market rate.
var RelativeRateUnset = decimal.NewFromInt(-1)

type User struct {
	ID   int64
	Name string
}

// Order is a standing instruction to exchange RUB for AMD or back.
// Amounts are in base-currency (RUB) units, Price in AMD per RUB.
type Order struct {
	ID             int64 // 0 before the store assigns one
	User           User
	Side           Side
	Price          decimal.Decimal
	RelativeRate   decimal.Decimal
	AmountInitial  decimal.Decimal
	AmountLeft     decimal.Decimal
	MinOpThreshold decimal.Decimal
	LifetimeSec    int64
	CreationTime   int64 // epoch seconds
}

func (o *Order) HasRelativeRate() bool {
	return o.RelativeRate.IsPositive()
}

func (o *Order) Expired(now time.Time) bool {
	return now.Unix()-o.CreationTime > o.LifetimeSec
}

// Validate checks the placement rules. The price rule is relaxed for
// rate-relative orders: their price is computed at the first re-pricing.
func (o *Order) Validate(lifetimeLimit time.Duration) error {
	switch o.Side {
	case Buy, Sell:
	default:
		return fmt.Errorf("%w: invalid side %q", ErrValidation, o.Side)
	}
	if !o.AmountInitial.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if o.HasRelativeRate() {
		if o.Price.IsNegative() {
			return fmt.Errorf("%w: negative price", ErrValidation)
		}
	} else {
		if !o.Price.IsPositive() {
			return fmt.Errorf("%w: price must be positive", ErrValidation)
		}
		if !o.Price.Equal(o.Price.Round(4)) {
			return fmt.Errorf("%w: price has more than four digits after the decimal point", ErrValidation)
		}
	}
	if o.MinOpThreshold.IsNegative() {
		return fmt.Errorf("%w: min_op_threshold cannot be negative", ErrValidation)
	}
	if o.MinOpThreshold.GreaterThan(o.AmountInitial) {
		return fmt.Errorf("%w: min_op_threshold cannot be greater than the amount", ErrValidation)
	}
	if o.LifetimeSec <= 0 {
		return fmt.Errorf("%w: lifetime must be positive", ErrValidation)
	}
	if o.LifetimeSec > int64(lifetimeLimit/time.Second) {
		return fmt.Errorf("%w: order lifetime cannot exceed %v", ErrLifetimeExceeded, lifetimeLimit)
	}
	return nil
}
