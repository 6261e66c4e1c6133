package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validOrder() Order {
	return Order{
		User:           User{ID: 1, Name: "alice"},
		Side:           Buy,
		Price:          dec("98.1"),
		RelativeRate:   RelativeRateUnset,
		AmountInitial:  dec("1500"),
		AmountLeft:     dec("1500"),
		MinOpThreshold: dec("100"),
		LifetimeSec:    3600,
		CreationTime:   time.Now().Unix(),
	}
}

func TestValidate(t *testing.T) {
	limit := 48 * time.Hour

	cases := []struct {
		name    string
		mut     func(*Order)
		wantErr error
	}{
		{"valid", func(o *Order) {}, nil},
		{"valid sell", func(o *Order) { o.Side = Sell }, nil},
		{"bad side", func(o *Order) { o.Side = "HOLD" }, ErrValidation},
		{"zero price", func(o *Order) { o.Price = decimal.Zero }, ErrValidation},
		{"negative price", func(o *Order) { o.Price = dec("-1") }, ErrValidation},
		{"five decimals", func(o *Order) { o.Price = dec("98.12345") }, ErrValidation},
		{"four decimals ok", func(o *Order) { o.Price = dec("98.1234") }, nil},
		{"zero amount", func(o *Order) { o.AmountInitial = decimal.Zero }, ErrValidation},
		{"negative threshold", func(o *Order) { o.MinOpThreshold = dec("-5") }, ErrValidation},
		{"threshold above amount", func(o *Order) { o.MinOpThreshold = dec("1501") }, ErrValidation},
		{"zero lifetime", func(o *Order) { o.LifetimeSec = 0 }, ErrValidation},
		{"lifetime at limit", func(o *Order) { o.LifetimeSec = int64(limit / time.Second) }, nil},
		{"lifetime over limit", func(o *Order) { o.LifetimeSec = int64(limit/time.Second) + 1 }, ErrLifetimeExceeded},
		{"relative rate allows zero price", func(o *Order) {
			o.Price = decimal.Zero
			o.RelativeRate = dec("1.05")
		}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := validOrder()
			tc.mut(&o)
			err := o.Validate(limit)
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	o := validOrder()
	o.LifetimeSec = 3600

	o.CreationTime = now.Unix() - 3599
	if o.Expired(now) {
		t.Errorf("order inside its lifetime reported expired")
	}
	o.CreationTime = now.Unix() - 3601
	if !o.Expired(now) {
		t.Errorf("order past its lifetime not reported expired")
	}
}

func TestHasRelativeRate(t *testing.T) {
	o := validOrder()
	if o.HasRelativeRate() {
		t.Errorf("unset sentinel reported as relative")
	}
	o.RelativeRate = dec("0.98")
	if !o.HasRelativeRate() {
		t.Errorf("positive multiplier not reported as relative")
	}
}
