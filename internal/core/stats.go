package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mkhachatrian/rubamd-exchange/internal/domain"
)

// GetStats aggregates the resting book. It re-prices rate-relative orders
// first so the numbers reflect live prices, but performs no other mutation.
func (e *Engine) GetStats(ctx context.Context) domain.Stats {
	if err := e.repriceAll(ctx); err != nil {
		e.log.Warn("re-pricing during stats read failed", zap.Error(err))
	}

	st := domain.Stats{
		OrderCount:        len(e.orders),
		LastMatchPrice:    e.lastMatchPrice,
		CurrentRate:       e.currentRate,
		TotalBuyerAmount:  decimal.Zero,
		TotalSellerAmount: decimal.Zero,
	}

	users := make(map[int64]struct{})
	for _, o := range e.orders {
		users[o.User.ID] = struct{}{}
		switch o.Side {
		case domain.Buy:
			st.TotalBuyerAmount = st.TotalBuyerAmount.Add(o.AmountLeft)
			if st.BestBuyerPrice == nil || o.Price.GreaterThan(*st.BestBuyerPrice) {
				p, th := o.Price, o.MinOpThreshold
				st.BestBuyerPrice, st.BestBuyerThreshold = &p, &th
			}
		case domain.Sell:
			st.TotalSellerAmount = st.TotalSellerAmount.Add(o.AmountLeft)
			if st.BestSellerPrice == nil || o.Price.LessThan(*st.BestSellerPrice) {
				p, th := o.Price, o.MinOpThreshold
				st.BestSellerPrice, st.BestSellerThreshold = &p, &th
			}
		}
	}
	st.UserCount = len(users)
	return st
}

// RenderStats builds the human-readable summary hosts show to users.
func RenderStats(st domain.Stats) string {
	var b strings.Builder
	if st.BestBuyerPrice != nil {
		fmt.Fprintf(&b, "best buyer:\n  * price: %s AMD/RUB\n  * min_op_threshold: %s RUB",
			st.BestBuyerPrice, st.BestBuyerThreshold)
	} else {
		b.WriteString("No buyers :(")
	}
	b.WriteString("\n\n")
	if st.BestSellerPrice != nil {
		fmt.Fprintf(&b, "best seller:\n  * price: %s AMD/RUB\n  * min_op_threshold: %s RUB",
			st.BestSellerPrice, st.BestSellerThreshold)
	} else {
		b.WriteString("No sellers :(")
	}
	return b.String()
}
