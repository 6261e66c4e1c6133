package rates

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mkhachatrian/rubamd-exchange/internal/domain"
	"github.com/mkhachatrian/rubamd-exchange/internal/port"
)

// QuoteSource yields USD-based quotes per currency symbol.
type QuoteSource interface {
	Rate(symbol string) (decimal.Decimal, string, bool)
}

var _ port.RateProvider = (*Converter)(nil)

// Converter derives a cross rate (to/from) from a QuoteSource, quantized to
// four decimal places.
type Converter struct {
	source QuoteSource
}

func NewConverter(source QuoteSource) *Converter {
	return &Converter{source: source}
}

func (c *Converter) GetRate(from, to string) (domain.Rate, error) {
	fromRate, _, okFrom := c.source.Rate(from)
	toRate, date, okTo := c.source.Rate(to)
	if !okFrom || !okTo || !fromRate.IsPositive() {
		return domain.Rate{}, fmt.Errorf("%w: %s/%s", domain.ErrNoRate, from, to)
	}
	return domain.Rate{
		Rate: toRate.DivRound(fromRate, 4),
		Date: date,
	}, nil
}
