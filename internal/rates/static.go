package rates

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mkhachatrian/rubamd-exchange/internal/domain"
	"github.com/mkhachatrian/rubamd-exchange/internal/port"
)

var _ port.RateProvider = (*Static)(nil)

// Static is a deterministic fixed-rate provider for tests and offline runs.
type Static struct {
	mu   sync.Mutex
	rate *domain.Rate
}

func NewStatic(rate decimal.Decimal) *Static {
	return &Static{rate: &domain.Rate{Rate: rate, Date: "static"}}
}

// NewStaticEmpty starts with no rate; the engine will skip re-pricing until
// SetRate is called.
func NewStaticEmpty() *Static {
	return &Static{}
}

func (s *Static) SetRate(rate decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = &domain.Rate{Rate: rate, Date: "static"}
}

func (s *Static) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = nil
}

func (s *Static) GetRate(from, to string) (domain.Rate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rate == nil {
		return domain.Rate{}, domain.ErrNoRate
	}
	return *s.rate, nil
}
