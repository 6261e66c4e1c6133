package in_memory

import (
	"context"
	"sync"

	"github.com/mkhachatrian/rubamd-exchange/internal/domain"
	"github.com/mkhachatrian/rubamd-exchange/internal/port"
)

var _ port.RateCache = (*RateCache)(nil)

type RateCache struct {
	mu    sync.Mutex
	rates map[string]domain.Rate
}

func NewRateCache() *RateCache {
	return &RateCache{rates: make(map[string]domain.Rate)}
}

func rateKey(from, to string) string { return from + ":" + to }

func (c *RateCache) SetRate(ctx context.Context, from, to string, r domain.Rate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rates[rateKey(from, to)] = r
	return nil
}

func (c *RateCache) GetRate(ctx context.Context, from, to string) (*domain.Rate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rates[rateKey(from, to)]
	if !ok {
		return nil, nil
	}
	return &r, nil
}
