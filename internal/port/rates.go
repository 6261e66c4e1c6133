package port

import (
	"context"

	"github.com/mkhachatrian/rubamd-exchange/internal/domain"
)

// RateProvider supplies the current conversion rate between two currencies.
// Implementations return domain.ErrNoRate when no quote is available; the
// engine treats that as "skip re-pricing this pass".
type RateProvider interface {
	GetRate(from, to string) (domain.Rate, error)
}

// RateCache keeps the last good rate snapshot across restarts and quote-API
// outages.
type RateCache interface {
	SetRate(ctx context.Context, from, to string, r domain.Rate) error
	GetRate(ctx context.Context, from, to string) (*domain.Rate, error)
}

// NotificationSink receives one callback per completed match. It is owned by
// the embedding host, not by the engine.
type NotificationSink interface {
	OnMatch(m domain.Match)
}
