package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mkhachatrian/rubamd-exchange/internal/domain"
)

// OrderStore is the durable home of the order book plus the single
// last-match-price record. Every call is expected to be transactionally
// consistent on its own; the engine never batches.
type OrderStore interface {
	// StoreOrder persists a new order and returns it with the assigned id.
	StoreOrder(ctx context.Context, o domain.Order) (domain.Order, error)
	UpdateOrder(ctx context.Context, o domain.Order) error
	RemoveOrder(ctx context.Context, id int64) error
	// IterateOrders calls fn for every persisted order; used once at startup
	// to rebuild the in-memory book.
	IterateOrders(ctx context.Context, fn func(domain.Order)) error

	GetLastMatchPrice(ctx context.Context) (decimal.Decimal, bool, error)
	StoreLastMatchPrice(ctx context.Context, p decimal.Decimal) error
}
