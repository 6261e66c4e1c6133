package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mkhachatrian/rubamd-exchange/internal/domain"
	"github.com/mkhachatrian/rubamd-exchange/internal/port"
)

const DefaultLifetimeLimit = 48 * time.Hour

const (
	baseCurrency  = "RUB"
	quoteCurrency = "AMD"
)

// Engine owns the in-memory order book and implements placement, expiry and
// matching. It is not internally synchronized: at most one logical caller may
// drive it at a time, and hosts embedding it in a concurrent server must
// serialize access themselves.
type Engine struct {
	store port.OrderStore
	rates port.RateProvider
	sink  port.NotificationSink
	log   *zap.Logger

	now           func() time.Time
	lifetimeLimit time.Duration

	orders         map[int64]*domain.Order
	lastMatchPrice *decimal.Decimal
	currentRate    *domain.Rate
}

type Option func(*Engine)

func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLifetimeLimit(limit time.Duration) Option {
	return func(e *Engine) { e.lifetimeLimit = limit }
}

// New builds an engine over a store, a rate provider and a match sink, and
// rebuilds the book from the store.
func New(ctx context.Context, store port.OrderStore, rates port.RateProvider, sink port.NotificationSink, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:         store,
		rates:         rates,
		sink:          sink,
		log:           zap.NewNop(),
		now:           time.Now,
		lifetimeLimit: DefaultLifetimeLimit,
		orders:        make(map[int64]*domain.Order),
	}
	for _, opt := range opts {
		opt(e)
	}

	err := store.IterateOrders(ctx, func(o domain.Order) {
		e.orders[o.ID] = &o
	})
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	p, ok, err := store.GetLastMatchPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load last match price: %w", err)
	}
	if ok {
		e.lastMatchPrice = &p
	}
	e.log.Info("order book loaded", zap.Int("orders", len(e.orders)))
	return e, nil
}

// PlaceOrder validates and persists a new order, then runs re-pricing, the
// expiry sweep and one matching pass. The returned order carries the id
// assigned by the store and reflects its state as of insertion; matching in
// the same call may already have reduced or removed it.
func (e *Engine) PlaceOrder(ctx context.Context, o domain.Order) (domain.Order, error) {
	if o.RelativeRate.IsZero() {
		o.RelativeRate = domain.RelativeRateUnset
	}
	if o.AmountLeft.IsZero() {
		o.AmountLeft = o.AmountInitial
	}
	if o.CreationTime == 0 {
		o.CreationTime = e.now().Unix()
	}
	if err := o.Validate(e.lifetimeLimit); err != nil {
		return domain.Order{}, err
	}

	stored, err := e.store.StoreOrder(ctx, o)
	if err != nil {
		return domain.Order{}, fmt.Errorf("store order: %w", err)
	}
	entry := stored
	e.orders[stored.ID] = &entry
	e.log.Debug("order placed",
		zap.Int64("id", stored.ID),
		zap.Int64("user", stored.User.ID),
		zap.String("side", string(stored.Side)))

	if err := e.repriceAll(ctx); err != nil {
		return stored, err
	}
	if err := e.sweepExpired(ctx); err != nil {
		return stored, err
	}
	if err := e.matchPass(ctx); err != nil {
		return stored, err
	}
	return stored, nil
}

// RemoveOrder cancels a resting order. Removing an unknown id is an error;
// idempotency is the caller's responsibility.
func (e *Engine) RemoveOrder(ctx context.Context, id int64) error {
	if _, ok := e.orders[id]; !ok {
		return fmt.Errorf("%w: id %d", domain.ErrOrderNotFound, id)
	}
	return e.removeResting(ctx, id)
}

func (e *Engine) ListOrdersForUser(userID int64) []domain.Order {
	var res []domain.Order
	for _, o := range e.orders {
		if o.User.ID == userID {
			res = append(res, *o)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// sweepExpired removes every order whose age exceeds its lifetime. Each
// removal is independent; order does not matter.
func (e *Engine) sweepExpired(ctx context.Context) error {
	now := e.now()
	var expired []int64
	for id, o := range e.orders {
		if o.Expired(now) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		e.log.Debug("order expired", zap.Int64("id", id))
		if err := e.removeResting(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// repriceAll refreshes the engine's rate snapshot and recomputes the price of
// every rate-relative order. A missing rate skips the pass; it is never an
// error to the caller.
func (e *Engine) repriceAll(ctx context.Context) error {
	rate, err := e.rates.GetRate(baseCurrency, quoteCurrency)
	if err != nil {
		if !errors.Is(err, domain.ErrNoRate) {
			e.log.Warn("rate fetch failed", zap.Error(err))
		}
		e.currentRate = nil
		return nil
	}
	e.currentRate = &rate

	for _, o := range e.orders {
		if !o.HasRelativeRate() {
			continue
		}
		p := rate.Rate.Mul(o.RelativeRate).Round(4)
		if p.Equal(o.Price) {
			continue
		}
		o.Price = p
		if err := e.store.UpdateOrder(ctx, *o); err != nil {
			return fmt.Errorf("reprice order %d: %w", o.ID, err)
		}
	}
	return nil
}

// matchPass runs a single forward sweep over sellers x buyers, both ordered
// by creation time (oldest first). The pass is not repeated to a fixed point:
// pairs that become eligible only through mutations earlier in the same pass
// wait until the next order arrives.
func (e *Engine) matchPass(ctx context.Context) error {
	sellers := e.sideOrders(domain.Sell)
	buyers := e.sideOrders(domain.Buy)
	e.log.Debug("match pass", zap.Int("sellers", len(sellers)), zap.Int("buyers", len(buyers)))

	for _, seller := range sellers {
		for _, buyer := range buyers {
			if seller.AmountLeft.Sign() <= 0 {
				break
			}
			if buyer.AmountLeft.Sign() <= 0 {
				continue
			}
			if !seller.Price.IsPositive() || !buyer.Price.IsPositive() {
				// rate-relative order waiting for its first quote
				continue
			}
			if buyer.Price.LessThan(seller.Price) {
				continue
			}
			if seller.AmountLeft.LessThan(buyer.MinOpThreshold) ||
				buyer.AmountLeft.LessThan(seller.MinOpThreshold) {
				continue
			}

			amount := decimal.Min(buyer.AmountLeft, seller.AmountLeft)
			price := seller.Price.Add(buyer.Price).Div(decimal.NewFromInt(2)).Round(4)
			match := domain.Match{
				ID:        uuid.NewString(),
				SellOrder: *seller,
				BuyOrder:  *buyer,
				Price:     price,
				Amount:    amount,
			}

			seller.AmountLeft = seller.AmountLeft.Sub(amount)
			buyer.AmountLeft = buyer.AmountLeft.Sub(amount)
			if err := e.settleSide(ctx, seller); err != nil {
				return err
			}
			if err := e.settleSide(ctx, buyer); err != nil {
				return err
			}

			e.lastMatchPrice = &price
			if err := e.store.StoreLastMatchPrice(ctx, price); err != nil {
				return fmt.Errorf("store last match price: %w", err)
			}

			e.log.Debug("match",
				zap.Int64("sell_order", match.SellOrder.ID),
				zap.Int64("buy_order", match.BuyOrder.ID),
				zap.String("price", price.String()),
				zap.String("amount", amount.String()))
			if e.sink != nil {
				e.sink.OnMatch(match)
			}
		}
	}
	return nil
}

// settleSide persists one side of a fresh match: exhausted orders leave the
// book, partially filled ones get their threshold clamped to what is left.
func (e *Engine) settleSide(ctx context.Context, o *domain.Order) error {
	if o.AmountLeft.Sign() <= 0 {
		return e.removeResting(ctx, o.ID)
	}
	if o.MinOpThreshold.GreaterThan(o.AmountLeft) {
		o.MinOpThreshold = o.AmountLeft
	}
	if err := e.store.UpdateOrder(ctx, *o); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			// The book and the store disagree about a live id. Data is
			// corrupt; there is nothing sane to recover to.
			e.log.Error("order in memory but not in store", zap.Int64("id", o.ID))
			panic(err)
		}
		return fmt.Errorf("update order %d: %w", o.ID, err)
	}
	return nil
}

func (e *Engine) removeResting(ctx context.Context, id int64) error {
	delete(e.orders, id)
	if err := e.store.RemoveOrder(ctx, id); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			e.log.Error("order in memory but not in store", zap.Int64("id", id))
			panic(err)
		}
		return fmt.Errorf("remove order %d: %w", id, err)
	}
	return nil
}

// sideOrders returns the resting orders of one side ordered by creation time
// ascending. Time priority drives iteration order; price priority is enforced
// by the eligibility test, not by the sort.
func (e *Engine) sideOrders(side domain.Side) []*domain.Order {
	var res []*domain.Order
	for _, o := range e.orders {
		if o.Side == side {
			res = append(res, o)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreationTime != res[j].CreationTime {
			return res[i].CreationTime < res[j].CreationTime
		}
		return res[i].ID < res[j].ID
	})
	return res
}
