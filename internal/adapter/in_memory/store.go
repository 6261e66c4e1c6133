package in_memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mkhachatrian/rubamd-exchange/internal/domain"
	"github.com/mkhachatrian/rubamd-exchange/internal/port"
)

var _ port.OrderStore = (*Store)(nil)

// Store is a map-backed OrderStore for tests and cache-less deployments.
type Store struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]domain.Order

	lastMatchPrice    decimal.Decimal
	hasLastMatchPrice bool
}

func NewStore() *Store {
	return &Store{orders: make(map[int64]domain.Order)}
}

func (s *Store) StoreOrder(ctx context.Context, o domain.Order) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	o.ID = s.nextID
	s.orders[o.ID] = o
	return o, nil
}

func (s *Store) UpdateOrder(ctx context.Context, o domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; !ok {
		return fmt.Errorf("%w: id %d", domain.ErrOrderNotFound, o.ID)
	}
	s.orders[o.ID] = o
	return nil
}

func (s *Store) RemoveOrder(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return fmt.Errorf("%w: id %d", domain.ErrOrderNotFound, id)
	}
	delete(s.orders, id)
	return nil
}

func (s *Store) IterateOrders(ctx context.Context, fn func(domain.Order)) error {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.orders))
	for id := range s.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	orders := make([]domain.Order, 0, len(ids))
	for _, id := range ids {
		orders = append(orders, s.orders[id])
	}
	s.mu.Unlock()

	for _, o := range orders {
		fn(o)
	}
	return nil
}

func (s *Store) GetLastMatchPrice(ctx context.Context) (decimal.Decimal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastMatchPrice, s.hasLastMatchPrice, nil
}

func (s *Store) StoreLastMatchPrice(ctx context.Context, p decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastMatchPrice = p
	s.hasLastMatchPrice = true
	return nil
}

// Len reports the number of persisted orders; test helper.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}
