package in_memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mkhachatrian/rubamd-exchange/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleOrder() domain.Order {
	return domain.Order{
		User:           domain.User{ID: 7, Name: "bob"},
		Side:           domain.Sell,
		Price:          dec("98.1"),
		RelativeRate:   domain.RelativeRateUnset,
		AmountInitial:  dec("1500"),
		AmountLeft:     dec("1500"),
		MinOpThreshold: dec("100"),
		LifetimeSec:    3600,
		CreationTime:   1700000000,
	}
}

func TestStoreAssignsIDs(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	a, err := s.StoreOrder(ctx, sampleOrder())
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.StoreOrder(ctx, sampleOrder())
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == 0 || b.ID == 0 || a.ID == b.ID {
		t.Errorf("ids not unique and non-zero: %d, %d", a.ID, b.ID)
	}
}

func TestUpdateAndRemove(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	o, err := s.StoreOrder(ctx, sampleOrder())
	if err != nil {
		t.Fatal(err)
	}

	o.AmountLeft = dec("500")
	if err := s.UpdateOrder(ctx, o); err != nil {
		t.Fatalf("update: %v", err)
	}
	var got *domain.Order
	if err := s.IterateOrders(ctx, func(it domain.Order) { got = &it }); err != nil {
		t.Fatal(err)
	}
	if got == nil || !got.AmountLeft.Equal(dec("500")) {
		t.Errorf("update not visible via iterate: %+v", got)
	}

	if err := s.RemoveOrder(ctx, o.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.RemoveOrder(ctx, o.ID); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("remove missing: err = %v, want ErrOrderNotFound", err)
	}
	if err := s.UpdateOrder(ctx, o); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("update missing: err = %v, want ErrOrderNotFound", err)
	}
}

func TestIterateOrdersInIDOrder(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := s.StoreOrder(ctx, sampleOrder()); err != nil {
			t.Fatal(err)
		}
	}

	var ids []int64
	if err := s.IterateOrders(ctx, func(o domain.Order) { ids = append(ids, o.ID) }); err != nil {
		t.Fatal(err)
	}
	if len(ids) != 5 {
		t.Fatalf("iterated %d orders, want 5", len(ids))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("ids out of order: %v", ids)
		}
	}
}

func TestLastMatchPrice(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if _, ok, err := s.GetLastMatchPrice(ctx); err != nil || ok {
		t.Fatalf("fresh store should have no last match price (ok=%v err=%v)", ok, err)
	}
	if err := s.StoreLastMatchPrice(ctx, dec("98.15")); err != nil {
		t.Fatal(err)
	}
	p, ok, err := s.GetLastMatchPrice(ctx)
	if err != nil || !ok {
		t.Fatalf("read back failed (ok=%v err=%v)", ok, err)
	}
	if !p.Equal(dec("98.15")) {
		t.Errorf("price = %s, want 98.15", p)
	}
}
