package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mkhachatrian/rubamd-exchange/internal/adapter/in_memory"
	"github.com/mkhachatrian/rubamd-exchange/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type stubSource struct {
	rates map[string]string
	date  string
}

func (s *stubSource) Rate(symbol string) (decimal.Decimal, string, bool) {
	raw, ok := s.rates[symbol]
	if !ok {
		return decimal.Zero, "", false
	}
	return dec(raw), s.date, true
}

func TestConverterCrossRate(t *testing.T) {
	src := &stubSource{
		date:  "2024-01-21 00:00:00+00",
		rates: map[string]string{"RUB": "88.386974", "AMD": "404.741979"},
	}
	c := NewConverter(src)

	r, err := c.GetRate("RUB", "AMD")
	if err != nil {
		t.Fatalf("GetRate: %v", err)
	}
	if want := dec("404.741979").DivRound(dec("88.386974"), 4); !r.Rate.Equal(want) {
		t.Errorf("rate = %s, want %s", r.Rate, want)
	}
	if r.Rate.Exponent() < -4 {
		t.Errorf("rate not quantized to 4 decimals: %s", r.Rate)
	}
	if r.Date != src.date {
		t.Errorf("date = %q, want %q", r.Date, src.date)
	}
}

func TestConverterNoRate(t *testing.T) {
	c := NewConverter(&stubSource{rates: map[string]string{"RUB": "88"}})
	if _, err := c.GetRate("RUB", "AMD"); err == nil {
		t.Fatalf("expected error for missing symbol")
	}

	c = NewConverter(&stubSource{rates: map[string]string{"RUB": "0", "AMD": "404"}})
	if _, err := c.GetRate("RUB", "AMD"); err == nil {
		t.Fatalf("expected error for zero base rate")
	}
}

func TestStaticProvider(t *testing.T) {
	s := NewStaticEmpty()
	if _, err := s.GetRate("RUB", "AMD"); err == nil {
		t.Fatalf("empty provider should report no rate")
	}
	s.SetRate(dec("4.5"))
	r, err := s.GetRate("RUB", "AMD")
	if err != nil {
		t.Fatalf("GetRate: %v", err)
	}
	if !r.Rate.Equal(dec("4.5")) {
		t.Errorf("rate = %s, want 4.5", r.Rate)
	}
}

func TestFreaksClientRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"date":"2024-01-21 00:00:00+00","base":"USD","rates":{"AMD":"9","RUB":"2"}}`))
	}))
	defer srv.Close()

	cache := in_memory.NewRateCache()
	client := NewFreaksClient("test-key", []string{"RUB", "AMD"},
		WithBaseURL(srv.URL), WithRateCache(cache))
	defer client.Close()

	if got := calls.Load(); got != 3 {
		t.Errorf("fetch attempts = %d, want 3", got)
	}
	r, _, ok := client.Rate("AMD")
	if !ok || !r.Equal(dec("9")) {
		t.Fatalf("AMD rate = %s ok=%v, want 9", r, ok)
	}

	conv := NewConverter(client)
	cross, err := conv.GetRate("RUB", "AMD")
	if err != nil {
		t.Fatalf("GetRate: %v", err)
	}
	if !cross.Rate.Equal(dec("4.5")) {
		t.Errorf("cross rate = %s, want 4.5", cross.Rate)
	}

	// successful fetches are written through to the external cache
	cached, err := cache.GetRate(context.Background(), "USD", "RUB")
	if err != nil || cached == nil {
		t.Fatalf("cache miss after successful fetch (err=%v)", err)
	}
	if !cached.Rate.Equal(dec("2")) {
		t.Errorf("cached RUB rate = %s, want 2", cached.Rate)
	}
}

func TestFreaksClientFallsBackToCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx := context.Background()
	cache := in_memory.NewRateCache()
	if err := cache.SetRate(ctx, "USD", "RUB", domain.Rate{Rate: dec("2"), Date: "yesterday"}); err != nil {
		t.Fatal(err)
	}
	if err := cache.SetRate(ctx, "USD", "AMD", domain.Rate{Rate: dec("9"), Date: "yesterday"}); err != nil {
		t.Fatal(err)
	}

	client := NewFreaksClient("test-key", []string{"RUB", "AMD"}, WithBaseURL(srv.URL), WithRateCache(cache))
	defer client.Close()

	r, date, ok := client.Rate("RUB")
	if !ok || !r.Equal(dec("2")) {
		t.Fatalf("RUB rate from cache = %s ok=%v, want 2", r, ok)
	}
	if date != "yesterday" {
		t.Errorf("date = %q, want the cached snapshot's date", date)
	}
}

func TestFreaksClientNoCacheNoRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewFreaksClient("test-key", []string{"RUB", "AMD"}, WithBaseURL(srv.URL))
	defer client.Close()

	if _, _, ok := client.Rate("RUB"); ok {
		t.Fatalf("rate reported despite every fetch failing")
	}
	if _, err := NewConverter(client).GetRate("RUB", "AMD"); err == nil {
		t.Fatalf("converter should degrade to no rate")
	}
}
