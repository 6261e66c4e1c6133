package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mkhachatrian/rubamd-exchange/internal/domain"
	"github.com/mkhachatrian/rubamd-exchange/internal/port"
)

const (
	defaultBaseURL   = "https://api.currencyfreaks.com"
	refreshInterval  = 6 * time.Hour
	maxFetchAttempts = 3
)

// FreaksClient fetches USD-based quotes from the CurrencyFreaks API and keeps
// them in memory, refreshing on a fixed interval in the background. A failed
// refresh keeps the previous snapshot (stale beats missing); when nothing has
// been fetched yet, the optional RateCache supplies the last rate a previous
// process saw.
type FreaksClient struct {
	apiKey  string
	baseURL string
	symbols []string
	httpc   *http.Client
	cache   port.RateCache
	log     *zap.Logger

	mu    sync.RWMutex
	rates map[string]decimal.Decimal
	date  string

	stop     chan struct{}
	stopOnce sync.Once
}

type FreaksOption func(*FreaksClient)

func WithBaseURL(u string) FreaksOption {
	return func(c *FreaksClient) { c.baseURL = u }
}

func WithRateCache(cache port.RateCache) FreaksOption {
	return func(c *FreaksClient) { c.cache = cache }
}

func WithFreaksLogger(log *zap.Logger) FreaksOption {
	return func(c *FreaksClient) { c.log = log }
}

// NewFreaksClient fetches the initial snapshot synchronously and starts the
// periodic refresh. Call Close to stop the background loop.
func NewFreaksClient(apiKey string, symbols []string, opts ...FreaksOption) *FreaksClient {
	c := &FreaksClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		symbols: symbols,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		log:     zap.NewNop(),
		rates:   make(map[string]decimal.Decimal),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.update(context.Background())
	go c.refreshLoop()
	return c
}

func (c *FreaksClient) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Rate returns the cached USD-based quote for one currency symbol.
func (c *FreaksClient) Rate(symbol string) (decimal.Decimal, string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.rates[symbol]
	return r, c.date, ok
}

func (c *FreaksClient) refreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.update(context.Background())
		case <-c.stop:
			return
		}
	}
}

type freaksResponse struct {
	Date  string            `json:"date"`
	Base  string            `json:"base"`
	Rates map[string]string `json:"rates"`
}

// update tries up to three fetches, then falls back to the external cache if
// no snapshot is held yet. Exhaustion is logged, never propagated.
func (c *FreaksClient) update(ctx context.Context) {
	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		resp, err := c.fetch(ctx)
		if err != nil {
			lastErr = err
			c.log.Warn("currency rates fetch failed",
				zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		c.apply(ctx, resp)
		return
	}
	c.log.Error("currency rates update failed", zap.Error(lastErr))
	c.fallbackToCache(ctx)
}

func (c *FreaksClient) fetch(ctx context.Context) (*freaksResponse, error) {
	u := fmt.Sprintf("%s/v2.0/rates/latest?apikey=%s&symbols=%s",
		c.baseURL, url.QueryEscape(c.apiKey), strings.Join(c.symbols, ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("response code %d", res.StatusCode)
	}
	var parsed freaksResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (c *FreaksClient) apply(ctx context.Context, resp *freaksResponse) {
	parsed := make(map[string]decimal.Decimal, len(resp.Rates))
	for sym, raw := range resp.Rates {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			c.log.Warn("unparseable rate", zap.String("symbol", sym), zap.String("value", raw))
			continue
		}
		parsed[sym] = d
	}

	c.mu.Lock()
	c.rates = parsed
	c.date = resp.Date
	c.mu.Unlock()

	if c.cache != nil {
		for sym, d := range parsed {
			if err := c.cache.SetRate(ctx, "USD", sym, domain.Rate{Rate: d, Date: resp.Date}); err != nil {
				c.log.Warn("rate cache write failed", zap.Error(err))
			}
		}
	}
}

// fallbackToCache fills the in-memory snapshot from the external cache, but
// only when there is nothing fresher already held.
func (c *FreaksClient) fallbackToCache(ctx context.Context) {
	if c.cache == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.rates) > 0 {
		return
	}
	for _, sym := range c.symbols {
		r, err := c.cache.GetRate(ctx, "USD", sym)
		if err != nil || r == nil {
			continue
		}
		c.rates[sym] = r.Rate
		c.date = r.Date
	}
	if len(c.rates) > 0 {
		c.log.Info("using cached currency rates", zap.String("date", c.date))
	}
}
