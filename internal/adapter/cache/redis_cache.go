package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/mkhachatrian/rubamd-exchange/internal/domain"
	"github.com/mkhachatrian/rubamd-exchange/internal/port"
)

var _ port.RateCache = (*RedisRateCache)(nil)

// RedisRateCache keeps the last good exchange-rate snapshot so a restart or a
// quote-API outage degrades to a stale rate instead of no rate at all.
type RedisRateCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRateCache(addr, password string, db int, ttl time.Duration) *RedisRateCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisRateCache{client: rdb, ttl: ttl}
}

func key(from, to string) string { return "rate:" + from + ":" + to }

type rateRecord struct {
	Rate string `json:"rate"`
	Date string `json:"date"`
}

func (c *RedisRateCache) SetRate(ctx context.Context, from, to string, r domain.Rate) error {
	b, err := json.Marshal(rateRecord{Rate: r.Rate.String(), Date: r.Date})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(from, to), b, c.ttl).Err()
}

func (c *RedisRateCache) GetRate(ctx context.Context, from, to string) (*domain.Rate, error) {
	b, err := c.client.Get(ctx, key(from, to)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec rateRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(rec.Rate)
	if err != nil {
		return nil, err
	}
	return &domain.Rate{Rate: d, Date: rec.Date}, nil
}

func (c *RedisRateCache) Close() error {
	return c.client.Close()
}
