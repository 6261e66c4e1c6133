package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mkhachatrian/rubamd-exchange/internal/adapter/cache"
	"github.com/mkhachatrian/rubamd-exchange/internal/adapter/pg"
	httpapi "github.com/mkhachatrian/rubamd-exchange/internal/api/http"
	"github.com/mkhachatrian/rubamd-exchange/internal/config"
	"github.com/mkhachatrian/rubamd-exchange/internal/core"
	"github.com/mkhachatrian/rubamd-exchange/internal/domain"
	"github.com/mkhachatrian/rubamd-exchange/internal/port"
	"github.com/mkhachatrian/rubamd-exchange/internal/rates"
)

// matchLogger is the process-level notification sink: every completed match
// is logged with both pre-fill snapshots. Chat/email delivery belongs to the
// embedding host, not here.
type matchLogger struct {
	log *zap.Logger
}

func (m *matchLogger) OnMatch(match domain.Match) {
	m.log.Info("match",
		zap.String("match_id", match.ID),
		zap.Int64("seller", match.SellOrder.User.ID),
		zap.Int64("buyer", match.BuyOrder.User.ID),
		zap.String("price", match.Price.String()),
		zap.String("amount", match.Amount.String()))
}

func main() {
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("connect to Postgres", zap.Error(err))
	}
	defer pool.Close()

	store := pg.NewStore(pool)
	if err := store.Init(ctx); err != nil {
		log.Fatal("init schema", zap.Error(err))
	}

	var rateCache port.RateCache
	if cfg.RedisAddr != "" {
		rc := cache.NewRedisRateCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, 24*time.Hour)
		defer rc.Close()
		rateCache = rc
	}

	var provider port.RateProvider
	if cfg.CurrencyFreaksToken != "" {
		opts := []rates.FreaksOption{rates.WithFreaksLogger(log)}
		if rateCache != nil {
			opts = append(opts, rates.WithRateCache(rateCache))
		}
		client := rates.NewFreaksClient(cfg.CurrencyFreaksToken, []string{"RUB", "AMD"}, opts...)
		defer client.Close()
		provider = rates.NewConverter(client)
	} else {
		log.Warn("no CurrencyFreaks token, using a fixed rate")
		provider = rates.NewStatic(decimal.RequireFromString("4.6"))
	}

	engine, err := core.New(ctx, store, provider, &matchLogger{log: log},
		core.WithLogger(log),
		core.WithLifetimeLimit(cfg.OrderLifetimeLimit),
	)
	if err != nil {
		log.Fatal("build engine", zap.Error(err))
	}

	server := httpapi.NewHTTPServer(engine)
	log.Info("starting HTTP server", zap.String("addr", cfg.HTTPAddr))
	if err := server.Run(cfg.HTTPAddr); err != nil {
		log.Fatal("HTTP server failed", zap.Error(err))
	}
}
