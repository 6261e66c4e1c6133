package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mkhachatrian/rubamd-exchange/internal/domain"
	"github.com/mkhachatrian/rubamd-exchange/internal/port"
)

var _ port.OrderStore = (*Store)(nil)

// Store persists orders in Postgres. Monetary fields are stored as scaled
// integers (1e-4 units) to avoid floating drift; see toUnits/fromUnits.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Init creates the schema when it does not exist yet.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS orders (
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL,
  user_name TEXT NOT NULL DEFAULT '',
  side TEXT NOT NULL,
  price_u BIGINT NOT NULL,
  relative_rate_u BIGINT NOT NULL,
  amount_initial_u BIGINT NOT NULL,
  amount_left_u BIGINT NOT NULL,
  min_op_threshold_u BIGINT NOT NULL,
  lifetime_sec BIGINT NOT NULL,
  creation_time BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS last_match_price (
  id SMALLINT PRIMARY KEY,
  price_u BIGINT NOT NULL
);
`)
	return err
}

// toUnits converts a decimal to 1e-4 fixed-point units.
func toUnits(d decimal.Decimal) int64 {
	return d.Shift(4).Round(0).IntPart()
}

func fromUnits(u int64) decimal.Decimal {
	return decimal.New(u, -4)
}

// StoreOrder inserts the order and reads the assigned id back in the same
// statement so the engine can key its map immediately.
func (s *Store) StoreOrder(ctx context.Context, o domain.Order) (domain.Order, error) {
	err := s.pool.QueryRow(ctx, `
INSERT INTO orders(user_id, user_name, side, price_u, relative_rate_u,
  amount_initial_u, amount_left_u, min_op_threshold_u, lifetime_sec, creation_time)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING id
`, o.User.ID, o.User.Name, string(o.Side), toUnits(o.Price), toUnits(o.RelativeRate),
		toUnits(o.AmountInitial), toUnits(o.AmountLeft), toUnits(o.MinOpThreshold),
		o.LifetimeSec, o.CreationTime).Scan(&o.ID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("pg: store order: %w", err)
	}
	return o, nil
}

func (s *Store) UpdateOrder(ctx context.Context, o domain.Order) error {
	res, err := s.pool.Exec(ctx, `
UPDATE orders
SET price_u = $2, relative_rate_u = $3, amount_left_u = $4, min_op_threshold_u = $5
WHERE id = $1
`, o.ID, toUnits(o.Price), toUnits(o.RelativeRate), toUnits(o.AmountLeft), toUnits(o.MinOpThreshold))
	if err != nil {
		return fmt.Errorf("pg: update order: %w", err)
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrOrderNotFound, o.ID)
	}
	return nil
}

func (s *Store) RemoveOrder(ctx context.Context, id int64) error {
	res, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pg: remove order: %w", err)
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrOrderNotFound, id)
	}
	return nil
}

func (s *Store) IterateOrders(ctx context.Context, fn func(domain.Order)) error {
	rows, err := s.pool.Query(ctx, `
SELECT id, user_id, user_name, side, price_u, relative_rate_u,
  amount_initial_u, amount_left_u, min_op_threshold_u, lifetime_sec, creation_time
FROM orders
ORDER BY id ASC
`)
	if err != nil {
		return fmt.Errorf("pg: iterate orders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o domain.Order
		var side string
		var priceU, relRateU, amtInitU, amtLeftU, thresholdU int64
		if err := rows.Scan(&o.ID, &o.User.ID, &o.User.Name, &side, &priceU, &relRateU,
			&amtInitU, &amtLeftU, &thresholdU, &o.LifetimeSec, &o.CreationTime); err != nil {
			return fmt.Errorf("pg: scan order: %w", err)
		}
		o.Side = domain.Side(side)
		o.Price = fromUnits(priceU)
		o.RelativeRate = fromUnits(relRateU)
		o.AmountInitial = fromUnits(amtInitU)
		o.AmountLeft = fromUnits(amtLeftU)
		o.MinOpThreshold = fromUnits(thresholdU)
		fn(o)
	}
	return rows.Err()
}

func (s *Store) GetLastMatchPrice(ctx context.Context) (decimal.Decimal, bool, error) {
	var priceU int64
	err := s.pool.QueryRow(ctx, `SELECT price_u FROM last_match_price WHERE id = 1`).Scan(&priceU)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("pg: last match price: %w", err)
	}
	return fromUnits(priceU), true, nil
}

func (s *Store) StoreLastMatchPrice(ctx context.Context, p decimal.Decimal) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO last_match_price(id, price_u) VALUES(1, $1)
ON CONFLICT (id) DO UPDATE SET price_u = EXCLUDED.price_u
`, toUnits(p))
	if err != nil {
		return fmt.Errorf("pg: store last match price: %w", err)
	}
	return nil
}
