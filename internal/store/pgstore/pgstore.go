// Package pgstore connects the reference backend to PostgreSQL.
package pgstore

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/storefront/internal/cart"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/product"
	"github.com/MikeMC777/storefront/internal/user"
)

//go:embed schema.sql
var schema string

// Connect opens a pool and checks it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Repos groups the PostgreSQL repositories over one pool.
type Repos struct {
	Products *product.PGRepo
	Carts    *cart.PGRepo
	Orders   *order.PGRepo
	Users    *user.PGRepo
}

func NewRepos(pool *pgxpool.Pool) Repos {
	return Repos{
		Products: product.NewPGRepo(pool),
		Carts:    cart.NewPGRepo(pool),
		Orders:   order.NewPGRepo(pool),
		Users:    user.NewPGRepo(pool),
	}
}
