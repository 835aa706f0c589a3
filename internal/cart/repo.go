// Package cart holds the cart model, the reconciler that maps absolute
// quantities onto the backend's additive primitive, and the cart persistence
// of the reference backend.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/product"
)

type Repository interface {
	Lines(ctx context.Context, userID int64) ([]Line, error)
	// Add increments the (user, product) line by delta, creating it when
	// absent. The resulting quantity must stay within [1, stock].
	Add(ctx context.Context, userID, productID int64, delta int) (*Line, error)
	Remove(ctx context.Context, userID, lineID int64) (bool, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Lines(ctx context.Context, userID int64) ([]Line, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.user_id, c.product_id, c.quantity,
		       p.id, p.name, p.description, p.price::text, p.stock, p.category, p.image_url, p.created_at, p.updated_at
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Line{}
	for rows.Next() {
		var (
			l     Line
			p     product.Product
			price string
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity,
			&p.ID, &p.Name, &p.Description, &price, &p.Stock, &p.Category, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("product %d: bad price %q: %w", p.ID, price, err)
		}
		l.Product = &p
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PGRepo) Add(ctx context.Context, userID, productID int64, delta int) (*Line, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var stock int
	if err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR SHARE`, productID).Scan(&stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, err
	}

	// merge on insert: the unique (user_id, product_id) index makes the
	// increment atomic
	var l Line
	if err := tx.QueryRow(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, user_id, product_id, quantity
	`, userID, productID, delta).Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity); err != nil {
		return nil, err
	}
	if l.Quantity < 1 {
		return nil, ErrQuantityBelowOne
	}
	if l.Quantity > stock {
		return nil, ErrInsufficientStock
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *PGRepo) Remove(ctx context.Context, userID, lineID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE id=$1 AND user_id=$2`, lineID, userID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
