// Package order holds the order model, the status machine, the checkout and
// status controller used by the client, and the order persistence of the
// reference backend.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/cart"
	"github.com/MikeMC777/storefront/internal/product"
)

var (
	ErrNotFound = errors.New("order not found")
)

// SortKeys whitelists the sortable columns, keyed by wire name.
var SortKeys = map[string]string{
	"createdAt":   "o.created_at",
	"totalAmount": "o.total_amount",
	"status":      "o.status",
}

// ListQuery selects a page of orders. UserID 0 lists every user's orders.
type ListQuery struct {
	UserID  int64
	SortKey string
	Desc    bool
	Limit   int
	Offset  int
}

func (q *ListQuery) Normalize() {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = PageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if _, ok := SortKeys[q.SortKey]; !ok {
		q.SortKey = DefaultSort
		q.Desc = true
	}
}

type Repository interface {
	// CreateFromCart moves the user's cart into a new PENDING order in one
	// transaction: prices are captured, stock is decremented and the cart is
	// emptied. An empty cart yields cart.ErrEmpty.
	CreateFromCart(ctx context.Context, userID int64) (*Order, error)
	GetByID(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, q ListQuery) ([]Order, int, error)
	UpdateStatus(ctx context.Context, id int64, s Status) (*Order, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) CreateFromCart(ctx context.Context, userID int64) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT c.id, c.product_id, c.quantity, p.price::text, p.stock
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.id ASC
		FOR UPDATE OF c, p
	`, userID)
	if err != nil {
		return nil, err
	}
	var (
		items   []Item
		lineIDs []int64
		total   = decimal.Zero
	)
	for rows.Next() {
		var (
			it     Item
			lineID int64
			price  string
			stock  int
		)
		if err := rows.Scan(&lineID, &it.ProductID, &it.Quantity, &price, &stock); err != nil {
			rows.Close()
			return nil, err
		}
		if it.Quantity > stock {
			rows.Close()
			return nil, fmt.Errorf("%w: product %d", cart.ErrInsufficientStock, it.ProductID)
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			rows.Close()
			return nil, fmt.Errorf("product %d: bad price %q: %w", it.ProductID, price, err)
		}
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		items = append(items, it)
		lineIDs = append(lineIDs, lineID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, cart.ErrEmpty
	}

	o := Order{UserID: userID, Status: StatusPending, TotalAmount: total}
	if err := tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, total_amount, status, created_at, updated_at)
		VALUES ($1, $2::numeric, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, userID, total.String(), string(o.Status)).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}

	for i := range items {
		it := &items[i]
		it.OrderID = o.ID
		if err := tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4::numeric)
			RETURNING id
		`, o.ID, it.ProductID, it.Quantity, it.Price.String()).Scan(&it.ID); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1
		`, it.ProductID, it.Quantity); err != nil {
			return nil, err
		}
	}
	// only the lines that were ordered; lines added meanwhile stay in the cart
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE id = ANY($1)`, lineIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

const orderColumns = `o.id, o.user_id, o.total_amount::text, o.status, o.created_at, o.updated_at, u.id, u.name, u.email`

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o     Order
		c     Customer
		total string
	)
	if err := row.Scan(&o.ID, &o.UserID, &total, &o.Status, &o.CreatedAt, &o.UpdatedAt, &c.ID, &c.Name, &c.Email); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("order %d: bad total %q: %w", o.ID, total, err)
	}
	o.TotalAmount = d
	o.User = &c
	o.Items = []Item{}
	return &o, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders o JOIN users u ON u.id = o.user_id
		WHERE o.id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	orders := []Order{*o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *PGRepo) List(ctx context.Context, q ListQuery) ([]Order, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	q.Normalize()
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	const where = ` WHERE ($1::bigint = 0 OR o.user_id = $1)`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders o`+where, q.UserID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders o JOIN users u ON u.id = o.user_id`+where+`
		ORDER BY `+SortKeys[q.SortKey]+` `+dir+`, o.id DESC
		LIMIT $2 OFFSET $3
	`, q.UserID, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.attachItems(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// attachItems loads the items of every order in one query.
func (r *PGRepo) attachItems(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := r.db.Query(ctx, `
		SELECT i.id, i.order_id, i.product_id, i.quantity, i.price::text,
		       COALESCE(p.name, ''), COALESCE(p.image_url, '')
		FROM order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id = ANY($1)
		ORDER BY i.id ASC
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it    Item
			p     product.Product
			price string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &price, &p.Name, &p.ImageURL); err != nil {
			return err
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return fmt.Errorf("order item %d: bad price %q: %w", it.ID, price, err)
		}
		p.ID = it.ProductID
		it.Product = &p
		o := &orders[index[it.OrderID]]
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id int64, s Status) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`, id, string(s))
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}
