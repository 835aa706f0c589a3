// Package product holds the catalog model, the catalog client and the
// persistence used by the reference backend.
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("product not found")
)

// SortKeys whitelists the sortable columns, keyed by wire name.
var SortKeys = map[string]string{
	"createdAt": "created_at",
	"name":      "name",
	"price":     "price",
	"stock":     "stock",
	"category":  "category",
}

type Query struct {
	Search   string
	Category string
	SortKey  string // wire name, validated against SortKeys
	Desc     bool
	Limit    int
	Offset   int
}

// Normalize clamps limit and offset the way every list endpoint does.
func (q *Query) Normalize() {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	q.Search = strings.TrimSpace(q.Search)
	q.Category = strings.TrimSpace(q.Category)
	if _, ok := SortKeys[q.SortKey]; !ok {
		q.SortKey = "createdAt"
		q.Desc = true
	}
}

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, q Query) ([]Product, int, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) (bool, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const productColumns = `id, name, description, price::text, stock, category, image_url, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var (
		p     Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Stock, &p.Category, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("product %d: bad price %q: %w", p.ID, price, err)
	}
	p.Price = d
	return &p, nil
}

func (r *PGRepo) Create(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.QueryRow(ctx, `
		INSERT INTO products (name, description, price, stock, category, image_url, created_at, updated_at)
		VALUES ($1,$2,$3::numeric,$4,$5,$6,NOW(),NOW())
		RETURNING id, created_at, updated_at
	`, p.Name, p.Description, p.Price.String(), p.Stock, p.Category, p.ImageURL).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Product, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	q.Normalize()
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}

	const where = `
		WHERE ($1 = '' OR name ILIKE '%'||$1||'%' OR description ILIKE '%'||$1||'%')
		  AND ($2 = '' OR category = $2)`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, q.Search, q.Category).Scan(&total); err != nil {
		return nil, 0, err
	}

	// column and direction come from the whitelist, never from the request
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products`+where+`
		ORDER BY `+SortKeys[q.SortKey]+` `+dir+`, id ASC
		LIMIT $3 OFFSET $4
	`, q.Search, q.Category, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		UPDATE products
		SET name = $2,
		    description = $3,
		    price = $4::numeric,
		    stock = $5,
		    category = $6,
		    image_url = $7,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, p.ID, p.Name, p.Description, p.Price.String(), p.Stock, p.Category, p.ImageURL).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *PGRepo) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
