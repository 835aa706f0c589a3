// Package memstore keeps the reference backend's data in process memory. It
// is the default store and the one tests run against.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/authz"
	"github.com/MikeMC777/storefront/internal/cart"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/product"
	"github.com/MikeMC777/storefront/internal/user"
)

// Store bundles one repository per domain over a shared set of tables.
type Store struct {
	Products *ProductRepo
	Carts    *CartRepo
	Orders   *OrderRepo
	Users    *UserRepo
}

type db struct {
	mu  sync.Mutex
	seq int64
	now func() time.Time

	products map[int64]*product.Product
	lines    map[int64]*cart.Line
	orders   map[int64]*order.Order
	users    map[int64]*user.User
}

func New() *Store {
	d := &db{
		now:      time.Now,
		products: map[int64]*product.Product{},
		lines:    map[int64]*cart.Line{},
		orders:   map[int64]*order.Order{},
		users:    map[int64]*user.User{},
	}
	return &Store{
		Products: &ProductRepo{d},
		Carts:    &CartRepo{d},
		Orders:   &OrderRepo{d},
		Users:    &UserRepo{d},
	}
}

func (d *db) nextID() int64 {
	d.seq++
	return d.seq
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ---------- products ----------

type ProductRepo struct{ d *db }

func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	p.ID = r.d.nextID()
	p.CreatedAt = r.d.now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.d.products[p.ID] = &cp
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	p, ok := r.d.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *ProductRepo) List(ctx context.Context, q product.Query) ([]product.Product, int, error) {
	q.Normalize()
	search := strings.ToLower(q.Search)

	r.d.mu.Lock()
	all := make([]product.Product, 0, len(r.d.products))
	for _, p := range r.d.products {
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		all = append(all, *p)
	}
	r.d.mu.Unlock()

	sort.SliceStable(all, func(i, j int) bool {
		c := compareProducts(all[i], all[j], q.SortKey)
		if c == 0 {
			return all[i].ID < all[j].ID
		}
		if q.Desc {
			return c > 0
		}
		return c < 0
	})
	return page(all, q.Offset, q.Limit), len(all), nil
}

func compareProducts(a, b product.Product, key string) int {
	switch key {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "price":
		return a.Price.Cmp(b.Price)
	case "stock":
		return a.Stock - b.Stock
	case "category":
		return strings.Compare(a.Category, b.Category)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	cur, ok := r.d.products[p.ID]
	if !ok {
		return product.ErrNotFound
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = r.d.now()
	cp := *p
	r.d.products[p.ID] = &cp
	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.products[id]; !ok {
		return false, nil
	}
	delete(r.d.products, id)
	for lid, l := range r.d.lines {
		if l.ProductID == id {
			delete(r.d.lines, lid)
		}
	}
	return true, nil
}

// ---------- cart ----------

type CartRepo struct{ d *db }

func (r *CartRepo) Lines(ctx context.Context, userID int64) ([]cart.Line, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return r.d.cartOf(userID), nil
}

// cartOf returns the user's lines with their products embedded, oldest first.
// Callers hold mu.
func (d *db) cartOf(userID int64) []cart.Line {
	out := []cart.Line{}
	for _, l := range d.lines {
		if l.UserID != userID {
			continue
		}
		cp := *l
		if p, ok := d.products[l.ProductID]; ok {
			pc := *p
			cp.Product = &pc
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *CartRepo) Add(ctx context.Context, userID, productID int64, delta int) (*cart.Line, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	p, ok := r.d.products[productID]
	if !ok {
		return nil, product.ErrNotFound
	}
	var line *cart.Line
	for _, l := range r.d.lines {
		if l.UserID == userID && l.ProductID == productID {
			line = l
			break
		}
	}
	qty := delta
	if line != nil {
		qty += line.Quantity
	}
	if qty < 1 {
		return nil, cart.ErrQuantityBelowOne
	}
	if qty > p.Stock {
		return nil, cart.ErrInsufficientStock
	}
	if line == nil {
		line = &cart.Line{ID: r.d.nextID(), UserID: userID, ProductID: productID}
		r.d.lines[line.ID] = line
	}
	line.Quantity = qty
	cp := *line
	return &cp, nil
}

func (r *CartRepo) Remove(ctx context.Context, userID, lineID int64) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	l, ok := r.d.lines[lineID]
	if !ok || l.UserID != userID {
		return false, nil
	}
	delete(r.d.lines, lineID)
	return true, nil
}

// ---------- orders ----------

type OrderRepo struct{ d *db }

func (r *OrderRepo) CreateFromCart(ctx context.Context, userID int64) (*order.Order, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	lines := r.d.cartOf(userID)
	if len(lines) == 0 {
		return nil, cart.ErrEmpty
	}
	for _, l := range lines {
		if l.Product == nil || l.Quantity > l.Product.Stock {
			return nil, fmt.Errorf("%w: product %d", cart.ErrInsufficientStock, l.ProductID)
		}
	}

	o := &order.Order{
		ID:        r.d.nextID(),
		UserID:    userID,
		Status:    order.StatusPending,
		CreatedAt: r.d.now(),
	}
	o.UpdatedAt = o.CreatedAt
	total := decimal.Zero
	for _, l := range lines {
		it := order.Item{
			ID:        r.d.nextID(),
			OrderID:   o.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Product.Price,
		}
		o.Items = append(o.Items, it)
		total = total.Add(l.Subtotal())
		r.d.products[l.ProductID].Stock -= l.Quantity
		delete(r.d.lines, l.ID)
	}
	o.TotalAmount = total
	r.d.orders[o.ID] = o
	return r.d.view(o), nil
}

// view copies o with the product and customer summaries attached. Callers
// hold mu.
func (d *db) view(o *order.Order) *order.Order {
	cp := *o
	cp.Items = make([]order.Item, len(o.Items))
	for i, it := range o.Items {
		if p, ok := d.products[it.ProductID]; ok {
			it.Product = &product.Product{ID: p.ID, Name: p.Name, ImageURL: p.ImageURL}
		}
		cp.Items[i] = it
	}
	if u, ok := d.users[o.UserID]; ok {
		cp.User = &order.Customer{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return &cp
}

func (r *OrderRepo) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	o, ok := r.d.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return r.d.view(o), nil
}

func (r *OrderRepo) List(ctx context.Context, q order.ListQuery) ([]order.Order, int, error) {
	q.Normalize()

	r.d.mu.Lock()
	all := []order.Order{}
	for _, o := range r.d.orders {
		if q.UserID != 0 && o.UserID != q.UserID {
			continue
		}
		all = append(all, *r.d.view(o))
	}
	r.d.mu.Unlock()

	sort.SliceStable(all, func(i, j int) bool {
		var c int
		switch q.SortKey {
		case "totalAmount":
			c = all[i].TotalAmount.Cmp(all[j].TotalAmount)
		case "status":
			c = strings.Compare(string(all[i].Status), string(all[j].Status))
		default:
			c = all[i].CreatedAt.Compare(all[j].CreatedAt)
		}
		if c == 0 {
			return all[i].ID > all[j].ID
		}
		if q.Desc {
			return c > 0
		}
		return c < 0
	})
	return page(all, q.Offset, q.Limit), len(all), nil
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id int64, s order.Status) (*order.Order, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	o, ok := r.d.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Status = s
	o.UpdatedAt = r.d.now()
	return r.d.view(o), nil
}

// ---------- users ----------

type UserRepo struct{ d *db }

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, existing := range r.d.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return user.ErrAlreadyExist
		}
	}
	u.ID = r.d.nextID()
	u.CreatedAt = r.d.now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.d.users[u.ID] = &cp
	return nil
}

// withCount copies u and fills OrderCount. Callers hold mu.
func (d *db) withCount(u *user.User) *user.User {
	cp := *u
	cp.OrderCount = 0
	for _, o := range d.orders {
		if o.UserID == u.ID {
			cp.OrderCount++
		}
	}
	return &cp
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	u, ok := r.d.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return r.d.withCount(u), nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, u := range r.d.users {
		if strings.EqualFold(u.Email, email) {
			return r.d.withCount(u), nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *UserRepo) List(ctx context.Context, q user.ListQuery) ([]user.User, int, error) {
	q.Normalize()
	r.d.mu.Lock()
	all := []user.User{}
	for _, u := range r.d.users {
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		all = append(all, *r.d.withCount(u))
	}
	r.d.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return page(all, q.Offset, q.Limit), len(all), nil
}

func (r *UserRepo) UpdateRole(ctx context.Context, id int64, role authz.Role) (*user.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	u, ok := r.d.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = r.d.now()
	return r.d.withCount(u), nil
}

func (r *UserRepo) Delete(ctx context.Context, id int64) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.users[id]; !ok {
		return false, nil
	}
	delete(r.d.users, id)
	for lid, l := range r.d.lines {
		if l.UserID == id {
			delete(r.d.lines, lid)
		}
	}
	for oid, o := range r.d.orders {
		if o.UserID == id {
			delete(r.d.orders, oid)
		}
	}
	return true, nil
}

var (
	_ product.Repository = (*ProductRepo)(nil)
	_ cart.Repository    = (*CartRepo)(nil)
	_ order.Repository   = (*OrderRepo)(nil)
	_ user.Repository    = (*UserRepo)(nil)
)
