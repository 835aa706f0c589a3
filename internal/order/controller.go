package order

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/MikeMC777/storefront/internal/apiclient"
	"github.com/MikeMC777/storefront/internal/authz"
	"github.com/MikeMC777/storefront/internal/collection"
	"github.com/MikeMC777/storefront/internal/log"
	"github.com/MikeMC777/storefront/internal/query"
)

const (
	// PageSize is the page size of both order lists.
	PageSize    = 10
	DefaultSort = "createdAt"
)

// EmptyCartError is returned by PlaceOrder when there is nothing to order.
// Callers redirect to Redirect.
type EmptyCartError struct {
	Redirect authz.View
}

func (e *EmptyCartError) Error() string {
	return "order: cart is empty"
}

// Cart is the part of the cart reconciler checkout needs.
type Cart interface {
	IsEmpty() bool
	Reset()
}

// Controller drives checkout and the order status workflow.
type Controller struct {
	api       apiclient.API
	principal authz.PrincipalSource
	cart      Cart
	strict    bool
	log       zerolog.Logger

	mu    sync.Mutex
	known map[int64]Status // last status seen per order
}

type Option func(*Controller)

// WithStrictTransitions toggles client-side enforcement of the status
// machine. When off, illegal transitions are logged and sent anyway.
func WithStrictTransitions(strict bool) Option {
	return func(c *Controller) { c.strict = strict }
}

func NewController(api apiclient.API, principal authz.PrincipalSource, cart Cart, opts ...Option) *Controller {
	c := &Controller{
		api:       api,
		principal: principal,
		cart:      cart,
		strict:    true,
		log:       log.WithComponent("order"),
		known:     map[int64]Status{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// PlaceOrder turns the server-side cart into an order. An empty local cart
// fails with *EmptyCartError before any request is made.
func (c *Controller) PlaceOrder(ctx context.Context) (*Order, error) {
	if err := authz.Authorize(authz.ActionPlaceOrder, c.principal.Principal(), nil); err != nil {
		return nil, err
	}
	if c.cart.IsEmpty() {
		return nil, &EmptyCartError{Redirect: authz.ViewCart}
	}

	var o Order
	if err := c.api.Post(ctx, "/orders", struct{}{}, &o); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	c.cart.Reset()
	c.remember(o.ID, o.Status)

	c.log.Info().Int64("order", o.ID).Str("total", o.TotalAmount.StringFixed(2)).Msg("order placed")
	return &o, nil
}

// SetStatus changes an order's status. ADMIN or SUPERADMIN only.
func (c *Controller) SetStatus(ctx context.Context, orderID int64, next Status) (*Order, error) {
	if err := authz.Authorize(authz.ActionSetOrderStatus, c.principal.Principal(), nil); err != nil {
		return nil, err
	}
	if !next.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}

	if from, ok := c.Known(orderID); ok && !CanTransition(from, next) {
		if c.strict {
			return nil, fmt.Errorf("%w: order %d is %s", ErrIllegalTransition, orderID, from)
		}
		c.log.Warn().
			Int64("order", orderID).
			Str("from", string(from)).
			Str("to", string(next)).
			Msg("leaving terminal status")
	}

	var o Order
	path := "/orders/" + strconv.FormatInt(orderID, 10) + "/status"
	if err := c.api.Put(ctx, path, StatusRequest{Status: next}, &o); err != nil {
		return nil, fmt.Errorf("set status of order %d: %w", orderID, err)
	}
	if o.ID == 0 {
		o.ID = orderID
	}
	if o.Status == "" {
		o.Status = next
	}
	c.remember(o.ID, o.Status)
	return &o, nil
}

// Get loads one order and records its status.
func (c *Controller) Get(ctx context.Context, orderID int64) (*Order, error) {
	if err := authz.Guard(authz.ViewMyOrders, c.principal.Principal()); err != nil {
		return nil, err
	}
	var o Order
	if err := c.api.Get(ctx, "/orders/"+strconv.FormatInt(orderID, 10), nil, &o); err != nil {
		return nil, err
	}
	c.Observe(o)
	return &o, nil
}

// MyOrders is the signed-in user's order history, newest first.
func (c *Controller) MyOrders() (*collection.View[Order], error) {
	if err := authz.Guard(authz.ViewMyOrders, c.principal.Principal()); err != nil {
		return nil, err
	}
	return collection.NewView[Order](c.api, "/orders", newState()), nil
}

// AllOrders is the admin order table.
func (c *Controller) AllOrders() (*collection.View[Order], error) {
	if err := authz.Authorize(authz.ActionViewAllOrders, c.principal.Principal(), nil); err != nil {
		return nil, err
	}
	return collection.NewView[Order](c.api, "/orders/admin", newState()), nil
}

// Refresh reloads v and records the status of every order on the applied
// page, so SetStatus can check transitions against it.
func (c *Controller) Refresh(ctx context.Context, v *collection.View[Order]) error {
	if err := v.Refresh(ctx); err != nil {
		return err
	}
	c.Observe(v.Current().Items...)
	return nil
}

// Observe records the given orders' statuses.
func (c *Controller) Observe(orders ...Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, o := range orders {
		if o.Status.Valid() {
			c.known[o.ID] = o.Status
		}
	}
}

// Known returns the last status seen for an order.
func (c *Controller) Known(orderID int64) (Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.known[orderID]
	return s, ok
}

func (c *Controller) remember(id int64, s Status) {
	c.Observe(Order{ID: id, Status: s})
}

func newState() *query.State {
	return query.New(PageSize, query.WithSort(DefaultSort, query.Desc))
}
