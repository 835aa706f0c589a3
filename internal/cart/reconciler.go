package cart

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/apiclient"
	"github.com/MikeMC777/storefront/internal/authz"
	"github.com/MikeMC777/storefront/internal/log"
)

// Reconciler owns the client-visible cart. It presents "set quantity" on top
// of the backend's additive POST /cart and re-reads the cart from the server
// after every mutation instead of computing the next state locally.
//
// Mutations are serialised: at most one is in flight, later ones wait for
// the earlier one's refetch to finish and then compute their delta against
// the refreshed quantities.
type Reconciler struct {
	api       apiclient.API
	principal authz.PrincipalSource
	log       zerolog.Logger

	slot chan struct{}

	mu     sync.RWMutex
	lines  []Line
	loaded bool
	// stale is set when a mutation reached the server but the refetch after
	// it failed; the local lines no longer match the server.
	stale bool
}

func NewReconciler(api apiclient.API, principal authz.PrincipalSource) *Reconciler {
	return &Reconciler{
		api:       api,
		principal: principal,
		log:       log.WithComponent("cart"),
		slot:      make(chan struct{}, 1),
		lines:     []Line{},
	}
}

func (r *Reconciler) acquire(ctx context.Context) error {
	select {
	case r.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Reconciler) release() { <-r.slot }

// Refresh replaces the local lines with GET /cart.
func (r *Reconciler) Refresh(ctx context.Context) error {
	if err := authz.Authorize(authz.ActionManageCart, r.principal.Principal(), nil); err != nil {
		return err
	}
	if err := r.acquire(ctx); err != nil {
		return err
	}
	defer r.release()
	return r.refetch(ctx)
}

func (r *Reconciler) refetch(ctx context.Context) error {
	var lines []Line
	if err := r.api.Get(ctx, "/cart", nil, &lines); err != nil {
		return fmt.Errorf("refresh cart: %w", err)
	}
	if lines == nil {
		lines = []Line{}
	}
	r.mu.Lock()
	r.lines = lines
	r.loaded = true
	r.stale = false
	r.mu.Unlock()
	return nil
}

// resync refetches when the previous mutation's refetch failed. Callers hold
// the slot.
func (r *Reconciler) resync(ctx context.Context) error {
	r.mu.RLock()
	stale := r.stale
	r.mu.RUnlock()
	if !stale {
		return nil
	}
	r.log.Debug().Msg("cart stale, refetching before mutation")
	return r.refetch(ctx)
}

// settle refetches after a mutation the server accepted.
func (r *Reconciler) settle(ctx context.Context) error {
	if err := r.refetch(ctx); err != nil {
		r.mu.Lock()
		r.stale = true
		r.mu.Unlock()
		return err
	}
	return nil
}

// SetQuantity makes line hold desired units. desired < 1 is rejected without
// a call; use RemoveLine. A zero delta issues no call at all.
func (r *Reconciler) SetQuantity(ctx context.Context, line Line, desired int) error {
	if desired < 1 {
		return ErrQuantityBelowOne
	}
	if err := authz.Authorize(authz.ActionManageCart, r.principal.Principal(), nil); err != nil {
		return err
	}
	if err := r.acquire(ctx); err != nil {
		return err
	}
	defer r.release()

	if err := r.resync(ctx); err != nil {
		return err
	}
	current, ok := r.currentQuantity(line)
	if !ok {
		return fmt.Errorf("%w: %d", ErrLineNotFound, line.ID)
	}
	delta := desired - current
	if delta == 0 {
		return nil
	}

	r.log.Debug().
		Int64("line", line.ID).
		Int64("product", line.ProductID).
		Int("current", current).
		Int("desired", desired).
		Int("delta", delta).
		Msg("set quantity")

	if err := r.api.Post(ctx, "/cart", AddRequest{ProductID: line.ProductID, Quantity: delta}, nil); err != nil {
		return err
	}
	return r.settle(ctx)
}

// currentQuantity resolves the line's quantity from the latest refreshed
// state, falling back to the caller's copy before the first refresh.
func (r *Reconciler) currentQuantity(line Line) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.loaded {
		return line.Quantity, true
	}
	for _, l := range r.lines {
		if l.ID == line.ID {
			return l.Quantity, true
		}
	}
	return 0, false
}

// RemoveLine deletes a line and refetches.
func (r *Reconciler) RemoveLine(ctx context.Context, line Line) error {
	if err := authz.Authorize(authz.ActionManageCart, r.principal.Principal(), nil); err != nil {
		return err
	}
	if err := r.acquire(ctx); err != nil {
		return err
	}
	defer r.release()

	if err := r.resync(ctx); err != nil {
		return err
	}
	if err := r.api.Delete(ctx, "/cart/"+strconv.FormatInt(line.ID, 10), nil); err != nil {
		return err
	}
	return r.settle(ctx)
}

// AddProduct adds quantity units of a product, creating the line if needed.
func (r *Reconciler) AddProduct(ctx context.Context, productID int64, quantity int) error {
	if quantity < 1 {
		return ErrQuantityBelowOne
	}
	if err := authz.Authorize(authz.ActionManageCart, r.principal.Principal(), nil); err != nil {
		return err
	}
	if err := r.acquire(ctx); err != nil {
		return err
	}
	defer r.release()

	if err := r.resync(ctx); err != nil {
		return err
	}
	if err := r.api.Post(ctx, "/cart", AddRequest{ProductID: productID, Quantity: quantity}, nil); err != nil {
		return err
	}
	return r.settle(ctx)
}

// Lines returns a copy of the current lines.
func (r *Reconciler) Lines() []Line {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Line, len(r.lines))
	copy(out, r.lines)
	return out
}

// Line looks a line up by id.
func (r *Reconciler) Line(id int64) (Line, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.lines {
		if l.ID == id {
			return l, true
		}
	}
	return Line{}, false
}

// IsEmpty reports whether the local cart has no lines.
func (r *Reconciler) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lines) == 0
}

// ItemCount is the number of units across all lines.
func (r *Reconciler) ItemCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, l := range r.lines {
		n += l.Quantity
	}
	return n
}

// Subtotal is Σ price × quantity over the local lines.
func (r *Reconciler) Subtotal() decimal.Decimal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Subtotal(r.lines)
}

// Reset empties the local cart; checkout transfers the lines to the order.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	r.lines = []Line{}
	r.loaded = true
	r.stale = false
	r.mu.Unlock()
}
