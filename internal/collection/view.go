package collection

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/MikeMC777/storefront/internal/log"
	"github.com/MikeMC777/storefront/internal/query"
)

// View is a list screen: a query state plus the last page applied for it.
// Results of fetches issued for an older query version are discarded, never
// cancelled.
type View[T any] struct {
	g        Getter
	endpoint string
	state    *query.State
	log      zerolog.Logger

	mu        sync.Mutex
	current   Page[T]
	err       error
	applied   uint64 // version of the last applied result
	hasResult bool
	discarded int
}

// NewView binds a query state to an endpoint.
func NewView[T any](g Getter, endpoint string, state *query.State) *View[T] {
	if state == nil {
		state = query.New(10)
	}
	return &View[T]{
		g:        g,
		endpoint: endpoint,
		state:    state,
		log:      log.WithComponent("collection").With().Str("endpoint", endpoint).Logger(),
		current:  Page[T]{Items: []T{}, Page: 1, TotalPages: 1},
	}
}

// Endpoint returns the list endpoint.
func (v *View[T]) Endpoint() string { return v.endpoint }

// State exposes the query state for rendering pagination controls.
func (v *View[T]) State() *query.State { return v.state }

// Refresh fetches the page for the current query. It returns the fetch error
// only when the result was applied; stale results and stale errors are
// dropped and Refresh returns nil.
func (v *View[T]) Refresh(ctx context.Context) error {
	version := v.state.Version()
	page, err := Fetch[T](ctx, v.g, v.endpoint, v.state)

	v.mu.Lock()
	defer v.mu.Unlock()

	if version != v.state.Version() || (v.hasResult && version < v.applied) {
		v.discarded++
		v.log.Debug().
			Uint64("requested_version", version).
			Uint64("current_version", v.state.Version()).
			Msg("discarding stale page")
		return nil
	}

	v.applied = version
	v.hasResult = true
	if err != nil {
		v.err = err
		return err
	}
	v.err = nil
	v.current = page
	v.state.SetTotalPages(page.TotalPages)
	return nil
}

// Current returns the last applied page.
func (v *View[T]) Current() Page[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Err returns the error of the last applied fetch.
func (v *View[T]) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Discarded counts results dropped by the version fence.
func (v *View[T]) Discarded() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.discarded
}

// SetFilter updates a filter (page resets to 1).
func (v *View[T]) SetFilter(key, value string) { v.state.SetFilter(key, value) }

// SetSort updates the sort (page resets to 1).
func (v *View[T]) SetSort(key string, dir query.Direction) error {
	return v.state.SetSort(key, dir)
}

// SetPage moves to page n if it is in range.
func (v *View[T]) SetPage(n int) bool { return v.state.SetPage(n) }
