package collection

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/storefront/internal/query"
)

// gatedGetter answers each call only once the test releases it.
type gatedGetter struct {
	mu      sync.Mutex
	calls   []url.Values
	started chan struct{}
	release chan result
}

type result struct {
	body string
	err  error
}

func newGatedGetter() *gatedGetter {
	return &gatedGetter{started: make(chan struct{}, 8), release: make(chan result, 8)}
}

func (g *gatedGetter) GetRaw(ctx context.Context, path string, q url.Values) (json.RawMessage, error) {
	g.mu.Lock()
	g.calls = append(g.calls, q)
	g.mu.Unlock()
	g.started <- struct{}{}
	r := <-g.release
	return json.RawMessage(r.body), r.err
}

func TestViewDiscardsStaleResult(t *testing.T) {
	g := newGatedGetter()
	v := NewView[item](g, "/orders/admin", query.New(10, query.WithSort("createdAt", query.Desc)))

	done := make(chan error, 1)
	go func() { done <- v.Refresh(context.Background()) }()
	<-g.started

	// sort changes while the first page is in flight
	require.NoError(t, v.SetSort("totalAmount", query.Asc))
	g.release <- result{body: `{"orders":[{"id":1},{"id":2}],"pages":9}`}
	require.NoError(t, <-done)

	assert.Empty(t, v.Current().Items, "stale page must not be applied")
	assert.Equal(t, 1, v.Discarded())
	assert.Zero(t, v.State().TotalPages())

	go func() { done <- v.Refresh(context.Background()) }()
	<-g.started
	g.release <- result{body: `{"orders":[{"id":3}],"pages":2}`}
	require.NoError(t, <-done)

	assert.Equal(t, []item{{ID: 3}}, v.Current().Items)
	assert.Equal(t, 2, v.State().TotalPages())
	assert.Equal(t, "totalAmount,asc", g.calls[1].Get("sort"))
}

func TestViewDiscardsStaleError(t *testing.T) {
	g := newGatedGetter()
	v := NewView[item](g, "/users", nil)

	done := make(chan error, 1)
	go func() { done <- v.Refresh(context.Background()) }()
	<-g.started
	v.SetFilter("role", "ADMIN")
	g.release <- result{err: errors.New("boom")}

	assert.NoError(t, <-done)
	assert.NoError(t, v.Err())
}

func TestViewAppliesErrorAndKeepsPage(t *testing.T) {
	g := newGatedGetter()
	v := NewView[item](g, "/users", nil)

	g.release <- result{body: `{"users":[{"id":1}],"pages":1}`}
	require.NoError(t, v.Refresh(context.Background()))
	<-g.started

	g.release <- result{err: errors.New("boom")}
	err := v.Refresh(context.Background())
	<-g.started
	require.Error(t, err)
	assert.Equal(t, err, v.Err())
	assert.Len(t, v.Current().Items, 1, "previous page stays displayed")
}

func TestViewPagination(t *testing.T) {
	g := newGatedGetter()
	v := NewView[item](g, "/products", query.New(8))

	g.release <- result{body: `{"products":[{"id":1}],"pages":2}`}
	require.NoError(t, v.Refresh(context.Background()))
	<-g.started

	assert.True(t, v.SetPage(2))
	assert.False(t, v.SetPage(3))

	g.release <- result{body: `{"products":[{"id":2}],"pages":2}`}
	require.NoError(t, v.Refresh(context.Background()))
	<-g.started
	assert.Equal(t, 2, v.Current().Page)
	assert.Equal(t, "2", g.calls[1].Get("page"))
}
