package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/storefront/internal/apiclient"
	"github.com/MikeMC777/storefront/internal/authz"
)

type fakeCart struct {
	empty bool
	reset int
}

func (f *fakeCart) IsEmpty() bool { return f.empty }
func (f *fakeCart) Reset()        { f.empty = true; f.reset++ }

// recorder answers every request with body and remembers what it saw.
type recorder struct {
	mu     sync.Mutex
	calls  []string
	bodies []map[string]any
	status int
	body   string
}

func (rec *recorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var m map[string]any
		_ = json.NewDecoder(r.Body).Decode(&m)
		rec.mu.Lock()
		rec.calls = append(rec.calls, r.Method+" "+r.URL.Path)
		rec.bodies = append(rec.bodies, m)
		status, body := rec.status, rec.body
		rec.mu.Unlock()
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (rec *recorder) count() int {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return len(rec.calls)
}

var (
	shopper = authz.Fixed{ID: 2, Role: authz.RoleUser}
	admin   = authz.Fixed{ID: 1, Role: authz.RoleAdmin}
)

func TestPlaceOrderWithEmptyCartMakesNoCall(t *testing.T) {
	rec := &recorder{}
	srv := rec.server(t)
	c := NewController(apiclient.New(srv.URL), shopper, &fakeCart{empty: true})

	_, err := c.PlaceOrder(context.Background())
	var empty *EmptyCartError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, authz.ViewCart, empty.Redirect)
	assert.Zero(t, rec.count())
}

func TestPlaceOrderDefaultsToPendingAndResetsCart(t *testing.T) {
	rec := &recorder{status: http.StatusCreated, body: `{"id":31,"totalAmount":"19.98","items":[{"id":1,"productId":4,"quantity":2,"price":"9.99"}]}`}
	srv := rec.server(t)
	cart := &fakeCart{}
	c := NewController(apiclient.New(srv.URL), shopper, cart)

	o, err := c.PlaceOrder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, 2, o.ItemCount())
	assert.True(t, o.ComputedTotal().Equal(decimal.RequireFromString("19.98")))
	assert.Equal(t, 1, cart.reset)
	assert.Equal(t, []string{"POST /orders"}, rec.calls)
	assert.Empty(t, rec.bodies[0])
}

func TestPlaceOrderFailureKeepsCart(t *testing.T) {
	rec := &recorder{status: http.StatusBadRequest, body: `{"message":"Cart is empty"}`}
	srv := rec.server(t)
	cart := &fakeCart{}
	c := NewController(apiclient.New(srv.URL), shopper, cart)

	_, err := c.PlaceOrder(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Cart is empty", apiclient.UserMessage(err))
	assert.Zero(t, cart.reset)
}

func TestPlaceOrderRequiresSignIn(t *testing.T) {
	c := NewController(apiclient.New("http://127.0.0.1:1"), authz.Fixed(authz.Anonymous), &fakeCart{})
	_, err := c.PlaceOrder(context.Background())
	assert.ErrorIs(t, err, authz.ErrForbidden)
}

func TestSetStatusRoleAndValue(t *testing.T) {
	rec := &recorder{body: `{"id":5,"status":"COMPLETED"}`}
	srv := rec.server(t)

	c := NewController(apiclient.New(srv.URL), shopper, &fakeCart{})
	_, err := c.SetStatus(context.Background(), 5, StatusCompleted)
	assert.ErrorIs(t, err, authz.ErrForbidden)

	c = NewController(apiclient.New(srv.URL), admin, &fakeCart{})
	_, err = c.SetStatus(context.Background(), 5, "SHIPPED")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Zero(t, rec.count())

	o, err := c.SetStatus(context.Background(), 5, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, o.Status)
	assert.Equal(t, []string{"PUT /orders/5/status"}, rec.calls)
	assert.Equal(t, "COMPLETED", rec.bodies[0]["status"])
}

func TestStrictModeRefusesLeavingTerminal(t *testing.T) {
	rec := &recorder{body: `{"id":5,"status":"PENDING"}`}
	srv := rec.server(t)
	c := NewController(apiclient.New(srv.URL), admin, &fakeCart{})
	c.Observe(Order{ID: 5, Status: StatusCompleted})

	_, err := c.SetStatus(context.Background(), 5, StatusPending)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Zero(t, rec.count())

	// same status is a permitted no-op transition
	_, err = c.SetStatus(context.Background(), 5, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.count())
}

func TestPermissiveModeForwards(t *testing.T) {
	rec := &recorder{body: `{"id":5,"status":"PENDING"}`}
	srv := rec.server(t)
	c := NewController(apiclient.New(srv.URL), admin, &fakeCart{}, WithStrictTransitions(false))
	c.Observe(Order{ID: 5, Status: StatusCancelled})

	o, err := c.SetStatus(context.Background(), 5, StatusPending)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	s, _ := c.Known(5)
	assert.Equal(t, StatusPending, s)
}

func TestUnknownOrderIsForwarded(t *testing.T) {
	rec := &recorder{body: `{}`}
	srv := rec.server(t)
	c := NewController(apiclient.New(srv.URL), admin, &fakeCart{})

	o, err := c.SetStatus(context.Background(), 9, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, int64(9), o.ID)
	assert.Equal(t, StatusCancelled, o.Status)
}

func TestOrderViews(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Path+"?"+r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"orders":[{"id":3,"status":"COMPLETED","totalAmount":"5"}],"pages":2}`))
	}))
	defer srv.Close()

	c := NewController(apiclient.New(srv.URL), admin, &fakeCart{})
	all, err := c.AllOrders()
	require.NoError(t, err)
	require.NoError(t, c.Refresh(context.Background(), all))
	assert.Equal(t, 2, all.State().TotalPages())
	s, ok := c.Known(3)
	assert.True(t, ok)
	assert.Equal(t, StatusCompleted, s)

	mine, err := c.MyOrders()
	require.NoError(t, err)
	require.NoError(t, mine.Refresh(context.Background()))

	assert.Equal(t, []string{
		"/orders/admin?limit=10&page=1&sort=createdAt%2Cdesc",
		"/orders?limit=10&page=1&sort=createdAt%2Cdesc",
	}, queries)

	_, err = NewController(apiclient.New(srv.URL), shopper, &fakeCart{}).AllOrders()
	assert.ErrorIs(t, err, authz.ErrForbidden)

	_, err = NewController(apiclient.New(srv.URL), authz.Fixed(authz.Anonymous), &fakeCart{}).MyOrders()
	var uv *authz.UnauthorizedViewError
	require.ErrorAs(t, err, &uv)
	assert.Equal(t, authz.ViewLogin, uv.Redirect)
}

func TestGetRecordsStatusForStrictChecks(t *testing.T) {
	rec := &recorder{body: `{"id":7,"status":"CANCELLED","totalAmount":"5"}`}
	srv := rec.server(t)
	c := NewController(apiclient.New(srv.URL), admin, &fakeCart{})

	o, err := c.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)
	assert.Equal(t, []string{"GET /orders/7"}, rec.calls)

	_, err = c.SetStatus(context.Background(), 7, StatusPending)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, 1, rec.count())

	_, err = NewController(apiclient.New(srv.URL), authz.Fixed{}, &fakeCart{}).Get(context.Background(), 7)
	var redirect *authz.UnauthorizedViewError
	assert.ErrorAs(t, err, &redirect)
}
