package server_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/storefront/internal/apiclient"
	"github.com/MikeMC777/storefront/internal/authz"
	"github.com/MikeMC777/storefront/internal/cart"
	"github.com/MikeMC777/storefront/internal/dashboard"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/product"
	"github.com/MikeMC777/storefront/internal/server"
	"github.com/MikeMC777/storefront/internal/session"
	"github.com/MikeMC777/storefront/internal/store/memstore"
	"github.com/MikeMC777/storefront/internal/user"
)

// client is one signed-in storefront: a session with its own token file and
// the components built on it.
type client struct {
	sess    *session.Session
	api     *apiclient.Client
	catalog *product.Catalog
	cart    *cart.Reconciler
	orders  *order.Controller
}

func newClient(t *testing.T, base string) *client {
	t.Helper()
	sess := session.New(session.TokenFile{Path: filepath.Join(t.TempDir(), "token")})
	api := apiclient.New(base, apiclient.WithTokenSource(sess), apiclient.WithTimeout(5*time.Second))
	rec := cart.NewReconciler(api, sess)
	return &client{
		sess:    sess,
		api:     api,
		catalog: product.NewCatalog(api, sess),
		cart:    rec,
		orders:  order.NewController(api, sess, rec),
	}
}

func TestStorefrontAgainstReferenceBackend(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	st := memstore.New()
	_, created, err := user.NewService(st.Users).EnsureSuperadmin(ctx, "Root", "root@example.com", "rootpw")
	require.NoError(t, err)
	require.True(t, created)

	kb := product.Product{Name: "Keyboard", Description: "60%", Price: decimal.RequireFromString("100.00"), Stock: 4, Category: "Electronics"}
	mug := product.Product{Name: "Mug", Description: "Ceramic", Price: decimal.RequireFromString("9.99"), Stock: 10, Category: "Kitchen"}
	require.NoError(t, st.Products.Create(ctx, &kb))
	require.NoError(t, st.Products.Create(ctx, &mug))

	srv := httptest.NewServer(server.New(server.Deps{
		Products: st.Products,
		Carts:    st.Carts,
		Orders:   st.Orders,
		Users:    st.Users,
		Secret:   []byte("e2e-secret"),
		Logger:   zerolog.Nop(),
	}))
	defer srv.Close()
	base := srv.URL + "/api"

	// shopper
	shop := newClient(t, base)
	me, err := shop.sess.Register(ctx, shop.api, user.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, authz.RoleUser, shop.sess.Principal().Role)

	browse := shop.catalog.Browse()
	browse.SetFilter("category", "Kitchen")
	require.NoError(t, browse.Refresh(ctx))
	require.Len(t, browse.Current().Items, 1)
	assert.Equal(t, "Mug", browse.Current().Items[0].Name)

	require.NoError(t, shop.cart.AddProduct(ctx, kb.ID, 1))
	require.NoError(t, shop.cart.AddProduct(ctx, mug.ID, 2))
	require.Len(t, shop.cart.Lines(), 2)

	line := shop.cart.Lines()[0]
	require.NoError(t, shop.cart.SetQuantity(ctx, line, 3))
	assert.Equal(t, 5, shop.cart.ItemCount())

	err = shop.cart.SetQuantity(ctx, line, 5)
	assert.ErrorIs(t, err, apiclient.ErrConflict)
	got, ok := shop.cart.Line(line.ID)
	require.True(t, ok)
	assert.Equal(t, 3, got.Quantity)

	require.NoError(t, shop.cart.SetQuantity(ctx, line, 2))
	assert.True(t, decimal.RequireFromString("219.98").Equal(shop.cart.Subtotal()), shop.cart.Subtotal().String())

	placed, err := shop.orders.PlaceOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, placed.Status)
	assert.True(t, decimal.RequireFromString("219.98").Equal(placed.TotalAmount))
	assert.True(t, shop.cart.IsEmpty())

	_, err = shop.orders.PlaceOrder(ctx)
	var empty *order.EmptyCartError
	assert.ErrorAs(t, err, &empty)

	_, err = shop.orders.SetStatus(ctx, placed.ID, order.StatusCompleted)
	assert.ErrorIs(t, err, authz.ErrForbidden)

	// staff
	staff := newClient(t, base)
	_, err = staff.sess.Login(ctx, staff.api, "root@example.com", "rootpw")
	require.NoError(t, err)
	assert.Equal(t, authz.RoleSuperadmin, staff.sess.Principal().Role)

	dash, err := dashboard.OpenAdmin(staff.sess, staff.orders, staff.catalog)
	require.NoError(t, err)
	require.NoError(t, dash.Load(ctx))
	require.Len(t, dash.Orders.Current().Items, 1)
	assert.Len(t, dash.Products.Current().Items, 2)
	status, ok := staff.orders.Known(placed.ID)
	require.True(t, ok)
	assert.Equal(t, order.StatusPending, status)

	done, err := staff.orders.SetStatus(ctx, placed.ID, order.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, done.Status)

	_, err = staff.orders.SetStatus(ctx, placed.ID, order.StatusPending)
	assert.ErrorIs(t, err, order.ErrIllegalTransition)

	left, err := staff.catalog.Get(ctx, kb.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, left.Stock)

	admin := user.NewAdmin(staff.api, staff.sess)
	users, err := dashboard.OpenSuperadmin(staff.sess, admin)
	require.NoError(t, err)
	require.NoError(t, users.Load(ctx))
	assert.Len(t, users.Users.Current().Items, 2)

	_, err = admin.SetRole(ctx, staff.sess.Principal().ID, authz.RoleUser)
	assert.Error(t, err)
	promoted, err := admin.SetRole(ctx, me.ID, authz.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleAdmin, promoted.Role)

	// the shopper's history shows the staff change
	mine, err := shop.orders.MyOrders()
	require.NoError(t, err)
	require.NoError(t, shop.orders.Refresh(ctx, mine))
	require.Len(t, mine.Current().Items, 1)
	assert.Equal(t, order.StatusCompleted, mine.Current().Items[0].Status)
}
