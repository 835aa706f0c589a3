package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/storefront/internal/authz"
	"github.com/MikeMC777/storefront/internal/config"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/product"
	"github.com/MikeMC777/storefront/internal/server"
	"github.com/MikeMC777/storefront/internal/store/memstore"
	"github.com/MikeMC777/storefront/internal/user"
)

type cli struct {
	t   *testing.T
	cfg config.Client
}

func newCLI(t *testing.T) (*cli, *memstore.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := memstore.New()
	_, _, err := user.NewService(st.Users).EnsureSuperadmin(context.Background(), "Root", "root@example.com", "rootpw")
	require.NoError(t, err)

	srv := httptest.NewServer(server.New(server.Deps{
		Products: st.Products,
		Carts:    st.Carts,
		Orders:   st.Orders,
		Users:    st.Users,
		Secret:   []byte("cli-secret"),
		Logger:   zerolog.Nop(),
	}))
	t.Cleanup(srv.Close)

	return &cli{t: t, cfg: config.Client{
		APIURL:            srv.URL + "/api",
		TokenFile:         filepath.Join(t.TempDir(), "token"),
		StrictTransitions: true,
		LogLevel:          "error",
	}}, st
}

// run executes one invocation with a fresh app, the way a new process would.
func (c *cli) run(args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCmd(newApp(c.cfg, &out))
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) ok(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, "storefront %v", args)
	return out
}

func TestShopperFlow(t *testing.T) {
	c, st := newCLI(t)
	p := product.Product{Name: "Mug", Description: "Ceramic", Price: decimal.RequireFromString("9.99"), Stock: 5, Category: "Kitchen"}
	require.NoError(t, st.Products.Create(context.Background(), &p))

	out := c.ok("products", "--category", "Kitchen")
	assert.Contains(t, out, "Mug")
	assert.Contains(t, out, "9.99")
	assert.Contains(t, out, "page 1 of 1")

	_, err := c.run("cart")
	var redirect *authz.UnauthorizedViewError
	require.ErrorAs(t, err, &redirect)
	assert.Equal(t, authz.ViewLogin, redirect.Redirect)

	out = c.ok("register", "--name", "Ada", "--email", "ada@example.com", "-p", "pw")
	assert.Contains(t, out, "Welcome, Ada")
	assert.Contains(t, c.ok("whoami"), "ada@example.com")

	out = c.ok("cart", "add", itoa(p.ID), "--qty", "2")
	assert.Contains(t, out, "19.98")

	ada, err := st.Users.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	lines, err := st.Carts.Lines(context.Background(), ada.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	lineID := lines[0].ID

	out = c.ok("cart", "set", itoa(lineID), "4")
	assert.Contains(t, out, "4 items, subtotal 39.96")

	out, err = c.run("cart", "set", itoa(lineID), "9")
	require.Error(t, err)
	assert.Equal(t, "Insufficient stock", describe(err))
	assert.Empty(t, out)

	_, err = c.run("cart", "set", itoa(lineID), "0")
	assert.Error(t, err)

	out = c.ok("checkout")
	assert.Contains(t, out, "Order placed.")
	assert.Contains(t, out, "PENDING")

	_, err = c.run("checkout")
	assert.Contains(t, describe(err), "your cart is empty")

	assert.Contains(t, c.ok("orders"), "39.96")

	c.ok("logout")
	assert.Contains(t, c.ok("whoami"), "Not signed in")
}

func TestStaffFlow(t *testing.T) {
	c, st := newCLI(t)
	ctx := context.Background()

	c.ok("login", "root@example.com", "-p", "rootpw")
	out := c.ok("admin", "product", "create", "--name", "Lamp", "--description", "Desk lamp", "--category", "Home", "--price", "30", "--stock", "2")
	assert.Contains(t, out, "Created product #")
	found, _, err := st.Products.List(ctx, product.Query{Search: "Lamp"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	lamp := itoa(found[0].ID)

	_, err = c.run("admin", "product", "create", "--name", "Bad", "--description", "x", "--category", "Home", "--price", "-1")
	assert.ErrorIs(t, err, product.ErrNegativePrice)

	out = c.ok("admin", "product", "update", lamp, "--stock", "7")
	assert.Contains(t, out, "Desk lamp")
	got, err := st.Products.GetByID(ctx, found[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Stock)
	assert.True(t, decimal.NewFromInt(30).Equal(got.Price))

	// the superadmin shops too
	c.ok("cart", "add", lamp)
	c.ok("checkout")
	orders, _, err := st.Orders.List(ctx, order.ListQuery{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	oid := itoa(orders[0].ID)

	out = c.ok("admin")
	assert.Contains(t, out, "root@example.com")
	assert.Contains(t, out, "Lamp")

	assert.Contains(t, c.ok("admin", "set-status", oid, "cancelled"), "now CANCELLED")
	_, err = c.run("admin", "set-status", oid, "COMPLETED")
	assert.ErrorContains(t, err, "STOREFRONT_STRICT_TRANSITIONS")

	c.cfg.StrictTransitions = false
	assert.Contains(t, c.ok("admin", "set-status", oid, "COMPLETED"), "now COMPLETED")

	u := &user.User{Name: "Bob", Email: "bob@example.com", Role: authz.RoleUser}
	require.NoError(t, st.Users.Create(ctx, u))

	out = c.ok("users")
	assert.Contains(t, out, "bob@example.com")
	assert.Contains(t, out, "(you)")

	_, err = c.run("users", "set-role", "1", "USER")
	assert.ErrorIs(t, err, authz.ErrForbidden)

	assert.Contains(t, c.ok("users", "set-role", itoa(u.ID), "admin"), "bob@example.com is now ADMIN")
	out = c.ok("users", "--role", "ADMIN")
	assert.Contains(t, out, "bob@example.com")
	assert.NotContains(t, out, "root@example.com")

	c.ok("users", "delete", itoa(u.ID))
	_, err = st.Users.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, user.ErrNotFound)

	c.ok("admin", "product", "delete", lamp)
	_, err = st.Products.GetByID(ctx, found[0].ID)
	assert.ErrorIs(t, err, product.ErrNotFound)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func TestPagePastTheEndIsReported(t *testing.T) {
	c, st := newCLI(t)
	p := product.Product{Name: "Mug", Description: "Ceramic", Price: decimal.RequireFromString("9.99"), Stock: 5, Category: "Kitchen"}
	require.NoError(t, st.Products.Create(context.Background(), &p))

	_, err := c.run("products", "--page", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 99 is past the last page (1)")

	out := c.ok("products", "--page", "1")
	assert.Contains(t, out, "page 1 of 1")
}
