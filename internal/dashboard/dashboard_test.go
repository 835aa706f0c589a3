package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/storefront/internal/apiclient"
	"github.com/MikeMC777/storefront/internal/authz"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/product"
	"github.com/MikeMC777/storefront/internal/user"
)

type noCart struct{}

func (noCart) IsEmpty() bool { return true }
func (noCart) Reset()        {}

func backend(t *testing.T, productsFail bool) *apiclient.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/orders/admin", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"orders":[{"id":1,"status":"PENDING","totalAmount":"3.50"}],"pages":4}`))
	})
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		if productsFail {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"db down"}`))
			return
		}
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"products":[{"id":2,"name":"Pen","price":"1.00","stock":4,"category":"Office"}],"pages":1}`))
	})
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"name":"Root","role":"SUPERADMIN"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return apiclient.New(srv.URL)
}

func openAdmin(t *testing.T, api apiclient.API, p authz.Fixed) (*Admin, error) {
	t.Helper()
	return OpenAdmin(p, order.NewController(api, p, noCart{}), product.NewCatalog(api, p))
}

func TestAdminLoadsBothTables(t *testing.T) {
	d, err := openAdmin(t, backend(t, false), authz.Fixed{ID: 1, Role: authz.RoleAdmin})
	require.NoError(t, err)
	require.NoError(t, d.Load(context.Background()))

	assert.Len(t, d.Orders.Current().Items, 1)
	assert.Equal(t, 4, d.Orders.State().TotalPages())
	assert.Len(t, d.Products.Current().Items, 1)
}

func TestAdminTablesFailIndependently(t *testing.T) {
	d, err := openAdmin(t, backend(t, true), authz.Fixed{ID: 1, Role: authz.RoleSuperadmin})
	require.NoError(t, err)

	err = d.Load(context.Background())
	assert.ErrorIs(t, err, apiclient.ErrServer)
	assert.Len(t, d.Orders.Current().Items, 1)
	assert.NoError(t, d.Orders.Err())
	assert.Error(t, d.Products.Err())
}

func TestDashboardsRedirect(t *testing.T) {
	api := backend(t, false)

	_, err := openAdmin(t, api, authz.Fixed{ID: 2, Role: authz.RoleUser})
	var uv *authz.UnauthorizedViewError
	require.ErrorAs(t, err, &uv)
	assert.Equal(t, authz.ViewHome, uv.Redirect)

	admin := authz.Fixed{ID: 3, Role: authz.RoleAdmin}
	_, err = OpenSuperadmin(admin, user.NewAdmin(api, admin))
	require.ErrorAs(t, err, &uv)
	assert.Equal(t, authz.ViewSuperadminUsers, uv.View)
}

func TestSuperadminLoad(t *testing.T) {
	api := backend(t, false)
	root := authz.Fixed{ID: 1, Role: authz.RoleSuperadmin}
	d, err := OpenSuperadmin(root, user.NewAdmin(api, root))
	require.NoError(t, err)
	d.FilterRole(authz.RoleSuperadmin)
	require.NoError(t, d.Load(context.Background()))
	assert.Equal(t, 1, d.Users.Current().TotalPages)
	assert.Equal(t, "SUPERADMIN", d.Users.State().Filter("role"))
}
