package product

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/storefront/internal/apiclient"
	"github.com/MikeMC777/storefront/internal/authz"
)

func validInput() Input {
	return Input{
		Name:        " Starter Kit ",
		Description: "Basic",
		Price:       decimal.RequireFromString("49.90"),
		Stock:       10,
		Category:    "Kits",
	}
}

func TestInputValidate(t *testing.T) {
	in := validInput()
	require.NoError(t, in.Validate())
	assert.Equal(t, "Starter Kit", in.Name)

	cases := map[string]struct {
		mutate func(*Input)
		want   error
	}{
		"no name":        {func(i *Input) { i.Name = "  " }, ErrNameRequired},
		"no category":    {func(i *Input) { i.Category = "" }, ErrCategoryRequired},
		"no description": {func(i *Input) { i.Description = "" }, ErrDescriptionRequired},
		"negative price": {func(i *Input) { i.Price = decimal.NewFromInt(-1) }, ErrNegativePrice},
		"negative stock": {func(i *Input) { i.Stock = -2 }, ErrNegativeStock},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			assert.ErrorIs(t, in.Validate(), tc.want)
		})
	}
}

func TestCreateRequiresStaff(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := NewCatalog(apiclient.New(srv.URL), authz.Fixed{ID: 1, Role: authz.RoleUser})
	_, err := c.Create(context.Background(), validInput())
	assert.ErrorIs(t, err, authz.ErrForbidden)
	assert.ErrorIs(t, c.Delete(context.Background(), 3), authz.ErrForbidden)
	_, err = c.AdminList()
	assert.ErrorIs(t, err, authz.ErrForbidden)
	assert.Zero(t, calls.Load())
}

func TestCreateAndUpdateSendPayload(t *testing.T) {
	var got []Input
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in Input
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		got = append(got, in)
		paths = append(paths, r.Method+" "+r.URL.Path)
		_ = json.NewEncoder(w).Encode(Product{ID: 12, Name: in.Name, Price: in.Price, Stock: in.Stock})
	}))
	defer srv.Close()

	c := NewCatalog(apiclient.New(srv.URL), authz.Fixed{ID: 1, Role: authz.RoleAdmin})
	p, err := c.Create(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, int64(12), p.ID)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("49.9")))

	in := InputFrom(*p)
	in.Description = "Updated"
	in.Category = "Kits"
	_, err = c.Update(context.Background(), 12, in)
	require.NoError(t, err)

	assert.Equal(t, []string{"POST /products", "PUT /products/12"}, paths)
	assert.Equal(t, "Starter Kit", got[0].Name)
	assert.Equal(t, "Updated", got[1].Description)
}

func TestGetDecodesStringPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/4", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":4,"name":"Mouse","price":"9.99","stock":3,"category":"Electronics"}`))
	}))
	defer srv.Close()

	c := NewCatalog(apiclient.New(srv.URL), authz.Fixed(authz.Anonymous))
	p, err := c.Get(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "9.99", p.Price.StringFixed(2))
	assert.Equal(t, "Electronics", p.Category)
}
