package product

import (
	"context"
	"fmt"
	"strconv"

	"github.com/MikeMC777/storefront/internal/apiclient"
	"github.com/MikeMC777/storefront/internal/authz"
	"github.com/MikeMC777/storefront/internal/collection"
	"github.com/MikeMC777/storefront/internal/query"
)

const (
	// ShopPageSize is the product grid size of the public catalog.
	ShopPageSize = 8
	// AdminPageSize is the product table size of the admin dashboard.
	AdminPageSize = 100
)

// Catalog is the client side of the product endpoints.
type Catalog struct {
	api       apiclient.API
	principal authz.PrincipalSource
}

func NewCatalog(api apiclient.API, principal authz.PrincipalSource) *Catalog {
	return &Catalog{api: api, principal: principal}
}

// Browse returns the public catalog view. Filters: search, category.
func (c *Catalog) Browse() *collection.View[Product] {
	return collection.NewView[Product](c.api, "/products", query.New(ShopPageSize))
}

// AdminList returns the product table of the admin dashboard.
func (c *Catalog) AdminList() (*collection.View[Product], error) {
	if err := authz.Authorize(authz.ActionManageProducts, c.principal.Principal(), nil); err != nil {
		return nil, err
	}
	return collection.NewView[Product](c.api, "/products", query.New(AdminPageSize)), nil
}

// Get loads one product.
func (c *Catalog) Get(ctx context.Context, id int64) (*Product, error) {
	var p Product
	if err := c.api.Get(ctx, path(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create adds a product. ADMIN or SUPERADMIN only.
func (c *Catalog) Create(ctx context.Context, in Input) (*Product, error) {
	if err := authz.Authorize(authz.ActionManageProducts, c.principal.Principal(), nil); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var p Product
	if err := c.api.Post(ctx, "/products", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update replaces a product's fields. ADMIN or SUPERADMIN only.
func (c *Catalog) Update(ctx context.Context, id int64, in Input) (*Product, error) {
	if err := authz.Authorize(authz.ActionManageProducts, c.principal.Principal(), nil); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var p Product
	if err := c.api.Put(ctx, path(id), in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a product. ADMIN or SUPERADMIN only.
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	if err := authz.Authorize(authz.ActionManageProducts, c.principal.Principal(), nil); err != nil {
		return err
	}
	if err := c.api.Delete(ctx, path(id), nil); err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	return nil
}

func path(id int64) string {
	return "/products/" + strconv.FormatInt(id, 10)
}
