// Package dashboard assembles the staff screens out of independent list views
// and loads them concurrently.
package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/MikeMC777/storefront/internal/authz"
	"github.com/MikeMC777/storefront/internal/collection"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/product"
	"github.com/MikeMC777/storefront/internal/user"
)

// Admin is the ADMIN/SUPERADMIN dashboard: the order table and the product
// table.
type Admin struct {
	Orders   *collection.View[order.Order]
	Products *collection.View[product.Product]

	orders *order.Controller
}

// OpenAdmin guards the view and builds its tables.
func OpenAdmin(p authz.PrincipalSource, orders *order.Controller, catalog *product.Catalog) (*Admin, error) {
	if err := authz.Guard(authz.ViewAdminDashboard, p.Principal()); err != nil {
		return nil, err
	}
	ov, err := orders.AllOrders()
	if err != nil {
		return nil, err
	}
	pv, err := catalog.AdminList()
	if err != nil {
		return nil, err
	}
	return &Admin{Orders: ov, Products: pv, orders: orders}, nil
}

// Load refreshes both tables concurrently. A failing table does not stop
// the other; each keeps its own error.
func (a *Admin) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return a.orders.Refresh(ctx, a.Orders) })
	g.Go(func() error { return a.Products.Refresh(ctx) })
	return g.Wait()
}

// Superadmin is the user-management screen.
type Superadmin struct {
	Users *collection.View[user.User]
}

func OpenSuperadmin(p authz.PrincipalSource, admin *user.Admin) (*Superadmin, error) {
	if err := authz.Guard(authz.ViewSuperadminUsers, p.Principal()); err != nil {
		return nil, err
	}
	uv, err := admin.Users()
	if err != nil {
		return nil, err
	}
	return &Superadmin{Users: uv}, nil
}

func (s *Superadmin) Load(ctx context.Context) error {
	return s.Users.Refresh(ctx)
}

// FilterRole narrows the table to one role; the empty role clears it.
func (s *Superadmin) FilterRole(role authz.Role) {
	s.Users.SetFilter("role", string(role))
}
