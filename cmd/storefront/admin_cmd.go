package main

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/MikeMC777/storefront/internal/authz"
	"github.com/MikeMC777/storefront/internal/dashboard"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/product"
)

func newAdminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Staff dashboard: orders and products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dashboard.OpenAdmin(a.sess, a.orders, a.catalog)
			if err != nil {
				return err
			}
			// each table reports its own failure
			_ = d.Load(cmd.Context())
			fmt.Fprintln(a.out, "Orders")
			if err := d.Orders.Err(); err != nil {
				fmt.Fprintln(a.out, "  error:", describe(err))
			} else {
				printOrders(a.out, d.Orders.Current(), true)
			}
			fmt.Fprintln(a.out, "\nProducts")
			if err := d.Products.Err(); err != nil {
				fmt.Fprintln(a.out, "  error:", describe(err))
			} else {
				printProducts(a.out, d.Products.Current())
			}
			return nil
		},
	}
	cmd.AddCommand(newAdminOrdersCmd(a), newSetStatusCmd(a), newAdminProductCmd(a))
	return cmd
}

func newAdminOrdersCmd(a *app) *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List every order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.orders.AllOrders()
			if err != nil {
				return err
			}
			if err := applyList(v, lf); err != nil {
				return err
			}
			if err := a.orders.Refresh(cmd.Context(), v); err != nil {
				return err
			}
			if err := pageInRange(v.Current()); err != nil {
				return err
			}
			printOrders(a.out, v.Current(), true)
			return nil
		},
	}
	lf.register(cmd, "")
	return cmd
}

func newSetStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status ORDER_ID STATUS",
		Short: "Move an order to PENDING, COMPLETED or CANCELLED",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			next, err := order.ParseStatus(args[1])
			if err != nil {
				return err
			}
			if _, err := a.orders.Get(cmd.Context(), id); err != nil {
				return err
			}
			o, err := a.orders.SetStatus(cmd.Context(), id, next)
			if errors.Is(err, order.ErrIllegalTransition) {
				return fmt.Errorf("%w (set STOREFRONT_STRICT_TRANSITIONS=false to force)", err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Order #%d is now %s\n", o.ID, o.Status)
			return nil
		},
	}
}

// productFlags binds the product form. Only flags the user set override the
// prefilled values on update.
type productFlags struct {
	name, description, category, image, price string
	stock                                     int
}

func (f *productFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "product name")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().StringVar(&f.category, "category", "", "category")
	cmd.Flags().StringVar(&f.image, "image", "", "image URL")
	cmd.Flags().StringVar(&f.price, "price", "", "price, e.g. 19.99")
	cmd.Flags().IntVar(&f.stock, "stock", 0, "units in stock")
}

func (f *productFlags) apply(cmd *cobra.Command, in *product.Input) error {
	set := cmd.Flags().Changed
	if set("name") {
		in.Name = f.name
	}
	if set("description") {
		in.Description = f.description
	}
	if set("category") {
		in.Category = f.category
	}
	if set("image") {
		in.ImageURL = f.image
	}
	if set("stock") {
		in.Stock = f.stock
	}
	if set("price") {
		d, err := decimal.NewFromString(f.price)
		if err != nil {
			return fmt.Errorf("invalid price %q", f.price)
		}
		in.Price = d
	}
	return nil
}

func newAdminProductCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Create, update or delete products",
	}

	var cf productFlags
	create := &cobra.Command{
		Use:   "create",
		Short: "Add a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in product.Input
			if err := cf.apply(cmd, &in); err != nil {
				return err
			}
			p, err := a.catalog.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created product #%d\n", p.ID)
			return nil
		},
	}
	cf.register(create)

	var uf productFlags
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Edit a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := authz.Authorize(authz.ActionManageProducts, a.sess.Principal(), nil); err != nil {
				return err
			}
			cur, err := a.catalog.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			in := product.InputFrom(*cur)
			if err := uf.apply(cmd, &in); err != nil {
				return err
			}
			p, err := a.catalog.Update(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			printProduct(a.out, p)
			return nil
		},
	}
	uf.register(update)

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.catalog.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted product #%d\n", id)
			return nil
		},
	}

	cmd.AddCommand(create, update, del)
	return cmd
}

func newUsersCmd(a *app) *cobra.Command {
	var (
		page int
		role string
	)
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Superadmin user management",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := dashboard.OpenSuperadmin(a.sess, a.users)
			if err != nil {
				return err
			}
			if role != "" {
				r, err := authz.ParseRole(role)
				if err != nil {
					return err
				}
				s.FilterRole(r)
			}
			if !s.Users.SetPage(page) {
				return fmt.Errorf("invalid page %d", page)
			}
			if err := s.Load(cmd.Context()); err != nil {
				return err
			}
			printUsers(a.out, s.Users.Current(), a.users)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().StringVar(&role, "role", "", "only USER, ADMIN or SUPERADMIN")

	setRole := &cobra.Command{
		Use:   "set-role USER_ID ROLE",
		Short: "Change another user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			r, err := authz.ParseRole(args[1])
			if err != nil {
				return err
			}
			u, err := a.users.SetRole(cmd.Context(), id, r)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s is now %s\n", u.Email, u.Role)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete USER_ID",
		Short: "Delete another user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.users.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted user #%d\n", id)
			return nil
		},
	}

	cmd.AddCommand(setRole, del)
	return cmd
}
