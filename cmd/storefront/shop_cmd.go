package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MikeMC777/storefront/internal/authz"
	"github.com/MikeMC777/storefront/internal/cart"
	"github.com/MikeMC777/storefront/internal/collection"
	"github.com/MikeMC777/storefront/internal/query"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// listFlags are the paging and sort flags every list command takes.
type listFlags struct {
	page int
	sort string
}

func (f *listFlags) register(cmd *cobra.Command, defaultSort string) {
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().StringVar(&f.sort, "sort", defaultSort, "sort as field,dir (e.g. price,asc)")
}

func applyList[T any](v *collection.View[T], f listFlags) error {
	if f.sort != "" {
		key, dir, err := query.ParseSort(f.sort)
		if err != nil {
			return err
		}
		if err := v.SetSort(key, dir); err != nil {
			return err
		}
	}
	if !v.SetPage(f.page) {
		return fmt.Errorf("invalid page %d", f.page)
	}
	return nil
}

// pageInRange rejects a page the server answered beyond the last one.
func pageInRange[T any](p collection.Page[T]) error {
	if p.OutOfRange() {
		return fmt.Errorf("page %d is past the last page (%d)", p.Page, p.TotalPages)
	}
	return nil
}

func newProductsCmd(a *app) *cobra.Command {
	var (
		lf               listFlags
		search, category string
	)
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := a.catalog.Browse()
			v.SetFilter("search", search)
			v.SetFilter("category", category)
			if err := applyList(v, lf); err != nil {
				return err
			}
			if err := v.Refresh(cmd.Context()); err != nil {
				return err
			}
			if err := pageInRange(v.Current()); err != nil {
				return err
			}
			printProducts(a.out, v.Current())
			return nil
		},
	}
	lf.register(cmd, "")
	cmd.Flags().StringVar(&search, "search", "", "name or description contains")
	cmd.Flags().StringVar(&category, "category", "", "exact category")
	return cmd
}

func newProductCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "product ID",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.catalog.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			printProduct(a.out, p)
			return nil
		},
	}
}

func newCartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return authz.Guard(authz.ViewCart, a.sess.Principal())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cart.Refresh(cmd.Context()); err != nil {
				return err
			}
			printCart(a.out, a.cart)
			return nil
		},
	}

	var qty int
	add := &cobra.Command{
		Use:   "add PRODUCT_ID",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := authz.Guard(authz.ViewCart, a.sess.Principal()); err != nil {
				return err
			}
			if err := a.cart.AddProduct(cmd.Context(), id, qty); err != nil {
				return err
			}
			printCart(a.out, a.cart)
			return nil
		},
	}
	add.Flags().IntVarP(&qty, "qty", "q", 1, "quantity to add")

	set := &cobra.Command{
		Use:   "set LINE_ID QUANTITY",
		Short: "Set the quantity of a cart line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := a.lineArg(cmd, args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			if err := a.cart.SetQuantity(cmd.Context(), line, n); err != nil {
				return err
			}
			printCart(a.out, a.cart)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove LINE_ID",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := a.lineArg(cmd, args[0])
			if err != nil {
				return err
			}
			if err := a.cart.RemoveLine(cmd.Context(), line); err != nil {
				return err
			}
			printCart(a.out, a.cart)
			return nil
		},
	}

	cmd.AddCommand(add, set, remove)
	return cmd
}

// lineArg loads the cart and resolves a line id against it.
func (a *app) lineArg(cmd *cobra.Command, arg string) (cart.Line, error) {
	id, err := parseID(arg)
	if err != nil {
		return cart.Line{}, err
	}
	if err := authz.Guard(authz.ViewCart, a.sess.Principal()); err != nil {
		return cart.Line{}, err
	}
	if err := a.cart.Refresh(cmd.Context()); err != nil {
		return cart.Line{}, err
	}
	line, ok := a.cart.Line(id)
	if !ok {
		return cart.Line{}, fmt.Errorf("%w: %d", cart.ErrLineNotFound, id)
	}
	return line, nil
}

func newCheckoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := authz.Guard(authz.ViewCheckout, a.sess.Principal()); err != nil {
				return err
			}
			if err := a.cart.Refresh(cmd.Context()); err != nil {
				return err
			}
			o, err := a.orders.PlaceOrder(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Order placed.")
			printOrder(a.out, o)
			return nil
		},
	}
}

func newOrdersCmd(a *app) *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Show your order history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.orders.MyOrders()
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
			printOrders(a.out, v.Current(), false)
			return nil
		},
	}
	lf.register(cmd, "")
	return cmd
}
