// Command storefront is the terminal front end of the storefront: it browses
// the catalog, manages the cart, places orders and runs the staff screens.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MikeMC777/storefront/internal/apiclient"
	"github.com/MikeMC777/storefront/internal/authz"
	"github.com/MikeMC777/storefront/internal/cart"
	"github.com/MikeMC777/storefront/internal/config"
	"github.com/MikeMC777/storefront/internal/log"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/product"
	"github.com/MikeMC777/storefront/internal/session"
	"github.com/MikeMC777/storefront/internal/user"
)

// app is the wiring shared by every command.
type app struct {
	cfg     config.Client
	sess    *session.Session
	api     *apiclient.Client
	catalog *product.Catalog
	cart    *cart.Reconciler
	orders  *order.Controller
	users   *user.Admin
	out     io.Writer
}

func newApp(cfg config.Client, out io.Writer) *app {
	sess := session.New(session.TokenFile{Path: cfg.TokenFile})
	api := apiclient.New(cfg.APIURL,
		apiclient.WithTokenSource(sess),
		apiclient.WithTimeout(cfg.HTTPTimeout),
	)
	rec := cart.NewReconciler(api, sess)
	return &app{
		cfg:     cfg,
		sess:    sess,
		api:     api,
		catalog: product.NewCatalog(api, sess),
		cart:    rec,
		orders:  order.NewController(api, sess, rec, order.WithStrictTransitions(cfg.StrictTransitions)),
		users:   user.NewAdmin(api, sess),
		out:     out,
	}
}

func newRootCmd(a *app) *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront client",
		Long:          "Browse the catalog, manage your cart and orders, and run the staff dashboards of a storefront API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := a.cfg.LogLevel
			if verbose {
				level = "debug"
			}
			log.Configure(log.Config{Level: level, Output: cmd.ErrOrStderr(), Service: "storefront"})
			return a.sess.Restore()
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests at debug level")
	root.SetOut(a.out)

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newProductsCmd(a),
		newProductCmd(a),
		newCartCmd(a),
		newCheckoutCmd(a),
		newOrdersCmd(a),
		newAdminCmd(a),
		newUsersCmd(a),
	)
	return root
}

// describe renders err the way the storefront shows it: redirects name their
// target, server failures show the server's message.
func describe(err error) string {
	var redirect *authz.UnauthorizedViewError
	var empty *order.EmptyCartError
	switch {
	case errors.As(err, &redirect):
		return fmt.Sprintf("%s is not available to %s; go to %s", redirect.View, redirect.Role, redirect.Redirect)
	case errors.As(err, &empty):
		return fmt.Sprintf("your cart is empty; go to %s", empty.Redirect)
	case errors.Is(err, authz.ErrForbidden):
		return "you are not allowed to do that"
	}
	return apiclient.UserMessage(err)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(config.LoadClient(), os.Stdout)
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}
