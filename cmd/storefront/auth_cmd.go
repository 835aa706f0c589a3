package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MikeMC777/storefront/internal/authz"
	"github.com/MikeMC777/storefront/internal/user"
)

func newLoginCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login EMAIL",
		Short: "Sign in and remember the token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.sess.Login(cmd.Context(), a.api, args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Signed in as %s (%s)\n", u.Name, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var in user.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.sess.Register(cmd.Context(), a.api, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Welcome, %s\n", u.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVarP(&in.Password, "password", "p", "", "password")
	for _, f := range []string{"name", "email", "password"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sess.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account and its menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.sess.Principal()
			if p.Authenticated() {
				fmt.Fprintf(a.out, "%s <%s> #%d %s\n", p.Name, p.Email, p.ID, p.Role)
			} else {
				fmt.Fprintln(a.out, "Not signed in")
			}
			links := authz.NavLinks(p)
			names := make([]string, len(links))
			for i, v := range links {
				names[i] = string(v)
			}
			fmt.Fprintf(a.out, "menu: %s\n", strings.Join(names, ", "))
			return nil
		},
	}
}
