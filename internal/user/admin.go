package user

import (
	"context"
	"fmt"
	"strconv"

	"github.com/MikeMC777/storefront/internal/apiclient"
	"github.com/MikeMC777/storefront/internal/authz"
	"github.com/MikeMC777/storefront/internal/collection"
	"github.com/MikeMC777/storefront/internal/query"
)

// PageSize of the user table.
const PageSize = 10

// Admin is the client of the SUPERADMIN user-management endpoints.
type Admin struct {
	api       apiclient.API
	principal authz.PrincipalSource
}

func NewAdmin(api apiclient.API, principal authz.PrincipalSource) *Admin {
	return &Admin{api: api, principal: principal}
}

// Users returns the user table. Filter "role" narrows it to one role.
func (a *Admin) Users() (*collection.View[User], error) {
	if err := authz.Authorize(authz.ActionListUsers, a.principal.Principal(), nil); err != nil {
		return nil, err
	}
	return collection.NewView[User](a.api, "/users", query.New(PageSize)), nil
}

// Editable reports whether the row for u offers role and delete controls.
// The signed-in account's own row never does.
func (a *Admin) Editable(u User) bool {
	return authz.CanMutate(authz.ActionChangeRole, a.principal.Principal(), authz.Target(u.ID))
}

func (a *Admin) SetRole(ctx context.Context, id int64, role authz.Role) (*User, error) {
	if err := authz.Authorize(authz.ActionChangeRole, a.principal.Principal(), authz.Target(id)); err != nil {
		return nil, err
	}
	if !role.Assignable() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	var u User
	if err := a.api.Put(ctx, path(id)+"/role", RoleRequest{Role: role}, &u); err != nil {
		return nil, fmt.Errorf("set role of user %d: %w", id, err)
	}
	return &u, nil
}

// Delete removes a user with their cart and orders.
func (a *Admin) Delete(ctx context.Context, id int64) error {
	if err := authz.Authorize(authz.ActionDeleteUser, a.principal.Principal(), authz.Target(id)); err != nil {
		return err
	}
	if err := a.api.Delete(ctx, path(id), nil); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}

func path(id int64) string {
	return "/users/" + strconv.FormatInt(id, 10)
}
