package authz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanAccessDashboards(t *testing.T) {
	assert.False(t, CanAccess(ViewAdminDashboard, Principal{ID: 1, Role: RoleUser}))
	assert.True(t, CanAccess(ViewAdminDashboard, Principal{ID: 1, Role: RoleAdmin}))
	assert.True(t, CanAccess(ViewAdminDashboard, Principal{ID: 1, Role: RoleSuperadmin}))
	assert.False(t, CanAccess(ViewSuperadminUsers, Principal{ID: 1, Role: RoleAdmin}))
	assert.True(t, CanAccess(ViewSuperadminUsers, Principal{ID: 1, Role: RoleSuperadmin}))
	assert.False(t, CanAccess(ViewAdminDashboard, Principal{}))
}

func TestCanAccessShopperViews(t *testing.T) {
	for _, v := range []View{ViewCart, ViewCheckout, ViewMyOrders} {
		assert.False(t, CanAccess(v, Anonymous), v)
		assert.True(t, CanAccess(v, Principal{ID: 2, Role: RoleUser}), v)
	}
	for _, v := range []View{ViewHome, ViewProducts, ViewProductDetails, ViewLogin} {
		assert.True(t, CanAccess(v, Anonymous), v)
	}
}

func TestGuardRedirects(t *testing.T) {
	err := Guard(ViewAdminDashboard, Principal{ID: 3, Role: RoleUser})
	var uv *UnauthorizedViewError
	require.ErrorAs(t, err, &uv)
	assert.Equal(t, ViewHome, uv.Redirect)

	err = Guard(ViewSuperadminUsers, Anonymous)
	require.ErrorAs(t, err, &uv)
	assert.Equal(t, ViewHome, uv.Redirect)

	err = Guard(ViewCart, Anonymous)
	require.ErrorAs(t, err, &uv)
	assert.Equal(t, ViewLogin, uv.Redirect)

	assert.NoError(t, Guard(ViewCart, Principal{ID: 3, Role: RoleUser}))
}

func TestCanMutateSelfGuard(t *testing.T) {
	super := Principal{ID: 5, Role: RoleSuperadmin}
	assert.False(t, CanMutate(ActionDeleteUser, super, Target(5)))
	assert.False(t, CanMutate(ActionChangeRole, super, Target(5)))
	assert.True(t, CanMutate(ActionDeleteUser, super, Target(6)))
	assert.True(t, CanMutate(ActionChangeRole, super, Target(6)))

	err := Authorize(ActionDeleteUser, super, Target(5))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.Contains(t, err.Error(), "own account")
}

func TestCanMutateRoles(t *testing.T) {
	user := Principal{ID: 1, Role: RoleUser}
	admin := Principal{ID: 2, Role: RoleAdmin}

	assert.True(t, CanMutate(ActionManageCart, user, nil))
	assert.False(t, CanMutate(ActionManageCart, Anonymous, nil))
	assert.True(t, CanMutate(ActionPlaceOrder, admin, nil))

	assert.False(t, CanMutate(ActionSetOrderStatus, user, nil))
	assert.True(t, CanMutate(ActionSetOrderStatus, admin, nil))
	assert.True(t, CanMutate(ActionManageProducts, admin, nil))

	assert.False(t, CanMutate(ActionChangeRole, admin, Target(9)))
	assert.False(t, CanMutate(ActionListUsers, admin, nil))
	assert.False(t, CanMutate(Action("bogus"), Principal{ID: 1, Role: RoleSuperadmin}, nil))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	r, err = ParseRole("")
	require.NoError(t, err)
	assert.Equal(t, RoleAnonymous, r)

	_, err = ParseRole("root")
	assert.Error(t, err)
	assert.False(t, RoleAnonymous.Assignable())
}

func TestNavLinks(t *testing.T) {
	assert.Contains(t, NavLinks(Principal{Role: RoleAdmin, ID: 1}), ViewAdminDashboard)
	assert.NotContains(t, NavLinks(Principal{Role: RoleAdmin, ID: 1}), ViewCart)
	assert.Contains(t, NavLinks(Principal{Role: RoleUser, ID: 1}), ViewCart)
	assert.Contains(t, NavLinks(Anonymous), ViewLogin)
}
