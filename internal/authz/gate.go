package authz

import (
	"errors"
	"fmt"
)

// View names a screen of the storefront.
type View string

const (
	ViewHome            View = "home"
	ViewLogin           View = "login"
	ViewSignup          View = "signup"
	ViewProducts        View = "products"
	ViewProductDetails  View = "product-details"
	ViewCart            View = "cart"
	ViewCheckout        View = "checkout"
	ViewMyOrders        View = "my-orders"
	ViewAdminDashboard  View = "admin-dashboard"
	ViewSuperadminUsers View = "superadmin-users"
)

// Action names a mutation (or privileged read) guarded by role.
type Action string

const (
	ActionManageCart     Action = "manage-cart"
	ActionPlaceOrder     Action = "place-order"
	ActionManageProducts Action = "manage-products"
	ActionViewAllOrders  Action = "view-all-orders"
	ActionSetOrderStatus Action = "set-order-status"
	ActionListUsers      Action = "list-users"
	ActionChangeRole     Action = "change-role"
	ActionDeleteUser     Action = "delete-user"
)

// ErrForbidden is wrapped by every mutation rejection.
var ErrForbidden = errors.New("authz: forbidden")

// UnauthorizedViewError is resolved by redirecting to Redirect, never by
// showing an error page.
type UnauthorizedViewError struct {
	View     View
	Role     Role
	Redirect View
}

func (e *UnauthorizedViewError) Error() string {
	return fmt.Sprintf("authz: %s may not open %s (redirect to %s)", e.Role, e.View, e.Redirect)
}

// CanAccess decides whether principal may open view.
func CanAccess(view View, p Principal) bool {
	role := p.EffectiveRole()
	switch view {
	case ViewAdminDashboard:
		return role.IsStaff()
	case ViewSuperadminUsers:
		return role == RoleSuperadmin
	case ViewCart, ViewCheckout, ViewMyOrders:
		return p.Authenticated()
	default:
		return true
	}
}

// Guard returns an *UnauthorizedViewError carrying the redirect target when
// principal may not open view.
func Guard(view View, p Principal) error {
	if CanAccess(view, p) {
		return nil
	}
	redirect := ViewHome
	if !p.Authenticated() && !isStaffView(view) {
		redirect = ViewLogin
	}
	return &UnauthorizedViewError{View: view, Role: p.EffectiveRole(), Redirect: redirect}
}

func isStaffView(v View) bool {
	return v == ViewAdminDashboard || v == ViewSuperadminUsers
}

// CanMutate decides whether principal may perform action. target is the user
// id the action is aimed at, if any.
func CanMutate(action Action, p Principal, target *int64) bool {
	role := p.EffectiveRole()
	switch action {
	case ActionManageCart, ActionPlaceOrder:
		if !p.Authenticated() {
			return false
		}
	case ActionManageProducts, ActionViewAllOrders, ActionSetOrderStatus:
		if !role.IsStaff() {
			return false
		}
	case ActionListUsers:
		if role != RoleSuperadmin {
			return false
		}
	case ActionChangeRole, ActionDeleteUser:
		if role != RoleSuperadmin {
			return false
		}
		// self-lockout guard: applies regardless of role
		if target != nil && *target == p.ID {
			return false
		}
	default:
		return false
	}
	return true
}

// Authorize is CanMutate returning an error wrapping ErrForbidden.
func Authorize(action Action, p Principal, target *int64) error {
	if CanMutate(action, p, target) {
		return nil
	}
	if target != nil && *target == p.ID && (action == ActionChangeRole || action == ActionDeleteUser) {
		return fmt.Errorf("%w: %s on own account", ErrForbidden, action)
	}
	return fmt.Errorf("%w: %s requires a different role than %s", ErrForbidden, action, p.EffectiveRole())
}

// Target is a convenience for building the optional target argument.
func Target(id int64) *int64 { return &id }

// NavLinks lists the views a principal's menu offers. ADMIN accounts only see
// the dashboard; shoppers see cart and orders.
func NavLinks(p Principal) []View {
	links := []View{ViewHome, ViewProducts}
	switch p.EffectiveRole() {
	case RoleAnonymous:
		return append(links, ViewLogin, ViewSignup)
	case RoleAdmin:
		return append(links, ViewAdminDashboard)
	case RoleSuperadmin:
		return append(links, ViewCart, ViewMyOrders, ViewAdminDashboard, ViewSuperadminUsers)
	default:
		return append(links, ViewCart, ViewMyOrders)
	}
}
