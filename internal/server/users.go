package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/authz"
	"github.com/MikeMC777/storefront/internal/session"
	"github.com/MikeMC777/storefront/internal/user"
)

func (h *handlers) issue(c *gin.Context, status int, u *user.User) {
	token, err := session.Sign(h.secret, u.Principal(), h.ttl)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(status, user.AuthResponse{Token: token, User: *u})
}

// register godoc
// @Summary  Create a USER account
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body user.RegisterRequest true "account"
// @Success  201 {object} user.AuthResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse
// @Router   /auth/register [post]
func (h *handlers) register(c *gin.Context) {
	var in user.RegisterRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid payload")
		return
	}
	u, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	h.issue(c, http.StatusCreated, u)
}

// login godoc
// @Summary  Exchange credentials for a token
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body user.LoginRequest true "credentials"
// @Success  200 {object} user.AuthResponse
// @Failure  401 {object} ErrorResponse
// @Router   /auth/login [post]
func (h *handlers) login(c *gin.Context) {
	var in user.LoginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid payload")
		return
	}
	u, err := h.users.Authenticate(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		respondErr(c, err)
		return
	}
	h.issue(c, http.StatusOK, u)
}

// listUsers godoc
// @Summary  List users
// @Tags     users
// @Produce  json
// @Security BearerAuth
// @Param    page  query int    false "page"
// @Param    limit query int    false "page size"
// @Param    role  query string false "USER, ADMIN or SUPERADMIN"
// @Success  200 {object} user.ListResponse
// @Router   /users [get]
func (h *handlers) listUsers(c *gin.Context) {
	pg := parsePaging(c)
	q := user.ListQuery{Limit: pg.Limit, Offset: pg.offset()}
	if raw := c.Query("role"); raw != "" {
		role, err := authz.ParseRole(raw)
		if err != nil || !role.Assignable() {
			fail(c, http.StatusBadRequest, "Invalid role")
			return
		}
		q.Role = role
	}
	items, total, err := h.users.List(c.Request.Context(), q)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, user.ListResponse{Users: items, Page: pg.Page, Pages: pg.pages(total)})
}

// setUserRole godoc
// @Summary  Change another user's role
// @Tags     users
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id   path int              true "user id"
// @Param    body body user.RoleRequest true "role"
// @Success  200 {object} user.User
// @Failure  400 {object} ErrorResponse
// @Router   /users/{id}/role [put]
func (h *handlers) setUserRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "role is required")
		return
	}
	role, err := authz.ParseRole(req.Role)
	if err != nil || req.Role == "" {
		fail(c, http.StatusBadRequest, "Invalid role")
		return
	}
	u, err := h.users.SetRole(c.Request.Context(), principalOf(c).ID, id, role)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// deleteUser godoc
// @Summary  Delete another user with their cart and orders
// @Tags     users
// @Security BearerAuth
// @Param    id path int true "user id"
// @Success  200 {object} MessageResponse
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Router   /users/{id} [delete]
func (h *handlers) deleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), principalOf(c).ID, id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "User deleted"})
}
