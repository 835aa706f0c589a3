package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/authz"
	"github.com/MikeMC777/storefront/internal/session"
	"github.com/MikeMC777/storefront/internal/user"
)

const principalKey = "principal"

// authenticate resolves an optional bearer token. A present but invalid
// token is rejected; a missing one leaves the request anonymous. The role is
// re-read from the store so role changes and deletions apply immediately.
func (h *handlers) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(principalKey, authz.Anonymous)
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			fail(c, http.StatusUnauthorized, "Invalid authorization header")
			return
		}
		p, err := session.Verify(h.secret, token)
		if err != nil {
			fail(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		u, err := h.users.Get(c.Request.Context(), p.ID)
		if errors.Is(err, user.ErrNotFound) {
			fail(c, http.StatusUnauthorized, "Account no longer exists")
			return
		}
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Set(principalKey, u.Principal())
		c.Next()
	}
}

func requireRole(roles ...authz.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principalOf(c)
		if !p.Authenticated() {
			fail(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		fail(c, http.StatusForbidden, "Insufficient permissions")
	}
}

func principalOf(c *gin.Context) authz.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(authz.Principal); ok {
			return p
		}
	}
	return authz.Anonymous
}
