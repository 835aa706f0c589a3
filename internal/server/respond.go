package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/cart"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/product"
	"github.com/MikeMC777/storefront/internal/query"
	"github.com/MikeMC777/storefront/internal/user"
)

// ErrorResponse is the body of every non-2xx response.
// swagger:model ErrorResponse
type ErrorResponse struct {
	Message string `json:"message" example:"Product not found"`
}

// MessageResponse acknowledges a mutation without a resource body.
// swagger:model MessageResponse
type MessageResponse struct {
	Message string `json:"message" example:"Item removed from cart"`
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Message: msg})
}

// respondErr maps domain errors onto statuses. Anything unrecognised is a 500
// and its text stays in the log.
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, product.ErrNotFound):
		fail(c, http.StatusNotFound, "Product not found")
	case errors.Is(err, order.ErrNotFound):
		fail(c, http.StatusNotFound, "Order not found")
	case errors.Is(err, user.ErrNotFound):
		fail(c, http.StatusNotFound, "User not found")
	case errors.Is(err, cart.ErrQuantityBelowOne):
		fail(c, http.StatusBadRequest, "Quantity must be at least 1")
	case errors.Is(err, cart.ErrInsufficientStock):
		fail(c, http.StatusConflict, "Insufficient stock")
	case errors.Is(err, cart.ErrEmpty):
		fail(c, http.StatusBadRequest, "Cart is empty")
	case errors.Is(err, user.ErrAlreadyExist):
		fail(c, http.StatusConflict, "User already exists")
	case errors.Is(err, user.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, user.ErrSelfTarget):
		fail(c, http.StatusBadRequest, "You cannot modify your own account")
	case errors.Is(err, user.ErrInvalidInput), errors.Is(err, user.ErrInvalidRole), errors.Is(err, order.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, "Internal server error")
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

const (
	defaultLimit = 10
	maxLimit     = 100
)

// paging is the page/limit/sort triple shared by the list endpoints.
type paging struct {
	Page    int
	Limit   int
	SortKey string
	Desc    bool
}

func (p paging) offset() int { return (p.Page - 1) * p.Limit }

// pages is the page count for total rows, never less than 1.
func (p paging) pages(total int) int {
	n := (total + p.Limit - 1) / p.Limit
	if n < 1 {
		return 1
	}
	return n
}

// parsePaging reads page (>= 1), limit (default 10, at most 100) and
// sort=field,dir. Malformed values fall back to defaults; the sort field is
// validated by the repository's whitelist.
func parsePaging(c *gin.Context) paging {
	p := paging{Page: 1, Limit: defaultLimit}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		p.Limit = min(n, maxLimit)
	}
	if key, dir, err := query.ParseSort(c.Query("sort")); err == nil {
		p.SortKey = key
		p.Desc = dir == query.Desc
	}
	return p
}
