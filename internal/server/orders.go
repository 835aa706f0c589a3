package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/order"
)

func (h *handlers) listOrders(c *gin.Context, userID int64) {
	pg := parsePaging(c)
	items, total, err := h.orders.List(c.Request.Context(), order.ListQuery{
		UserID:  userID,
		SortKey: pg.SortKey,
		Desc:    pg.Desc,
		Limit:   pg.Limit,
		Offset:  pg.offset(),
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, order.ListResponse{Orders: items, Page: pg.Page, Pages: pg.pages(total)})
}

// myOrders godoc
// @Summary  The caller's orders
// @Tags     orders
// @Produce  json
// @Security BearerAuth
// @Param    page  query int    false "page"
// @Param    limit query int    false "page size"
// @Param    sort  query string false "createdAt,desc"
// @Success  200 {object} order.ListResponse
// @Router   /orders [get]
func (h *handlers) myOrders(c *gin.Context) {
	h.listOrders(c, principalOf(c).ID)
}

// allOrders godoc
// @Summary  Every order
// @Tags     orders
// @Produce  json
// @Security BearerAuth
// @Param    page  query int    false "page"
// @Param    limit query int    false "page size"
// @Param    sort  query string false "createdAt,desc"
// @Success  200 {object} order.ListResponse
// @Router   /orders/admin [get]
func (h *handlers) allOrders(c *gin.Context) {
	h.listOrders(c, 0)
}

// placeOrder godoc
// @Summary      Check out the cart
// @Description  Creates a PENDING order from the caller's cart, captures the
// @Description  prices, decrements stock and empties the cart in one step.
// @Tags     orders
// @Produce  json
// @Security BearerAuth
// @Success  201 {object} order.Order
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse
// @Router   /orders [post]
func (h *handlers) placeOrder(c *gin.Context) {
	o, err := h.orders.CreateFromCart(c.Request.Context(), principalOf(c).ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	ordersCreated.Inc()
	h.log.Info().Int64("order", o.ID).Int64("user", o.UserID).Str("total", o.TotalAmount.String()).Msg("order created")
	c.JSON(http.StatusCreated, o)
}

// getOrder godoc
// @Summary  One order; owners and staff only
// @Tags     orders
// @Produce  json
// @Security BearerAuth
// @Param    id path int true "order id"
// @Success  200 {object} order.Order
// @Failure  404 {object} ErrorResponse
// @Router   /orders/{id} [get]
func (h *handlers) getOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	o, err := h.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	p := principalOf(c)
	if o.UserID != p.ID && !p.Role.IsStaff() {
		respondErr(c, order.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, o)
}

// setOrderStatus godoc
// @Summary      Set an order's status
// @Description  Only the value is validated; any transition is accepted.
// @Tags     orders
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id   path int                 true "order id"
// @Param    body body order.StatusRequest true "new status"
// @Success  200 {object} order.Order
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Router   /orders/{id}/status [put]
func (h *handlers) setOrderStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "status is required")
		return
	}
	s, err := order.ParseStatus(req.Status)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid status")
		return
	}
	o, err := h.orders.UpdateStatus(c.Request.Context(), id, s)
	if err != nil {
		respondErr(c, err)
		return
	}
	orderStatusChanges.WithLabelValues(string(s)).Inc()
	c.JSON(http.StatusOK, o)
}
