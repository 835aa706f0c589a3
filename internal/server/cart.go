package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/cart"
)

// getCart godoc
// @Summary  The caller's cart lines
// @Tags     cart
// @Produce  json
// @Security BearerAuth
// @Success  200 {array} cart.Line
// @Router   /cart [get]
func (h *handlers) getCart(c *gin.Context) {
	lines, err := h.carts.Lines(c.Request.Context(), principalOf(c).ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, lines)
}

// addToCart godoc
// @Summary      Add to a cart line
// @Description  Additive: quantity is added to the existing line for the
// @Description  product (negative subtracts) or starts a new line. The result
// @Description  must stay between 1 and the product's stock.
// @Tags     cart
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body cart.AddRequest true "product and quantity delta"
// @Success  200 {object} cart.Line
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse
// @Router   /cart [post]
func (h *handlers) addToCart(c *gin.Context) {
	var req cart.AddRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID <= 0 {
		fail(c, http.StatusBadRequest, "productId and quantity are required")
		return
	}
	if req.Quantity == 0 {
		fail(c, http.StatusBadRequest, "Quantity must be non-zero")
		return
	}
	line, err := h.carts.Add(c.Request.Context(), principalOf(c).ID, req.ProductID, req.Quantity)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, line)
}

// removeFromCart godoc
// @Summary  Remove a cart line
// @Tags     cart
// @Security BearerAuth
// @Param    id path int true "line id"
// @Success  200 {object} MessageResponse
// @Failure  404 {object} ErrorResponse
// @Router   /cart/{id} [delete]
func (h *handlers) removeFromCart(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	removed, err := h.carts.Remove(c.Request.Context(), principalOf(c).ID, id)
	if err != nil {
		respondErr(c, err)
		return
	}
	if !removed {
		fail(c, http.StatusNotFound, "Cart item not found")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Item removed from cart"})
}
