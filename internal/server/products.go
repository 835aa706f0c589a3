package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/product"
)

// listProducts godoc
// @Summary  List products
// @Tags     products
// @Produce  json
// @Param    page     query int    false "page (1-based)"
// @Param    limit    query int    false "page size (max 100)"
// @Param    sort     query string false "field,dir e.g. price,asc"
// @Param    search   query string false "name/description substring"
// @Param    category query string false "exact category"
// @Success  200 {object} product.ListResponse
// @Router   /products [get]
func (h *handlers) listProducts(c *gin.Context) {
	pg := parsePaging(c)
	items, total, err := h.products.List(c.Request.Context(), product.Query{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		SortKey:  pg.SortKey,
		Desc:     pg.Desc,
		Limit:    pg.Limit,
		Offset:   pg.offset(),
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, product.ListResponse{Products: items, Page: pg.Page, Pages: pg.pages(total)})
}

// getProduct godoc
// @Summary  Get a product
// @Tags     products
// @Produce  json
// @Param    id  path int true "product id"
// @Success  200 {object} product.Product
// @Failure  404 {object} ErrorResponse
// @Router   /products/{id} [get]
func (h *handlers) getProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func bindProduct(c *gin.Context) (product.Input, bool) {
	var in product.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid product payload")
		return in, false
	}
	if err := in.Validate(); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return in, false
	}
	return in, true
}

// createProduct godoc
// @Summary  Create a product
// @Tags     products
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body product.Input true "product"
// @Success  201 {object} product.Product
// @Failure  400 {object} ErrorResponse
// @Router   /products [post]
func (h *handlers) createProduct(c *gin.Context) {
	in, ok := bindProduct(c)
	if !ok {
		return
	}
	var p product.Product
	in.Apply(&p)
	if err := h.products.Create(c.Request.Context(), &p); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// updateProduct godoc
// @Summary  Replace a product's fields
// @Tags     products
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id   path int           true "product id"
// @Param    body body product.Input true "product"
// @Success  200 {object} product.Product
// @Failure  404 {object} ErrorResponse
// @Router   /products/{id} [put]
func (h *handlers) updateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	in, ok := bindProduct(c)
	if !ok {
		return
	}
	p := product.Product{ID: id}
	in.Apply(&p)
	if err := h.products.Update(c.Request.Context(), &p); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// deleteProduct godoc
// @Summary  Delete a product
// @Tags     products
// @Security BearerAuth
// @Param    id path int true "product id"
// @Success  200 {object} MessageResponse
// @Failure  404 {object} ErrorResponse
// @Router   /products/{id} [delete]
func (h *handlers) deleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	deleted, err := h.products.Delete(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	if !deleted {
		respondErr(c, product.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Product deleted"})
}
