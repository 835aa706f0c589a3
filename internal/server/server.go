// Package server is the reference backend: the REST contract the storefront
// client talks to, over pluggable repositories.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/time/rate"

	_ "github.com/MikeMC777/storefront/docs"
	"github.com/MikeMC777/storefront/internal/authz"
	"github.com/MikeMC777/storefront/internal/cart"
	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/product"
	"github.com/MikeMC777/storefront/internal/user"
)

// Deps are the collaborators of the router.
type Deps struct {
	Products product.Repository
	Carts    cart.Repository
	Orders   order.Repository
	Users    user.Repository

	Secret   []byte
	TokenTTL time.Duration
	Logger   zerolog.Logger

	// AllowedOrigins lists the browser origins allowed by CORS; empty allows
	// any origin.
	AllowedOrigins []string
	// AuthRate and AuthBurst throttle login and register per client IP.
	AuthRate  rate.Limit
	AuthBurst int
}

type handlers struct {
	products product.Repository
	carts    cart.Repository
	orders   order.Repository
	users    *user.Service
	secret   []byte
	ttl      time.Duration
	log      zerolog.Logger
}

// New builds the gin engine. Routes live under /api.
func New(d Deps) *gin.Engine {
	if d.TokenTTL <= 0 {
		d.TokenTTL = 24 * time.Hour
	}
	if d.AuthRate <= 0 {
		d.AuthRate = rate.Every(time.Second)
	}
	if d.AuthBurst <= 0 {
		d.AuthBurst = 10
	}
	h := &handlers{
		products: d.Products,
		carts:    d.Carts,
		orders:   d.Orders,
		users:    user.NewService(d.Users),
		secret:   d.Secret,
		ttl:      d.TokenTTL,
		log:      d.Logger,
	}

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(d.Logger), httpx.Metrics(), corsFor(d.AllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", httpx.MetricsHandler())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api", h.authenticate())
	{
		throttle := httpx.NewIPLimiter(d.AuthRate, d.AuthBurst).Middleware()
		api.POST("/auth/register", throttle, h.register)
		api.POST("/auth/login", throttle, h.login)

		api.GET("/products", h.listProducts)
		api.GET("/products/:id", h.getProduct)

		staff := requireRole(authz.RoleAdmin, authz.RoleSuperadmin)
		api.POST("/products", staff, h.createProduct)
		api.PUT("/products/:id", staff, h.updateProduct)
		api.DELETE("/products/:id", staff, h.deleteProduct)

		signedIn := requireRole(authz.RoleUser, authz.RoleAdmin, authz.RoleSuperadmin)
		api.GET("/cart", signedIn, h.getCart)
		api.POST("/cart", signedIn, h.addToCart)
		api.DELETE("/cart/:id", signedIn, h.removeFromCart)

		api.GET("/orders", signedIn, h.myOrders)
		api.POST("/orders", signedIn, h.placeOrder)
		api.GET("/orders/admin", staff, h.allOrders)
		api.GET("/orders/:id", signedIn, h.getOrder)
		api.PUT("/orders/:id/status", staff, h.setOrderStatus)

		super := requireRole(authz.RoleSuperadmin)
		api.GET("/users", super, h.listUsers)
		api.PUT("/users/:id/role", super, h.setUserRole)
		api.DELETE("/users/:id", super, h.deleteUser)
	}

	r.NoRoute(func(c *gin.Context) { fail(c, http.StatusNotFound, "Route not found") })
	return r
}

func corsFor(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
