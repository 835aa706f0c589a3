package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "orders_created_total",
		Help:      "Orders created from carts",
	})

	orderStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "order_status_changes_total",
		Help:      "Order status updates by target status",
	}, []string{"status"})
)
