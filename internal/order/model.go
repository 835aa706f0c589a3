package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/product"
)

type Order struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"userId"`
	Items       []Item          `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	User        *Customer       `json:"user,omitempty"`
}

// Item is a purchased line. Price is the unit price captured at checkout and
// does not follow later catalog changes.
type Item struct {
	ID        int64            `json:"id"`
	OrderID   int64            `json:"orderId"`
	ProductID int64            `json:"productId"`
	Quantity  int              `json:"quantity"`
	Price     decimal.Decimal  `json:"price"`
	Product   *product.Product `json:"product,omitempty"`
}

// Customer is the slice of the ordering user shown in the admin order list.
type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ItemCount is the number of units in the order.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// ComputedTotal recomputes Σ price × quantity from the captured prices.
func (o Order) ComputedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// StatusRequest is the body of PUT /orders/{id}/status.
// swagger:model OrderStatusRequest
type StatusRequest struct {
	Status Status `json:"status" example:"COMPLETED" swaggertype:"string" enums:"PENDING,COMPLETED,CANCELLED"`
}

// ListResponse is the paged envelope of the order list endpoints.
// swagger:model OrderListResponse
type ListResponse struct {
	Orders []Order `json:"orders"`
	Page   int     `json:"page"`
	Pages  int     `json:"pages"`
}
