package cart

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/product"
)

var (
	// ErrQuantityBelowOne: a line never holds less than one unit. Removal is
	// the correct action, not clamping to zero.
	ErrQuantityBelowOne  = errors.New("cart: quantity must be at least 1")
	ErrLineNotFound      = errors.New("cart: line not found")
	ErrInsufficientStock = errors.New("cart: insufficient stock")
	ErrEmpty             = errors.New("cart: cart is empty")
)

// Line is one product in a user's cart. At most one line exists per
// (user, product).
type Line struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"userId"`
	ProductID int64            `json:"productId"`
	Quantity  int              `json:"quantity"`
	Product   *product.Product `json:"product,omitempty"`
}

// UnitPrice is the live product price, zero when the product is not embedded.
func (l Line) UnitPrice() decimal.Decimal {
	if l.Product == nil {
		return decimal.Zero
	}
	return l.Product.Price
}

// Subtotal is price × quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// AddRequest is the body of POST /cart: an additive upsert. Quantity is the
// amount to add to the existing line (negative values subtract) or the
// initial quantity of a new line.
// swagger:model CartAddRequest
type AddRequest struct {
	ProductID int64 `json:"productId" example:"4"`
	Quantity  int   `json:"quantity"  example:"1"`
}

// Subtotal sums the lines.
func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
