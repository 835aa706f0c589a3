package product

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Input is the payload of create and update. Every field is required.
// swagger:model ProductInput
type Input struct {
	Name        string          `json:"name"        example:"Mechanical Keyboard"`
	Description string          `json:"description" example:"RGB 60%"`
	Price       decimal.Decimal `json:"price"       example:"199.90" swaggertype:"string"`
	Stock       int             `json:"stock"       example:"10"`
	Category    string          `json:"category"    example:"Electronics"`
	ImageURL    string          `json:"imageUrl"    example:"https://img.example/kb.png"`
}

var (
	ErrNameRequired        = errors.New("product: name is required")
	ErrCategoryRequired    = errors.New("product: category is required")
	ErrDescriptionRequired = errors.New("product: description is required")
	ErrNegativePrice       = errors.New("product: price must be >= 0")
	ErrNegativeStock       = errors.New("product: stock must be >= 0")
)

// Validate trims text fields and checks the invariants.
func (in *Input) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	switch {
	case in.Name == "":
		return ErrNameRequired
	case in.Category == "":
		return ErrCategoryRequired
	case in.Description == "":
		return ErrDescriptionRequired
	case in.Price.IsNegative():
		return ErrNegativePrice
	case in.Stock < 0:
		return ErrNegativeStock
	}
	return nil
}

// Apply copies the input onto p.
func (in Input) Apply(p *Product) {
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Stock = in.Stock
	p.Category = in.Category
	p.ImageURL = in.ImageURL
}

// InputFrom prefills an edit form from an existing product.
func InputFrom(p Product) Input {
	return Input{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
	}
}

// ListResponse is the envelope of GET /products.
// swagger:model ProductList
type ListResponse struct {
	Products []Product `json:"products"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
}
