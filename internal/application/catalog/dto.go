package catalog

import (
	"time"

	"github.com/erp/pos/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name              string          `json:"name" binding:"required,min=1,max=200"`
	Price             decimal.Decimal `json:"price" binding:"required"`
	Quantity          int             `json:"quantity" binding:"min=0"`
	LowStockThreshold int             `json:"low_stock_threshold" binding:"min=0"`
	Barcode           string          `json:"barcode" binding:"max=50"`
}

// UpdateProductRequest represents a request to update a product.
// Omitted fields keep their current value.
type UpdateProductRequest struct {
	Name              *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Price             *decimal.Decimal `json:"price"`
	LowStockThreshold *int             `json:"low_stock_threshold" binding:"omitempty,min=0"`
	Barcode           *string          `json:"barcode" binding:"omitempty,max=50"`
}

// AdjustStockRequest changes the on-hand quantity by a signed delta
type AdjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"max=200"`
}

// ProductListFilter represents filter options for the product list
type ProductListFilter struct {
	Search   string `form:"search"`
	Barcode  string `form:"barcode"`
	LowStock bool   `form:"low_stock"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=name quantity created_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToDomain converts the filter into the repository filter, applying defaults
func (f ProductListFilter) ToDomain() catalog.ProductFilter {
	out := catalog.ProductFilter{
		NamePrefix:   f.Search,
		Barcode:      f.Barcode,
		LowStockOnly: f.LowStock,
	}
	out.Page = max(f.Page, 1)
	out.PageSize = f.PageSize
	if out.PageSize < 1 {
		out.PageSize = 20
	}
	out.OrderBy = f.OrderBy
	if out.OrderBy == "" {
		out.OrderBy = "name"
	}
	out.OrderDir = f.OrderDir
	if out.OrderDir == "" {
		out.OrderDir = "asc"
	}
	return out
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	Quantity          int             `json:"quantity"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	LowStock          bool            `json:"low_stock"`
	Barcode           string          `json:"barcode,omitempty"`
	ImageURL          string          `json:"image_url,omitempty"`
	Version           int             `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:                p.ID,
		Name:              p.Name,
		Price:             p.Price,
		Quantity:          p.Quantity,
		LowStockThreshold: p.LowStockThreshold,
		LowStock:          p.IsLowStock(),
		Barcode:           p.Barcode,
		Version:           p.Version,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}
