package catalog

import (
	"context"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductFilter narrows product listings
type ProductFilter struct {
	shared.Filter
	NamePrefix   string
	Barcode      string
	LowStockOnly bool
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByBarcode finds a product by its barcode
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)

	// FindAll finds all products matching the filter
	FindAll(ctx context.Context, filter ProductFilter) ([]Product, error)

	// Count counts products matching the filter
	Count(ctx context.Context, filter ProductFilter) (int64, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// UpdateStock writes the on-hand quantity without reading the current value first
	UpdateStock(ctx context.Context, id uuid.UUID, quantity int) error

	// Delete deletes a product
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductWatcher streams product listings as they change
type ProductWatcher interface {
	// Watch calls fn with the current matching products and again after every catalog change.
	// The returned stop function ends delivery.
	Watch(ctx context.Context, filter ProductFilter, fn func([]Product)) (stop func(), err error)
}
