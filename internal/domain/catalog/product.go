package catalog

import (
	"strings"
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	maxProductNameLength = 200
	maxBarcodeLength     = 50
)

// Product is a sellable item in the catalog.
// Quantity is the on-hand stock as last written to the store; it is not
// reserved by carts and may be overwritten by concurrent checkouts.
type Product struct {
	shared.BaseAggregateRoot
	Name              string
	Price             decimal.Decimal
	Quantity          int
	LowStockThreshold int
	ImageKey          string
	Barcode           string
}

// NewProduct creates a new product
func NewProduct(name string, price decimal.Decimal, quantity, lowStockThreshold int) (*Product, error) {
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	if lowStockThreshold < 0 {
		return nil, shared.NewDomainError("INVALID_THRESHOLD", "Low stock threshold cannot be negative")
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		Price:             price,
		Quantity:          quantity,
		LowStockThreshold: lowStockThreshold,
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// Update changes the descriptive fields and price of the product
func (p *Product) Update(name string, price decimal.Decimal, lowStockThreshold int) error {
	if err := validateProductName(name); err != nil {
		return err
	}
	if err := validatePrice(price); err != nil {
		return err
	}
	if lowStockThreshold < 0 {
		return shared.NewDomainError("INVALID_THRESHOLD", "Low stock threshold cannot be negative")
	}

	p.Name = strings.TrimSpace(name)
	p.Price = price
	p.LowStockThreshold = lowStockThreshold
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductUpdatedEvent(p))

	return nil
}

// SetBarcode sets the product barcode
func (p *Product) SetBarcode(barcode string) error {
	if len(barcode) > maxBarcodeLength {
		return shared.NewDomainError("INVALID_BARCODE", "Barcode cannot exceed 50 characters")
	}

	p.Barcode = strings.TrimSpace(barcode)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// SetImage records the storage key of the product image
func (p *Product) SetImage(key string) {
	p.ImageKey = key
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// SetStock overwrites the on-hand quantity.
// The new value is taken as given; callers that computed it from an
// earlier snapshot accept that a concurrent write may be lost.
func (p *Product) SetStock(quantity int, reason string) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	old := p.Quantity
	p.Quantity = quantity
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductStockChangedEvent(p, old, reason))

	return nil
}

// AdjustStock changes the on-hand quantity by delta
func (p *Product) AdjustStock(delta int, reason string) error {
	if p.Quantity+delta < 0 {
		return shared.NewDomainError("INSUFFICIENT_STOCK", "Stock adjustment would result in negative quantity")
	}
	return p.SetStock(p.Quantity+delta, reason)
}

// IsLowStock returns true when the on-hand quantity is at or below the threshold
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.LowStockThreshold
}

// IsInStock returns true when at least one unit is on hand
func (p *Product) IsInStock() bool {
	return p.Quantity > 0
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > maxProductNameLength {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	return nil
}

func validateQuantity(quantity int) error {
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	return nil
}
