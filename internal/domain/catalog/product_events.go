package catalog

import (
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCreated      = "ProductCreated"
	EventTypeProductUpdated      = "ProductUpdated"
	EventTypeProductStockChanged = "ProductStockChanged"
	EventTypeProductDeleted      = "ProductDeleted"
)

// ProductCreatedEvent is published when a new product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(product *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		Name:            product.Name,
		Price:           product.Price,
		Quantity:        product.Quantity,
	}
}

// ProductUpdatedEvent is published when a product is updated
type ProductUpdatedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
}

// NewProductUpdatedEvent creates a new ProductUpdatedEvent
func NewProductUpdatedEvent(product *Product) *ProductUpdatedEvent {
	return &ProductUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductUpdated, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		Name:            product.Name,
		Price:           product.Price,
	}
}

// ProductStockChangedEvent is published when the on-hand quantity changes
type ProductStockChangedEvent struct {
	shared.BaseDomainEvent
	ProductID         uuid.UUID `json:"product_id"`
	Name              string    `json:"name"`
	OldQuantity       int       `json:"old_quantity"`
	NewQuantity       int       `json:"new_quantity"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	Reason            string    `json:"reason"`
}

// NewProductStockChangedEvent creates a new ProductStockChangedEvent
func NewProductStockChangedEvent(product *Product, oldQuantity int, reason string) *ProductStockChangedEvent {
	return NewStockWrittenEvent(product.ID, product.Name, oldQuantity, product.Quantity, product.LowStockThreshold, reason)
}

// NewStockWrittenEvent describes a stock write made without loading the product,
// such as the decrement written at checkout from the cart snapshot
func NewStockWrittenEvent(productID uuid.UUID, name string, oldQuantity, newQuantity, threshold int, reason string) *ProductStockChangedEvent {
	return &ProductStockChangedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeProductStockChanged, AggregateTypeProduct, productID),
		ProductID:         productID,
		Name:              name,
		OldQuantity:       oldQuantity,
		NewQuantity:       newQuantity,
		LowStockThreshold: threshold,
		Reason:            reason,
	}
}

// CrossedLowStock reports whether this change moved the product into low stock
func (e *ProductStockChangedEvent) CrossedLowStock() bool {
	return e.OldQuantity > e.LowStockThreshold && e.NewQuantity <= e.LowStockThreshold
}

// ProductDeletedEvent is published when a product is removed from the catalog
type ProductDeletedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
}

// NewProductDeletedEvent creates a new ProductDeletedEvent
func NewProductDeletedEvent(id uuid.UUID) *ProductDeletedEvent {
	return &ProductDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductDeleted, AggregateTypeProduct, id),
		ProductID:       id,
	}
}
