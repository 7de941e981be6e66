package sales

import (
	"context"
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
)

// SaleFilter narrows sale listings
type SaleFilter struct {
	shared.Filter
	From   *time.Time
	To     *time.Time
	Status SaleStatus
}

// SaleRecordRepository defines the interface for sale persistence
type SaleRecordRepository interface {
	// Create writes a new sale record
	Create(ctx context.Context, sale *SaleRecord) error

	// FindByID finds a sale by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*SaleRecord, error)

	// FindAll finds sales matching the filter, newest first by default
	FindAll(ctx context.Context, filter SaleFilter) ([]SaleRecord, error)

	// Count counts sales matching the filter
	Count(ctx context.Context, filter SaleFilter) (int64, error)

	// UpdateStatus writes only the status of a sale
	UpdateStatus(ctx context.Context, id uuid.UUID, status SaleStatus) error
}

// CartRepository keeps carts between requests of a checkout session
type CartRepository interface {
	// Get returns the session cart, or an empty cart when none is stored
	Get(ctx context.Context, sessionID string) (*Cart, error)

	// Save stores the cart
	Save(ctx context.Context, cart *Cart) error

	// Delete removes the session cart
	Delete(ctx context.Context, sessionID string) error
}
