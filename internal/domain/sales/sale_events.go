package sales

import (
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeSale = "Sale"

// Event type constants
const (
	EventTypeSaleCompleted     = "SaleCompleted"
	EventTypeSaleStatusChanged = "SaleStatusChanged"
)

// SaleCompletedEvent is published after a checkout is recorded
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	SaleID        uuid.UUID       `json:"sale_id"`
	OrderNumber   string          `json:"order_number"`
	Total         decimal.Decimal `json:"total"`
	ItemCount     int             `json:"item_count"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	CashierID     string          `json:"cashier_id"`
}

// NewSaleCompletedEvent creates a new SaleCompletedEvent
func NewSaleCompletedEvent(sale *SaleRecord) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCompleted, AggregateTypeSale, sale.ID),
		SaleID:          sale.ID,
		OrderNumber:     sale.OrderNumber,
		Total:           sale.Total,
		ItemCount:       sale.ItemCount(),
		PaymentMethod:   sale.Payment.Method(),
		CashierID:       sale.CashierID,
	}
}

// SaleStatusChangedEvent is published when a settlement process changes a sale's status
type SaleStatusChangedEvent struct {
	shared.BaseDomainEvent
	SaleID    uuid.UUID  `json:"sale_id"`
	OldStatus SaleStatus `json:"old_status"`
	NewStatus SaleStatus `json:"new_status"`
}

// NewSaleStatusChangedEvent creates a new SaleStatusChangedEvent
func NewSaleStatusChangedEvent(sale *SaleRecord, old SaleStatus) *SaleStatusChangedEvent {
	return &SaleStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleStatusChanged, AggregateTypeSale, sale.ID),
		SaleID:          sale.ID,
		OldStatus:       old,
		NewStatus:       sale.Status,
	}
}
