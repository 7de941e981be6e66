package sales

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleStatus represents the settlement status of a sale
type SaleStatus string

const (
	SaleStatusPending SaleStatus = "pending"
	SaleStatusPaid    SaleStatus = "paid"
	SaleStatusOverdue SaleStatus = "overdue"
)

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusPending, SaleStatusPaid, SaleStatusOverdue:
		return true
	}
	return false
}

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// SaleItem is a line of a recorded sale
type SaleItem struct {
	ProductID       uuid.UUID       `json:"product_id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Amount          decimal.Decimal `json:"amount"`
}

// ItemsFromCart converts cart lines into sale items
func ItemsFromCart(c *Cart) []SaleItem {
	items := make([]SaleItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, SaleItem{
			ProductID:       l.Product.ID,
			Name:            l.Product.Name,
			Price:           l.Product.Price,
			Quantity:        l.Quantity,
			DiscountPercent: l.DiscountPercent,
			Amount:          RoundMoney(l.Net()),
		})
	}
	return items
}

// SaleRecord is the snapshot of a completed checkout.
// It is written once; only its status is changed afterwards, by settlement processes.
type SaleRecord struct {
	shared.BaseAggregateRoot
	OrderNumber            string
	Items                  []SaleItem
	Subtotal               decimal.Decimal
	LineDiscountTotal      decimal.Decimal
	OverallDiscountPercent decimal.Decimal
	Total                  decimal.Decimal
	Payment                PaymentBreakdown
	AmountPaid             decimal.Decimal
	Change                 decimal.Decimal
	CashierID              string
	Status                 SaleStatus
	SoldAt                 time.Time
}

// NewSaleRecord prices the cart and validates the payment against it.
// Nothing is persisted here; a validation error means no write must be attempted.
func NewSaleRecord(cart *Cart, payment PaymentBreakdown, cashierID string, soldAt time.Time) (*SaleRecord, error) {
	if cart == nil || cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if err := payment.Validate(); err != nil {
		return nil, err
	}

	totals := Summarize(cart)
	paid := payment.Total()
	change := Change(paid, totals.Total)
	if change.IsNegative() {
		return nil, shared.NewDomainError("INSUFFICIENT_PAYMENT",
			fmt.Sprintf("Amount paid %s is less than total %s", paid.StringFixed(MoneyPlaces), totals.Total.StringFixed(MoneyPlaces)))
	}

	status := SaleStatusPaid
	if payment.OnAccount() {
		status = SaleStatusPending
	}

	sale := &SaleRecord{
		BaseAggregateRoot:      shared.NewBaseAggregateRoot(),
		Items:                  ItemsFromCart(cart),
		Subtotal:               totals.Subtotal,
		LineDiscountTotal:      totals.LineDiscountTotal,
		OverallDiscountPercent: cart.OverallDiscountPercent,
		Total:                  totals.Total,
		Payment:                payment,
		AmountPaid:             paid,
		Change:                 RoundMoney(change),
		CashierID:              cashierID,
		Status:                 status,
		SoldAt:                 soldAt,
	}
	sale.OrderNumber = NewOrderNumber(soldAt, sale.ID)

	sale.AddDomainEvent(NewSaleCompletedEvent(sale))

	return sale, nil
}

// UpdateStatus records a settlement status change made outside checkout
func (s *SaleRecord) UpdateStatus(status SaleStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid sale status: %s", status))
	}
	if s.Status == status {
		return nil
	}

	old := s.Status
	s.Status = status
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	s.AddDomainEvent(NewSaleStatusChangedEvent(s, old))

	return nil
}

// ItemCount returns the number of units sold
func (s *SaleRecord) ItemCount() int {
	n := 0
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}

// DiscountTotal returns everything taken off the subtotal
func (s *SaleRecord) DiscountTotal() decimal.Decimal {
	return s.Subtotal.Sub(s.Total)
}

// NewOrderNumber builds a human readable order number from the sale date and id
func NewOrderNumber(at time.Time, id uuid.UUID) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
	return fmt.Sprintf("POS-%s-%s", at.Format("20060102"), suffix)
}
