package models

import (
	"time"

	"github.com/erp/pos/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// Sale document fields used in queries
const (
	FieldSaleStatus       = "status"
	FieldSaleSoldAtMillis = "sold_at_ms"
)

// SaleDocument is the stored shape of a sale record
type SaleDocument struct {
	BaseDocument
	OrderNumber            string                 `json:"order_number"`
	Items                  []sales.SaleItem       `json:"items"`
	Subtotal               decimal.Decimal        `json:"subtotal"`
	LineDiscountTotal      decimal.Decimal        `json:"line_discount_total"`
	OverallDiscountPercent decimal.Decimal        `json:"overall_discount_percent"`
	Total                  decimal.Decimal        `json:"total"`
	Payment                sales.PaymentBreakdown `json:"payment"`
	PaymentMethod          sales.PaymentMethod    `json:"payment_method"`
	AmountPaid             decimal.Decimal        `json:"amount_paid"`
	Change                 decimal.Decimal        `json:"change"`
	CashierID              string                 `json:"cashier_id"`
	Status                 sales.SaleStatus       `json:"status"`
	SoldAt                 time.Time              `json:"sold_at"`
	SoldAtMillis           int64                  `json:"sold_at_ms"`
}

// ToDomain converts the document to a domain SaleRecord
func (m *SaleDocument) ToDomain() *sales.SaleRecord {
	return &sales.SaleRecord{
		BaseAggregateRoot:      m.BaseDocument.ToDomain(),
		OrderNumber:            m.OrderNumber,
		Items:                  m.Items,
		Subtotal:               m.Subtotal,
		LineDiscountTotal:      m.LineDiscountTotal,
		OverallDiscountPercent: m.OverallDiscountPercent,
		Total:                  m.Total,
		Payment:                m.Payment,
		AmountPaid:             m.AmountPaid,
		Change:                 m.Change,
		CashierID:              m.CashierID,
		Status:                 m.Status,
		SoldAt:                 m.SoldAt,
	}
}

// FromDomain populates the document from a domain SaleRecord
func (m *SaleDocument) FromDomain(s *sales.SaleRecord) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.OrderNumber = s.OrderNumber
	m.Items = s.Items
	m.Subtotal = s.Subtotal
	m.LineDiscountTotal = s.LineDiscountTotal
	m.OverallDiscountPercent = s.OverallDiscountPercent
	m.Total = s.Total
	m.Payment = s.Payment
	m.PaymentMethod = s.Payment.Method()
	m.AmountPaid = s.AmountPaid
	m.Change = s.Change
	m.CashierID = s.CashierID
	m.Status = s.Status
	m.SoldAt = s.SoldAt
	m.SoldAtMillis = s.SoldAt.UnixMilli()
}

// SaleDocumentFromDomain creates a document from a domain SaleRecord
func SaleDocumentFromDomain(s *sales.SaleRecord) *SaleDocument {
	m := &SaleDocument{}
	m.FromDomain(s)
	return m
}
