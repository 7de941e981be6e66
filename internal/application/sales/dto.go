package sales

import (
	"time"

	"github.com/erp/pos/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddToCartRequest adds one unit of a product, found by id or by barcode
type AddToCartRequest struct {
	ProductID *uuid.UUID `json:"product_id"`
	Barcode   string     `json:"barcode" binding:"max=50"`
}

// DiscountRequest sets a discount percentage. The value is not range checked.
type DiscountRequest struct {
	Percent decimal.Decimal `json:"percent"`
}

// CheckoutRequest is the payment tendered for the session cart
type CheckoutRequest struct {
	Cash    decimal.Decimal `json:"cash"`
	Card    decimal.Decimal `json:"card"`
	Account decimal.Decimal `json:"account"`
}

// Breakdown converts the request into the domain payment breakdown
func (r CheckoutRequest) Breakdown() sales.PaymentBreakdown {
	return sales.PaymentBreakdown{Cash: r.Cash, Card: r.Card, Account: r.Account}
}

// CartLineResponse is one cart line with its priced amounts
type CartLineResponse struct {
	ProductID       uuid.UUID       `json:"product_id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"`
	Stock           int             `json:"stock"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Gross           decimal.Decimal `json:"gross"`
	Discount        decimal.Decimal `json:"discount"`
	Net             decimal.Decimal `json:"net"`
}

// CartResponse is the session cart with its totals
type CartResponse struct {
	SessionID              string             `json:"session_id"`
	Lines                  []CartLineResponse `json:"lines"`
	ItemCount              int                `json:"item_count"`
	Subtotal               decimal.Decimal    `json:"subtotal"`
	LineDiscountTotal      decimal.Decimal    `json:"line_discount_total"`
	AfterLineDiscounts     decimal.Decimal    `json:"after_line_discounts"`
	OverallDiscountPercent decimal.Decimal    `json:"overall_discount_percent"`
	OverallDiscountAmount  decimal.Decimal    `json:"overall_discount_amount"`
	Total                  decimal.Decimal    `json:"total"`
	UpdatedAt              time.Time          `json:"updated_at"`
}

// ToCartResponse prices a cart for API responses
func ToCartResponse(c *sales.Cart) *CartResponse {
	totals := sales.Summarize(c)
	lines := make([]CartLineResponse, len(c.Lines))
	for i, l := range c.Lines {
		lines[i] = CartLineResponse{
			ProductID:       l.Product.ID,
			Name:            l.Product.Name,
			Price:           l.Product.Price,
			Quantity:        l.Quantity,
			Stock:           l.Product.Stock,
			DiscountPercent: l.DiscountPercent,
			Gross:           sales.RoundMoney(l.Gross()),
			Discount:        sales.RoundMoney(l.Discount()),
			Net:             sales.RoundMoney(l.Net()),
		}
	}
	return &CartResponse{
		SessionID:              c.SessionID,
		Lines:                  lines,
		ItemCount:              totals.ItemCount,
		Subtotal:               totals.Subtotal,
		LineDiscountTotal:      totals.LineDiscountTotal,
		AfterLineDiscounts:     totals.AfterLineDiscounts,
		OverallDiscountPercent: totals.OverallDiscountPercent,
		OverallDiscountAmount:  totals.OverallDiscountAmount,
		Total:                  totals.Total,
		UpdatedAt:              c.UpdatedAt,
	}
}

// SaleItemResponse is a line of a recorded sale
type SaleItemResponse struct {
	ProductID       uuid.UUID       `json:"product_id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Amount          decimal.Decimal `json:"amount"`
}

// SaleResponse represents a sale record in API responses
type SaleResponse struct {
	ID                     uuid.UUID          `json:"id"`
	OrderNumber            string             `json:"order_number"`
	Items                  []SaleItemResponse `json:"items"`
	Subtotal               decimal.Decimal    `json:"subtotal"`
	LineDiscountTotal      decimal.Decimal    `json:"line_discount_total"`
	OverallDiscountPercent decimal.Decimal    `json:"overall_discount_percent"`
	Total                  decimal.Decimal    `json:"total"`
	Cash                   decimal.Decimal    `json:"cash"`
	Card                   decimal.Decimal    `json:"card"`
	Account                decimal.Decimal    `json:"account"`
	PaymentMethod          string             `json:"payment_method"`
	AmountPaid             decimal.Decimal    `json:"amount_paid"`
	Change                 decimal.Decimal    `json:"change"`
	CashierID              string             `json:"cashier_id"`
	Status                 string             `json:"status"`
	SoldAt                 time.Time          `json:"sold_at"`
}

// ToSaleResponse converts a domain SaleRecord to SaleResponse
func ToSaleResponse(s *sales.SaleRecord) *SaleResponse {
	items := make([]SaleItemResponse, len(s.Items))
	for i, it := range s.Items {
		items[i] = SaleItemResponse(it)
	}
	return &SaleResponse{
		ID:                     s.ID,
		OrderNumber:            s.OrderNumber,
		Items:                  items,
		Subtotal:               s.Subtotal,
		LineDiscountTotal:      s.LineDiscountTotal,
		OverallDiscountPercent: s.OverallDiscountPercent,
		Total:                  s.Total,
		Cash:                   s.Payment.Cash,
		Card:                   s.Payment.Card,
		Account:                s.Payment.Account,
		PaymentMethod:          string(s.Payment.Method()),
		AmountPaid:             s.AmountPaid,
		Change:                 s.Change,
		CashierID:              s.CashierID,
		Status:                 s.Status.String(),
		SoldAt:                 s.SoldAt,
	}
}

// SaleListFilter represents filter options for the sale list
type SaleListFilter struct {
	From     *time.Time `form:"from" time_format:"2006-01-02"`
	To       *time.Time `form:"to" time_format:"2006-01-02"`
	Status   string     `form:"status" binding:"omitempty,oneof=pending paid overdue"`
	Page     int        `form:"page" binding:"min=0"`
	PageSize int        `form:"page_size" binding:"min=0,max=100"`
}

// ToDomain converts the filter, treating To as an inclusive calendar day
func (f SaleListFilter) ToDomain() sales.SaleFilter {
	out := sales.SaleFilter{
		From:   f.From,
		Status: sales.SaleStatus(f.Status),
	}
	if f.To != nil {
		end := f.To.AddDate(0, 0, 1)
		out.To = &end
	}
	out.Page = max(f.Page, 1)
	out.PageSize = f.PageSize
	if out.PageSize < 1 {
		out.PageSize = 20
	}
	out.OrderBy = "sold_at"
	out.OrderDir = "desc"
	return out
}

// UpdateSaleStatusRequest changes the settlement status of a sale
type UpdateSaleStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending paid overdue"`
}
