package financing

import (
	"time"

	"github.com/erp/pos/internal/domain/financing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateAgreementRequest finances the session cart
type CreateAgreementRequest struct {
	CustomerName  string          `json:"customer_name" binding:"required,min=1,max=200"`
	CustomerPhone string          `json:"customer_phone" binding:"max=50"`
	DownPayment   decimal.Decimal `json:"down_payment"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
	TermMonths    int             `json:"term_months" binding:"required,min=1,max=120"`
	Frequency     string          `json:"frequency" binding:"omitempty,oneof=monthly biweekly weekly"`
}

// Terms converts the request into domain terms
func (r CreateAgreementRequest) Terms() financing.Terms {
	return financing.Terms{
		DownPayment:  r.DownPayment,
		InterestRate: r.InterestRate,
		TermMonths:   r.TermMonths,
		Frequency:    financing.PaymentFrequency(r.Frequency),
	}
}

// Customer converts the request into the domain customer
func (r CreateAgreementRequest) Customer() financing.Customer {
	return financing.Customer{Name: r.CustomerName, Phone: r.CustomerPhone}
}

// RecordPaymentRequest settles the next installment
type RecordPaymentRequest struct {
	PaidAt *time.Time `json:"paid_at"`
}

// AgreementListFilter represents filter options for the agreement list
type AgreementListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=active completed defaulted"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
}

// ToDomain converts the filter to the domain filter
func (f AgreementListFilter) ToDomain() financing.AgreementFilter {
	out := financing.AgreementFilter{Status: financing.AgreementStatus(f.Status)}
	out.Page = max(f.Page, 1)
	out.PageSize = f.PageSize
	if out.PageSize < 1 {
		out.PageSize = 20
	}
	out.OrderBy = "created_at"
	out.OrderDir = "desc"
	return out
}

// InstallmentResponse is one scheduled payment
type InstallmentResponse struct {
	Number  int             `json:"number"`
	DueDate time.Time       `json:"due_date"`
	Amount  decimal.Decimal `json:"amount"`
	Status  string          `json:"status"`
	PaidAt  *time.Time      `json:"paid_at,omitempty"`
}

// AgreementItemResponse is a financed product line
type AgreementItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
}

// AgreementResponse represents a hire-purchase agreement in API responses
type AgreementResponse struct {
	ID                 uuid.UUID               `json:"id"`
	AgreementNumber    string                  `json:"agreement_number"`
	CustomerName       string                  `json:"customer_name"`
	CustomerPhone      string                  `json:"customer_phone,omitempty"`
	Items              []AgreementItemResponse `json:"items"`
	CartTotal          decimal.Decimal         `json:"cart_total"`
	DownPayment        decimal.Decimal         `json:"down_payment"`
	InterestRate       decimal.Decimal         `json:"interest_rate"`
	TermMonths         int                     `json:"term_months"`
	Frequency          string                  `json:"frequency"`
	AmountFinanced     decimal.Decimal         `json:"amount_financed"`
	MonthlyPayment     decimal.Decimal         `json:"monthly_payment"`
	TotalRepayable     decimal.Decimal         `json:"total_repayable"`
	OutstandingBalance decimal.Decimal         `json:"outstanding_balance"`
	Status             string                  `json:"status"`
	StartDate          time.Time               `json:"start_date"`
	NextDueDate        *time.Time              `json:"next_due_date,omitempty"`
	Schedule           []InstallmentResponse   `json:"schedule"`
	CreatedBy          string                  `json:"created_by,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	Version            int                     `json:"version"`
}

// ToAgreementResponse converts a domain agreement to AgreementResponse
func ToAgreementResponse(a *financing.HirePurchaseAgreement) *AgreementResponse {
	items := make([]AgreementItemResponse, len(a.Items))
	for i, it := range a.Items {
		items[i] = AgreementItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Amount:    it.Amount,
		}
	}
	schedule := make([]InstallmentResponse, len(a.Schedule))
	for i, inst := range a.Schedule {
		schedule[i] = InstallmentResponse{
			Number:  inst.Number,
			DueDate: inst.DueDate,
			Amount:  inst.Amount,
			Status:  string(inst.Status),
			PaidAt:  inst.PaidAt,
		}
	}

	resp := &AgreementResponse{
		ID:                 a.ID,
		AgreementNumber:    a.AgreementNumber,
		CustomerName:       a.Customer.Name,
		CustomerPhone:      a.Customer.Phone,
		Items:              items,
		CartTotal:          a.CartTotal,
		DownPayment:        a.DownPayment,
		InterestRate:       a.InterestRate,
		TermMonths:         a.TermMonths,
		Frequency:          string(a.Frequency),
		AmountFinanced:     a.AmountFinanced,
		MonthlyPayment:     a.MonthlyPayment,
		TotalRepayable:     a.TotalRepayable,
		OutstandingBalance: a.OutstandingBalance(),
		Status:             a.Status.String(),
		StartDate:          a.StartDate,
		Schedule:           schedule,
		CreatedBy:          a.CreatedBy,
		CreatedAt:          a.CreatedAt,
		Version:            a.Version,
	}
	if next := a.NextDue(); next != nil {
		due := next.DueDate
		resp.NextDueDate = &due
	}
	return resp
}
