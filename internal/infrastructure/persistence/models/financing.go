package models

import (
	"time"

	"github.com/erp/pos/internal/domain/financing"
	"github.com/erp/pos/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// Agreement document fields used in queries
const (
	FieldAgreementStatus = "status"
)

// AgreementDocument is the stored shape of a hire-purchase agreement.
// The schedule is embedded; installments are never queried on their own.
type AgreementDocument struct {
	BaseDocument
	AgreementNumber string                     `json:"agreement_number"`
	CustomerName    string                     `json:"customer_name"`
	CustomerPhone   string                     `json:"customer_phone,omitempty"`
	Items           []sales.SaleItem           `json:"items"`
	CartTotal       decimal.Decimal            `json:"cart_total"`
	DownPayment     decimal.Decimal            `json:"down_payment"`
	InterestRate    decimal.Decimal            `json:"interest_rate"`
	TermMonths      int                        `json:"term_months"`
	Frequency       financing.PaymentFrequency `json:"payment_frequency"`
	AmountFinanced  decimal.Decimal            `json:"amount_financed"`
	MonthlyPayment  decimal.Decimal            `json:"monthly_payment"`
	TotalRepayable  decimal.Decimal            `json:"total_repayable"`
	StartDate       time.Time                  `json:"start_date"`
	Status          financing.AgreementStatus  `json:"status"`
	Schedule        []financing.Installment    `json:"schedule"`
	CreatedBy       string                     `json:"created_by"`
}

// ToDomain converts the document to a domain HirePurchaseAgreement
func (m *AgreementDocument) ToDomain() *financing.HirePurchaseAgreement {
	return &financing.HirePurchaseAgreement{
		BaseAggregateRoot: m.BaseDocument.ToDomain(),
		AgreementNumber:   m.AgreementNumber,
		Customer:          financing.Customer{Name: m.CustomerName, Phone: m.CustomerPhone},
		Items:             m.Items,
		CartTotal:         m.CartTotal,
		DownPayment:       m.DownPayment,
		InterestRate:      m.InterestRate,
		TermMonths:        m.TermMonths,
		Frequency:         m.Frequency,
		AmountFinanced:    m.AmountFinanced,
		MonthlyPayment:    m.MonthlyPayment,
		TotalRepayable:    m.TotalRepayable,
		StartDate:         m.StartDate,
		Status:            m.Status,
		Schedule:          m.Schedule,
		CreatedBy:         m.CreatedBy,
	}
}

// FromDomain populates the document from a domain HirePurchaseAgreement
func (m *AgreementDocument) FromDomain(a *financing.HirePurchaseAgreement) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.AgreementNumber = a.AgreementNumber
	m.CustomerName = a.Customer.Name
	m.CustomerPhone = a.Customer.Phone
	m.Items = a.Items
	m.CartTotal = a.CartTotal
	m.DownPayment = a.DownPayment
	m.InterestRate = a.InterestRate
	m.TermMonths = a.TermMonths
	m.Frequency = a.Frequency
	m.AmountFinanced = a.AmountFinanced
	m.MonthlyPayment = a.MonthlyPayment
	m.TotalRepayable = a.TotalRepayable
	m.StartDate = a.StartDate
	m.Status = a.Status
	m.Schedule = a.Schedule
	m.CreatedBy = a.CreatedBy
}

// AgreementDocumentFromDomain creates a document from a domain HirePurchaseAgreement
func AgreementDocumentFromDomain(a *financing.HirePurchaseAgreement) *AgreementDocument {
	m := &AgreementDocument{}
	m.FromDomain(a)
	return m
}
