package financing

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/pos/internal/domain/sales"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AgreementStatus represents the status of a hire-purchase agreement
type AgreementStatus string

const (
	AgreementStatusActive    AgreementStatus = "active"
	AgreementStatusCompleted AgreementStatus = "completed"
	AgreementStatusDefaulted AgreementStatus = "defaulted"
)

// IsValid checks if the status is a valid AgreementStatus
func (s AgreementStatus) IsValid() bool {
	switch s {
	case AgreementStatusActive, AgreementStatusCompleted, AgreementStatusDefaulted:
		return true
	}
	return false
}

// String returns the string representation of AgreementStatus
func (s AgreementStatus) String() string {
	return string(s)
}

// PaymentFrequency is the agreed collection rhythm.
// It is recorded on the agreement; the schedule itself is always monthly.
type PaymentFrequency string

const (
	FrequencyMonthly  PaymentFrequency = "monthly"
	FrequencyBiweekly PaymentFrequency = "biweekly"
	FrequencyWeekly   PaymentFrequency = "weekly"
)

// IsValid checks if the frequency is known
func (f PaymentFrequency) IsValid() bool {
	switch f {
	case FrequencyMonthly, FrequencyBiweekly, FrequencyWeekly:
		return true
	}
	return false
}

// Customer identifies who the goods are financed for
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Terms are the financing terms agreed at the till
type Terms struct {
	DownPayment  decimal.Decimal
	InterestRate decimal.Decimal
	TermMonths   int
	Frequency    PaymentFrequency
}

// Validate checks the terms against the cart total being financed
func (t Terms) Validate(cartTotal decimal.Decimal) error {
	if t.TermMonths < 1 {
		return ErrInvalidTerm
	}
	if t.InterestRate.IsNegative() {
		return shared.NewDomainError("INVALID_INTEREST_RATE", "Interest rate cannot be negative")
	}
	if t.DownPayment.IsNegative() {
		return shared.NewDomainError("INVALID_DOWN_PAYMENT", "Down payment cannot be negative")
	}
	if t.DownPayment.GreaterThan(cartTotal) {
		return shared.NewDomainError("INVALID_DOWN_PAYMENT", "Down payment cannot exceed the cart total")
	}
	if t.Frequency != "" && !t.Frequency.IsValid() {
		return shared.NewDomainError("INVALID_FREQUENCY", fmt.Sprintf("Unknown payment frequency: %s", t.Frequency))
	}
	return nil
}

// HirePurchaseAgreement finances a cart over a fixed number of monthly installments
type HirePurchaseAgreement struct {
	shared.BaseAggregateRoot
	AgreementNumber string
	Customer        Customer
	Items           []sales.SaleItem
	CartTotal       decimal.Decimal
	DownPayment     decimal.Decimal
	InterestRate    decimal.Decimal
	TermMonths      int
	Frequency       PaymentFrequency
	AmountFinanced  decimal.Decimal
	MonthlyPayment  decimal.Decimal
	TotalRepayable  decimal.Decimal
	StartDate       time.Time
	Status          AgreementStatus
	Schedule        []Installment
	CreatedBy       string
}

// NewHirePurchaseAgreement builds an agreement for a priced cart
func NewHirePurchaseAgreement(customer Customer, cart *sales.Cart, terms Terms, start time.Time, createdBy string) (*HirePurchaseAgreement, error) {
	if cart == nil || cart.IsEmpty() {
		return nil, sales.ErrEmptyCart
	}
	if strings.TrimSpace(customer.Name) == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer name is required")
	}

	cartTotal := sales.Summarize(cart).Total
	if err := terms.Validate(cartTotal); err != nil {
		return nil, err
	}
	if terms.Frequency == "" {
		terms.Frequency = FrequencyMonthly
	}

	amountFinanced := cartTotal.Sub(terms.DownPayment)
	monthly, err := MonthlyPayment(amountFinanced, terms.InterestRate, terms.TermMonths)
	if err != nil {
		return nil, err
	}
	schedule, err := GenerateSchedule(amountFinanced, terms.InterestRate, terms.TermMonths, start)
	if err != nil {
		return nil, err
	}

	agreement := &HirePurchaseAgreement{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Customer:          Customer{Name: strings.TrimSpace(customer.Name), Phone: strings.TrimSpace(customer.Phone)},
		Items:             sales.ItemsFromCart(cart),
		CartTotal:         cartTotal,
		DownPayment:       terms.DownPayment,
		InterestRate:      terms.InterestRate,
		TermMonths:        terms.TermMonths,
		Frequency:         terms.Frequency,
		AmountFinanced:    amountFinanced,
		MonthlyPayment:    monthly.Round(2),
		TotalRepayable:    TotalRepayable(amountFinanced, terms.InterestRate).Round(2),
		StartDate:         start,
		Status:            AgreementStatusActive,
		Schedule:          schedule,
		CreatedBy:         createdBy,
	}
	agreement.AgreementNumber = newAgreementNumber(start, agreement.ID)

	agreement.AddDomainEvent(NewHirePurchaseCreatedEvent(agreement))

	return agreement, nil
}

// RecordPayment settles the earliest outstanding installment.
// The agreement completes once nothing is outstanding.
func (a *HirePurchaseAgreement) RecordPayment(paidAt time.Time) (*Installment, error) {
	if a.Status != AgreementStatusActive {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record a payment on a %s agreement", a.Status))
	}

	idx := -1
	for i := range a.Schedule {
		if a.Schedule[i].IsOutstanding() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, shared.NewDomainError("INVALID_STATE", "No outstanding installments")
	}

	inst := &a.Schedule[idx]
	inst.Status = InstallmentStatusPaid
	inst.PaidAt = &paidAt
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	a.AddDomainEvent(NewInstallmentPaidEvent(a, *inst))

	if a.OutstandingCount() == 0 {
		a.Status = AgreementStatusCompleted
		a.AddDomainEvent(NewAgreementStatusChangedEvent(a, AgreementStatusActive))
	}

	return inst, nil
}

// MarkOverdue flags pending installments due before asOf and returns how many changed
func (a *HirePurchaseAgreement) MarkOverdue(asOf time.Time) int {
	if a.Status != AgreementStatusActive {
		return 0
	}
	changed := 0
	for i := range a.Schedule {
		inst := &a.Schedule[i]
		if inst.Status == InstallmentStatusPending && inst.DueDate.Before(asOf) {
			inst.Status = InstallmentStatusOverdue
			changed++
		}
	}
	if changed > 0 {
		a.UpdatedAt = time.Now()
		a.IncrementVersion()
	}
	return changed
}

// MarkDefaulted closes an active agreement as defaulted
func (a *HirePurchaseAgreement) MarkDefaulted() error {
	if a.Status != AgreementStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot default a %s agreement", a.Status))
	}
	a.Status = AgreementStatusDefaulted
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	a.AddDomainEvent(NewAgreementStatusChangedEvent(a, AgreementStatusActive))
	return nil
}

// OutstandingCount returns the number of unpaid installments
func (a *HirePurchaseAgreement) OutstandingCount() int {
	n := 0
	for _, inst := range a.Schedule {
		if inst.IsOutstanding() {
			n++
		}
	}
	return n
}

// OutstandingBalance returns the sum of unpaid installments
func (a *HirePurchaseAgreement) OutstandingBalance() decimal.Decimal {
	sum := decimal.Zero
	for _, inst := range a.Schedule {
		if inst.IsOutstanding() {
			sum = sum.Add(inst.Amount)
		}
	}
	return sum
}

// NextDue returns the earliest unpaid installment, or nil when fully paid
func (a *HirePurchaseAgreement) NextDue() *Installment {
	for i := range a.Schedule {
		if a.Schedule[i].IsOutstanding() {
			return &a.Schedule[i]
		}
	}
	return nil
}

func newAgreementNumber(at time.Time, id uuid.UUID) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
	return fmt.Sprintf("HP-%s-%s", at.Format("20060102"), suffix)
}
