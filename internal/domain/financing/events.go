package financing

import (
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeAgreement = "HirePurchaseAgreement"

// Event type constants
const (
	EventTypeHirePurchaseCreated    = "HirePurchaseCreated"
	EventTypeInstallmentPaid        = "InstallmentPaid"
	EventTypeAgreementStatusChanged = "AgreementStatusChanged"
)

// HirePurchaseCreatedEvent is published when an agreement is signed at the till
type HirePurchaseCreatedEvent struct {
	shared.BaseDomainEvent
	AgreementID     uuid.UUID       `json:"agreement_id"`
	AgreementNumber string          `json:"agreement_number"`
	CustomerName    string          `json:"customer_name"`
	AmountFinanced  decimal.Decimal `json:"amount_financed"`
	MonthlyPayment  decimal.Decimal `json:"monthly_payment"`
	TermMonths      int             `json:"term_months"`
}

// NewHirePurchaseCreatedEvent creates a new HirePurchaseCreatedEvent
func NewHirePurchaseCreatedEvent(a *HirePurchaseAgreement) *HirePurchaseCreatedEvent {
	return &HirePurchaseCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeHirePurchaseCreated, AggregateTypeAgreement, a.ID),
		AgreementID:     a.ID,
		AgreementNumber: a.AgreementNumber,
		CustomerName:    a.Customer.Name,
		AmountFinanced:  a.AmountFinanced,
		MonthlyPayment:  a.MonthlyPayment,
		TermMonths:      a.TermMonths,
	}
}

// InstallmentPaidEvent is published when an installment is settled
type InstallmentPaidEvent struct {
	shared.BaseDomainEvent
	AgreementID uuid.UUID       `json:"agreement_id"`
	Number      int             `json:"number"`
	Amount      decimal.Decimal `json:"amount"`
	PaidAt      time.Time       `json:"paid_at"`
}

// NewInstallmentPaidEvent creates a new InstallmentPaidEvent
func NewInstallmentPaidEvent(a *HirePurchaseAgreement, inst Installment) *InstallmentPaidEvent {
	e := &InstallmentPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstallmentPaid, AggregateTypeAgreement, a.ID),
		AgreementID:     a.ID,
		Number:          inst.Number,
		Amount:          inst.Amount,
	}
	if inst.PaidAt != nil {
		e.PaidAt = *inst.PaidAt
	}
	return e
}

// AgreementStatusChangedEvent is published when an agreement completes or defaults
type AgreementStatusChangedEvent struct {
	shared.BaseDomainEvent
	AgreementID uuid.UUID       `json:"agreement_id"`
	OldStatus   AgreementStatus `json:"old_status"`
	NewStatus   AgreementStatus `json:"new_status"`
}

// NewAgreementStatusChangedEvent creates a new AgreementStatusChangedEvent
func NewAgreementStatusChangedEvent(a *HirePurchaseAgreement, old AgreementStatus) *AgreementStatusChangedEvent {
	return &AgreementStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAgreementStatusChanged, AggregateTypeAgreement, a.ID),
		AgreementID:     a.ID,
		OldStatus:       old,
		NewStatus:       a.Status,
	}
}
