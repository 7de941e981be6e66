package sales

import (
	"github.com/erp/pos/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentMethod summarises how a sale was tendered
type PaymentMethod string

const (
	PaymentMethodCash    PaymentMethod = "cash"
	PaymentMethodCard    PaymentMethod = "card"
	PaymentMethodAccount PaymentMethod = "account"
	PaymentMethodSplit   PaymentMethod = "split"
	PaymentMethodNone    PaymentMethod = "none"
)

// PaymentBreakdown is the amount tendered per method.
// Account is charged to the customer's account and settled later.
type PaymentBreakdown struct {
	Cash    decimal.Decimal `json:"cash"`
	Card    decimal.Decimal `json:"card"`
	Account decimal.Decimal `json:"account"`
}

// Validate rejects negative amounts
func (p PaymentBreakdown) Validate() error {
	if p.Cash.IsNegative() || p.Card.IsNegative() || p.Account.IsNegative() {
		return shared.NewDomainError("INVALID_PAYMENT", "Payment amounts cannot be negative")
	}
	return nil
}

// Total returns cash + card + account
func (p PaymentBreakdown) Total() decimal.Decimal {
	return p.Cash.Add(p.Card).Add(p.Account)
}

// OnAccount returns true when part of the payment was charged to account
func (p PaymentBreakdown) OnAccount() bool {
	return p.Account.IsPositive()
}

// Method reports the single method used, or split when several were
func (p PaymentBreakdown) Method() PaymentMethod {
	var used []PaymentMethod
	if p.Cash.IsPositive() {
		used = append(used, PaymentMethodCash)
	}
	if p.Card.IsPositive() {
		used = append(used, PaymentMethodCard)
	}
	if p.Account.IsPositive() {
		used = append(used, PaymentMethodAccount)
	}
	switch len(used) {
	case 0:
		return PaymentMethodNone
	case 1:
		return used[0]
	default:
		return PaymentMethodSplit
	}
}
