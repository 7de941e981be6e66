package financing

import (
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// InstallmentStatus represents the state of one scheduled payment
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "pending"
	InstallmentStatusPaid    InstallmentStatus = "paid"
	InstallmentStatusOverdue InstallmentStatus = "overdue"
)

// IsValid checks if the status is a valid InstallmentStatus
func (s InstallmentStatus) IsValid() bool {
	switch s {
	case InstallmentStatusPending, InstallmentStatusPaid, InstallmentStatusOverdue:
		return true
	}
	return false
}

// Installment is one entry of a repayment schedule
type Installment struct {
	Number  int               `json:"number"`
	DueDate time.Time         `json:"due_date"`
	Amount  decimal.Decimal   `json:"amount"`
	Status  InstallmentStatus `json:"status"`
	PaidAt  *time.Time        `json:"paid_at,omitempty"`
}

// IsOutstanding returns true until the installment is paid
func (i Installment) IsOutstanding() bool {
	return i.Status != InstallmentStatusPaid
}

// DaysOverdue returns how many whole days past due the installment is at asOf
func (i Installment) DaysOverdue(asOf time.Time) int {
	if !i.IsOutstanding() || !asOf.After(i.DueDate) {
		return 0
	}
	return int(asOf.Sub(i.DueDate).Hours() / 24)
}

// TotalRepayable is the financed amount plus flat interest charged once over the term
func TotalRepayable(amountFinanced, interestRate decimal.Decimal) decimal.Decimal {
	return amountFinanced.Mul(decimal.NewFromInt(1).Add(interestRate.Div(hundred)))
}

// MonthlyPayment returns amountFinanced × (1 + rate/100) / term
func MonthlyPayment(amountFinanced, interestRate decimal.Decimal, termMonths int) (decimal.Decimal, error) {
	if termMonths < 1 {
		return decimal.Zero, ErrInvalidTerm
	}
	return TotalRepayable(amountFinanced, interestRate).Div(decimal.NewFromInt(int64(termMonths))), nil
}

// GenerateSchedule lays out termMonths equal installments, the first due one
// calendar month after start and each following one a month later.
func GenerateSchedule(amountFinanced, interestRate decimal.Decimal, termMonths int, start time.Time) ([]Installment, error) {
	monthly, err := MonthlyPayment(amountFinanced, interestRate, termMonths)
	if err != nil {
		return nil, err
	}
	amount := monthly.Round(2)

	schedule := make([]Installment, termMonths)
	for n := 1; n <= termMonths; n++ {
		schedule[n-1] = Installment{
			Number:  n,
			DueDate: AddMonths(start, n),
			Amount:  amount,
			Status:  InstallmentStatusPending,
		}
	}
	return schedule, nil
}

// AddMonths moves t forward by n calendar months, clamping to the last day
// of the target month (Jan 31 + 1 month is Feb 28 or 29).
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return first.AddDate(0, 0, day-1)
}

// ErrInvalidTerm is returned for a term shorter than one month
var ErrInvalidTerm = shared.NewDomainError("INVALID_TERM", "Term must be at least one month")
