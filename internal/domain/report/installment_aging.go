package report

import (
	"time"

	"github.com/erp/pos/internal/domain/financing"
	"github.com/shopspring/decimal"
)

// AgingBucket names a range of days past due
type AgingBucket string

const (
	BucketCurrent AgingBucket = "current"
	Bucket1To30   AgingBucket = "1-30"
	Bucket31To60  AgingBucket = "31-60"
	Bucket61To90  AgingBucket = "61-90"
	BucketOver90  AgingBucket = "90+"
)

// AgingBuckets lists the buckets in report order
var AgingBuckets = []AgingBucket{BucketCurrent, Bucket1To30, Bucket31To60, Bucket61To90, BucketOver90}

// BucketFor returns the bucket for a number of days past due
func BucketFor(daysOverdue int) AgingBucket {
	switch {
	case daysOverdue <= 0:
		return BucketCurrent
	case daysOverdue <= 30:
		return Bucket1To30
	case daysOverdue <= 60:
		return Bucket31To60
	case daysOverdue <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// AgingLine is the outstanding total of one bucket
type AgingLine struct {
	Bucket       AgingBucket     `json:"bucket"`
	Installments int             `json:"installments"`
	Amount       decimal.Decimal `json:"amount"`
}

// InstallmentAging buckets the unpaid installments of active agreements
type InstallmentAging struct {
	AsOf             time.Time       `json:"as_of"`
	AgreementsActive int             `json:"agreements_active"`
	Lines            []AgingLine     `json:"lines"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

// AgeInstallments buckets every unpaid installment of the active agreements by
// how far past due it is at asOf. Installments not yet due count as current.
func AgeInstallments(agreements []financing.HirePurchaseAgreement, asOf time.Time) InstallmentAging {
	lines := make(map[AgingBucket]*AgingLine, len(AgingBuckets))
	for _, b := range AgingBuckets {
		lines[b] = &AgingLine{Bucket: b, Amount: decimal.Zero}
	}

	aging := InstallmentAging{AsOf: asOf, TotalOutstanding: decimal.Zero}
	for i := range agreements {
		a := &agreements[i]
		if a.Status != financing.AgreementStatusActive {
			continue
		}
		aging.AgreementsActive++
		for _, inst := range a.Schedule {
			if !inst.IsOutstanding() {
				continue
			}
			line := lines[BucketFor(inst.DaysOverdue(asOf))]
			line.Installments++
			line.Amount = line.Amount.Add(inst.Amount)
			aging.TotalOutstanding = aging.TotalOutstanding.Add(inst.Amount)
		}
	}

	aging.Lines = make([]AgingLine, 0, len(AgingBuckets))
	for _, b := range AgingBuckets {
		aging.Lines = append(aging.Lines, *lines[b])
	}
	return aging
}
