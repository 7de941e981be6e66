package report

import (
	"context"
	"time"

	"github.com/erp/pos/internal/domain/financing"
	"github.com/erp/pos/internal/domain/report"
	"github.com/erp/pos/internal/domain/sales"
	"github.com/erp/pos/internal/domain/shared"
)

// scanPageSize is the page size used when reading every matching record
const scanPageSize = 200

// ReportService provides application-level report operations
type ReportService struct {
	salesRepo  sales.SaleRecordRepository
	agreements financing.AgreementRepository
	now        func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(salesRepo sales.SaleRecordRepository, agreements financing.AgreementRepository) *ReportService {
	return &ReportService{
		salesRepo:  salesRepo,
		agreements: agreements,
		now:        time.Now,
	}
}

// SalesReportFilter defines the request filter for sales reports.
// EndDate is inclusive.
type SalesReportFilter struct {
	StartDate time.Time `form:"start_date" binding:"required" time_format:"2006-01-02"`
	EndDate   time.Time `form:"end_date" binding:"required" time_format:"2006-01-02"`
	TopN      int       `form:"top_n" binding:"min=0,max=100"`
}

// AgingFilter defines the request filter for installment aging
type AgingFilter struct {
	AsOf *time.Time `form:"as_of" time_format:"2006-01-02"`
}

// GetSalesSummary returns the sales summary for the period
func (s *ReportService) GetSalesSummary(ctx context.Context, filter SalesReportFilter) (*report.SalesSummary, error) {
	if filter.EndDate.Before(filter.StartDate) {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "end_date must not be before start_date")
	}
	topN := filter.TopN
	if topN == 0 {
		topN = 10
	}

	end := filter.EndDate.AddDate(0, 0, 1)
	domainFilter := sales.SaleFilter{From: &filter.StartDate, To: &end}
	domainFilter.PageSize = scanPageSize
	domainFilter.OrderBy, domainFilter.OrderDir = "sold_at", "asc"

	var records []sales.SaleRecord
	for page := 1; ; page++ {
		domainFilter.Page = page
		batch, err := s.salesRepo.FindAll(ctx, domainFilter)
		if err != nil {
			return nil, err
		}
		records = append(records, batch...)
		if len(batch) < scanPageSize {
			break
		}
	}

	summary := report.SummarizeSales(records, filter.StartDate, filter.EndDate, topN)
	return &summary, nil
}

// GetInstallmentAging buckets outstanding installments of active agreements
func (s *ReportService) GetInstallmentAging(ctx context.Context, filter AgingFilter) (*report.InstallmentAging, error) {
	asOf := s.now()
	if filter.AsOf != nil {
		asOf = *filter.AsOf
	}

	domainFilter := financing.AgreementFilter{Status: financing.AgreementStatusActive}
	domainFilter.PageSize = scanPageSize
	domainFilter.OrderBy, domainFilter.OrderDir = "created_at", "asc"

	var agreements []financing.HirePurchaseAgreement
	for page := 1; ; page++ {
		domainFilter.Page = page
		batch, err := s.agreements.FindAll(ctx, domainFilter)
		if err != nil {
			return nil, err
		}
		agreements = append(agreements, batch...)
		if len(batch) < scanPageSize {
			break
		}
	}

	aging := report.AgeInstallments(agreements, asOf)
	return &aging, nil
}
