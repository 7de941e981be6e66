package sales

import (
	"context"

	"github.com/erp/pos/internal/domain/sales"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/printing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReceiptRenderer renders a sale as receipt HTML
type ReceiptRenderer interface {
	RenderSale(ctx context.Context, sale *sales.SaleRecord) (string, error)
}

// PDFRenderer prints HTML to PDF
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string, paper printing.Paper) ([]byte, error)
}

// ErrReceiptsDisabled is returned when no renderer is configured
var ErrReceiptsDisabled = shared.NewDomainError("RECEIPTS_DISABLED", "Receipt printing is not configured")

// SaleService reads recorded sales and applies settlement status changes
type SaleService struct {
	repo     sales.SaleRecordRepository
	receipts ReceiptRenderer
	pdf      PDFRenderer
	events   shared.EventPublisher
	logger   *zap.Logger
}

// SaleServiceOption configures optional collaborators
type SaleServiceOption func(*SaleService)

// WithReceiptRenderer enables receipt HTML
func WithReceiptRenderer(r ReceiptRenderer) SaleServiceOption {
	return func(s *SaleService) { s.receipts = r }
}

// WithPDFRenderer enables receipt PDFs
func WithPDFRenderer(r PDFRenderer) SaleServiceOption {
	return func(s *SaleService) { s.pdf = r }
}

// WithSaleEvents publishes status change events
func WithSaleEvents(events shared.EventPublisher) SaleServiceOption {
	return func(s *SaleService) { s.events = events }
}

// NewSaleService creates a new SaleService
func NewSaleService(repo sales.SaleRecordRepository, logger *zap.Logger, opts ...SaleServiceOption) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SaleService{repo: repo, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetByID retrieves a sale by ID
func (s *SaleService) GetByID(ctx context.Context, id uuid.UUID) (*SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToSaleResponse(sale), nil
}

// List returns a page of sales and the total number matching the filter
func (s *SaleService) List(ctx context.Context, filter SaleListFilter) ([]SaleResponse, int64, error) {
	domainFilter := filter.ToDomain()
	if domainFilter.Status != "" && !domainFilter.Status.IsValid() {
		return nil, 0, shared.NewDomainError("INVALID_STATUS", "Invalid sale status: "+filter.Status)
	}

	list, err := s.repo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]SaleResponse, len(list))
	for i := range list {
		out[i] = *ToSaleResponse(&list[i])
	}
	return out, total, nil
}

// UpdateStatus changes the settlement status of a sale. Only the status field is written.
func (s *SaleService) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateSaleStatusRequest) (*SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	old := sale.Status
	if err := sale.UpdateStatus(sales.SaleStatus(req.Status)); err != nil {
		return nil, err
	}
	if old == sale.Status {
		return ToSaleResponse(sale), nil
	}
	if err := s.repo.UpdateStatus(ctx, id, sale.Status); err != nil {
		return nil, err
	}

	s.logger.Info("Sale status changed",
		zap.String("sale_id", id.String()),
		zap.String("from", old.String()),
		zap.String("to", sale.Status.String()))

	events := sale.PullDomainEvents()
	if s.events != nil {
		if err := s.events.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish sale status event", zap.Error(err))
		}
	}
	return ToSaleResponse(sale), nil
}

// ReceiptHTML renders the receipt of a sale
func (s *SaleService) ReceiptHTML(ctx context.Context, id uuid.UUID) (string, error) {
	if s.receipts == nil {
		return "", ErrReceiptsDisabled
	}
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.receipts.RenderSale(ctx, sale)
}

// ReceiptPDF renders the receipt of a sale on receipt paper
func (s *SaleService) ReceiptPDF(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if s.pdf == nil {
		return nil, ErrReceiptsDisabled
	}
	html, err := s.ReceiptHTML(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.pdf.RenderPDF(ctx, html, printing.PaperReceipt)
}
