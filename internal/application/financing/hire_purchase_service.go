package financing

import (
	"context"
	"fmt"
	"time"

	salesapp "github.com/erp/pos/internal/application/sales"
	"github.com/erp/pos/internal/domain/catalog"
	"github.com/erp/pos/internal/domain/financing"
	"github.com/erp/pos/internal/domain/sales"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/logger"
	"github.com/erp/pos/internal/infrastructure/scheduler"
	"github.com/erp/pos/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrAgreementFailed is returned when a write fails part way through creating an agreement
var ErrAgreementFailed = shared.NewDomainError("HIRE_PURCHASE_FAILED", "Hire purchase could not be completed, please try again")

// sweepPageSize bounds how many agreements one sweep query loads
const sweepPageSize = 100

// Metrics records hire-purchase outcomes
type Metrics interface {
	RecordAgreementCreated(ctx context.Context)
	RecordInstallmentPaid(ctx context.Context)
	RecordInstallmentsOverdue(ctx context.Context, n int)
}

// HirePurchaseService finances session carts and tracks their repayment
type HirePurchaseService struct {
	agreements financing.AgreementRepository
	carts      sales.CartRepository
	stock      salesapp.StockWriter
	locks      *salesapp.SessionLocks
	events     shared.EventPublisher
	metrics    Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures optional collaborators
type Option func(*HirePurchaseService)

// WithEvents publishes agreement events
func WithEvents(events shared.EventPublisher) Option {
	return func(s *HirePurchaseService) { s.events = events }
}

// WithMetrics records hire-purchase metrics
func WithMetrics(metrics Metrics) Option {
	return func(s *HirePurchaseService) { s.metrics = metrics }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *HirePurchaseService) { s.now = now }
}

// NewHirePurchaseService creates a new HirePurchaseService
func NewHirePurchaseService(
	agreements financing.AgreementRepository,
	carts sales.CartRepository,
	stock salesapp.StockWriter,
	locks *salesapp.SessionLocks,
	log *zap.Logger,
	opts ...Option,
) *HirePurchaseService {
	if locks == nil {
		locks = salesapp.NewSessionLocks()
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &HirePurchaseService{
		agreements: agreements,
		carts:      carts,
		stock:      stock,
		locks:      locks,
		logger:     log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateFromCart finances the session cart.
// Like checkout, the agreement, the stock writes and the cart removal are
// separate writes; a failure stops at that step without undoing earlier ones.
func (s *HirePurchaseService) CreateFromCart(ctx context.Context, sessionID string, req CreateAgreementRequest, createdBy string) (resp *AgreementResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "hire_purchase.create")
	defer func() { telemetry.EndSpan(span, err) }()

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	log := logger.Enrich(ctx, s.logger).With(zap.String("session_id", sessionID))

	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, s.fail(log, salesapp.StepLoadCart, err)
	}

	agreement, err := financing.NewHirePurchaseAgreement(req.Customer(), cart, req.Terms(), s.now(), createdBy)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(telemetry.AttrAgreementID.String(agreement.ID.String()))

	if err := s.agreements.Create(ctx, agreement); err != nil {
		return nil, s.fail(log, "record_agreement", err)
	}
	log = log.With(zap.String("agreement_id", agreement.ID.String()))

	events := agreement.PullDomainEvents()
	for _, line := range cart.Lines {
		remaining := line.RemainingStock()
		if err := s.stock.UpdateStock(ctx, line.Product.ID, remaining); err != nil {
			return nil, s.fail(log.With(zap.String("product_id", line.Product.ID.String())), salesapp.StepUpdateStock, err)
		}
		events = append(events, catalog.NewStockWrittenEvent(
			line.Product.ID, line.Product.Name, line.Product.Stock, remaining,
			line.Product.LowStockThreshold, "hire purchase "+agreement.AgreementNumber))
	}

	if err := s.carts.Delete(ctx, sessionID); err != nil {
		return nil, s.fail(log, salesapp.StepClearCart, err)
	}

	log.Info("Hire purchase agreement created",
		zap.String("agreement_number", agreement.AgreementNumber),
		zap.String("amount_financed", agreement.AmountFinanced.StringFixed(2)),
		zap.String("monthly_payment", agreement.MonthlyPayment.StringFixed(2)),
		zap.Int("term_months", agreement.TermMonths))

	if s.metrics != nil {
		s.metrics.RecordAgreementCreated(ctx)
	}
	s.publish(ctx, events)

	return ToAgreementResponse(agreement), nil
}

// GetByID retrieves an agreement by ID
func (s *HirePurchaseService) GetByID(ctx context.Context, id uuid.UUID) (*AgreementResponse, error) {
	a, err := s.agreements.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToAgreementResponse(a), nil
}

// Find loads the domain agreement, for renderers that need the full aggregate
func (s *HirePurchaseService) Find(ctx context.Context, id uuid.UUID) (*financing.HirePurchaseAgreement, error) {
	return s.agreements.FindByID(ctx, id)
}

// List returns a page of agreements and the total number matching the filter
func (s *HirePurchaseService) List(ctx context.Context, filter AgreementListFilter) ([]AgreementResponse, int64, error) {
	domainFilter := filter.ToDomain()
	if domainFilter.Status != "" && !domainFilter.Status.IsValid() {
		return nil, 0, shared.NewDomainError("INVALID_STATUS", "Invalid agreement status: "+filter.Status)
	}

	list, err := s.agreements.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.agreements.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]AgreementResponse, len(list))
	for i := range list {
		out[i] = *ToAgreementResponse(&list[i])
	}
	return out, total, nil
}

// RecordPayment settles the earliest outstanding installment of an agreement
func (s *HirePurchaseService) RecordPayment(ctx context.Context, id uuid.UUID, req RecordPaymentRequest) (*AgreementResponse, error) {
	a, err := s.agreements.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	paidAt := s.now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	inst, err := a.RecordPayment(paidAt)
	if err != nil {
		return nil, err
	}
	if err := s.agreements.Save(ctx, a); err != nil {
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("Installment paid",
		zap.String("agreement_id", id.String()),
		zap.Int("installment", inst.Number),
		zap.String("amount", inst.Amount.StringFixed(2)),
		zap.String("agreement_status", a.Status.String()))

	if s.metrics != nil {
		s.metrics.RecordInstallmentPaid(ctx)
	}
	s.publish(ctx, a.PullDomainEvents())
	return ToAgreementResponse(a), nil
}

// MarkDefaulted closes an active agreement as defaulted
func (s *HirePurchaseService) MarkDefaulted(ctx context.Context, id uuid.UUID) (*AgreementResponse, error) {
	a, err := s.agreements.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.MarkDefaulted(); err != nil {
		return nil, err
	}
	if err := s.agreements.Save(ctx, a); err != nil {
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Warn("Agreement defaulted",
		zap.String("agreement_id", id.String()),
		zap.String("outstanding", a.OutstandingBalance().StringFixed(2)))

	s.publish(ctx, a.PullDomainEvents())
	return ToAgreementResponse(a), nil
}

// SweepOverdue flags pending installments of active agreements whose due date
// is before asOf. An agreement that fails to save is logged and skipped.
func (s *HirePurchaseService) SweepOverdue(ctx context.Context, asOf time.Time) (scheduler.SweepResult, error) {
	var result scheduler.SweepResult

	filter := financing.AgreementFilter{Status: financing.AgreementStatusActive}
	filter.PageSize = sweepPageSize
	filter.OrderBy, filter.OrderDir = "created_at", "asc"

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		filter.Page = page
		batch, err := s.agreements.FindAll(ctx, filter)
		if err != nil {
			return result, fmt.Errorf("load active agreements: %w", err)
		}

		for i := range batch {
			a := &batch[i]
			result.AgreementsScanned++
			n := a.MarkOverdue(asOf)
			if n == 0 {
				continue
			}
			if err := s.agreements.Save(ctx, a); err != nil {
				s.logger.Warn("Failed to save overdue installments",
					zap.String("agreement_id", a.ID.String()),
					zap.Error(err))
				continue
			}
			result.InstallmentsOverdue += n
		}

		if len(batch) < sweepPageSize {
			break
		}
	}

	if s.metrics != nil && result.InstallmentsOverdue > 0 {
		s.metrics.RecordInstallmentsOverdue(ctx, result.InstallmentsOverdue)
	}
	return result, nil
}

func (s *HirePurchaseService) fail(log *zap.Logger, step string, cause error) error {
	log.Error("Hire purchase failed", zap.String("step", step), zap.Error(cause))
	return shared.WrapDomainError(ErrAgreementFailed.Code, ErrAgreementFailed.Message, fmt.Errorf("%s: %w", step, cause))
}

func (s *HirePurchaseService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish hire purchase events", zap.Error(err))
	}
}

var _ scheduler.OverdueSweeper = (*HirePurchaseService)(nil)
