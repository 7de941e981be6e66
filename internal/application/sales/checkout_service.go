package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/pos/internal/domain/catalog"
	"github.com/erp/pos/internal/domain/sales"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/logger"
	"github.com/erp/pos/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ErrCheckoutFailed is what the till sees when a write fails part way through checkout
var ErrCheckoutFailed = shared.NewDomainError("CHECKOUT_FAILED", "Checkout failed, please try again")

// Checkout steps, used in logs and metrics
const (
	StepLoadCart    = "load_cart"
	StepRecordSale  = "record_sale"
	StepUpdateStock = "update_stock"
	StepClearCart   = "clear_cart"
)

// StockWriter overwrites a product's on-hand quantity
type StockWriter interface {
	UpdateStock(ctx context.Context, id uuid.UUID, quantity int) error
}

// CheckoutMetrics records checkout outcomes
type CheckoutMetrics interface {
	RecordSale(ctx context.Context, paymentMethod string, total decimal.Decimal, took time.Duration)
	RecordCheckoutFailure(ctx context.Context, step string)
}

// CheckoutService turns a session cart into a recorded sale.
// The writes are sequential and not atomic: a failure leaves earlier writes in place.
type CheckoutService struct {
	carts   sales.CartRepository
	sales   sales.SaleRecordRepository
	stock   StockWriter
	locks   *SessionLocks
	events  shared.EventPublisher
	metrics CheckoutMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// CheckoutOption configures optional collaborators
type CheckoutOption func(*CheckoutService)

// WithCheckoutEvents publishes SaleCompleted and stock change events after a checkout
func WithCheckoutEvents(events shared.EventPublisher) CheckoutOption {
	return func(s *CheckoutService) { s.events = events }
}

// WithCheckoutMetrics records checkout metrics
func WithCheckoutMetrics(metrics CheckoutMetrics) CheckoutOption {
	return func(s *CheckoutService) { s.metrics = metrics }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) CheckoutOption {
	return func(s *CheckoutService) { s.now = now }
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	carts sales.CartRepository,
	saleRepo sales.SaleRecordRepository,
	stock StockWriter,
	locks *SessionLocks,
	log *zap.Logger,
	opts ...CheckoutOption,
) *CheckoutService {
	if locks == nil {
		locks = NewSessionLocks()
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &CheckoutService{
		carts:  carts,
		sales:  saleRepo,
		stock:  stock,
		locks:  locks,
		logger: log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checkout records the sale of the session cart.
//
// Validation errors (empty cart, negative amounts, underpayment) are returned
// as-is and nothing is written. Otherwise the sale is created, each line's
// stock is overwritten with the quantity seen when it was added minus the
// quantity sold, and the cart is cleared. A failure in any of those writes is
// logged and reported as ErrCheckoutFailed; earlier writes are not undone.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID string, req CheckoutRequest, cashierID string) (resp *SaleResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "checkout",
		attribute.String("session_id", sessionID))
	defer func() { telemetry.EndSpan(span, err) }()

	start := s.now()
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	log := logger.Enrich(ctx, s.logger).With(zap.String("session_id", sessionID))

	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, s.fail(ctx, log, StepLoadCart, err)
	}

	sale, err := sales.NewSaleRecord(cart, req.Breakdown(), cashierID, start)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		telemetry.AttrPaymentMethod.String(string(sale.Payment.Method())),
		telemetry.AttrSaleStatus.String(sale.Status.String()))

	if err := s.sales.Create(ctx, sale); err != nil {
		return nil, s.fail(ctx, log, StepRecordSale, err)
	}
	log = log.With(zap.String("sale_id", sale.ID.String()), zap.String("order_number", sale.OrderNumber))

	stockEvents := make([]shared.DomainEvent, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		remaining := line.RemainingStock()
		if err := s.stock.UpdateStock(ctx, line.Product.ID, remaining); err != nil {
			return nil, s.fail(ctx, log.With(zap.String("product_id", line.Product.ID.String())), StepUpdateStock, err)
		}
		stockEvents = append(stockEvents, catalog.NewStockWrittenEvent(
			line.Product.ID, line.Product.Name, line.Product.Stock, remaining,
			line.Product.LowStockThreshold, "sale "+sale.OrderNumber))
	}

	if err := s.carts.Delete(ctx, sessionID); err != nil {
		return nil, s.fail(ctx, log, StepClearCart, err)
	}

	log.Info("Checkout completed",
		zap.String("total", sale.Total.StringFixed(sales.MoneyPlaces)),
		zap.String("payment_method", string(sale.Payment.Method())),
		zap.String("cashier_id", cashierID))

	if s.metrics != nil {
		s.metrics.RecordSale(ctx, string(sale.Payment.Method()), sale.Total, s.now().Sub(start))
	}
	s.publish(ctx, log, append(sale.PullDomainEvents(), stockEvents...))

	return ToSaleResponse(sale), nil
}

func (s *CheckoutService) fail(ctx context.Context, log *zap.Logger, step string, cause error) error {
	log.Error("Checkout failed", zap.String("step", step), zap.Error(cause))
	if s.metrics != nil {
		s.metrics.RecordCheckoutFailure(ctx, step)
	}
	return shared.WrapDomainError(ErrCheckoutFailed.Code, ErrCheckoutFailed.Message, fmt.Errorf("%s: %w", step, cause))
}

func (s *CheckoutService) publish(ctx context.Context, log *zap.Logger, events []shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		log.Warn("Failed to publish checkout events", zap.Error(err))
	}
}
