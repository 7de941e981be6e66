package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// LowStockCounter reports how many products are at or below their low-stock threshold
type LowStockCounter interface {
	CountLowStock(ctx context.Context) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration
	LowStock        LowStockCounter
}

// BusinessMetrics records till activity: sales, checkout failures, hire purchase and stock alerts
type BusinessMetrics struct {
	logger   *zap.Logger
	lowStock LowStockCounter
	interval time.Duration

	salesTotal          *Counter
	salesAmountCents    *Counter
	checkoutFailures    *Counter
	checkoutDuration    *Histogram
	agreementsCreated   *Counter
	installmentsPaid    *Counter
	installmentsOverdue *Counter
	lowStockAlerts      *Counter
	lowStockProducts    *Gauge

	stopCh   chan struct{}
	stopOnce sync.Once
	runOnce  sync.Once
}

// ErrMeterNil is returned when no meter is configured
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics setup error
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// NewBusinessMetrics creates the POS business instruments
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.CollectInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	bm := &BusinessMetrics{
		logger:   logger,
		lowStock: cfg.LowStock,
		interval: interval,
		stopCh:   make(chan struct{}),
	}

	counters := []struct {
		dst              **Counter
		name, desc, unit string
	}{
		{&bm.salesTotal, "pos_sales_total", "Completed checkouts", "{sales}"},
		{&bm.salesAmountCents, "pos_sales_amount_total", "Sales value in cents", "{cents}"},
		{&bm.checkoutFailures, "pos_checkout_failures_total", "Checkouts that failed after validation", "{checkouts}"},
		{&bm.agreementsCreated, "pos_hire_purchase_created_total", "Hire-purchase agreements created", "{agreements}"},
		{&bm.installmentsPaid, "pos_installments_paid_total", "Installments settled", "{installments}"},
		{&bm.installmentsOverdue, "pos_installments_overdue_total", "Installments flagged overdue", "{installments}"},
		{&bm.lowStockAlerts, "pos_low_stock_alerts_total", "Stock changes that crossed the low-stock threshold", "{alerts}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	bm.checkoutDuration, err = NewHistogram(cfg.Meter, "pos_checkout_duration_seconds",
		"Time spent writing a checkout", "s", checkoutDurationBuckets)
	if err != nil {
		return nil, err
	}
	bm.lowStockProducts, err = NewGauge(cfg.Meter, "pos_low_stock_products",
		"Products at or below their low-stock threshold", "{products}")
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordSale records a completed checkout
func (bm *BusinessMetrics) RecordSale(ctx context.Context, paymentMethod string, total decimal.Decimal, took time.Duration) {
	attr := AttrPaymentMethod.String(paymentMethod)
	bm.salesTotal.Inc(ctx, attr)
	bm.salesAmountCents.Add(ctx, total.Shift(2).Round(0).IntPart(), attr)
	bm.checkoutDuration.RecordDuration(ctx, took, attr)
}

// RecordCheckoutFailure records a checkout that failed at the named step
func (bm *BusinessMetrics) RecordCheckoutFailure(ctx context.Context, step string) {
	bm.checkoutFailures.Inc(ctx, AttrCheckoutStep.String(step))
}

// RecordAgreementCreated records a new hire-purchase agreement
func (bm *BusinessMetrics) RecordAgreementCreated(ctx context.Context) {
	bm.agreementsCreated.Inc(ctx)
}

// RecordInstallmentPaid records a settled installment
func (bm *BusinessMetrics) RecordInstallmentPaid(ctx context.Context) {
	bm.installmentsPaid.Inc(ctx)
}

// RecordInstallmentsOverdue records installments newly flagged overdue
func (bm *BusinessMetrics) RecordInstallmentsOverdue(ctx context.Context, n int) {
	if n > 0 {
		bm.installmentsOverdue.Add(ctx, int64(n))
	}
}

// RecordLowStockAlert records a product whose stock crossed its threshold
func (bm *BusinessMetrics) RecordLowStockAlert(ctx context.Context, productID string) {
	bm.lowStockAlerts.Inc(ctx, AttrProductID.String(productID))
}

// StartPeriodicCollection samples the low-stock product count until Stop or ctx ends.
// It does nothing without a LowStockCounter and only starts once.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context) {
	if bm.lowStock == nil {
		return
	}
	bm.runOnce.Do(func() {
		go bm.run(ctx)
	})
}

func (bm *BusinessMetrics) run(ctx context.Context) {
	ticker := time.NewTicker(bm.interval)
	defer ticker.Stop()

	bm.collect(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-bm.stopCh:
			return
		case <-ticker.C:
			bm.collect(ctx)
		}
	}
}

func (bm *BusinessMetrics) collect(ctx context.Context) {
	n, err := bm.lowStock.CountLowStock(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count low-stock products", zap.Error(err))
		return
	}
	bm.lowStockProducts.Record(ctx, n)
}

// Stop ends periodic collection
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopCh)
	})
}
