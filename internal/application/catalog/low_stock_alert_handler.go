package catalog

import (
	"context"
	"fmt"

	"github.com/erp/pos/internal/domain/catalog"
	"github.com/erp/pos/internal/domain/shared"
	"go.uber.org/zap"
)

// LowStockRecorder counts low-stock alerts
type LowStockRecorder interface {
	RecordLowStockAlert(ctx context.Context, productID string)
}

// LowStockAlertHandler warns when a stock change moves a product to or below its threshold
type LowStockAlertHandler struct {
	logger   *zap.Logger
	recorder LowStockRecorder
}

// NewLowStockAlertHandler creates a new handler. recorder may be nil.
func NewLowStockAlertHandler(logger *zap.Logger, recorder LowStockRecorder) *LowStockAlertHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LowStockAlertHandler{logger: logger, recorder: recorder}
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockAlertHandler) EventTypes() []string {
	return []string{catalog.EventTypeProductStockChanged}
}

// Handle processes a ProductStockChangedEvent
func (h *LowStockAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	changed, ok := event.(*catalog.ProductStockChangedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			catalog.EventTypeProductStockChanged, event.EventType())
	}
	if !changed.CrossedLowStock() {
		return nil
	}

	alertType := "low_stock"
	if changed.NewQuantity <= 0 {
		alertType = "out_of_stock"
	}
	h.logger.Warn("Product stock at or below threshold",
		zap.String("product_id", changed.ProductID.String()),
		zap.String("name", changed.Name),
		zap.Int("quantity", changed.NewQuantity),
		zap.Int("threshold", changed.LowStockThreshold),
		zap.String("alert_type", alertType),
		zap.String("reason", changed.Reason))

	if h.recorder != nil {
		h.recorder.RecordLowStockAlert(ctx, changed.ProductID.String())
	}
	return nil
}
