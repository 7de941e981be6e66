package handler

import (
	"encoding/json"
	"fmt"
	"time"

	catalogapp "github.com/erp/pos/internal/application/catalog"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// SSEEventConnected is sent once when the stream opens
	SSEEventConnected = "connected"
	// SSEEventProducts carries the full matching product list
	SSEEventProducts = "products"
	// SSEEventHeartbeat keeps idle connections open through proxies
	SSEEventHeartbeat = "heartbeat"

	// productStreamBuffer is how many pending snapshots a slow client may lag
	productStreamBuffer = 4
)

// ProductStreamHandler pushes live product listings to tills over SSE
type ProductStreamHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
	heartbeat      time.Duration
	logger         *zap.Logger
}

// NewProductStreamHandler creates a new ProductStreamHandler
func NewProductStreamHandler(productService *catalogapp.ProductService, heartbeat time.Duration, logger *zap.Logger) *ProductStreamHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductStreamHandler{
		productService: productService,
		heartbeat:      heartbeat,
		logger:         logger,
	}
}

// Stream godoc
// @Summary      Stream product listings
// @Description  Server-Sent Events stream. A "products" event carries the whole matching list each time any product changes.
// @Tags         products
// @Produce      text/event-stream
// @Param        search query string false "Name prefix"
// @Param        low_stock query bool false "Only products at or below their threshold"
// @Success      200 {string} string "SSE stream"
// @Failure      501 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/products/stream [get]
func (h *ProductStreamHandler) Stream(c *gin.Context) {
	var filter catalogapp.ProductListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	ctx := c.Request.Context()
	updates := make(chan []catalogapp.ProductResponse, productStreamBuffer)
	stop, err := h.productService.Watch(ctx, filter, func(products []catalogapp.ProductResponse) {
		// Drop the oldest pending snapshot rather than block the notifier
		for {
			select {
			case updates <- products:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	defer stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	h.writeEvent(c, SSEEventConnected, gin.H{"request_id": getRequestID(c)})

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case products := <-updates:
			if !h.writeEvent(c, SSEEventProducts, products) {
				return
			}
		case <-ticker.C:
			if !h.writeEvent(c, SSEEventHeartbeat, gin.H{"time": time.Now().UTC().Format(time.RFC3339)}) {
				return
			}
		}
	}
}

func (h *ProductStreamHandler) writeEvent(c *gin.Context, event string, data any) bool {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to encode SSE payload", zap.String("event", event), zap.Error(err))
		return false
	}
	if _, err := fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return false
	}
	c.Writer.Flush()
	return true
}
