package middleware

import (
	"net/http"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/config"
	"github.com/erp/pos/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader carries the client-generated submission key
const IdempotencyKeyHeader = "Idempotency-Key"

// MaxIdempotencyKeyLength bounds the header value
const MaxIdempotencyKeyLength = 128

// Idempotency rejects a repeated Idempotency-Key with 409 DUPLICATE_REQUEST.
// Keys are scoped to the user and route. A key is released when the request
// fails validation (4xx) so the till can correct and resubmit; after a 5xx
// it is kept, since the writes before the failure are not rolled back.
// Requests without the header pass through. Store errors fail open.
func Idempotency(store shared.IdempotencyStore, cfg config.IdempotencyConfig, log *zap.Logger) gin.HandlerFunc {
	if store == nil || !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest, "Idempotency-Key is too long", c.GetString("request_id")))
			return
		}

		scoped := "idem:" + GetJWTUserID(c) + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key
		ctx := c.Request.Context()

		fresh, err := store.MarkProcessed(ctx, scoped, cfg.TTL)
		if err != nil {
			log.Warn("Idempotency store unavailable, processing request",
				zap.String("path", c.FullPath()),
				zap.Error(err))
			c.Next()
			return
		}
		if !fresh {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeDuplicateRequest,
				"This request has already been submitted",
				c.GetString("request_id"),
			))
			return
		}

		c.Next()

		status := c.Writer.Status()
		if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
			if err := store.Release(ctx, scoped); err != nil {
				log.Warn("Failed to release idempotency key", zap.Error(err))
			}
		}
	}
}
