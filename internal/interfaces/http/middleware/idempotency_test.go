package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/erp/pos/internal/infrastructure/cache"
	"github.com/erp/pos/internal/infrastructure/config"
	"github.com/erp/pos/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var idemConfig = config.IdempotencyConfig{Enabled: true, TTL: time.Hour}

func newIdempotencyRouter(t *testing.T, status *int) (*gin.Engine, *int) {
	t.Helper()
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	calls := 0
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(JWTUserIDKey, c.GetHeader("X-Test-User"))
		c.Next()
	})
	router.POST("/checkout", Idempotency(store, idemConfig, zap.NewNop()), func(c *gin.Context) {
		calls++
		c.Status(*status)
	})
	return router, &calls
}

func submit(router *gin.Engine, key, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	req.Header.Set("X-Test-User", user)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency_RepeatIsRejected(t *testing.T) {
	status := http.StatusCreated
	router, calls := newIdempotencyRouter(t, &status)

	assert.Equal(t, http.StatusCreated, submit(router, "k1", "u1").Code)
	second := submit(router, "k1", "u1")
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Contains(t, second.Body.String(), dto.ErrCodeDuplicateRequest)
	assert.Equal(t, 1, *calls)

	assert.Equal(t, http.StatusCreated, submit(router, "k1", "u2").Code, "keys are scoped per user")
	assert.Equal(t, http.StatusCreated, submit(router, "k2", "u1").Code)
}

func TestIdempotency_NoHeaderPassesThrough(t *testing.T) {
	status := http.StatusCreated
	router, calls := newIdempotencyRouter(t, &status)

	submit(router, "", "u1")
	submit(router, "", "u1")
	assert.Equal(t, 2, *calls)
}

func TestIdempotency_ClientErrorReleasesKey(t *testing.T) {
	status := http.StatusUnprocessableEntity
	router, calls := newIdempotencyRouter(t, &status)

	assert.Equal(t, http.StatusUnprocessableEntity, submit(router, "k1", "u1").Code)
	status = http.StatusCreated
	assert.Equal(t, http.StatusCreated, submit(router, "k1", "u1").Code)
	assert.Equal(t, 2, *calls)
}

func TestIdempotency_ServerErrorKeepsKey(t *testing.T) {
	status := http.StatusInternalServerError
	router, calls := newIdempotencyRouter(t, &status)

	assert.Equal(t, http.StatusInternalServerError, submit(router, "k1", "u1").Code)
	status = http.StatusCreated
	assert.Equal(t, http.StatusConflict, submit(router, "k1", "u1").Code)
	assert.Equal(t, 1, *calls)
}

func TestIdempotency_KeyTooLong(t *testing.T) {
	status := http.StatusCreated
	router, calls := newIdempotencyRouter(t, &status)

	w := submit(router, strings.Repeat("k", MaxIdempotencyKeyLength+1), "u1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, *calls)
}

type failingIdempotencyStore struct{}

func (failingIdempotencyStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}
func (failingIdempotencyStore) IsProcessed(context.Context, string) (bool, error) { return false, nil }
func (failingIdempotencyStore) Release(context.Context, string) error             { return nil }
func (failingIdempotencyStore) Close() error                                      { return nil }

func TestIdempotency_StoreFailureFailsOpen(t *testing.T) {
	router := gin.New()
	router.POST("/checkout", Idempotency(failingIdempotencyStore{}, idemConfig, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	assert.Equal(t, http.StatusCreated, submit(router, "k1", "u1").Code)
	assert.Equal(t, http.StatusCreated, submit(router, "k1", "u1").Code)
}

func TestIdempotency_Disabled(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	router := gin.New()
	router.POST("/checkout", Idempotency(store, config.IdempotencyConfig{Enabled: false}, nil), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	assert.Equal(t, http.StatusCreated, submit(router, "k1", "u1").Code)
	assert.Equal(t, http.StatusCreated, submit(router, "k1", "u1").Code)
}
