package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/pos/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBodyLimitRouter(limit int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), BodyLimit(limit))
	r.POST("/api/v1/carts/:session_id/items", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusBadRequest, "body too large")
			return
		}
		c.String(http.StatusOK, "%d", len(body))
	})
	r.GET("/api/v1/sales", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestBodyLimit(t *testing.T) {
	r := newBodyLimitRouter(64)
	item := `{"product_id":"5f0c","quantity":1}`

	tests := []struct {
		name          string
		method        string
		path          string
		body          string
		contentLength int64
		wantStatus    int
		wantBody      string
	}{
		{"add item within limit", http.MethodPost, "/api/v1/carts/till-1/items", item, int64(len(item)), http.StatusOK, "34"},
		{"get without body", http.MethodGet, "/api/v1/sales", "", 0, http.StatusOK, ""},
		{"declared length over limit", http.MethodPost, "/api/v1/carts/till-1/items", strings.Repeat("x", 65), 65, http.StatusRequestEntityTooLarge, ""},
		{"streamed body over limit", http.MethodPost, "/api/v1/carts/till-1/items", strings.Repeat("x", 200), -1, http.StatusBadRequest, "body too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			req.ContentLength = tt.contentLength
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestBodyLimit_ErrorEnvelope(t *testing.T) {
	r := newBodyLimitRouter(8)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/till-1/items", strings.NewReader(strings.Repeat("x", 16)))
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeRequestTooLarge, resp.Error.Code)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}
