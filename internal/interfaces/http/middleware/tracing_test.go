package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(prev)
	})
	return sr
}

func attrMap(attrs []attribute.KeyValue) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		out[string(a.Key)] = a.Value.Emit()
	}
	return out
}

func TestTracing_Disabled(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(Tracing(TracingConfig{Enabled: false, ServiceName: "pos-test"}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_SpanCarriesRouteAndIdentity(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(RequestID())
	router.Use(Tracing(TracingConfig{Enabled: true, ServiceName: "pos-test"}))
	router.Use(SpanErrorMarker())
	router.Use(func(c *gin.Context) {
		c.Set(JWTUserIDKey, "cashier-1")
		c.Set(JWTTerminalIDKey, "till-9")
		c.Next()
	})
	router.Use(TracingAttributeInjector())
	router.GET("/api/v1/sales/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales/abc", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Name(), "/api/v1/sales/:id")

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "req-123", attrs["request_id"])
	assert.Equal(t, "cashier-1", attrs["user_id"])
	assert.Equal(t, "till-9", attrs["terminal_id"])
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestSpanErrorMarker(t *testing.T) {
	cases := []struct {
		status  int
		wantErr bool
		wantMsg string
	}{
		{http.StatusOK, false, ""},
		{http.StatusUnprocessableEntity, true, "Client Error"},
		{http.StatusConflict, true, "Conflict"},
		{http.StatusInternalServerError, true, ""},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			sr := setupTestTracer(t)

			router := gin.New()
			router.Use(Tracing(TracingConfig{Enabled: true, ServiceName: "pos-test"}))
			router.Use(SpanErrorMarker())
			router.GET("/test", func(c *gin.Context) { c.Status(tc.status) })

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

			spans := sr.Ended()
			require.Len(t, spans, 1)
			if tc.wantErr {
				assert.Equal(t, codes.Error, spans[0].Status().Code)
				if tc.wantMsg != "" {
					assert.Equal(t, tc.wantMsg, spans[0].Status().Description)
				}
			} else {
				assert.NotEqual(t, codes.Error, spans[0].Status().Code)
			}
		})
	}
}

func TestGetRequestID_TruncatesHeader(t *testing.T) {
	router := gin.New()
	var got string
	router.GET("/test", func(c *gin.Context) {
		got = getRequestID(c)
	})

	long := make([]byte, MaxRequestIDLength+10)
	for i := range long {
		long[i] = 'x'
	}
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", string(long))
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Len(t, got, MaxRequestIDLength)
}
