package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/pos/internal/infrastructure/auth"
	"github.com/erp/pos/internal/infrastructure/config"
	"github.com/erp/pos/internal/infrastructure/logger"
	"github.com/erp/pos/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService(expiration time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:     "test-secret-key-at-least-32-chars",
		Issuer:     "test-issuer",
		Expiration: expiration,
	})
}

func newTestToken(t *testing.T, svc *auth.JWTService) string {
	t.Helper()
	token, _, err := svc.GenerateToken(auth.GenerateTokenInput{
		UserID:     "cashier-7",
		Username:   "jane",
		Roles:      []string{"cashier"},
		TerminalID: "till-2",
	})
	require.NoError(t, err)
	return token
}

func newJWTRouter(cfg JWTMiddlewareConfig) *gin.Engine {
	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":      GetJWTUserID(c),
			"ctx_user_id":  logger.GetUserID(c.Request.Context()),
			"terminal_id":  GetJWTTerminalID(c),
			"roles":        GetJWTRoles(c),
			"claims_found": GetJWTClaims(c) != nil,
		})
	})
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func serve(router *gin.Engine, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	router := newJWTRouter(DefaultJWTConfig(svc))

	rec := serve(router, map[string]string{"Authorization": "Bearer " + newTestToken(t, svc)})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "cashier-7", body["user_id"])
	assert.Equal(t, "cashier-7", body["ctx_user_id"])
	assert.Equal(t, "till-2", body["terminal_id"])
	assert.Equal(t, []any{"cashier"}, body["roles"])
	assert.Equal(t, true, body["claims_found"])
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	expired := newTestJWTService(-time.Hour)

	cases := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"missing header", "", dto.ErrCodeUnauthorized},
		{"wrong scheme", "Basic abc", dto.ErrCodeUnauthorized},
		{"empty token", "Bearer ", dto.ErrCodeUnauthorized},
		{"garbage token", "Bearer invalid-token", dto.ErrCodeUnauthorized},
		{"expired token", "Bearer " + newTestToken(t, expired), dto.ErrCodeTokenExpired},
	}

	router := newJWTRouter(DefaultJWTConfig(svc))
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			headers := map[string]string{}
			if tc.header != "" {
				headers["Authorization"] = tc.header
			}
			rec := serve(router, headers)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			var resp dto.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
		})
	}
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	router := newJWTRouter(DefaultJWTConfig(newTestJWTService(time.Hour)))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthMiddleware_OptionalFallsBackToHeader(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	cfg := DefaultJWTConfig(svc)
	cfg.Required = false
	router := newJWTRouter(cfg)

	t.Run("header identifies the user", func(t *testing.T) {
		rec := serve(router, map[string]string{UserIDHeaderKey: "till-user"})
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "till-user", body["user_id"])
		assert.Equal(t, false, body["claims_found"])
	})

	t.Run("anonymous request passes", func(t *testing.T) {
		rec := serve(router, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "", body["user_id"])
	})

	t.Run("invalid token is still rejected", func(t *testing.T) {
		rec := serve(router, map[string]string{"Authorization": "Bearer nope", UserIDHeaderKey: "till-user"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("oversized header is ignored", func(t *testing.T) {
		long := make([]byte, MaxUserIDHeaderLength+1)
		for i := range long {
			long[i] = 'a'
		}
		rec := serve(router, map[string]string{UserIDHeaderKey: string(long)})
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "", body["user_id"])
	})
}
