package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/pos/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newSwaggerRouter(cfg config.SwaggerConfig, jwt gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg, jwt), func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})
	return router
}

func TestSwaggerProtection(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	jwt := JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{JWTService: svc, Required: true})

	cases := []struct {
		name       string
		cfg        config.SwaggerConfig
		remoteAddr string
		authHeader string
		want       int
	}{
		{"disabled", config.SwaggerConfig{Enabled: false}, "192.0.2.1:1234", "", http.StatusNotFound},
		{"open", config.SwaggerConfig{Enabled: true}, "192.0.2.1:1234", "", http.StatusOK},
		{"ip allowed by cidr", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}, "10.1.2.3:1234", "", http.StatusOK},
		{"ip allowed exactly", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.0.2.1"}}, "192.0.2.1:1234", "", http.StatusOK},
		{"ip rejected", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}, "192.0.2.1:1234", "", http.StatusForbidden},
		{"auth required without token", config.SwaggerConfig{Enabled: true, RequireAuth: true}, "192.0.2.1:1234", "", http.StatusUnauthorized},
		{"auth required with token", config.SwaggerConfig{Enabled: true, RequireAuth: true}, "192.0.2.1:1234", "Bearer " + newTestToken(t, svc), http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newSwaggerRouter(tc.cfg, jwt)
			req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
