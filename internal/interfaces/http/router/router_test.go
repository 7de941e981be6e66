package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func reply(body string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, body) }
}

func TestNewRouter_Defaults(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouter_SetupMountsUnderVersion(t *testing.T) {
	engine := gin.New()
	carts := NewDomainGroup("carts", "/carts").GET("/:session_id", func(c *gin.Context) {
		c.String(http.StatusOK, c.Param("session_id"))
	})
	sales := NewDomainGroup("sales", "/sales").GET("", reply("sales"))

	api := NewRouter(engine, WithAPIVersion("v2")).Register(carts, sales).Setup()
	require.NotNil(t, api)
	assert.Equal(t, "/api/v2", api.BasePath())

	w := serve(engine, http.MethodGet, "/api/v2/carts/till-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "till-1", w.Body.String())

	assert.Equal(t, "sales", serve(engine, http.MethodGet, "/api/v2/sales").Body.String())
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/sales").Code)
}

func TestRouter_UseScopedToAPI(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine).Use(func(c *gin.Context) {
		c.Header("X-API", "v1")
		c.Next()
	})
	r.Register(NewDomainGroup("sales", "/sales").GET("", reply("ok"))).Setup()
	engine.GET("/health", reply("up"))

	assert.Equal(t, "v1", serve(engine, http.MethodGet, "/api/v1/sales").Header().Get("X-API"))
	assert.Empty(t, serve(engine, http.MethodGet, "/health").Header().Get("X-API"), "API middleware stays off root routes")
}

func TestDomainGroup_Methods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("catalog", "/catalog").
		GET("/products", reply("list")).
		POST("/products", reply("create")).
		PUT("/products/:id", reply("update")).
		DELETE("/products/:id", reply("delete")).
		Handle(http.MethodPatch, "/products/:id", reply("patch"))

	assert.Equal(t, "catalog", g.Name())
	assert.Equal(t, "/catalog", g.Prefix())
	assert.Equal(t, 5, g.Len())

	g.RegisterRoutes(engine.Group("/api/v1"))

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/api/v1/catalog/products", "list"},
		{http.MethodPost, "/api/v1/catalog/products", "create"},
		{http.MethodPut, "/api/v1/catalog/products/p1", "update"},
		{http.MethodDelete, "/api/v1/catalog/products/p1", "delete"},
		{http.MethodPatch, "/api/v1/catalog/products/p1", "patch"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestDomainGroup_MiddlewareAndSubgroups(t *testing.T) {
	engine := gin.New()
	var calls []string

	hp := NewDomainGroup("hire-purchase", "/hire-purchase").Use(func(c *gin.Context) {
		calls = append(calls, "group")
		c.Next()
	})
	hp.GET("", reply("agreements"))
	hp.Group("payments", "/:id/payments").POST("", func(c *gin.Context) {
		calls = append(calls, "payment")
		c.String(http.StatusOK, c.Param("id"))
	})
	assert.Equal(t, 2, hp.Len())

	NewRouter(engine).Register(hp).Setup()

	w := serve(engine, http.MethodPost, "/api/v1/hire-purchase/hp-1/payments")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hp-1", w.Body.String())
	assert.Equal(t, []string{"group", "payment"}, calls, "group middleware wraps subgroup routes")

	// Other groups are untouched by the hire-purchase middleware
	engine2 := gin.New()
	calls = nil
	NewRouter(engine2).Register(hp, NewDomainGroup("sales", "/sales").GET("", reply("sales"))).Setup()
	serve(engine2, http.MethodGet, "/api/v1/sales")
	assert.Empty(t, calls)
}
