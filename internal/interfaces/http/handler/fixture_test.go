package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	catalogapp "github.com/erp/pos/internal/application/catalog"
	financingapp "github.com/erp/pos/internal/application/financing"
	reportapp "github.com/erp/pos/internal/application/report"
	salesapp "github.com/erp/pos/internal/application/sales"
	"github.com/erp/pos/internal/infrastructure/cache"
	"github.com/erp/pos/internal/infrastructure/docstore"
	"github.com/erp/pos/internal/infrastructure/persistence"
	"github.com/erp/pos/internal/interfaces/http/dto"
	"github.com/erp/pos/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// testCashier is the user the fixture router authenticates every request as
const testCashier = "cashier-1"

type fixture struct {
	router    *gin.Engine
	products  *catalogapp.ProductService
	productDB *persistence.DocumentProductRepository
	carts     *cache.MemoryCartStore

	hirePurchase *financingapp.HirePurchaseService
}

// newFixture wires real services over the in-memory document store
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := docstore.NewMemoryStore(zap.NewNop())
	productRepo := persistence.NewDocumentProductRepository(store)
	saleRepo := persistence.NewDocumentSaleRepository(store)
	agreementRepo := persistence.NewDocumentAgreementRepository(store)
	carts := cache.NewMemoryCartStore(0)
	locks := salesapp.NewSessionLocks()

	productService := catalogapp.NewProductService(productRepo, zap.NewNop(), catalogapp.WithWatcher(productRepo))
	cartService := salesapp.NewCartService(carts, productRepo, locks, zap.NewNop())
	checkoutService := salesapp.NewCheckoutService(carts, saleRepo, productRepo, locks, zap.NewNop())
	saleService := salesapp.NewSaleService(saleRepo, zap.NewNop())
	hpService := financingapp.NewHirePurchaseService(agreementRepo, carts, productRepo, locks, zap.NewNop())
	reportService := reportapp.NewReportService(saleRepo, agreementRepo)

	products := NewProductHandler(productService)
	cart := NewCartHandler(cartService)
	checkout := NewCheckoutHandler(checkoutService)
	sale := NewSaleHandler(saleService)
	hp := NewHirePurchaseHandler(hpService, nil, nil)
	reports := NewReportHandler(reportService)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(RequestIDKey, "req-test")
		if user := c.GetHeader("X-Test-User"); user != "-" {
			c.Set(middleware.JWTUserIDKey, testCashier)
		}
		c.Next()
	})

	api := router.Group("/api/v1")
	api.POST("/catalog/products", products.Create)
	api.GET("/catalog/products", products.List)
	api.GET("/catalog/products/barcode/:barcode", products.GetByBarcode)
	api.GET("/catalog/products/:id", products.GetByID)
	api.PUT("/catalog/products/:id", products.Update)
	api.POST("/catalog/products/:id/stock", products.AdjustStock)
	api.POST("/catalog/products/:id/image", products.UploadImage)
	api.DELETE("/catalog/products/:id", products.Delete)

	api.GET("/carts/:session_id", cart.Get)
	api.DELETE("/carts/:session_id", cart.Clear)
	api.POST("/carts/:session_id/items", cart.AddItem)
	api.DELETE("/carts/:session_id/items/:product_id", cart.RemoveItem)
	api.PUT("/carts/:session_id/items/:product_id/discount", cart.SetLineDiscount)
	api.PUT("/carts/:session_id/discount", cart.SetOverallDiscount)
	api.POST("/carts/:session_id/checkout", checkout.Checkout)
	api.POST("/carts/:session_id/hire-purchase", hp.Create)

	api.GET("/sales", sale.List)
	api.GET("/sales/:id", sale.GetByID)
	api.PUT("/sales/:id/status", sale.UpdateStatus)
	api.GET("/sales/:id/receipt", sale.Receipt)

	api.GET("/hire-purchase", hp.List)
	api.GET("/hire-purchase/:id", hp.GetByID)
	api.POST("/hire-purchase/:id/payments", hp.RecordPayment)
	api.POST("/hire-purchase/:id/default", hp.MarkDefaulted)
	api.GET("/hire-purchase/:id/print", hp.PrintSchedule)

	api.GET("/reports/sales/summary", reports.GetSalesSummary)
	api.GET("/reports/hire-purchase/aging", reports.GetInstallmentAging)

	return &fixture{
		router:       router,
		products:     productService,
		productDB:    productRepo,
		carts:        carts,
		hirePurchase: hpService,
	}
}

func serve(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func (f *fixture) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// seedProduct creates a product through the service
func (f *fixture) seedProduct(t *testing.T, name, price string, quantity int, barcode string) catalogapp.ProductResponse {
	t.Helper()
	p, err := f.products.Create(context.Background(), catalogapp.CreateProductRequest{
		Name:              name,
		Price:             decimal.RequireFromString(price),
		Quantity:          quantity,
		LowStockThreshold: 1,
		Barcode:           barcode,
	})
	require.NoError(t, err)
	return *p
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

// decode unmarshals the response envelope and, when out is non-nil, its data
func decode(t *testing.T, w *httptest.ResponseRecorder, out any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, w.Body.String())
}
