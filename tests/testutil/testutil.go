// Package testutil wires the POS services over a document store for
// integration and acceptance tests.
package testutil

import (
	"context"
	"testing"
	"time"

	catalogapp "github.com/erp/pos/internal/application/catalog"
	financingapp "github.com/erp/pos/internal/application/financing"
	reportapp "github.com/erp/pos/internal/application/report"
	salesapp "github.com/erp/pos/internal/application/sales"
	"github.com/erp/pos/internal/infrastructure/cache"
	"github.com/erp/pos/internal/infrastructure/docstore"
	"github.com/erp/pos/internal/infrastructure/event"
	"github.com/erp/pos/internal/infrastructure/persistence"
	"github.com/erp/pos/internal/infrastructure/printing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// POS holds a fully wired set of services sharing one document store,
// one cart store and one event bus.
type POS struct {
	Store      docstore.Store
	Products   *persistence.DocumentProductRepository
	Sales      *persistence.DocumentSaleRepository
	Agreements *persistence.DocumentAgreementRepository
	Carts      *cache.MemoryCartStore
	Bus        *event.InMemoryEventBus
	Events     *EventRecorder

	Catalog      *catalogapp.ProductService
	Cart         *salesapp.CartService
	Checkout     *salesapp.CheckoutService
	SaleRecords  *salesapp.SaleService
	HirePurchase *financingapp.HirePurchaseService
	Reports      *reportapp.ReportService
}

type posOptions struct {
	now    func() time.Time
	logger *zap.Logger
}

// POSOption customizes NewPOS
type POSOption func(*posOptions)

// WithNow fixes the clock used for sales and agreements
func WithNow(now func() time.Time) POSOption {
	return func(o *posOptions) { o.now = now }
}

// WithLogger sets the logger handed to every service
func WithLogger(logger *zap.Logger) POSOption {
	return func(o *posOptions) { o.logger = logger }
}

// NewPOS wires repositories and services over store. A nil store gets a
// fresh in-memory one.
func NewPOS(t testing.TB, store docstore.Store, opts ...POSOption) *POS {
	t.Helper()

	o := posOptions{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if store == nil {
		store = docstore.NewMemoryStore(o.logger)
	}

	products := persistence.NewDocumentProductRepository(store)
	saleRepo := persistence.NewDocumentSaleRepository(store)
	agreements := persistence.NewDocumentAgreementRepository(store)
	carts := cache.NewMemoryCartStore(0)
	locks := salesapp.NewSessionLocks()

	bus := event.NewInMemoryEventBus(o.logger)
	recorder := NewEventRecorder()
	bus.Subscribe(recorder)
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	receipts := printing.NewReceiptTemplates(printing.StoreInfo{Name: "Test Store", Address: "1 Main St"}, "en")

	return &POS{
		Store:      store,
		Products:   products,
		Sales:      saleRepo,
		Agreements: agreements,
		Carts:      carts,
		Bus:        bus,
		Events:     recorder,

		Catalog: catalogapp.NewProductService(products, o.logger,
			catalogapp.WithEventPublisher(bus),
			catalogapp.WithWatcher(products),
		),
		Cart: salesapp.NewCartService(carts, products, locks, o.logger),
		Checkout: salesapp.NewCheckoutService(carts, saleRepo, products, locks, o.logger,
			salesapp.WithCheckoutEvents(bus),
			salesapp.WithClock(o.now),
		),
		SaleRecords: salesapp.NewSaleService(saleRepo, o.logger,
			salesapp.WithReceiptRenderer(receipts),
			salesapp.WithSaleEvents(bus),
		),
		HirePurchase: financingapp.NewHirePurchaseService(agreements, carts, products, locks, o.logger,
			financingapp.WithEvents(bus),
			financingapp.WithClock(o.now),
		),
		Reports: reportapp.NewReportService(saleRepo, agreements),
	}
}

// CreateProduct adds a product to the catalog and returns its id.
func (p *POS) CreateProduct(t testing.TB, name, price string, quantity int) uuid.UUID {
	t.Helper()

	resp, err := p.Catalog.Create(context.Background(), catalogapp.CreateProductRequest{
		Name:     name,
		Price:    Dec(price),
		Quantity: quantity,
	})
	require.NoError(t, err)
	return resp.ID
}

// AddUnits adds n units of a product to the session cart.
func (p *POS) AddUnits(t testing.TB, sessionID string, productID uuid.UUID, n int) *salesapp.CartResponse {
	t.Helper()

	var (
		cart *salesapp.CartResponse
		err  error
	)
	for i := 0; i < n; i++ {
		id := productID
		cart, err = p.Cart.AddProduct(context.Background(), sessionID, salesapp.AddToCartRequest{ProductID: &id})
		require.NoError(t, err)
	}
	return cart
}

// Stock returns the stored on-hand quantity of a product.
func (p *POS) Stock(t testing.TB, productID uuid.UUID) int {
	t.Helper()

	product, err := p.Products.FindByID(context.Background(), productID)
	require.NoError(t, err)
	return product.Quantity
}

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
