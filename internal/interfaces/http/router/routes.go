package router

import (
	"github.com/erp/pos/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers served under the versioned API
type Handlers struct {
	Product       *handler.ProductHandler
	ProductStream *handler.ProductStreamHandler
	Cart          *handler.CartHandler
	Checkout      *handler.CheckoutHandler
	Sale          *handler.SaleHandler
	HirePurchase  *handler.HirePurchaseHandler
	Report        *handler.ReportHandler
}

// POSRoutes builds the domain groups of the POS API. The idempotency
// middleware guards the two endpoints that write sales and agreements;
// nil leaves them unguarded.
func POSRoutes(h Handlers, idempotency gin.HandlerFunc) []*DomainGroup {
	guard := func(next gin.HandlerFunc) []gin.HandlerFunc {
		if idempotency == nil {
			return []gin.HandlerFunc{next}
		}
		return []gin.HandlerFunc{idempotency, next}
	}

	catalogRoutes := NewDomainGroup("catalog", "/catalog")
	catalogRoutes.POST("/products", h.Product.Create)
	catalogRoutes.GET("/products", h.Product.List)
	if h.ProductStream != nil {
		catalogRoutes.GET("/products/stream", h.ProductStream.Stream)
	}
	catalogRoutes.GET("/products/barcode/:barcode", h.Product.GetByBarcode)
	catalogRoutes.GET("/products/:id", h.Product.GetByID)
	catalogRoutes.PUT("/products/:id", h.Product.Update)
	catalogRoutes.DELETE("/products/:id", h.Product.Delete)
	catalogRoutes.POST("/products/:id/stock", h.Product.AdjustStock)
	catalogRoutes.POST("/products/:id/image", h.Product.UploadImage)

	cartRoutes := NewDomainGroup("carts", "/carts")
	cartRoutes.GET("/:session_id", h.Cart.Get)
	cartRoutes.DELETE("/:session_id", h.Cart.Clear)
	cartRoutes.POST("/:session_id/items", h.Cart.AddItem)
	cartRoutes.DELETE("/:session_id/items/:product_id", h.Cart.RemoveItem)
	cartRoutes.PUT("/:session_id/items/:product_id/discount", h.Cart.SetLineDiscount)
	cartRoutes.PUT("/:session_id/discount", h.Cart.SetOverallDiscount)
	cartRoutes.POST("/:session_id/checkout", guard(h.Checkout.Checkout)...)
	cartRoutes.POST("/:session_id/hire-purchase", guard(h.HirePurchase.Create)...)

	saleRoutes := NewDomainGroup("sales", "/sales")
	saleRoutes.GET("", h.Sale.List)
	saleRoutes.GET("/:id", h.Sale.GetByID)
	saleRoutes.PUT("/:id/status", h.Sale.UpdateStatus)
	saleRoutes.GET("/:id/receipt", h.Sale.Receipt)

	hpRoutes := NewDomainGroup("hire-purchase", "/hire-purchase")
	hpRoutes.GET("", h.HirePurchase.List)
	hpRoutes.GET("/:id", h.HirePurchase.GetByID)
	hpRoutes.POST("/:id/payments", h.HirePurchase.RecordPayment)
	hpRoutes.POST("/:id/default", h.HirePurchase.MarkDefaulted)
	hpRoutes.GET("/:id/print", h.HirePurchase.PrintSchedule)

	reportRoutes := NewDomainGroup("reports", "/reports")
	reportRoutes.GET("/sales/summary", h.Report.GetSalesSummary)
	reportRoutes.GET("/hire-purchase/aging", h.Report.GetInstallmentAging)

	return []*DomainGroup{catalogRoutes, cartRoutes, saleRoutes, hpRoutes, reportRoutes}
}
