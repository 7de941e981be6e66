package models

import (
	"github.com/erp/pos/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// Product document fields used in queries
const (
	FieldProductName     = "name"
	FieldProductBarcode  = "barcode"
	FieldProductQuantity = "quantity"
)

// ProductDocument is the stored shape of a catalog product
type ProductDocument struct {
	BaseDocument
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	Quantity          int             `json:"quantity"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	ImageKey          string          `json:"image_key"`
	Barcode           string          `json:"barcode"`
}

// ToDomain converts the document to a domain Product
func (m *ProductDocument) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.BaseDocument.ToDomain(),
		Name:              m.Name,
		Price:             m.Price,
		Quantity:          m.Quantity,
		LowStockThreshold: m.LowStockThreshold,
		ImageKey:          m.ImageKey,
		Barcode:           m.Barcode,
	}
}

// FromDomain populates the document from a domain Product
func (m *ProductDocument) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.Price = p.Price
	m.Quantity = p.Quantity
	m.LowStockThreshold = p.LowStockThreshold
	m.ImageKey = p.ImageKey
	m.Barcode = p.Barcode
}

// ProductDocumentFromDomain creates a document from a domain Product
func ProductDocumentFromDomain(p *catalog.Product) *ProductDocument {
	m := &ProductDocument{}
	m.FromDomain(p)
	return m
}
