package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/pos/internal/domain/catalog"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/docstore"
	"github.com/erp/pos/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
)

// DocumentProductRepository implements ProductRepository on the document store
type DocumentProductRepository struct {
	store docstore.Store
}

// NewDocumentProductRepository creates a new DocumentProductRepository
func NewDocumentProductRepository(store docstore.Store) *DocumentProductRepository {
	return &DocumentProductRepository{store: store}
}

// productSortFields whitelists the fields products may be ordered by
var productSortFields = map[string]string{
	"name":       models.FieldProductName,
	"quantity":   models.FieldProductQuantity,
	"created_at": models.FieldCreatedAtMillis,
}

// FindByID finds a product by its ID
func (r *DocumentProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	doc, err := r.store.Get(ctx, models.CollectionProducts, id.String())
	if err != nil {
		return nil, err
	}
	return decodeProduct(*doc)
}

// FindByBarcode finds a product by its barcode
func (r *DocumentProductRepository) FindByBarcode(ctx context.Context, barcode string) (*catalog.Product, error) {
	if barcode == "" {
		return nil, shared.NewDomainError("INVALID_BARCODE", "Barcode cannot be empty")
	}
	snap, err := r.store.Query(ctx, models.CollectionProducts, docstore.Query{
		Filters: []docstore.Filter{docstore.Where(models.FieldProductBarcode, docstore.OpEq, barcode)},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if snap.Len() == 0 {
		return nil, shared.ErrNotFound
	}
	return decodeProduct(snap.Documents[0])
}

// FindAll finds all products matching the filter.
// The low-stock condition compares two fields of the same document, which the
// store cannot express, so it is applied after the query and before paging.
func (r *DocumentProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, error) {
	q, err := productQuery(filter)
	if err != nil {
		return nil, err
	}
	if !filter.LowStockOnly {
		if filter.PageSize > 0 {
			q.Limit = filter.PageSize
			q.Offset = filter.Offset()
		}
		snap, err := r.store.Query(ctx, models.CollectionProducts, q)
		if err != nil {
			return nil, err
		}
		return decodeProducts(snap.Documents)
	}

	snap, err := r.store.Query(ctx, models.CollectionProducts, q)
	if err != nil {
		return nil, err
	}
	all, err := decodeProducts(snap.Documents)
	if err != nil {
		return nil, err
	}
	low := lowStockOnly(all)
	return page(low, filter.Filter), nil
}

// Count counts products matching the filter
func (r *DocumentProductRepository) Count(ctx context.Context, filter catalog.ProductFilter) (int64, error) {
	if filter.LowStockOnly {
		filter.Page, filter.PageSize = 0, 0
		products, err := r.FindAll(ctx, filter)
		if err != nil {
			return 0, err
		}
		return int64(len(products)), nil
	}
	return r.store.Count(ctx, models.CollectionProducts, productFilters(filter)...)
}

// CountLowStock counts products at or below their low-stock threshold
func (r *DocumentProductRepository) CountLowStock(ctx context.Context) (int64, error) {
	return r.Count(ctx, catalog.ProductFilter{LowStockOnly: true})
}

// Save creates or updates a product
func (r *DocumentProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	fields, err := docstore.Encode(models.ProductDocumentFromDomain(product))
	if err != nil {
		return err
	}
	return upsert(ctx, r.store, models.CollectionProducts, product.ID.String(), fields)
}

// UpdateStock writes the on-hand quantity without reading the current value first.
// Concurrent writers race and the last write wins.
func (r *DocumentProductRepository) UpdateStock(ctx context.Context, id uuid.UUID, quantity int) error {
	now := time.Now()
	return r.store.Update(ctx, models.CollectionProducts, id.String(), docstore.Fields{
		models.FieldProductQuantity: quantity,
		"updated_at":                now,
	})
}

// Delete deletes a product
func (r *DocumentProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.Delete(ctx, models.CollectionProducts, id.String())
}

// Watch streams the products matching filter until stop is called or ctx ends
func (r *DocumentProductRepository) Watch(ctx context.Context, filter catalog.ProductFilter, fn func([]catalog.Product)) (func(), error) {
	q, err := productQuery(filter)
	if err != nil {
		return nil, err
	}
	sub, err := r.store.Subscribe(ctx, models.CollectionProducts, q, func(snap docstore.Snapshot) {
		products, err := decodeProducts(snap.Documents)
		if err != nil {
			return
		}
		if filter.LowStockOnly {
			products = lowStockOnly(products)
		}
		fn(products)
	})
	if err != nil {
		return nil, err
	}
	return sub.Close, nil
}

func productFilters(filter catalog.ProductFilter) []docstore.Filter {
	var filters []docstore.Filter
	if filter.Barcode != "" {
		filters = append(filters, docstore.Where(models.FieldProductBarcode, docstore.OpEq, filter.Barcode))
	}
	if filter.NamePrefix != "" {
		filters = append(filters, docstore.Where(models.FieldProductName, docstore.OpPrefix, filter.NamePrefix))
	}
	return filters
}

func productQuery(filter catalog.ProductFilter) (docstore.Query, error) {
	order, err := sortOrder(filter.Filter, productSortFields, models.FieldProductName)
	if err != nil {
		return docstore.Query{}, err
	}
	return docstore.Query{Filters: productFilters(filter), OrderBy: order}, nil
}

func decodeProduct(doc docstore.Document) (*catalog.Product, error) {
	var m models.ProductDocument
	if err := doc.Decode(&m); err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

func decodeProducts(docs []docstore.Document) ([]catalog.Product, error) {
	products := make([]catalog.Product, 0, len(docs))
	for _, doc := range docs {
		p, err := decodeProduct(doc)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, nil
}

func lowStockOnly(products []catalog.Product) []catalog.Product {
	out := make([]catalog.Product, 0, len(products))
	for i := range products {
		if products[i].IsLowStock() {
			out = append(out, products[i])
		}
	}
	return out
}

// upsert overwrites the whole document, creating it when missing
func upsert(ctx context.Context, store docstore.Store, collection, id string, fields docstore.Fields) error {
	err := store.Update(ctx, collection, id, fields)
	if err == nil {
		return nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("save %s/%s: %w", collection, id, err)
	}
	if _, err := store.Create(ctx, collection, fields); err != nil {
		return fmt.Errorf("create %s/%s: %w", collection, id, err)
	}
	return nil
}

var (
	_ catalog.ProductRepository = (*DocumentProductRepository)(nil)
	_ catalog.ProductWatcher    = (*DocumentProductRepository)(nil)
)
