package persistence

import (
	"context"
	"time"

	"github.com/erp/pos/internal/domain/sales"
	"github.com/erp/pos/internal/infrastructure/docstore"
	"github.com/erp/pos/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
)

// DocumentSaleRepository implements SaleRecordRepository on the document store
type DocumentSaleRepository struct {
	store docstore.Store
}

// NewDocumentSaleRepository creates a new DocumentSaleRepository
func NewDocumentSaleRepository(store docstore.Store) *DocumentSaleRepository {
	return &DocumentSaleRepository{store: store}
}

var saleSortFields = map[string]string{
	"sold_at":    models.FieldSaleSoldAtMillis,
	"created_at": models.FieldCreatedAtMillis,
	"status":     models.FieldSaleStatus,
}

// Create writes a new sale record
func (r *DocumentSaleRepository) Create(ctx context.Context, sale *sales.SaleRecord) error {
	fields, err := docstore.Encode(models.SaleDocumentFromDomain(sale))
	if err != nil {
		return err
	}
	_, err = r.store.Create(ctx, models.CollectionSales, fields)
	return err
}

// FindByID finds a sale by its ID
func (r *DocumentSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.SaleRecord, error) {
	doc, err := r.store.Get(ctx, models.CollectionSales, id.String())
	if err != nil {
		return nil, err
	}
	return decodeSale(*doc)
}

// FindAll finds sales matching the filter, newest first by default
func (r *DocumentSaleRepository) FindAll(ctx context.Context, filter sales.SaleFilter) ([]sales.SaleRecord, error) {
	if filter.OrderBy == "" {
		filter.OrderBy, filter.OrderDir = "sold_at", "desc"
	}
	order, err := sortOrder(filter.Filter, saleSortFields, models.FieldSaleSoldAtMillis)
	if err != nil {
		return nil, err
	}
	q := docstore.Query{Filters: saleFilters(filter), OrderBy: order}
	if filter.PageSize > 0 {
		q.Limit = filter.PageSize
		q.Offset = filter.Offset()
	}

	snap, err := r.store.Query(ctx, models.CollectionSales, q)
	if err != nil {
		return nil, err
	}
	out := make([]sales.SaleRecord, 0, snap.Len())
	for _, doc := range snap.Documents {
		s, err := decodeSale(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

// Count counts sales matching the filter
func (r *DocumentSaleRepository) Count(ctx context.Context, filter sales.SaleFilter) (int64, error) {
	return r.store.Count(ctx, models.CollectionSales, saleFilters(filter)...)
}

// UpdateStatus writes only the status of a sale
func (r *DocumentSaleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status sales.SaleStatus) error {
	return r.store.Update(ctx, models.CollectionSales, id.String(), docstore.Fields{
		models.FieldSaleStatus: string(status),
		"updated_at":           time.Now(),
	})
}

func saleFilters(filter sales.SaleFilter) []docstore.Filter {
	var filters []docstore.Filter
	if filter.From != nil {
		filters = append(filters, docstore.Where(models.FieldSaleSoldAtMillis, docstore.OpGte, filter.From.UnixMilli()))
	}
	if filter.To != nil {
		filters = append(filters, docstore.Where(models.FieldSaleSoldAtMillis, docstore.OpLt, filter.To.UnixMilli()))
	}
	if filter.Status != "" {
		filters = append(filters, docstore.Where(models.FieldSaleStatus, docstore.OpEq, string(filter.Status)))
	}
	return filters
}

func decodeSale(doc docstore.Document) (*sales.SaleRecord, error) {
	var m models.SaleDocument
	if err := doc.Decode(&m); err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

var _ sales.SaleRecordRepository = (*DocumentSaleRepository)(nil)
