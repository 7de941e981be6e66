package persistence

import (
	"context"

	"github.com/erp/pos/internal/domain/financing"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/docstore"
	"github.com/erp/pos/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
)

// DocumentAgreementRepository implements AgreementRepository on the document store
type DocumentAgreementRepository struct {
	store docstore.Store
}

// NewDocumentAgreementRepository creates a new DocumentAgreementRepository
func NewDocumentAgreementRepository(store docstore.Store) *DocumentAgreementRepository {
	return &DocumentAgreementRepository{store: store}
}

var agreementSortFields = map[string]string{
	"created_at": models.FieldCreatedAtMillis,
	"status":     models.FieldAgreementStatus,
}

// Create writes a new agreement
func (r *DocumentAgreementRepository) Create(ctx context.Context, agreement *financing.HirePurchaseAgreement) error {
	fields, err := docstore.Encode(models.AgreementDocumentFromDomain(agreement))
	if err != nil {
		return err
	}
	_, err = r.store.Create(ctx, models.CollectionAgreements, fields)
	return err
}

// Save overwrites an existing agreement. The stored version must be the one the
// caller loaded, i.e. one less than the in-memory version after a mutation.
// The check and the write are separate store calls, so two writers racing
// between them can still both succeed.
func (r *DocumentAgreementRepository) Save(ctx context.Context, agreement *financing.HirePurchaseAgreement) error {
	doc, err := r.store.Get(ctx, models.CollectionAgreements, agreement.ID.String())
	if err != nil {
		return err
	}
	var stored models.AgreementDocument
	if err := doc.Decode(&stored); err != nil {
		return err
	}
	if stored.Version >= agreement.Version {
		return shared.ErrConcurrencyConflict
	}

	fields, err := docstore.Encode(models.AgreementDocumentFromDomain(agreement))
	if err != nil {
		return err
	}
	return r.store.Update(ctx, models.CollectionAgreements, agreement.ID.String(), fields)
}

// FindByID finds an agreement by its ID
func (r *DocumentAgreementRepository) FindByID(ctx context.Context, id uuid.UUID) (*financing.HirePurchaseAgreement, error) {
	doc, err := r.store.Get(ctx, models.CollectionAgreements, id.String())
	if err != nil {
		return nil, err
	}
	return decodeAgreement(*doc)
}

// FindAll finds agreements matching the filter, newest first by default
func (r *DocumentAgreementRepository) FindAll(ctx context.Context, filter financing.AgreementFilter) ([]financing.HirePurchaseAgreement, error) {
	if filter.OrderBy == "" {
		filter.OrderBy, filter.OrderDir = "created_at", "desc"
	}
	order, err := sortOrder(filter.Filter, agreementSortFields, models.FieldCreatedAtMillis)
	if err != nil {
		return nil, err
	}
	q := docstore.Query{Filters: agreementFilters(filter), OrderBy: order}
	if filter.PageSize > 0 {
		q.Limit = filter.PageSize
		q.Offset = filter.Offset()
	}

	snap, err := r.store.Query(ctx, models.CollectionAgreements, q)
	if err != nil {
		return nil, err
	}
	out := make([]financing.HirePurchaseAgreement, 0, snap.Len())
	for _, doc := range snap.Documents {
		a, err := decodeAgreement(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

// Count counts agreements matching the filter
func (r *DocumentAgreementRepository) Count(ctx context.Context, filter financing.AgreementFilter) (int64, error) {
	return r.store.Count(ctx, models.CollectionAgreements, agreementFilters(filter)...)
}

func agreementFilters(filter financing.AgreementFilter) []docstore.Filter {
	if filter.Status == "" {
		return nil
	}
	return []docstore.Filter{docstore.Where(models.FieldAgreementStatus, docstore.OpEq, string(filter.Status))}
}

func decodeAgreement(doc docstore.Document) (*financing.HirePurchaseAgreement, error) {
	var m models.AgreementDocument
	if err := doc.Decode(&m); err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

var _ financing.AgreementRepository = (*DocumentAgreementRepository)(nil)
