package financing

import (
	"context"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
)

// AgreementFilter narrows agreement listings
type AgreementFilter struct {
	shared.Filter
	Status AgreementStatus
}

// AgreementRepository defines the interface for hire-purchase persistence
type AgreementRepository interface {
	// Create writes a new agreement
	Create(ctx context.Context, agreement *HirePurchaseAgreement) error

	// Save overwrites an existing agreement, failing on a version mismatch
	Save(ctx context.Context, agreement *HirePurchaseAgreement) error

	// FindByID finds an agreement by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*HirePurchaseAgreement, error)

	// FindAll finds agreements matching the filter
	FindAll(ctx context.Context, filter AgreementFilter) ([]HirePurchaseAgreement, error)

	// Count counts agreements matching the filter
	Count(ctx context.Context, filter AgreementFilter) (int64, error)
}
