package models

import (
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
)

// Collection names
const (
	CollectionProducts   = "products"
	CollectionSales      = "sales"
	CollectionAgreements = "hire_purchases"
)

// FieldCreatedAtMillis orders documents by creation time.
// Timestamps are also stored as unix milliseconds because RFC 3339 strings
// with variable fractional seconds do not sort lexically.
const FieldCreatedAtMillis = "created_at_ms"

// BaseDocument holds the fields every stored aggregate carries.
// It maps to the domain's BaseAggregateRoot.
type BaseDocument struct {
	ID              uuid.UUID `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	CreatedAtMillis int64     `json:"created_at_ms"`
	Version         int       `json:"version"`
}

// ToDomain converts BaseDocument to a domain BaseAggregateRoot
func (m *BaseDocument) ToDomain() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Version: m.Version,
	}
}

// FromDomainAggregateRoot populates BaseDocument from a domain BaseAggregateRoot
func (m *BaseDocument) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.CreatedAtMillis = a.CreatedAt.UnixMilli()
	m.Version = a.Version
}
