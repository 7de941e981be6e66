package financing

import (
	"context"

	"github.com/erp/pos/internal/domain/financing"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockAgreementRepository is a mock implementation of AgreementRepository
type MockAgreementRepository struct {
	mock.Mock
}

func (m *MockAgreementRepository) Create(ctx context.Context, a *financing.HirePurchaseAgreement) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAgreementRepository) Save(ctx context.Context, a *financing.HirePurchaseAgreement) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAgreementRepository) FindByID(ctx context.Context, id uuid.UUID) (*financing.HirePurchaseAgreement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financing.HirePurchaseAgreement), args.Error(1)
}

func (m *MockAgreementRepository) FindAll(ctx context.Context, filter financing.AgreementFilter) ([]financing.HirePurchaseAgreement, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]financing.HirePurchaseAgreement), args.Error(1)
}

func (m *MockAgreementRepository) Count(ctx context.Context, filter financing.AgreementFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockStockWriter is a mock implementation of StockWriter
type MockStockWriter struct {
	mock.Mock
}

func (m *MockStockWriter) UpdateStock(ctx context.Context, id uuid.UUID, quantity int) error {
	return m.Called(ctx, id, quantity).Error(0)
}

// MockMetrics is a mock implementation of Metrics
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordAgreementCreated(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockMetrics) RecordInstallmentPaid(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockMetrics) RecordInstallmentsOverdue(ctx context.Context, n int) {
	m.Called(ctx, n)
}

// capturePublisher records published events
type capturePublisher struct {
	events []shared.DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}
