package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/pos/internal/domain/catalog"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// recordingHandler collects the events it receives
type recordingHandler struct {
	eventTypes []string
	err        error
	panicMsg   string

	mu      sync.Mutex
	handled []shared.DomainEvent
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, event)
	h.mu.Unlock()
	if h.panicMsg != "" {
		panic(h.panicMsg)
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.eventTypes }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func newProduct(t *testing.T) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct("Rice 5kg", decimal.NewFromInt(12), 10, 3)
	require.NoError(t, err)
	return p
}

func TestInMemoryEventBus_RoutesByEventType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	p := newProduct(t)

	stock := &recordingHandler{eventTypes: []string{catalog.EventTypeProductStockChanged}}
	all := &recordingHandler{}
	bus.Subscribe(stock)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(),
		catalog.NewProductCreatedEvent(p),
		catalog.NewProductStockChangedEvent(p, 12, "sale"),
	))

	assert.Equal(t, 1, stock.count())
	assert.Equal(t, 2, all.count())
	assert.Equal(t, 2, bus.HandlerCount(catalog.EventTypeProductStockChanged))
	assert.Equal(t, 1, bus.HandlerCount(catalog.EventTypeProductDeleted))
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandlerTypes(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{eventTypes: []string{catalog.EventTypeProductCreated}}
	bus.Subscribe(h, catalog.EventTypeProductDeleted)

	p := newProduct(t)
	require.NoError(t, bus.Publish(context.Background(), catalog.NewProductCreatedEvent(p)))
	assert.Equal(t, 0, h.count())

	require.NoError(t, bus.Publish(context.Background(), catalog.NewProductDeletedEvent(p.ID)))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_FailingHandlersDoNotStopDelivery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := &recordingHandler{err: errors.New("boom")}
	panicking := &recordingHandler{panicMsg: "kaboom"}
	healthy := &recordingHandler{}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), catalog.NewProductCreatedEvent(newProduct(t)))
	require.NoError(t, err)

	assert.Equal(t, 1, healthy.count())
	assert.Equal(t, int64(2), bus.Failures())
	assert.Equal(t, 2, logs.FilterMessage("Event handler failed").Len())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	typed := &recordingHandler{eventTypes: []string{catalog.EventTypeProductCreated}}
	wild := &recordingHandler{}
	bus.Subscribe(typed)
	bus.Subscribe(wild)

	bus.Unsubscribe(typed)
	bus.Unsubscribe(wild)

	require.NoError(t, bus.Publish(context.Background(), catalog.NewProductCreatedEvent(newProduct(t))))
	assert.Zero(t, typed.count())
	assert.Zero(t, wild.count())
	assert.Zero(t, bus.HandlerCount(catalog.EventTypeProductCreated))
}

func TestInMemoryEventBus_PublishPendingClearsAggregateEvents(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{}
	bus.Subscribe(h)

	p := newProduct(t)
	require.NotEmpty(t, p.GetDomainEvents())

	require.NoError(t, bus.PublishPending(context.Background(), p))
	assert.Equal(t, 1, h.count())
	assert.Empty(t, p.GetDomainEvents())

	require.NoError(t, bus.PublishPending(context.Background(), p))
	assert.Equal(t, 1, h.count(), "events are published once")
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	require.NoError(t, bus.Start(context.Background()))
	assert.True(t, bus.IsRunning())
	require.NoError(t, bus.Stop(context.Background()))
	assert.False(t, bus.IsRunning())
}
