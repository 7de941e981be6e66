package docstore

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ChangeOp is the kind of write that produced a change
type ChangeOp string

// Change operations
const (
	ChangeCreated ChangeOp = "created"
	ChangeUpdated ChangeOp = "updated"
	ChangeDeleted ChangeOp = "deleted"
)

// Change describes a committed write to a collection
type Change struct {
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	Op         ChangeOp  `json:"op"`
	At         time.Time `json:"at"`
}

// Notifier fans committed writes out to live subscriptions
type Notifier interface {
	Notify(ctx context.Context, change Change) error
	// Listen registers fn for changes to collection and returns a function that removes it
	Listen(collection string, fn func(Change)) (unlisten func())
}

// ChangeHub is an in-process Notifier
type ChangeHub struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[string]map[uint64]func(Change)
}

// NewChangeHub creates an empty hub
func NewChangeHub() *ChangeHub {
	return &ChangeHub{listeners: make(map[string]map[uint64]func(Change))}
}

// Notify delivers the change synchronously to every listener of its collection
func (h *ChangeHub) Notify(_ context.Context, change Change) error {
	h.Dispatch(change)
	return nil
}

// Dispatch delivers a change to local listeners
func (h *ChangeHub) Dispatch(change Change) {
	h.mu.RLock()
	fns := make([]func(Change), 0, len(h.listeners[change.Collection]))
	for _, fn := range h.listeners[change.Collection] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(change)
	}
}

// Listen implements Notifier
func (h *ChangeHub) Listen(collection string, fn func(Change)) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.listeners[collection] == nil {
		h.listeners[collection] = make(map[uint64]func(Change))
	}
	h.listeners[collection][id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners[collection], id)
			if len(h.listeners[collection]) == 0 {
				delete(h.listeners, collection)
			}
			h.mu.Unlock()
		})
	}
}

// ListenerCount returns the number of listeners registered for collection
func (h *ChangeHub) ListenerCount(collection string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[collection])
}

type querier interface {
	Query(ctx context.Context, collection string, q Query) (Snapshot, error)
}

// liveQuery re-runs a query whenever its collection changes. Bursts of changes
// coalesce into a single refresh.
type liveQuery struct {
	cancel   context.CancelFunc
	unlisten func()
	done     chan struct{}
	once     sync.Once
}

func startLiveQuery(ctx context.Context, store querier, notifier Notifier, collection string, q Query, fn func(Snapshot), logger *zap.Logger) (*liveQuery, error) {
	// Register before the initial read so no change between the two is missed
	signal := make(chan struct{}, 1)
	unlisten := notifier.Listen(collection, func(Change) {
		select {
		case signal <- struct{}{}:
		default:
		}
	})

	snap, err := store.Query(ctx, collection, q)
	if err != nil {
		unlisten()
		return nil, err
	}
	fn(snap)

	runCtx, cancel := context.WithCancel(ctx)
	lq := &liveQuery{cancel: cancel, unlisten: unlisten, done: make(chan struct{})}

	go func() {
		defer close(lq.done)
		for {
			select {
			case <-runCtx.Done():
				return
			case <-signal:
				snap, err := store.Query(runCtx, collection, q)
				if err != nil {
					if runCtx.Err() != nil {
						return
					}
					logger.Warn("Live query refresh failed",
						zap.String("collection", collection),
						zap.Error(err))
					continue
				}
				fn(snap)
			}
		}
	}()

	return lq, nil
}

// Close implements Subscription
func (l *liveQuery) Close() {
	l.once.Do(func() {
		l.unlisten()
		l.cancel()
		<-l.done
	})
}
