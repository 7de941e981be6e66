package docstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"go.uber.org/zap"
)

// MemoryStore is an in-process Store used by tests and single-node development
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*Document
	notifier    Notifier
	logger      *zap.Logger
	now         func() time.Time
}

// MemoryStoreOption configures a MemoryStore
type MemoryStoreOption func(*MemoryStore)

// WithMemoryNotifier replaces the default in-process ChangeHub
func WithMemoryNotifier(n Notifier) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.notifier = n
	}
}

// WithMemoryClock overrides the timestamp source
func WithMemoryClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an empty store
func NewMemoryStore(logger *zap.Logger, opts ...MemoryStoreOption) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MemoryStore{
		collections: make(map[string]map[string]*Document),
		notifier:    NewChangeHub(),
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create implements Store
func (s *MemoryStore) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	body, err := roundTrip(fields)
	if err != nil {
		return "", err
	}
	id := documentID(body)
	body[IDField] = id
	now := s.now()

	s.mu.Lock()
	docs := s.collections[collection]
	if docs == nil {
		docs = make(map[string]*Document)
		s.collections[collection] = docs
	}
	if _, exists := docs[id]; exists {
		s.mu.Unlock()
		return "", shared.ErrAlreadyExists
	}
	docs[id] = &Document{ID: id, Fields: body, CreatedAt: now, UpdatedAt: now}
	s.mu.Unlock()

	s.notify(ctx, Change{Collection: collection, ID: id, Op: ChangeCreated, At: now})
	return id, nil
}

// Update implements Store
func (s *MemoryStore) Update(ctx context.Context, collection, id string, partial Fields) error {
	patch, err := roundTrip(partial)
	if err != nil {
		return err
	}
	delete(patch, IDField)
	now := s.now()

	s.mu.Lock()
	doc, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return shared.ErrNotFound
	}
	body := cloneFields(doc.Fields)
	for k, v := range patch {
		body[k] = v
	}
	s.collections[collection][id] = &Document{ID: id, Fields: body, CreatedAt: doc.CreatedAt, UpdatedAt: now}
	s.mu.Unlock()

	s.notify(ctx, Change{Collection: collection, ID: id, Op: ChangeUpdated, At: now})
	return nil
}

// Delete implements Store
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	if _, ok := s.collections[collection][id]; !ok {
		s.mu.Unlock()
		return shared.ErrNotFound
	}
	delete(s.collections[collection], id)
	s.mu.Unlock()

	s.notify(ctx, Change{Collection: collection, ID: id, Op: ChangeDeleted, At: s.now()})
	return nil
}

// Get implements Store
func (s *MemoryStore) Get(_ context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := copyDocument(doc)
	return &out, nil
}

// Query implements Store
func (s *MemoryStore) Query(_ context.Context, collection string, q Query) (Snapshot, error) {
	if err := q.Validate(); err != nil {
		return Snapshot{}, err
	}

	s.mu.RLock()
	matched := make([]Document, 0)
	for _, doc := range s.collections[collection] {
		if q.Matches(doc.Fields) {
			matched = append(matched, copyDocument(doc))
		}
	}
	s.mu.RUnlock()

	sortDocuments(matched, q.OrderBy)

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			matched = matched[:0]
		} else {
			matched = matched[q.Offset:]
		}
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	return Snapshot{Collection: collection, Documents: matched, ReadAt: s.now()}, nil
}

// Count implements Store
func (s *MemoryStore) Count(_ context.Context, collection string, filters ...Filter) (int64, error) {
	q := Query{Filters: filters}
	if err := q.Validate(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, doc := range s.collections[collection] {
		if q.Matches(doc.Fields) {
			n++
		}
	}
	return n, nil
}

// Subscribe implements Store
func (s *MemoryStore) Subscribe(ctx context.Context, collection string, q Query, fn func(Snapshot)) (Subscription, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return startLiveQuery(ctx, s, s.notifier, collection, q, fn, s.logger)
}

func (s *MemoryStore) notify(ctx context.Context, change Change) {
	if err := s.notifier.Notify(ctx, change); err != nil {
		s.logger.Warn("Failed to publish document change",
			zap.String("collection", change.Collection),
			zap.String("id", change.ID),
			zap.Error(err))
	}
}

// roundTrip gives callers the same value shapes a JSON column returns
func roundTrip(f Fields) (Fields, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, shared.WrapDomainError(shared.ErrInvalidInput.Code, "Document is not JSON encodable", err)
	}
	out := Fields{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, shared.WrapDomainError(shared.ErrInvalidInput.Code, "Document is not a JSON object", err)
	}
	return out, nil
}

func copyDocument(d *Document) Document {
	return Document{ID: d.ID, Fields: cloneFields(d.Fields), CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}

// sortDocuments orders by the given fields, falling back to creation time then id
func sortDocuments(docs []Document, orders []Order) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, o := range orders {
			c := compare(normalize(docs[i].Fields[o.Field]), normalize(docs[j].Fields[o.Field]))
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
}
