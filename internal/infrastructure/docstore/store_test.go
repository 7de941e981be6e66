package docstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLiteStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store, err := NewGormStore(db, NewChangeHub(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.AutoMigrate())
	return store
}

// storeFactories lets every behavior run against both implementations
func storeFactories() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore(zap.NewNop()) },
		"sqlite": func(t *testing.T) Store { return newSQLiteStore(t) },
	}
}

func seedProducts(t *testing.T, ctx context.Context, s Store) {
	t.Helper()
	for _, p := range []Fields{
		{"id": "p1", "name": "Apple", "quantity": 10, "active": true},
		{"id": "p2", "name": "Banana", "quantity": 2, "active": true},
		{"id": "p3", "name": "apricot", "quantity": 0, "active": false},
	} {
		_, err := s.Create(ctx, "products", p)
		require.NoError(t, err)
	}
}

func TestStore_CRUD(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			id, err := s.Create(ctx, "products", Fields{"name": "Widget", "quantity": 5})
			require.NoError(t, err)
			assert.NotEmpty(t, id)

			doc, err := s.Get(ctx, "products", id)
			require.NoError(t, err)
			assert.Equal(t, id, doc.ID)
			assert.Equal(t, id, doc.Fields["id"])
			assert.Equal(t, "Widget", doc.Fields["name"])
			assert.Equal(t, float64(5), doc.Fields["quantity"])

			require.NoError(t, s.Update(ctx, "products", id, Fields{"quantity": 3}))
			doc, err = s.Get(ctx, "products", id)
			require.NoError(t, err)
			assert.Equal(t, float64(3), doc.Fields["quantity"])
			assert.Equal(t, "Widget", doc.Fields["name"], "update merges top-level fields")

			require.NoError(t, s.Delete(ctx, "products", id))
			_, err = s.Get(ctx, "products", id)
			assert.ErrorIs(t, err, shared.ErrNotFound)
		})
	}
}

func TestStore_UpdateReplacesTopLevelValues(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			id, err := s.Create(ctx, "products", Fields{
				"name":  "Widget",
				"dims":  map[string]any{"w": 1, "h": 2},
				"notes": "fragile",
			})
			require.NoError(t, err)

			require.NoError(t, s.Update(ctx, "products", id, Fields{
				"dims":  map[string]any{"w": 5},
				"notes": nil,
			}))

			doc, err := s.Get(ctx, "products", id)
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"w": float64(5)}, doc.Fields["dims"], "nested objects are replaced, not merged")
			assert.Contains(t, doc.Fields, "notes", "null values are kept")
			assert.Nil(t, doc.Fields["notes"])
			assert.Equal(t, "Widget", doc.Fields["name"])
		})
	}
}

func TestSQLiteDialect_Merge(t *testing.T) {
	expr, args, err := sqliteDialect{}.merge(Fields{"quantity": 7, "tags": []any{"a"}})
	require.NoError(t, err)
	assert.Equal(t, "json_set(data, ?, json(?), ?, json(?))", expr)
	assert.Equal(t, []any{`$."quantity"`, "7", `$."tags"`, `["a"]`}, args)

	expr, args, err = sqliteDialect{}.merge(Fields{})
	require.NoError(t, err)
	assert.Equal(t, "data", expr)
	assert.Empty(t, args)

	_, _, err = sqliteDialect{}.merge(Fields{`a"b`: 1})
	assert.Error(t, err)
}

func TestStore_MissingDocuments(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			assert.ErrorIs(t, s.Update(ctx, "products", "nope", Fields{"a": 1}), shared.ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, "products", "nope"), shared.ErrNotFound)
			_, err := s.Get(ctx, "products", "nope")
			assert.ErrorIs(t, err, shared.ErrNotFound)
		})
	}
}

func TestStore_CreateWithExplicitID(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			id, err := s.Create(ctx, "sales", Fields{"id": "order-1", "total": "10.00"})
			require.NoError(t, err)
			assert.Equal(t, "order-1", id)

			_, err = s.Create(ctx, "sales", Fields{"id": "order-1"})
			assert.ErrorIs(t, err, shared.ErrAlreadyExists)

			// same id in another collection is a different document
			_, err = s.Create(ctx, "agreements", Fields{"id": "order-1"})
			assert.NoError(t, err)
		})
	}
}

func TestStore_QueryFilters(t *testing.T) {
	cases := []struct {
		name    string
		filters []Filter
		want    []string
	}{
		{"equality on string", []Filter{Where("name", OpEq, "Banana")}, []string{"p2"}},
		{"inequality", []Filter{Where("name", OpNe, "Banana")}, []string{"p1", "p3"}},
		{"numeric less or equal", []Filter{Where("quantity", OpLte, 2)}, []string{"p2", "p3"}},
		{"numeric greater", []Filter{Where("quantity", OpGt, 2)}, []string{"p1"}},
		{"boolean", []Filter{Where("active", OpEq, false)}, []string{"p3"}},
		{"case-insensitive prefix", []Filter{Where("name", OpPrefix, "AP")}, []string{"p1", "p3"}},
		{"combined", []Filter{Where("name", OpPrefix, "a"), Where("quantity", OpGte, 1)}, []string{"p1"}},
		{"missing field matches nothing", []Filter{Where("barcode", OpEq, "x")}, []string{}},
	}

	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			seedProducts(t, ctx, s)

			for _, tc := range cases {
				t.Run(tc.name, func(t *testing.T) {
					snap, err := s.Query(ctx, "products", Query{
						Filters: tc.filters,
						OrderBy: []Order{{Field: "id"}},
					})
					require.NoError(t, err)
					ids := make([]string, 0, snap.Len())
					for _, d := range snap.Documents {
						ids = append(ids, d.ID)
					}
					assert.Equal(t, tc.want, ids)

					n, err := s.Count(ctx, "products", tc.filters...)
					require.NoError(t, err)
					assert.Equal(t, int64(len(tc.want)), n)
				})
			}
		})
	}
}

func TestStore_QueryOrderAndPaging(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			seedProducts(t, ctx, s)

			snap, err := s.Query(ctx, "products", Query{OrderBy: []Order{{Field: "quantity", Desc: true}}})
			require.NoError(t, err)
			require.Equal(t, 3, snap.Len())
			assert.Equal(t, "p1", snap.Documents[0].ID)
			assert.Equal(t, "p2", snap.Documents[1].ID)
			assert.Equal(t, "p3", snap.Documents[2].ID)

			snap, err = s.Query(ctx, "products", Query{
				OrderBy: []Order{{Field: "quantity"}},
				Limit:   1,
				Offset:  1,
			})
			require.NoError(t, err)
			require.Equal(t, 1, snap.Len())
			assert.Equal(t, "p2", snap.Documents[0].ID)
		})
	}
}

func TestStore_RejectsInvalidQuery(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			_, err := s.Query(context.Background(), "products", Query{
				Filters: []Filter{Where("name'; DROP TABLE documents; --", OpEq, "x")},
			})
			assert.ErrorIs(t, err, ErrInvalidQuery)

			_, err = s.Query(context.Background(), "products", Query{
				Filters: []Filter{{Field: "name", Op: "LIKE", Value: "x"}},
			})
			assert.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
}

// snapshotRecorder collects snapshots delivered to a subscription
type snapshotRecorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *snapshotRecorder) record(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *snapshotRecorder) last() (Snapshot, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return Snapshot{}, 0
	}
	return r.snaps[len(r.snaps)-1], len(r.snaps)
}

func TestStore_Subscribe(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			seedProducts(t, ctx, s)

			rec := &snapshotRecorder{}
			sub, err := s.Subscribe(ctx, "products", Query{
				Filters: []Filter{Where("quantity", OpLte, 2)},
			}, rec.record)
			require.NoError(t, err)
			defer sub.Close()

			snap, n := rec.last()
			require.Equal(t, 1, n, "initial snapshot is delivered synchronously")
			assert.Equal(t, 2, snap.Len())

			require.NoError(t, s.Update(ctx, "products", "p1", Fields{"quantity": 1}))

			require.Eventually(t, func() bool {
				snap, _ := rec.last()
				return snap.Len() == 3
			}, 2*time.Second, 10*time.Millisecond)

			// writes to other collections do not trigger a refresh
			_, count := rec.last()
			_, err = s.Create(ctx, "sales", Fields{"total": "1.00"})
			require.NoError(t, err)
			time.Sleep(50 * time.Millisecond)
			_, after := rec.last()
			assert.Equal(t, count, after)
		})
	}
}

func TestStore_SubscribeCloseStopsDelivery(t *testing.T) {
	ctx := context.Background()
	hub := NewChangeHub()
	s := NewMemoryStore(zap.NewNop(), WithMemoryNotifier(hub))

	rec := &snapshotRecorder{}
	sub, err := s.Subscribe(ctx, "products", Query{}, rec.record)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.ListenerCount("products"))

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.ListenerCount("products"))

	_, err = s.Create(ctx, "products", Fields{"name": "x"})
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, n := rec.last()
	assert.Equal(t, 1, n)
}

func TestDocument_DecodeAndEncode(t *testing.T) {
	type product struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Quantity int    `json:"quantity"`
	}

	fields, err := Encode(product{ID: "p1", Name: "Apple", Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, "Apple", fields["name"])

	var out product
	require.NoError(t, Document{ID: "p1", Fields: fields}.Decode(&out))
	assert.Equal(t, product{ID: "p1", Name: "Apple", Quantity: 4}, out)

	_, err = Encode([]int{1, 2})
	assert.Error(t, err)
}
