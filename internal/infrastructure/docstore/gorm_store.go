package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CollectionSetting is the gorm statement setting holding the collection a
// query targets, read by the database metrics plugin.
const CollectionSetting = "docstore:collection"

// documentModel is the row shape of the documents table.
// On PostgreSQL data is a jsonb column (see migrations); on SQLite it is text.
type documentModel struct {
	Collection string `gorm:"primaryKey;size:64"`
	ID         string `gorm:"primaryKey;size:64"`
	Data       string `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName returns the table name for GORM
func (documentModel) TableName() string {
	return "documents"
}

func (m documentModel) toDocument() (Document, error) {
	fields := Fields{}
	if err := json.Unmarshal([]byte(m.Data), &fields); err != nil {
		return Document{}, fmt.Errorf("decode document %s/%s: %w", m.Collection, m.ID, err)
	}
	return Document{ID: m.ID, Fields: fields, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}, nil
}

// GormStore keeps documents as JSON rows in PostgreSQL or SQLite
type GormStore struct {
	db       *gorm.DB
	dialect  dialect
	notifier Notifier
	logger   *zap.Logger
}

// NewGormStore creates a store on top of an open GORM connection
func NewGormStore(db *gorm.DB, notifier Notifier, logger *zap.Logger) (*GormStore, error) {
	d, err := dialectFor(db.Dialector.Name())
	if err != nil {
		return nil, err
	}
	if notifier == nil {
		notifier = NewChangeHub()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormStore{db: db, dialect: d, notifier: notifier, logger: logger}, nil
}

// AutoMigrate creates the documents table. PostgreSQL deployments use the SQL migrations instead.
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(&documentModel{})
}

// Create implements Store
func (s *GormStore) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	body, err := roundTrip(fields)
	if err != nil {
		return "", err
	}
	id := documentID(body)
	body[IDField] = id

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	m := documentModel{Collection: collection, ID: id, Data: string(data)}
	if err := s.session(ctx, collection).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", shared.ErrAlreadyExists
		}
		return "", fmt.Errorf("create document %s/%s: %w", collection, id, err)
	}

	s.notify(ctx, Change{Collection: collection, ID: id, Op: ChangeCreated, At: m.CreatedAt})
	return id, nil
}

// Update implements Store
func (s *GormStore) Update(ctx context.Context, collection, id string, partial Fields) error {
	patch, err := roundTrip(partial)
	if err != nil {
		return err
	}
	delete(patch, IDField)

	expr, args, err := s.dialect.merge(patch)
	if err != nil {
		return err
	}

	now := time.Now()
	result := s.session(ctx, collection).
		Model(&documentModel{}).
		Where("collection = ? AND id = ?", collection, id).
		Updates(map[string]any{
			"data":       gorm.Expr(expr, args...),
			"updated_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("update document %s/%s: %w", collection, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}

	s.notify(ctx, Change{Collection: collection, ID: id, Op: ChangeUpdated, At: now})
	return nil
}

// Delete implements Store
func (s *GormStore) Delete(ctx context.Context, collection, id string) error {
	result := s.session(ctx, collection).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&documentModel{})
	if result.Error != nil {
		return fmt.Errorf("delete document %s/%s: %w", collection, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}

	s.notify(ctx, Change{Collection: collection, ID: id, Op: ChangeDeleted, At: time.Now()})
	return nil
}

// Get implements Store
func (s *GormStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var m documentModel
	err := s.session(ctx, collection).
		Where("collection = ? AND id = ?", collection, id).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("get document %s/%s: %w", collection, id, err)
	}
	doc, err := m.toDocument()
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Query implements Store
func (s *GormStore) Query(ctx context.Context, collection string, q Query) (Snapshot, error) {
	if err := q.Validate(); err != nil {
		return Snapshot{}, err
	}

	tx, err := s.filtered(ctx, collection, q.Filters)
	if err != nil {
		return Snapshot{}, err
	}
	for _, o := range q.OrderBy {
		expr := s.dialect.field(o.Field)
		if o.Desc {
			expr += " DESC"
		}
		tx = tx.Order(expr)
	}
	tx = tx.Order("created_at").Order("id")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}

	var models []documentModel
	if err := tx.Find(&models).Error; err != nil {
		return Snapshot{}, fmt.Errorf("query %s: %w", collection, err)
	}

	docs := make([]Document, 0, len(models))
	for _, m := range models {
		doc, err := m.toDocument()
		if err != nil {
			return Snapshot{}, err
		}
		docs = append(docs, doc)
	}
	return Snapshot{Collection: collection, Documents: docs, ReadAt: time.Now()}, nil
}

// Count implements Store
func (s *GormStore) Count(ctx context.Context, collection string, filters ...Filter) (int64, error) {
	if err := (Query{Filters: filters}).Validate(); err != nil {
		return 0, err
	}
	tx, err := s.filtered(ctx, collection, filters)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

// Subscribe implements Store
func (s *GormStore) Subscribe(ctx context.Context, collection string, q Query, fn func(Snapshot)) (Subscription, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return startLiveQuery(ctx, s, s.notifier, collection, q, fn, s.logger)
}

func (s *GormStore) filtered(ctx context.Context, collection string, filters []Filter) (*gorm.DB, error) {
	tx := s.session(ctx, collection).Model(&documentModel{}).Where("collection = ?", collection)
	for _, f := range filters {
		cond, arg, err := s.dialect.condition(f)
		if err != nil {
			return nil, err
		}
		tx = tx.Where(cond, arg)
	}
	return tx, nil
}

// session tags statements with their collection under CollectionSetting
func (s *GormStore) session(ctx context.Context, collection string) *gorm.DB {
	return s.db.WithContext(ctx).Set(CollectionSetting, collection)
}

func (s *GormStore) notify(ctx context.Context, change Change) {
	if err := s.notifier.Notify(ctx, change); err != nil {
		s.logger.Warn("Failed to publish document change",
			zap.String("collection", change.Collection),
			zap.String("id", change.ID),
			zap.Error(err))
	}
}

// dialect renders JSON field access for a SQL backend. Field names are
// validated against fieldPattern before they reach field and condition.
// merge replaces whole top-level values: nested objects are not merged and
// null is stored as null.
type dialect interface {
	field(name string) string
	condition(f Filter) (string, any, error)
	merge(patch Fields) (string, []any, error)
}

func dialectFor(name string) (dialect, error) {
	switch name {
	case "postgres":
		return postgresDialect{}, nil
	case "sqlite":
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("docstore: unsupported database dialect %q", name)
	}
}

// postgresDialect compares jsonb values, which order numbers numerically and strings lexically
type postgresDialect struct{}

func (postgresDialect) field(name string) string {
	return "data->'" + name + "'"
}

func (d postgresDialect) condition(f Filter) (string, any, error) {
	if f.Op == OpPrefix {
		return "lower(data->>'" + f.Field + "') LIKE ? ESCAPE '\\'", likePrefix(f.Value.(string)), nil
	}
	raw, err := json.Marshal(normalize(f.Value))
	if err != nil {
		return "", nil, fmt.Errorf("encode filter value for %s: %w", f.Field, err)
	}
	return d.field(f.Field) + " " + sqlOp(f.Op) + " CAST(? AS jsonb)", string(raw), nil
}

func (postgresDialect) merge(patch Fields) (string, []any, error) {
	data, err := json.Marshal(patch)
	if err != nil {
		return "", nil, fmt.Errorf("marshal patch: %w", err)
	}
	return "data || CAST(? AS jsonb)", []any{string(data)}, nil
}

// sqliteDialect relies on json_extract returning native SQL values
type sqliteDialect struct{}

func (sqliteDialect) field(name string) string {
	return "json_extract(data, '$." + name + "')"
}

func (d sqliteDialect) condition(f Filter) (string, any, error) {
	if f.Op == OpPrefix {
		return "lower(" + d.field(f.Field) + ") LIKE ? ESCAPE '\\'", likePrefix(f.Value.(string)), nil
	}
	return d.field(f.Field) + " " + sqlOp(f.Op) + " ?", normalize(f.Value), nil
}

// merge uses json_set per key because json_patch merges objects
// recursively and drops keys set to null.
func (sqliteDialect) merge(patch Fields) (string, []any, error) {
	if len(patch) == 0 {
		return "data", nil, nil
	}
	keys := make([]string, 0, len(patch))
	for k := range patch {
		if strings.Contains(k, `"`) {
			return "", nil, shared.WrapDomainError(ErrInvalidQuery.Code, ErrInvalidQuery.Message,
				fmt.Errorf("field name %q cannot be updated", k))
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var expr strings.Builder
	expr.WriteString("json_set(data")
	args := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		raw, err := json.Marshal(patch[k])
		if err != nil {
			return "", nil, fmt.Errorf("marshal patch field %s: %w", k, err)
		}
		expr.WriteString(", ?, json(?)")
		args = append(args, `$."`+k+`"`, string(raw))
	}
	expr.WriteString(")")
	return expr.String(), args, nil
}

func sqlOp(op Op) string {
	if op == OpEq {
		return "="
	}
	if op == OpNe {
		return "<>"
	}
	return string(op)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePrefix(prefix string) string {
	return likeEscaper.Replace(strings.ToLower(prefix)) + "%"
}

var _ Store = (*GormStore)(nil)
var _ Store = (*MemoryStore)(nil)
