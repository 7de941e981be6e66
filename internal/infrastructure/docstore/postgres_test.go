package docstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockPostgresStore(t *testing.T) (*GormStore, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	store, err := NewGormStore(gormDB, NewChangeHub(), zap.NewNop())
	require.NoError(t, err)
	return store, mock, mockDB
}

func TestGormStore_Postgres_Update(t *testing.T) {
	t.Run("merges jsonb patch", func(t *testing.T) {
		store, mock, mockDB := newMockPostgresStore(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "documents" SET "data"=data \|\| CAST\(\$1 AS jsonb\),"updated_at"=\$2 WHERE collection = \$3 AND id = \$4`).
			WithArgs(`{"quantity":7}`, sqlmock.AnyArg(), "products", "p1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.Update(context.Background(), "products", "p1", Fields{"quantity": 7, "id": "ignored"})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when no row matched", func(t *testing.T) {
		store, mock, mockDB := newMockPostgresStore(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "documents"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.Update(context.Background(), "products", "missing", Fields{"quantity": 1})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormStore_Postgres_Query(t *testing.T) {
	store, mock, mockDB := newMockPostgresStore(t)
	defer mockDB.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"collection", "id", "data", "created_at", "updated_at"}).
		AddRow("products", "p2", `{"id":"p2","name":"Banana","quantity":2}`, now, now)

	mock.ExpectQuery(`SELECT \* FROM "documents" WHERE collection = \$1 AND data->'quantity' <= CAST\(\$2 AS jsonb\) AND lower\(data->>'name'\) LIKE \$3 ESCAPE '\\' ORDER BY data->'quantity' DESC,created_at,id`).
		WithArgs("products", "2", "b%").
		WillReturnRows(rows)

	snap, err := store.Query(context.Background(), "products", Query{
		Filters: []Filter{Where("quantity", OpLte, 2), Where("name", OpPrefix, "B")},
		OrderBy: []Order{{Field: "quantity", Desc: true}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, snap.Len())
	assert.Equal(t, "Banana", snap.Documents[0].Fields["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_Postgres_Get(t *testing.T) {
	store, mock, mockDB := newMockPostgresStore(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "documents" WHERE collection = \$1 AND id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"collection", "id", "data", "created_at", "updated_at"}))

	_, err := store.Get(context.Background(), "products", "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormStore_Postgres_DeleteNotifies(t *testing.T) {
	store, mock, mockDB := newMockPostgresStore(t)
	defer mockDB.Close()

	var got []Change
	unlisten := store.notifier.Listen("products", func(c Change) { got = append(got, c) })
	defer unlisten()

	mock.ExpectExec(`DELETE FROM "documents" WHERE collection = \$1 AND id = \$2`).
		WithArgs("products", "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Delete(context.Background(), "products", "p1"))
	require.Len(t, got, 1)
	assert.Equal(t, ChangeDeleted, got[0].Op)
	assert.Equal(t, "p1", got[0].ID)
}

func TestNewGormStore_UnsupportedDialect(t *testing.T) {
	_, err := dialectFor("mysql")
	assert.Error(t, err)
}

func TestLikePrefix_EscapesWildcards(t *testing.T) {
	assert.Equal(t, `50\%\_off%`, likePrefix("50%_OFF"))
}
