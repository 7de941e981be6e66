package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestStartSpan_EndSpan(t *testing.T) {
	rec := installRecorder(t)

	ctx, span := StartSpan(context.Background(), "checkout", AttrPaymentMethod.String("cash"))
	assert.NotEmpty(t, TraceID(ctx))
	EndSpan(span, errors.New("write failed"))

	_, ok := StartSpan(context.Background(), "ok")
	EndSpan(ok, nil)

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "checkout", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, codes.Ok, ended[1].Status().Code)
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

type tracedRow struct {
	ID   uint
	Name string
}

func TestRegisterDBTracing_FlagsSlowQueries(t *testing.T) {
	rec := installRecorder(t)
	core, logs := observer.New(zap.WarnLevel)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	require.NoError(t, db.AutoMigrate(&tracedRow{}))

	require.NoError(t, RegisterDBTracing(db, "sqlite", time.Nanosecond, zap.New(core)))

	ctx, parent := StartSpan(context.Background(), "checkout")
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "x"}).Error)
	var got []tracedRow
	require.NoError(t, db.WithContext(ctx).Find(&got).Error)
	EndSpan(parent, nil)

	assert.GreaterOrEqual(t, logs.FilterMessage("Slow document store query").Len(), 2)

	slow := 0
	for _, span := range rec.Ended() {
		for _, kv := range span.Attributes() {
			if kv.Key == "db.slow_query" && kv.Value.AsBool() {
				slow++
			}
		}
	}
	assert.GreaterOrEqual(t, slow, 2, "statement spans carry the slow query flag")
}

func TestRegisterDBTracing_FastQueriesNotFlagged(t *testing.T) {
	installRecorder(t)
	core, logs := observer.New(zap.WarnLevel)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	require.NoError(t, db.AutoMigrate(&tracedRow{}))

	require.NoError(t, RegisterDBTracing(db, "sqlite", time.Hour, zap.New(core)))
	require.NoError(t, db.Create(&tracedRow{Name: "x"}).Error)

	assert.Zero(t, logs.FilterMessage("Slow document store query").Len())
}
