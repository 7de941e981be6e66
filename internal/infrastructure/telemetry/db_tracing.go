package telemetry

import (
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultSlowQueryThreshold marks document store queries slower than this
const DefaultSlowQueryThreshold = 200 * time.Millisecond

const queryStartKey = "pos:query_start"

// RegisterDBTracing installs the otelgorm plugin plus a callback that flags
// slow document store statements on the span and in the log.
func RegisterDBTracing(db *gorm.DB, dbSystem string, slowThreshold time.Duration, logger *zap.Logger) error {
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowQueryThreshold
	}
	// The start time lives on the statement instance because otelgorm swaps
	// Statement.Context for its span context and restores the parent in its
	// after hook. Callbacks with the same anchor run in registration order, so
	// registering ours before the plugin keeps the span current in finish.
	start := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	finish := func(tx *gorm.DB) {
		observeQuery(tx, slowThreshold, logger)
	}

	cb := db.Callback()
	regs := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("pos:before_create", start) },
		func() error { return cb.Create().After("gorm:create").Register("pos:after_create", finish) },
		func() error { return cb.Query().Before("gorm:query").Register("pos:before_query", start) },
		func() error { return cb.Query().After("gorm:query").Register("pos:after_query", finish) },
		func() error { return cb.Update().Before("gorm:update").Register("pos:before_update", start) },
		func() error { return cb.Update().After("gorm:update").Register("pos:after_update", finish) },
		func() error { return cb.Delete().Before("gorm:delete").Register("pos:before_delete", start) },
		func() error { return cb.Delete().After("gorm:delete").Register("pos:after_delete", finish) },
		func() error { return cb.Raw().Before("gorm:raw").Register("pos:before_raw", start) },
		func() error { return cb.Raw().After("gorm:raw").Register("pos:after_raw", finish) },
	}
	for _, reg := range regs {
		if err := reg(); err != nil {
			return err
		}
	}
	if err := db.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName(dbSystem),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", dbSystem),
		zap.Duration("slow_query_threshold", slowThreshold))
	return nil
}

// queryElapsed returns the time since the statement's start callback ran
func queryElapsed(tx *gorm.DB) (time.Duration, bool) {
	v, ok := tx.InstanceGet(queryStartKey)
	if !ok {
		return 0, false
	}
	startedAt, ok := v.(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(startedAt), true
}

func observeQuery(tx *gorm.DB, threshold time.Duration, logger *zap.Logger) {
	elapsed, ok := queryElapsed(tx)
	if !ok {
		return
	}

	var span trace.Span
	if ctx := tx.Statement.Context; ctx != nil {
		span = trace.SpanFromContext(ctx)
	}
	recording := span != nil && span.IsRecording()
	if recording {
		span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
		if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			span.RecordError(tx.Error)
		}
	}
	if elapsed <= threshold {
		return
	}
	if recording {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
	logger.Warn("Slow document store query",
		zap.String("table", tx.Statement.Table),
		zap.Duration("elapsed", elapsed),
		zap.Duration("threshold", threshold))
}
