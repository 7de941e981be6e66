package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AttrDBCollection labels document store queries with their collection
var AttrDBCollection = attribute.Key("db.collection")

const metricsStartKey = "pos:metrics_start"

// DBMetricsConfig holds configuration for document store metrics
type DBMetricsConfig struct {
	// SlowQueryThreshold defaults to DefaultSlowQueryThreshold
	SlowQueryThreshold time.Duration
	// CollectionSetting names the gorm statement setting carrying the
	// document collection. Empty leaves queries unlabelled.
	CollectionSetting string
}

// PoolStats reports the connection pool state, usually (*sql.DB).Stats
type PoolStats func() sql.DBStats

// DBMetrics holds the query and connection pool instruments
type DBMetrics struct {
	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter

	poolConnections    metric.Int64ObservableGauge
	poolConnectionsMax metric.Int64ObservableGauge
	poolWaitTotal      metric.Int64ObservableCounter
	registration       metric.Registration

	config   DBMetricsConfig
	logger   *zap.Logger
	stopOnce sync.Once
}

// NewDBMetrics creates the instruments. Pool gauges are observed from stats
// on every collection; a nil stats skips them.
func NewDBMetrics(meter metric.Meter, stats PoolStats, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if meter == nil {
		return nil, &MetricsError{Op: "NewDBMetrics", Err: "meter cannot be nil"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = DefaultSlowQueryThreshold
	}

	m := &DBMetrics{config: cfg, logger: logger}
	var err error
	if m.queryTotal, err = NewCounter(meter, "db_query_total",
		"Document store queries by operation", "{query}"); err != nil {
		return nil, err
	}
	if m.queryDuration, err = NewHistogram(meter, "db_query_duration_seconds",
		"Document store query latency", "s", dbDurationBuckets); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total",
		"Document store queries slower than the slow query threshold", "{query}"); err != nil {
		return nil, err
	}

	if stats == nil {
		return m, nil
	}
	if m.poolConnections, err = meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}")); err != nil {
		return nil, fmt.Errorf("failed to create gauge db_pool_connections: %w", err)
	}
	if m.poolConnectionsMax, err = meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections allowed"),
		metric.WithUnit("{connection}")); err != nil {
		return nil, fmt.Errorf("failed to create gauge db_pool_connections_max: %w", err)
	}
	if m.poolWaitTotal, err = meter.Int64ObservableCounter("db_pool_wait_total",
		metric.WithDescription("Connection requests that had to wait for a free connection"),
		metric.WithUnit("{wait}")); err != nil {
		return nil, fmt.Errorf("failed to create counter db_pool_wait_total: %w", err)
	}

	m.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := stats()
		o.ObserveInt64(m.poolConnectionsMax, int64(s.MaxOpenConnections))
		o.ObserveInt64(m.poolConnections, int64(s.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(m.poolConnections, int64(s.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(m.poolConnections, int64(s.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
		o.ObserveInt64(m.poolWaitTotal, s.WaitCount)
		return nil
	}, m.poolConnections, m.poolConnectionsMax, m.poolWaitTotal)
	if err != nil {
		return nil, fmt.Errorf("failed to register pool stats callback: %w", err)
	}
	return m, nil
}

// RecordQuery records one statement. Operation is normalised to upper case.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table, collection string, took time.Duration) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "UNKNOWN"
	}
	if table == "" {
		table = "unknown"
	}
	attrs := []attribute.KeyValue{AttrDBOperation.String(operation), AttrDBTable.String(table)}
	if collection != "" {
		attrs = append(attrs, AttrDBCollection.String(collection))
	}

	m.queryTotal.Inc(ctx, attrs...)
	m.queryDuration.RecordDuration(ctx, took, attrs...)
	if took > m.config.SlowQueryThreshold {
		m.slowQueryTotal.Inc(ctx, attrs...)
	}
}

// Stop unregisters the pool callback. Safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		if m.registration == nil {
			return
		}
		if err := m.registration.Unregister(); err != nil {
			m.logger.Warn("Failed to unregister pool stats callback", zap.Error(err))
		}
	})
}

// DBMetricsPlugin is a gorm plugin feeding DBMetrics from statement callbacks
type DBMetricsPlugin struct {
	metrics *DBMetrics
}

// NewDBMetricsPlugin creates the plugin
func NewDBMetricsPlugin(metrics *DBMetrics) *DBMetricsPlugin {
	return &DBMetricsPlugin{metrics: metrics}
}

// Name implements gorm.Plugin
func (p *DBMetricsPlugin) Name() string {
	return "pos:db_metrics"
}

// Initialize implements gorm.Plugin
func (p *DBMetricsPlugin) Initialize(db *gorm.DB) error {
	start := func(tx *gorm.DB) {
		tx.InstanceSet(metricsStartKey, time.Now())
	}
	fixed := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) { p.record(tx, op) }
	}
	detected := func(tx *gorm.DB) {
		p.record(tx, detectOperation(tx.Statement.SQL.String()))
	}

	cb := db.Callback()
	regs := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("pos:metrics_before_create", start) },
		func() error { return cb.Create().After("gorm:create").Register("pos:metrics_after_create", fixed("INSERT")) },
		func() error { return cb.Query().Before("gorm:query").Register("pos:metrics_before_query", start) },
		func() error { return cb.Query().After("gorm:query").Register("pos:metrics_after_query", fixed("SELECT")) },
		func() error { return cb.Update().Before("gorm:update").Register("pos:metrics_before_update", start) },
		func() error { return cb.Update().After("gorm:update").Register("pos:metrics_after_update", fixed("UPDATE")) },
		func() error { return cb.Delete().Before("gorm:delete").Register("pos:metrics_before_delete", start) },
		func() error { return cb.Delete().After("gorm:delete").Register("pos:metrics_after_delete", fixed("DELETE")) },
		func() error { return cb.Row().Before("gorm:row").Register("pos:metrics_before_row", start) },
		func() error { return cb.Row().After("gorm:row").Register("pos:metrics_after_row", detected) },
		func() error { return cb.Raw().Before("gorm:raw").Register("pos:metrics_before_raw", start) },
		func() error { return cb.Raw().After("gorm:raw").Register("pos:metrics_after_raw", detected) },
	}
	for _, reg := range regs {
		if err := reg(); err != nil {
			return err
		}
	}
	return nil
}

func (p *DBMetricsPlugin) record(tx *gorm.DB, operation string) {
	v, ok := tx.InstanceGet(metricsStartKey)
	if !ok {
		return
	}
	startedAt, ok := v.(time.Time)
	if !ok {
		return
	}

	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	var collection string
	if key := p.metrics.config.CollectionSetting; key != "" {
		if c, ok := tx.Get(key); ok {
			collection, _ = c.(string)
		}
	}
	p.metrics.RecordQuery(ctx, operation, tx.Statement.Table, collection, time.Since(startedAt))
}

func detectOperation(query string) string {
	query = strings.ToUpper(strings.TrimSpace(query))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(query, op) {
			return op
		}
	}
	return "OTHER"
}

// RegisterDBMetrics installs the metrics plugin on db and observes its pool.
// Call Stop on the result at shutdown.
func RegisterDBMetrics(db *gorm.DB, meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	metrics, err := NewDBMetrics(meter, sqlDB.Stats, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Use(NewDBMetricsPlugin(metrics)); err != nil {
		metrics.Stop()
		return nil, err
	}

	logger.Info("Database metrics enabled",
		zap.Duration("slow_query_threshold", metrics.config.SlowQueryThreshold))
	return metrics, nil
}
