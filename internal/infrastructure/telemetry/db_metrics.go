package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
)

// DBMetrics holds the database client instruments.
type DBMetrics struct {
	meter          metric.Meter
	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter

	poolConnections metric.Int64ObservableGauge
	poolMax         metric.Int64ObservableGauge
	poolWaitCount   metric.Int64ObservableCounter

	mu           sync.Mutex
	registration metric.Registration
}

// NewDBMetrics creates the database instruments on meter.
func NewDBMetrics(meter metric.Meter) (*DBMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	m := &DBMetrics{meter: meter}
	var err error

	if m.queryTotal, err = NewCounter(meter, "db_query_total",
		"Database queries by operation, table and status", "{query}"); err != nil {
		return nil, err
	}
	if m.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total",
		"Queries slower than the configured threshold", "{query}"); err != nil {
		return nil, err
	}
	if m.poolConnections, err = meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}")); err != nil {
		return nil, fmt.Errorf("failed to create gauge db_pool_connections: %w", err)
	}
	if m.poolMax, err = meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"),
		metric.WithUnit("{connection}")); err != nil {
		return nil, fmt.Errorf("failed to create gauge db_pool_connections_max: %w", err)
	}
	if m.poolWaitCount, err = meter.Int64ObservableCounter("db_pool_wait_total",
		metric.WithDescription("Connections waited for"),
		metric.WithUnit("{wait}")); err != nil {
		return nil, fmt.Errorf("failed to create counter db_pool_wait_total: %w", err)
	}
	return m, nil
}

// RecordQuery records one finished statement.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, d time.Duration, slow bool, err error) {
	status := "ok"
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		status = "error"
	}
	attrs := []attribute.KeyValue{AttrDBOperation.String(operation), AttrDBTable.String(table)}

	m.queryTotal.Inc(ctx, append(attrs, attribute.String("status", status))...)
	m.queryDuration.RecordDuration(ctx, d, attrs...)
	if slow {
		m.slowQueryTotal.Inc(ctx, attrs...)
	}
}

// ObservePool reports sql.DB pool statistics on every collection.
// Calling it again replaces the previously observed pool.
func (m *DBMetrics) ObservePool(db *sql.DB) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registration != nil {
		if err := m.registration.Unregister(); err != nil {
			return err
		}
		m.registration = nil
	}

	reg, err := m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := db.Stats()
		o.ObserveInt64(m.poolConnections, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(m.poolConnections, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(m.poolMax, int64(stats.MaxOpenConnections))
		o.ObserveInt64(m.poolWaitCount, stats.WaitCount)
		return nil
	}, m.poolConnections, m.poolMax, m.poolWaitCount)
	if err != nil {
		return fmt.Errorf("failed to register pool stats callback: %w", err)
	}
	m.registration = reg
	return nil
}

// Stop stops observing the pool. It is safe to call more than once.
func (m *DBMetrics) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registration == nil {
		return nil
	}
	err := m.registration.Unregister()
	m.registration = nil
	return err
}
