package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database observability.
type DBTracingConfig struct {
	TracingEnabled  bool          // register otelgorm spans
	LogFullSQL      bool          // keep query variables in span statements (dev only)
	SlowQueryThresh time.Duration // queries slower than this are flagged and counted
	DBName          string
}

// DefaultDBTracingConfig returns the production-safe defaults.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBName:          "pricing",
	}
}

// DBPlugin is a gorm.Plugin adding otelgorm spans, slow query flags and,
// when metrics are supplied, per-query metrics and pool statistics.
type DBPlugin struct {
	config  DBTracingConfig
	metrics *DBMetrics
	logger  *zap.Logger
}

// NewDBPlugin creates the plugin; metrics may be nil.
func NewDBPlugin(cfg DBTracingConfig, metrics *DBMetrics, logger *zap.Logger) *DBPlugin {
	if cfg.SlowQueryThresh == 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBPlugin{config: cfg, metrics: metrics, logger: logger}
}

// Name implements gorm.Plugin.
func (p *DBPlugin) Name() string {
	return "pricing:db_observability"
}

// Initialize implements gorm.Plugin.
func (p *DBPlugin) Initialize(db *gorm.DB) error {
	if p.config.TracingEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBName)}
		if !p.config.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	if err := p.registerCallbacks(db); err != nil {
		return err
	}

	if p.metrics != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := p.metrics.ObservePool(sqlDB); err != nil {
			return err
		}
	}

	p.logger.Info("Database observability registered",
		zap.Bool("tracing", p.config.TracingEnabled),
		zap.Bool("metrics", p.metrics != nil),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

type queryStartKey struct{}

func (p *DBPlugin) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (p *DBPlugin) afterFor(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		op := operation
		if op == "" {
			op = detectOperationType(db.Statement.SQL.String())
		}

		var elapsed time.Duration
		if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
			elapsed = time.Since(start)
		}
		slow := elapsed > p.config.SlowQueryThresh

		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.SetAttributes(
				attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
				attribute.String("db.sql.table", db.Statement.Table),
			)
			if slow {
				span.SetAttributes(attribute.Bool("db.slow_query", true))
				span.AddEvent("slow_query", trace.WithAttributes(
					attribute.Int64("duration_ms", elapsed.Milliseconds()),
					attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
				))
			}
		}

		if p.metrics != nil {
			p.metrics.RecordQuery(ctx, op, db.Statement.Table, elapsed, slow, db.Error)
		}
	}
}

func (p *DBPlugin) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("pricing_db:before_create", p.before),
		cb.Query().Before("gorm:query").Register("pricing_db:before_query", p.before),
		cb.Update().Before("gorm:update").Register("pricing_db:before_update", p.before),
		cb.Delete().Before("gorm:delete").Register("pricing_db:before_delete", p.before),
		cb.Row().Before("gorm:row").Register("pricing_db:before_row", p.before),
		cb.Raw().Before("gorm:raw").Register("pricing_db:before_raw", p.before),

		cb.Create().After("gorm:create").Register("pricing_db:after_create", p.afterFor("INSERT")),
		cb.Query().After("gorm:query").Register("pricing_db:after_query", p.afterFor("SELECT")),
		cb.Update().After("gorm:update").Register("pricing_db:after_update", p.afterFor("UPDATE")),
		cb.Delete().After("gorm:delete").Register("pricing_db:after_delete", p.afterFor("DELETE")),
		cb.Row().After("gorm:row").Register("pricing_db:after_row", p.afterFor("")),
		cb.Raw().After("gorm:raw").Register("pricing_db:after_raw", p.afterFor("")),
	)
}

// detectOperationType derives the SQL verb for raw statements.
func detectOperationType(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, verb) {
			return verb
		}
	}
	return "OTHER"
}

var _ gorm.Plugin = (*DBPlugin)(nil)
