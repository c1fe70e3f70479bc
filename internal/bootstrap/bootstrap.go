// Package bootstrap wires configuration into the data sources, telemetry and
// report service shared by the server and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	reportapp "github.com/erp/orderstats/internal/application/report"
	"github.com/erp/orderstats/internal/domain/stats"
	"github.com/erp/orderstats/internal/infrastructure/cache"
	"github.com/erp/orderstats/internal/infrastructure/config"
	"github.com/erp/orderstats/internal/infrastructure/dataset"
	"github.com/erp/orderstats/internal/infrastructure/logger"
	"github.com/erp/orderstats/internal/infrastructure/persistence"
	"github.com/erp/orderstats/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Telemetry holds the OpenTelemetry providers for one process.
type Telemetry struct {
	Tracer *telemetry.TracerProvider
	Meter  *telemetry.MeterProvider
	Logs   *telemetry.LoggerProvider
}

// SetupTelemetry creates the trace, metric and log providers. All three are
// no-ops when telemetry is disabled.
func SetupTelemetry(ctx context.Context, cfg config.TelemetryConfig, log *zap.Logger) (*Telemetry, error) {
	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		SamplingRatio:     cfg.SamplingRatio,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	meter, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ExportInterval:    cfg.MetricsInterval,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}, log)
	if err != nil {
		_ = tracer.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logs, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}, log)
	if err != nil {
		_ = meter.Shutdown(ctx)
		_ = tracer.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize log export: %w", err)
	}

	return &Telemetry{Tracer: tracer, Meter: meter, Logs: logs}, nil
}

// Logger bridges base into the OTLP log pipeline for info and above.
func (t *Telemetry) Logger(base *zap.Logger) *zap.Logger {
	return t.Logs.Bridge(base, zapcore.InfoLevel)
}

// Shutdown flushes and stops every provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(
		t.Logs.Shutdown(ctx),
		t.Meter.Shutdown(ctx),
		t.Tracer.Shutdown(ctx),
	)
}

// OpenDatabase connects to the configured database with zap-backed GORM
// logging and, when telemetry is enabled, otelgorm tracing.
func OpenDatabase(cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		return nil, err
	}

	tracing := telemetry.DefaultDBTracingConfig()
	tracing.Enabled = cfg.Telemetry.Enabled
	tracing.LogFullSQL = cfg.App.Env == "development"
	if db.Driver() == "postgres" {
		tracing.DBSystem = "postgresql"
	}
	if err := telemetry.RegisterDBTracing(db.DB, tracing, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to register database tracing: %w", err)
	}
	return db, nil
}

// Source is an opened customer source. Close releases whatever it holds and
// Ping reports whether it is still usable.
type Source struct {
	reportapp.CustomerSource
	Name  string
	Close func() error
	Ping  func(ctx context.Context) error
}

// OpenSource opens the customer source selected by cfg.Dataset.
func OpenSource(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Source, error) {
	switch cfg.Dataset.Source {
	case config.DatasetSourceFile:
		fs, err := dataset.NewFileSource(cfg.Dataset.Path, log)
		if err != nil {
			return nil, err
		}
		return &Source{
			CustomerSource: fs,
			Name:           fs.Name(),
			Close:          func() error { return nil },
			Ping: func(context.Context) error {
				_, err := os.Stat(cfg.Dataset.Path)
				return err
			},
		}, nil

	case config.DatasetSourceGenerated:
		gen := dataset.NewGenerator(dataset.DefaultGeneratorConfig(uint64(cfg.Dataset.Seed), cfg.Dataset.Customers))
		log.Info("Using generated dataset",
			zap.Uint64("seed", gen.Seed()),
			zap.Int("customers", cfg.Dataset.Customers),
		)
		return &Source{
			CustomerSource: gen,
			Name:           gen.Name(),
			Close:          func() error { return nil },
			Ping:           func(context.Context) error { return nil },
		}, nil

	case config.DatasetSourceDatabase:
		db, err := OpenDatabase(cfg, log)
		if err != nil {
			return nil, err
		}
		repo := persistence.NewCustomerRepository(db.DB)
		if err := repo.AutoMigrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Source{
			CustomerSource: repo,
			Name:           repo.Name(),
			Close:          db.Close,
			Ping:           func(context.Context) error { return db.Ping() },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported dataset source %q", cfg.Dataset.Source)
	}
}

// ServiceConfig maps the stats settings onto the report service config.
func ServiceConfig(cfg config.StatsConfig) (reportapp.Config, error) {
	policy, err := stats.ParseDuplicatePolicy(cfg.DuplicatePolicy)
	if err != nil {
		return reportapp.Config{}, err
	}
	return reportapp.Config{
		AverageScale:    cfg.AverageScale,
		DuplicatePolicy: policy,
		PartitionSize:   cfg.PartitionSize,
		MaxConcurrency:  cfg.MaxConcurrency,
		SummaryCacheTTL: cfg.SummaryCacheTTL,
	}, nil
}

// NewStatsService builds the report service over src with metrics from meter
// and an optional summary cache.
func NewStatsService(cfg config.StatsConfig, src *Source, log *zap.Logger, meter *telemetry.MeterProvider, store cache.Store) (*reportapp.StatsService, error) {
	svcCfg, err := ServiceConfig(cfg)
	if err != nil {
		return nil, err
	}

	opts := []reportapp.Option{
		reportapp.WithConfig(svcCfg),
		reportapp.WithLogger(logger.Named(log, "stats")),
		reportapp.WithSourceName(src.Name),
	}
	if meter != nil {
		metrics, err := telemetry.NewReportMetrics(meter.Meter(telemetry.MeterName))
		if err != nil {
			return nil, fmt.Errorf("failed to register report metrics: %w", err)
		}
		opts = append(opts, reportapp.WithMetrics(metrics))
	}
	if store != nil && svcCfg.SummaryCacheTTL > 0 {
		opts = append(opts, reportapp.WithSummaryCache(store))
	}
	return reportapp.NewStatsService(src.CustomerSource, opts...), nil
}

// NewSummaryStore opens the summary cache when a TTL is configured.
// It returns cache.NopStore otherwise.
func NewSummaryStore(cfg *config.Config, log *zap.Logger) (cache.Store, error) {
	if cfg.Stats.SummaryCacheTTL <= 0 {
		return cache.NopStore{}, nil
	}
	return cache.NewStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore()
}

