package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the meter used for report metrics
const MeterName = "orderstats"

// ErrMeterNil is returned when a metrics constructor receives a nil meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Report outcomes
const (
	OutcomeSuccess = "success"
	OutcomeNoData  = "no_data"
	OutcomeError   = "error"
)

// ReportMetrics tracks report executions, their latency, dataset loads and summary cache use.
type ReportMetrics struct {
	reportTotal     *Counter
	reportDuration  *Histogram
	customersLoaded *Counter
	cacheLookups    *Counter
}

// NewReportMetrics registers the report instruments on meter.
func NewReportMetrics(meter metric.Meter) (*ReportMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		rm  ReportMetrics
		err error
	)

	rm.reportTotal, err = NewCounter(meter,
		"orderstats_report_total",
		"Total number of report executions",
		"{reports}",
	)
	if err != nil {
		return nil, err
	}

	rm.reportDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "orderstats_report_duration_seconds",
		Description: "Report execution latency",
		Unit:        "s",
		Boundaries:  ReportDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	rm.customersLoaded, err = NewCounter(meter,
		"orderstats_customers_loaded_total",
		"Customers materialized from the data source",
		"{customers}",
	)
	if err != nil {
		return nil, err
	}

	rm.cacheLookups, err = NewCounter(meter,
		"orderstats_summary_cache_lookups_total",
		"Summary cache lookups by result",
		"{lookups}",
	)
	if err != nil {
		return nil, err
	}

	return &rm, nil
}

// RecordReport records one report execution.
func (m *ReportMetrics) RecordReport(ctx context.Context, report, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrReport.String(report), AttrOutcome.String(outcome)}
	m.reportTotal.Inc(ctx, attrs...)
	m.reportDuration.RecordDuration(ctx, d, attrs...)
}

// RecordCustomersLoaded records how many customers a source produced.
func (m *ReportMetrics) RecordCustomersLoaded(ctx context.Context, source string, n int) {
	if m == nil {
		return
	}
	m.customersLoaded.Add(ctx, int64(n), AttrSource.String(source))
}

// RecordCacheLookup records a summary cache hit or miss.
func (m *ReportMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Inc(ctx, AttrCache.String(result))
}
