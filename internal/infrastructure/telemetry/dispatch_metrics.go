package telemetry

import (
	"context"
	"time"

	"github.com/erp/reportdispatch/internal/domain/report"
	"go.opentelemetry.io/otel/metric"
)

// DispatchMetrics records dispatch outcomes and durations
type DispatchMetrics struct {
	outcomes         *Counter
	itemFailures     *Counter
	scheduleDuration *Histogram
	runDuration      *Histogram
	lastRunActive    *Gauge
	lastRunSent      *Gauge
}

// NewDispatchMetrics registers the dispatch instruments on meter
func NewDispatchMetrics(meter metric.Meter) (*DispatchMetrics, error) {
	var (
		m   DispatchMetrics
		err error
	)
	if m.outcomes, err = NewCounter(meter, "report_dispatch_outcomes_total",
		"Schedules evaluated by the dispatcher, by outcome", "{schedule}"); err != nil {
		return nil, err
	}
	if m.itemFailures, err = NewCounter(meter, "report_dispatch_item_failures_total",
		"Report items that failed to render", "{item}"); err != nil {
		return nil, err
	}
	if m.scheduleDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "report_dispatch_schedule_duration_seconds",
		Description: "Time spent processing one schedule",
		Unit:        "s",
		Boundaries:  ScheduleDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.runDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "report_dispatch_run_duration_seconds",
		Description: "Time spent on a whole dispatch run",
		Unit:        "s",
		Boundaries:  RunDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.lastRunActive, err = NewGauge(meter, "report_dispatch_last_run_active",
		"Active schedules seen by the last run", "{schedule}"); err != nil {
		return nil, err
	}
	if m.lastRunSent, err = NewGauge(meter, "report_dispatch_last_run_sent",
		"Schedules sent by the last run", "{schedule}"); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordOutcome counts one schedule outcome and its processing time
func (m *DispatchMetrics) RecordOutcome(ctx context.Context, kind report.OutcomeKind, d time.Duration) {
	m.outcomes.Inc(ctx, AttrOutcome.String(string(kind)))
	m.scheduleDuration.RecordDuration(ctx, d, AttrOutcome.String(string(kind)))
}

// RecordItemFailure counts a report item that could not be rendered
func (m *DispatchMetrics) RecordItemFailure(ctx context.Context, reportType report.ReportType, code string) {
	m.itemFailures.Inc(ctx, AttrReportType.String(string(reportType)), AttrErrorCode.String(code))
}

// RecordRun records the totals of a finished run
func (m *DispatchMetrics) RecordRun(ctx context.Context, summary *report.Summary, d time.Duration) {
	m.runDuration.RecordDuration(ctx, d)
	m.lastRunActive.Record(ctx, int64(summary.TotalActive))
	m.lastRunSent.Record(ctx, int64(summary.SentCount))
}
