package looper

import (
	"github.com/ethereum-optimism/infra/op-looper/engine"
	"github.com/ethereum-optimism/infra/op-looper/metrics"
)

// MetricsReporter is responsible for reporting metrics from run summaries.
type MetricsReporter interface {
	ReportResults(suite string, summary *engine.Summary)
}

// DefaultMetricsReporter implements the MetricsReporter interface.
type DefaultMetricsReporter struct{}

// NewDefaultMetricsReporter creates a new DefaultMetricsReporter.
func NewDefaultMetricsReporter() *DefaultMetricsReporter {
	return &DefaultMetricsReporter{}
}

// ReportResults reports the run summary to metrics systems.
func (r *DefaultMetricsReporter) ReportResults(suite string, summary *engine.Summary) {
	metrics.RecordRun(suite, summary.Passed, summary.Failed, summary.Pending, summary.Duration)
}
