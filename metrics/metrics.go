package metrics

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethereum-optimism/infra/op-looper/engine"
	"github.com/ethereum-optimism/infra/op-looper/runner"
	"github.com/ethereum-optimism/infra/op-looper/types"
)

const (
	MetricsNamespace = "looper"
)

var (
	Debug                bool = true
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	iterationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "iterations_total",
		Help:      "Count of example iterations by status",
	}, []string{
		"status",
	})

	iterationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "iteration_duration_seconds",
		Help:      "Duration of a single example iteration",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{
		"status",
	})

	examplesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "examples_total",
		Help:      "Count of examples by aggregate status",
	}, []string{
		"status",
	})

	flakyExamplesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "flaky_examples_total",
		Help:      "Count of examples whose iterations did not all share one status",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Example counts of the most recent run",
	}, []string{
		"suite",
		"status",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of the most recent run",
	}, []string{
		"suite",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordIteration(status types.Status, duration time.Duration) {
	if !status.Valid() {
		log.Error("RecordIteration - invalid status", "status", status)
		return
	}
	iterationsTotal.WithLabelValues(string(status)).Inc()
	iterationDuration.WithLabelValues(string(status)).Observe(duration.Seconds())
}

func RecordExample(status types.Status, flaky bool) {
	if !status.Valid() {
		log.Error("RecordExample - invalid status", "status", status)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "examples_total",
			"status", status,
			"flaky", flaky)
	}
	examplesTotal.WithLabelValues(string(status)).Inc()
	if flaky {
		flakyExamplesTotal.Inc()
	}
}

func RecordRun(suite string, passed, failed, pending int, duration time.Duration) {
	runResults.WithLabelValues(suite, string(types.StatusPassed)).Set(float64(passed))
	runResults.WithLabelValues(suite, string(types.StatusFailed)).Set(float64(failed))
	runResults.WithLabelValues(suite, string(types.StatusPending)).Set(float64(pending))
	runDuration.WithLabelValues(suite).Set(duration.Seconds())
}

// Listener records iteration and example metrics from notifications
type Listener struct{}

// Register subscribes the listener to the notifications it records
func (l Listener) Register(r *engine.Reporter) {
	r.Register(l, runner.KindIterationFinished, engine.KindExampleFinished)
}

// Notify implements engine.Listener
func (l Listener) Notify(kind engine.Kind, n engine.Notification) {
	switch n := n.(type) {
	case runner.IterationNotification:
		if kind == runner.KindIterationFinished {
			RecordIteration(n.Result.Status, n.Result.RunTime)
		}
	case engine.ExampleNotification:
		if kind == engine.KindExampleFinished {
			RecordExample(n.Example.ExecutionResult().Status, IsFlaky(n.Example.Metadata.LoopResults))
		}
	}
}

// IsFlaky reports whether the iterations disagree on their status
func IsFlaky(results []types.ExecutionResult) bool {
	for _, r := range results[min(1, len(results)):] {
		if r.Status != results[0].Status {
			return true
		}
	}
	return false
}
