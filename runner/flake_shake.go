package runner

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-looper/engine"
	"github.com/ethereum-optimism/infra/op-looper/types"
)

const (
	RecommendationStable   = "STABLE"
	RecommendationUnstable = "UNSTABLE"
	RecommendationSkipped  = "SKIPPED"

	maxFailureLogs = 5
)

// FlakeShakeResult represents aggregated iterations of one example
type FlakeShakeResult struct {
	ExampleID      string        `json:"example_id"`
	Description    string        `json:"description"`
	TotalRuns      int           `json:"total_runs"`
	Passes         int           `json:"passes"`
	Failures       int           `json:"failures"`
	Pending        int           `json:"pending"`
	PassRate       float64       `json:"pass_rate"`
	AvgDuration    time.Duration `json:"avg_duration"`
	MinDuration    time.Duration `json:"min_duration"`
	MaxDuration    time.Duration `json:"max_duration"`
	Sequence       string        `json:"sequence"`
	FailureLogs    []string      `json:"failure_logs,omitempty"`
	Recommendation string        `json:"recommendation"`
}

// FlakeShakeReport contains the stability analysis of a run
type FlakeShakeReport struct {
	Date        string             `json:"date"`
	Suite       string             `json:"suite"`
	TotalRuns   int                `json:"total_runs"`
	Examples    []FlakeShakeResult `json:"examples"`
	GeneratedAt time.Time          `json:"generated_at"`
	RunID       string             `json:"run_id"`
}

// Unstable returns the examples that did not pass every executed iteration
func (r *FlakeShakeReport) Unstable() []FlakeShakeResult {
	var unstable []FlakeShakeResult
	for _, ex := range r.Examples {
		if ex.Recommendation == RecommendationUnstable {
			unstable = append(unstable, ex)
		}
	}
	return unstable
}

// FlakeShakeCollector listens to finished iterations and builds a FlakeShakeReport
type FlakeShakeCollector struct {
	log log.Logger

	mu           sync.Mutex
	order        []string
	descriptions map[string]string
	results      map[string][]types.ExecutionResult
}

// NewFlakeShakeCollector creates an empty collector
func NewFlakeShakeCollector(logger log.Logger) *FlakeShakeCollector {
	if logger == nil {
		logger = log.New()
	}
	return &FlakeShakeCollector{
		log:          logger,
		descriptions: make(map[string]string),
		results:      make(map[string][]types.ExecutionResult),
	}
}

// Register subscribes the collector to iteration notifications
func (c *FlakeShakeCollector) Register(r *engine.Reporter) {
	r.Register(c, KindIterationFinished)
}

// Notify implements engine.Listener
func (c *FlakeShakeCollector) Notify(kind engine.Kind, n engine.Notification) {
	if kind != KindIterationFinished {
		return
	}
	it, ok := n.(IterationNotification)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := it.Example.ID
	if _, seen := c.results[id]; !seen {
		c.order = append(c.order, id)
		c.descriptions[id] = it.Example.FullDescription()
	}
	c.results[id] = append(c.results[id], it.Result)
}

// Report aggregates everything collected so far
func (c *FlakeShakeCollector) Report(suite, runID string) *FlakeShakeReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	report := &FlakeShakeReport{
		Date:        now.Format("2006-01-02"),
		Suite:       suite,
		GeneratedAt: now,
		RunID:       runID,
	}

	for _, id := range c.order {
		result := summarize(id, c.descriptions[id], c.results[id])
		report.Examples = append(report.Examples, result)
		report.TotalRuns += result.TotalRuns
	}

	c.log.Debug("Generated flake-shake report", "examples", len(report.Examples), "runs", report.TotalRuns)
	return report
}

var sequenceGlyphs = map[types.Status]byte{
	types.StatusPassed:  '.',
	types.StatusPending: '*',
	types.StatusFailed:  'F',
}

func summarize(id, description string, iterations []types.ExecutionResult) FlakeShakeResult {
	result := FlakeShakeResult{
		ExampleID:   id,
		Description: description,
		TotalRuns:   len(iterations),
	}

	var totalDuration time.Duration
	sequence := make([]byte, 0, len(iterations))
	for i, it := range iterations {
		switch it.Status {
		case types.StatusPassed:
			result.Passes++
		case types.StatusFailed:
			result.Failures++
			if len(result.FailureLogs) < maxFailureLogs && it.Exception != nil {
				result.FailureLogs = append(result.FailureLogs, fmt.Sprintf("iteration %d: %s", i+1, it.Exception))
			}
		case types.StatusPending:
			result.Pending++
		}
		sequence = append(sequence, sequenceGlyphs[it.Status])

		totalDuration += it.RunTime
		if i == 0 || it.RunTime < result.MinDuration {
			result.MinDuration = it.RunTime
		}
		if it.RunTime > result.MaxDuration {
			result.MaxDuration = it.RunTime
		}
	}
	result.Sequence = string(sequence)

	if result.TotalRuns > 0 {
		result.AvgDuration = totalDuration / time.Duration(result.TotalRuns)
	}

	executed := result.Passes + result.Failures
	switch {
	case executed == 0:
		result.Recommendation = RecommendationSkipped
	case result.Failures == 0:
		result.PassRate = 100
		result.Recommendation = RecommendationStable
	default:
		result.PassRate = float64(result.Passes) / float64(executed) * 100
		result.Recommendation = RecommendationUnstable
	}
	return result
}

// SaveFlakeShakeReport saves the report in both JSON and HTML formats
func SaveFlakeShakeReport(report *FlakeShakeReport, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory %s: %w", outputDir, err)
	}

	var savedFiles []string
	var errs []error

	jsonFilename := filepath.Join(outputDir, "flake-shake-report.json")
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to marshal JSON: %w", err))
	} else if err := os.WriteFile(jsonFilename, data, 0644); err != nil {
		errs = append(errs, fmt.Errorf("failed to write JSON file: %w", err))
	} else {
		savedFiles = append(savedFiles, jsonFilename)
	}

	htmlFilename := filepath.Join(outputDir, "flake-shake-report.html")
	if err := saveHTMLReport(report, htmlFilename); err != nil {
		errs = append(errs, fmt.Errorf("failed to save HTML report: %w", err))
	} else {
		savedFiles = append(savedFiles, htmlFilename)
	}

	if len(errs) > 0 {
		return savedFiles, fmt.Errorf("failed to save some report formats: %w", errors.Join(errs...))
	}
	return savedFiles, nil
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Flake-Shake Report - {{.Date}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .summary { background: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0; }
        table { border-collapse: collapse; width: 100%; }
        th, td { border: 1px solid #ddd; padding: 12px; text-align: left; }
        th { background: #4CAF50; color: white; }
        .sequence { font-family: monospace; }
        .recommendation-STABLE { color: #4CAF50; font-weight: bold; }
        .recommendation-UNSTABLE { color: #f44336; font-weight: bold; }
        .recommendation-SKIPPED { color: #ff9800; font-weight: bold; }
        .failure-log { background: #ffebee; padding: 10px; margin: 5px 0; font-family: monospace; font-size: 12px; white-space: pre-wrap; }
    </style>
</head>
<body>
    <h1>Flake-Shake Report</h1>
    <div class="summary">
        <p><strong>Date:</strong> {{.Date}}</p>
        <p><strong>Suite:</strong> {{.Suite}}</p>
        <p><strong>Total iterations:</strong> {{.TotalRuns}}</p>
        <p><strong>Run ID:</strong> {{.RunID}}</p>
    </div>
    <table>
        <tr>
            <th>Example</th>
            <th>Runs</th>
            <th>Sequence</th>
            <th>Pass Rate</th>
            <th>Avg Duration</th>
            <th>Recommendation</th>
            <th>Details</th>
        </tr>
        {{range .Examples}}
        <tr>
            <td>{{.Description}} <small>{{.ExampleID}}</small></td>
            <td>{{.TotalRuns}}</td>
            <td class="sequence">{{.Sequence}}</td>
            <td>{{printf "%.1f" .PassRate}}%</td>
            <td>{{.AvgDuration}}</td>
            <td class="recommendation-{{.Recommendation}}">{{.Recommendation}}</td>
            <td>
                {{if gt .Failures 0}}
                <details>
                    <summary>{{.Failures}} failure(s)</summary>
                    {{range .FailureLogs}}
                    <div class="failure-log">{{.}}</div>
                    {{end}}
                </details>
                {{end}}
            </td>
        </tr>
        {{end}}
    </table>
</body>
</html>`))

func saveHTMLReport(report *FlakeShakeReport, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return reportTemplate.Execute(file, report)
}
