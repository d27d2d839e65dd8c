package runner

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-looper/engine"
	"github.com/ethereum-optimism/infra/op-looper/types"
)

func timed(status types.Status, d time.Duration, err error) types.ExecutionResult {
	return types.ExecutionResult{Status: status, RunTime: d, Exception: err}
}

func TestSummarize(t *testing.T) {
	t.Run("stable", func(t *testing.T) {
		got := summarize("[1:1]", "always", []types.ExecutionResult{
			timed(types.StatusPassed, 100*time.Millisecond, nil),
			timed(types.StatusPassed, 300*time.Millisecond, nil),
		})
		assert.Equal(t, 2, got.TotalRuns)
		assert.Equal(t, 2, got.Passes)
		assert.Equal(t, 100.0, got.PassRate)
		assert.Equal(t, RecommendationStable, got.Recommendation)
		assert.Equal(t, "..", got.Sequence)
		assert.Equal(t, 100*time.Millisecond, got.MinDuration)
		assert.Equal(t, 300*time.Millisecond, got.MaxDuration)
		assert.Equal(t, 200*time.Millisecond, got.AvgDuration)
		assert.Empty(t, got.FailureLogs)
	})

	t.Run("unstable", func(t *testing.T) {
		got := summarize("[1:2]", "flaky", []types.ExecutionResult{
			timed(types.StatusFailed, time.Second, errors.New("timeout")),
			timed(types.StatusPassed, time.Second, nil),
			timed(types.StatusPending, time.Second, nil),
			timed(types.StatusPassed, time.Second, nil),
		})
		assert.Equal(t, 1, got.Failures)
		assert.Equal(t, 1, got.Pending)
		assert.InDelta(t, 66.67, got.PassRate, 0.01)
		assert.Equal(t, RecommendationUnstable, got.Recommendation)
		assert.Equal(t, "F.*.", got.Sequence)
		assert.Equal(t, []string{"iteration 1: timeout"}, got.FailureLogs)
	})

	t.Run("failure logs are capped", func(t *testing.T) {
		var iterations []types.ExecutionResult
		for i := 0; i < 8; i++ {
			iterations = append(iterations, timed(types.StatusFailed, 0, errors.New("nope")))
		}
		got := summarize("[1:3]", "broken", iterations)
		assert.Len(t, got.FailureLogs, maxFailureLogs)
		assert.Zero(t, got.PassRate)
	})

	t.Run("only pending", func(t *testing.T) {
		got := summarize("[1:4]", "pending", []types.ExecutionResult{timed(types.StatusPending, 0, nil)})
		assert.Equal(t, RecommendationSkipped, got.Recommendation)
	})
}

func TestFlakeShakeCollector(t *testing.T) {
	attempt := 0
	g := engine.Describe("collector")
	flaky := g.It("flaky", func(t *engine.T) {
		attempt++
		if attempt == 2 {
			t.Errorf("second attempt broke")
		}
	})
	stable := g.It("stable", func(*engine.T) {})
	g.XIt("skipped", func(*engine.T) {})

	engineCfg := engine.NewConfiguration()
	Setup(engineCfg, Config{DefaultLoopCount: 3}, log.New())
	reporter := engine.NewReporter()
	collector := NewFlakeShakeCollector(log.New())
	collector.Register(reporter)
	engine.NewRunner(engineCfg, reporter, log.New()).Run(context.Background(), g)

	report := collector.Report("suite.yaml", "run-1")
	assert.Equal(t, "suite.yaml", report.Suite)
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, 6, report.TotalRuns)
	require.Len(t, report.Examples, 2, "skipped examples never iterate")

	assert.Equal(t, flaky.ID, report.Examples[0].ExampleID)
	assert.Equal(t, "collector flaky", report.Examples[0].Description)
	assert.Equal(t, ".F.", report.Examples[0].Sequence)
	assert.Equal(t, stable.ID, report.Examples[1].ExampleID)

	unstable := report.Unstable()
	require.Len(t, unstable, 1)
	assert.Equal(t, flaky.ID, unstable[0].ExampleID)
}

func TestSaveFlakeShakeReport(t *testing.T) {
	report := &FlakeShakeReport{
		Date:        "2024-01-01",
		Suite:       "suite.yaml",
		TotalRuns:   3,
		GeneratedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		RunID:       "abc",
		Examples: []FlakeShakeResult{
			summarize("[1:1]", "group <example>", []types.ExecutionResult{
				timed(types.StatusPassed, time.Second, nil),
				timed(types.StatusFailed, time.Second, errors.New("boom")),
				timed(types.StatusPassed, time.Second, nil),
			}),
		},
	}

	dir := filepath.Join(t.TempDir(), "reports")
	files, err := SaveFlakeShakeReport(report, dir)
	require.NoError(t, err)
	require.Len(t, files, 2)

	data, err := os.ReadFile(filepath.Join(dir, "flake-shake-report.json"))
	require.NoError(t, err)
	var decoded FlakeShakeReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "abc", decoded.RunID)
	require.Len(t, decoded.Examples, 1)
	assert.Equal(t, ".F.", decoded.Examples[0].Sequence)

	html, err := os.ReadFile(filepath.Join(dir, "flake-shake-report.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "group &lt;example&gt;")
	assert.Contains(t, string(html), RecommendationUnstable)
}
