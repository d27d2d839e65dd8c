package reporting

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-looper/runner"
)

func testReport() *runner.FlakeShakeReport {
	return &runner.FlakeShakeReport{
		Suite:     "suite.yaml",
		TotalRuns: 7,
		Examples: []runner.FlakeShakeResult{
			{ExampleID: "[1:1]", Description: "network pings", TotalRuns: 3, Passes: 3, PassRate: 100,
				Sequence: "...", AvgDuration: 1200 * time.Millisecond, MaxDuration: 2 * time.Second,
				Recommendation: runner.RecommendationStable},
			{ExampleID: "[1:2]", Description: "network resolves", TotalRuns: 3, Passes: 2, Failures: 1, PassRate: 66.666,
				Sequence: ".F.", Recommendation: runner.RecommendationUnstable},
			{ExampleID: "[1:3]", Description: "network later", TotalRuns: 1, Pending: 1,
				Sequence: "*", Recommendation: runner.RecommendationSkipped},
		},
	}
}

func TestStabilityTableRender(t *testing.T) {
	out := stripansi.Strip(NewStabilityTable("Stability").Render(testReport()))

	assert.Contains(t, out, "Stability (3 examples, 7 iterations)")
	for _, want := range []string{
		"[1:1]", "network pings", "...", "100.0%", "1.2s", "2.0s", "✓ stable",
		"[1:2]", ".F.", "66.7%", "✗ unstable",
		"[1:3]", "- skipped",
	} {
		assert.Contains(t, out, want)
	}
}

func TestStabilityTablePrint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewStabilityTable("Stability").Print(&buf, testReport()))
	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\n")))

	err := NewStabilityTable("Stability").Print(failingWriter{}, testReport())
	require.Error(t, err)
}

func TestGetResultString(t *testing.T) {
	assert.Equal(t, "✓ stable", stripansi.Strip(getResultString(runner.RecommendationStable)))
	assert.Equal(t, "✗ unstable", stripansi.Strip(getResultString(runner.RecommendationUnstable)))
	assert.Equal(t, "- skipped", stripansi.Strip(getResultString(runner.RecommendationSkipped)))
	assert.Equal(t, "other", getResultString("other"))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0.0s", formatDuration(0))
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}
