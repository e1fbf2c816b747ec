package benchmark

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-blur/common"
	"github.com/nvr-ai/go-blur/dispatch"
	"github.com/nvr-ai/go-blur/images/bmp"
)

func TestNewSuite(t *testing.T) {
	outputDir := t.TempDir()

	suite := NewSuite(NewSuiteArgs{OutputPath: outputDir})

	assert.NotNil(t, suite)
	assert.Equal(t, outputDir, suite.outputDir)
	assert.Empty(t, suite.Scenarios())
	assert.Empty(t, suite.GetResults())
}

func TestScenarioBuilder(t *testing.T) {
	scenario := NewScenarioBuilder("test_scenario").
		WithResolution(64, 48).
		WithThreads(4).
		WithTileSize(8).
		WithCPUs([]int{0}).
		WithIterations(7).
		WithWarmupRuns(3).
		Build()

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, Resolution{Width: 64, Height: 48, Name: "64x48"}, scenario.Resolution)
	assert.Equal(t, 4, scenario.Threads)
	assert.Equal(t, 8, scenario.TileSize)
	assert.Equal(t, []int{0}, scenario.CPUs)
	assert.Equal(t, 7, scenario.Iterations)
	assert.Equal(t, 3, scenario.WarmupRuns)
	assert.NoError(t, scenario.Validate())
}

func TestScenarioValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Scenario)
	}{
		{"threads", func(s *Scenario) { s.Threads = 0 }},
		{"tile size", func(s *Scenario) { s.TileSize = -1 }},
		{"iterations", func(s *Scenario) { s.Iterations = 0 }},
		{"warmups", func(s *Scenario) { s.WarmupRuns = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScenarioBuilder("bad").Build()
			tt.mutate(&s)
			assert.Equal(t, common.KindArgument, common.KindOf(s.Validate()))
		})
	}
}

func TestPredefinedScenarios(t *testing.T) {
	ps := &PredefinedScenarios{}

	scaling := ps.GetThreadScalingScenarios(CommonResolutions[0], 8)
	require.Len(t, scaling.Scenarios, 4)
	for i, want := range []int{1, 2, 4, 8} {
		assert.Equal(t, want, scaling.Scenarios[i].Threads)
	}

	sizes := ps.GetTileSizeScenarios(CommonResolutions[0], 2)
	assert.Len(t, sizes.Scenarios, 6)
	assert.Equal(t, 2, sizes.Scenarios[0].Threads)

	quick := ps.GetQuickScenarios(4)
	require.Len(t, quick.Scenarios, 2)
	assert.Equal(t, 5, quick.Scenarios[0].Iterations)

	comprehensive := ps.GetComprehensiveScenarios(2)
	assert.Len(t, comprehensive.Scenarios, 2*len(CommonResolutions))
}

func TestScenarioSetRoundTrip(t *testing.T) {
	set := (&PredefinedScenarios{}).GetQuickScenarios(2)
	path := filepath.Join(t.TempDir(), "scenarios.json")
	require.NoError(t, SaveScenarioSet(set, path))

	loaded, err := LoadScenarioSet(path)
	require.NoError(t, err)
	assert.Equal(t, set, loaded)

	require.NoError(t, os.WriteFile(path, []byte(`{"scenarios":[{"name":"x","threads":0}]}`), 0o644))
	_, err = LoadScenarioSet(path)
	assert.Equal(t, common.KindArgument, common.KindOf(err))

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
	_, err = LoadScenarioSet(path)
	assert.Equal(t, common.KindFormat, common.KindOf(err))
}

func TestRunScenario(t *testing.T) {
	suite := NewSuite(NewSuiteArgs{OutputPath: t.TempDir()})
	scenario := NewScenarioBuilder("small").
		WithResolution(40, 30).
		WithThreads(3).
		WithTileSize(8).
		WithIterations(3).
		WithWarmupRuns(1).
		Build()

	m, err := suite.RunScenario(context.Background(), scenario)
	require.NoError(t, err)
	assert.Zero(t, m.ErrorRate)
	assert.Positive(t, m.PixelsPerSecond)
	assert.LessOrEqual(t, m.MinDuration, m.MeanDuration)
	assert.LessOrEqual(t, m.MeanDuration, m.MaxDuration)
	assert.GreaterOrEqual(t, m.Imbalance, 1.0)
}

func TestRunScenarioUsesCorpus(t *testing.T) {
	suite := NewSuite(NewSuiteArgs{OutputPath: t.TempDir(), Corpus: []*bmp.Bitmap{SyntheticImage(12, 5, 7)}})
	scenario := NewScenarioBuilder("corpus").WithIterations(1).WithWarmupRuns(0).Build()

	m, err := suite.RunScenario(context.Background(), scenario)
	require.NoError(t, err)
	assert.Equal(t, "12x5", m.Scenario.Resolution.Name)

	suite = NewSuite(NewSuiteArgs{
		OutputPath: t.TempDir(),
		Corpus:     []*bmp.Bitmap{SyntheticImage(4, 4, 1), SyntheticImage(6, 2, 2)},
	})
	m, err = suite.RunScenario(context.Background(), NewScenarioBuilder("mixed").WithIterations(4).Build())
	require.NoError(t, err)
	assert.Equal(t, "corpus of 2", m.Scenario.Resolution.Name)
	assert.Zero(t, m.ErrorRate)
}

func TestRunScenarioCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	suite := NewSuite(NewSuiteArgs{OutputPath: t.TempDir()})
	scenario := NewScenarioBuilder("cancelled").WithResolution(8, 8).WithWarmupRuns(0).Build()
	_, err := suite.RunScenario(ctx, scenario)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunAllScenariosSavesResults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	suite := NewSuite(NewSuiteArgs{OutputPath: dir, Corpus: []*bmp.Bitmap{bmp.NewBitmap(16, 16)}})
	for _, s := range (&PredefinedScenarios{}).GetQuickScenarios(2).Scenarios {
		suite.AddScenario(s)
	}

	require.NoError(t, suite.RunAllScenarios(context.Background()))
	assert.Len(t, suite.GetResults(), 2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var csvFile string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".csv") {
			csvFile = filepath.Join(dir, e.Name())
		}
	}
	require.NotEmpty(t, csvFile)
	data, err := os.ReadFile(csvFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Scenario,Resolution,Threads"))
}

func TestWorkerImbalance(t *testing.T) {
	assert.Equal(t, 1.0, workerImbalance(nil))
	workers := []dispatch.WorkerStats{
		{Tiles: 1, Duration: 10},
		{Tiles: 1, Duration: 30},
		{Tiles: 0, Duration: 1},
	}
	assert.InDelta(t, 1.5, workerImbalance(workers), 1e-9)
}

func BenchmarkScenarioBuilder(b *testing.B) {
	for i := 0; i < b.N; i++ {
		NewScenarioBuilder("bench").WithResolution(640, 480).WithThreads(4).Build()
	}
}
