package benchmark

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-blur/common"
	"github.com/nvr-ai/go-blur/dispatch"
	"github.com/nvr-ai/go-blur/images/bmp"
	"github.com/nvr-ai/go-blur/images/kernels"
)

// Suite manages and executes benchmark scenarios
type Suite struct {
	scenarios []Scenario
	outputDir string
	corpus    []*bmp.Bitmap
	pool      *kernels.Pool
	mu        sync.RWMutex
	results   []PerformanceMetrics
}

// NewSuiteArgs represents the arguments for creating a new benchmark suite.
type NewSuiteArgs struct {
	// OutputPath is the directory results are written to.
	OutputPath string
	// Corpus, when non-empty, is cycled through by every scenario instead of a
	// synthetic image at the scenario's resolution.
	Corpus []*bmp.Bitmap
}

// NewSuite creates a new benchmark suite.
//
// Arguments:
//   - args: The arguments for creating a new benchmark suite.
//
// Returns:
//   - *Suite: The benchmark suite.
func NewSuite(args NewSuiteArgs) *Suite {
	return &Suite{
		outputDir: args.OutputPath,
		corpus:    args.Corpus,
		pool:      &kernels.Pool{},
		scenarios: make([]Scenario, 0),
		results:   make([]PerformanceMetrics, 0),
	}
}

// AddScenario adds a test scenario to the benchmark suite
func (bs *Suite) AddScenario(scenario Scenario) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.scenarios = append(bs.scenarios, scenario)
}

// Scenarios returns the queued scenarios.
func (bs *Suite) Scenarios() []Scenario {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return append([]Scenario(nil), bs.scenarios...)
}

// SyntheticImage returns a deterministic noise image of the given size.
func SyntheticImage(width, height int, seed int64) *bmp.Bitmap {
	img := bmp.NewBitmap(width, height)
	rng := rand.New(rand.NewSource(seed))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	return img
}

// RunScenario executes a single benchmark scenario.
//
// The context is checked between iterations; a cancelled run returns ctx.Err().
func (bs *Suite) RunScenario(ctx context.Context, scenario Scenario) (*PerformanceMetrics, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	corpus := bs.corpus
	switch len(corpus) {
	case 0:
		corpus = []*bmp.Bitmap{SyntheticImage(scenario.Resolution.Width, scenario.Resolution.Height, 1)}
	case 1:
		scenario.Resolution = Resolution{
			Width:  corpus[0].Width,
			Height: corpus[0].Height,
			Name:   fmt.Sprintf("%dx%d", corpus[0].Width, corpus[0].Height),
		}
	default:
		scenario.Resolution = Resolution{Name: fmt.Sprintf("corpus of %d", len(corpus))}
	}

	d := dispatch.New(dispatch.Options{
		Threads:  scenario.Threads,
		TileSize: scenario.TileSize,
		CPUs:     scenario.CPUs,
		Pool:     bs.pool,
	})

	metrics := &PerformanceMetrics{
		Scenario:  scenario,
		Timestamp: time.Now(),
	}

	// Warmup runs
	for i := 0; i < scenario.WarmupRuns; i++ {
		dst, _, err := d.Run(corpus[i%len(corpus)])
		if err != nil {
			return nil, errors.WithMessagef(err, "scenario %s warmup", scenario.Name)
		}
		bs.pool.Put(dst)
	}

	var startMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&startMem)

	failures, pixels := 0, 0
	imbalance := 0.0
	for i := 0; i < scenario.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src := corpus[i%len(corpus)]
		dst, stats, err := d.Run(src)
		if err != nil {
			failures++
			continue
		}
		bs.pool.Put(dst)
		pixels += src.Width * src.Height

		metrics.TotalDuration += stats.Duration
		if metrics.MinDuration == 0 || stats.Duration < metrics.MinDuration {
			metrics.MinDuration = stats.Duration
		}
		if stats.Duration > metrics.MaxDuration {
			metrics.MaxDuration = stats.Duration
		}
		imbalance += workerImbalance(stats.Workers)
	}

	var endMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&endMem)

	if ok := scenario.Iterations - failures; ok > 0 {
		metrics.MeanDuration = metrics.TotalDuration / time.Duration(ok)
		metrics.Imbalance = imbalance / float64(ok)
		if metrics.TotalDuration > 0 {
			metrics.PixelsPerSecond = float64(pixels) / metrics.TotalDuration.Seconds()
		}
	}
	metrics.ErrorRate = float64(failures) / float64(scenario.Iterations)

	metrics.MemoryStats = MemoryMetrics{
		AllocBytes:      endMem.Alloc,
		TotalAllocBytes: endMem.TotalAlloc - startMem.TotalAlloc,
		SysBytes:        endMem.Sys,
		NumGC:           endMem.NumGC - startMem.NumGC,
		HeapAllocBytes:  endMem.HeapAlloc,
		HeapSysBytes:    endMem.HeapSys,
	}
	metrics.CPUStats = CPUMetrics{
		NumCPU:     runtime.NumCPU(),
		GOMAXPROCS: runtime.GOMAXPROCS(0),
	}
	return metrics, nil
}

// workerImbalance is the slowest worker's duration over the mean of the busy ones.
func workerImbalance(workers []dispatch.WorkerStats) float64 {
	var total, slowest time.Duration
	busy := 0
	for _, w := range workers {
		if w.Tiles == 0 {
			continue
		}
		busy++
		total += w.Duration
		slowest = max(slowest, w.Duration)
	}
	if busy == 0 || total == 0 {
		return 1
	}
	return float64(slowest) / (float64(total) / float64(busy))
}

// RunAllScenarios executes all configured benchmark scenarios and saves the results.
func (bs *Suite) RunAllScenarios(ctx context.Context) error {
	for _, scenario := range bs.Scenarios() {
		metrics, err := bs.RunScenario(ctx, scenario)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			fmt.Printf("Scenario %s failed: %v\n", scenario.Name, err)
			continue
		}

		bs.mu.Lock()
		bs.results = append(bs.results, *metrics)
		bs.mu.Unlock()

		fmt.Printf("Scenario %s completed: %.1f Mpx/s, mean %v\n",
			scenario.Name, metrics.PixelsPerSecond/1e6, metrics.MeanDuration)
	}
	return bs.SaveResults()
}

// SaveResults persists benchmark results to filesystem
func (bs *Suite) SaveResults() error {
	results := bs.GetResults()

	if err := os.MkdirAll(bs.outputDir, 0o755); err != nil {
		return common.IOError(err, "create output directory")
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	resultsFile := filepath.Join(bs.outputDir, fmt.Sprintf("benchmark_results_%s.json", timestamp))

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return common.WrapFormat(err, "marshal results")
	}
	if err := os.WriteFile(resultsFile, data, 0o644); err != nil {
		return common.IOError(err, "write results file")
	}

	summaryFile := filepath.Join(bs.outputDir, fmt.Sprintf("benchmark_summary_%s.csv", timestamp))
	if err := saveSummaryCSV(summaryFile, results); err != nil {
		return err
	}

	fmt.Printf("Results saved to: %s\n", resultsFile)
	fmt.Printf("Summary saved to: %s\n", summaryFile)
	return nil
}

func saveSummaryCSV(filename string, results []PerformanceMetrics) error {
	file, err := os.Create(filename)
	if err != nil {
		return common.IOError(err, "create summary")
	}
	defer file.Close()

	w := csv.NewWriter(file)
	_ = w.Write([]string{"Scenario", "Resolution", "Threads", "TileSize", "Mpx_per_s", "Mean_ms", "Min_ms", "Max_ms", "Imbalance", "Error_Rate"})
	for _, r := range results {
		_ = w.Write([]string{
			r.Scenario.Name,
			r.Scenario.Resolution.Name,
			strconv.Itoa(r.Scenario.Threads),
			strconv.Itoa(r.Scenario.TileSize),
			strconv.FormatFloat(r.PixelsPerSecond/1e6, 'f', 2, 64),
			strconv.FormatFloat(float64(r.MeanDuration.Nanoseconds())/1e6, 'f', 3, 64),
			strconv.FormatFloat(float64(r.MinDuration.Nanoseconds())/1e6, 'f', 3, 64),
			strconv.FormatFloat(float64(r.MaxDuration.Nanoseconds())/1e6, 'f', 3, 64),
			strconv.FormatFloat(r.Imbalance, 'f', 3, 64),
			strconv.FormatFloat(r.ErrorRate, 'f', 4, 64),
		})
	}
	w.Flush()
	return common.IOError(w.Error(), "write summary")
}

// GetResults returns all benchmark results
func (bs *Suite) GetResults() []PerformanceMetrics {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	results := make([]PerformanceMetrics, len(bs.results))
	copy(results, bs.results)
	return results
}
