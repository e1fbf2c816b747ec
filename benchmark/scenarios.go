package benchmark

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nvr-ai/go-blur/common"
	"github.com/nvr-ai/go-blur/images/tiles"
)

// Resolution represents image dimensions for benchmarking
type Resolution struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Name   string `json:"name"`
}

// CommonResolutions are the synthetic image sizes used by the predefined sets.
var CommonResolutions = []Resolution{
	{Width: 320, Height: 240, Name: "320x240"},
	{Width: 640, Height: 480, Name: "640x480"},
	{Width: 1280, Height: 720, Name: "1280x720"},
	{Width: 1920, Height: 1080, Name: "1920x1080"},
}

// Scenario defines one benchmark configuration.
type Scenario struct {
	Name       string     `json:"name"`
	Resolution Resolution `json:"resolution"`
	Threads    int        `json:"threads"`
	TileSize   int        `json:"tile_size"`
	CPUs       []int      `json:"cpus,omitempty"`
	Iterations int        `json:"iterations"`
	WarmupRuns int        `json:"warmup_runs"`
}

// Validate reports an ArgumentError for unusable scenarios.
func (s Scenario) Validate() error {
	switch {
	case s.Threads <= 0:
		return common.ArgumentErrorf("scenario %s: threads must be positive", s.Name)
	case s.TileSize <= 0:
		return common.ArgumentErrorf("scenario %s: tile size must be positive", s.Name)
	case s.Iterations <= 0:
		return common.ArgumentErrorf("scenario %s: iterations must be positive", s.Name)
	case s.WarmupRuns < 0:
		return common.ArgumentErrorf("scenario %s: warmup runs must not be negative", s.Name)
	}
	return nil
}

// ScenarioBuilder helps build test scenarios with fluent API
type ScenarioBuilder struct {
	scenario Scenario
}

// NewScenarioBuilder creates a new scenario builder
func NewScenarioBuilder(name string) *ScenarioBuilder {
	return &ScenarioBuilder{
		scenario: Scenario{
			Name:       name,
			Resolution: CommonResolutions[1],
			Threads:    1,
			TileSize:   tiles.DefaultSize,
			Iterations: 20,
			WarmupRuns: 2,
		},
	}
}

// WithResolution sets the image resolution
func (sb *ScenarioBuilder) WithResolution(width, height int) *ScenarioBuilder {
	sb.scenario.Resolution = Resolution{
		Width:  width,
		Height: height,
		Name:   fmt.Sprintf("%dx%d", width, height),
	}
	return sb
}

// WithThreads sets the worker count
func (sb *ScenarioBuilder) WithThreads(threads int) *ScenarioBuilder {
	sb.scenario.Threads = threads
	return sb
}

// WithTileSize sets the tile edge
func (sb *ScenarioBuilder) WithTileSize(size int) *ScenarioBuilder {
	sb.scenario.TileSize = size
	return sb
}

// WithCPUs pins workers to cpus
func (sb *ScenarioBuilder) WithCPUs(cpus []int) *ScenarioBuilder {
	sb.scenario.CPUs = cpus
	return sb
}

// WithIterations sets the number of test iterations
func (sb *ScenarioBuilder) WithIterations(iterations int) *ScenarioBuilder {
	sb.scenario.Iterations = iterations
	return sb
}

// WithWarmupRuns sets the number of warmup runs
func (sb *ScenarioBuilder) WithWarmupRuns(warmups int) *ScenarioBuilder {
	sb.scenario.WarmupRuns = warmups
	return sb
}

// Build returns the configured test scenario
func (sb *ScenarioBuilder) Build() Scenario {
	return sb.scenario
}

// ScenarioSet represents a collection of related test scenarios
type ScenarioSet struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Scenarios   []Scenario `json:"scenarios"`
}

// PredefinedScenarios contains common benchmark scenario sets
type PredefinedScenarios struct{}

// GetThreadScalingScenarios sweeps the worker count from 1 to maxThreads in powers of two.
func (ps *PredefinedScenarios) GetThreadScalingScenarios(resolution Resolution, maxThreads int) *ScenarioSet {
	scenarios := make([]Scenario, 0)
	for threads := 1; threads <= maxThreads; threads *= 2 {
		scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("threads_%d_%s", threads, resolution.Name)).
			WithResolution(resolution.Width, resolution.Height).
			WithThreads(threads).
			Build())
	}
	return &ScenarioSet{
		Name:        fmt.Sprintf("Thread Scaling @ %s", resolution.Name),
		Description: "Compares worker counts with the default tile size",
		Scenarios:   scenarios,
	}
}

// GetTileSizeScenarios compares tile edges at a fixed worker count.
func (ps *PredefinedScenarios) GetTileSizeScenarios(resolution Resolution, threads int) *ScenarioSet {
	scenarios := make([]Scenario, 0)
	for _, size := range []int{4, 8, 16, 32, 64, 128} {
		scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("tile_%d_%s", size, resolution.Name)).
			WithResolution(resolution.Width, resolution.Height).
			WithThreads(threads).
			WithTileSize(size).
			Build())
	}
	return &ScenarioSet{
		Name:        fmt.Sprintf("Tile Size Comparison @ %s, %d threads", resolution.Name, threads),
		Description: "Compares tile edges at a fixed worker count",
		Scenarios:   scenarios,
	}
}

// GetQuickScenarios returns a smaller set for quick testing
func (ps *PredefinedScenarios) GetQuickScenarios(maxThreads int) *ScenarioSet {
	scenarios := make([]Scenario, 0)
	for _, threads := range []int{1, maxThreads} {
		scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("quick_%d", threads)).
			WithResolution(CommonResolutions[0].Width, CommonResolutions[0].Height).
			WithThreads(threads).
			WithIterations(5).
			WithWarmupRuns(1).
			Build())
	}
	return &ScenarioSet{
		Name:        "Quick Performance Test",
		Description: "Single-threaded versus fully parallel at a small resolution",
		Scenarios:   scenarios,
	}
}

// GetComprehensiveScenarios crosses every common resolution with a thread sweep.
func (ps *PredefinedScenarios) GetComprehensiveScenarios(maxThreads int) *ScenarioSet {
	scenarios := make([]Scenario, 0)
	for _, resolution := range CommonResolutions {
		scenarios = append(scenarios, ps.GetThreadScalingScenarios(resolution, maxThreads).Scenarios...)
	}
	return &ScenarioSet{
		Name:        "Comprehensive Performance Test",
		Description: "Tests all common resolutions across worker counts",
		Scenarios:   scenarios,
	}
}

// SaveScenarioSet saves a scenario set to a JSON file
func SaveScenarioSet(scenarioSet *ScenarioSet, filename string) error {
	data, err := json.MarshalIndent(scenarioSet, "", "  ")
	if err != nil {
		return common.WrapFormat(err, "marshal scenario set")
	}
	return common.IOError(os.WriteFile(filename, data, 0o644), "write scenario file")
}

// LoadScenarioSet loads a scenario set from a JSON file
func LoadScenarioSet(filename string) (*ScenarioSet, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, common.IOError(err, "read scenario file")
	}

	var scenarioSet ScenarioSet
	if err := json.Unmarshal(data, &scenarioSet); err != nil {
		return nil, common.WrapFormat(err, "unmarshal scenario set")
	}
	for _, s := range scenarioSet.Scenarios {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return &scenarioSet, nil
}
