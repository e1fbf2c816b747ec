package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/nvr-ai/go-blur/affinity"
	"github.com/nvr-ai/go-blur/benchmark"
	"github.com/nvr-ai/go-blur/images/bmp"
	"github.com/nvr-ai/go-blur/util"
)

func main() {
	var (
		scenarioFile  = flag.String("scenarios", "", "Path to scenario configuration file")
		outputDir     = flag.String("output", "./benchmark_results", "Output directory for results")
		images        = flag.String("images", "", "BMP file or directory of BMPs to blur instead of synthetic images")
		maxThreads    = flag.Int("max-threads", runtime.NumCPU(), "Largest worker count in thread sweeps")
		cpus          = flag.String("cpus", "", "Pin workers to these CPUs, e.g. 0-3,6")
		quick         = flag.Bool("quick", false, "Run quick benchmark scenarios")
		comprehensive = flag.Bool("comprehensive", false, "Run comprehensive benchmark scenarios")
		tileSizes     = flag.Bool("tiles", false, "Compare tile sizes at -max-threads")
		saveScenarios = flag.String("save-scenarios", "", "Write the selected scenarios to this file and exit")
		timeout       = flag.Duration("timeout", 30*time.Minute, "Benchmark timeout duration")
	)
	flag.Parse()

	cpuList, err := affinity.ParseList(*cpus)
	if err != nil {
		log.Fatalf("Invalid -cpus: %v", err)
	}

	var corpus []*bmp.Bitmap
	if *images != "" {
		files, err := util.LoadBitmaps(*images)
		if err != nil {
			log.Fatalf("Failed to load images: %v", err)
		}
		for _, f := range files {
			corpus = append(corpus, f.Bitmap)
		}
		fmt.Printf("Loaded %d images from %s\n", len(corpus), *images)
	}

	suite := benchmark.NewSuite(benchmark.NewSuiteArgs{
		OutputPath: *outputDir,
		Corpus:     corpus,
	})

	predefined := &benchmark.PredefinedScenarios{}
	var sets []*benchmark.ScenarioSet
	if *scenarioFile != "" {
		set, err := benchmark.LoadScenarioSet(*scenarioFile)
		if err != nil {
			log.Fatalf("Failed to load scenario file: %v", err)
		}
		sets = append(sets, set)
	} else {
		if *quick {
			sets = append(sets, predefined.GetQuickScenarios(*maxThreads))
		}
		if *comprehensive {
			sets = append(sets, predefined.GetComprehensiveScenarios(*maxThreads))
		}
		if *tileSizes {
			sets = append(sets, predefined.GetTileSizeScenarios(benchmark.CommonResolutions[2], *maxThreads))
		}
		// If no specific scenarios requested, use quick by default
		if len(sets) == 0 {
			sets = append(sets, predefined.GetQuickScenarios(*maxThreads))
		}
	}

	for _, set := range sets {
		for _, scenario := range set.Scenarios {
			if len(cpuList) > 0 {
				scenario.CPUs = cpuList
			}
			suite.AddScenario(scenario)
		}
		fmt.Printf("Added %d scenarios from %q\n", len(set.Scenarios), set.Name)
	}

	if *saveScenarios != "" {
		all := &benchmark.ScenarioSet{Name: "Saved", Scenarios: suite.Scenarios()}
		if err := benchmark.SaveScenarioSet(all, *saveScenarios); err != nil {
			log.Fatalf("Failed to save scenarios: %v", err)
		}
		fmt.Printf("Scenarios saved to: %s\n", *saveScenarios)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Println("Starting benchmark execution...")
	start := time.Now()
	if err := suite.RunAllScenarios(ctx); err != nil {
		log.Fatalf("Benchmark execution failed: %v", err)
	}
	fmt.Printf("Benchmark completed in %v\n", time.Since(start))

	results := suite.GetResults()
	fmt.Printf("\n=== BENCHMARK RESULTS SUMMARY ===\n")
	fmt.Printf("Total scenarios: %d\n", len(results))

	var best benchmark.PerformanceMetrics
	for _, result := range results {
		if result.PixelsPerSecond > best.PixelsPerSecond {
			best = result
		}
		fmt.Printf("  %s: %.2f Mpx/s, mean %v, imbalance %.2f\n",
			result.Scenario.Name,
			result.PixelsPerSecond/1e6,
			result.MeanDuration,
			result.Imbalance)
	}
	if best.Scenario.Name != "" {
		fmt.Printf("\nBest performing scenario: %s (%.2f Mpx/s)\n", best.Scenario.Name, best.PixelsPerSecond/1e6)
	}
}

func init() {
	flag.Usage = func() {
		name := filepath.Base(os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", name)
		fmt.Fprintf(os.Stderr, "Throughput benchmark for the tiled box blur.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -quick\n", name)
		fmt.Fprintf(os.Stderr, "  %s -images ./frames -tiles -max-threads 8\n", name)
		fmt.Fprintf(os.Stderr, "  %s -scenarios ./scenarios.json -cpus 0-3\n", name)
	}
}
