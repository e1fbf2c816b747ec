package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/nvr-ai/go-blur/common"
	"github.com/nvr-ai/go-blur/config"
	"github.com/nvr-ai/go-blur/controller"
)

const usage = "usage: go-blur [flags] <input.bmp> <output.bmp> <thread_count> [tile_size]"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseArgs(args, stderr)
	if err == flag.ErrHelp {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		if common.Is(err, common.KindArgument) {
			fmt.Fprintln(stderr, usage)
		}
		return exitCode(err)
	}

	if cfg.Quiet {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(stderr)
	}

	res, err := controller.Run(cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitCode(err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(stdout, "Blurred %s (%dx%d) with %d threads, tile size %d\n",
			cfg.Input, res.Width, res.Height, res.Stats.Threads, res.Stats.TileSize)
		for _, w := range res.Stats.Workers {
			fmt.Fprintf(stdout, "  worker %d: %d tiles, %d pixels, %v\n", w.Worker, w.Tiles, w.Pixels, w.Duration)
		}
		if err := res.Profiler.WriteSummary(stdout); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}
	return 0
}

// parseArgs layers defaults, the optional config file and the command line.
func parseArgs(args []string, stderr io.Writer) (config.Config, error) {
	fs := flag.NewFlagSet("go-blur", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configFile  = fs.String("config", "", "Path to a YAML run configuration")
		logPath     = fs.String("log", "", "Write one line per processed pixel to this file")
		cpus        = fs.String("cpus", "", "Pin workers to these CPUs, e.g. 0-3,6")
		previewPath = fs.String("preview", "", "Write a downscaled BMP of the result to this file")
		previewSize = fs.Int("preview-size", config.DefaultPreviewSize, "Maximum preview width and height")
		reportPath  = fs.String("report", "", "Write a JSON timing report to this file")
		quiet       = fs.Bool("quiet", false, "Suppress progress output")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return config.Config{}, err
		}
		return config.Config{}, common.ArgumentErrorf("%v", err)
	}

	// Positional arguments are checked before the config file is read, so a bad
	// thread count never causes file I/O.
	pos := fs.Args()
	var positional *positionalArgs
	if len(pos) > 0 || *configFile == "" {
		p, err := parsePositional(pos)
		if err != nil {
			return config.Config{}, err
		}
		positional = &p
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadFile(*configFile, cfg); err != nil {
			return cfg, err
		}
	}

	// Flags given explicitly override the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log":
			cfg.LogPath = *logPath
		case "cpus":
			cfg.CPUs = *cpus
		case "preview":
			cfg.PreviewPath = *previewPath
		case "preview-size":
			cfg.PreviewSize = *previewSize
		case "report":
			cfg.ReportPath = *reportPath
		case "quiet":
			cfg.Quiet = *quiet
		}
	})

	if positional != nil {
		cfg.Input = positional.input
		cfg.Output = positional.output
		cfg.Threads = positional.threads
		if positional.tileSize != 0 {
			cfg.TileSize = positional.tileSize
		}
	}
	return cfg, nil
}

type positionalArgs struct {
	input, output     string
	threads, tileSize int
}

// parsePositional reads <input> <output> <thread_count> [tile_size]. A zero
// tileSize means the argument was omitted.
func parsePositional(pos []string) (positionalArgs, error) {
	if len(pos) < 3 || len(pos) > 4 {
		return positionalArgs{}, common.ArgumentErrorf("expected 3 or 4 arguments, got %d", len(pos))
	}
	p := positionalArgs{input: pos[0], output: pos[1]}
	threads, err := strconv.Atoi(pos[2])
	if err != nil {
		return p, common.ArgumentErrorf("thread count %q is not an integer", pos[2])
	}
	if threads <= 0 {
		return p, common.ArgumentErrorf("thread count must be positive, got %d", threads)
	}
	p.threads = threads
	if len(pos) == 4 {
		size, err := strconv.Atoi(pos[3])
		if err != nil {
			return p, common.ArgumentErrorf("tile size %q is not an integer", pos[3])
		}
		if size <= 0 {
			return p, common.ArgumentErrorf("tile size must be positive, got %d", size)
		}
		p.tileSize = size
	}
	return p, nil
}

func exitCode(err error) int {
	if common.Is(err, common.KindArgument) {
		return 2
	}
	return 1
}
