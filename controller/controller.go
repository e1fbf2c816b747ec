// Package controller runs one blur job from start to finish.
package controller

import (
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-blur/config"
	"github.com/nvr-ai/go-blur/dispatch"
	"github.com/nvr-ai/go-blur/images"
	"github.com/nvr-ai/go-blur/images/bmp"
	"github.com/nvr-ai/go-blur/pixellog"
	"github.com/nvr-ai/go-blur/profiler"
)

// Result describes a finished run.
type Result struct {
	Width    int
	Height   int
	Stats    *dispatch.Stats
	LogLines int64
	Profiler *profiler.Profiler
}

// Run validates cfg, blurs cfg.Input into cfg.Output, and writes the optional
// preview and report.
//
// Nothing is read or written when cfg is invalid. The output file is not created
// unless the blur succeeded, and a failed blur removes the pixel log.
//
// Arguments:
//   - cfg: The run settings.
//
// Returns:
//   - *Result: Dimensions, worker stats and stage timings.
//   - error: A common.Error classifying the failure.
func Run(cfg config.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cpus, err := cfg.CPUList()
	if err != nil {
		return nil, err
	}

	prof := profiler.New()
	res := &Result{Profiler: prof}

	done := prof.StartOperation("load")
	src, headers, err := bmp.Load(cfg.Input)
	done()
	if err != nil {
		return nil, err
	}
	res.Width, res.Height = src.Width, src.Height
	log.Printf("loaded %s: %dx%d", cfg.Input, src.Width, src.Height)

	var logger pixellog.Logger = pixellog.Nop{}
	var pixels *pixellog.Writer
	if cfg.LogPath != "" {
		pixels, err = pixellog.Create(cfg.LogPath)
		if err != nil {
			return nil, err
		}
		logger = pixels
	}

	done = prof.StartOperation("blur")
	dst, stats, err := dispatch.New(dispatch.Options{
		Threads:  cfg.Threads,
		TileSize: cfg.TileSize,
		Logger:   logger,
		CPUs:     cpus,
	}).Run(src)
	done()
	closeErr := logger.Close()
	if err == nil && closeErr != nil {
		err = errors.WithMessage(closeErr, "pixel log")
	}
	if err != nil {
		if pixels != nil {
			os.Remove(cfg.LogPath)
		}
		return nil, err
	}
	if pixels != nil {
		res.LogLines = pixels.Lines()
	}
	res.Stats = stats
	log.Printf("blurred %d tiles on %d threads (tile size %d)", stats.Tiles, stats.Threads, stats.TileSize)

	done = prof.StartOperation("save")
	err = bmp.Save(cfg.Output, headers, dst)
	done()
	if err != nil {
		return nil, err
	}
	log.Printf("wrote %s", cfg.Output)

	if cfg.PreviewPath != "" {
		done = prof.StartOperation("preview")
		thumb := images.Thumbnail(dst, cfg.PreviewSize, cfg.PreviewSize)
		err = bmp.Save(cfg.PreviewPath, bmp.NewHeaders(thumb.Width, thumb.Height), thumb)
		done()
		if err != nil {
			return nil, errors.WithMessage(err, "preview")
		}
		log.Printf("wrote preview %s: %dx%d", cfg.PreviewPath, thumb.Width, thumb.Height)
	}

	prof.RecordMetric("threads", float64(stats.Threads))
	prof.RecordMetric("tiles", float64(stats.Tiles))
	prof.RecordMetric("pixels", float64(src.Width*src.Height))
	for _, w := range stats.Workers {
		prof.RecordMetric("worker_pixels", float64(w.Pixels))
	}
	prof.Attach("workers", stats.Workers)

	if cfg.ReportPath != "" {
		if err := prof.WriteJSON(cfg.ReportPath); err != nil {
			return nil, err
		}
	}
	return res, nil
}
