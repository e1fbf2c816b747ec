// Package dispatch runs the tiled blur on a fixed set of worker threads.
//
// Work is partitioned before any worker starts. Each worker locks itself to an
// OS thread, optionally pins that thread to a CPU, blurs its own tiles into a
// shared destination bitmap and returns. Workers write disjoint regions and read
// only the source, so the blur itself takes no locks; the optional pixel log is
// the one shared writer and serializes its own appends.
package dispatch

import (
	"runtime"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/nvr-ai/go-blur/affinity"
	"github.com/nvr-ai/go-blur/common"
	"github.com/nvr-ai/go-blur/images/bmp"
	"github.com/nvr-ai/go-blur/images/kernels"
	"github.com/nvr-ai/go-blur/images/tiles"
	"github.com/nvr-ai/go-blur/pixellog"
)

// Options configures a Dispatcher.
type Options struct {
	// Threads is the number of workers. Must be > 0.
	Threads int
	// TileSize is the tile edge in pixels. Zero means tiles.DefaultSize.
	TileSize int
	// Logger receives one entry per pixel. Nil disables the pixel log.
	Logger pixellog.Logger
	// CPUs, when non-empty, pins worker i to CPUs[i % len(CPUs)].
	CPUs []int
	// Pool supplies destination bitmaps. Nil allocates a fresh one per run.
	Pool *kernels.Pool
}

// WorkerStats describes what one worker did.
type WorkerStats struct {
	Worker   int           `json:"worker"`
	CPU      int           `json:"cpu"`
	Tiles    int           `json:"tiles"`
	Pixels   int           `json:"pixels"`
	Duration time.Duration `json:"duration"`
}

// Stats describes one Run.
type Stats struct {
	Threads  int           `json:"threads"`
	TileSize int           `json:"tile_size"`
	Tiles    int           `json:"tiles"`
	Duration time.Duration `json:"duration"`
	Workers  []WorkerStats `json:"workers"`
}

// Dispatcher blurs bitmaps with a fixed worker count.
type Dispatcher struct {
	opts Options
}

// New returns a Dispatcher for opts. Options are validated by Run.
func New(opts Options) *Dispatcher {
	if opts.TileSize == 0 {
		opts.TileSize = tiles.DefaultSize
	}
	if opts.Logger == nil {
		opts.Logger = pixellog.Nop{}
	}
	return &Dispatcher{opts: opts}
}

// Run blurs src into a new bitmap.
//
// Exactly Options.Threads workers are started, even when some have no tiles, and
// Run returns only after every one of them has finished. If any worker fails the
// first error is returned and the partial destination is discarded.
//
// Arguments:
//   - src: The bitmap to blur. It is read concurrently and never modified.
//
// Returns:
//   - *bmp.Bitmap: The blurred image.
//   - *Stats: Per-worker counters and timings.
//   - error: ArgumentError for bad options or an invalid bitmap, otherwise the first worker error.
func (d *Dispatcher) Run(src *bmp.Bitmap) (*bmp.Bitmap, *Stats, error) {
	if !src.Valid() {
		return nil, nil, common.ArgumentErrorf("source bitmap is empty or inconsistent")
	}
	plan, err := tiles.Plan(src.Width, src.Height, d.opts.TileSize, d.opts.Threads)
	if err != nil {
		return nil, nil, err
	}

	dst := d.opts.Pool.Get(src.Width, src.Height)
	stats := &Stats{
		Threads:  d.opts.Threads,
		TileSize: d.opts.TileSize,
		Workers:  make([]WorkerStats, len(plan)),
	}
	for _, a := range plan {
		stats.Tiles += len(a.Tiles)
	}

	start := time.Now()
	var g errgroup.Group
	for _, a := range plan {
		g.Go(func() error {
			ws, err := d.work(src, dst, a)
			// Each worker owns its own slot.
			stats.Workers[a.Worker] = ws
			return err
		})
	}
	err = g.Wait()
	stats.Duration = time.Since(start)

	if err != nil {
		d.opts.Pool.Put(dst)
		return nil, stats, err
	}
	return dst, stats, nil
}

// work runs one assignment on a dedicated OS thread.
func (d *Dispatcher) work(src, dst *bmp.Bitmap, a tiles.Assignment) (WorkerStats, error) {
	// Never unlocked: a pinned thread exits with its goroutine.
	runtime.LockOSThread()
	ws := WorkerStats{Worker: a.Worker, CPU: -1}

	if len(d.opts.CPUs) > 0 {
		ws.CPU = d.opts.CPUs[a.Worker%len(d.opts.CPUs)]
		if err := affinity.Pin(ws.CPU); err != nil {
			return ws, errors.WithMessagef(err, "worker %d", a.Worker)
		}
	}

	start := time.Now()
	var visit kernels.VisitFunc
	if _, nop := d.opts.Logger.(pixellog.Nop); !nop {
		visit = func(x, y int) error {
			return d.opts.Logger.Append(a.Worker, x, y)
		}
	}
	for _, t := range a.Tiles {
		if err := kernels.BlurTile(src, dst, t, visit); err != nil {
			ws.Duration = time.Since(start)
			return ws, errors.WithMessagef(err, "worker %d, %s", a.Worker, t)
		}
		ws.Tiles++
		ws.Pixels += t.Pixels()
	}
	ws.Duration = time.Since(start)
	return ws, nil
}
