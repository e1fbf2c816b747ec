// Package profiler times the stages of a blur run and reports them.
package profiler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-blur/common"
)

// TimeTracker tracks timing statistics for one named operation.
type TimeTracker struct {
	Name  string        `json:"name"`
	Count int64         `json:"count"`
	Total time.Duration `json:"total"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
}

// MetricTracker tracks statistics for one custom metric.
type MetricTracker struct {
	Name  string  `json:"name"`
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Last  float64 `json:"last"`
}

// MemoryMetrics captures memory usage at report time.
type MemoryMetrics struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"`
}

// Report is a snapshot of everything the profiler has recorded.
type Report struct {
	Timestamp  time.Time       `json:"timestamp"`
	Uptime     time.Duration   `json:"uptime"`
	NumCPU     int             `json:"num_cpu"`
	GOMAXPROCS int             `json:"gomaxprocs"`
	Memory     MemoryMetrics   `json:"memory"`
	Operations []TimeTracker   `json:"operations"`
	Metrics    []MetricTracker `json:"metrics"`
	// Attachments holds caller-supplied values such as per-worker stats.
	Attachments map[string]interface{} `json:"attachments,omitempty"`
}

// Profiler records operation timings and metrics. It is safe for concurrent use.
type Profiler struct {
	mu          sync.Mutex
	startTime   time.Time
	operations  map[string]*TimeTracker
	order       []string
	metrics     map[string]*MetricTracker
	attachments map[string]interface{}
}

// New returns a profiler whose uptime starts now.
func New() *Profiler {
	return &Profiler{
		startTime:   time.Now(),
		operations:  make(map[string]*TimeTracker),
		metrics:     make(map[string]*MetricTracker),
		attachments: make(map[string]interface{}),
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track
//
// Returns:
// - A function to call when the operation completes
func (p *Profiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		p.RecordOperation(name, time.Since(start))
	}
}

// RecordOperation adds one completed operation of the given duration.
func (p *Profiler) RecordOperation(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.operations[name]
	if !ok {
		t = &TimeTracker{Name: name, Min: d, Max: d}
		p.operations[name] = t
		p.order = append(p.order, name)
	}
	t.Count++
	t.Total += d
	if d < t.Min {
		t.Min = d
	}
	if d > t.Max {
		t.Max = d
	}
}

// RecordMetric records a custom metric value.
func (p *Profiler) RecordMetric(name string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.metrics[name]
	if !ok {
		m = &MetricTracker{Name: name, Min: value, Max: value}
		p.metrics[name] = m
	}
	m.Count++
	m.Sum += value
	m.Last = value
	if value < m.Min {
		m.Min = value
	}
	if value > m.Max {
		m.Max = value
	}
}

// Attach stores an arbitrary value under key in the report.
func (p *Profiler) Attach(key string, v interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attachments[key] = v
}

// Operation returns the tracker for name.
func (p *Profiler) Operation(name string) (TimeTracker, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.operations[name]
	if !ok {
		return TimeTracker{}, false
	}
	return *t, true
}

// Report returns a snapshot. Operations keep the order they were first seen in;
// metrics are sorted by name.
func (p *Profiler) Report() Report {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	p.mu.Lock()
	defer p.mu.Unlock()

	r := Report{
		Timestamp:  time.Now(),
		Uptime:     time.Since(p.startTime),
		NumCPU:     runtime.NumCPU(),
		GOMAXPROCS: runtime.GOMAXPROCS(0),
		Memory: MemoryMetrics{
			AllocBytes:      ms.Alloc,
			TotalAllocBytes: ms.TotalAlloc,
			SysBytes:        ms.Sys,
			NumGC:           ms.NumGC,
		},
	}
	for _, name := range p.order {
		r.Operations = append(r.Operations, *p.operations[name])
	}
	for _, m := range p.metrics {
		r.Metrics = append(r.Metrics, *m)
	}
	sort.Slice(r.Metrics, func(i, j int) bool { return r.Metrics[i].Name < r.Metrics[j].Name })
	if len(p.attachments) > 0 {
		r.Attachments = make(map[string]interface{}, len(p.attachments))
		for k, v := range p.attachments {
			r.Attachments[k] = v
		}
	}
	return r
}

// WriteSummary prints a human-readable summary of the report.
func (p *Profiler) WriteSummary(w io.Writer) error {
	r := p.Report()

	if _, err := fmt.Fprintf(w, "Execution time: %.3f ms\n", float64(r.Uptime.Microseconds())/1000); err != nil {
		return err
	}
	for _, op := range r.Operations {
		if _, err := fmt.Fprintf(w, "  %s: %v", op.Name, op.Total.Truncate(time.Microsecond)); err != nil {
			return err
		}
		if op.Count > 1 {
			avg := op.Total / time.Duration(op.Count)
			if _, err := fmt.Fprintf(w, " (avg=%v, min=%v, max=%v, count=%d)",
				avg.Truncate(time.Microsecond), op.Min.Truncate(time.Microsecond),
				op.Max.Truncate(time.Microsecond), op.Count); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	for _, m := range r.Metrics {
		if _, err := fmt.Fprintf(w, "  %s: %s\n", m.Name, formatMetric(m)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "  memory: alloc=%s, total=%s\n",
		formatBytes(r.Memory.AllocBytes), formatBytes(r.Memory.TotalAllocBytes))
	return err
}

// WriteJSON writes the report to path as indented JSON.
func (p *Profiler) WriteJSON(path string) error {
	data, err := json.MarshalIndent(p.Report(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal report")
	}
	return common.IOError(os.WriteFile(path, data, 0o644), "write report")
}

func formatMetric(m MetricTracker) string {
	if m.Count == 1 {
		return fmt.Sprintf("%g", m.Last)
	}
	return fmt.Sprintf("avg=%.2f, min=%g, max=%g, samples=%d", m.Sum/float64(m.Count), m.Min, m.Max, m.Count)
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
