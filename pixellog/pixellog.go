// Package pixellog records which worker processed which pixel and when.
//
// Every blur worker shares one Logger, so appends are serialized. The lock is
// held only while a single line is written.
package pixellog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/nvr-ai/go-blur/common"
)

// Logger receives one entry per processed pixel.
type Logger interface {
	// Append records that worker wrote pixel (x, y). Safe for concurrent use.
	Append(worker, x, y int) error
	// Close flushes buffered entries and releases the destination.
	Close() error
}

// Nop discards every entry.
type Nop struct{}

// Append does nothing.
func (Nop) Append(worker, x, y int) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }

// Writer is a Logger that writes lines of the form
//
//	<elapsed_ms> ms, Thread: <worker>, Pixel: (<x>, <y>)
//
// where elapsed_ms counts from the creation of the Writer.
type Writer struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
	start  time.Time
	now    func() time.Time
	lines  int64
	err    error
}

// New returns a Writer appending to w. If w is an io.Closer, Close closes it.
func New(w io.Writer) *Writer {
	l := &Writer{
		w:     bufio.NewWriter(w),
		now:   time.Now,
		start: time.Now(),
	}
	if c, ok := w.(io.Closer); ok {
		l.closer = c
	}
	return l
}

// Create truncates or creates path and returns a Writer for it.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, common.IOError(err, "create pixel log")
	}
	return New(f), nil
}

// Append writes one line. After the first write error every call returns that error.
// Timestamps are taken under the lock, so they never decrease down the file.
func (l *Writer) Append(worker, x, y int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.err != nil {
		return l.err
	}
	elapsed := l.now().Sub(l.start).Milliseconds()
	if _, err := fmt.Fprintf(l.w, "%d ms, Thread: %d, Pixel: (%d, %d)\n", elapsed, worker, x, y); err != nil {
		l.err = common.IOError(err, "append pixel log")
		return l.err
	}
	l.lines++
	return nil
}

// Lines returns how many entries were written.
func (l *Writer) Lines() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lines
}

// Close flushes the buffer and closes the destination if it is closable.
func (l *Writer) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.err
	if ferr := l.w.Flush(); ferr != nil && err == nil {
		err = common.IOError(ferr, "flush pixel log")
	}
	if l.closer != nil {
		if cerr := l.closer.Close(); cerr != nil && err == nil {
			err = common.IOError(cerr, "close pixel log")
		}
		l.closer = nil
	}
	return err
}
