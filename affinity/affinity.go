// Package affinity pins the calling OS thread to a CPU.
//
// Platform-specific implementations live in affinity_linux.go and
// affinity_other.go. Callers must hold runtime.LockOSThread for the pin to stick
// to their goroutine.
package affinity

import (
	"runtime"
	"strconv"
	"strings"

	"github.com/nvr-ai/go-blur/common"
)

// Pin restricts the calling OS thread to cpu.
func Pin(cpu int) error {
	if cpu < 0 {
		return common.ArgumentErrorf("cpu index must not be negative, got %d", cpu)
	}
	return pinPlatform(cpu)
}

// Supported reports whether Pin can succeed on this platform.
func Supported() bool {
	return supported
}

// Available returns the number of logical CPUs usable by the process.
func Available() int {
	return runtime.NumCPU()
}

// Allowed returns the CPUs the calling thread may currently run on.
func Allowed() ([]int, error) {
	return allowedPlatform()
}

// FirstN returns the CPU list 0..n-1.
func FirstN(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// ParseList parses a list such as "0-3,6,8-9". An empty string yields nil.
func ParseList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || first < 0 {
			return nil, common.ArgumentErrorf("invalid cpu %q in list %q", part, s)
		}
		last := first
		if isRange {
			last, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || last < first {
				return nil, common.ArgumentErrorf("invalid cpu range %q in list %q", part, s)
			}
		}
		for cpu := first; cpu <= last; cpu++ {
			out = append(out, cpu)
		}
	}
	return out, nil
}
