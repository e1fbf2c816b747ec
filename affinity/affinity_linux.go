//go:build linux

package affinity

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/nvr-ai/go-blur/common"
)

const supported = true

// pinPlatform applies sched_setaffinity to the calling thread (pid 0).
func pinPlatform(cpu int) error {
	var set unix.CPUSet
	if bits := len(set) * int(unsafe.Sizeof(set[0])) * 8; cpu >= bits {
		return common.IOError(errors.Errorf("cpu %d outside the %d-cpu affinity set", cpu, bits), "pin thread")
	}
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return common.IOError(errors.Wrapf(err, "sched_setaffinity cpu %d", cpu), "pin thread")
	}
	return nil
}

// allowedPlatform lists the CPUs in the calling thread's current affinity mask.
func allowedPlatform() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, common.IOError(errors.Wrap(err, "sched_getaffinity"), "query affinity")
	}
	var out []int
	for cpu := 0; cpu < len(set)*int(unsafe.Sizeof(set[0]))*8; cpu++ {
		if set.IsSet(cpu) {
			out = append(out, cpu)
		}
	}
	return out, nil
}
