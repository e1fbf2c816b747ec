//go:build !linux

package affinity

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-blur/common"
)

const supported = false

// pinPlatform is a stub for platforms without thread affinity support.
func pinPlatform(cpu int) error {
	return common.IOError(errors.New("affinity: not supported on this platform"), "pin thread")
}

func allowedPlatform() ([]int, error) {
	return FirstN(Available()), nil
}
