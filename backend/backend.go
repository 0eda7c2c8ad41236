package backend

import (
	"errors"

	"github.com/gogpu/frameblur/gfx"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNoBackend is returned by OpenDefault when every registered
	// backend failed to open.
	ErrNoBackend = errors.New("backend: no usable backend")
)

// Backend name constants.
const (
	// NameSoftware is the name of the CPU reference device.
	NameSoftware = "software"
	// NameWGPU is the name of the GPU device (gogpu/wgpu HAL).
	NameWGPU = "wgpu"
)

// Factory opens a device. A factory may fail when its hardware or driver
// is missing; OpenDefault then moves on to the next backend.
type Factory func() (gfx.Device, error)
