package frameblur

import (
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/frameblur/gfx"
	"github.com/gogpu/frameblur/internal/kernel"
)

// Shared holds the GPU resources common to every filter instance: the
// program registry and the Gaussian kernel texture.
//
// Create it after the device and close it after every Filter created from
// it and before the device is destroyed. The registry and kernel texture
// are read-only between NewShared and Close, so concurrent renders need no
// locking. Resource creation and destruction go through WithGraphics.
type Shared struct {
	device gfx.Device

	// gfxMu brackets resource creation and destruction on device.
	gfxMu  sync.Mutex
	closed bool

	registry    *Registry
	kernelTable *kernel.Table
	kernelTex   gfx.Texture
}

// NewShared loads the programs and uploads the kernel texture.
//
// Program and kernel failures are logged and leave the dependent features
// unavailable; they do not fail NewShared.
func NewShared(device gfx.Device, opts ...Option) (*Shared, error) {
	if device == nil {
		return nil, ErrNilDevice
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	propagateLogger(device, Logger())

	s := &Shared{
		device:      device,
		kernelTable: kernel.Generate(kernel.MaxRadius),
	}

	s.gfxMu.Lock()
	s.registry = loadRegistry(device, o.fsys, o.catalog)
	s.kernelTex = s.uploadKernel()
	s.gfxMu.Unlock()

	openShared.Store(s, struct{}{})
	Logger().Debug("frameblur: shared context ready",
		"device", device.Name(), "programs", s.registry.Names(), "kernel", s.kernelTex != nil)
	return s, nil
}

// uploadKernel creates the kernel texture. A failure is logged and
// returns nil.
func (s *Shared) uploadKernel() gfx.Texture {
	tex, err := s.device.CreateTexture(&gfx.TextureDescriptor{
		Label:       "frameblur kernel",
		Width:       uint32(s.kernelTable.Side), //nolint:gosec // table side is 32
		Height:      uint32(s.kernelTable.Side), //nolint:gosec // table side is 32
		Format:      gputypes.TextureFormatR32Float,
		BytesPerRow: s.kernelTable.BytesPerRow(),
		Data:        s.kernelTable.Bytes(),
	})
	if err != nil {
		Logger().Error("frameblur: failed to create kernel texture", "err", err)
		return nil
	}
	return tex
}

// Device returns the device the resources live on.
func (s *Shared) Device() gfx.Device { return s.device }

// Registry returns the program registry.
func (s *Shared) Registry() *Registry { return s.registry }

// Effect returns a loaded program, or nil.
func (s *Shared) Effect(name string) gfx.Effect { return s.registry.Get(name) }

// Kernel returns the kernel lookup texture, or nil if its creation failed.
func (s *Shared) Kernel() gfx.Texture { return s.kernelTex }

// KernelTable returns the CPU copy of the kernel.
func (s *Shared) KernelTable() *kernel.Table { return s.kernelTable }

// WithGraphics runs fn while holding the resource bracket of s.
// Per-frame rendering does not need it.
func (s *Shared) WithGraphics(fn func() error) error {
	s.gfxMu.Lock()
	defer s.gfxMu.Unlock()
	return fn()
}

// Closed reports whether Close was called.
func (s *Shared) Closed() bool {
	s.gfxMu.Lock()
	defer s.gfxMu.Unlock()
	return s.closed
}

// Close destroys the programs and the kernel texture. Closing twice is
// a no-op.
func (s *Shared) Close() error {
	err := s.WithGraphics(func() error {
		if s.closed {
			return nil
		}
		s.closed = true
		s.registry.release()
		if s.kernelTex != nil {
			s.device.DestroyTexture(s.kernelTex)
			s.kernelTex = nil
		}
		return nil
	})
	openShared.Delete(s)
	return err
}
