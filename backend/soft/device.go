package soft

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/frameblur/gfx"
)

// Errors returned by the software device.
var (
	// ErrUnsupportedFormat is returned for texture formats the device cannot store.
	ErrUnsupportedFormat = errors.New("soft: unsupported texture format")

	// ErrShortData is returned when texture data is smaller than its layout.
	ErrShortData = errors.New("soft: texture data too short")

	// ErrUnknownProgram is returned by CreateEffect for programs without a
	// software implementation.
	ErrUnknownProgram = errors.New("soft: unknown program")

	// ErrDestroyed is returned when a destroyed resource is used.
	ErrDestroyed = errors.New("soft: resource destroyed")

	// ErrFeedback is returned by Draw when a program reads the texture it
	// renders to.
	ErrFeedback = errors.New("soft: program reads its own render target")

	// ErrSurfaceClosed is returned by Draw after the render target ended.
	ErrSurfaceClosed = errors.New("soft: surface closed")
)

// Name is the device name reported by Device.Name.
const Name = "software"

// Stats counts the live resources of a device.
type Stats struct {
	Textures int
	Targets  int
	Effects  int
}

// Device is a CPU implementation of gfx.Device.
// Resource creation is safe for concurrent use.
type Device struct {
	mu    sync.Mutex
	stats Stats
}

var _ gfx.Device = (*Device)(nil)

// New creates a software device.
func New() *Device {
	return &Device{}
}

// Name returns "software".
func (d *Device) Name() string { return Name }

// SetLogger sets the logger of the software backend.
func (d *Device) SetLogger(l *slog.Logger) { setLogger(l) }

// Stats returns the number of live resources.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Device) count(field *int, delta int) {
	d.mu.Lock()
	*field += delta
	d.mu.Unlock()
}

// CreateTexture creates a texture initialized from desc.Data.
// Nil data yields a zeroed texture.
func (d *Device) CreateTexture(desc *gfx.TextureDescriptor) (gfx.Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", gfx.ErrInvalidSize, desc.Width, desc.Height)
	}
	t, err := newTexture(d, desc.Label, int(desc.Width), int(desc.Height), desc.Format)
	if err != nil {
		return nil, err
	}
	if desc.Data != nil {
		if err := t.upload(desc.Data, int(desc.BytesPerRow)); err != nil {
			return nil, err
		}
	}
	d.count(&d.stats.Textures, 1)
	slogger().Debug("soft: texture created", "label", desc.Label,
		"width", desc.Width, "height", desc.Height, "format", desc.Format)
	return t, nil
}

// DestroyTexture releases a texture created by CreateTexture.
// Foreign or already destroyed textures are ignored.
func (d *Device) DestroyTexture(t gfx.Texture) {
	tex, ok := t.(*Texture)
	if !ok || tex.dev != d || tex.pix == nil {
		return
	}
	tex.pix = nil
	d.count(&d.stats.Textures, -1)
}

// CreateRenderTarget creates a render target. Its texture is allocated
// on the first Begin and reallocated when the size changes.
func (d *Device) CreateRenderTarget(label string, format gputypes.TextureFormat) (gfx.RenderTarget, error) {
	if _, err := bytesPerTexel(format); err != nil {
		return nil, err
	}
	d.count(&d.stats.Targets, 1)
	return &RenderTarget{dev: d, label: label, format: format}, nil
}

// CreateEffect instantiates the software version of the named program.
func (d *Device) CreateEffect(src gfx.EffectSource) (gfx.Effect, error) {
	prog, ok := programs[src.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProgram, src.Name)
	}
	d.count(&d.stats.Effects, 1)
	return newEffect(d, src.Name, prog), nil
}

// DestroyEffect releases an effect created by CreateEffect.
func (d *Device) DestroyEffect(e gfx.Effect) {
	eff, ok := e.(*Effect)
	if !ok || eff.dev != d || eff.destroyed {
		return
	}
	eff.destroyed = true
	d.count(&d.stats.Effects, -1)
}

// ReadImage returns a texture of this device as an 8-bit RGBA image.
func (d *Device) ReadImage(t gfx.Texture) (*image.RGBA, error) {
	tex, ok := t.(*Texture)
	if !ok || tex.dev != d {
		return nil, gfx.ErrForeignResource
	}
	if tex.pix == nil {
		return nil, ErrDestroyed
	}
	return tex.Image(), nil
}
