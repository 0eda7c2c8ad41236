package wgpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/allbackends" // register platform HAL backends

	"github.com/gogpu/frameblur/gfx"
	"github.com/gogpu/frameblur/gfx/shader"
)

// Errors returned by the wgpu device.
var (
	// ErrNoAdapter is returned by Open when no HAL backend exposes an adapter.
	ErrNoAdapter = errors.New("wgpu: no GPU adapter found")

	// ErrProvider is returned by NewFromProvider when the provider does not
	// expose HAL objects.
	ErrProvider = errors.New("wgpu: provider does not expose HAL device")

	// ErrUnsupportedFormat is returned for texture formats the device
	// cannot upload or read back.
	ErrUnsupportedFormat = errors.New("wgpu: unsupported texture format")

	// ErrShortData is returned when texture data is smaller than its layout.
	ErrShortData = errors.New("wgpu: texture data too short")

	// ErrDestroyed is returned when a destroyed resource is used.
	ErrDestroyed = errors.New("wgpu: resource destroyed")

	// ErrClosed is returned when the device was closed.
	ErrClosed = errors.New("wgpu: device closed")

	// ErrFeedback is returned by Draw when a program reads the texture it
	// renders to.
	ErrFeedback = errors.New("wgpu: program reads its own render target")

	// ErrSurfaceClosed is returned by Draw after the render target ended.
	ErrSurfaceClosed = errors.New("wgpu: surface closed")
)

// Name is the device name reported by Device.Name.
const Name = "wgpu"

// halBackends is the order in which Open tries HAL backends.
var halBackends = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
}

// Device is a gfx.Device backed by a wgpu HAL device and queue.
type Device struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  string

	// spirv selects SPIR-V shader modules (Vulkan).
	spirv bool

	// externalDevice is true when the device belongs to a host and must
	// not be destroyed on Close.
	externalDevice bool
	closed         bool

	// blank is bound to texture parameters that hold no texture.
	blank *Texture
}

var _ gfx.Device = (*Device)(nil)

// Open creates a device on the first usable adapter. Discrete and
// integrated GPUs are preferred over other adapter types.
func Open() (*Device, error) {
	var errs []error
	for _, variant := range halBackends {
		backend, ok := hal.GetBackend(variant)
		if !ok {
			continue
		}
		d, err := openBackend(backend)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return d, nil
	}
	return nil, errors.Join(append([]error{ErrNoAdapter}, errs...)...)
}

func openBackend(backend hal.Backend) (*Device, error) {
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: %v: create instance: %w", backend.Variant(), err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: %v", ErrNoAdapter, backend.Variant())
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}
	d := &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		adapter:  selected.Info.Name,
		spirv:    backend.Variant() == gputypes.BackendVulkan,
	}
	slogger().Info("wgpu: device opened", "adapter", selected.Info.Name, "backend", backend.Variant())
	return d, nil
}

// NewWithHAL wraps an existing HAL device and queue. The caller keeps
// ownership of both.
func NewWithHAL(device hal.Device, queue hal.Queue) *Device {
	return &Device{device: device, queue: queue, externalDevice: true}
}

// NewFromProvider uses the device of a host application. The provider
// must either implement HalDevice() any and HalQueue() any, or return
// hal.Device and hal.Queue values from Device and Queue.
func NewFromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	var devAny, queueAny any
	if hp, ok := provider.(halProvider); ok {
		devAny, queueAny = hp.HalDevice(), hp.HalQueue()
	} else {
		devAny, queueAny = provider.Device(), provider.Queue()
	}
	device, ok := devAny.(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: device is %T", ErrProvider, devAny)
	}
	queue, ok := queueAny.(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: queue is %T", ErrProvider, queueAny)
	}
	d := NewWithHAL(device, queue)
	d.adapter = provider.AdapterInfo().Name
	slogger().Info("wgpu: using shared device", "adapter", d.adapter)
	return d, nil
}

// Name returns "wgpu".
func (d *Device) Name() string { return Name }

// Adapter returns the adapter name, if known.
func (d *Device) Adapter() string { return d.adapter }

// SetLogger sets the logger of the wgpu backend.
func (d *Device) SetLogger(l *slog.Logger) { setLogger(l) }

// Close waits for the GPU and releases the device unless it is shared.
// Resources created by the device must be destroyed first.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if err := d.device.WaitIdle(); err != nil {
		slogger().Warn("wgpu: wait idle", "err", err)
	}
	if d.blank != nil {
		d.blank.destroy()
		d.blank = nil
	}
	if !d.externalDevice {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
}

func (d *Device) checkOpen() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return nil
}

// blankTexture returns the 1x1 transparent black texture, creating it on
// first use.
func (d *Device) blankTexture() (*Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	if d.blank != nil {
		return d.blank, nil
	}
	t, err := d.newTexture("blank", 1, 1, gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst)
	if err != nil {
		return nil, err
	}
	if err := t.upload(make([]byte, 4), 0); err != nil {
		t.destroy()
		return nil, err
	}
	d.blank = t
	return t, nil
}

// CreateTexture creates a sampled texture and uploads desc.Data. Nil
// data leaves the contents undefined.
func (d *Device) CreateTexture(desc *gfx.TextureDescriptor) (gfx.Texture, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", gfx.ErrInvalidSize, desc.Width, desc.Height)
	}
	t, err := d.newTexture(desc.Label, desc.Width, desc.Height, desc.Format,
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst|gputypes.TextureUsageCopySrc)
	if err != nil {
		return nil, err
	}
	if desc.Data != nil {
		if err := t.upload(desc.Data, desc.BytesPerRow); err != nil {
			t.destroy()
			return nil, err
		}
	}
	slogger().Debug("wgpu: texture created", "label", desc.Label,
		"width", desc.Width, "height", desc.Height, "format", desc.Format)
	return t, nil
}

// DestroyTexture releases a texture created by CreateTexture.
// Foreign or already destroyed textures are ignored.
func (d *Device) DestroyTexture(t gfx.Texture) {
	tex, ok := t.(*Texture)
	if !ok || tex.dev != d || tex.target {
		return
	}
	tex.destroy()
}

// CreateRenderTarget creates a render target. Its texture is allocated
// on the first Begin and reallocated when the size changes.
func (d *Device) CreateRenderTarget(label string, format gputypes.TextureFormat) (gfx.RenderTarget, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if _, err := bytesPerTexel(format); err != nil {
		return nil, err
	}
	return &RenderTarget{dev: d, label: label, format: format}, nil
}

// CreateEffect compiles src and creates its pipeline layout. Render
// pipelines are created on first use per entry point, blend state and
// target format.
func (d *Device) CreateEffect(src gfx.EffectSource) (gfx.Effect, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	layout, err := shader.Reflect(src.Name, src.Code)
	if err != nil {
		return nil, err
	}
	e, err := newEffect(d, src, layout)
	if err != nil {
		return nil, err
	}
	slogger().Debug("wgpu: effect created", "name", src.Name,
		"uniforms", len(layout.Uniforms), "textures", len(layout.Textures))
	return e, nil
}

// DestroyEffect releases an effect created by CreateEffect.
func (d *Device) DestroyEffect(e gfx.Effect) {
	eff, ok := e.(*Effect)
	if !ok || eff.dev != d {
		return
	}
	eff.destroy()
}

// submit encodes work with fn, submits it and waits for completion.
func (d *Device) submit(label string, fn func(enc hal.CommandEncoder)) error {
	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	defer enc.Destroy()
	if err := enc.BeginEncoding(label); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	fn(enc)
	cmd, err := enc.EndEncoding()
	if err != nil {
		enc.DiscardEncoding()
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmd)
	index, err := d.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	if d.queue.PollCompleted() >= index {
		return nil
	}
	if err := d.device.WaitIdle(); err != nil {
		return fmt.Errorf("wgpu: wait idle: %w", err)
	}
	return nil
}
