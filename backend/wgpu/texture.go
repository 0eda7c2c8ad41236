package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/frameblur/gfx"
)

// Texture is a 2D HAL texture with a default view.
type Texture struct {
	dev    *Device
	label  string
	width  uint32
	height uint32
	format gputypes.TextureFormat

	tex  hal.Texture
	view hal.TextureView

	// owned by a render target; DestroyTexture ignores it.
	target    bool
	destroyed bool
}

var _ gfx.Texture = (*Texture)(nil)

func bytesPerTexel(f gputypes.TextureFormat) (uint32, error) {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatR32Float:
		return 4, nil
	case gputypes.TextureFormatRGBA32Float:
		return 16, nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
	}
}

func (d *Device) newTexture(label string, width, height uint32, format gputypes.TextureFormat, usage gputypes.TextureUsage) (*Texture, error) {
	if _, err := bytesPerTexel(format); err != nil {
		return nil, err
	}
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture %s: %w", label, err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           label,
		Format:          format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, fmt.Errorf("wgpu: create texture view %s: %w", label, err)
	}
	return &Texture{
		dev:    d,
		label:  label,
		width:  width,
		height: height,
		format: format,
		tex:    tex,
		view:   view,
	}, nil
}

func (t *Texture) Width() uint32                  { return t.width }
func (t *Texture) Height() uint32                 { return t.height }
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// Label returns the debug label.
func (t *Texture) Label() string { return t.label }

// upload writes tightly or loosely packed rows to the whole texture.
// A zero bytesPerRow means tightly packed.
func (t *Texture) upload(data []byte, bytesPerRow uint32) error {
	bpt, err := bytesPerTexel(t.format)
	if err != nil {
		return err
	}
	row := t.width * bpt
	if bytesPerRow == 0 {
		bytesPerRow = row
	}
	if bytesPerRow < row {
		return fmt.Errorf("%w: row pitch %d < %d", ErrShortData, bytesPerRow, row)
	}
	need := int(bytesPerRow)*int(t.height-1) + int(row)
	if len(data) < need {
		return fmt.Errorf("%w: %d bytes, need %d", ErrShortData, len(data), need)
	}
	err = t.dev.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, Aspect: gputypes.TextureAspectAll},
		data[:need],
		&hal.ImageDataLayout{BytesPerRow: bytesPerRow, RowsPerImage: t.height},
		&hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("wgpu: write texture %s: %w", t.label, err)
	}
	return nil
}

func (t *Texture) destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.dev.device.DestroyTextureView(t.view)
	t.dev.device.DestroyTexture(t.tex)
	t.view = nil
	t.tex = nil
}

type targetState uint8

const (
	targetIdle targetState = iota
	targetBegun
	targetRendered
)

// RenderTarget is a HAL texture rendered through one render pass per
// Begin/End.
type RenderTarget struct {
	dev    *Device
	label  string
	format gputypes.TextureFormat

	tex       *Texture
	surface   *Surface
	state     targetState
	destroyed bool
}

var _ gfx.RenderTarget = (*RenderTarget)(nil)

// Begin starts recording at the given size.
func (rt *RenderTarget) Begin(width, height uint32) (gfx.Surface, error) {
	if rt.destroyed {
		return nil, ErrDestroyed
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", gfx.ErrInvalidSize, width, height)
	}
	if rt.state != targetIdle {
		return nil, gfx.ErrTargetBusy
	}
	if err := rt.dev.checkOpen(); err != nil {
		return nil, err
	}
	if rt.tex == nil || rt.tex.width != width || rt.tex.height != height {
		tex, err := rt.dev.newTexture(rt.label, width, height, rt.format,
			gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopySrc)
		if err != nil {
			return nil, err
		}
		tex.target = true
		if rt.tex != nil {
			rt.tex.destroy()
		}
		rt.tex = tex
		slogger().Debug("wgpu: render target allocated", "label", rt.label, "width", width, "height", height)
	}
	rt.surface = newSurface(rt.tex)
	rt.state = targetBegun
	return rt.surface, nil
}

// End encodes the recorded draws into one render pass and submits it.
// The recording is discarded when submission fails.
func (rt *RenderTarget) End() error {
	if rt.state != targetBegun {
		return gfx.ErrTargetNotBegun
	}
	s := rt.surface
	rt.surface = nil
	rt.state = targetIdle
	err := s.flush()
	s.release()
	if err != nil {
		return fmt.Errorf("wgpu: render target %s: %w", rt.label, err)
	}
	rt.state = targetRendered
	return nil
}

// Reset makes the target available for the next Begin.
func (rt *RenderTarget) Reset() {
	if rt.surface != nil {
		rt.surface.closed = true
		rt.surface.release()
		rt.surface = nil
	}
	rt.state = targetIdle
}

// Texture returns the rendered texture, or nil before End.
func (rt *RenderTarget) Texture() gfx.Texture {
	if rt.state != targetRendered {
		return nil
	}
	return rt.tex
}

// Destroy releases the target. Textures returned earlier become invalid.
func (rt *RenderTarget) Destroy() {
	if rt.destroyed {
		return
	}
	rt.Reset()
	rt.destroyed = true
	if rt.tex != nil {
		rt.tex.destroy()
		rt.tex = nil
	}
}
