package soft

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/frameblur/gfx"
)

// texel is one RGBA value.
type texel [4]float32

// Texture is a CPU texture. Texels are stored as four float32 channels
// regardless of the format; the format decides upload layout and
// quantization.
type Texture struct {
	dev    *Device
	label  string
	width  int
	height int
	format gputypes.TextureFormat
	pix    []texel
}

var _ gfx.Texture = (*Texture)(nil)

func bytesPerTexel(f gputypes.TextureFormat) (int, error) {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm:
		return 4, nil
	case gputypes.TextureFormatR32Float:
		return 4, nil
	case gputypes.TextureFormatRGBA32Float:
		return 16, nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
	}
}

func newTexture(d *Device, label string, w, h int, format gputypes.TextureFormat) (*Texture, error) {
	if _, err := bytesPerTexel(format); err != nil {
		return nil, err
	}
	return &Texture{
		dev:    d,
		label:  label,
		width:  w,
		height: h,
		format: format,
		pix:    make([]texel, w*h),
	}, nil
}

// blankTexture returns a 1x1 transparent black texture. It is not
// counted in Stats and needs no DestroyTexture.
func blankTexture(d *Device) *Texture {
	return &Texture{
		dev:    d,
		label:  "blank",
		width:  1,
		height: 1,
		format: gputypes.TextureFormatRGBA8Unorm,
		pix:    make([]texel, 1),
	}
}

func (t *Texture) Width() uint32                  { return uint32(t.width) }  //nolint:gosec // created from uint32
func (t *Texture) Height() uint32                 { return uint32(t.height) } //nolint:gosec // created from uint32
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// Label returns the debug label.
func (t *Texture) Label() string { return t.label }

// At returns the texel at (x, y), clamped to the texture bounds.
func (t *Texture) At(x, y int) [4]float32 {
	x = min(max(x, 0), t.width-1)
	y = min(max(y, 0), t.height-1)
	return t.pix[y*t.width+x]
}

// upload decodes data laid out with the given row pitch.
// A zero pitch means tightly packed rows.
func (t *Texture) upload(data []byte, bytesPerRow int) error {
	bpp, _ := bytesPerTexel(t.format)
	rowBytes := t.width * bpp
	if bytesPerRow == 0 {
		bytesPerRow = rowBytes
	}
	if bytesPerRow < rowBytes {
		return fmt.Errorf("%w: row pitch %d < %d", ErrShortData, bytesPerRow, rowBytes)
	}
	if need := bytesPerRow*(t.height-1) + rowBytes; len(data) < need {
		return fmt.Errorf("%w: %d bytes, need %d", ErrShortData, len(data), need)
	}

	for y := range t.height {
		row := data[y*bytesPerRow:]
		for x := range t.width {
			t.pix[y*t.width+x] = decodeTexel(t.format, row[x*bpp:])
		}
	}
	return nil
}

func decodeTexel(f gputypes.TextureFormat, b []byte) texel {
	switch f {
	case gputypes.TextureFormatR32Float:
		return texel{math.Float32frombits(binary.LittleEndian.Uint32(b)), 0, 0, 1}
	case gputypes.TextureFormatRGBA32Float:
		var c texel
		for i := range c {
			c[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		}
		return c
	default:
		return texel{float32(b[0]) / 255, float32(b[1]) / 255, float32(b[2]) / 255, float32(b[3]) / 255}
	}
}

func unorm8(v float32) uint8 {
	v = min(max(v, 0), 1)
	return uint8(v*255 + 0.5)
}

// quantize rounds 8-bit formats to their stored precision.
func (t *Texture) quantize() {
	if t.format != gputypes.TextureFormatRGBA8Unorm {
		return
	}
	for i := range t.pix {
		for c := range t.pix[i] {
			t.pix[i][c] = float32(unorm8(t.pix[i][c])) / 255
		}
	}
}

// Image returns the texture as an 8-bit RGBA image.
func (t *Texture) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	for y := range t.height {
		for x := range t.width {
			c := t.pix[y*t.width+x]
			img.SetRGBA(x, y, color.RGBA{unorm8(c[0]), unorm8(c[1]), unorm8(c[2]), unorm8(c[3])})
		}
	}
	return img
}

type targetState int

const (
	targetIdle targetState = iota
	targetBegun
	targetRendered
)

// RenderTarget is a CPU render target.
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

// Begin starts rendering at the given size. The previous contents are
// kept until the surface is cleared.
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
	if rt.tex == nil || rt.tex.Width() != width || rt.tex.Height() != height {
		tex, err := newTexture(rt.dev, rt.label, int(width), int(height), rt.format)
		if err != nil {
			return nil, err
		}
		rt.tex = tex
	}
	rt.surface = newSurface(rt.tex)
	rt.state = targetBegun
	return rt.surface, nil
}

// End finishes rendering and publishes the texture.
func (rt *RenderTarget) End() error {
	if rt.state != targetBegun {
		return gfx.ErrTargetNotBegun
	}
	rt.surface.closed = true
	rt.surface = nil
	rt.tex.quantize()
	rt.state = targetRendered
	return nil
}

// Reset makes the target available for the next Begin.
func (rt *RenderTarget) Reset() {
	if rt.surface != nil {
		rt.surface.closed = true
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
		rt.tex.pix = nil
		rt.tex = nil
	}
	rt.dev.count(&rt.dev.stats.Targets, -1)
}
