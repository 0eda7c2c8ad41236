package frameblur

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/clone"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/frameblur/gfx"
)

// ImageSource is a Source that draws a still image. The image is
// uploaded once as an RGBA8 texture.
type ImageSource struct {
	name   string
	device gfx.Device
	tex    gfx.Texture
}

var _ gfx.Source = (*ImageSource)(nil)

// NewImageSource uploads img to device.
func NewImageSource(device gfx.Device, name string, img image.Image) (*ImageSource, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	rgba := clone.AsRGBA(img)
	b := rgba.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, b.Dx(), b.Dy())
	}

	tex, err := device.CreateTexture(&gfx.TextureDescriptor{
		Label:       name,
		Width:       uint32(b.Dx()),    //nolint:gosec // image bounds are non-negative
		Height:      uint32(b.Dy()),    //nolint:gosec // image bounds are non-negative
		Format:      gputypes.TextureFormatRGBA8Unorm,
		BytesPerRow: uint32(rgba.Stride), //nolint:gosec // stride is non-negative
		Data:        rgba.Pix,
	})
	if err != nil {
		return nil, fmt.Errorf("frameblur: upload %s: %w", name, err)
	}
	return &ImageSource{name: name, device: device, tex: tex}, nil
}

func (s *ImageSource) Name() string { return s.name }

func (s *ImageSource) Size() (width, height uint32) {
	if s.tex == nil {
		return 0, 0
	}
	return s.tex.Width(), s.tex.Height()
}

// Texture returns the uploaded image.
func (s *ImageSource) Texture() gfx.Texture { return s.tex }

// Render draws the image with program, replacing the surface contents.
func (s *ImageSource) Render(surface gfx.Surface, program gfx.Effect) error {
	if s.tex == nil {
		return ErrNoTexture
	}
	if err := gfx.SetParam(program, paramConvertImage, s.tex); err != nil {
		return err
	}
	surface.SetBlend(gputypes.BlendStateReplace())
	return gfx.DrawTechnique(surface, program, TechniqueDraw)
}

// Close releases the texture.
func (s *ImageSource) Close() {
	if s.tex != nil {
		s.device.DestroyTexture(s.tex)
		s.tex = nil
	}
}

// ImageReader is implemented by devices that can read textures back.
type ImageReader interface {
	ReadImage(t gfx.Texture) (*image.RGBA, error)
}
