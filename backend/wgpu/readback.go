package wgpu

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/frameblur/gfx"
)

// copyPitchAlignment is the required BytesPerRow alignment of
// texture-to-buffer copies.
const copyPitchAlignment = 256

// ReadImage copies an 8-bit texture of this device back to the CPU.
// BGRA textures are swizzled to RGBA.
func (d *Device) ReadImage(t gfx.Texture) (*image.RGBA, error) {
	tex, ok := t.(*Texture)
	if !ok || tex.dev != d {
		return nil, gfx.ErrForeignResource
	}
	if tex.destroyed {
		return nil, ErrDestroyed
	}
	if tex.format != gputypes.TextureFormatRGBA8Unorm && tex.format != gputypes.TextureFormatBGRA8Unorm {
		return nil, fmt.Errorf("%w: readback of %v", ErrUnsupportedFormat, tex.format)
	}
	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	w, h := tex.width, tex.height
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	size := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: tex.label + " staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	usage := gputypes.TextureUsageTextureBinding
	if tex.target {
		usage = gputypes.TextureUsageRenderAttachment
	}
	err = d.submit(tex.label+" readback", func(enc hal.CommandEncoder) {
		enc.TransitionTextures([]hal.TextureBarrier{{
			Texture: tex.tex,
			Usage:   hal.TextureUsageTransition{OldUsage: usage, NewUsage: gputypes.TextureUsageCopySrc},
		}})
		enc.CopyTextureToBuffer(tex.tex, staging, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
			TextureBase:  hal.ImageCopyTexture{Texture: tex.tex, Aspect: gputypes.TextureAspectAll},
			Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		}})
		enc.TransitionTextures([]hal.TextureBarrier{{
			Texture: tex.tex,
			Usage:   hal.TextureUsageTransition{OldUsage: gputypes.TextureUsageCopySrc, NewUsage: usage},
		}})
	})
	if err != nil {
		return nil, err
	}

	mapping, err := d.device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("wgpu: map staging buffer: %w", err)
	}
	defer func() {
		if err := d.device.UnmapBuffer(staging); err != nil {
			slogger().Warn("wgpu: unmap staging buffer", "err", err)
		}
	}()
	data := unsafe.Slice((*byte)(mapping.Ptr), size)

	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	for row := 0; row < int(h); row++ {
		src := data[row*int(alignedBytesPerRow) : row*int(alignedBytesPerRow)+int(bytesPerRow)]
		copy(img.Pix[row*img.Stride:], src)
	}
	if tex.format == gputypes.TextureFormatBGRA8Unorm {
		for i := 0; i+3 < len(img.Pix); i += 4 {
			img.Pix[i], img.Pix[i+2] = img.Pix[i+2], img.Pix[i]
		}
	}
	return img, nil
}
