package soft

import (
	"fmt"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/frameblur/gfx"
)

// Surface draws into a render target texture between Begin and End.
type Surface struct {
	tex    *Texture
	blend  gputypes.BlendState
	closed bool
}

var _ gfx.Surface = (*Surface)(nil)

func newSurface(tex *Texture) *Surface {
	return &Surface{tex: tex, blend: gputypes.BlendStateAlpha()}
}

func (s *Surface) Width() uint32  { return s.tex.Width() }
func (s *Surface) Height() uint32 { return s.tex.Height() }

// Clear fills the surface with c.
func (s *Surface) Clear(c gputypes.Color) {
	v := texel{float32(c.R), float32(c.G), float32(c.B), float32(c.A)}
	for i := range s.tex.pix {
		s.tex.pix[i] = v
	}
}

// SetBlend sets the blend state of subsequent draws.
func (s *Surface) SetBlend(b gputypes.BlendState) { s.blend = b }

// Draw runs one pass of a technique over every texel of the surface.
func (s *Surface) Draw(e gfx.Effect, technique string, pass int) error {
	if s.closed {
		return ErrSurfaceClosed
	}
	eff, ok := e.(*Effect)
	if !ok || eff.dev != s.tex.dev {
		return fmt.Errorf("%w: effect %s", gfx.ErrForeignResource, e.Name())
	}
	if eff.destroyed {
		return fmt.Errorf("%w: effect %s", ErrDestroyed, eff.name)
	}
	build, ok := eff.prog.techniques[technique]
	if !ok {
		return fmt.Errorf("%w: %s in %s", gfx.ErrUnknownTechnique, technique, eff.name)
	}
	if pass != 0 {
		return fmt.Errorf("%w: %s pass %d", gfx.ErrUnknownTechnique, technique, pass)
	}

	b, err := eff.bind(s.tex)
	if err != nil {
		return err
	}
	frag := build(b)

	w, h := s.tex.width, s.tex.height
	fw, fh := float32(w), float32(h)
	blend := s.blend
	pix := s.tex.pix
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			v := (float32(y) + 0.5) / fh
			for x := range w {
				u := (float32(x) + 0.5) / fw
				i := y*w + x
				pix[i] = blendTexel(blend, frag(u, v), pix[i])
			}
		}
	})

	slogger().Debug("soft: draw", "effect", eff.name, "technique", technique,
		"width", w, "height", h)
	return nil
}

func blendTexel(b gputypes.BlendState, src, dst texel) texel {
	var out texel
	for c := range 3 {
		out[c] = blendChannel(b.Color, src[c], dst[c], src, dst)
	}
	out[3] = blendChannel(b.Alpha, src[3], dst[3], src, dst)
	return out
}

func blendChannel(bc gputypes.BlendComponent, s, d float32, src, dst texel) float32 {
	sf := blendFactor(bc.SrcFactor, s, d, src, dst)
	df := blendFactor(bc.DstFactor, s, d, src, dst)
	switch bc.Operation {
	case gputypes.BlendOperationSubtract:
		return s*sf - d*df
	case gputypes.BlendOperationReverseSubtract:
		return d*df - s*sf
	case gputypes.BlendOperationMin:
		return min(s, d)
	case gputypes.BlendOperationMax:
		return max(s, d)
	default:
		return s*sf + d*df
	}
}

// blendFactor evaluates f for one channel. Constant factors use an opaque
// white blend constant.
func blendFactor(f gputypes.BlendFactor, s, d float32, src, dst texel) float32 {
	switch f {
	case gputypes.BlendFactorZero:
		return 0
	case gputypes.BlendFactorSrc:
		return s
	case gputypes.BlendFactorOneMinusSrc:
		return 1 - s
	case gputypes.BlendFactorSrcAlpha:
		return src[3]
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return 1 - src[3]
	case gputypes.BlendFactorDst:
		return d
	case gputypes.BlendFactorOneMinusDst:
		return 1 - d
	case gputypes.BlendFactorDstAlpha:
		return dst[3]
	case gputypes.BlendFactorOneMinusDstAlpha:
		return 1 - dst[3]
	case gputypes.BlendFactorSrcAlphaSaturated:
		return min(src[3], 1-dst[3])
	case gputypes.BlendFactorOneMinusConstant:
		return 0
	default:
		return 1
	}
}
