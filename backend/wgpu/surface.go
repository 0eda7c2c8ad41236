package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/frameblur/gfx"
)

// drawCall is one recorded fullscreen draw.
type drawCall struct {
	pipeline hal.RenderPipeline
	group    hal.BindGroup
	uniforms hal.Buffer
}

// Surface records the draws of one render pass. Parameter values are
// captured when Draw is called; the pass is encoded by RenderTarget.End.
type Surface struct {
	tex   *Texture
	blend gputypes.BlendState

	clear  *gputypes.Color
	draws  []drawCall
	closed bool
}

var _ gfx.Surface = (*Surface)(nil)

func newSurface(tex *Texture) *Surface {
	return &Surface{tex: tex, blend: gputypes.BlendStateAlpha()}
}

func (s *Surface) Width() uint32  { return s.tex.width }
func (s *Surface) Height() uint32 { return s.tex.height }

// Clear sets the clear color of the pass. Draws recorded before Clear are
// dropped.
func (s *Surface) Clear(c gputypes.Color) {
	if s.closed {
		return
	}
	s.release()
	s.clear = &c
}

// SetBlend sets the blend state of subsequent draws.
func (s *Surface) SetBlend(b gputypes.BlendState) { s.blend = b }

// Draw records one pass of a technique.
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
	entries, ok := eff.layout.Techniques[technique]
	if !ok || pass < 0 || pass >= len(entries) {
		return fmt.Errorf("%w: %s pass %d in %s", gfx.ErrUnknownTechnique, technique, pass, eff.name)
	}

	pipeline, err := eff.pipeline(entries[pass], s.blend, s.tex.format)
	if err != nil {
		return err
	}
	group, uniforms, err := eff.bind(s.tex)
	if err != nil {
		return err
	}
	s.draws = append(s.draws, drawCall{pipeline: pipeline, group: group, uniforms: uniforms})
	return nil
}

// flush encodes the recorded draws into one render pass and submits it.
func (s *Surface) flush() error {
	s.closed = true
	att := hal.RenderPassColorAttachment{
		View:    s.tex.view,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	if s.clear != nil {
		att.LoadOp = gputypes.LoadOpClear
		att.ClearValue = *s.clear
	}
	return s.tex.dev.submit(s.tex.label, func(enc hal.CommandEncoder) {
		rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label:            s.tex.label,
			ColorAttachments: []hal.RenderPassColorAttachment{att},
		})
		for _, dc := range s.draws {
			rp.SetPipeline(dc.pipeline)
			rp.SetBindGroup(0, dc.group, nil)
			rp.Draw(3, 1, 0, 0)
		}
		rp.End()
	})
}

// release frees the per-draw resources.
func (s *Surface) release() {
	d := s.tex.dev.device
	for _, dc := range s.draws {
		d.DestroyBindGroup(dc.group)
		if dc.uniforms != nil {
			d.DestroyBuffer(dc.uniforms)
		}
	}
	s.draws = nil
}
