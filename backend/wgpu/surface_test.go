package wgpu

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/frameblur/effects"
	"github.com/gogpu/frameblur/gfx"
)

func newTarget(t *testing.T, d *Device) gfx.RenderTarget {
	t.Helper()
	rt, err := d.CreateRenderTarget("pass", gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatalf("CreateRenderTarget: %v", err)
	}
	t.Cleanup(rt.Destroy)
	return rt
}

func TestEffectReflection(t *testing.T) {
	d, _ := newTestDevice(t)

	tests := []struct {
		name       string
		params     map[string]gfx.ParamKind
		techniques int
	}{
		{effects.BoxBlur, map[string]gfx.ParamKind{"u_image": gfx.ParamTexture, "u_radius": gfx.ParamInt, "u_texelDelta": gfx.ParamFloat2, "regionFeather": gfx.ParamFloat}, 5},
		{effects.GaussianBlur, map[string]gfx.ParamKind{"kernel": gfx.ParamTexture, "kernelTexel": gfx.ParamFloat2}, 5},
		{effects.BilateralBlur, map[string]gfx.ParamKind{"bilateralSmoothing": gfx.ParamFloat, "bilateralSharpness": gfx.ParamFloat}, 5},
		{effects.ColorConversion, map[string]gfx.ParamKind{"image": gfx.ParamTexture}, 2},
		{effects.Default, map[string]gfx.ParamKind{"image": gfx.ParamTexture}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := loadEffect(t, d, tt.name)
			for name, kind := range tt.params {
				p, ok := e.Param(name)
				if !ok {
					t.Errorf("Param(%q) missing", name)
					continue
				}
				if p.Kind() != kind {
					t.Errorf("Param(%q).Kind() = %v, want %v", name, p.Kind(), kind)
				}
			}
			if got := len(e.Techniques()); got != tt.techniques {
				t.Errorf("len(Techniques()) = %d, want %d", got, tt.techniques)
			}
			if n, ok := e.Technique(e.Techniques()[0]); !ok || n != 1 {
				t.Errorf("Technique() = %d, %v, want 1 pass", n, ok)
			}
			if e.HasParam("missing") {
				t.Error("HasParam(missing) = true")
			}
		})
	}
}

func TestUniformData(t *testing.T) {
	d, _ := newTestDevice(t)
	e := loadEffect(t, d, effects.BoxBlur)

	if err := gfx.SetParam(e, "u_radius", int32(7)); err != nil {
		t.Fatal(err)
	}
	if err := gfx.SetParam(e, "u_texelDelta", [2]float32{0.25, 0.5}); err != nil {
		t.Fatal(err)
	}
	if err := gfx.SetParam(e, "regionFeather", float32(0.125)); err != nil {
		t.Fatal(err)
	}

	data := e.uniformData()
	if len(data)%16 != 0 || len(data) == 0 {
		t.Fatalf("uniform size = %d, want a non-zero multiple of 16", len(data))
	}
	f32 := func(off uint32) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(data[off:])) }

	radius, _ := e.layout.Uniform("u_radius")
	if got := int32(binary.LittleEndian.Uint32(data[radius.Offset:])); got != 7 {
		t.Errorf("u_radius = %d, want 7", got)
	}
	delta, _ := e.layout.Uniform("u_texelDelta")
	if f32(delta.Offset) != 0.25 || f32(delta.Offset+4) != 0.5 {
		t.Errorf("u_texelDelta = (%v, %v), want (0.25, 0.5)", f32(delta.Offset), f32(delta.Offset+4))
	}
	feather, _ := e.layout.Uniform("regionFeather")
	if f32(feather.Offset) != 0.125 {
		t.Errorf("regionFeather = %v, want 0.125", f32(feather.Offset))
	}
	size, _ := e.layout.Uniform("u_imageSize")
	if f32(size.Offset) != 0 {
		t.Errorf("unset u_imageSize = %v, want 0", f32(size.Offset))
	}
}

func TestRenderPassEncoding(t *testing.T) {
	d, rec := newTestDevice(t)
	e := loadEffect(t, d, effects.Default)
	in := newTexture(t, d, 8, 8)
	rt := newTarget(t, d)

	for frame := 0; frame < 2; frame++ {
		rt.Reset()
		s, err := rt.Begin(8, 8)
		if err != nil {
			t.Fatalf("Begin() error = %v", err)
		}
		s.Clear(gputypes.Color{A: 1})
		s.SetBlend(gputypes.BlendStateReplace())
		if err := gfx.SetParam(e, "image", in); err != nil {
			t.Fatal(err)
		}
		if err := gfx.DrawTechnique(s, e, "Draw"); err != nil {
			t.Fatalf("DrawTechnique() error = %v", err)
		}
		if err := s.Draw(e, "Draw", 0); err != nil {
			t.Fatalf("Draw() error = %v", err)
		}
		if err := rt.End(); err != nil {
			t.Fatalf("End() error = %v", err)
		}
		if rt.Texture() == nil {
			t.Fatal("Texture() = nil after End")
		}
	}

	if len(rec.passes) != 2 {
		t.Fatalf("render passes = %d, want 2", len(rec.passes))
	}
	for i, p := range rec.passes {
		if p.load != gputypes.LoadOpClear || p.clear.A != 1 {
			t.Errorf("pass %d load = %v clear = %v, want clear to opaque", i, p.load, p.clear)
		}
		if p.draws != 2 {
			t.Errorf("pass %d draws = %d, want 2", i, p.draws)
		}
	}
	if rec.pipelines != 1 || e.Pipelines() != 1 {
		t.Errorf("pipelines = %d (cached %d), want 1", rec.pipelines, e.Pipelines())
	}
	if rec.bindGroups != 4 || rec.freedGroups != 4 {
		t.Errorf("bind groups created/freed = %d/%d, want 4/4", rec.bindGroups, rec.freedGroups)
	}
}

func TestRenderPassLoadsWithoutClear(t *testing.T) {
	d, rec := newTestDevice(t)
	e := loadEffect(t, d, effects.BoxBlur)
	in := newTexture(t, d, 4, 4)
	rt := newTarget(t, d)

	s, err := rt.Begin(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := gfx.SetParam(e, "u_image", in); err != nil {
		t.Fatal(err)
	}
	s.SetBlend(gputypes.BlendStateReplace())
	if err := s.Draw(e, "DrawRegionFeather", 0); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	s.SetBlend(gputypes.BlendStateAlpha())
	if err := s.Draw(e, "DrawRegionFeather", 0); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if err := rt.End(); err != nil {
		t.Fatal(err)
	}
	if len(rec.passes) != 1 || rec.passes[0].load != gputypes.LoadOpLoad {
		t.Fatalf("passes = %+v, want one loading pass", rec.passes)
	}
	if e.Pipelines() != 2 {
		t.Errorf("Pipelines() = %d, want one per blend state", e.Pipelines())
	}
	if rec.buffers != rec.freedBuffers || rec.buffers != 2 {
		t.Errorf("uniform buffers created/freed = %d/%d, want 2/2", rec.buffers, rec.freedBuffers)
	}
}

func TestDrawErrors(t *testing.T) {
	d, rec := newTestDevice(t)
	e := loadEffect(t, d, effects.Default)
	rt := newTarget(t, d)
	in := newTexture(t, d, 4, 4)

	other, _ := newTestDevice(t)
	foreign := loadEffect(t, other, effects.Default)

	s, err := rt.Begin(4, 4)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Draw(e, "Draw", 0); err != nil {
		t.Errorf("unbound Draw() error = %v", err)
	}
	if err := s.Draw(foreign, "Draw", 0); !errors.Is(err, gfx.ErrForeignResource) {
		t.Errorf("foreign Draw() error = %v, want ErrForeignResource", err)
	}
	if err := gfx.SetParam(e, "image", in); err != nil {
		t.Fatal(err)
	}
	if err := s.Draw(e, "Blur", 0); !errors.Is(err, gfx.ErrUnknownTechnique) {
		t.Errorf("unknown technique error = %v, want ErrUnknownTechnique", err)
	}
	if err := s.Draw(e, "Draw", 1); !errors.Is(err, gfx.ErrUnknownTechnique) {
		t.Errorf("pass 1 error = %v, want ErrUnknownTechnique", err)
	}

	rec.failBindGroups = true
	if err := s.Draw(e, "Draw", 0); err == nil {
		t.Error("Draw() with failing bind group succeeded")
	}
	rec.failBindGroups = false

	if err := rt.End(); err != nil {
		t.Fatal(err)
	}
	if err := s.Draw(e, "Draw", 0); !errors.Is(err, ErrSurfaceClosed) {
		t.Errorf("Draw() after End error = %v, want ErrSurfaceClosed", err)
	}

	// Sampling the target while rendering into it.
	rt.Reset()
	s, err = rt.Begin(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := gfx.SetParam(e, "image", s.(*Surface).tex); err != nil {
		t.Fatal(err)
	}
	if err := s.Draw(e, "Draw", 0); !errors.Is(err, ErrFeedback) {
		t.Errorf("feedback Draw() error = %v, want ErrFeedback", err)
	}
	rt.Reset()

	d.DestroyEffect(e)
	s, _ = rt.Begin(4, 4)
	if err := s.Draw(e, "Draw", 0); !errors.Is(err, ErrDestroyed) {
		t.Errorf("destroyed effect Draw() error = %v, want ErrDestroyed", err)
	}
}

func TestPipelineFailure(t *testing.T) {
	d, rec := newTestDevice(t)
	e := loadEffect(t, d, effects.Default)
	rt := newTarget(t, d)
	if err := gfx.SetParam(e, "image", newTexture(t, d, 2, 2)); err != nil {
		t.Fatal(err)
	}

	rec.failPipeline = true
	s, err := rt.Begin(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Draw(e, "Draw", 0); err == nil {
		t.Fatal("Draw() succeeded with failing pipeline creation")
	}
	if e.Pipelines() != 0 {
		t.Errorf("Pipelines() = %d after failure, want 0", e.Pipelines())
	}
}

func TestRenderTargetContract(t *testing.T) {
	d, _ := newTestDevice(t)
	rt := newTarget(t, d)

	if err := rt.End(); !errors.Is(err, gfx.ErrTargetNotBegun) {
		t.Errorf("End() before Begin error = %v, want ErrTargetNotBegun", err)
	}
	if _, err := rt.Begin(0, 4); !errors.Is(err, gfx.ErrInvalidSize) {
		t.Errorf("Begin(0, 4) error = %v, want ErrInvalidSize", err)
	}
	s, err := rt.Begin(4, 2)
	if err != nil {
		t.Fatal(err)
	}
	if s.Width() != 4 || s.Height() != 2 {
		t.Errorf("surface = %dx%d, want 4x2", s.Width(), s.Height())
	}
	if _, err := rt.Begin(4, 2); !errors.Is(err, gfx.ErrTargetBusy) {
		t.Errorf("second Begin() error = %v, want ErrTargetBusy", err)
	}
	if rt.Texture() != nil {
		t.Error("Texture() before End is not nil")
	}
	if err := rt.End(); err != nil {
		t.Fatal(err)
	}
	tex := rt.Texture()
	if tex == nil {
		t.Fatal("Texture() after End is nil")
	}
	if _, err := rt.Begin(4, 2); !errors.Is(err, gfx.ErrTargetBusy) {
		t.Errorf("Begin() before Reset error = %v, want ErrTargetBusy", err)
	}

	// Render target textures are owned by the target.
	d.DestroyTexture(tex)
	if tex.(*Texture).destroyed {
		t.Error("DestroyTexture released a render target texture")
	}

	rt.Reset()
	if rt.Texture() != nil {
		t.Error("Texture() after Reset is not nil")
	}
	if _, err := rt.Begin(8, 8); err != nil {
		t.Fatalf("Begin() at new size error = %v", err)
	}
	if !tex.(*Texture).destroyed {
		t.Error("resized target kept its old texture")
	}

	rt.Destroy()
	rt.Destroy()
	if _, err := rt.Begin(8, 8); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Begin() after Destroy error = %v, want ErrDestroyed", err)
	}
	if _, err := d.CreateRenderTarget("bad", gputypes.TextureFormatDepth32Float); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("CreateRenderTarget(depth) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestUnboundTextureReadsBlank(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	rec := &recorder{}
	d := NewWithHAL(&recordingDevice{Device: device, rec: rec}, queue)

	e := loadEffect(t, d, effects.Default)
	rt := newTarget(t, d)
	for range 2 {
		rt.Reset()
		s, err := rt.Begin(4, 4)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Draw(e, "Draw", 0); err != nil {
			t.Fatalf("Draw() error = %v", err)
		}
		if err := rt.End(); err != nil {
			t.Fatalf("End() error = %v", err)
		}
	}
	if d.blank == nil || d.blank.width != 1 || d.blank.height != 1 {
		t.Fatalf("blank texture = %+v, want 1x1", d.blank)
	}
	blank := d.blank

	rt.Destroy()
	d.DestroyEffect(e)
	d.Close()
	if !blank.destroyed {
		t.Error("Close left the blank texture alive")
	}
	if rec.textures != rec.freedTextures {
		t.Errorf("textures created/freed = %d/%d", rec.textures, rec.freedTextures)
	}
}
