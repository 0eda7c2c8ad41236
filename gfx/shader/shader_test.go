package shader

import (
	"errors"
	"testing"

	"github.com/gogpu/frameblur/effects"
	"github.com/gogpu/frameblur/gfx"
)

const twoPassSource = `
struct Params {
    u_radius: i32,
    u_texelDelta: vec2<f32>,
    strength: f32,
}

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var u_image: texture_2d<f32>;

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> @builtin(position) vec4<f32> {
    let x = f32((index << 1u) & 2u);
    let y = f32(index & 2u);
    return vec4<f32>(x * 2.0 - 1.0, 1.0 - y * 2.0, 0.0, 1.0);
}

@fragment
fn Glow_pass0(@builtin(position) pos: vec4<f32>) -> @location(0) vec4<f32> {
    let c = textureLoad(u_image, vec2<i32>(pos.xy), 0);
    return c * params.strength + vec4<f32>(params.u_texelDelta, 0.0, 0.0) * f32(params.u_radius);
}

@fragment
fn Glow_pass1(@builtin(position) pos: vec4<f32>) -> @location(0) vec4<f32> {
    return textureLoad(u_image, vec2<i32>(pos.xy), 0);
}
`

func TestReflectTwoPass(t *testing.T) {
	l, err := Reflect("glow", twoPassSource)
	if err != nil {
		t.Fatalf("Reflect() error = %v", err)
	}

	if l.VertexEntry != "vs_main" {
		t.Errorf("VertexEntry = %q, want vs_main", l.VertexEntry)
	}
	passes := l.Techniques["Glow"]
	if len(passes) != 2 || passes[0] != "Glow_pass0" || passes[1] != "Glow_pass1" {
		t.Errorf("Techniques[Glow] = %v", passes)
	}

	want := map[string]gfx.ParamKind{
		"u_radius":     gfx.ParamInt,
		"u_texelDelta": gfx.ParamFloat2,
		"strength":     gfx.ParamFloat,
		"u_image":      gfx.ParamTexture,
	}
	got := l.ParamKinds()
	if len(got) != len(want) {
		t.Fatalf("ParamKinds() = %v, want %v", got, want)
	}
	for name, kind := range want {
		if got[name] != kind {
			t.Errorf("ParamKinds()[%s] = %v, want %v", name, got[name], kind)
		}
	}

	radius, _ := l.Uniform("u_radius")
	delta, _ := l.Uniform("u_texelDelta")
	strength, _ := l.Uniform("strength")
	if radius.Offset != 0 || delta.Offset != 8 || strength.Offset != 16 {
		t.Errorf("offsets = %d, %d, %d, want 0, 8, 16", radius.Offset, delta.Offset, strength.Offset)
	}
	if l.UniformSize%16 != 0 || l.UniformSize < 20 {
		t.Errorf("UniformSize = %d", l.UniformSize)
	}
	if len(l.Textures) != 1 || l.Textures[0].Binding != 1 {
		t.Errorf("Textures = %+v", l.Textures)
	}
}

func TestReflectParseError(t *testing.T) {
	_, err := Reflect("broken", "fn main( {")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
}

func TestReflectNoVertex(t *testing.T) {
	src := `
@fragment
fn Draw() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`
	_, err := Reflect("fragment-only", src)
	if !errors.Is(err, ErrNoVertexEntry) {
		t.Fatalf("err = %v, want ErrNoVertexEntry", err)
	}
}

func TestReflectEmbeddedPrograms(t *testing.T) {
	wantTechniques := map[string][]string{
		effects.BoxBlur:         {"Draw", "DrawRegion", "DrawRegionFeather", "DrawRegionFeatherInvert", "DrawRegionInvert"},
		effects.GaussianBlur:    {"Draw", "DrawRegion", "DrawRegionFeather", "DrawRegionFeatherInvert", "DrawRegionInvert"},
		effects.BilateralBlur:   {"Draw", "DrawRegion", "DrawRegionFeather", "DrawRegionFeatherInvert", "DrawRegionInvert"},
		effects.ColorConversion: {"RGBToYUV", "YUVToRGB"},
		effects.Default:         {"Draw"},
	}
	wantParams := map[string][]string{
		effects.BoxBlur:         {"u_image", "u_imageSize", "u_imageTexel", "u_texelDelta", "u_radius", "u_diameter", "regionLeft", "regionFeatherShift"},
		effects.GaussianBlur:    {"u_image", "kernel", "kernelTexel"},
		effects.BilateralBlur:   {"u_image", "bilateralSmoothing", "bilateralSharpness"},
		effects.ColorConversion: {"image"},
		effects.Default:         {"image"},
	}

	for _, e := range effects.Catalog {
		src, err := effects.Load(effects.FS(), e)
		if err != nil {
			t.Fatalf("Load(%s) error = %v", e.Name, err)
		}
		l, err := Reflect(e.Name, src.Code)
		if err != nil {
			t.Fatalf("Reflect(%s) error = %v", e.Name, err)
		}

		names := l.TechniqueNames()
		want := wantTechniques[e.Name]
		if len(names) != len(want) {
			t.Errorf("%s: techniques = %v, want %v", e.Name, names, want)
			continue
		}
		for i := range want {
			if names[i] != want[i] {
				t.Errorf("%s: techniques = %v, want %v", e.Name, names, want)
				break
			}
		}

		kinds := l.ParamKinds()
		for _, p := range wantParams[e.Name] {
			if _, ok := kinds[p]; !ok {
				t.Errorf("%s: missing parameter %s", e.Name, p)
			}
		}
	}
}

func TestSplitPass(t *testing.T) {
	tests := []struct {
		entry string
		tech  string
		pass  int
	}{
		{"Draw", "Draw", 0},
		{"Draw_pass0", "Draw", 0},
		{"Draw_pass3", "Draw", 3},
		{"Draw_passX", "Draw_passX", 0},
		{"_pass1", "_pass1", 0},
	}
	for _, tt := range tests {
		tech, pass := splitPass(tt.entry)
		if tech != tt.tech || pass != tt.pass {
			t.Errorf("splitPass(%q) = (%q, %d), want (%q, %d)", tt.entry, tech, pass, tt.tech, tt.pass)
		}
	}
}

func TestCompileSPIRV(t *testing.T) {
	src, err := effects.Load(effects.FS(), effects.Catalog[len(effects.Catalog)-1])
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	words, err := CompileSPIRV(src.Code)
	if err != nil {
		t.Fatalf("CompileSPIRV() error = %v", err)
	}
	if len(words) == 0 {
		t.Fatal("CompileSPIRV() returned no words")
	}
	// SPIR-V magic number.
	if words[0] != 0x07230203 {
		t.Errorf("first word = %#x, want SPIR-V magic", words[0])
	}
}
