package frameblur

import (
	"errors"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/frameblur/effects"
	"github.com/gogpu/frameblur/gfx"
)

// Recording fakes for the gfx contract. Programs declare the same
// parameters and techniques as the embedded WGSL programs.

var errFake = errors.New("fake failure")

var blurTechniques = []string{
	TechniqueDraw,
	TechniqueDrawRegion,
	TechniqueDrawRegionInvert,
	TechniqueDrawRegionFeather,
	TechniqueDrawRegionFeatherInvert,
}

func blurParams(extra map[string]gfx.ParamKind) map[string]gfx.ParamKind {
	p := map[string]gfx.ParamKind{
		paramImage:      gfx.ParamTexture,
		paramImageSize:  gfx.ParamFloat2,
		paramImageTexel: gfx.ParamFloat2,
		paramTexelDelta: gfx.ParamFloat2,
		paramRadius:     gfx.ParamInt,
		paramDiameter:   gfx.ParamInt,
	}
	for _, name := range regionParamNames {
		p[name] = gfx.ParamFloat
	}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

type programDecl struct {
	params     map[string]gfx.ParamKind
	techniques []string
}

func defaultDecls() map[string]programDecl {
	return map[string]programDecl{
		effects.BoxBlur: {blurParams(nil), blurTechniques},
		effects.GaussianBlur: {blurParams(map[string]gfx.ParamKind{
			paramKernel:      gfx.ParamTexture,
			paramKernelTexel: gfx.ParamFloat2,
		}), blurTechniques},
		effects.BilateralBlur: {blurParams(map[string]gfx.ParamKind{
			paramSmoothing: gfx.ParamFloat,
			paramSharpness: gfx.ParamFloat,
		}), blurTechniques},
		effects.ColorConversion: {
			map[string]gfx.ParamKind{paramConvertImage: gfx.ParamTexture},
			[]string{techniqueRGBToYUV, techniqueYUVToRGB},
		},
		effects.Default: {
			map[string]gfx.ParamKind{paramConvertImage: gfx.ParamTexture},
			[]string{TechniqueDraw},
		},
	}
}

type fakeTexture struct {
	label  string
	w, h   uint32
	format gputypes.TextureFormat
}

func (t *fakeTexture) Width() uint32                  { return t.w }
func (t *fakeTexture) Height() uint32                 { return t.h }
func (t *fakeTexture) Format() gputypes.TextureFormat { return t.format }

type fakeEffect struct {
	name       string
	params     map[string]*gfx.BasicParam
	techniques map[string]int
}

func newFakeEffect(name string, d programDecl) *fakeEffect {
	e := &fakeEffect{
		name:       name,
		params:     make(map[string]*gfx.BasicParam, len(d.params)),
		techniques: make(map[string]int, len(d.techniques)),
	}
	for p, kind := range d.params {
		e.params[p] = gfx.NewBasicParam(p, kind)
	}
	for _, t := range d.techniques {
		e.techniques[t] = 1
	}
	return e
}

func (e *fakeEffect) Name() string { return e.name }

func (e *fakeEffect) Param(name string) (gfx.Param, bool) {
	p, ok := e.params[name]
	if !ok {
		return nil, false
	}
	return p, true
}

func (e *fakeEffect) HasParam(name string) bool {
	_, ok := e.params[name]
	return ok
}

func (e *fakeEffect) Technique(name string) (int, bool) {
	n, ok := e.techniques[name]
	return n, ok
}

// drawRecord is one recorded draw with a snapshot of the parameters.
type drawRecord struct {
	target    string
	effect    string
	technique string
	pass      int
	blend     gputypes.BlendState
	cleared   bool
	params    map[string]gfx.Value
}

type fakeDevice struct {
	decls map[string]programDecl

	failEffect  string
	failKernel  bool
	failTargets bool

	// onTarget runs before every render target creation.
	onTarget func()

	created   map[string]*fakeEffect
	targets   map[string]*fakeTarget
	textures  []*fakeTexture
	destroyed []string
	draws     []drawRecord
	logger    *slog.Logger
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		decls:   defaultDecls(),
		created: make(map[string]*fakeEffect),
		targets: make(map[string]*fakeTarget),
	}
}

func (d *fakeDevice) Name() string { return "fake" }

func (d *fakeDevice) SetLogger(l *slog.Logger) { d.logger = l }

func (d *fakeDevice) CreateTexture(desc *gfx.TextureDescriptor) (gfx.Texture, error) {
	if d.failKernel {
		return nil, errFake
	}
	t := &fakeTexture{label: desc.Label, w: desc.Width, h: desc.Height, format: desc.Format}
	d.textures = append(d.textures, t)
	return t, nil
}

func (d *fakeDevice) DestroyTexture(t gfx.Texture) {
	d.destroyed = append(d.destroyed, "texture:"+t.(*fakeTexture).label)
}

func (d *fakeDevice) CreateRenderTarget(label string, format gputypes.TextureFormat) (gfx.RenderTarget, error) {
	if d.onTarget != nil {
		d.onTarget()
	}
	if d.failTargets {
		return nil, errFake
	}
	rt := &fakeTarget{dev: d, label: label, format: format}
	d.targets[label] = rt
	return rt, nil
}

func (d *fakeDevice) CreateEffect(src gfx.EffectSource) (gfx.Effect, error) {
	if src.Name == d.failEffect {
		return nil, errFake
	}
	decl, ok := d.decls[src.Name]
	if !ok {
		return nil, errFake
	}
	e := newFakeEffect(src.Name, decl)
	d.created[src.Name] = e
	return e, nil
}

func (d *fakeDevice) DestroyEffect(e gfx.Effect) {
	d.destroyed = append(d.destroyed, "effect:"+e.Name())
}

// target returns the render target created with the given short label.
func (d *fakeDevice) target(label string) *fakeTarget {
	return d.targets["frameblur "+label]
}

func (d *fakeDevice) targetOps() int {
	n := 0
	for _, t := range d.targets {
		n += t.ops
	}
	return n
}

// drawsTo returns the draws recorded on the named target.
func (d *fakeDevice) drawsTo(target string) []drawRecord {
	var out []drawRecord
	for _, r := range d.draws {
		if r.target == target {
			out = append(out, r)
		}
	}
	return out
}

type fakeTarget struct {
	dev    *fakeDevice
	label  string
	format gputypes.TextureFormat

	ops       int
	begun     bool
	rendered  bool
	failBegin bool
	failEnd   bool
	destroyed bool
	tex       *fakeTexture
}

func (t *fakeTarget) Reset() {
	t.ops++
	t.rendered = false
}

func (t *fakeTarget) Begin(w, h uint32) (gfx.Surface, error) {
	t.ops++
	if t.failBegin {
		return nil, errFake
	}
	if t.begun || t.rendered {
		return nil, gfx.ErrTargetBusy
	}
	t.begun = true
	t.tex = &fakeTexture{label: t.label, w: w, h: h, format: t.format}
	return newFakeSurface(t.dev, shortLabel(t.label), w, h), nil
}

func (t *fakeTarget) End() error {
	t.ops++
	if !t.begun {
		return gfx.ErrTargetNotBegun
	}
	t.begun = false
	if t.failEnd {
		return errFake
	}
	t.rendered = true
	return nil
}

func (t *fakeTarget) Texture() gfx.Texture {
	t.ops++
	if !t.rendered {
		return nil
	}
	return t.tex
}

func (t *fakeTarget) Destroy() { t.destroyed = true }

func shortLabel(label string) string {
	const prefix = "frameblur "
	if len(label) > len(prefix) && label[:len(prefix)] == prefix {
		return label[len(prefix):]
	}
	return label
}

type fakeSurface struct {
	dev     *fakeDevice
	name    string
	w, h    uint32
	blend   gputypes.BlendState
	cleared bool
}

func newFakeSurface(d *fakeDevice, name string, w, h uint32) *fakeSurface {
	return &fakeSurface{dev: d, name: name, w: w, h: h, blend: gputypes.BlendStateAlpha()}
}

func (s *fakeSurface) Width() uint32                  { return s.w }
func (s *fakeSurface) Height() uint32                 { return s.h }
func (s *fakeSurface) Clear(gputypes.Color)           { s.cleared = true }
func (s *fakeSurface) SetBlend(b gputypes.BlendState) { s.blend = b }

func (s *fakeSurface) Draw(e gfx.Effect, technique string, pass int) error {
	if _, ok := e.Technique(technique); !ok {
		return gfx.ErrUnknownTechnique
	}
	rec := drawRecord{
		target:    s.name,
		effect:    e.Name(),
		technique: technique,
		pass:      pass,
		blend:     s.blend,
		cleared:   s.cleared,
		params:    make(map[string]gfx.Value),
	}
	if fe, ok := e.(*fakeEffect); ok {
		for name, p := range fe.params {
			rec.params[name] = p.Value()
		}
	}
	s.dev.draws = append(s.dev.draws, rec)
	return nil
}

type fakeSource struct {
	name      string
	w, h      uint32
	tex       *fakeTexture
	renderErr error
	calls     int
}

func newFakeSource(w, h uint32) *fakeSource {
	return &fakeSource{name: "camera", w: w, h: h, tex: &fakeTexture{label: "camera", w: w, h: h}}
}

func (s *fakeSource) Name() string                   { return s.name }
func (s *fakeSource) Size() (width, height uint32) { return s.w, s.h }

func (s *fakeSource) Render(surface gfx.Surface, program gfx.Effect) error {
	s.calls++
	if s.renderErr != nil {
		return s.renderErr
	}
	if p, ok := program.Param(paramConvertImage); ok {
		if err := p.SetTexture(s.tex); err != nil {
			return err
		}
	}
	return gfx.DrawTechnique(surface, program, TechniqueDraw)
}
