package soft

import (
	"fmt"
	"sort"

	"github.com/gogpu/frameblur/gfx"
)

// Effect is an instance of a software program with its own parameter
// values.
type Effect struct {
	dev       *Device
	name      string
	prog      *program
	params    map[string]*gfx.BasicParam
	destroyed bool
}

var _ gfx.Effect = (*Effect)(nil)

func newEffect(d *Device, name string, prog *program) *Effect {
	e := &Effect{
		dev:    d,
		name:   name,
		prog:   prog,
		params: make(map[string]*gfx.BasicParam, len(prog.params)),
	}
	for p, kind := range prog.params {
		e.params[p] = gfx.NewBasicParam(p, kind)
	}
	return e
}

func (e *Effect) Name() string { return e.name }

func (e *Effect) Param(name string) (gfx.Param, bool) {
	p, ok := e.params[name]
	if !ok {
		return nil, false
	}
	return p, true
}

func (e *Effect) HasParam(name string) bool {
	_, ok := e.params[name]
	return ok
}

// Technique reports one pass for every technique of the program.
func (e *Effect) Technique(name string) (int, bool) {
	if _, ok := e.prog.techniques[name]; !ok {
		return 0, false
	}
	return 1, true
}

// Techniques returns the technique names, sorted.
func (e *Effect) Techniques() []string {
	names := make([]string, 0, len(e.prog.techniques))
	for n := range e.prog.techniques {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// bindings is a snapshot of the parameter values for one draw.
type bindings struct {
	values   map[string]gfx.Value
	textures map[string]*Texture
}

func (b *bindings) float(name string) float32 { return b.values[name].Float[0] }

func (b *bindings) float2(name string) [2]float32 { return b.values[name].Float }

func (b *bindings) integer(name string) int { return int(b.values[name].Int) }

func (b *bindings) texture(name string) *Texture { return b.textures[name] }

// bind snapshots the parameters and resolves the texture parameters.
// A bound texture must be a live texture of this device other than
// target. Unbound texture parameters read transparent black.
func (e *Effect) bind(target *Texture) (*bindings, error) {
	b := &bindings{
		values:   make(map[string]gfx.Value, len(e.params)),
		textures: make(map[string]*Texture),
	}
	for name, p := range e.params {
		v := p.Value()
		b.values[name] = v
		if p.Kind() != gfx.ParamTexture {
			continue
		}
		if !v.Set || v.Texture == nil {
			b.textures[name] = blankTexture(e.dev)
			continue
		}
		tex, ok := v.Texture.(*Texture)
		if !ok || tex.dev != e.dev {
			return nil, fmt.Errorf("%w: texture %s", gfx.ErrForeignResource, name)
		}
		if tex.pix == nil {
			return nil, fmt.Errorf("%w: texture %s", ErrDestroyed, name)
		}
		if tex == target {
			return nil, fmt.Errorf("%w: %s", ErrFeedback, name)
		}
		b.textures[name] = tex
	}
	return b, nil
}
