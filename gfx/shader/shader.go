// Package shader reflects WGSL programs into the named-parameter layout
// the blur pipeline binds against, using the naga compiler front end.
//
// The members of the program's uniform struct become scalar parameters
// (f32, i32/u32, vec2<f32>), texture_2d globals become texture
// parameters and fragment entry points become techniques. An entry point
// named Foo_pass1 is the second pass of technique Foo.
package shader

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gogpu/frameblur/gfx"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// Reflection errors.
var (
	ErrParse              = errors.New("shader: parse failed")
	ErrInvalid            = errors.New("shader: validation failed")
	ErrUnsupportedType    = errors.New("shader: unsupported parameter type")
	ErrUnsupportedBinding = errors.New("shader: unsupported resource binding")
	ErrNoVertexEntry      = errors.New("shader: no vertex entry point")
	ErrMultipleUniforms   = errors.New("shader: more than one uniform block")
)

// uniformAlign is the size granularity of uniform buffers.
const uniformAlign = 16

// Uniform is a scalar parameter stored in the uniform block.
type Uniform struct {
	Name   string
	Kind   gfx.ParamKind
	Offset uint32
}

// Size returns the byte size of the value.
func (u Uniform) Size() uint32 {
	if u.Kind == gfx.ParamFloat2 {
		return 8
	}
	return 4
}

// Binding is a resource slot in bind group 0.
type Binding struct {
	Name    string
	Binding uint32
}

// Layout is the reflected interface of a program.
type Layout struct {
	Name string

	// Uniforms are ordered by offset. UniformSize is zero when the
	// program declares no uniform block.
	Uniforms       []Uniform
	UniformBinding uint32
	UniformSize    uint32

	Textures []Binding

	VertexEntry string

	// Techniques maps a technique name to its fragment entry points in
	// pass order.
	Techniques map[string][]string
}

// ParamKinds returns every declared parameter with its kind.
func (l *Layout) ParamKinds() map[string]gfx.ParamKind {
	kinds := make(map[string]gfx.ParamKind, len(l.Uniforms)+len(l.Textures))
	for _, u := range l.Uniforms {
		kinds[u.Name] = u.Kind
	}
	for _, t := range l.Textures {
		kinds[t.Name] = gfx.ParamTexture
	}
	return kinds
}

// TechniqueNames returns the technique names in sorted order.
func (l *Layout) TechniqueNames() []string {
	names := make([]string, 0, len(l.Techniques))
	for name := range l.Techniques {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Uniform looks up a uniform member by name.
func (l *Layout) Uniform(name string) (Uniform, bool) {
	for _, u := range l.Uniforms {
		if u.Name == name {
			return u, true
		}
	}
	return Uniform{}, false
}

// Parse parses, lowers and validates a WGSL program.
func Parse(name, code string) (*ir.Module, error) {
	ast, err := naga.Parse(code)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, name, err)
	}
	module, err := naga.LowerWithSource(ast, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, name, err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, name, err)
	}
	if len(verrs) > 0 {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, name, verrs[0])
	}
	return module, nil
}

// Reflect parses code and extracts its layout.
func Reflect(name, code string) (*Layout, error) {
	module, err := Parse(name, code)
	if err != nil {
		return nil, err
	}
	return ReflectModule(name, module)
}

// ReflectModule extracts the layout of an already lowered module.
func ReflectModule(name string, module *ir.Module) (*Layout, error) {
	l := &Layout{
		Name:       name,
		Techniques: make(map[string][]string),
	}

	for i := range module.GlobalVariables {
		gv := &module.GlobalVariables[i]
		switch gv.Space {
		case ir.SpaceUniform:
			if err := l.addUniformBlock(module, gv); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		case ir.SpaceHandle:
			if err := l.addHandle(module, gv); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}
	}

	passes := make(map[string]map[int]string)
	for _, ep := range module.EntryPoints {
		switch ep.Stage {
		case ir.StageVertex:
			if l.VertexEntry == "" {
				l.VertexEntry = ep.Name
			}
		case ir.StageFragment:
			tech, pass := splitPass(ep.Name)
			if passes[tech] == nil {
				passes[tech] = make(map[int]string)
			}
			passes[tech][pass] = ep.Name
		}
	}
	if l.VertexEntry == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoVertexEntry, name)
	}

	for tech, byIndex := range passes {
		entries := make([]string, 0, len(byIndex))
		for i := 0; ; i++ {
			entry, ok := byIndex[i]
			if !ok {
				break
			}
			entries = append(entries, entry)
		}
		// Techniques with a gap in their pass numbering are unusable.
		if len(entries) == len(byIndex) {
			l.Techniques[tech] = entries
		}
	}

	sort.Slice(l.Uniforms, func(i, j int) bool { return l.Uniforms[i].Offset < l.Uniforms[j].Offset })
	sort.Slice(l.Textures, func(i, j int) bool { return l.Textures[i].Binding < l.Textures[j].Binding })
	return l, nil
}

func (l *Layout) addUniformBlock(module *ir.Module, gv *ir.GlobalVariable) error {
	if gv.Binding == nil || gv.Binding.Group != 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedBinding, gv.Name)
	}
	if l.UniformSize != 0 {
		return fmt.Errorf("%w: %s", ErrMultipleUniforms, gv.Name)
	}

	st, ok := typeInner(module, gv.Type).(ir.StructType)
	if !ok {
		return fmt.Errorf("%w: uniform %s is not a struct", ErrUnsupportedType, gv.Name)
	}
	for _, m := range st.Members {
		kind, ok := paramKind(typeInner(module, m.Type))
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnsupportedType, gv.Name, m.Name)
		}
		l.Uniforms = append(l.Uniforms, Uniform{Name: m.Name, Kind: kind, Offset: m.Offset})
	}

	l.UniformBinding = gv.Binding.Binding
	l.UniformSize = alignUp(st.Span, uniformAlign)
	if l.UniformSize == 0 {
		l.UniformSize = uniformAlign
	}
	return nil
}

func (l *Layout) addHandle(module *ir.Module, gv *ir.GlobalVariable) error {
	if gv.Binding == nil || gv.Binding.Group != 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedBinding, gv.Name)
	}
	img, ok := typeInner(module, gv.Type).(ir.ImageType)
	if !ok || img.Dim != ir.Dim2D || img.Arrayed || img.Multisampled || img.Class != ir.ImageClassSampled {
		return fmt.Errorf("%w: %s", ErrUnsupportedBinding, gv.Name)
	}
	l.Textures = append(l.Textures, Binding{Name: gv.Name, Binding: gv.Binding.Binding})
	return nil
}

func typeInner(module *ir.Module, h ir.TypeHandle) ir.TypeInner {
	if int(h) >= len(module.Types) {
		return nil
	}
	return module.Types[h].Inner
}

func paramKind(t ir.TypeInner) (gfx.ParamKind, bool) {
	switch v := t.(type) {
	case ir.ScalarType:
		switch v.Kind {
		case ir.ScalarFloat:
			if v.Width == 4 {
				return gfx.ParamFloat, true
			}
		case ir.ScalarSint, ir.ScalarUint:
			if v.Width == 4 {
				return gfx.ParamInt, true
			}
		}
	case ir.VectorType:
		if v.Size == ir.Vec2 && v.Scalar.Kind == ir.ScalarFloat && v.Scalar.Width == 4 {
			return gfx.ParamFloat2, true
		}
	}
	return 0, false
}

// splitPass splits "Foo_pass2" into ("Foo", 2). Names without a pass
// suffix are pass 0 of the technique of the same name.
func splitPass(entry string) (string, int) {
	i := strings.LastIndex(entry, "_pass")
	if i <= 0 {
		return entry, 0
	}
	n, err := strconv.Atoi(entry[i+len("_pass"):])
	if err != nil || n < 0 {
		return entry, 0
	}
	return entry[:i], n
}

func alignUp(v, align uint32) uint32 {
	return (v + align - 1) / align * align
}
