package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/frameblur/gfx"
	"github.com/gogpu/frameblur/gfx/shader"
)

// Effect is a compiled program: one shader module, one bind group layout
// and the render pipelines created for it so far.
type Effect struct {
	dev    *Device
	name   string
	layout *shader.Layout

	module      hal.ShaderModule
	groupLayout hal.BindGroupLayout
	pipeLayout  hal.PipelineLayout
	pipelines   map[pipelineKey]hal.RenderPipeline

	params    map[string]*gfx.BasicParam
	destroyed bool
}

var _ gfx.Effect = (*Effect)(nil)

type pipelineKey struct {
	entry  string
	blend  gputypes.BlendState
	format gputypes.TextureFormat
}

func newEffect(d *Device, src gfx.EffectSource, layout *shader.Layout) (*Effect, error) {
	e := &Effect{
		dev:       d,
		name:      src.Name,
		layout:    layout,
		pipelines: make(map[pipelineKey]hal.RenderPipeline),
		params:    make(map[string]*gfx.BasicParam),
	}
	for name, kind := range layout.ParamKinds() {
		e.params[name] = gfx.NewBasicParam(name, kind)
	}

	source := hal.ShaderSource{WGSL: src.Code}
	if d.spirv {
		words, err := shader.CompileSPIRV(src.Code)
		if err != nil {
			return nil, fmt.Errorf("wgpu: %s: %w", src.Name, err)
		}
		source = hal.ShaderSource{SPIRV: words}
	}
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  src.Name,
		Source: source,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create shader module %s: %w", src.Name, err)
	}
	e.module = module

	visibility := gputypes.ShaderStageVertex | gputypes.ShaderStageFragment
	var entries []gputypes.BindGroupLayoutEntry
	if layout.UniformSize > 0 {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    layout.UniformBinding,
			Visibility: visibility,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		})
	}
	for _, t := range layout.Textures {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    t.Binding,
			Visibility: visibility,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeUnfilterableFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		})
	}
	groupLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   src.Name + " bind layout",
		Entries: entries,
	})
	if err != nil {
		e.destroy()
		return nil, fmt.Errorf("wgpu: create bind group layout %s: %w", src.Name, err)
	}
	e.groupLayout = groupLayout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            src.Name + " pipe layout",
		BindGroupLayouts: []hal.BindGroupLayout{groupLayout},
	})
	if err != nil {
		e.destroy()
		return nil, fmt.Errorf("wgpu: create pipeline layout %s: %w", src.Name, err)
	}
	e.pipeLayout = pipeLayout
	return e, nil
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

// Technique returns the number of fragment entry points of a technique.
func (e *Effect) Technique(name string) (int, bool) {
	entries, ok := e.layout.Techniques[name]
	if !ok {
		return 0, false
	}
	return len(entries), true
}

// Techniques returns the technique names, sorted.
func (e *Effect) Techniques() []string { return e.layout.TechniqueNames() }

// Pipelines returns the number of render pipelines created so far.
func (e *Effect) Pipelines() int { return len(e.pipelines) }

func (e *Effect) pipeline(entry string, blend gputypes.BlendState, format gputypes.TextureFormat) (hal.RenderPipeline, error) {
	key := pipelineKey{entry: entry, blend: blend, format: format}
	if p, ok := e.pipelines[key]; ok {
		return p, nil
	}
	p, err := e.dev.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  e.name + " " + entry,
		Layout: e.pipeLayout,
		Vertex: hal.VertexState{
			Module:     e.module,
			EntryPoint: e.layout.VertexEntry,
		},
		Primitive:   gputypes.PrimitiveState{Topology: gputypes.PrimitiveTopologyTriangleList},
		Multisample: gputypes.DefaultMultisampleState(),
		Fragment: &hal.FragmentState{
			Module:     e.module,
			EntryPoint: entry,
			Targets: []gputypes.ColorTargetState{{
				Format:    format,
				Blend:     &blend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create pipeline %s %s: %w", e.name, entry, err)
	}
	e.pipelines[key] = p
	slogger().Debug("wgpu: pipeline created", "effect", e.name, "entry", entry, "format", format)
	return p, nil
}

// uniformData packs the uniform parameters at their reflected offsets.
// Unset values are zero.
func (e *Effect) uniformData() []byte {
	data := make([]byte, e.layout.UniformSize)
	for _, u := range e.layout.Uniforms {
		v := e.params[u.Name].Value()
		b := data[u.Offset:]
		switch u.Kind {
		case gfx.ParamFloat:
			binary.LittleEndian.PutUint32(b, math.Float32bits(v.Float[0]))
		case gfx.ParamFloat2:
			binary.LittleEndian.PutUint32(b, math.Float32bits(v.Float[0]))
			binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v.Float[1]))
		case gfx.ParamInt:
			binary.LittleEndian.PutUint32(b, uint32(v.Int))
		}
	}
	return data
}

// boundTextures resolves the texture parameters for a draw into target.
// Unbound parameters get the device's blank texture.
func (e *Effect) boundTextures(target *Texture) ([]*Texture, error) {
	out := make([]*Texture, len(e.layout.Textures))
	for i, b := range e.layout.Textures {
		v := e.params[b.Name].Value()
		if !v.Set || v.Texture == nil {
			blank, err := e.dev.blankTexture()
			if err != nil {
				return nil, fmt.Errorf("wgpu: blank texture for %s: %w", b.Name, err)
			}
			out[i] = blank
			continue
		}
		tex, ok := v.Texture.(*Texture)
		if !ok || tex.dev != e.dev {
			return nil, fmt.Errorf("%w: %s in %s", gfx.ErrForeignResource, b.Name, e.name)
		}
		if tex.destroyed {
			return nil, fmt.Errorf("%w: texture %s", ErrDestroyed, tex.label)
		}
		if tex == target {
			return nil, fmt.Errorf("%w: %s in %s", ErrFeedback, b.Name, e.name)
		}
		out[i] = tex
	}
	return out, nil
}

// bind creates the uniform buffer and bind group for one draw. The
// returned buffer is nil when the program has no uniform block.
func (e *Effect) bind(target *Texture) (hal.BindGroup, hal.Buffer, error) {
	textures, err := e.boundTextures(target)
	if err != nil {
		return nil, nil, err
	}
	d := e.dev.device
	var entries []gputypes.BindGroupEntry
	var buf hal.Buffer
	if e.layout.UniformSize > 0 {
		buf, err = d.CreateBuffer(&hal.BufferDescriptor{
			Label: e.name + " uniforms",
			Size:  uint64(e.layout.UniformSize),
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("wgpu: create uniform buffer %s: %w", e.name, err)
		}
		if err := e.dev.queue.WriteBuffer(buf, 0, e.uniformData()); err != nil {
			d.DestroyBuffer(buf)
			return nil, nil, fmt.Errorf("wgpu: write uniforms %s: %w", e.name, err)
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding: e.layout.UniformBinding,
			Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(),
				Size:   uint64(e.layout.UniformSize),
			},
		})
	}
	for i, b := range e.layout.Textures {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  b.Binding,
			Resource: gputypes.TextureViewBinding{TextureView: textures[i].view.NativeHandle()},
		})
	}
	group, err := d.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   e.name + " bind group",
		Layout:  e.groupLayout,
		Entries: entries,
	})
	if err != nil {
		if buf != nil {
			d.DestroyBuffer(buf)
		}
		return nil, nil, fmt.Errorf("wgpu: create bind group %s: %w", e.name, err)
	}
	return group, buf, nil
}

func (e *Effect) destroy() {
	if e.destroyed {
		return
	}
	e.destroyed = true
	d := e.dev.device
	for _, p := range e.pipelines {
		d.DestroyRenderPipeline(p)
	}
	e.pipelines = nil
	if e.pipeLayout != nil {
		d.DestroyPipelineLayout(e.pipeLayout)
	}
	if e.groupLayout != nil {
		d.DestroyBindGroupLayout(e.groupLayout)
	}
	if e.module != nil {
		d.DestroyShaderModule(e.module)
	}
}
