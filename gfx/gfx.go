// Package gfx defines the GPU collaborators the blur pipeline renders
// through: devices, textures, render targets, effects and frame sources.
//
// Two implementations live under backend/: a wgpu/hal device and a CPU
// reference device. Hosts embedding the filter may provide their own.
package gfx

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// Common errors returned by gfx implementations.
var (
	// ErrUnknownTechnique is returned when a draw names a technique the
	// effect does not declare.
	ErrUnknownTechnique = errors.New("gfx: unknown technique")

	// ErrUnknownParam is returned when a parameter is not declared.
	ErrUnknownParam = errors.New("gfx: unknown parameter")

	// ErrParamKind is returned when a setter does not match the declared type.
	ErrParamKind = errors.New("gfx: parameter type mismatch")

	// ErrTargetBusy is returned by Begin when the target was already rendered
	// and has not been Reset, or when Begin is called twice without End.
	ErrTargetBusy = errors.New("gfx: render target busy")

	// ErrTargetNotBegun is returned by End without a matching Begin.
	ErrTargetNotBegun = errors.New("gfx: render target not begun")

	// ErrInvalidSize is returned for zero-sized surfaces and textures.
	ErrInvalidSize = errors.New("gfx: invalid size")

	// ErrForeignResource is returned when a resource created by one device
	// is handed to another.
	ErrForeignResource = errors.New("gfx: resource belongs to another device")
)

// ParamKind is the value type of an effect parameter.
type ParamKind uint8

// Parameter kinds.
const (
	ParamFloat ParamKind = iota + 1
	ParamFloat2
	ParamInt
	ParamTexture
)

// String returns the parameter kind name.
func (k ParamKind) String() string {
	switch k {
	case ParamFloat:
		return "float"
	case ParamFloat2:
		return "float2"
	case ParamInt:
		return "int"
	case ParamTexture:
		return "texture"
	default:
		return fmt.Sprintf("ParamKind(%d)", k)
	}
}

// Texture is a sampled GPU image.
type Texture interface {
	Width() uint32
	Height() uint32
	Format() gputypes.TextureFormat
}

// TextureDescriptor describes an immutable texture with initial contents.
type TextureDescriptor struct {
	Label       string
	Width       uint32
	Height      uint32
	Format      gputypes.TextureFormat
	BytesPerRow uint32
	Data        []byte
}

// Param is a named effect parameter. Values set on a parameter are
// captured by the next Surface.Draw that uses its effect.
type Param interface {
	Name() string
	Kind() ParamKind
	SetFloat(v float32) error
	SetFloat2(x, y float32) error
	SetInt(v int32) error
	SetTexture(t Texture) error
}

// Effect is a compiled GPU program with named parameters and named
// techniques. A technique is one or more passes drawn in order.
type Effect interface {
	Name() string

	// Param looks up a declared parameter.
	Param(name string) (Param, bool)

	// HasParam reports whether the program declares name.
	HasParam(name string) bool

	// Technique returns the pass count of a technique.
	Technique(name string) (passes int, ok bool)
}

// Surface is the drawing scope of a render target between Begin and End,
// or the host's active output surface.
type Surface interface {
	Width() uint32
	Height() uint32

	// Clear fills the surface with c.
	Clear(c gputypes.Color)

	// SetBlend sets the blend state for subsequent draws.
	SetBlend(b gputypes.BlendState)

	// Draw renders one pass of technique as a sprite covering the surface,
	// using the parameter values currently set on e.
	Draw(e Effect, technique string, pass int) error
}

// RenderTarget is an offscreen color buffer rendered once per frame.
type RenderTarget interface {
	// Begin starts rendering at the given size, reallocating the backing
	// texture when the size changed.
	Begin(width, height uint32) (Surface, error)

	// End finishes rendering. The result is available from Texture.
	End() error

	// Reset makes the target renderable again for a new frame.
	Reset()

	// Texture returns the last rendered texture, or nil if nothing was
	// rendered since the last Reset.
	Texture() Texture

	// Destroy releases the GPU resources.
	Destroy()
}

// EffectSource is the source code of a named program.
type EffectSource struct {
	Name string
	Path string
	Code string
}

// Device creates and destroys GPU resources.
//
// Creation and destruction are not safe for concurrent use; callers
// serialize them (frameblur.Shared.WithGraphics).
type Device interface {
	// Name identifies the device implementation.
	Name() string

	CreateTexture(desc *TextureDescriptor) (Texture, error)
	DestroyTexture(t Texture)

	CreateRenderTarget(label string, format gputypes.TextureFormat) (RenderTarget, error)

	CreateEffect(src EffectSource) (Effect, error)
	DestroyEffect(e Effect)
}

// Source is the upstream frame provider.
type Source interface {
	Name() string

	// Size returns the base dimensions of the upstream frame.
	Size() (width, height uint32)

	// Render draws the upstream frame onto s with program.
	Render(s Surface, program Effect) error
}

// DrawTechnique draws every pass of technique in order.
func DrawTechnique(s Surface, e Effect, technique string) error {
	passes, ok := e.Technique(technique)
	if !ok {
		return fmt.Errorf("%w: %s in %s", ErrUnknownTechnique, technique, e.Name())
	}
	for pass := 0; pass < passes; pass++ {
		if err := s.Draw(e, technique, pass); err != nil {
			return fmt.Errorf("gfx: %s pass %d: %w", technique, pass, err)
		}
	}
	return nil
}

// SetParam binds a value to a declared parameter. Supported value types
// are float32, [2]float32, int32 and Texture.
func SetParam(e Effect, name string, value any) error {
	p, ok := e.Param(name)
	if !ok {
		return fmt.Errorf("%w: %s in %s", ErrUnknownParam, name, e.Name())
	}
	switch v := value.(type) {
	case float32:
		return p.SetFloat(v)
	case [2]float32:
		return p.SetFloat2(v[0], v[1])
	case int32:
		return p.SetInt(v)
	case Texture:
		return p.SetTexture(v)
	default:
		return fmt.Errorf("%w: %s cannot hold %T", ErrParamKind, name, value)
	}
}
