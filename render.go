package frameblur

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/frameblur/effects"
	"github.com/gogpu/frameblur/gfx"
)

// RenderResult tells the host what a Render call produced.
type RenderResult int

const (
	// Rendered means the blurred frame was drawn on the output surface.
	Rendered RenderResult = iota

	// Skipped means nothing usable was drawn; the host passes the
	// upstream frame through unmodified.
	Skipped
)

// String returns the result name.
func (r RenderResult) String() string {
	if r == Rendered {
		return "rendered"
	}
	return "skipped"
}

var transparent = gputypes.Color{}

// compositeBlend blends color and alpha with src-alpha / one-minus-src-alpha.
var compositeBlend = gputypes.BlendState{
	Color: gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorSrcAlpha,
		DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
		Operation: gputypes.BlendOperationAdd,
	},
	Alpha: gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorSrcAlpha,
		DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
		Operation: gputypes.BlendOperationAdd,
	},
}

// Render draws one blurred frame onto out. program is the host's current
// program used to capture the source; nil selects the default program.
//
// Render never fails loudly: any error skips the frame and is logged
// once until a frame succeeds again.
func (f *Filter) Render(out gfx.Surface, program gfx.Effect) RenderResult {
	if err := f.render(out, program); err != nil {
		if !f.errorLogged {
			Logger().Error("frameblur: skipping frame", "source", f.sourceName(), "err", err)
			f.errorLogged = true
		}
		return Skipped
	}
	f.errorLogged = false
	return Rendered
}

func (f *Filter) render(out gfx.Surface, program gfx.Effect) error {
	if f.source == nil {
		return ErrNoSource
	}
	if out == nil {
		return ErrNoSurface
	}
	w, h := f.source.Size()
	if w == 0 || h == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}
	if f.primary == nil || f.secondary == nil || f.horizontal == nil || f.vertical == nil {
		return ErrNoRenderTarget
	}
	if f.blur == nil {
		return fmt.Errorf("%w: %v", ErrEffectUnavailable, f.cfg.Algorithm)
	}

	tex, err := f.capture(w, h, program)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	conv := f.converter()
	if conv != nil {
		tex, err = renderTo(f.secondary, w, h, func(s gfx.Surface) error {
			s.Clear(transparent)
			s.SetBlend(gputypes.BlendStateReplace())
			return drawWithImage(s, conv, techniqueRGBToYUV, tex)
		})
		if err != nil {
			return fmt.Errorf("convert to YUV: %w", err)
		}
	}

	tex, err = f.blurPass(f.horizontal, tex, 1/float32(w), 0)
	if err != nil {
		return fmt.Errorf("horizontal pass: %w", err)
	}
	tex, err = f.blurPass(f.vertical, tex, 0, 1/float32(h))
	if err != nil {
		return fmt.Errorf("vertical pass: %w", err)
	}

	if err := f.composite(out, conv, tex); err != nil {
		return fmt.Errorf("composite: %w", err)
	}
	return nil
}

func (f *Filter) capture(w, h uint32, program gfx.Effect) (gfx.Texture, error) {
	if program == nil {
		program = f.shared.Effect(effects.Default)
	}
	if program == nil {
		return nil, ErrNoCompositeProgram
	}
	return renderTo(f.primary, w, h, func(s gfx.Surface) error {
		s.Clear(transparent)
		return f.source.Render(s, program)
	})
}

// converter returns the color conversion program when the YUV round trip
// is active. A missing program silently keeps the blur in RGB.
func (f *Filter) converter() gfx.Effect {
	if f.cfg.ColorFormat != ColorFormatYUV {
		return nil
	}
	return f.shared.Effect(effects.ColorConversion)
}

func (f *Filter) blurPass(rt gfx.RenderTarget, in gfx.Texture, dx, dy float32) (gfx.Texture, error) {
	if err := f.applySharedParams(in, dx, dy); err != nil {
		return nil, err
	}
	if err := f.applyAlgorithmParams(); err != nil {
		return nil, err
	}

	technique := f.cfg.Region.Technique()
	return renderTo(rt, in.Width(), in.Height(), func(s gfx.Surface) error {
		s.Clear(transparent)
		s.SetBlend(gputypes.BlendStateReplace())
		return gfx.DrawTechnique(s, f.blur, technique)
	})
}

func (f *Filter) composite(out gfx.Surface, conv gfx.Effect, tex gfx.Texture) error {
	program, technique := conv, techniqueYUVToRGB
	if conv == nil {
		program, technique = f.shared.Effect(effects.Default), TechniqueDraw
	}
	if program == nil {
		return ErrNoCompositeProgram
	}
	out.SetBlend(compositeBlend)
	return drawWithImage(out, program, technique, tex)
}

func drawWithImage(s gfx.Surface, e gfx.Effect, technique string, tex gfx.Texture) error {
	if err := gfx.SetParam(e, paramConvertImage, tex); err != nil {
		return err
	}
	return gfx.DrawTechnique(s, e, technique)
}

// renderTo resets rt and runs draw between Begin and End.
func renderTo(rt gfx.RenderTarget, w, h uint32, draw func(gfx.Surface) error) (gfx.Texture, error) {
	rt.Reset()
	s, err := rt.Begin(w, h)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	drawErr := draw(s)
	if err := rt.End(); err != nil && drawErr == nil {
		drawErr = fmt.Errorf("end: %w", err)
	}
	if drawErr != nil {
		return nil, drawErr
	}
	tex := rt.Texture()
	if tex == nil {
		return nil, ErrNoTexture
	}
	return tex, nil
}
