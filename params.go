package frameblur

import (
	"fmt"

	"github.com/gogpu/frameblur/gfx"
)

// Parameter names of the blur programs.
const (
	paramImage       = "u_image"
	paramImageSize   = "u_imageSize"
	paramImageTexel  = "u_imageTexel"
	paramTexelDelta  = "u_texelDelta"
	paramRadius      = "u_radius"
	paramDiameter    = "u_diameter"
	paramKernel      = "kernel"
	paramKernelTexel = "kernelTexel"
	paramSmoothing   = "bilateralSmoothing"
	paramSharpness   = "bilateralSharpness"

	// paramConvertImage is the input of the conversion and default programs.
	paramConvertImage = "image"
)

var regionParamNames = [6]string{
	"regionLeft",
	"regionTop",
	"regionRight",
	"regionBottom",
	"regionFeather",
	"regionFeatherShift",
}

// bindingTable holds the parameters of the active blur program, looked up
// once per Update. Nil entries are not declared by the program.
type bindingTable struct {
	image      gfx.Param
	imageSize  gfx.Param
	imageTexel gfx.Param
	texelDelta gfx.Param
	radius     gfx.Param
	diameter   gfx.Param

	region [6]gfx.Param

	kernel      gfx.Param
	kernelTexel gfx.Param

	smoothing gfx.Param
	sharpness gfx.Param
}

func newBindingTable(e gfx.Effect) bindingTable {
	var b bindingTable
	if e == nil {
		return b
	}
	lookup := func(name string) gfx.Param {
		p, ok := e.Param(name)
		if !ok {
			return nil
		}
		return p
	}

	b.image = lookup(paramImage)
	b.imageSize = lookup(paramImageSize)
	b.imageTexel = lookup(paramImageTexel)
	b.texelDelta = lookup(paramTexelDelta)
	b.radius = lookup(paramRadius)
	b.diameter = lookup(paramDiameter)
	for i, name := range regionParamNames {
		b.region[i] = lookup(name)
	}
	b.kernel = lookup(paramKernel)
	b.kernelTexel = lookup(paramKernelTexel)
	b.smoothing = lookup(paramSmoothing)
	b.sharpness = lookup(paramSharpness)
	return b
}

func required(p gfx.Param, name string) (gfx.Param, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingParam, name)
	}
	return p, nil
}

// applySharedParams binds the parameters common to every blur pass.
// Region parameters are bound only when the mask is enabled and only if
// the program declares them.
func (f *Filter) applySharedParams(tex gfx.Texture, dx, dy float32) error {
	b := &f.binds
	w, h := float32(tex.Width()), float32(tex.Height())

	steps := []struct {
		p    gfx.Param
		name string
		set  func(gfx.Param) error
	}{
		{b.image, paramImage, func(p gfx.Param) error { return p.SetTexture(tex) }},
		{b.imageSize, paramImageSize, func(p gfx.Param) error { return p.SetFloat2(w, h) }},
		{b.imageTexel, paramImageTexel, func(p gfx.Param) error { return p.SetFloat2(1/w, 1/h) }},
		{b.texelDelta, paramTexelDelta, func(p gfx.Param) error { return p.SetFloat2(dx, dy) }},
		{b.radius, paramRadius, func(p gfx.Param) error { return p.SetInt(int32(f.cfg.Radius)) }},     //nolint:gosec // radius <= 25
		{b.diameter, paramDiameter, func(p gfx.Param) error { return p.SetInt(int32(f.cfg.Diameter())) }}, //nolint:gosec // diameter <= 51
	}
	for _, s := range steps {
		p, err := required(s.p, s.name)
		if err != nil {
			return err
		}
		if err := s.set(p); err != nil {
			return fmt.Errorf("frameblur: bind %s: %w", s.name, err)
		}
	}

	if !f.cfg.Region.Enabled {
		return nil
	}
	r := f.cfg.Region
	values := [6]float64{r.Left, r.Top, r.Right, r.Bottom, r.Feather, r.FeatherShift}
	for i, p := range b.region {
		if p == nil {
			continue
		}
		// Programs without region support are not an error.
		_ = p.SetFloat(float32(values[i]))
	}
	return nil
}

// paramHandler binds the parameters specific to one algorithm.
type paramHandler func(f *Filter) error

var paramHandlers = map[Algorithm]paramHandler{
	AlgorithmBox:       (*Filter).applyBoxParams,
	AlgorithmGaussian:  (*Filter).applyGaussianParams,
	AlgorithmBilateral: (*Filter).applyBilateralParams,
}

func (f *Filter) applyAlgorithmParams() error {
	h, ok := paramHandlers[f.cfg.Algorithm]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownAlgorithm, f.cfg.Algorithm)
	}
	return h(f)
}

func (f *Filter) applyBoxParams() error {
	return nil
}

// applyGaussianParams binds the kernel table. Programs without a kernel
// parameter are left alone. A missing kernel texture leaves the parameter
// unbound; devices sample it as transparent black, so the pass still runs
// with zero weights.
func (f *Filter) applyGaussianParams() error {
	b := &f.binds
	if b.kernel == nil {
		return nil
	}
	if b.kernelTexel != nil {
		tu, tv := f.shared.KernelTable().TexelSize()
		if err := b.kernelTexel.SetFloat2(tu, tv); err != nil {
			return fmt.Errorf("frameblur: bind %s: %w", paramKernelTexel, err)
		}
	}
	tex := f.shared.Kernel()
	if tex == nil {
		return nil
	}
	if err := b.kernel.SetTexture(tex); err != nil {
		return fmt.Errorf("frameblur: bind %s: %w", paramKernel, err)
	}
	return nil
}

// applyBilateralParams binds smoothing scaled by the current diameter and
// sharpness as 1 - sharpness.
func (f *Filter) applyBilateralParams() error {
	if f.cfg.Algorithm != AlgorithmBilateral {
		return fmt.Errorf("%w: bilateral handler for %v", ErrAlgorithmMismatch, f.cfg.Algorithm)
	}
	b := &f.binds
	smoothing, err := required(b.smoothing, paramSmoothing)
	if err != nil {
		return err
	}
	sharpness, err := required(b.sharpness, paramSharpness)
	if err != nil {
		return err
	}

	if err := smoothing.SetFloat(float32(f.cfg.BilateralSmoothing * float64(f.cfg.Diameter()))); err != nil {
		return fmt.Errorf("frameblur: bind %s: %w", paramSmoothing, err)
	}
	if err := sharpness.SetFloat(float32(1 - f.cfg.BilateralSharpness)); err != nil {
		return fmt.Errorf("frameblur: bind %s: %w", paramSharpness, err)
	}
	return nil
}
