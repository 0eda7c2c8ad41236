package soft

import (
	"math"
	"sort"

	"github.com/gogpu/frameblur/effects"
	"github.com/gogpu/frameblur/gfx"
)

// fragment shades the texel at normalized coordinates (u, v).
type fragment func(u, v float32) texel

// program is the software version of one WGSL program: its parameters and
// a fragment builder per technique.
type program struct {
	params     map[string]gfx.ParamKind
	techniques map[string]func(b *bindings) fragment
}

// Program parameter names, as declared by the WGSL programs.
const (
	pImage        = "u_image"
	pImageSize    = "u_imageSize"
	pImageTexel   = "u_imageTexel"
	pTexelDelta   = "u_texelDelta"
	pRadius       = "u_radius"
	pDiameter     = "u_diameter"
	pKernel       = "kernel"
	pKernelTexel  = "kernelTexel"
	pSmoothing    = "bilateralSmoothing"
	pSharpness    = "bilateralSharpness"
	pConvertImage = "image"
)

var regionParams = [6]string{
	"regionLeft", "regionTop", "regionRight", "regionBottom",
	"regionFeather", "regionFeatherShift",
}

var programs = map[string]*program{
	effects.BoxBlur:         blurProgram(nil, boxBlur),
	effects.GaussianBlur:    blurProgram(map[string]gfx.ParamKind{pKernel: gfx.ParamTexture, pKernelTexel: gfx.ParamFloat2}, gaussianBlur),
	effects.BilateralBlur:   blurProgram(map[string]gfx.ParamKind{pSmoothing: gfx.ParamFloat, pSharpness: gfx.ParamFloat}, bilateralBlur),
	effects.ColorConversion: colorConversion(),
	effects.Default:         defaultProgram(),
}

// Programs returns the names of the programs the device implements.
func Programs() []string {
	names := make([]string, 0, len(programs))
	for n := range programs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// blurPass holds the uniforms shared by the blur programs.
type blurPass struct {
	image  *Texture
	size   [2]float32
	delta  [2]float32
	radius int
	region [6]float32
}

func newBlurPass(b *bindings) *blurPass {
	p := &blurPass{
		image:  b.texture(pImage),
		size:   b.float2(pImageSize),
		delta:  b.float2(pTexelDelta),
		radius: b.integer(pRadius),
	}
	for i, name := range regionParams {
		p.region[i] = b.float(name)
	}
	return p
}

func floorInt(v float32) int { return int(math.Floor(float64(v))) }

// load mirrors load_image: nearest texel of u_image, clamped to u_imageSize.
func (p *blurPass) load(u, v float32) texel {
	lx, ly := int(p.size[0])-1, int(p.size[1])-1
	x := min(max(floorInt(u*p.size[0]), 0), lx)
	y := min(max(floorInt(v*p.size[1]), 0), ly)
	return p.image.At(x, y)
}

func (p *blurPass) tap(u, v float32, k int) texel {
	return p.load(u+p.delta[0]*float32(k), v+p.delta[1]*float32(k))
}

func (p *blurPass) inset(u, v float32) float32 {
	dx := min(u-p.region[0], p.region[2]-u)
	dy := min(v-p.region[1], p.region[3]-v)
	return min(dx, dy)
}

func (p *blurPass) hardMask(u, v float32) float32 {
	if p.inset(u, v) >= 0 {
		return 1
	}
	return 0
}

func (p *blurPass) featherMask(u, v float32) float32 {
	feather := max(p.region[4], 0.00001)
	m := p.inset(u, v)/feather + 0.5 + 0.5*p.region[5]
	return min(max(m, 0), 1)
}

func mix(a, b texel, t float32) texel {
	var out texel
	for i := range out {
		out[i] = a[i]*(1-t) + b[i]*t
	}
	return out
}

// blurProgram assembles a blur program from its kernel. Every blur
// program exposes the five region techniques.
func blurProgram(extra map[string]gfx.ParamKind, kernel func(p *blurPass, b *bindings) fragment) *program {
	params := map[string]gfx.ParamKind{
		pImage:      gfx.ParamTexture,
		pImageSize:  gfx.ParamFloat2,
		pImageTexel: gfx.ParamFloat2,
		pTexelDelta: gfx.ParamFloat2,
		pRadius:     gfx.ParamInt,
		pDiameter:   gfx.ParamInt,
	}
	for _, name := range regionParams {
		params[name] = gfx.ParamFloat
	}
	for k, v := range extra {
		params[k] = v
	}

	masked := func(mask func(p *blurPass, u, v float32) float32, invert bool) func(b *bindings) fragment {
		return func(b *bindings) fragment {
			p := newBlurPass(b)
			blur := kernel(p, b)
			return func(u, v float32) texel {
				m := mask(p, u, v)
				if invert {
					m = 1 - m
				}
				return mix(p.load(u, v), blur(u, v), m)
			}
		}
	}
	hard := (*blurPass).hardMask
	feather := (*blurPass).featherMask

	return &program{
		params: params,
		techniques: map[string]func(b *bindings) fragment{
			"Draw": func(b *bindings) fragment {
				return kernel(newBlurPass(b), b)
			},
			"DrawRegion":              masked(hard, false),
			"DrawRegionInvert":        masked(hard, true),
			"DrawRegionFeather":       masked(feather, false),
			"DrawRegionFeatherInvert": masked(feather, true),
		},
	}
}

func boxBlur(p *blurPass, b *bindings) fragment {
	diameter := float32(b.integer(pDiameter))
	return func(u, v float32) texel {
		var sum texel
		for k := -p.radius; k <= p.radius; k++ {
			t := p.tap(u, v, k)
			for i := range sum {
				sum[i] += t[i]
			}
		}
		for i := range sum {
			sum[i] /= diameter
		}
		return sum
	}
}

func gaussianBlur(p *blurPass, b *bindings) fragment {
	kernel := b.texture(pKernel)
	lx, ly := kernel.width-1, kernel.height-1
	if kt := b.float2(pKernelTexel); kt[0] > 0 && kt[1] > 0 {
		lx = int(math.Round(float64(1/kt[0]))) - 1
		ly = int(math.Round(float64(1/kt[1]))) - 1
	}

	// Weights depend only on the offset; read the row once per draw.
	weights := make([]float32, 2*p.radius+1)
	row := min(max(p.radius-1, 0), ly)
	for k := -p.radius; k <= p.radius; k++ {
		col := min(max(abs(k), 0), lx)
		weights[k+p.radius] = kernel.At(col, row)[0]
	}

	return func(u, v float32) texel {
		var sum texel
		for k := -p.radius; k <= p.radius; k++ {
			t := p.tap(u, v, k)
			w := weights[k+p.radius]
			for i := range sum {
				sum[i] += t[i] * w
			}
		}
		return sum
	}
}

func gaussian(x, sigma float32) float32 {
	return 0.39894 * float32(math.Exp(float64(-0.5*x*x/(sigma*sigma)))) / sigma
}

func distance(a, b texel) float32 {
	var s float32
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return float32(math.Sqrt(float64(s)))
}

func bilateralBlur(p *blurPass, b *bindings) fragment {
	smoothing := b.float(pSmoothing)
	sharpness := b.float(pSharpness)
	norm := 1 / gaussian(0, sharpness)

	return func(u, v float32) texel {
		center := p.load(u, v)
		var sum texel
		var total float32
		for k := -p.radius; k <= p.radius; k++ {
			t := p.tap(u, v, k)
			w := gaussian(float32(k), smoothing) * gaussian(distance(t, center), sharpness) * norm
			for i := range sum {
				sum[i] += t[i] * w
			}
			total += w
		}
		total = max(total, 0.00001)
		for i := range sum {
			sum[i] /= total
		}
		return sum
	}
}

func abs(k int) int {
	if k < 0 {
		return -k
	}
	return k
}

// loadImage mirrors the nearest lookup of the conversion and default
// programs, which size the lookup by the texture itself.
func loadImage(t *Texture, u, v float32) texel {
	x := floorInt(u * float32(t.width))
	y := floorInt(v * float32(t.height))
	return t.At(x, y)
}

// BT.709 full range.
func rgbToYUV(c texel) texel {
	y := 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
	u := (c[2]-y)/1.8556 + 0.5
	v := (c[0]-y)/1.5748 + 0.5
	return texel{y, u, v, c[3]}
}

func yuvToRGB(c texel) texel {
	u := c[1] - 0.5
	v := c[2] - 0.5
	return texel{
		c[0] + 1.5748*v,
		c[0] - 0.187324*u - 0.468124*v,
		c[0] + 1.8556*u,
		c[3],
	}
}

func colorConversion() *program {
	convert := func(f func(texel) texel) func(b *bindings) fragment {
		return func(b *bindings) fragment {
			img := b.texture(pConvertImage)
			return func(u, v float32) texel {
				return f(loadImage(img, u, v))
			}
		}
	}
	return &program{
		params: map[string]gfx.ParamKind{pConvertImage: gfx.ParamTexture},
		techniques: map[string]func(b *bindings) fragment{
			"RGBToYUV": convert(rgbToYUV),
			"YUVToRGB": convert(yuvToRGB),
		},
	}
}

func defaultProgram() *program {
	return &program{
		params: map[string]gfx.ParamKind{pConvertImage: gfx.ParamTexture},
		techniques: map[string]func(b *bindings) fragment{
			"Draw": func(b *bindings) fragment {
				img := b.texture(pConvertImage)
				return func(u, v float32) texel {
					return loadImage(img, u, v)
				}
			},
		},
	}
}
