package frameblur

import (
	"fmt"

	"github.com/gogpu/frameblur/effects"
	"github.com/gogpu/frameblur/internal/kernel"
)

// Algorithm selects the blur program.
type Algorithm int

// Blur algorithms. The values match the "type" setting.
const (
	AlgorithmBox Algorithm = iota
	AlgorithmGaussian
	AlgorithmBilateral
)

// String returns the algorithm name.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmBox:
		return "box"
	case AlgorithmGaussian:
		return "gaussian"
	case AlgorithmBilateral:
		return "bilateral"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// ParseAlgorithm parses the names returned by String.
func ParseAlgorithm(name string) (Algorithm, error) {
	for _, a := range []Algorithm{AlgorithmBox, AlgorithmGaussian, AlgorithmBilateral} {
		if a.String() == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// algorithmEffects maps each algorithm to its program.
var algorithmEffects = map[Algorithm]string{
	AlgorithmBox:       effects.BoxBlur,
	AlgorithmGaussian:  effects.GaussianBlur,
	AlgorithmBilateral: effects.BilateralBlur,
}

// ColorFormat is the color space the blur passes operate in.
type ColorFormat int

// Color formats. The values match the "colorFormat" setting.
const (
	ColorFormatRGB ColorFormat = iota
	ColorFormatYUV
)

// String returns the color format name.
func (c ColorFormat) String() string {
	switch c {
	case ColorFormatRGB:
		return "RGB"
	case ColorFormatYUV:
		return "YUV"
	default:
		return fmt.Sprintf("ColorFormat(%d)", int(c))
	}
}

// Config is the per-instance blur configuration derived from Settings.
// It is rebuilt as a whole on every update.
type Config struct {
	Algorithm Algorithm

	// Radius is clamped to [1, kernel.MaxRadius].
	Radius int

	// BilateralSmoothing and BilateralSharpness are normalized to [0, 1].
	BilateralSmoothing float64
	BilateralSharpness float64

	Region      RegionMask
	ColorFormat ColorFormat
}

// Diameter returns the number of taps per pass, 1 + 2*Radius.
func (c Config) Diameter() int {
	return 1 + 2*c.Radius
}

// NewConfig derives a Config from settings. The color format falls back
// to RGB unless advanced settings are enabled.
func NewConfig(s *Settings) Config {
	c := Config{
		Algorithm:          Algorithm(s.Int(KeyType)),
		Radius:             clampRadius(s.Int(KeySize)),
		BilateralSmoothing: s.Float(KeyBilateralSmoothing) / 100,
		BilateralSharpness: s.Float(KeyBilateralSharpness) / 100,
		Region:             NewRegionMask(s),
		ColorFormat:        ColorFormatRGB,
	}
	if s.Bool(KeyAdvanced) {
		c.ColorFormat = ColorFormat(s.Int(KeyColorFormat))
	}
	return c
}

func clampRadius(r int64) int {
	switch {
	case r < 1:
		return 1
	case r > kernel.MaxRadius:
		return kernel.MaxRadius
	default:
		return int(r)
	}
}
