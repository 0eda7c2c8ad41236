package frameblur

// Technique names shared by every blur program.
const (
	TechniqueDraw                    = "Draw"
	TechniqueDrawRegion              = "DrawRegion"
	TechniqueDrawRegionInvert        = "DrawRegionInvert"
	TechniqueDrawRegionFeather       = "DrawRegionFeather"
	TechniqueDrawRegionFeatherInvert = "DrawRegionFeatherInvert"

	techniqueRGBToYUV = "RGBToYUV"
	techniqueYUVToRGB = "YUVToRGB"
)

// RegionMask restricts the blur to a rectangle in normalized texture
// coordinates. Right and Bottom are stored as 1 - inset, so the rectangle
// spans [Left, Right] x [Top, Bottom]. Degenerate rectangles are passed
// to the programs unchanged.
type RegionMask struct {
	Enabled bool

	Left   float64
	Top    float64
	Right  float64
	Bottom float64

	// Feather is the width of the blend between blurred and unblurred
	// pixels. Zero selects the hard-edged techniques.
	Feather float64

	// FeatherShift moves the feather gradient in [-1, 1]: negative values
	// pull it inside the rectangle, positive values push it outside.
	FeatherShift float64

	// Invert blurs outside the rectangle instead of inside.
	Invert bool
}

// NewRegionMask converts the percentage settings of the region mask.
func NewRegionMask(s *Settings) RegionMask {
	return RegionMask{
		Enabled:      s.Bool(KeyRegionEnabled),
		Left:         s.Float(KeyRegionLeft) / 100,
		Top:          s.Float(KeyRegionTop) / 100,
		Right:        1 - s.Float(KeyRegionRight)/100,
		Bottom:       1 - s.Float(KeyRegionBottom)/100,
		Feather:      s.Float(KeyRegionFeather) / 100,
		FeatherShift: s.Float(KeyRegionFeatherShift) / 100,
		Invert:       s.Bool(KeyRegionInvert),
	}
}

// Technique returns the program technique drawn for each blur pass.
func (m RegionMask) Technique() string {
	if !m.Enabled {
		return TechniqueDraw
	}
	switch {
	case m.Feather > 0 && m.Invert:
		return TechniqueDrawRegionFeatherInvert
	case m.Feather > 0:
		return TechniqueDrawRegionFeather
	case m.Invert:
		return TechniqueDrawRegionInvert
	default:
		return TechniqueDrawRegion
	}
}
