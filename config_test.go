package frameblur

import (
	"errors"
	"testing"
)

func TestNewConfigDefaults(t *testing.T) {
	c := NewConfig(NewSettings())
	if c.Algorithm != AlgorithmBox {
		t.Errorf("Algorithm = %v, want box", c.Algorithm)
	}
	if c.Radius != 5 || c.Diameter() != 11 {
		t.Errorf("Radius = %d Diameter = %d, want 5/11", c.Radius, c.Diameter())
	}
	if c.BilateralSmoothing != 0.5 || c.BilateralSharpness != 0.9 {
		t.Errorf("bilateral = %v/%v, want 0.5/0.9", c.BilateralSmoothing, c.BilateralSharpness)
	}
	if c.ColorFormat != ColorFormatRGB || c.Region.Enabled {
		t.Errorf("ColorFormat = %v Region.Enabled = %v", c.ColorFormat, c.Region.Enabled)
	}
}

func TestNewConfigRadiusClamp(t *testing.T) {
	tests := []struct {
		size int64
		want int
	}{
		{-4, 1},
		{0, 1},
		{1, 1},
		{25, 25},
		{26, 25},
		{1000, 25},
	}
	for _, tt := range tests {
		s := NewSettings()
		s.SetInt(KeySize, tt.size)
		if got := NewConfig(s).Radius; got != tt.want {
			t.Errorf("size %d: Radius = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestNewConfigColorFormatNeedsAdvanced(t *testing.T) {
	s := NewSettings()
	s.SetInt(KeyColorFormat, int64(ColorFormatYUV))
	if got := NewConfig(s).ColorFormat; got != ColorFormatRGB {
		t.Errorf("without advanced: ColorFormat = %v, want RGB", got)
	}
	s.SetBool(KeyAdvanced, true)
	if got := NewConfig(s).ColorFormat; got != ColorFormatYUV {
		t.Errorf("with advanced: ColorFormat = %v, want YUV", got)
	}
}

func TestNewConfigIdempotent(t *testing.T) {
	s := NewSettings()
	s.SetInt(KeyType, int64(AlgorithmBilateral))
	s.SetInt(KeySize, 17)
	s.SetFloat(KeyBilateralSmoothing, 33.3)
	s.SetFloat(KeyBilateralSharpness, 12.5)
	s.SetBool(KeyRegionEnabled, true)
	s.SetFloat(KeyRegionLeft, 12.5)
	s.SetFloat(KeyRegionRight, 7.25)
	s.SetFloat(KeyRegionFeather, 3)
	s.SetFloat(KeyRegionFeatherShift, 40)
	s.SetBool(KeyAdvanced, true)
	s.SetInt(KeyColorFormat, int64(ColorFormatYUV))

	if a, b := NewConfig(s), NewConfig(s); a != b {
		t.Errorf("NewConfig not idempotent:\n%+v\n%+v", a, b)
	}
}

func TestAlgorithmNames(t *testing.T) {
	for _, a := range []Algorithm{AlgorithmBox, AlgorithmGaussian, AlgorithmBilateral} {
		got, err := ParseAlgorithm(a.String())
		if err != nil || got != a {
			t.Errorf("ParseAlgorithm(%q) = %v, %v", a.String(), got, err)
		}
	}
	if _, err := ParseAlgorithm("median"); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("ParseAlgorithm(median) err = %v, want ErrUnknownAlgorithm", err)
	}
	if Algorithm(9).String() != "Algorithm(9)" {
		t.Errorf("String() = %q", Algorithm(9).String())
	}
	if ColorFormatYUV.String() != "YUV" {
		t.Errorf("ColorFormatYUV.String() = %q", ColorFormatYUV.String())
	}
}
