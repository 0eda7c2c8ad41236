package frameblur

import (
	"maps"
	"sort"
)

// Setting keys read by Filter.Update.
const (
	KeyType               = "type"
	KeySize               = "size"
	KeyBilateralSmoothing = "bilateral.smoothing"
	KeyBilateralSharpness = "bilateral.sharpness"
	KeyRegionEnabled      = "region.enabled"
	KeyRegionLeft         = "region.left"
	KeyRegionTop          = "region.top"
	KeyRegionRight        = "region.right"
	KeyRegionBottom       = "region.bottom"
	KeyRegionFeather      = "region.feather"
	KeyRegionFeatherShift = "region.featherShift"
	KeyRegionInvert       = "region.invert"
	KeyAdvanced           = "advanced.enabled"
	KeyColorFormat        = "colorFormat"
)

// Settings is a flat key-value store. Getters return the value set by
// the user, else the registered default, else the zero value.
//
// Integer and float values convert into each other on read; bools do
// not convert.
type Settings struct {
	values   map[string]any
	defaults map[string]any
}

// NewSettings returns settings holding only the filter defaults.
func NewSettings() *Settings {
	s := &Settings{
		values:   make(map[string]any),
		defaults: make(map[string]any),
	}
	applyDefaults(s)
	return s
}

func applyDefaults(s *Settings) {
	s.defaults[KeyType] = int64(AlgorithmBox)
	s.defaults[KeySize] = int64(5)
	s.defaults[KeyBilateralSmoothing] = 50.0
	s.defaults[KeyBilateralSharpness] = 90.0
	s.defaults[KeyRegionEnabled] = false
	s.defaults[KeyRegionLeft] = 0.0
	s.defaults[KeyRegionTop] = 0.0
	s.defaults[KeyRegionRight] = 0.0
	s.defaults[KeyRegionBottom] = 0.0
	s.defaults[KeyRegionFeather] = 0.0
	s.defaults[KeyRegionFeatherShift] = 0.0
	s.defaults[KeyRegionInvert] = false
	s.defaults[KeyAdvanced] = false
	s.defaults[KeyColorFormat] = int64(ColorFormatRGB)
}

// SetInt stores an integer value.
func (s *Settings) SetInt(key string, v int64) { s.values[key] = v }

// SetFloat stores a float value.
func (s *Settings) SetFloat(key string, v float64) { s.values[key] = v }

// SetBool stores a bool value.
func (s *Settings) SetBool(key string, v bool) { s.values[key] = v }

// Erase removes the user value of key so the default applies again.
func (s *Settings) Erase(key string) { delete(s.values, key) }

// Has reports whether the user set key.
func (s *Settings) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Keys returns the user-set keys in sorted order.
func (s *Settings) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy.
func (s *Settings) Clone() *Settings {
	return &Settings{
		values:   maps.Clone(s.values),
		defaults: maps.Clone(s.defaults),
	}
}

// Int returns key as an integer. Floats are truncated.
func (s *Settings) Int(key string) int64 {
	switch v := s.lookup(key).(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

// Float returns key as a float.
func (s *Settings) Float(key string) float64 {
	switch v := s.lookup(key).(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

// Bool returns key as a bool.
func (s *Settings) Bool(key string) bool {
	v, _ := s.lookup(key).(bool)
	return v
}

func (s *Settings) lookup(key string) any {
	if v, ok := s.values[key]; ok {
		return v
	}
	return s.defaults[key]
}
