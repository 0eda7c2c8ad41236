package frameblur

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseSettingsYAML reads settings from a YAML mapping. Nested mappings
// flatten into dotted keys, so
//
//	type: 1
//	region:
//	  enabled: true
//	  left: 10
//
// sets "type", "region.enabled" and "region.left". Keys not present keep
// their defaults.
func ParseSettingsYAML(data []byte) (*Settings, error) {
	s := NewSettings()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("frameblur: parse settings: %w", err)
	}
	return s, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Settings) UnmarshalYAML(node *yaml.Node) error {
	if s.values == nil {
		*s = *NewSettings()
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: settings must be a mapping, got line %d", ErrSettingType, node.Line)
	}
	return s.decodeMapping("", node)
}

func (s *Settings) decodeMapping(prefix string, node *yaml.Node) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if prefix != "" {
			key = prefix + "." + key
		}

		val := node.Content[i+1]
		switch val.Kind {
		case yaml.MappingNode:
			if err := s.decodeMapping(key, val); err != nil {
				return err
			}
		case yaml.ScalarNode:
			if err := s.decodeScalar(key, val); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s at line %d", ErrSettingType, key, val.Line)
		}
	}
	return nil
}

func (s *Settings) decodeScalar(key string, val *yaml.Node) error {
	switch val.ShortTag() {
	case "!!bool":
		var b bool
		if err := val.Decode(&b); err != nil {
			return fmt.Errorf("frameblur: setting %s: %w", key, err)
		}
		s.SetBool(key, b)
	case "!!int":
		var n int64
		if err := val.Decode(&n); err != nil {
			return fmt.Errorf("frameblur: setting %s: %w", key, err)
		}
		s.SetInt(key, n)
	case "!!float":
		var f float64
		if err := val.Decode(&f); err != nil {
			return fmt.Errorf("frameblur: setting %s: %w", key, err)
		}
		s.SetFloat(key, f)
	default:
		return fmt.Errorf("%w: %s is %s at line %d", ErrSettingType, key, val.ShortTag(), val.Line)
	}
	return nil
}
