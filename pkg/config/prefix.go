package config

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// ChannelPrefixConfig holds the optional publish and subscribe channel prefixes.
//
// In YAML it accepts either a scalar, applied to both directions, or a mapping
// with optional pub and sub keys. Any other shape, and any non-string or blank
// value, is ignored rather than rejected: prefix parsing is best-effort.
type ChannelPrefixConfig struct {
	Pub string `yaml:"pub"`
	Sub string `yaml:"sub"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *ChannelPrefixConfig) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() != "!!str" {
			return nil
		}
		if s := strings.TrimSpace(node.Value); s != "" {
			p.Pub, p.Sub = s, s
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			if val.Kind != yaml.ScalarNode || val.ShortTag() != "!!str" {
				continue
			}
			s := strings.TrimSpace(val.Value)
			if s == "" {
				continue
			}
			switch key.Value {
			case "pub":
				p.Pub = s
			case "sub":
				p.Sub = s
			}
		}
	}
	return nil
}
