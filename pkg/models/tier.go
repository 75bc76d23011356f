package models

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tier is the capability class of a model.
type Tier int

const (
	TierUnknown Tier = iota
	TierLocal
	TierFast
	TierBalanced
	TierAdvanced
	TierPremium
)

var tierNames = map[Tier]string{
	TierLocal:    "local",
	TierFast:     "fast",
	TierBalanced: "balanced",
	TierAdvanced: "advanced",
	TierPremium:  "premium",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseTier converts a tier name into a Tier.
func ParseTier(s string) (Tier, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for tier, n := range tierNames {
		if n == name {
			return tier, nil
		}
	}
	return TierUnknown, fmt.Errorf("unknown model tier %q", s)
}

// ComplexityFit scores how well the tier suits a prompt of the given
// complexity. Lower tiers favor simple prompts, higher tiers complex ones.
func (t Tier) ComplexityFit(complexity float64) float64 {
	switch t {
	case TierLocal:
		return 1 - complexity
	case TierFast:
		if complexity < 0.6 {
			return 0.9
		}
		return 0.6
	case TierBalanced:
		if complexity < 0.8 {
			return 0.8
		}
		return 0.7
	case TierAdvanced:
		if complexity > 0.5 {
			return 0.9
		}
		return 0.7
	case TierPremium:
		if complexity > 0.7 {
			return 1.0
		}
		return 0.8
	default:
		return 0.5
	}
}

// MarshalYAML writes the tier by name.
func (t Tier) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// UnmarshalYAML parses a tier name.
func (t *Tier) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseTier(value.Value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalText lets tiers appear by name in JSON output.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
