// Package config provides YAML-loadable ceilings for the covenant protocol:
// fixed defaults, overridable from a YAML file on disk when one is
// supplied.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Limits bounds the shape of CCL documents and covenant chains. These are
// hard numeric ceilings by default; this structure lets an operator
// override them (e.g. to tighten a deployment's maximum document size)
// without recompiling. Only MaxDocumentBytes, MaxConstraints and
// MaxChainDepth are enforced (by pkg/covenant). DefaultSeverity and
// RateLimitUnits hold the protocol's defaults; the CCL parser uses its own
// built-in severity and time-unit values and does not read these fields.
type Limits struct {
	MaxDocumentBytes int       `yaml:"max_document_bytes" json:"max_document_bytes"`
	MaxConstraints   int       `yaml:"max_constraints" json:"max_constraints"`
	MaxChainDepth    int       `yaml:"max_chain_depth" json:"max_chain_depth"`
	DefaultSeverity  string    `yaml:"default_severity" json:"default_severity"`
	RateLimitUnits   RateUnits `yaml:"rate_limit_units" json:"rate_limit_units"`
}

// RateUnits gives the number of seconds each CCL rate-limit period keyword
// spans. Changing these values does not change how limit statements parse.
type RateUnits struct {
	Second int `yaml:"second" json:"second"`
	Minute int `yaml:"minute" json:"minute"`
	Hour   int `yaml:"hour" json:"hour"`
	Day    int `yaml:"day" json:"day"`
}

// DefaultLimits returns the protocol's fixed ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxDocumentBytes: 1048576,
		MaxConstraints:   256,
		MaxChainDepth:    16,
		DefaultSeverity:  "high",
		RateLimitUnits: RateUnits{
			Second: 1,
			Minute: 60,
			Hour:   3600,
			Day:    86400,
		},
	}
}

// LoadLimits reads a Limits override from a YAML file at path. Fields
// absent from the file keep their DefaultLimits() value.
func LoadLimits(path string) (Limits, error) {
	limits := DefaultLimits()

	data, err := os.ReadFile(path)
	if err != nil {
		return Limits{}, fmt.Errorf("config: read limits file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &limits); err != nil {
		return Limits{}, fmt.Errorf("config: parse limits file %q: %w", path, err)
	}
	return limits, nil
}
