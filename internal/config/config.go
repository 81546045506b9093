package config

import (
	"fmt"
	"path"

	"github.com/hashicorp/go-multierror"

	"github.com/R3dTr4p/urlnorm"
)

// Presets select the base option set that keys absent from the config file
// and environment fall back to.
const (
	PresetDefault  = "default"
	PresetExtended = "extended"
	PresetNone     = "none"
)

type Normalizer struct {
	Preset               string   `mapstructure:"preset"`
	HostPrefixes         []string `mapstructure:"host_prefixes"`
	StripStackedPrefixes bool     `mapstructure:"strip_stacked_prefixes"`
	QueryDropPatterns    []string `mapstructure:"query_drop_patterns"`
	FragmentPatterns     []string `mapstructure:"fragment_significant_patterns"`
	PathExtensionPattern string   `mapstructure:"path_extension_pattern"`
	PathExtensionLength  int      `mapstructure:"path_extension_length"`
	// DropParams are shell globs (utm_*, gclid) matched against parameter
	// names after the regular expressions.
	DropParams []string `mapstructure:"drop_params"`
}

func presetOptions(name string) (urlnorm.Options, error) {
	switch name {
	case PresetDefault, "":
		return urlnorm.DefaultOptions(), nil
	case PresetExtended:
		return urlnorm.ExtendedOptions(), nil
	case PresetNone:
		return urlnorm.Options{}, nil
	default:
		return urlnorm.Options{}, fmt.Errorf("unknown preset %q", name)
	}
}

// Options converts the loaded settings into library options.
func (n *Normalizer) Options() (urlnorm.Options, error) {
	o := urlnorm.Options{
		HostPrefixes:         n.HostPrefixes,
		StripStackedPrefixes: n.StripStackedPrefixes,
		QueryDropPatterns:    n.QueryDropPatterns,
		FragmentPatterns:     n.FragmentPatterns,
		PathExtensionPattern: n.PathExtensionPattern,
		PathExtensionLength:  n.PathExtensionLength,
	}
	if len(n.DropParams) > 0 {
		m, err := globMatcher(n.DropParams)
		if err != nil {
			return urlnorm.Options{}, err
		}
		o.QueryDropMatchers = append(o.QueryDropMatchers, m)
	}
	return o, nil
}

// Compile builds the normalizer configuration.
func (n *Normalizer) Compile() (*urlnorm.Config, error) {
	o, err := n.Options()
	if err != nil {
		return nil, err
	}
	return urlnorm.New(o)
}

// globMatcher reports every malformed glob, not just the first.
func globMatcher(patterns []string) (urlnorm.Matcher, error) {
	var errs *multierror.Error
	for i, p := range patterns {
		if _, err := path.Match(p, ""); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("drop_params[%d] %q: %w", i, p, err))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	globs := append([]string(nil), patterns...)
	return urlnorm.MatcherFunc(func(name string) bool {
		for _, p := range globs {
			if ok, _ := path.Match(p, name); ok {
				return true
			}
		}
		return false
	}), nil
}
