package urlnorm

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Default pattern sets. Query drop patterns are compiled verbatim, so each
// one carries its own anchors.
var (
	DefaultHostPrefixes = []string{"www.", "www1.", "www2.", "www3.", "ww1.", "m.", "mobile."}

	DefaultQueryDropPatterns = []string{
		`^utm_`,
		`^gclid$`,
		`^_ga$`,
		`^_gl$`,
		`^msclkid$`,
		`^fbclid$`,
		`^mc_cid$`,
		`^mc_eid$`,
		`^[Ww][Tt]\.mc_(id|ev)$`,
		`^__[a-z]+$`,
	}

	// SPA style "/#/route" and hashbang "#!route" fragments. The first
	// capture group is the route content.
	DefaultFragmentPatterns = []string{
		`^/(.*)$`,
		`^!(.*)$`,
	}
)

// Trailing extensions like .html, .php5 or .aspx.
const (
	DefaultPathExtensionPattern = `^[a-zA-Z]+[0-9]?$`
	DefaultPathExtensionLength  = 6
)

// Options is the uncompiled form of a Config.
type Options struct {
	// HostPrefixes are literal prefixes stripped from the host. Matching is
	// case-insensitive and the longest matching prefix wins.
	HostPrefixes []string
	// StripStackedPrefixes keeps stripping until no prefix matches, so
	// "m.www.example.com" becomes "example.com". Off by default.
	StripStackedPrefixes bool

	// QueryDropPatterns are regular expressions tested against query
	// parameter names, in order.
	QueryDropPatterns []string
	// QueryDropMatchers are evaluated after QueryDropPatterns.
	QueryDropMatchers []Matcher

	// FragmentPatterns mark a fragment as part of the resource identity.
	FragmentPatterns []string

	// PathExtensionPattern enables trimming of a trailing extension from
	// the last path segment when non-empty. The extension (without the dot)
	// must be at most PathExtensionLength bytes and match the pattern.
	PathExtensionPattern string
	PathExtensionLength  int
}

// DefaultOptions returns the documented default pattern sets.
func DefaultOptions() Options {
	return Options{
		HostPrefixes:      append([]string(nil), DefaultHostPrefixes...),
		QueryDropPatterns: append([]string(nil), DefaultQueryDropPatterns...),
		FragmentPatterns:  append([]string(nil), DefaultFragmentPatterns...),
	}
}

// ExtendedOptions is DefaultOptions with stacked prefix stripping and
// extension trimming enabled.
func ExtendedOptions() Options {
	o := DefaultOptions()
	o.StripStackedPrefixes = true
	o.PathExtensionPattern = DefaultPathExtensionPattern
	o.PathExtensionLength = DefaultPathExtensionLength
	return o
}

// ErrInvalidPattern is matched by every *ConfigError.
var ErrInvalidPattern = errors.New("invalid pattern")

// PatternRole names the option a pattern was supplied for.
type PatternRole string

const (
	RoleQueryDrop     PatternRole = "query_drop_patterns"
	RoleFragment      PatternRole = "fragment_significant_patterns"
	RolePathExtension PatternRole = "path_extension_pattern"
)

// ConfigError reports a pattern that failed to compile.
type ConfigError struct {
	Role    PatternRole
	Index   int
	Pattern string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s[%d]: %v %q: %v", e.Role, e.Index, ErrInvalidPattern, e.Pattern, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrInvalidPattern }

// Config holds compiled normalization rules. It is never modified after New
// returns and may be shared by any number of goroutines.
type Config struct {
	hostPrefixes    []string // lowercase, longest first
	stackedPrefixes bool
	queryDrop       Any
	fragmentRoutes  []*regexp.Regexp
	extPattern      *regexp.Regexp
	extLength       int
}

// New compiles o. Either every pattern compiles and a Config is returned, or
// the first failing pattern is reported as a *ConfigError.
func New(o Options) (*Config, error) {
	c := &Config{
		stackedPrefixes: o.StripStackedPrefixes,
		extLength:       o.PathExtensionLength,
	}

	seen := make(map[string]struct{}, len(o.HostPrefixes))
	for _, p := range o.HostPrefixes {
		p = strings.ToLower(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		c.hostPrefixes = append(c.hostPrefixes, p)
	}
	sort.SliceStable(c.hostPrefixes, func(i, j int) bool {
		return len(c.hostPrefixes[i]) > len(c.hostPrefixes[j])
	})

	drops, err := compileAll(RoleQueryDrop, o.QueryDropPatterns)
	if err != nil {
		return nil, err
	}
	for _, re := range drops {
		c.queryDrop = append(c.queryDrop, Regexp(re))
	}
	for _, m := range o.QueryDropMatchers {
		if m != nil {
			c.queryDrop = append(c.queryDrop, m)
		}
	}

	if c.fragmentRoutes, err = compileAll(RoleFragment, o.FragmentPatterns); err != nil {
		return nil, err
	}

	if o.PathExtensionPattern != "" {
		re, err := regexp.Compile(o.PathExtensionPattern)
		if err != nil {
			return nil, &ConfigError{Role: RolePathExtension, Pattern: o.PathExtensionPattern, Err: err}
		}
		c.extPattern = re
	}
	return c, nil
}

// Default returns a Config built from DefaultOptions.
func Default() *Config {
	c, err := New(DefaultOptions())
	if err != nil {
		panic("urlnorm: default options do not compile: " + err.Error())
	}
	return c
}

func compileAll(role PatternRole, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &ConfigError{Role: role, Index: i, Pattern: p, Err: err}
		}
		out = append(out, re)
	}
	return out, nil
}
