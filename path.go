package urlnorm

import (
	"net/url"
	"strings"
)

// NormalizePath drops empty segments and keeps the order of the rest. Dot
// segments and percent escapes are left as the parser produced them. When
// extension trimming is configured it applies to the last segment only.
func (c *Config) NormalizePath(segments []string) []string {
	out := pruneEmpty(segments)
	if c.extPattern != nil && len(out) > 0 {
		last := len(out) - 1
		out[last] = c.trimExtension(out[last])
	}
	return out
}

func (c *Config) trimExtension(seg string) string {
	i := strings.LastIndexByte(seg, '.')
	if i <= 0 {
		return seg
	}
	ext := seg[i+1:]
	if len(ext) > c.extLength || !c.extPattern.MatchString(ext) {
		return seg
	}
	return seg[:i]
}

func pruneEmpty(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SplitPath splits a slash separated path into segments.
func SplitPath(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// SplitEscapedPath splits an escaped path and percent-decodes every segment,
// so an encoded slash stays inside its segment. A segment that fails to
// decode is kept as is.
func SplitEscapedPath(p string) []string {
	segs := SplitPath(p)
	for i, s := range segs {
		if !strings.Contains(s, "%") {
			continue
		}
		if d, err := url.PathUnescape(s); err == nil {
			segs[i] = d
		}
	}
	return segs
}
