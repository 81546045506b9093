// Package urlnorm computes comparison keys for URLs. Two URLs that differ
// only in scheme, a www-style host prefix, redundant slashes, tracking
// parameters, query order or an in-page anchor produce the same key.
//
// A key is not a URL. It is a sequence of tokens, each terminated by ':':
// the host, the path segments, the segments of a routing fragment, then
// the query parameters rendered as name=value. Inside tokens '%' and ':'
// are percent-escaped, and '=' is escaped everywhere except as the
// separator of a query token, so tokens of different kinds cannot be
// confused.
//
//	urlnorm.Default().Normalize(u) // "google.com:" for http://www.google.com
package urlnorm

import (
	"net/url"
	"strings"
)

// URL is a parsed URL as seen by the normalizer. Parsing is left to the
// caller; see FromURL and Parse for the standard library parser.
type URL struct {
	Scheme string
	Host   string
	// Path holds the decoded segments between slashes, empty ones included.
	Path []string
	// Query holds the parameters in query string order.
	Query []Param
	// Fragment is the text after '#', without it.
	Fragment string
}

// Normalize returns the comparison key for u. The scheme is ignored.
func (c *Config) Normalize(u URL) string {
	var b keyBuilder
	b.Grow(len(u.Host) + 8*len(u.Path) + 16*len(u.Query) + len(u.Fragment) + 1)

	b.token(c.NormalizeHost(u.Host), segmentEscaper)
	for _, seg := range c.NormalizePath(u.Path) {
		b.token(seg, segmentEscaper)
	}
	for _, seg := range c.NormalizeFragment(u.Fragment) {
		b.token(seg, segmentEscaper)
	}
	for _, p := range c.NormalizeQuery(u.Query) {
		b.param(p)
	}
	return b.String()
}

// Same reports whether a and b normalize to the same key.
func (c *Config) Same(a, b URL) bool {
	return c.Normalize(a) == c.Normalize(b)
}

const delimiter = ':'

var (
	segmentEscaper = strings.NewReplacer("%", "%25", ":", "%3A", "=", "%3D")
	valueEscaper   = strings.NewReplacer("%", "%25", ":", "%3A")
)

type keyBuilder struct {
	strings.Builder
}

func (b *keyBuilder) token(s string, r *strings.Replacer) {
	_, _ = r.WriteString(&b.Builder, s)
	b.WriteByte(delimiter)
}

func (b *keyBuilder) param(p Param) {
	_, _ = segmentEscaper.WriteString(&b.Builder, p.Name)
	b.WriteByte('=')
	_, _ = valueEscaper.WriteString(&b.Builder, p.Value)
	b.WriteByte(delimiter)
}

// FromURL converts a standard library URL. Dot segments are resolved and
// the path is split before decoding. Query parameters keep their original
// order and are unescaped the way url.ParseQuery does; a parameter that
// fails to unescape is kept verbatim. IPv6 hosts keep their brackets.
func FromURL(u *url.URL) URL {
	p := u.EscapedPath()
	if u.Opaque == "" && strings.Contains(p, "/.") {
		p = u.ResolveReference(&url.URL{}).EscapedPath()
	}
	host := u.Hostname()
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return URL{
		Scheme:   u.Scheme,
		Host:     host,
		Path:     SplitEscapedPath(p),
		Query:    SplitQuery(u.RawQuery),
		Fragment: u.Fragment,
	}
}

// Parse parses raw with net/url and converts the result.
func Parse(raw string) (URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return URL{}, err
	}
	return FromURL(u), nil
}

// SplitQuery splits a raw query string into parameters in order.
func SplitQuery(raw string) []Param {
	if raw == "" {
		return nil
	}
	var out []Param
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		out = append(out, Param{Name: unescapeQuery(name), Value: unescapeQuery(value)})
	}
	return out
}

func unescapeQuery(s string) string {
	u, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return u
}
