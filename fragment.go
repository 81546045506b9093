package urlnorm

import "strings"

// NormalizeFragment returns the route segments of a significant fragment, or
// nil if the fragment is an in-page anchor. Patterns are tried in order;
// the first capture group of the first matching pattern is the route,
// otherwise the whole fragment is.
func (c *Config) NormalizeFragment(fragment string) []string {
	fragment = strings.TrimPrefix(fragment, "#")
	if fragment == "" {
		return nil
	}
	for _, re := range c.fragmentRoutes {
		m := re.FindStringSubmatchIndex(fragment)
		if m == nil {
			continue
		}
		route := fragment
		if len(m) >= 4 && m[2] >= 0 {
			route = fragment[m[2]:m[3]]
		}
		return pruneEmpty(strings.Split(route, "/"))
	}
	return nil
}
