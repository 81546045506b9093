package urlnorm

import "sort"

// Param is one query parameter as it appeared in the query string.
type Param struct {
	Name  string
	Value string
}

// NormalizeQuery removes parameters whose name matches a drop rule and sorts
// the rest by name, then value. Names and values are compared bytewise.
func (c *Config) NormalizeQuery(params []Param) []Param {
	out := make([]Param, 0, len(params))
	for _, p := range params {
		if c.queryDrop.Match(p.Name) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// Dropped reports whether a parameter with this name is removed.
func (c *Config) Dropped(name string) bool {
	return c.queryDrop.Match(name)
}
