package urlnorm

import (
	"regexp"
	"strings"
)

// Matcher decides whether a string satisfies a rule. Query drop rules are
// expressed as matchers so callers can mix regular expressions with plain
// name sets.
type Matcher interface {
	Match(s string) bool
}

// MatcherFunc adapts an ordinary function to a Matcher.
type MatcherFunc func(s string) bool

func (f MatcherFunc) Match(s string) bool { return f(s) }

// Any is an ordered list of matchers. The first matcher that accepts wins
// and the remaining ones are not evaluated.
type Any []Matcher

func (a Any) Match(s string) bool {
	for _, m := range a {
		if m.Match(s) {
			return true
		}
	}
	return false
}

// Regexp matches strings containing a match of re. Anchoring is up to the
// pattern.
func Regexp(re *regexp.Regexp) Matcher {
	return MatcherFunc(re.MatchString)
}

type exactSet map[string]struct{}

func (e exactSet) Match(s string) bool {
	_, ok := e[s]
	return ok
}

// Exact matches any of the given strings, case-sensitively.
func Exact(values ...string) Matcher {
	set := make(exactSet, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Prefix matches strings starting with any of the given prefixes.
func Prefix(prefixes ...string) Matcher {
	ps := append([]string(nil), prefixes...)
	return MatcherFunc(func(s string) bool {
		for _, p := range ps {
			if strings.HasPrefix(s, p) {
				return true
			}
		}
		return false
	})
}
