package urlnorm

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// NormalizeHost lowercases host and removes at most one configured prefix,
// preferring the longest one. A prefix is never stripped if the rest would
// be a bare public suffix, so "www.com", "mobile.de" and "m.co.uk" stay
// intact. With StripStackedPrefixes the removal repeats until no prefix
// matches.
func (c *Config) NormalizeHost(host string) string {
	host = strings.ToLower(host)
	for {
		stripped, ok := c.stripHostPrefix(host)
		if !ok {
			return host
		}
		host = stripped
		if !c.stackedPrefixes {
			return host
		}
	}
}

func (c *Config) stripHostPrefix(host string) (string, bool) {
	for _, p := range c.hostPrefixes {
		if !strings.HasPrefix(host, p) {
			continue
		}
		rest := host[len(p):]
		bare := strings.Trim(rest, ".")
		if bare == "" {
			continue
		}
		if suffix, _ := publicsuffix.PublicSuffix(bare); suffix != bare {
			return rest, true
		}
	}
	return host, false
}
