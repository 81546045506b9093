package cluster

import (
	"fmt"
	"strings"
)

// Keep selects which URL of a cluster is emitted.
type Keep string

const (
	KeepFirst    Keep = "first"
	KeepShortest Keep = "shortest"
	KeepLongest  Keep = "longest"
	KeepRichest  Keep = "richest"
	KeepLexi     Keep = "lexi"
)

func ParseKeep(s string) (Keep, error) {
	switch k := Keep(strings.ToLower(s)); k {
	case KeepFirst, KeepShortest, KeepLongest, KeepRichest, KeepLexi:
		return k, nil
	default:
		return "", fmt.Errorf("unknown keep policy %q", s)
	}
}

// Choose returns the representative among the current one a and the
// newcomer b. Ties go to the entry that was read first.
func Choose(a, b *Entry, policy Keep) *Entry {
	switch c := compare(a, b, policy); {
	case c > 0:
		return a
	case c < 0:
		return b
	}
	if b.Seq < a.Seq {
		return b
	}
	return a
}

// compare is positive when a is preferred over b, negative when b is, and
// zero when the policy has no preference.
func compare(a, b *Entry, policy Keep) int {
	switch policy {
	case KeepShortest:
		return len(b.Raw) - len(a.Raw)
	case KeepLongest:
		return len(a.Raw) - len(b.Raw)
	case KeepLexi:
		return strings.Compare(b.Raw, a.Raw)
	case KeepRichest:
		// Seeds win, then path depth and parameter count, then length.
		if a.IsSeed != b.IsSeed {
			if a.IsSeed {
				return 1
			}
			return -1
		}
		scoreA := a.PathDepth*3 + a.ParamCount*2
		scoreB := b.PathDepth*3 + b.ParamCount*2
		if scoreA != scoreB {
			return scoreA - scoreB
		}
		return len(a.Raw) - len(b.Raw)
	default:
		// first, and anything unknown, is decided by read order alone
		return 0
	}
}
