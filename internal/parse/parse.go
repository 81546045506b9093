// Package parse turns raw URL text into urlnorm.URL values. Two parsers are
// available: the WHATWG URL standard parser, which matches what browsers do
// with host case, IDNA and percent-encoding, and the net/url parser.
package parse

import (
	"errors"
	"fmt"
	"strings"

	whatwg "github.com/nlnwa/whatwg-url/url"

	"github.com/R3dTr4p/urlnorm"
)

var ErrEmpty = errors.New("empty url")

// Parser converts one raw URL.
type Parser interface {
	Parse(raw string) (urlnorm.URL, error)
}

const (
	NameWHATWG = "whatwg"
	NameStd    = "std"
)

// ByName returns the parser registered under name.
func ByName(name string) (Parser, error) {
	switch strings.ToLower(name) {
	case NameWHATWG, "":
		return NewWHATWG(), nil
	case NameStd:
		return Std{}, nil
	default:
		return nil, fmt.Errorf("unknown parser %q", name)
	}
}

type WHATWG struct {
	p whatwg.Parser
}

// NewWHATWG returns a lenient WHATWG parser: invalid code points and stray
// percent signs are encoded instead of rejected.
func NewWHATWG() *WHATWG {
	return &WHATWG{p: whatwg.NewParser(
		whatwg.WithLaxHostParsing(),
		whatwg.WithAcceptInvalidCodepoints(),
		whatwg.WithPercentEncodeSinglePercentSign(),
	)}
}

func (w *WHATWG) Parse(raw string) (urlnorm.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return urlnorm.URL{}, ErrEmpty
	}
	u, err := w.p.Parse(raw)
	if err != nil {
		return urlnorm.URL{}, err
	}

	out := urlnorm.URL{
		Scheme:   u.Scheme(),
		Host:     u.Hostname(),
		Fragment: u.Fragment(),
	}
	if u.OpaquePath() {
		out.Path = []string{u.Pathname()}
	} else {
		out.Path = urlnorm.SplitEscapedPath(u.Pathname())
	}
	// SearchParams would decode the already serialized query a second time.
	out.Query = urlnorm.SplitQuery(u.Query())
	return out, nil
}

// Std parses with net/url.
type Std struct{}

func (Std) Parse(raw string) (urlnorm.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return urlnorm.URL{}, ErrEmpty
	}
	return urlnorm.Parse(raw)
}
