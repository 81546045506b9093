package cluster

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/R3dTr4p/urlnorm"
)

// Keyed is a parsed URL together with its normalization key.
type Keyed struct {
	URL urlnorm.URL
	Key string
}

// KeyCache memoizes parse+normalize results per raw line. Large recon lists
// repeat the same URL many times. A nil *KeyCache is valid and caches
// nothing.
type KeyCache struct {
	c *lru.Cache[string, Keyed]
}

// NewKeyCache returns a cache holding up to size entries, or nil when size
// is not positive.
func NewKeyCache(size int) (*KeyCache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New[string, Keyed](size)
	if err != nil {
		return nil, err
	}
	return &KeyCache{c: c}, nil
}

func (k *KeyCache) Get(raw string) (Keyed, bool) {
	if k == nil {
		return Keyed{}, false
	}
	return k.c.Get(raw)
}

func (k *KeyCache) Add(raw string, v Keyed) {
	if k == nil {
		return
	}
	k.c.Add(raw, v)
}
