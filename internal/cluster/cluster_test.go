package cluster

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3dTr4p/urlnorm"
)

func entry(t *testing.T, norm *urlnorm.Config, raw string, seeded bool) *Entry {
	t.Helper()
	u, err := urlnorm.Parse(raw)
	require.NoError(t, err)
	return NewEntry(raw, norm.Normalize(u), u, seeded)
}

func TestScope(t *testing.T) {
	tests := map[string]string{
		"www.example.com":   "example.com",
		"a.b.example.co.uk": "example.co.uk",
		"EXAMPLE.com.":      "example.com",
		"1.2.3.4":           "1.2.3.4",
		"[::1]":             "[::1]",
		"localhost":         "localhost",
		"":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Scope(in), in)
	}
}

func TestIndexClustersByKey(t *testing.T) {
	norm := urlnorm.Default()
	idx := NewIndex(4, KeepFirst, true)

	urls := []string{
		"https://www.example.com/a/b?utm_source=tw&lang=en",
		"http://example.com/a/b/?lang=en",
		"https://example.com//a/b?lang=en#frag",
		"https://api.example.com/a/b?lang=en",
		"https://example.com/a/b?lang=de",
		"https://example.com/app/#/users",
		"https://example.com/app/#/groups",
	}
	merged := 0
	for _, raw := range urls {
		if idx.Add(entry(t, norm, raw, false)) {
			merged++
		}
	}
	assert.Equal(t, 2, merged)
	assert.Equal(t, 5, idx.Len())

	clusters := idx.Clusters()
	require.Len(t, clusters, 5)
	keys := make([]string, len(clusters))
	for i, c := range clusters {
		keys[i] = c.Rep.Key
	}
	assert.Equal(t, []string{
		"api.example.com:a:b:lang=en:",
		"example.com:a:b:lang=de:",
		"example.com:a:b:lang=en:",
		"example.com:app:groups:",
		"example.com:app:users:",
	}, keys)

	assert.Equal(t, urls[0], clusters[2].Rep.Raw)
	assert.Len(t, clusters[2].Members, 3)
}

func TestIndexWithoutMembers(t *testing.T) {
	norm := urlnorm.Default()
	idx := NewIndex(0, KeepShortest, false)
	idx.Add(entry(t, norm, "https://www.example.com/a", false))
	idx.Add(entry(t, norm, "http://example.com/a", false))

	clusters := idx.Clusters()
	require.Len(t, clusters, 1)
	assert.Nil(t, clusters[0].Members)
	assert.Equal(t, "http://example.com/a", clusters[0].Rep.Raw)
}

func TestIndexConcurrentAdd(t *testing.T) {
	norm := urlnorm.Default()
	idx := NewIndex(8, KeepLexi, false)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				raw := fmt.Sprintf("https://site%d.example.com/p/%d?utm_source=w%d", i%10, i%25, w)
				u, err := urlnorm.Parse(raw)
				if err != nil {
					t.Error(err)
					return
				}
				idx.Add(NewEntry(raw, norm.Normalize(u), u, false))
			}
		}(w)
	}
	wg.Wait()
	// site = i%10 and page = i%25 repeat with period 50
	assert.Equal(t, 50, idx.Len())
}

func TestChoose(t *testing.T) {
	short := &Entry{Raw: "http://x.com/a", PathDepth: 1}
	long := &Entry{Raw: "https://www.x.com/a/", PathDepth: 1}
	deep := &Entry{Raw: "http://x.com/a/b", PathDepth: 2}
	params := &Entry{Raw: "http://x.com/a?p=1&q=2", PathDepth: 1, ParamCount: 2}
	seed := &Entry{Raw: "http://x.com", IsSeed: true}

	assert.Same(t, short, Choose(short, long, KeepFirst))
	assert.Same(t, short, Choose(long, short, KeepShortest))
	assert.Same(t, long, Choose(short, long, KeepLongest))
	assert.Same(t, short, Choose(long, short, KeepLexi))
	assert.Same(t, deep, Choose(short, deep, KeepRichest))
	assert.Same(t, params, Choose(deep, params, KeepRichest))
	assert.Same(t, long, Choose(short, long, KeepRichest))
	assert.Same(t, seed, Choose(params, seed, KeepRichest))
	assert.Same(t, seed, Choose(seed, params, KeepRichest))
	assert.Same(t, short, Choose(short, long, Keep("unknown")))

	early := &Entry{Raw: "http://x.com/a?b", Seq: 3}
	late := &Entry{Raw: "http://x.com/a?c", Seq: 9}
	for _, k := range []Keep{KeepFirst, KeepShortest, KeepLongest, KeepRichest} {
		assert.Same(t, early, Choose(late, early, k), k)
		assert.Same(t, early, Choose(early, late, k), k)
	}
	assert.Same(t, early, Choose(late, early, KeepLexi))
}

func TestParseKeep(t *testing.T) {
	k, err := ParseKeep("RICHEST")
	require.NoError(t, err)
	assert.Equal(t, KeepRichest, k)

	_, err = ParseKeep("best")
	assert.Error(t, err)
}

func TestKeyCache(t *testing.T) {
	var nilCache *KeyCache
	nilCache.Add("a", Keyed{Key: "a:"})
	_, ok := nilCache.Get("a")
	assert.False(t, ok)

	c, err := NewKeyCache(0)
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = NewKeyCache(2)
	require.NoError(t, err)
	c.Add("a", Keyed{Key: "a:"})
	c.Add("b", Keyed{Key: "b:"})
	c.Add("c", Keyed{Key: "c:"})
	_, ok = c.Get("a")
	assert.False(t, ok)
	v, ok := c.Get("c")
	require.True(t, ok)
	assert.Equal(t, "c:", v.Key)
}
