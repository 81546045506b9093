// Package cluster groups URLs that share a normalization key and picks a
// representative for every group.
package cluster

import (
	"hash/fnv"
	"net"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"

	"github.com/R3dTr4p/urlnorm"
)

// Entry is one input URL with its key.
type Entry struct {
	Raw        string
	Key        string
	Scope      string
	PathDepth  int
	ParamCount int
	IsSeed     bool
	// Seq is the position of the line in the input, seeds first.
	Seq int64
}

// NewEntry builds an entry for raw. The key is computed by the caller so it
// can be memoized.
func NewEntry(raw, key string, u urlnorm.URL, seeded bool) *Entry {
	depth := 0
	for _, s := range u.Path {
		if s != "" {
			depth++
		}
	}
	return &Entry{
		Raw:        raw,
		Key:        key,
		Scope:      Scope(u.Host),
		PathDepth:  depth,
		ParamCount: len(u.Query),
		IsSeed:     seeded,
	}
}

// Scope returns the registrable domain (eTLD+1) of host, or the lowercased
// host when it has none, e.g. for IP addresses and bare public suffixes.
func Scope(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if ip := net.ParseIP(strings.Trim(host, "[]")); ip != nil {
		return host
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return etld1
}

type Cluster struct {
	Rep     *Entry
	Members []*Entry // only when members are tracked
}

type shard struct {
	sync.Mutex
	clusters map[string]*Cluster // key: normalization key
}

// Index is safe for concurrent use. Entries are sharded by scope so that
// URLs of one site contend on one lock.
type Index struct {
	shards       []*shard
	keep         Keep
	trackMembers bool
}

func NewIndex(numShards int, keep Keep, trackMembers bool) *Index {
	if numShards < 1 {
		numShards = 1
	}
	idx := &Index{shards: make([]*shard, numShards), keep: keep, trackMembers: trackMembers}
	for i := range idx.shards {
		idx.shards[i] = &shard{clusters: make(map[string]*Cluster)}
	}
	return idx
}

func (idx *Index) shard(scope string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(scope))
	return idx.shards[h.Sum32()%uint32(len(idx.shards))]
}

// Add inserts e. It returns true when e joined an existing cluster and
// false when it started a new one.
func (idx *Index) Add(e *Entry) bool {
	sh := idx.shard(e.Scope)
	sh.Lock()
	defer sh.Unlock()

	if c, ok := sh.clusters[e.Key]; ok {
		c.Rep = Choose(c.Rep, e, idx.keep)
		if idx.trackMembers {
			c.Members = append(c.Members, e)
		}
		return true
	}
	c := &Cluster{Rep: e}
	if idx.trackMembers {
		c.Members = append(c.Members, e)
	}
	sh.clusters[e.Key] = c
	return false
}

// Len returns the number of clusters.
func (idx *Index) Len() int {
	n := 0
	for _, sh := range idx.shards {
		sh.Lock()
		n += len(sh.clusters)
		sh.Unlock()
	}
	return n
}

// Clusters returns all clusters ordered by key. Members are in read order.
func (idx *Index) Clusters() []*Cluster {
	var out []*Cluster
	for _, sh := range idx.shards {
		sh.Lock()
		for _, c := range sh.clusters {
			sort.Slice(c.Members, func(i, j int) bool { return c.Members[i].Seq < c.Members[j].Seq })
			out = append(out, c)
		}
		sh.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rep.Key < out[j].Rep.Key })
	return out
}
