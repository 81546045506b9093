// Package pipeline reads URL lists, clusters them by normalization key and
// writes one representative per cluster.
package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/R3dTr4p/urlnorm"
	"github.com/R3dTr4p/urlnorm/internal/cluster"
	"github.com/R3dTr4p/urlnorm/internal/parse"
)

type Options struct {
	Normalizer *urlnorm.Config
	Parser     parse.Parser
	Keep       cluster.Keep

	Parallel    int
	BufferBytes int
	// CacheSize bounds the memo of raw line -> key. Zero disables it.
	CacheSize int
	// Domains restricts input to these registrable domains when non-empty.
	Domains []string
	// Seed is read before the input. Seeded URLs are preferred as
	// representatives by the richest policy.
	Seed io.Reader
	// ProgressInterval enables periodic progress logging when positive.
	ProgressInterval time.Duration

	Logger *log.Logger
}

type Stats struct {
	LinesRead    int64
	LinesParsed  int64
	LinesSkipped int64
	Clusters     int64
	Merged       int64
}

func (s *Stats) snapshot() Stats {
	return Stats{
		LinesRead:    atomic.LoadInt64(&s.LinesRead),
		LinesParsed:  atomic.LoadInt64(&s.LinesParsed),
		LinesSkipped: atomic.LoadInt64(&s.LinesSkipped),
		Clusters:     atomic.LoadInt64(&s.Clusters),
		Merged:       atomic.LoadInt64(&s.Merged),
	}
}

type runner struct {
	o      Options
	cache  *cluster.KeyCache
	scopes map[string]struct{}
	st     *Stats
	logger *log.Logger
}

func newRunner(o Options, st *Stats) (*runner, error) {
	if o.Normalizer == nil {
		o.Normalizer = urlnorm.Default()
	}
	if o.Parser == nil {
		o.Parser = parse.NewWHATWG()
	}
	if o.Keep == "" {
		o.Keep = cluster.KeepRichest
	}
	if o.Parallel < 1 {
		o.Parallel = runtime.NumCPU()
	}
	if o.BufferBytes <= 0 {
		o.BufferBytes = 1 << 20
	}
	cache, err := cluster.NewKeyCache(o.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("key cache: %w", err)
	}
	r := &runner{o: o, cache: cache, st: st, logger: o.Logger}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	if len(o.Domains) > 0 {
		r.scopes = make(map[string]struct{}, len(o.Domains))
		for _, d := range o.Domains {
			r.scopes[cluster.Scope(d)] = struct{}{}
		}
	}
	return r, nil
}

// keyed parses and normalizes one line, consulting the memo first.
func (r *runner) keyed(line string) (cluster.Keyed, error) {
	if k, ok := r.cache.Get(line); ok {
		return k, nil
	}
	u, err := r.o.Parser.Parse(line)
	if err != nil {
		return cluster.Keyed{}, err
	}
	k := cluster.Keyed{URL: u, Key: r.o.Normalizer.Normalize(u)}
	r.cache.Add(line, k)
	return k, nil
}

// entry returns nil for lines that are skipped.
func (r *runner) entry(line string, seeded bool) *cluster.Entry {
	k, err := r.keyed(line)
	if err != nil {
		r.logger.Debug("skipping unparsable line", "line", line, "err", err)
		return nil
	}
	e := cluster.NewEntry(line, k.Key, k.URL, seeded)
	if r.scopes != nil {
		if _, ok := r.scopes[e.Scope]; !ok {
			return nil
		}
	}
	return e
}

func (r *runner) add(index *cluster.Index, l inputLine, seeded bool) {
	atomic.AddInt64(&r.st.LinesRead, 1)
	text := strings.TrimSpace(l.text)
	if text == "" || strings.HasPrefix(text, "#") {
		return
	}
	e := r.entry(text, seeded)
	if e == nil {
		atomic.AddInt64(&r.st.LinesSkipped, 1)
		return
	}
	e.Seq = l.seq
	atomic.AddInt64(&r.st.LinesParsed, 1)
	if index.Add(e) {
		atomic.AddInt64(&r.st.Merged, 1)
	}
}

// inputLine is one input line numbered in read order.
type inputLine struct {
	seq  int64
	text string
}

// readLines numbers lines starting at *seq and leaves *seq at the next
// free number, so the seed and the input share one sequence.
func readLines(r io.Reader, bufSize int, seq *int64, out chan<- inputLine) error {
	br := bufio.NewReaderSize(r, bufSize)
	for {
		b, err := br.ReadBytes('\n')
		if len(b) > 0 {
			out <- inputLine{seq: *seq, text: strings.TrimRight(string(b), "\r\n")}
			*seq++
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Process clusters the URLs read from input. Representatives are written to
// reps in key order. When clustersOut is not nil every cluster is written to
// it as a block: the representative, each member, then a blank line.
func Process(o Options, input io.Reader, reps io.Writer, clustersOut io.Writer) (Stats, error) {
	st := &Stats{}
	r, err := newRunner(o, st)
	if err != nil {
		return Stats{}, err
	}
	index := cluster.NewIndex(runtime.GOMAXPROCS(0)*2, r.o.Keep, clustersOut != nil)

	var seq int64
	if r.o.Seed != nil {
		lines := make(chan inputLine, 64)
		errc := make(chan error, 1)
		go func() {
			errc <- readLines(r.o.Seed, r.o.BufferBytes, &seq, lines)
			close(lines)
		}()
		for l := range lines {
			r.add(index, l, true)
		}
		if err := <-errc; err != nil {
			return st.snapshot(), fmt.Errorf("read seed: %w", err)
		}
	}

	stopProgress := r.startProgress()

	lines := make(chan inputLine, r.o.Parallel*4)
	workers := pool.New().WithMaxGoroutines(r.o.Parallel)
	for i := 0; i < r.o.Parallel; i++ {
		workers.Go(func() {
			for l := range lines {
				r.add(index, l, false)
			}
		})
	}

	readErr := readLines(input, r.o.BufferBytes, &seq, lines)
	close(lines)
	workers.Wait()
	stopProgress()

	atomic.StoreInt64(&st.Clusters, int64(index.Len()))
	if readErr != nil {
		return st.snapshot(), fmt.Errorf("read input: %w", readErr)
	}
	if err := emit(index.Clusters(), reps, clustersOut); err != nil {
		return st.snapshot(), fmt.Errorf("write output: %w", err)
	}
	return st.snapshot(), nil
}

func (r *runner) startProgress() (stop func()) {
	if r.o.ProgressInterval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		t := time.NewTicker(r.o.ProgressInterval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				s := r.st.snapshot()
				r.logger.Info("progress",
					"lines", s.LinesRead,
					"parsed", s.LinesParsed,
					"skipped", s.LinesSkipped,
					"merged", s.Merged)
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

func emit(clusters []*cluster.Cluster, reps io.Writer, clustersOut io.Writer) error {
	bufReps := bufio.NewWriter(reps)
	var bufClus *bufio.Writer
	if clustersOut != nil {
		bufClus = bufio.NewWriter(clustersOut)
	}
	for _, c := range clusters {
		if _, err := bufReps.WriteString(c.Rep.Raw + "\n"); err != nil {
			return err
		}
		if bufClus == nil {
			continue
		}
		if _, err := bufClus.WriteString(c.Rep.Raw + "\n"); err != nil {
			return err
		}
		for _, m := range c.Members {
			if _, err := bufClus.WriteString(m.Raw + "\n"); err != nil {
				return err
			}
		}
		if _, err := bufClus.WriteString("\n"); err != nil {
			return err
		}
	}
	if err := bufReps.Flush(); err != nil {
		return err
	}
	if bufClus != nil {
		return bufClus.Flush()
	}
	return nil
}
