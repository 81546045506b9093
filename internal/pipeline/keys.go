package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

// Keys writes "key<TAB>url" for every URL in input, in input order.
// Unparsable lines and lines outside Domains are counted and skipped.
func Keys(o Options, input io.Reader, out io.Writer) (Stats, error) {
	st := &Stats{}
	r, err := newRunner(o, st)
	if err != nil {
		return Stats{}, err
	}

	br := bufio.NewReaderSize(input, r.o.BufferBytes)
	bw := bufio.NewWriter(out)
	for {
		line, readErr := br.ReadString('\n')
		if line != "" {
			atomic.AddInt64(&st.LinesRead, 1)
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "#") {
				if e := r.entry(line, false); e != nil {
					atomic.AddInt64(&st.LinesParsed, 1)
					if _, err := fmt.Fprintf(bw, "%s\t%s\n", e.Key, e.Raw); err != nil {
						return st.snapshot(), fmt.Errorf("write output: %w", err)
					}
				} else {
					atomic.AddInt64(&st.LinesSkipped, 1)
				}
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return st.snapshot(), fmt.Errorf("read input: %w", readErr)
		}
	}
	if err := bw.Flush(); err != nil {
		return st.snapshot(), fmt.Errorf("write output: %w", err)
	}
	return st.snapshot(), nil
}
