package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3dTr4p/urlnorm"
	"github.com/R3dTr4p/urlnorm/internal/cluster"
	"github.com/R3dTr4p/urlnorm/internal/parse"
)

const input = `# recon list
https://www.example.com/a/b?utm_source=tw&lang=en
http://example.com/a/b/?lang=en

https://example.com//a/b?lang=en#frag
https://api.example.com/a/b?lang=en
http://[::1
https://other.org/x?b=2&a=1
https://other.org/x/?a=1&b=2&fbclid=123
`

func TestProcess(t *testing.T) {
	var reps, clusters bytes.Buffer
	st, err := Process(Options{Keep: cluster.KeepShortest, Parallel: 3, BufferBytes: 1 << 10}, strings.NewReader(input), &reps, &clusters)
	require.NoError(t, err)

	assert.Equal(t, int64(9), st.LinesRead)
	assert.Equal(t, int64(6), st.LinesParsed)
	assert.Equal(t, int64(1), st.LinesSkipped)
	assert.Equal(t, int64(3), st.Clusters)
	assert.Equal(t, int64(3), st.Merged)

	assert.Equal(t, strings.Join([]string{
		"https://api.example.com/a/b?lang=en",
		"http://example.com/a/b/?lang=en",
		"https://other.org/x?b=2&a=1",
	}, "\n")+"\n", reps.String())

	blocks := strings.Split(strings.TrimSpace(clusters.String()), "\n\n")
	require.Len(t, blocks, 3)
	assert.Len(t, strings.Split(blocks[1], "\n"), 4)
}

func TestProcessSeedAndDomains(t *testing.T) {
	seed := strings.NewReader("https://example.com/a/b?lang=en&utm_medium=seed\n")
	var reps bytes.Buffer
	st, err := Process(Options{
		Parser:  parse.Std{},
		Keep:    cluster.KeepRichest,
		Seed:    seed,
		Domains: []string{"www.example.com"},
	}, strings.NewReader(input), &reps, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(2), st.Clusters)
	assert.Equal(t, int64(3), st.Merged)
	// other.org lines and the unparsable one
	assert.Equal(t, int64(3), st.LinesSkipped)
	assert.Equal(t, strings.Join([]string{
		"https://api.example.com/a/b?lang=en",
		"https://example.com/a/b?lang=en&utm_medium=seed",
	}, "\n")+"\n", reps.String())
}

func TestProcessCustomNormalizer(t *testing.T) {
	norm, err := urlnorm.New(urlnorm.Options{})
	require.NoError(t, err)
	var reps bytes.Buffer
	st, err := Process(Options{Normalizer: norm, CacheSize: 16, Keep: cluster.KeepFirst, Parallel: 1},
		strings.NewReader("https://www.x.com/?utm_source=a\nhttps://x.com/?utm_source=a\nhttps://x.com/?utm_source=a\n"), &reps, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.Clusters)
}

func TestProcessKeepFirstFollowsInputOrder(t *testing.T) {
	var in strings.Builder
	for i := 0; i < 2000; i++ {
		fmt.Fprintf(&in, "https://example.com/a?utm_source=%d\n", i)
	}
	for run := 0; run < 5; run++ {
		var reps, clusters bytes.Buffer
		st, err := Process(Options{Keep: cluster.KeepFirst, Parallel: 8}, strings.NewReader(in.String()), &reps, &clusters)
		require.NoError(t, err)
		assert.Equal(t, int64(1), st.Clusters)
		assert.Equal(t, "https://example.com/a?utm_source=0\n", reps.String())

		members := strings.Split(strings.TrimSpace(clusters.String()), "\n")
		require.Len(t, members, 2001)
		assert.Equal(t, "https://example.com/a?utm_source=1999", members[2000])
	}
}

func TestProcessTiesGoToEarliestLine(t *testing.T) {
	// same length, so shortest has no preference
	lines := "https://example.com/a?x=1&utm_id=2\nhttps://example.com/a?x=1&utm_id=1\n"
	var reps bytes.Buffer
	_, err := Process(Options{Keep: cluster.KeepShortest, Parallel: 4}, strings.NewReader(lines), &reps, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a?x=1&utm_id=2\n", reps.String())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("pipe closed") }

func TestProcessErrors(t *testing.T) {
	_, err := Process(Options{}, failingReader{}, io.Discard, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read input")

	_, err = Process(Options{Seed: failingReader{}}, strings.NewReader(input), io.Discard, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read seed")

	_, err = Process(Options{}, strings.NewReader(input), failingWriter{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write output")
}

// eofWrapper ends the stream with an error that wraps io.EOF.
type eofWrapper struct{ r io.Reader }

func (w eofWrapper) Read(p []byte) (int, error) {
	n, err := w.r.Read(p)
	if errors.Is(err, io.EOF) {
		return n, fmt.Errorf("source drained: %w", io.EOF)
	}
	return n, err
}

func TestWrappedEOFEndsInput(t *testing.T) {
	var out bytes.Buffer
	st, err := Keys(Options{}, eofWrapper{strings.NewReader(input)}, &out)
	require.NoError(t, err)
	assert.Equal(t, int64(6), st.LinesParsed)

	_, err = Keys(Options{}, failingReader{}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read input")

	st, err = Process(Options{}, eofWrapper{strings.NewReader(input)}, io.Discard, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.Clusters)
}

func TestProcessLogsProgress(t *testing.T) {
	var logs bytes.Buffer
	logger := log.NewWithOptions(&logs, log.Options{Level: log.InfoLevel})
	pr, pw := io.Pipe()
	go func() {
		_, _ = io.WriteString(pw, "https://example.com/a\n")
		time.Sleep(50 * time.Millisecond)
		_, _ = io.WriteString(pw, "https://example.com/b\n")
		_ = pw.Close()
	}()

	_, err := Process(Options{ProgressInterval: 5 * time.Millisecond, Logger: logger}, pr, io.Discard, nil)
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "progress")
}

func TestKeys(t *testing.T) {
	var out bytes.Buffer
	st, err := Keys(Options{}, strings.NewReader(input), &out)
	require.NoError(t, err)

	assert.Equal(t, int64(6), st.LinesParsed)
	assert.Equal(t, int64(1), st.LinesSkipped)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "example.com:a:b:lang=en:\thttps://www.example.com/a/b?utm_source=tw&lang=en", lines[0])
	assert.Equal(t, "other.org:x:a=1:b=2:\thttps://other.org/x/?a=1&b=2&fbclid=123", lines[5])
}
