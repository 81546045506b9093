package main

import (
	"io"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/R3dTr4p/urlnorm/internal/cluster"
	"github.com/R3dTr4p/urlnorm/internal/pipeline"
)

type dedupFlags struct {
	inputPath      string
	outputPath     string
	clustersPath   string
	seedPath       string
	keep           string
	parallel       int
	bufferBytes    int
	cacheSize      int
	domains        []string
	verbose        bool
	progressEveryS int
}

func newDedupCmd(a *app) *cobra.Command {
	f := &dedupFlags{}
	cmd := &cobra.Command{
		Use:   "dedup [file]",
		Short: "Keep one URL per normalization key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDedup(cmd, f, args)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.inputPath, "input", "i", "", "Input file (default: stdin)")
	fl.StringVarP(&f.outputPath, "output", "o", "", "Output file (default: stdout)")
	fl.StringVarP(&f.clustersPath, "clusters", "C", "", "Also write clusters (rep + members) to FILE (newline-separated blocks)")
	fl.StringVarP(&f.seedPath, "seed", "S", "", "Preload known URLs to bias cluster representatives")
	fl.StringVarP(&f.keep, "keep", "k", string(cluster.KeepRichest), "Which URL to keep per cluster: first|shortest|longest|richest|lexi")
	fl.IntVarP(&f.parallel, "parallel", "p", runtime.NumCPU(), "Worker goroutines")
	fl.IntVarP(&f.bufferBytes, "buffer-bytes", "B", 1<<20, "Line buffer size")
	fl.IntVar(&f.cacheSize, "cache-size", 65536, "Memoize keys of this many distinct lines (0 disables)")
	fl.StringSliceVarP(&f.domains, "domain", "d", nil, "Only keep URLs under these registrable domains (eTLD+1)")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "Enable verbose progress logging")
	fl.IntVar(&f.progressEveryS, "progress-interval", 1, "Progress update interval in seconds (with -v)")
	return cmd
}

func (a *app) runDedup(cmd *cobra.Command, f *dedupFlags, args []string) error {
	norm, err := a.normalizer()
	if err != nil {
		return err
	}
	parser, err := a.parser()
	if err != nil {
		return err
	}
	keep, err := cluster.ParseKeep(f.keep)
	if err != nil {
		return err
	}

	// A positional file is used unless -i is given.
	if f.inputPath == "" && len(args) > 0 {
		f.inputPath = args[0]
	}

	var in io.Reader = cmd.InOrStdin()
	var out io.Writer = cmd.OutOrStdout()
	var clusOut io.Writer

	if inFile, err := openOptional(f.inputPath, false); err != nil {
		return err
	} else if inFile != nil {
		defer inFile.Close()
		in = inFile
	}
	if outFile, err := openOptional(f.outputPath, true); err != nil {
		return err
	} else if outFile != nil {
		defer outFile.Close()
		out = outFile
	}
	if clusFile, err := openOptional(f.clustersPath, true); err != nil {
		return err
	} else if clusFile != nil {
		defer clusFile.Close()
		clusOut = clusFile
	}

	o := pipeline.Options{
		Normalizer:  norm,
		Parser:      parser,
		Keep:        keep,
		Parallel:    f.parallel,
		BufferBytes: f.bufferBytes,
		CacheSize:   f.cacheSize,
		Domains:     f.domains,
		Logger:      a.logger,
	}
	if f.verbose && !a.flags.quiet {
		interval := f.progressEveryS
		if interval <= 0 {
			interval = 1
		}
		o.ProgressInterval = time.Duration(interval) * time.Second
	}
	if seedFile, err := openOptional(f.seedPath, false); err != nil {
		return err
	} else if seedFile != nil {
		defer seedFile.Close()
		o.Seed = seedFile
	}

	start := time.Now()
	st, err := pipeline.Process(o, in, out, clusOut)
	if err != nil {
		return err
	}
	a.logger.Info("done",
		"lines", st.LinesRead,
		"parsed", st.LinesParsed,
		"skipped", st.LinesSkipped,
		"clusters", st.Clusters,
		"merged", st.Merged,
		"time", time.Since(start).Round(time.Millisecond))
	return nil
}

func openOptional(path string, w bool) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	if w {
		return os.Create(path)
	}
	return os.Open(path)
}
