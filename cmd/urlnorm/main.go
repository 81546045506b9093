package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/R3dTr4p/urlnorm"
	"github.com/R3dTr4p/urlnorm/internal/config"
	"github.com/R3dTr4p/urlnorm/internal/parse"
)

const version = "v0.2.0"

// errDifferent makes `urlnorm same` exit non-zero without printing an error.
var errDifferent = errors.New("urls differ")

type globalFlags struct {
	cfgFile       string
	preset        string
	parser        string
	logLevel      string
	quiet         bool
	excludeParams []string
}

type app struct {
	flags  globalFlags
	logger *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "urlnorm [file]",
		Short: "urlnorm clusters URL lists by canonical comparison key",
		Long: `urlnorm reduces URL lists to one URL per normalization key. Keys ignore the
scheme, www-style host prefixes, redundant slashes, tracking parameters,
query order and in-page anchors, but keep client-side routes (#/ and #!).`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setupLogger(cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.cfgFile, "config", "", "config file (default is ./urlnorm.yaml)")
	pf.StringVar(&a.flags.preset, "preset", "", "base rule set: default|extended|none")
	pf.StringVar(&a.flags.parser, "parser", parse.NameWHATWG, "URL parser: whatwg|std")
	pf.StringVar(&a.flags.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	pf.BoolVarP(&a.flags.quiet, "quiet", "q", false, "Suppress stats and logs below error")
	pf.StringSliceVarP(&a.flags.excludeParams, "exclude-params", "x", nil, "Extra params to drop, shell globs (e.g., utm_*,gclid,fbclid)")

	dedup := newDedupCmd(a)
	root.RunE = dedup.RunE
	root.Flags().AddFlagSet(dedup.Flags())

	root.AddCommand(dedup)
	root.AddCommand(newKeyCmd(a))
	root.AddCommand(newSameCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

func (a *app) setupLogger(w io.Writer) error {
	level, err := log.ParseLevel(a.flags.logLevel)
	if err != nil {
		return err
	}
	if a.flags.quiet && level < log.ErrorLevel {
		level = log.ErrorLevel
	}
	a.logger = log.NewWithOptions(w, log.Options{
		Prefix:          "urlnorm",
		ReportTimestamp: true,
		Level:           level,
	})
	return nil
}

// normalizer loads the configured rules. --exclude-params adds to drop_params.
func (a *app) normalizer() (*urlnorm.Config, error) {
	cfg, err := config.Load(a.flags.cfgFile, a.flags.preset)
	if err != nil {
		return nil, err
	}
	cfg.DropParams = append(cfg.DropParams, splitCSV(strings.Join(a.flags.excludeParams, ","))...)
	norm, err := cfg.Compile()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	a.logger.Debug("rules loaded",
		"preset", cfg.Preset,
		"host_prefixes", len(cfg.HostPrefixes),
		"drop_patterns", len(cfg.QueryDropPatterns),
		"drop_params", len(cfg.DropParams),
		"fragment_patterns", len(cfg.FragmentPatterns))
	return norm, nil
}

func (a *app) parser() (parse.Parser, error) {
	return parse.ByName(a.flags.parser)
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errDifferent) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
