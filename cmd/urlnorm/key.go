package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/R3dTr4p/urlnorm/internal/pipeline"
)

func newKeyCmd(a *app) *cobra.Command {
	var domains []string
	cmd := &cobra.Command{
		Use:   "key [file]",
		Short: "Print the normalization key of every URL (key<TAB>url)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			norm, err := a.normalizer()
			if err != nil {
				return err
			}
			parser, err := a.parser()
			if err != nil {
				return err
			}
			in := cmd.InOrStdin()
			if len(args) > 0 {
				if f, err := openOptional(args[0], false); err != nil {
					return err
				} else if f != nil {
					defer f.Close()
					in = f
				}
			}
			st, err := pipeline.Keys(pipeline.Options{
				Normalizer: norm,
				Parser:     parser,
				Domains:    domains,
				Logger:     a.logger,
			}, in, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			a.logger.Info("done", "parsed", st.LinesParsed, "skipped", st.LinesSkipped)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&domains, "domain", "d", nil, "Only print URLs under these registrable domains (eTLD+1)")
	return cmd
}

func newSameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "same <url> <url>",
		Short: "Report whether two URLs normalize to the same key (exit 1 if not)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			norm, err := a.normalizer()
			if err != nil {
				return err
			}
			parser, err := a.parser()
			if err != nil {
				return err
			}
			keys := make([]string, len(args))
			for i, raw := range args {
				u, err := parser.Parse(raw)
				if err != nil {
					return fmt.Errorf("parse %q: %w", raw, err)
				}
				keys[i] = norm.Normalize(u)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(keys, "\n"))
			if keys[0] != keys[1] {
				return errDifferent
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "urlnorm "+version)
		},
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
