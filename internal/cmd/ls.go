package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/calvinalkan/bigdir"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

type lsConfig struct {
	opts      []bigdir.Option
	limit     int
	null      bool
	showStats bool
}

// NewLsCmd creates and returns the ls subcommand for the bigdir CLI.
func NewLsCmd() *cobra.Command {
	var (
		sf        scanFlags
		limit     int
		null      bool
		showStats bool
	)

	cmd := &cobra.Command{
		Use:   "ls PATH...",
		Short: "Print the entry names of one or more directories",
		Long: `Print the entry names of one or more directories, one per line.

Names are written as they are read, so output starts immediately even for
directories with millions of entries. "." and ".." are never printed and
the order is whatever the filesystem returns.

When several paths are given, each listing is preceded by a "PATH:" header.
An error on one path does not stop the others; all errors are reported at
the end.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := sf.options()
			if err != nil {
				return err
			}

			cfg := lsConfig{opts: opts, limit: limit, null: null, showStats: showStats}

			return runLs(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args, cfg)
		},
	}

	sf.register(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "stop after N entries per directory (0 = all)")
	cmd.Flags().BoolVarP(&null, "null", "0", false, "terminate names with NUL instead of newline")
	cmd.Flags().BoolVar(&showStats, "stats", false, "print read/entry counts to stderr")

	return cmd
}

func runLs(ctx context.Context, stdout, stderr io.Writer, paths []string, cfg lsConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}

	out := bufio.NewWriterSize(stdout, 64*1024)

	sep := byte('\n')
	if cfg.null {
		sep = 0
	}

	var errs error

	for i, path := range paths {
		if len(paths) > 1 && !cfg.null {
			if i > 0 {
				_ = out.WriteByte('\n')
			}

			fmt.Fprintf(out, "%s:\n", path)
		}

		n, st, kind, err := listOne(ctx, out, path, sep, cfg.limit, cfg.opts)
		errs = multierr.Append(errs, err)

		if cfg.showStats {
			_ = out.Flush()

			fmt.Fprintf(stderr, "%s: entries=%s reads=%d backend=%s\n", path, humanize.Comma(int64(n)), st.Reads, kind)
		}
	}

	errs = multierr.Append(errs, out.Flush())

	return errs
}

// listOne writes the names in path to out and returns how many it wrote.
func listOne(ctx context.Context, out *bufio.Writer, path string, sep byte, limit int, opts []bigdir.Option) (int, bigdir.Stats, bigdir.BackendKind, error) {
	sc, err := bigdir.ScanContext(ctx, path, opts...)
	if err != nil {
		return 0, bigdir.Stats{}, bigdir.BackendAuto, err
	}

	n := 0

	for sc.Next() {
		_, _ = out.Write(sc.NameBytes())
		_ = out.WriteByte(sep)

		n++
		if limit > 0 && n >= limit {
			break
		}
	}

	st := sc.Stats()
	kind := sc.Backend()

	return n, st, kind, multierr.Append(sc.Err(), sc.Close())
}
