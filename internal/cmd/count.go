package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/calvinalkan/bigdir"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

// NewCountCmd creates and returns the count subcommand for the bigdir CLI.
// It counts directory entries without holding any names in memory.
func NewCountCmd() *cobra.Command {
	var (
		sf       scanFlags
		progress int
	)

	cmd := &cobra.Command{
		Use:   "count PATH...",
		Short: "Count the entries of one or more directories",
		Long: `Count the entries of one or more directories (excluding "." and "..").

Each directory is read once with the selected backend; memory use stays
constant regardless of the entry count.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := sf.options()
			if err != nil {
				return err
			}

			return runCount(cmd.Context(), cmd.OutOrStdout(), args, progress, opts)
		},
	}

	sf.register(cmd)
	cmd.Flags().IntVar(&progress, "progress", 0, "print progress every N entries (0 = off)")

	return cmd
}

func runCount(ctx context.Context, stdout io.Writer, paths []string, progress int, opts []bigdir.Option) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		errs  error
		total uint64
	)

	for _, path := range paths {
		start := time.Now()

		n, err := countOne(ctx, stdout, path, progress, opts)
		if err != nil {
			errs = multierr.Append(errs, err)

			continue
		}

		total += n

		fmt.Fprintf(stdout, "%s\t%s\t(%v)\n", humanize.Comma(int64(n)), path, time.Since(start).Round(time.Microsecond))
	}

	if len(paths) > 1 {
		fmt.Fprintf(stdout, "%s\ttotal\n", humanize.Comma(int64(total)))
	}

	return errs
}

func countOne(ctx context.Context, stdout io.Writer, path string, progress int, opts []bigdir.Option) (uint64, error) {
	sc, err := bigdir.ScanContext(ctx, path, opts...)
	if err != nil {
		return 0, err
	}

	var n uint64

	for sc.Next() {
		n++

		if progress > 0 && n%uint64(progress) == 0 {
			fmt.Fprintf(stdout, "Progress: %s entries counted\n", humanize.Comma(int64(n)))
		}
	}

	return n, multierr.Append(sc.Err(), sc.Close())
}
