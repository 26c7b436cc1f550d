package cmd

import (
	"fmt"

	"github.com/calvinalkan/bigdir/version"
	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/cobra"
)

var log = logging.Logger("bigdir/cmd")

// NewRootCmd creates and returns the root cobra command for the bigdir CLI.
// It sets up all subcommands, command groups, and the global log level flag.
func NewRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "bigdir",
		Short: "bigdir - list very large directories without buffering them",
		Long: `bigdir lists the entry names of directories with millions of entries.

On Linux it reads raw getdents64 records into a large fixed buffer, so the
first name arrives after one syscall and memory does not grow with the
directory. Other platforms use a portable one-entry-at-a-time reader.

Use subcommands to perform different operations:
  - ls: print entry names
  - count: count entries
  - seed: generate a large fixture directory
  - bench: compare strategies on a directory
  - report: compare stored bench results`,
		Version:       version.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if logLevel == "" {
				return nil
			}

			lvl, err := logging.LevelFromString(logLevel)
			if err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
			}

			logging.SetAllLoggers(lvl)

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug | info | warn | error (default from GOLOG_LOG_LEVEL)")

	groupScan := "scan"
	groupUtilities := "utilities"

	rootCmd.AddGroup(&cobra.Group{
		ID:    groupScan,
		Title: "Directory Listing",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupUtilities,
		Title: "Utility Commands",
	})

	lsCmd := NewLsCmd()
	countCmd := NewCountCmd()
	seedCmd := NewSeedCmd()
	benchCmd := NewBenchCmd()
	reportCmd := NewReportCmd()

	lsCmd.GroupID = groupScan
	countCmd.GroupID = groupScan
	seedCmd.GroupID = groupUtilities
	benchCmd.GroupID = groupUtilities
	reportCmd.GroupID = groupUtilities

	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(reportCmd)

	return rootCmd
}
