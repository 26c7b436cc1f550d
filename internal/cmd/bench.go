package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/calvinalkan/bigdir"
	"github.com/calvinalkan/bigdir/version"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

// benchResult is one JSONL record written by --out.
type benchResult struct {
	Timestamp time.Time `json:"ts"`

	Case   string `json:"case"`
	Notes  string `json:"notes,omitempty"`
	Dir    string `json:"dir"`
	Repeat int    `json:"repeat"`

	BufferSize int           `json:"buffer_size"`
	Skipped    bool          `json:"skipped,omitempty"`
	Entries    uint64        `json:"entries"`
	Reads      uint64        `json:"reads"`
	Duration   time.Duration `json:"duration"`
	PerSec     float64       `json:"entries_per_sec"`

	Version        string `json:"version"`
	Implementation string `json:"implementation"`
	GoVersion      string `json:"go"`
	GOOS           string `json:"goos"`
	GOARCH         string `json:"goarch"`
	NumCPU         int    `json:"numcpu"`
}

// benchCase lists a directory once and reports what it saw. first stops
// after the first entry to measure time-to-first-result.
type benchCase struct {
	name  string
	skip  bool
	first bool
	run   func(path string, first bool) (entries, reads uint64, err error)
}

type benchFlags struct {
	repeat     int
	seedCount  uint64
	bufferSize string
	notes      string
	out        string
	cpuProfile string
}

// NewBenchCmd creates and returns the bench subcommand for the bigdir CLI.
func NewBenchCmd() *cobra.Command {
	flags := &benchFlags{}

	cmd := &cobra.Command{
		Use:   "bench PATH",
		Short: "Compare directory listing strategies on PATH",
		Long: `Compare directory listing strategies on PATH.

Each strategy is timed twice: reading every entry ("_all") and stopping
after the first entry ("_1"), which shows how long a caller waits before
the first name. Strategies:

  readdirnames  (*os.File).Readdirnames(-1), the standard library baseline
  raw           bigdir raw-buffer backend (Linux only)
  stream        bigdir portable stream backend

If PATH does not exist and --seed is set, a fixture with that many files
is generated first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], flags)
		},
	}

	cmd.Flags().IntVarP(&flags.repeat, "repeat", "r", 1, "repeat each case N times")
	cmd.Flags().Uint64Var(&flags.seedCount, "seed", 0, "generate a fixture with N files if PATH does not exist")
	cmd.Flags().StringVar(&flags.bufferSize, "buffer-size", humanize.IBytes(bigdir.DefaultBufferSize), "raw backend buffer size")
	cmd.Flags().StringVar(&flags.notes, "notes", "", "optional freeform notes to store in JSON output")
	cmd.Flags().StringVar(&flags.out, "out", "", "optional JSONL output file to append one result per case")
	cmd.Flags().StringVar(&flags.cpuProfile, "cpuprofile", "", "write CPU profile to file")

	return cmd
}

func runBench(stdout, stderr io.Writer, path string, flags *benchFlags) error {
	if flags.repeat <= 0 {
		return errors.New("--repeat must be >= 1")
	}

	size, err := humanize.ParseBytes(flags.bufferSize)
	if err != nil {
		return fmt.Errorf("invalid --buffer-size %q: %w", flags.bufferSize, err)
	}

	if size > bigdir.MaxBufferSize {
		return fmt.Errorf("--buffer-size %s exceeds %s", humanize.IBytes(size), humanize.IBytes(bigdir.MaxBufferSize))
	}

	bufferSize := int(size)

	if flags.seedCount > 0 {
		err = runSeed(stdout, stderr, path, seedConfig{count: flags.seedCount, threads: runtime.NumCPU(), progress: true})
		if err != nil {
			return err
		}
	}

	if flags.cpuProfile != "" {
		cpuFile, err := os.Create(flags.cpuProfile)
		if err != nil {
			return fmt.Errorf("create cpuprofile: %w", err)
		}

		err = pprof.StartCPUProfile(cpuFile)
		if err != nil {
			_ = cpuFile.Close()

			return fmt.Errorf("start cpuprofile: %w", err)
		}

		defer func() {
			pprof.StopCPUProfile()

			_ = cpuFile.Close()
		}()
	}

	table := tablewriter.NewWriter(stdout)
	table.SetHeader([]string{"case", "entries", "reads", "duration", "entries/sec"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, bc := range benchCases(bufferSize) {
		res := newBenchResult(path, bc.name, flags, bufferSize)

		if bc.skip {
			res.Skipped = true
			table.Append([]string{bc.name, "-", "-", "skipped", "-"})
		} else {
			start := time.Now()

			for range flags.repeat {
				entries, reads, err := bc.run(path, bc.first)
				if err != nil {
					return fmt.Errorf("%s: %w", bc.name, err)
				}

				res.Entries += entries
				res.Reads += reads
			}

			res.Duration = time.Since(start)
			if res.Duration > 0 {
				res.PerSec = float64(res.Entries) / res.Duration.Seconds()
			}

			log.Debugw("bench case done", "case", bc.name, "entries", res.Entries, "reads", res.Reads, "duration", res.Duration)

			table.Append([]string{
				bc.name,
				humanize.Comma(int64(res.Entries)),
				strconv.FormatUint(res.Reads, 10),
				res.Duration.String(),
				humanize.Comma(int64(res.PerSec)),
			})
		}

		if flags.out != "" {
			err := appendJSONL(flags.out, &res)
			if err != nil {
				return fmt.Errorf("write --out: %w", err)
			}
		}
	}

	table.Render()

	return nil
}

func benchCases(bufferSize int) []benchCase {
	rawSkip := bigdir.Implementation != "linux"

	cases := make([]benchCase, 0, 6)
	for _, first := range []bool{false, true} {
		suffix := "_all"
		if first {
			suffix = "_1"
		}

		cases = append(cases,
			benchCase{name: "readdirnames" + suffix, first: first, run: readdirnamesCase},
			benchCase{name: "raw" + suffix, first: first, skip: rawSkip, run: backendCase(bigdir.BackendRaw, bufferSize)},
			benchCase{name: "stream" + suffix, first: first, run: backendCase(bigdir.BackendStream, bufferSize)},
		)
	}

	return cases
}

func readdirnamesCase(path string, first bool) (uint64, uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}

	defer func() { _ = f.Close() }()

	// Readdirnames(-1) returns nothing until the whole directory is read, so
	// stopping at the first name costs the same as reading all of them.
	names, err := f.Readdirnames(-1)
	if err != nil {
		return 0, 1, err
	}

	if first && len(names) > 0 {
		return 1, 1, nil
	}

	return uint64(len(names)), 1, nil
}

func backendCase(kind bigdir.BackendKind, bufferSize int) func(string, bool) (uint64, uint64, error) {
	return func(path string, first bool) (uint64, uint64, error) {
		sc, err := bigdir.Scan(path, bigdir.WithBackend(kind), bigdir.WithBufferSize(bufferSize))
		if err != nil {
			return 0, 0, err
		}

		var n uint64

		for sc.Next() {
			n++

			if first {
				break
			}
		}

		reads := sc.Stats().Reads

		err = multierr.Append(sc.Err(), sc.Close())

		return n, reads, err
	}
}

func newBenchResult(path, name string, flags *benchFlags, bufferSize int) benchResult {
	return benchResult{
		Timestamp:      time.Now(),
		Case:           name,
		Notes:          flags.notes,
		Dir:            path,
		Repeat:         flags.repeat,
		BufferSize:     bufferSize,
		Version:        version.GetVersion(),
		Implementation: bigdir.Implementation,
		GoVersion:      runtime.Version(),
		GOOS:           runtime.GOOS,
		GOARCH:         runtime.GOARCH,
		NumCPU:         runtime.NumCPU(),
	}
}

func appendJSONL(path string, res *benchResult) error {
	outFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}

	defer func() { _ = outFile.Close() }()

	writer := bufio.NewWriter(outFile)
	enc := json.NewEncoder(writer)
	enc.SetEscapeHTML(false)

	err = enc.Encode(res)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	err = writer.Flush()
	if err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
