package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type reportFlags struct {
	against   string
	n         int
	failAbove float64
	json      bool
}

// caseComparison is one row of a report: the latest timing of a bench case
// against its target.
type caseComparison struct {
	Case         string  `json:"case"`
	LatestMs     float64 `json:"latest_ms"`
	TargetMs     float64 `json:"target_ms"`
	ChangePct    float64 `json:"change_pct"`
	LatestPerSec float64 `json:"latest_entries_per_sec"`
	TargetPerSec float64 `json:"target_entries_per_sec"`
}

type report struct {
	LatestDesc      string           `json:"latest_desc"`
	TargetDesc      string           `json:"target_desc"`
	Cases           []caseComparison `json:"cases"`
	WorstRegression float64          `json:"worst_regression"`
}

// NewReportCmd creates and returns the report subcommand for the bigdir CLI.
// It compares results appended by "bench --out" to detect regressions.
func NewReportCmd() *cobra.Command {
	flags := &reportFlags{}

	cmd := &cobra.Command{
		Use:   "report FILE",
		Short: "Compare bench results stored in a JSONL file",
		Long: `Compare bench results stored in a JSONL file written by "bench --out".

For every case, the latest run is compared against a target:

  prev  the run before it
  avg   average of the last N runs vs average of the N runs before those

Times are per repeat. A positive change means slower.`,
		Example: `  # Compare latest vs previous run
  bigdir report .bench/results.jsonl

  # Compare avg of last 5 runs vs previous 5, fail on >5% regression
  bigdir report --against avg --n 5 --fail-above 5 .bench/results.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.against, "against", "prev", "comparison mode: prev | avg")
	cmd.Flags().IntVar(&flags.n, "n", 5, "runs to average for --against avg")
	cmd.Flags().Float64Var(&flags.failAbove, "fail-above", 0, "fail if any case regresses by more than PCT percent")
	cmd.Flags().BoolVar(&flags.json, "json", false, "output as JSON instead of a table")

	return cmd
}

func runReport(stdout io.Writer, path string, flags *reportFlags) error {
	if flags.n < 1 {
		return fmt.Errorf("--n must be >= 1 (got %d)", flags.n)
	}

	history, order, err := loadBenchHistory(path)
	if err != nil {
		return err
	}

	if len(order) == 0 {
		return fmt.Errorf("no bench results in %s (run bench --out first)", path)
	}

	rep, err := buildReport(history, order, flags.against, flags.n)
	if err != nil {
		return err
	}

	if flags.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")

		err := enc.Encode(rep)
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	} else {
		printReport(stdout, &rep)
	}

	if flags.failAbove > 0 && rep.WorstRegression > flags.failAbove {
		return fmt.Errorf("regression detected: worst change is %s (threshold: %.1f%%)", fmtPct(rep.WorstRegression), flags.failAbove)
	}

	return nil
}

// loadBenchHistory groups the results in path by case, oldest first. Skipped
// cases are ignored. order lists case names by first appearance.
func loadBenchHistory(path string) (map[string][]benchResult, []string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("results file not found: %s", path)
	}

	if err != nil {
		return nil, nil, fmt.Errorf("read results file: %w", err)
	}

	history := make(map[string][]benchResult)

	var order []string

	lineNo := 0
	for line := range strings.SplitSeq(string(data), "\n") {
		lineNo++

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var res benchResult

		err := json.Unmarshal([]byte(line), &res)
		if err != nil {
			return nil, nil, fmt.Errorf("parse %s:%d: %w", path, lineNo, err)
		}

		if res.Skipped || res.Case == "" {
			continue
		}

		if _, seen := history[res.Case]; !seen {
			order = append(order, res.Case)
		}

		history[res.Case] = append(history[res.Case], res)
	}

	return history, order, nil
}

func buildReport(history map[string][]benchResult, order []string, against string, n int) (report, error) {
	var latestDesc, targetDesc string

	switch against {
	case "prev":
		latestDesc = "latest run"
		targetDesc = "previous run"
	case "avg":
		latestDesc = fmt.Sprintf("avg of last %d runs", n)
		targetDesc = fmt.Sprintf("avg of previous %d runs", n)
	default:
		return report{}, fmt.Errorf("unknown mode: %s (expected: prev | avg)", against)
	}

	rep := report{LatestDesc: latestDesc, TargetDesc: targetDesc}

	for _, name := range order {
		runs := history[name]

		var latest, target []benchResult

		switch against {
		case "prev":
			if len(runs) < 2 {
				continue
			}

			latest = runs[len(runs)-1:]
			target = runs[len(runs)-2 : len(runs)-1]
		case "avg":
			if len(runs) < 2*n {
				continue
			}

			latest = runs[len(runs)-n:]
			target = runs[len(runs)-2*n : len(runs)-n]
		}

		latestMs, latestPerSec := averageRuns(latest)
		targetMs, targetPerSec := averageRuns(target)
		change := pctChange(latestMs, targetMs)

		rep.WorstRegression = max(rep.WorstRegression, change)
		rep.Cases = append(rep.Cases, caseComparison{
			Case:         name,
			LatestMs:     latestMs,
			TargetMs:     targetMs,
			ChangePct:    change,
			LatestPerSec: latestPerSec,
			TargetPerSec: targetPerSec,
		})
	}

	if len(rep.Cases) == 0 {
		return report{}, fmt.Errorf("not enough runs to compare with %s", targetDesc)
	}

	return rep, nil
}

// averageRuns returns the mean time per repeat in milliseconds and the mean
// entries per second.
func averageRuns(runs []benchResult) (float64, float64) {
	if len(runs) == 0 {
		return 0, 0
	}

	var sumMs, sumPerSec float64

	for i := range runs {
		repeat := max(runs[i].Repeat, 1)
		sumMs += float64(runs[i].Duration.Microseconds()) / 1000 / float64(repeat)
		sumPerSec += runs[i].PerSec
	}

	count := float64(len(runs))

	return sumMs / count, sumPerSec / count
}

func printReport(w io.Writer, rep *report) {
	fmt.Fprintf(w, "Latest:  %s\n", rep.LatestDesc)
	fmt.Fprintf(w, "Target:  %s\n\n", rep.TargetDesc)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"case", "latest (ms)", "target (ms)", "change"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, c := range rep.Cases {
		table.Append([]string{c.Case, fmtMs(c.LatestMs), fmtMs(c.TargetMs), fmtPctColored(c.ChangePct)})
	}

	table.Render()

	fmt.Fprintln(w, "\nchange = time per repeat vs target (positive = slower)")
}

func pctChange(newValue, oldValue float64) float64 {
	if oldValue == 0 {
		return 0
	}

	return (newValue - oldValue) / oldValue * 100
}

func fmtMs(v float64) string {
	if v == 0 {
		return "N/A"
	}

	return fmt.Sprintf("%.3f", v)
}

func fmtPct(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.1f%%", v)
	}

	return fmt.Sprintf("%.1f%%", v)
}

func fmtPctColored(v float64) string {
	s := fmtPct(v)
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return s
	}

	switch {
	case v >= 1.0:
		return "\x1b[31m" + s + "\x1b[0m"
	case v <= -1.0:
		return "\x1b[32m" + s + "\x1b[0m"
	default:
		return s
	}
}
