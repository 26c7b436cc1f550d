package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/calvinalkan/bigdir"
	"github.com/stretchr/testify/require"
)

func makeDir(t *testing.T, names ...string) string {
	t.Helper()

	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	return dir
}

func sortedLines(s string) []string {
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	sort.Strings(lines)

	return lines
}

func Test_RunLs_Prints_Names_When_Single_Path(t *testing.T) {
	t.Parallel()

	dir := makeDir(t, "a", "b", "c")

	var stdout, stderr bytes.Buffer

	err := runLs(context.Background(), &stdout, &stderr, []string{dir}, lsConfig{})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, sortedLines(stdout.String()))
	require.Empty(t, stderr.String())
}

func Test_RunLs_Stops_At_Limit_When_Limit_Set(t *testing.T) {
	t.Parallel()

	dir := makeDir(t, "a", "b", "c", "d")

	var stdout, stderr bytes.Buffer

	err := runLs(context.Background(), &stdout, &stderr, []string{dir}, lsConfig{limit: 2})
	require.NoError(t, err)
	require.Len(t, sortedLines(stdout.String()), 2)
}

func Test_RunLs_Uses_NUL_Separator_When_Null_Set(t *testing.T) {
	t.Parallel()

	dir := makeDir(t, "x")

	var stdout, stderr bytes.Buffer

	err := runLs(context.Background(), &stdout, &stderr, []string{dir}, lsConfig{null: true})
	require.NoError(t, err)
	require.Equal(t, "x\x00", stdout.String())
}

func Test_RunLs_Continues_And_Reports_Error_When_One_Path_Missing(t *testing.T) {
	t.Parallel()

	dir := makeDir(t, "only")
	missing := filepath.Join(t.TempDir(), "missing")

	var stdout, stderr bytes.Buffer

	err := runLs(context.Background(), &stdout, &stderr, []string{missing, dir}, lsConfig{})
	require.ErrorIs(t, err, os.ErrNotExist)

	var ioErr *bigdir.IOError
	require.ErrorAs(t, err, &ioErr)
	require.Equal(t, missing, ioErr.Path)

	out := stdout.String()
	require.Contains(t, out, missing+":\n")
	require.Contains(t, out, dir+":\nonly\n")
}

func Test_RunLs_Writes_Stats_When_Requested(t *testing.T) {
	t.Parallel()

	dir := makeDir(t, "a", "b")

	var stdout, stderr bytes.Buffer

	cfg := lsConfig{showStats: true, opts: []bigdir.Option{bigdir.WithBackend(bigdir.BackendStream)}}

	err := runLs(context.Background(), &stdout, &stderr, []string{dir}, cfg)
	require.NoError(t, err)
	require.Contains(t, stderr.String(), "entries=2")
	require.Contains(t, stderr.String(), "backend=stream")
}

func Test_RunCount_Prints_Counts_And_Total_When_Multiple_Paths(t *testing.T) {
	t.Parallel()

	first := makeDir(t, "a", "b")
	second := makeDir(t, "c")

	var stdout bytes.Buffer

	err := runCount(context.Background(), &stdout, []string{first, second}, 0, nil)
	require.NoError(t, err)

	out := stdout.String()
	require.Contains(t, out, "2\t"+first)
	require.Contains(t, out, "1\t"+second)
	require.Contains(t, out, "3\ttotal")
}

func Test_RunCount_Prints_Progress_When_Interval_Set(t *testing.T) {
	t.Parallel()

	dir := makeDir(t, "a", "b", "c", "d")

	var stdout bytes.Buffer

	err := runCount(context.Background(), &stdout, []string{dir}, 2, nil)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(stdout.String(), "Progress:"))
}

func Test_RunCount_Returns_Error_When_Path_Is_File(t *testing.T) {
	t.Parallel()

	dir := makeDir(t, "file")

	var stdout bytes.Buffer

	err := runCount(context.Background(), &stdout, []string{filepath.Join(dir, "file")}, 0, nil)
	require.Error(t, err)
	require.Empty(t, stdout.String())
}

func Test_RunSeed_Creates_Files_When_Path_Missing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fixture")

	var stdout, stderr bytes.Buffer

	err := runSeed(&stdout, &stderr, path, seedConfig{count: 37, threads: 4})
	require.NoError(t, err)
	require.Contains(t, stdout.String(), "created 37 files")

	names, err := bigdir.Names(path)
	require.NoError(t, err)
	require.Len(t, names, 37)

	for _, name := range names {
		require.Len(t, name, 32)
	}
}

func Test_RunSeed_Skips_When_Path_Exists(t *testing.T) {
	t.Parallel()

	dir := makeDir(t, "keep")

	var stdout, stderr bytes.Buffer

	err := runSeed(&stdout, &stderr, dir, seedConfig{count: 5, threads: 1})
	require.NoError(t, err)
	require.Contains(t, stdout.String(), "Fixture exists -- skipping.")

	names, err := bigdir.Names(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"keep"}, names)
}

func Test_RunSeed_Returns_Error_When_Config_Invalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fixture")

	var stdout, stderr bytes.Buffer

	require.Error(t, runSeed(&stdout, &stderr, path, seedConfig{count: 0, threads: 1}))
	require.Error(t, runSeed(&stdout, &stderr, path, seedConfig{count: 1, threads: 0}))

	_, err := os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func Test_SplitRange_Covers_Total_When_Uneven(t *testing.T) {
	t.Parallel()

	const total = 10

	var (
		sum  uint64
		prev uint64
	)

	for id := range 3 {
		start, end, err := splitRange(total, 3, id)
		require.NoError(t, err)
		require.Equal(t, prev, start)

		sum += end - start
		prev = end
	}

	require.Equal(t, uint64(total), sum)

	_, _, err := splitRange(total, 0, 0)
	require.Error(t, err)

	_, _, err = splitRange(total, 3, 3)
	require.Error(t, err)
}

func Test_BenchCases_Pairs_All_And_First_When_Built(t *testing.T) {
	t.Parallel()

	cases := benchCases(bigdir.MinBufferSize)
	require.Len(t, cases, 6)

	names := make([]string, 0, len(cases))
	for _, bc := range cases {
		names = append(names, bc.name)

		if strings.HasPrefix(bc.name, "raw") {
			require.Equal(t, bigdir.Implementation != "linux", bc.skip)
		}
	}

	require.Equal(t, []string{
		"readdirnames_all", "raw_all", "stream_all",
		"readdirnames_1", "raw_1", "stream_1",
	}, names)
}

func Test_BackendCase_Counts_Entries_When_Run(t *testing.T) {
	t.Parallel()

	dir := makeDir(t, "a", "b", "c")

	run := backendCase(bigdir.BackendStream, bigdir.MinBufferSize)

	n, reads, err := run(dir, false)
	require.NoError(t, err)
	require.Equal(t, uint64(3), n)
	require.Positive(t, reads)

	n, _, err = run(dir, true)
	require.NoError(t, err)
	require.Equal(t, uint64(1), n)
}

func Test_RunBench_Writes_JSONL_When_Out_Set(t *testing.T) {
	t.Parallel()

	dir := makeDir(t, "a", "b")
	out := filepath.Join(t.TempDir(), "bench.jsonl")

	var stdout, stderr bytes.Buffer

	flags := &benchFlags{repeat: 1, bufferSize: "4KiB", out: out}

	err := runBench(&stdout, &stderr, dir, flags)
	require.NoError(t, err)
	require.Contains(t, stdout.String(), "stream_all")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, 6, strings.Count(string(data), "\n"))
	require.Contains(t, string(data), `"case":"readdirnames_all"`)
}

func Test_RunBench_Returns_Error_When_Flags_Invalid(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var stdout, stderr bytes.Buffer

	require.Error(t, runBench(&stdout, &stderr, dir, &benchFlags{repeat: 0, bufferSize: "4KiB"}))
	require.Error(t, runBench(&stdout, &stderr, dir, &benchFlags{repeat: 1, bufferSize: "lots"}))
	require.Error(t, runBench(&stdout, &stderr, dir, &benchFlags{repeat: 1, bufferSize: "1GiB"}))
}

func Test_ScanFlags_Options_Returns_Error_When_Values_Invalid(t *testing.T) {
	t.Parallel()

	_, err := (&scanFlags{backend: "turbo"}).options()
	require.Error(t, err)

	_, err = (&scanFlags{backend: "auto", bufferSize: "lots"}).options()
	require.Error(t, err)

	_, err = (&scanFlags{backend: "auto", bufferSize: "1GiB"}).options()
	require.Error(t, err)

	opts, err := (&scanFlags{backend: "stream", bufferSize: "64KiB"}).options()
	require.NoError(t, err)
	require.Len(t, opts, 2)
}

func Test_RootCmd_Runs_Count_When_Invoked(t *testing.T) {
	t.Parallel()

	dir := makeDir(t, "a")

	root := NewRootCmd()

	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"count", "--backend", "stream", dir})

	require.NoError(t, root.ExecuteContext(context.Background()))
	require.Contains(t, stdout.String(), "1\t"+dir)
}
