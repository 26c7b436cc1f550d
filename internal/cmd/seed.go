package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const defaultSeedCount = 100

type seedConfig struct {
	count    uint64
	threads  int
	progress bool
}

// NewSeedCmd creates and returns the seed subcommand for the bigdir CLI.
// It fills a new directory with empty, uuid-named files for benchmarking.
func NewSeedCmd() *cobra.Command {
	var (
		count      uint64
		threads    int
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "seed PATH",
		Short: "Generate a flat directory of empty files",
		Long: `Generate a flat fixture directory for benchmarking.

Creates PATH and fills it with COUNT empty files named by time-based UUIDs
(32 hex characters). If PATH already exists, nothing is generated so the
same fixture can be reused across runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := seedConfig{count: count, threads: threads, progress: !noProgress}

			return runSeed(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], cfg)
		},
	}

	cmd.Flags().Uint64VarP(&count, "count", "c", defaultSeedCount, "number of files to generate")
	cmd.Flags().IntVarP(&threads, "threads", "t", runtime.NumCPU(), "number of writer goroutines")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")

	return cmd
}

func runSeed(stdout, stderr io.Writer, path string, cfg seedConfig) error {
	if cfg.count == 0 {
		return errors.New("--count must be > 0")
	}

	if cfg.threads <= 0 {
		return errors.New("--threads must be > 0")
	}

	_, statErr := os.Lstat(path)
	if statErr == nil {
		fmt.Fprintln(stdout, "Fixture exists -- skipping.")

		return nil
	}

	if !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, statErr)
	}

	mkdirErr := os.Mkdir(path, 0o750)
	if mkdirErr != nil {
		return fmt.Errorf("mkdir %s: %w", path, mkdirErr)
	}

	var bar *pb.ProgressBar
	if cfg.progress {
		bar = pb.New64(int64(cfg.count))
		bar.Output = stderr
		bar.ShowSpeed = true
		bar.Start()
	}

	start := time.Now()

	var (
		created   atomic.Uint64
		waitGroup sync.WaitGroup
	)

	threads := cfg.threads
	if uint64(threads) > cfg.count {
		threads = int(cfg.count)
	}

	errCh := make(chan error, threads)

	for threadID := range threads {
		startIdx, endIdx, rangeErr := splitRange(cfg.count, threads, threadID)
		if rangeErr != nil {
			return rangeErr
		}

		waitGroup.Go(func() {
			workerErr := seedWorker(path, endIdx-startIdx, &created, bar)
			if workerErr != nil {
				errCh <- workerErr
			}
		})
	}

	waitGroup.Wait()
	close(errCh)

	if bar != nil {
		bar.Finish()
	}

	for workerErr := range errCh {
		return workerErr
	}

	elapsed := time.Since(start)
	log.Debugw("seed done", "path", path, "files", created.Load(), "elapsed", elapsed)

	fmt.Fprintf(stdout, "created %d files in %s (%v)\n", created.Load(), path, elapsed.Round(time.Millisecond))

	return nil
}

func seedWorker(dir string, n uint64, created *atomic.Uint64, bar *pb.ProgressBar) error {
	for range n {
		name, err := fixtureName()
		if err != nil {
			return err
		}

		filePath := filepath.Join(dir, name)

		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("create %s: %w", filePath, err)
		}

		err = f.Close()
		if err != nil {
			return fmt.Errorf("close %s: %w", filePath, err)
		}

		created.Add(1)

		if bar != nil {
			bar.Increment()
		}
	}

	return nil
}

// fixtureName returns a version 1 UUID as 32 lowercase hex characters.
func fixtureName() (string, error) {
	id, err := uuid.NewUUID()
	if err != nil {
		return "", fmt.Errorf("uuid: %w", err)
	}

	return strings.ReplaceAll(id.String(), "-", ""), nil
}

func splitRange(total uint64, threads int, threadID int) (uint64, uint64, error) {
	if threads <= 0 {
		return 0, 0, errors.New("threads must be > 0")
	}

	if threadID < 0 || threadID >= threads {
		return 0, 0, fmt.Errorf("thread id out of range: %d", threadID)
	}

	threadsU64 := uint64(threads)
	threadIDU64 := uint64(threadID)
	start := (total * threadIDU64) / threadsU64
	end := (total * (threadIDU64 + 1)) / threadsU64

	return start, end, nil
}
