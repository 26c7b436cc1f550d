package cmd

import (
	"fmt"

	"github.com/calvinalkan/bigdir"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// scanFlags holds the backend selection flags shared by ls and count.
type scanFlags struct {
	backend    string
	bufferSize string
}

func (f *scanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.backend, "backend", "b", "auto", "directory reader: auto | raw | stream")
	cmd.Flags().StringVar(&f.bufferSize, "buffer-size", humanize.IBytes(bigdir.DefaultBufferSize), "raw backend buffer size (e.g. 64KiB, 5MiB)")
}

// options converts the flags to bigdir options.
func (f *scanFlags) options() ([]bigdir.Option, error) {
	kind, err := bigdir.ParseBackend(f.backend)
	if err != nil {
		return nil, err
	}

	opts := []bigdir.Option{bigdir.WithBackend(kind)}

	if f.bufferSize != "" {
		size, err := humanize.ParseBytes(f.bufferSize)
		if err != nil {
			return nil, fmt.Errorf("invalid --buffer-size %q: %w", f.bufferSize, err)
		}

		if size > bigdir.MaxBufferSize {
			return nil, fmt.Errorf("--buffer-size %s exceeds %s", humanize.IBytes(size), humanize.IBytes(bigdir.MaxBufferSize))
		}

		opts = append(opts, bigdir.WithBufferSize(int(size)))
	}

	return opts, nil
}
