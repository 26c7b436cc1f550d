// Bigdir lists the entries of very large directories.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/calvinalkan/bigdir/internal/cmd"
	"github.com/charmbracelet/fang"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := fang.Execute(ctx, cmd.NewRootCmd()); err != nil {
		stop()
		os.Exit(1)
	}
}
