// Command flockctl exports, inspects and clears stored flock snapshots.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root, a := newRootCmd()
	err := root.ExecuteContext(ctx)
	a.close(context.Background())
	if err != nil {
		os.Exit(1)
	}
}
