// Command geopred evaluates a spatial predicate between two GeoJSON
// geometries.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"geokit.dev/tools/geokit/internal/controller"
)

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute runs the root command with args and returns the process exit code.
func execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		controller.PrintError(cmd.ErrOrStderr(), err)
		return 1
	}

	return 0
}
