// Package controller provides the terminal output of lintwalk and geopred.
package controller

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"

	m "geokit.dev/tools/geokit/internal/model"
)

// LintUI receives progress from the lint runner. Implementations must be
// safe for concurrent use: with several workers, Display* calls interleave.
type LintUI interface {
	DisplayPlan(ctx context.Context, root m.Path, targets int, threads int)
	DisplayStarting(ctx context.Context, target m.LintTarget, workerID int)
	DisplayCompleted(ctx context.Context, report m.LintReport)
	DisplaySummary(ctx context.Context, summary m.LintSummary)
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}

	fd := f.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
