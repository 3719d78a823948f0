package controller

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var errorPrefix = color.New(color.FgRed, color.Bold)

// PrintError writes "error: <err>" to out, with the prefix in red when
// colour output is enabled.
func PrintError(out io.Writer, err error) {
	if err == nil {
		return
	}

	_, _ = errorPrefix.Fprint(out, "error:")
	_, _ = fmt.Fprintf(out, " %v\n", err)
}
