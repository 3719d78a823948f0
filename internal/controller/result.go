package controller

import (
	"fmt"
	"io"
	"strconv"
)

// PrintBool writes a predicate result as a single "true"/"false" line.
func PrintBool(out io.Writer, value bool) error {
	_, err := fmt.Fprintln(out, strconv.FormatBool(value))
	return err
}
