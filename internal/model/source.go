// Package model defines the data structures shared by lintwalk and geopred.
package model

// Path represents a file system path.
type Path string

// LintTarget is a single file discovered under the traversal root.
type LintTarget struct {
	// FullPath is the path as produced by traversal (root-joined).
	FullPath Path `yaml:"full_path"`
	// ShortPath is FullPath relative to the traversal root, used for display.
	ShortPath Path `yaml:"short_path"`
}

// ScratchDocument is the text handed to the linter for one target: a
// declaration of the target's path followed by the driver body.
type ScratchDocument struct {
	Target  LintTarget
	Content []byte
}
