package model

import (
	"fmt"
	"time"
)

// LintStatus represents the outcome of linting one file.
type LintStatus int

const (
	// Passed indicates the linter exited with status 0.
	Passed LintStatus = iota
	// Failed indicates the linter ran and exited non-zero.
	Failed
	// Errored indicates the linter could not be run to completion (timeout, start failure, scratch I/O).
	Errored
	// Skipped indicates the file was never handed to the linter (fail-fast cancellation).
	Skipped
)

func (s LintStatus) String() string {
	switch s {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case Errored:
		return "errored"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in reports.
func (s LintStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name written by MarshalText.
func (s *LintStatus) UnmarshalText(text []byte) error {
	for _, candidate := range []LintStatus{Passed, Failed, Errored, Skipped} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}

	return fmt.Errorf("unknown lint status %q", string(text))
}

// LintReport is the result of running the linter against one target.
type LintReport struct {
	Target   LintTarget    `yaml:"target"`
	Status   LintStatus    `yaml:"status"`
	ExitCode int           `yaml:"exit_code"`
	Output   string        `yaml:"output,omitempty"`
	Duration time.Duration `yaml:"duration"`
	Err      string        `yaml:"error,omitempty"`
}

// LintSummary aggregates every report of one lintwalk invocation.
type LintSummary struct {
	RunID     string       `yaml:"run_id"`
	Root      Path         `yaml:"root"`
	StartedAt time.Time    `yaml:"started_at"`
	Reports   []LintReport `yaml:"reports"`
}

// Count returns how many reports carry the given status.
func (s LintSummary) Count(status LintStatus) int {
	n := 0

	for _, r := range s.Reports {
		if r.Status == status {
			n++
		}
	}

	return n
}

// Failing returns the targets whose linter run did not pass.
func (s LintSummary) Failing() []LintTarget {
	var targets []LintTarget

	for _, r := range s.Reports {
		if r.Status == Failed || r.Status == Errored {
			targets = append(targets, r.Target)
		}
	}

	return targets
}
