package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	m "geokit.dev/tools/geokit/internal/model"
)

// ReportStore persists lint summaries.
type ReportStore interface {
	SaveSummary(ctx context.Context, path m.Path, summary m.LintSummary) error
}

// YAMLReportStore writes summaries as YAML. Writers are serialised through a
// sibling "<path>.lock" file and each write is a temp-file rename, so
// concurrent lintwalk runs never interleave a report.
type YAMLReportStore struct{}

// NewReportStore constructs a YAMLReportStore.
func NewReportStore() *YAMLReportStore {
	return &YAMLReportStore{}
}

// SaveSummary encodes summary to path.
func (s *YAMLReportStore) SaveSummary(ctx context.Context, path m.Path, summary m.LintSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	target := string(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}

	lock := flock.New(target + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", target, err)
	}

	defer func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("failed to release report lock", "path", target, "error", err)
		}
	}()

	if err := atomicWrite(target, data); err != nil {
		return err
	}

	slog.Info("saved lint report", "path", target, "reports", len(summary.Reports))

	return nil
}

func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	tmpPath := tmp.Name()
	committed := false

	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	committed = true

	return nil
}
