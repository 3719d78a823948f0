// Package domain contains the lint runner and the geometry predicate
// evaluator.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"geokit.dev/tools/geokit/internal/adapter"
	"geokit.dev/tools/geokit/internal/controller"
	m "geokit.dev/tools/geokit/internal/model"
)

const scratchPrefix = "lintwalk-*"

// errStopRun cancels the remaining work once fail-fast has tripped.
var errStopRun = errors.New("fail-fast: stopping after first failure")

// LintRunner walks a directory and runs every file through the external
// linter, one scratch document per file.
type LintRunner interface {
	Run(ctx context.Context, cfg LintConfig) (m.LintSummary, error)
}

type lintRunner struct {
	adapter.SourceFSAdapter
	adapter.LinterAdapter
	adapter.ReportStore
	controller.LintUI

	now      func() time.Time
	newRunID func() string
}

// NewLintRunner constructs a LintRunner backed by the provided adapters.
func NewLintRunner(
	fsAdapter adapter.SourceFSAdapter,
	linterAdapter adapter.LinterAdapter,
	reportStore adapter.ReportStore,
	ui controller.LintUI,
) LintRunner {
	return &lintRunner{
		SourceFSAdapter: fsAdapter,
		LinterAdapter:   linterAdapter,
		ReportStore:     reportStore,
		LintUI:          ui,
		now:             time.Now,
		newRunID:        uuid.NewString,
	}
}

// Run lints every file under cfg.Root. It returns an error wrapping
// m.ErrLintFailures when any file failed or errored; the summary is
// populated in that case too.
func (r *lintRunner) Run(ctx context.Context, cfg LintConfig) (m.LintSummary, error) {
	summary := m.LintSummary{
		RunID:     r.newRunID(),
		Root:      cfg.Root,
		StartedAt: r.now(),
	}

	if err := cfg.Validate(); err != nil {
		return summary, err
	}

	excludes, err := cfg.CompileExcludes()
	if err != nil {
		return summary, err
	}

	shell, err := r.LookPath(cfg.Shell)
	if err != nil {
		slog.Error("Failed to resolve linter", "shell", cfg.Shell, "error", err)
		return summary, fmt.Errorf("%w: %s: %v", m.ErrLinterUnavailable, cfg.Shell, err)
	}

	driver, err := r.ReadFile(ctx, cfg.Driver)
	if err != nil {
		slog.Error("Failed to read driver script", "driver", cfg.Driver, "error", err)
		return summary, fmt.Errorf("%w: %v", m.ErrDriverUnavailable, err)
	}

	targets, err := r.collectTargets(ctx, cfg, excludes)
	if err != nil {
		return summary, err
	}

	targets = shardTargets(targets, cfg.ShardIndex, cfg.ShardCount)

	slog.Info("Starting lint run", "runID", summary.RunID, "root", cfg.Root, "targets", len(targets), "threads", cfg.Threads)
	r.DisplayPlan(ctx, cfg.Root, len(targets), cfg.Threads)

	summary.Reports = r.lintAll(ctx, cfg, shell, driver, targets)

	r.DisplaySummary(ctx, summary)

	if cfg.Report != "" {
		// An interrupted run still leaves a report of what finished.
		if err := r.SaveSummary(context.WithoutCancel(ctx), cfg.Report, summary); err != nil {
			return summary, fmt.Errorf("save report: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	if failing := summary.Failing(); len(failing) > 0 {
		return summary, fmt.Errorf("%w: %d of %d file(s) did not pass", m.ErrLintFailures, len(failing), len(summary.Reports))
	}

	return summary, nil
}

func (r *lintRunner) collectTargets(ctx context.Context, cfg LintConfig, excludes []*regexp.Regexp) ([]m.LintTarget, error) {
	info, err := r.FileInfo(ctx, cfg.Root)
	if err != nil {
		slog.Error("Traversal root unavailable", "root", cfg.Root, "error", err)
		return nil, fmt.Errorf("%w: root %s: %v", m.ErrTraversal, cfg.Root, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: root %s is not a directory", m.ErrTraversal, cfg.Root)
	}

	var targets []m.LintTarget

	err = r.Walk(ctx, cfg.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %s: %v", m.ErrTraversal, path, err)
		}

		if info.Mode()&os.ModeSymlink != 0 {
			linked, statErr := r.FileInfo(ctx, m.Path(path))
			if statErr != nil {
				slog.Warn("Skipping unresolvable symlink", "path", path, "error", statErr)
				return nil
			}

			info = linked
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		short, relErr := r.RelPath(ctx, cfg.Root, m.Path(path))
		if relErr != nil {
			short = m.Path(path)
		}

		if isExcluded(string(short), excludes) {
			slog.Debug("Excluded file", "path", path)
			return nil
		}

		if !hasExtension(path, cfg.Extensions) {
			return nil
		}

		targets = append(targets, m.LintTarget{FullPath: m.Path(path), ShortPath: short})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return targets, nil
}

// lintAll runs at most cfg.Threads linters at once. Reports keep the order
// of targets.
func (r *lintRunner) lintAll(ctx context.Context, cfg LintConfig, shell string, driver []byte, targets []m.LintTarget) []m.LintReport {
	reports := make([]m.LintReport, len(targets))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(cfg.Threads)

	workerIDs := make(chan int, cfg.Threads)
	for id := 1; id <= cfg.Threads; id++ {
		workerIDs <- id
	}

	for i, target := range targets {
		group.Go(func() error {
			workerID := <-workerIDs
			defer func() { workerIDs <- workerID }()

			if groupCtx.Err() != nil {
				reports[i] = m.LintReport{Target: target, Status: m.Skipped}
				return nil
			}

			r.DisplayStarting(groupCtx, target, workerID)

			report := r.lintOne(groupCtx, cfg, shell, driver, target)
			reports[i] = report

			r.DisplayCompleted(ctx, report)

			if cfg.FailFast && (report.Status == m.Failed || report.Status == m.Errored) {
				return errStopRun
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, errStopRun) {
		slog.Warn("Lint workers stopped", "error", err)
	}

	return reports
}

func (r *lintRunner) lintOne(ctx context.Context, cfg LintConfig, shell string, driver []byte, target m.LintTarget) m.LintReport {
	report := m.LintReport{Target: target}
	doc := BuildScratchDocument(target, cfg.Variable, driver)

	scratch, err := r.CreateScratchFile(ctx, cfg.ScratchDir, scratchPrefix+cfg.ScratchSuffix, doc.Content)
	if err != nil {
		slog.Error("Failed to write scratch document", "target", target.FullPath, "error", err)
		report.Status = m.Errored
		report.Err = err.Error()

		return report
	}

	defer r.cleanupScratch(ctx, scratch)

	start := r.now()
	result, err := r.RunLinter(ctx, shell, cfg.ShellArgs, scratch)
	report.Duration = r.now().Sub(start)
	report.ExitCode = result.ExitCode
	report.Output = result.Output

	switch {
	case err != nil && ctx.Err() != nil:
		report.Status = m.Skipped
		report.Err = ctx.Err().Error()
	case err != nil:
		slog.Error("Linter did not complete", "target", target.FullPath, "error", err)
		report.Status = m.Errored
		report.Err = fmt.Errorf("%w: %v", m.ErrSubprocess, err).Error()
	case result.ExitCode != 0:
		slog.Info("Linter reported problems", "target", target.FullPath, "exitCode", result.ExitCode)
		report.Status = m.Failed
		report.Err = fmt.Sprintf("%v: exit status %d", m.ErrSubprocess, result.ExitCode)
	default:
		slog.Debug("Linter passed", "target", target.FullPath, "duration", report.Duration)
		report.Status = m.Passed
	}

	return report
}

// cleanupScratch removes the scratch file, logging errors if cleanup fails.
func (r *lintRunner) cleanupScratch(ctx context.Context, scratch m.Path) {
	if err := r.RemoveFile(context.WithoutCancel(ctx), scratch); err != nil {
		slog.Error("Failed to remove scratch file", "scratch", scratch, "error", err)
	}
}

func isExcluded(path string, excludes []*regexp.Regexp) bool {
	slashed := filepath.ToSlash(path)

	for _, re := range excludes {
		if re.MatchString(slashed) {
			return true
		}
	}

	return false
}

func hasExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}

	ext := filepath.Ext(path)

	for _, want := range extensions {
		if !strings.HasPrefix(want, ".") {
			want = "." + want
		}

		if strings.EqualFold(ext, want) {
			return true
		}
	}

	return false
}

// shardTargets keeps every count-th target starting at index, so several
// machines can split one tree.
func shardTargets(targets []m.LintTarget, index, count int) []m.LintTarget {
	if count <= 1 {
		return targets
	}

	sharded := make([]m.LintTarget, 0, len(targets)/count+1)

	for i, target := range targets {
		if i%count == index {
			sharded = append(sharded, target)
		}
	}

	return sharded
}
