package controller

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	m "geokit.dev/tools/geokit/internal/model"
)

// SimpleUI implements LintUI as plain line-oriented output.
type SimpleUI struct {
	mu     sync.Mutex
	out    io.Writer
	styled bool
}

// NewSimpleUI creates a SimpleUI writing to out. Status labels are coloured
// only when styled is true.
func NewSimpleUI(out io.Writer, styled bool) *SimpleUI {
	return &SimpleUI{out: out, styled: styled}
}

var statusStyles = map[m.LintStatus]lipgloss.Style{
	m.Passed:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	m.Failed:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	m.Errored: lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
	m.Skipped: lipgloss.NewStyle().Faint(true),
}

// DisplayPlan announces how many files will be linted.
func (s *SimpleUI) DisplayPlan(ctx context.Context, root m.Path, targets int, threads int) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Linting %d file(s) under %s with %d worker(s)\n", targets, root, threads)
}

// DisplayStarting shows which file a worker picked up.
func (s *SimpleUI) DisplayStarting(ctx context.Context, target m.LintTarget, workerID int) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("[%d] linting %s\n", workerID, target.ShortPath)
}

// DisplayCompleted prints the status of a finished file, followed by the
// linter output when the file did not pass.
func (s *SimpleUI) DisplayCompleted(_ context.Context, report m.LintReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writef("%s %s", s.label(report.Status), report.Target.ShortPath)

	if report.Status == m.Failed {
		s.writef(" (exit %d)", report.ExitCode)
	}

	s.writef("\n")

	if report.Err != "" {
		s.writef("  %s\n", report.Err)
	}

	if report.Status != m.Passed && report.Output != "" {
		s.writef("%s", indent(report.Output))
	}
}

// DisplaySummary renders a per-status table of the run.
func (s *SimpleUI) DisplaySummary(_ context.Context, summary m.LintSummary) {
	s.printf("\n%s", renderSummaryTable(summary))

	failing := summary.Failing()
	if len(failing) == 0 {
		return
	}

	paths := make([]string, 0, len(failing))
	for _, target := range failing {
		paths = append(paths, string(target.ShortPath))
	}

	sort.Strings(paths)

	s.printf("Failing files:\n")

	for _, p := range paths {
		s.printf("  %s\n", p)
	}
}

func renderSummaryTable(summary m.LintSummary) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Status", "Files"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	for _, status := range []m.LintStatus{m.Passed, m.Failed, m.Errored, m.Skipped} {
		table.Append([]string{status.String(), fmt.Sprintf("%d", summary.Count(status))})
	}

	table.SetFooter([]string{"Total", fmt.Sprintf("%d", len(summary.Reports))})
	table.Render()

	return buf.String()
}

func (s *SimpleUI) label(status m.LintStatus) string {
	text := strings.ToUpper(status.String())
	if !s.styled {
		return text
	}

	style, ok := statusStyles[status]
	if !ok {
		return text
	}

	return style.Render(text)
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writef(format, args...)
}

// writef expects s.mu to be held.
func (s *SimpleUI) writef(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

func indent(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	var b strings.Builder

	for _, line := range lines {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}
