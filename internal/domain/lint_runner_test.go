package domain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geokit.dev/tools/geokit/internal/adapter"
	"geokit.dev/tools/geokit/internal/controller"
	m "geokit.dev/tools/geokit/internal/model"
)

const testDriver = "JSLINT(read(filename));\n"

var declaredPathRe = regexp.MustCompile(`^var filename = "(.*)";\n`)

type linterCall struct {
	scratch  m.Path
	declared string
	content  string
}

// fakeLinter records every invocation and reads the scratch document while
// it still exists.
type fakeLinter struct {
	mu       sync.Mutex
	calls    []linterCall
	exitCode func(declared string) int
	runErr   func(declared string) error
	lookErr  error
	block    chan struct{}
}

func (f *fakeLinter) LookPath(command string) (string, error) {
	if f.lookErr != nil {
		return "", f.lookErr
	}

	return "/usr/bin/" + command, nil
}

func (f *fakeLinter) RunLinter(ctx context.Context, _ string, _ []string, scratch m.Path) (adapter.LinterResult, error) {
	data, err := os.ReadFile(string(scratch))
	if err != nil {
		return adapter.LinterResult{ExitCode: -1}, err
	}

	declared := ""
	if match := declaredPathRe.FindStringSubmatch(string(data)); match != nil {
		declared = match[1]
	}

	f.mu.Lock()
	f.calls = append(f.calls, linterCall{scratch: scratch, declared: declared, content: string(data)})
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return adapter.LinterResult{ExitCode: -1}, ctx.Err()
		}
	}

	if f.runErr != nil {
		if err := f.runErr(declared); err != nil {
			return adapter.LinterResult{ExitCode: -1}, err
		}
	}

	code := 0
	if f.exitCode != nil {
		code = f.exitCode(declared)
	}

	return adapter.LinterResult{ExitCode: code, Output: "linted " + declared + "\n"}, nil
}

func (f *fakeLinter) declaredPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	paths := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		paths = append(paths, c.declared)
	}

	sort.Strings(paths)

	return paths
}

type fakeReportStore struct {
	saved []m.LintSummary
	paths []m.Path
}

func (s *fakeReportStore) SaveSummary(_ context.Context, path m.Path, summary m.LintSummary) error {
	s.paths = append(s.paths, path)
	s.saved = append(s.saved, summary)

	return nil
}

type recordingUI struct {
	mu        sync.Mutex
	plans     int
	started   int
	completed []m.LintReport
	summaries []m.LintSummary
}

func (u *recordingUI) DisplayPlan(context.Context, m.Path, int, int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.plans++
}

func (u *recordingUI) DisplayStarting(context.Context, m.LintTarget, int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.started++
}

func (u *recordingUI) DisplayCompleted(_ context.Context, report m.LintReport) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.completed = append(u.completed, report)
}

func (u *recordingUI) DisplaySummary(_ context.Context, summary m.LintSummary) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.summaries = append(u.summaries, summary)
}

var _ controller.LintUI = (*recordingUI)(nil)

type runnerFixture struct {
	root    string
	scratch string
	cfg     LintConfig
	linter  *fakeLinter
	store   *fakeReportStore
	ui      *recordingUI
	runner  LintRunner
}

func newRunnerFixture(t *testing.T, files ...string) *runnerFixture {
	t.Helper()

	base := t.TempDir()
	root := filepath.Join(base, "src")
	require.NoError(t, os.MkdirAll(root, 0o755))

	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("var x = 1;\n"), 0o644))
	}

	driver := filepath.Join(base, "jslintrun.js")
	require.NoError(t, os.WriteFile(driver, []byte(testDriver), 0o644))

	scratch := filepath.Join(base, "scratch")

	fx := &runnerFixture{
		root:    root,
		scratch: scratch,
		cfg: LintConfig{
			Root:          m.Path(root),
			Driver:        m.Path(driver),
			Shell:         "shell",
			Variable:      "filename",
			ScratchDir:    scratch,
			ScratchSuffix: ".js",
			Threads:       1,
			ShardCount:    1,
		},
		linter: &fakeLinter{},
		store:  &fakeReportStore{},
		ui:     &recordingUI{},
	}

	fx.runner = NewLintRunner(adapter.NewLocalSourceFSAdapter(), fx.linter, fx.store, fx.ui)

	return fx
}

func (fx *runnerFixture) abs(rel string) string {
	return filepath.Join(fx.root, filepath.FromSlash(rel))
}

func TestLintRunner_InvokesLinterOncePerFile(t *testing.T) {
	files := []string{"a.js", "b.js", "nested/c.js", "nested/deeper/d.txt"}
	fx := newRunnerFixture(t, files...)

	summary, err := fx.runner.Run(context.Background(), fx.cfg)
	require.NoError(t, err)

	want := make([]string, 0, len(files))
	for _, f := range files {
		want = append(want, fx.abs(f))
	}

	sort.Strings(want)

	assert.Equal(t, want, fx.linter.declaredPaths())
	require.Len(t, summary.Reports, len(files))
	assert.Equal(t, len(files), summary.Count(m.Passed))
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, fx.cfg.Root, summary.Root)
	assert.Equal(t, 1, fx.ui.plans)
	assert.Len(t, fx.ui.summaries, 1)
	assert.Empty(t, fx.store.saved, "no report path configured")
}

func TestLintRunner_ScratchDocumentsAreUniqueAndRemoved(t *testing.T) {
	fx := newRunnerFixture(t, "a.js", "b.js", "c.js")

	_, err := fx.runner.Run(context.Background(), fx.cfg)
	require.NoError(t, err)

	seen := map[m.Path]bool{}

	for _, call := range fx.linter.calls {
		assert.False(t, seen[call.scratch], "scratch path reused: %s", call.scratch)
		seen[call.scratch] = true

		assert.True(t, strings.HasSuffix(call.content, testDriver), "driver body passed through verbatim")
		assert.True(t, strings.HasSuffix(string(call.scratch), ".js"))
		assert.Equal(t, fx.scratch, filepath.Dir(string(call.scratch)))
	}

	entries, err := os.ReadDir(fx.scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch files must be removed")
}

func TestLintRunner_EmptyDirectory(t *testing.T) {
	fx := newRunnerFixture(t)

	summary, err := fx.runner.Run(context.Background(), fx.cfg)
	require.NoError(t, err)

	assert.Empty(t, fx.linter.calls)
	assert.Empty(t, summary.Reports)
}

func TestLintRunner_MissingRoot(t *testing.T) {
	fx := newRunnerFixture(t)
	fx.cfg.Root = m.Path(filepath.Join(fx.root, "does-not-exist"))

	_, err := fx.runner.Run(context.Background(), fx.cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, m.ErrTraversal))
	assert.Contains(t, err.Error(), "does-not-exist")
	assert.Empty(t, fx.linter.calls)
}

func TestLintRunner_RootIsFile(t *testing.T) {
	fx := newRunnerFixture(t, "a.js")
	fx.cfg.Root = m.Path(fx.abs("a.js"))

	_, err := fx.runner.Run(context.Background(), fx.cfg)
	require.ErrorIs(t, err, m.ErrTraversal)
}

func TestLintRunner_SymlinkedRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	fx := newRunnerFixture(t, "a.js", "nested/b.js")

	link := filepath.Join(t.TempDir(), "linked-src")
	require.NoError(t, os.Symlink(fx.root, link))
	fx.cfg.Root = m.Path(link)

	summary, err := fx.runner.Run(context.Background(), fx.cfg)
	require.NoError(t, err)

	want := []string{filepath.Join(link, "a.js"), filepath.Join(link, "nested", "b.js")}
	assert.Equal(t, want, fx.linter.declaredPaths())
	require.Len(t, summary.Reports, 2)
	assert.Equal(t, m.Path("a.js"), summary.Reports[0].Target.ShortPath)
}

func TestLintRunner_SymlinkedFiles(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	fx := newRunnerFixture(t, "a.js")
	require.NoError(t, os.Symlink(fx.abs("a.js"), fx.abs("b.js")))
	require.NoError(t, os.Symlink(fx.abs("gone.js"), fx.abs("dangling.js")))
	require.NoError(t, os.Mkdir(fx.abs("dir"), 0o755))
	require.NoError(t, os.Symlink(fx.abs("dir"), fx.abs("dirlink")))

	summary, err := fx.runner.Run(context.Background(), fx.cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{fx.abs("a.js"), fx.abs("b.js")}, fx.linter.declaredPaths())
	assert.Len(t, summary.Reports, 2)
}

// failingWalkFS reports an unreadable entry from Walk.
type failingWalkFS struct {
	*adapter.LocalSourceFSAdapter
	walkErr error
}

func (f *failingWalkFS) Walk(_ context.Context, root m.Path, fn adapter.FilepathWalkFunc) error {
	return fn(string(root)+"/locked", nil, f.walkErr)
}

func TestLintRunner_UnreadableEntry(t *testing.T) {
	fx := newRunnerFixture(t, "a.js")
	fx.runner = NewLintRunner(
		&failingWalkFS{LocalSourceFSAdapter: adapter.NewLocalSourceFSAdapter(), walkErr: os.ErrPermission},
		fx.linter, fx.store, fx.ui,
	)

	_, err := fx.runner.Run(context.Background(), fx.cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, m.ErrTraversal))
	assert.Contains(t, err.Error(), "locked")
	assert.Empty(t, fx.linter.calls)
}

func TestLintRunner_UnreadableSubdirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	fx := newRunnerFixture(t, "a.js", "private/b.js")
	require.NoError(t, os.Chmod(fx.abs("private"), 0o000))
	t.Cleanup(func() { _ = os.Chmod(fx.abs("private"), 0o755) })

	_, err := fx.runner.Run(context.Background(), fx.cfg)
	require.ErrorIs(t, err, m.ErrTraversal)
	assert.Contains(t, err.Error(), "private")
	assert.Empty(t, fx.linter.calls)
}

func TestLintRunner_MissingDriver(t *testing.T) {
	fx := newRunnerFixture(t, "a.js")
	fx.cfg.Driver = m.Path(filepath.Join(fx.root, "missing-driver.js"))

	_, err := fx.runner.Run(context.Background(), fx.cfg)
	require.ErrorIs(t, err, m.ErrDriverUnavailable)
	assert.Empty(t, fx.linter.calls)
}

func TestLintRunner_LinterUnavailable(t *testing.T) {
	fx := newRunnerFixture(t, "a.js")
	fx.linter.lookErr = errors.New("executable file not found in $PATH")

	_, err := fx.runner.Run(context.Background(), fx.cfg)
	require.ErrorIs(t, err, m.ErrLinterUnavailable)
	assert.Empty(t, fx.linter.calls)
}

func TestLintRunner_InvalidConfig(t *testing.T) {
	fx := newRunnerFixture(t, "a.js")
	fx.cfg.Threads = 0

	_, err := fx.runner.Run(context.Background(), fx.cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Threads")
}

func TestLintRunner_SurfacesFailures(t *testing.T) {
	fx := newRunnerFixture(t, "good.js", "bad.js", "broken.js")
	fx.linter.exitCode = func(declared string) int {
		if strings.HasSuffix(declared, "bad.js") {
			return 2
		}

		return 0
	}
	fx.linter.runErr = func(declared string) error {
		if strings.HasSuffix(declared, "broken.js") {
			return errors.New("signal: killed")
		}

		return nil
	}

	summary, err := fx.runner.Run(context.Background(), fx.cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, m.ErrLintFailures))
	assert.Contains(t, err.Error(), "2 of 3")

	assert.Len(t, fx.linter.calls, 3, "a failure does not stop the run by default")
	assert.Equal(t, 1, summary.Count(m.Passed))
	assert.Equal(t, 1, summary.Count(m.Failed))
	assert.Equal(t, 1, summary.Count(m.Errored))

	for _, r := range summary.Reports {
		switch r.Target.ShortPath {
		case "bad.js":
			assert.Equal(t, 2, r.ExitCode)
			assert.Contains(t, r.Err, "exit status 2")
			assert.Contains(t, r.Output, "linted")
		case "broken.js":
			assert.Contains(t, r.Err, m.ErrSubprocess.Error())
		}
	}
}

func TestLintRunner_FailFastSkipsRemaining(t *testing.T) {
	fx := newRunnerFixture(t, "a.js", "b.js", "c.js", "d.js")
	fx.cfg.FailFast = true
	fx.linter.exitCode = func(declared string) int {
		if strings.HasSuffix(declared, "b.js") {
			return 1
		}

		return 0
	}

	summary, err := fx.runner.Run(context.Background(), fx.cfg)
	require.ErrorIs(t, err, m.ErrLintFailures)

	assert.Len(t, fx.linter.calls, 2)
	require.Len(t, summary.Reports, 4)
	assert.Equal(t, m.Passed, summary.Reports[0].Status)
	assert.Equal(t, m.Failed, summary.Reports[1].Status)
	assert.Equal(t, m.Skipped, summary.Reports[2].Status)
	assert.Equal(t, m.Skipped, summary.Reports[3].Status)
}

func TestLintRunner_ExcludeAndExtensions(t *testing.T) {
	fx := newRunnerFixture(t, "app.js", "app.min.js", "vendor/lib.js", "README.md", "style.CSS")
	fx.cfg.Exclude = []string{`^vendor/`, `\.min\.js$`}
	fx.cfg.Extensions = []string{"js", ".css"}

	summary, err := fx.runner.Run(context.Background(), fx.cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{fx.abs("app.js"), fx.abs("style.CSS")}, fx.linter.declaredPaths())
	assert.Len(t, summary.Reports, 2)
}

func TestLintRunner_Shards(t *testing.T) {
	files := []string{"a.js", "b.js", "c.js", "d.js", "e.js"}

	var all []string

	for index := 0; index < 2; index++ {
		fx := newRunnerFixture(t, files...)
		fx.cfg.ShardIndex = index
		fx.cfg.ShardCount = 2

		_, err := fx.runner.Run(context.Background(), fx.cfg)
		require.NoError(t, err)

		for _, p := range fx.linter.declaredPaths() {
			all = append(all, filepath.Base(p))
		}
	}

	sort.Strings(all)
	assert.Equal(t, files, all, "shards partition the tree")
}

func TestLintRunner_ParallelWorkers(t *testing.T) {
	files := []string{"a.js", "b.js", "c.js", "d.js", "e.js", "f.js"}
	fx := newRunnerFixture(t, files...)
	fx.cfg.Threads = 3

	summary, err := fx.runner.Run(context.Background(), fx.cfg)
	require.NoError(t, err)

	assert.Len(t, fx.linter.declaredPaths(), len(files))
	require.Len(t, summary.Reports, len(files))

	for i, r := range summary.Reports {
		assert.Equal(t, m.Path(files[i]), r.Target.ShortPath, "reports keep traversal order")
	}

	assert.Equal(t, len(files), fx.ui.started)
	assert.Len(t, fx.ui.completed, len(files))
}

func TestLintRunner_SavesReport(t *testing.T) {
	fx := newRunnerFixture(t, "a.js")
	fx.cfg.Report = m.Path(filepath.Join(t.TempDir(), "lint.yaml"))

	_, err := fx.runner.Run(context.Background(), fx.cfg)
	require.NoError(t, err)

	require.Len(t, fx.store.saved, 1)
	assert.Equal(t, fx.cfg.Report, fx.store.paths[0])
	assert.Len(t, fx.store.saved[0].Reports, 1)
}

func TestLintRunner_Cancelled(t *testing.T) {
	fx := newRunnerFixture(t, "a.js", "b.js")
	fx.linter.block = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	summary, err := fx.runner.Run(ctx, fx.cfg)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, summary.Count(m.Skipped))
}

func TestLintRunner_WithShellScriptLinter(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script linters are not supported on windows")
	}

	fx := newRunnerFixture(t, "ok.js", "fail.js")

	logPath := filepath.Join(t.TempDir(), "invocations.log")
	script := filepath.Join(t.TempDir(), "shell")
	body := "#!/bin/sh\n" +
		"head -n 1 \"$1\" >> " + logPath + "\n" +
		"if grep -q fail.js \"$1\"; then echo 'fail.js: problem'; exit 1; fi\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	fx.cfg.Shell = script
	runner := NewLintRunner(
		adapter.NewLocalSourceFSAdapter(),
		adapter.NewLocalLinterAdapter(10*time.Second),
		fx.store,
		fx.ui,
	)

	summary, err := runner.Run(context.Background(), fx.cfg)
	require.ErrorIs(t, err, m.ErrLintFailures)

	logged, err := os.ReadFile(logPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(logged)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, string(logged), `var filename = "`+fx.abs("fail.js")+`";`)
	assert.Contains(t, string(logged), `var filename = "`+fx.abs("ok.js")+`";`)

	assert.Equal(t, 1, summary.Count(m.Failed))
	assert.Equal(t, 1, summary.Count(m.Passed))
}

func TestShardTargets(t *testing.T) {
	targets := []m.LintTarget{{FullPath: "a"}, {FullPath: "b"}, {FullPath: "c"}}

	assert.Equal(t, targets, shardTargets(targets, 0, 1))
	assert.Equal(t, []m.LintTarget{{FullPath: "a"}, {FullPath: "c"}}, shardTargets(targets, 0, 2))
	assert.Equal(t, []m.LintTarget{{FullPath: "b"}}, shardTargets(targets, 1, 2))
}

func TestHasExtension(t *testing.T) {
	assert.True(t, hasExtension("a.js", nil))
	assert.True(t, hasExtension("a.JS", []string{"js"}))
	assert.False(t, hasExtension("a.ts", []string{".js"}))
}
