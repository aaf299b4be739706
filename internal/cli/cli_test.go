package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/lcovhtml/internal/application"
	"github.com/felixgeelhaar/lcovhtml/internal/domain"
	"github.com/felixgeelhaar/lcovhtml/internal/infrastructure/report"
	"github.com/felixgeelhaar/lcovhtml/internal/mcp"
)

const minimalLCOV = "TN:\nSF:src/app.js\nDA:1,1\nDA:2,0\nend_of_record\n"

func testService() *application.Service {
	svc := BuildService()
	svc.Renderer = &report.Renderer{Now: func() time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	}}
	return svc
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func run(t *testing.T, svc Service, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(append([]string{"lcovhtml"}, args...), &stdout, &stderr, svc)
	return code, stdout.String(), stderr.String()
}

func readTree(t *testing.T, dir string) map[string][]byte {
	t.Helper()
	out := make(map[string][]byte)
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		out[filepath.ToSlash(rel)] = data
		return err
	})
	require.NoError(t, err)
	return out
}

func TestRunUsage(t *testing.T) {
	code, _, stderr := run(t, testService())
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "generate-coverage-report")

	code, stdout, _ := run(t, testService(), "help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Commands:")
}

func TestRunVersion(t *testing.T) {
	code, stdout, _ := run(t, testService(), "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "lcovhtml "+Version)
}

func TestRunTasks(t *testing.T) {
	code, stdout, _ := run(t, testService(), "tasks")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "generate-coverage-report")
	assert.Contains(t, stdout, ".coverage")
}

func TestRunUnknownTask(t *testing.T) {
	code, _, stderr := run(t, testService(), "deploy")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unknown task: deploy")
}

func TestRunTaskBadArguments(t *testing.T) {
	root := t.TempDir()

	code, _, _ := run(t, testService(), "generate-coverage-report", "--root", root, "extra")
	assert.Equal(t, 2, code)

	code, _, _ = run(t, testService(), "generate-coverage-report", "--bogus")
	assert.Equal(t, 2, code)

	code, _, stderr := run(t, testService(), "generate-coverage-report", "--format", "xml")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unsupported output format")
}

func TestGenerateCoverageReportEndToEnd(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "test/unit/coverage.info", minimalLCOV)
	writeFile(t, root, "src/app.js", "let a = 1;\nlet b = 2;\n")

	code, stdout, stderr := run(t, testService(), "generate-coverage-report", "--root", root)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "My WebApp: 1 input(s), 1 source file(s)")
	assert.Contains(t, stdout, "Report written to "+filepath.Join(root, ".coverage"))

	index, err := os.ReadFile(filepath.Join(root, ".coverage", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "My WebApp")
	assert.FileExists(t, filepath.Join(root, ".coverage", "badge.svg"))
	assert.FileExists(t, filepath.Join(root, ".coverage", "files", "src_app.js.html"))
}

func TestGenerateCoverageReportIsByteIdentical(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "test/unit/coverage.info", minimalLCOV)
	writeFile(t, root, "test/e2e/coverage.info", "SF:src/app.js\nDA:2,4\nend_of_record\n")

	code, _, stderr := run(t, testService(), "generate-coverage-report", "--root", root)
	require.Equal(t, 0, code, stderr)
	first := readTree(t, filepath.Join(root, ".coverage"))

	code, _, stderr = run(t, testService(), "generate-coverage-report", "--root", root)
	require.Equal(t, 0, code, stderr)
	second := readTree(t, filepath.Join(root, ".coverage"))

	assert.Equal(t, first, second)
	// Both inputs cover src/app.js, so both lines are covered after merging.
	assert.Contains(t, string(first["index.html"]), "100%")
}

func TestGenerateCoverageReportNoInputs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.js", "let a = 1;\n")

	code, stdout, _ := run(t, testService(), "generate-coverage-report", "--root", root)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "No files matched test/**/coverage.info")
	assert.NoDirExists(t, filepath.Join(root, ".coverage"))
}

func TestGenerateCoverageReportInvalidLCOV(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "test/unit/coverage.info", "this is not lcov\n")

	code, _, stderr := run(t, testService(), "generate-coverage-report", "--root", root)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, application.ErrTransform.Error())
	assert.Contains(t, stderr, "test/unit/coverage.info:1")
	assert.NoDirExists(t, filepath.Join(root, ".coverage"))
}

func TestGenerateCoverageReportOutputOccupied(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "test/unit/coverage.info", minimalLCOV)
	writeFile(t, root, ".coverage", "not a directory")

	code, _, stderr := run(t, testService(), "generate-coverage-report", "--root", root)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, application.ErrWrite.Error())
}

func TestGenerateCoverageReportConfigFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "test/unit/coverage.info", minimalLCOV)
	writeFile(t, root, ".lcovhtml.yaml", "version: 1\nreport:\n  name: Storefront\n  output: site/coverage\n")

	code, _, stderr := run(t, testService(), "generate-coverage-report", "--root", root)
	require.Equal(t, 0, code, stderr)

	index, err := os.ReadFile(filepath.Join(root, "site", "coverage", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "Storefront")
}

func TestGenerateCoverageReportInvalidConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".lcovhtml.yaml", "report:\n  title: typo\n")

	code, _, stderr := run(t, testService(), "generate-coverage-report", "--root", root)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, domain.ErrInvalidConfig.Error())
}

func TestGenerateCoverageReportBadgeStyle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "test/unit/coverage.info", minimalLCOV)
	writeFile(t, root, ".lcovhtml.yaml", "report:\n  badge_style: flat-square\n")

	code, _, stderr := run(t, testService(), "generate-coverage-report", "--root", root)
	require.Equal(t, 0, code, stderr)

	svg, err := os.ReadFile(filepath.Join(root, ".coverage", "badge.svg"))
	require.NoError(t, err)
	assert.Contains(t, string(svg), `rx="0"`)

	writeFile(t, root, ".lcovhtml.yaml", "report:\n  badge_style: rounded\n")
	code, _, stderr = run(t, testService(), "generate-coverage-report", "--root", root)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, domain.ErrBadgeStyle.Error())
}

func TestGenerateCoverageReportJSONFormat(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "test/unit/coverage.info", minimalLCOV)

	code, stdout, stderr := run(t, testService(), "generate-coverage-report", "--root", root, "--format", "json")
	require.Equal(t, 0, code, stderr)

	var payload struct {
		Files   int      `json:"files"`
		Inputs  []string `json:"inputs"`
		Skipped bool     `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	assert.Equal(t, 1, payload.Files)
	assert.Equal(t, []string{"test/unit/coverage.info"}, payload.Inputs)
	assert.False(t, payload.Skipped)
}

func TestInitNoInteractive(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ".lcovhtml.yaml")

	code, stdout, stderr := run(t, testService(), "init", "--root", root, "--no-interactive")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: My WebApp")

	code, _, stderr = run(t, testService(), "init", "--root", root, "--no-interactive")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "already exists")

	code, _, _ = run(t, testService(), "init", "--root", root, "--no-interactive", "--force")
	assert.Equal(t, 0, code)
}

func stubWizard(t *testing.T, fn func(domain.ReportConfig, io.Writer, io.Reader) (domain.ReportConfig, bool, error)) {
	t.Helper()
	orig := initWizard
	initWizard = fn
	t.Cleanup(func() { initWizard = orig })
}

func TestInitWizard(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		root := t.TempDir()
		stubWizard(t, func(cfg domain.ReportConfig, _ io.Writer, _ io.Reader) (domain.ReportConfig, bool, error) {
			assert.Equal(t, domain.DefaultReportName, cfg.Name)
			cfg.Name = "Edited"
			return cfg, true, nil
		})

		code, _, stderr := run(t, testService(), "init", "--root", root)
		require.Equal(t, 0, code, stderr)
		data, err := os.ReadFile(filepath.Join(root, ".lcovhtml.yaml"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "name: Edited")
	})

	t.Run("cancelled", func(t *testing.T) {
		root := t.TempDir()
		stubWizard(t, func(cfg domain.ReportConfig, _ io.Writer, _ io.Reader) (domain.ReportConfig, bool, error) {
			return cfg, false, nil
		})

		code, stdout, _ := run(t, testService(), "init", "--root", root)
		assert.Equal(t, 0, code)
		assert.Contains(t, stdout, "Init cancelled")
		assert.NoFileExists(t, filepath.Join(root, ".lcovhtml.yaml"))
	})

	t.Run("failure", func(t *testing.T) {
		root := t.TempDir()
		stubWizard(t, func(cfg domain.ReportConfig, _ io.Writer, _ io.Reader) (domain.ReportConfig, bool, error) {
			return cfg, false, errors.New("no tty")
		})

		code, _, stderr := run(t, testService(), "init", "--root", root)
		assert.Equal(t, 5, code)
		assert.Contains(t, stderr, "no tty")
	})
}

type fakeWatcher struct {
	events chan struct{}
	closed bool
}

func (f *fakeWatcher) WatchDir(string) error                  { return nil }
func (f *fakeWatcher) Events(context.Context) <-chan struct{} { return f.events }
func (f *fakeWatcher) Close() error {
	f.closed = true
	return nil
}

func stubWatcher(t *testing.T, w watchCloser, err error) {
	t.Helper()
	orig := newWatcher
	newWatcher = func(string, func(error)) (watchCloser, error) { return w, err }
	t.Cleanup(func() { newWatcher = orig })
}

func TestRunWatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "test/unit/coverage.info", minimalLCOV)

	w := &fakeWatcher{events: make(chan struct{}, 1)}
	w.events <- struct{}{}
	close(w.events)
	stubWatcher(t, w, nil)

	code, stdout, stderr := run(t, testService(), "generate-coverage-report", "--root", root, "--watch", "--format", "brief")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "--- Run #1")
	assert.Contains(t, stdout, "--- Run #2")
	assert.Contains(t, stdout, "OK | My WebApp | 50% lines")
	assert.True(t, w.closed)
}

func TestRunWatchUsesConfiguredInput(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".lcovhtml.yaml", "report:\n  input: coverage/**/lcov.info\n")
	writeFile(t, root, "coverage/lcov.info", minimalLCOV)

	w := &fakeWatcher{events: make(chan struct{})}
	close(w.events)
	orig := newWatcher
	t.Cleanup(func() { newWatcher = orig })
	var pattern string
	newWatcher = func(p string, _ func(error)) (watchCloser, error) {
		pattern = p
		return w, nil
	}

	code, stdout, stderr := run(t, testService(), "generate-coverage-report", "--root", root, "--watch")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "coverage/**/lcov.info", pattern)
	assert.Contains(t, stdout, "Watching coverage/**/lcov.info")
}

func TestWatchRerunsOnConfiguredInputChange(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".lcovhtml.yaml", "report:\n  input: coverage/**/lcov.info\n")
	writeFile(t, root, "coverage/lcov.info", minimalLCOV)

	svc := testService()
	opts := application.GenerateOptions{Root: root, ConfigPath: ".lcovhtml.yaml"}
	cfg, err := svc.ResolveConfig(opts)
	require.NoError(t, err)

	w, err := newWatcher(cfg.Input, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	runs := make(chan application.GenerateResult, 4)
	done := make(chan error, 1)
	go func() {
		done <- svc.Watch(ctx, opts, w, func(_ int, result application.GenerateResult, err error) {
			assert.NoError(t, err)
			runs <- result
		})
	}()

	select {
	case first := <-runs:
		assert.Equal(t, []string{"coverage/lcov.info"}, first.Inputs)
	case <-ctx.Done():
		t.Fatal("initial run did not complete")
	}

	writeFile(t, root, "coverage/lcov.info", minimalLCOV+"SF:src/util.js\nDA:1,1\nend_of_record\n")

	select {
	case second := <-runs:
		assert.Equal(t, 2, second.Files)
	case <-ctx.Done():
		t.Fatal("change to the configured input did not trigger a run")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRunWatchFailures(t *testing.T) {
	t.Run("watcher creation", func(t *testing.T) {
		stubWatcher(t, nil, errors.New("too many open files"))
		code, _, stderr := run(t, testService(), "generate-coverage-report", "--root", t.TempDir(), "--watch")
		assert.Equal(t, 3, code)
		assert.Contains(t, stderr, "too many open files")
	})

	t.Run("invalid config", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, ".lcovhtml.yaml", "version: 9\n")
		stubWatcher(t, &fakeWatcher{events: make(chan struct{})}, nil)

		code, _, _ := run(t, testService(), "generate-coverage-report", "--root", root, "--watch")
		assert.Equal(t, 2, code)
	})
}

func TestRunMCP(t *testing.T) {
	orig := serveMCP
	t.Cleanup(func() { serveMCP = orig })

	var got mcp.Config
	serveMCP = func(_ context.Context, _ Service, cfg mcp.Config) error {
		got = cfg
		return errors.New("stdin closed")
	}

	code, _, stderr := run(t, testService(), "mcp", "--root", "/repo")
	assert.Equal(t, 3, code)
	assert.Contains(t, stderr, "stdin closed")
	assert.Equal(t, mcp.Config{ConfigPath: ".lcovhtml.yaml", Root: "/repo"}, got)

	serveMCP = func(context.Context, Service, mcp.Config) error { return nil }
	code, _, _ = run(t, testService(), "mcp")
	assert.Equal(t, 0, code)
}
