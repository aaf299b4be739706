package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/felixgeelhaar/lcovhtml/internal/application"
	"github.com/felixgeelhaar/lcovhtml/internal/domain"
	"github.com/felixgeelhaar/lcovhtml/internal/infrastructure/config"
	"github.com/felixgeelhaar/lcovhtml/internal/infrastructure/discovery"
	"github.com/felixgeelhaar/lcovhtml/internal/infrastructure/output"
	"github.com/felixgeelhaar/lcovhtml/internal/infrastructure/parsers/lcov"
	"github.com/felixgeelhaar/lcovhtml/internal/infrastructure/report"
	"github.com/felixgeelhaar/lcovhtml/internal/infrastructure/watcher"
	"github.com/felixgeelhaar/lcovhtml/internal/infrastructure/wizard"
	"github.com/felixgeelhaar/lcovhtml/internal/mcp"
)

type Service interface {
	Tasks() *application.TaskRegistry
	ResolveConfig(opts application.GenerateOptions) (domain.ReportConfig, error)
	Generate(ctx context.Context, opts application.GenerateOptions) (application.GenerateResult, error)
	Watch(ctx context.Context, opts application.GenerateOptions, watcher application.FileWatcher, callback application.WatchCallback) error
}

// Exit codes.
const (
	exitOK      = 0
	exitTask    = 1
	exitUsage   = 2
	exitRuntime = 3
	exitWizard  = 5
)

// watchCloser is a FileWatcher that owns OS resources.
type watchCloser interface {
	application.FileWatcher
	Close() error
}

var (
	initWizard = wizard.Run
	stdin      io.Reader = os.Stdin
	newWatcher           = func(pattern string, onError func(error)) (watchCloser, error) {
		return watcher.New(
			watcher.WithDebounce(500*time.Millisecond),
			watcher.WithPattern(pattern),
			watcher.WithErrorHandler(onError),
		)
	}
	serveMCP = func(ctx context.Context, svc Service, cfg mcp.Config) error {
		return mcp.New(svc, cfg, Version).Run(ctx)
	}
)

func Run(args []string, stdout, stderr io.Writer, svc Service) int {
	if len(args) < 2 {
		usage(stderr)
		return exitUsage
	}

	ctx := context.Background()

	switch args[1] {
	case "help", "-h", "--help":
		usage(stdout)
		return exitOK
	case "version", "--version":
		fmt.Fprintf(stdout, "lcovhtml %s (commit %s, built %s)\n", Version, Commit, Date)
		return exitOK
	case "tasks":
		printTasks(stdout, svc.Tasks())
		return exitOK
	case "init":
		return runInit(ctx, args[2:], stdout, stderr, svc)
	case "mcp":
		fs := newFlagSet("mcp", stderr)
		root := fs.String("root", "", "Project root (default: working directory)")
		configPath := fs.String("config", config.DefaultPath, "Config file path, relative to the root")
		if err := fs.Parse(args[2:]); err != nil {
			return exitUsage
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		err := serveMCP(ctx, svc, mcp.Config{ConfigPath: *configPath, Root: *root})
		if err != nil && ctx.Err() != nil {
			return exitOK
		}
		return exitCode(err, exitRuntime, stderr)
	default:
		return runTask(ctx, args[1], args[2:], stdout, stderr, svc)
	}
}

// BuildService wires the production adapters.
func BuildService() *application.Service {
	return &application.Service{
		ConfigLoader: config.Loader{},
		Discoverer:   discovery.Glob{},
		Parser:       lcov.New(),
		Renderer:     report.NewRenderer(),
		Writer:       output.DirWriter{},
	}
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func runTask(ctx context.Context, name string, args []string, stdout, stderr io.Writer, svc Service) int {
	task, err := svc.Tasks().Get(name)
	if err != nil {
		fmt.Fprintln(stderr, err)
		usage(stderr)
		return exitUsage
	}

	fs := newFlagSet(name, stderr)
	root := fs.String("root", "", "Project root (default: working directory)")
	configPath := fs.String("config", config.DefaultPath, "Config file path, relative to the root")
	watch := fs.Bool("watch", false, "Re-run whenever a matching input file changes")
	format := report.FormatText
	fs.Var((*formatValue)(&format), "format", "Summary format: text|json|brief")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "task %s takes no arguments, got %v\n", name, fs.Args())
		return exitUsage
	}

	if *watch {
		opts := application.GenerateOptions{Root: *root, ConfigPath: *configPath}
		return runWatch(ctx, stdout, stderr, svc, opts, format)
	}

	result, err := task.Run(ctx, application.TaskEnv{Root: *root, ConfigPath: *configPath})
	if err != nil {
		return taskExitCode(err, stderr)
	}
	return exitCode(report.Writer{}.Write(stdout, result, format), exitTask, stderr)
}

func runInit(ctx context.Context, args []string, stdout, stderr io.Writer, svc Service) int {
	fs := newFlagSet("init", stderr)
	root := fs.String("root", "", "Project root (default: working directory)")
	configPath := fs.String("config", config.DefaultPath, "Config file path, relative to the root")
	force := fs.Bool("force", false, "Overwrite existing config file")
	noInteractive := fs.Bool("no-interactive", false, "Skip the interactive init wizard")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := svc.ResolveConfig(application.GenerateOptions{Root: *root, ConfigPath: *configPath})
	if err != nil {
		return exitCode(err, exitUsage, stderr)
	}

	if !*noInteractive {
		var confirmed bool
		cfg, confirmed, err = initWizard(cfg, stdout, stdin)
		if err != nil {
			return exitCode(err, exitWizard, stderr)
		}
		if !confirmed {
			fmt.Fprintln(stdout, "Init cancelled; no configuration written.")
			return exitOK
		}
	}

	path := *configPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.Root, path)
	}
	if err := config.WriteFile(path, cfg, *force); err != nil {
		if errors.Is(err, os.ErrExist) {
			err = fmt.Errorf("config %s already exists (use --force to overwrite)", path)
		}
		return exitCode(err, exitUsage, stderr)
	}
	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return exitOK
}

func runWatch(ctx context.Context, stdout, stderr io.Writer, svc Service, opts application.GenerateOptions, format report.Format) int {
	cfg, err := svc.ResolveConfig(opts)
	if err != nil {
		return exitCode(err, exitUsage, stderr)
	}

	w, err := newWatcher(cfg.Input, func(err error) {
		fmt.Fprintf(stderr, "watch warning: %v\n", err)
	})
	if err != nil {
		fmt.Fprintf(stderr, "failed to create watcher: %v\n", err)
		return exitRuntime
	}
	defer w.Close()

	// Handle Ctrl+C gracefully
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(stdout, "Watching %s for changes... (Ctrl+C to stop)\n", cfg.Input)

	callback := func(runNumber int, result application.GenerateResult, runErr error) {
		fmt.Fprintf(stdout, "\n--- Run #%d at %s ---\n", runNumber, time.Now().Format("15:04:05"))
		if runErr != nil {
			fmt.Fprintf(stderr, "Report generation failed: %v\n", runErr)
			return
		}
		if err := (report.Writer{}).Write(stdout, result, format); err != nil {
			fmt.Fprintln(stderr, err)
		}
	}

	if err := svc.Watch(ctx, opts, w, callback); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			fmt.Fprintln(stdout, "\nStopping watch mode...")
			return exitOK
		}
		if errors.Is(err, domain.ErrInvalidConfig) {
			return exitCode(err, exitUsage, stderr)
		}
		fmt.Fprintf(stderr, "watch error: %v\n", err)
		return exitRuntime
	}
	return exitOK
}

// formatValue implements flag.Value for --format.
type formatValue report.Format

func (f *formatValue) String() string { return string(*f) }

func (f *formatValue) Set(value string) error {
	parsed, err := report.ParseFormat(value)
	if err != nil {
		return err
	}
	*f = formatValue(parsed)
	return nil
}

func printTasks(w io.Writer, registry *application.TaskRegistry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range registry.List() {
		fmt.Fprintf(tw, "%s\t%s\n", t.Name, t.Description)
	}
	_ = tw.Flush()
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `lcovhtml <task|command> [flags]

Tasks:
  generate-coverage-report  Render test/**/coverage.info as HTML into .coverage
                            Flags: --root DIR --config FILE --watch --format text|json|brief

Commands:
  tasks    List available tasks
  init     Write .lcovhtml.yaml using the interactive wizard
  mcp      Serve the report task over the Model Context Protocol (stdio)
  version  Print version information`)
}

func exitCode(err error, code int, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(stderr, err)
	return code
}

func taskExitCode(err error, stderr io.Writer) int {
	if errors.Is(err, domain.ErrInvalidConfig) {
		return exitCode(err, exitUsage, stderr)
	}
	return exitCode(err, exitTask, stderr)
}
