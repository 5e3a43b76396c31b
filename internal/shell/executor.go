package shell

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/agilira/go-errors"
	"github.com/google/uuid"

	"kiln/internal/logging"
)

const (
	ErrCodeScriptWrite errors.ErrorCode = "SHELL_SCRIPT_WRITE"
	ErrCodeSpawn       errors.ErrorCode = "SHELL_SPAWN"
)

// Executor writes scripts to temporary files and runs them to completion.
type Executor struct {
	shell    []string
	tempDir  string
	dir      string
	stdout   io.Writer
	stderr   io.Writer
	dryRun   bool
	registry *Registry
	log      *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithShell sets the interpreter for scripts without a shebang line. The
// script path is appended to argv.
func WithShell(argv ...string) Option {
	return func(e *Executor) {
		if len(argv) > 0 {
			e.shell = argv
		}
	}
}

// WithTempDir sets where scripts are written.
func WithTempDir(dir string) Option {
	return func(e *Executor) { e.tempDir = dir }
}

// WithDir sets the working directory of the scripts.
func WithDir(dir string) Option {
	return func(e *Executor) { e.dir = dir }
}

// WithOutput redirects the scripts' standard output and error.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(e *Executor) {
		e.stdout = stdout
		e.stderr = stderr
	}
}

// WithDryRun makes Execute log scripts instead of running them.
func WithDryRun(dryRun bool) Option {
	return func(e *Executor) { e.dryRun = dryRun }
}

// WithRegistry registers every temporary script with reg while it exists.
func WithRegistry(reg *Registry) Option {
	return func(e *Executor) { e.registry = reg }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.log = l }
}

// New returns an Executor using the platform shell.
func New(opts ...Option) *Executor {
	e := &Executor{
		shell:    defaultShell(),
		tempDir:  os.TempDir(),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		registry: NewRegistry(),
		log:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func defaultShell() []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C"}
	}
	return []string{"/bin/sh"}
}

// Execute runs script and waits for it. The returned status is the exit code
// of the script; err is only set when the script could not be run at all.
func (e *Executor) Execute(ctx context.Context, script, label string) (int, error) {
	if e.dryRun {
		e.log.Info("dry run, not executing", "label", label)
		_, _ = fmt.Fprintf(e.stdout, "[DRY RUN] %s:\n%s\n", label, script)
		return 0, nil
	}

	name := filepath.Join(e.tempDir, fmt.Sprintf("kiln_%d_%s.%s", os.Getpid(), uuid.NewString(), sanitize(label)))
	if runtime.GOOS == "windows" {
		name += ".bat"
	}

	e.log.Debug("writing script", "path", name)
	// #nosec G306 - the script has to be executable
	if err := os.WriteFile(name, []byte(script), 0o700); err != nil {
		return 1, errors.Wrap(err, ErrCodeScriptWrite, "cannot save script for "+label)
	}
	e.registry.Register(name)
	defer func() {
		_ = os.Remove(name)
		e.registry.Unregister(name)
	}()

	var cmd *exec.Cmd
	if hasShebang(script) {
		// #nosec G204 - running user supplied build scripts is the purpose of this tool
		cmd = exec.CommandContext(ctx, name)
	} else {
		args := append(append([]string{}, e.shell[1:]...), name)
		// #nosec G204 - running user supplied build scripts is the purpose of this tool
		cmd = exec.CommandContext(ctx, e.shell[0], args...)
	}
	cmd.Dir = e.dir
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		status := exitErr.ExitCode()
		if status < 0 {
			status = 1
		}
		e.log.Debug("script failed", "label", label, "status", status)
		return status, nil
	}
	return 1, errors.Wrap(err, ErrCodeSpawn, "cannot run script for "+label)
}

func hasShebang(script string) bool {
	return strings.HasPrefix(script, "#!")
}

func sanitize(label string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', ':', '\t', '\n':
			return '_'
		}
		return r
	}, label)
}
