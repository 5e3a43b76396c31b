package build

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/agilira/go-errors"

	"kiln/internal/logging"
	"kiln/internal/mcfg"
	"kiln/internal/shell"
)

// Executor runs a script to completion and returns its exit status.
type Executor interface {
	Execute(ctx context.Context, script, label string) (int, error)
}

// Freshness compares file modification times.
type Freshness interface {
	// IsNewer reports whether a was modified after b. It must be false
	// when either file is missing.
	IsNewer(a, b string) bool
}

// Builder runs targets and rules of one build file.
type Builder struct {
	file  *mcfg.File
	cfg   Config
	exec  Executor
	fresh Freshness
	log   *slog.Logger

	targets []string
	rules   []string
}

// Option configures a Builder.
type Option func(*Builder)

// WithExecutor replaces the shell executor.
func WithExecutor(e Executor) Option {
	return func(b *Builder) { b.exec = e }
}

// WithFreshness replaces the modification time comparison.
func WithFreshness(f Freshness) Option {
	return func(b *Builder) { b.fresh = f }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// New returns a Builder for file.
func New(file *mcfg.File, cfg Config, opts ...Option) *Builder {
	b := &Builder{
		file:  file,
		cfg:   cfg,
		exec:  shell.New(),
		fresh: shell.ModTime{},
		log:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run builds the configured target, or the default target if none was
// requested. Only public targets may be built this way. The returned status
// is the worst exit status of any step; err describes the failure that
// caused it.
func (b *Builder) Run(ctx context.Context) (int, error) {
	name := b.cfg.Target
	if name == "" {
		name = b.cfg.DefaultTarget
	}
	if !b.cfg.IsPublic(name) {
		return 1, newError(ErrCodePrivateTarget, "target %q is not public", name).
			WithContext("target", name)
	}

	b.log.Info("building", "target", name, "build_type", b.cfg.BuildType.String())
	status, err := b.RunTarget(ctx, name)
	if status != 0 {
		b.log.Error("build failed", "target", name, "status", status)
	} else {
		b.log.Info("build finished", "target", name)
	}
	return status, err
}

// execute runs script and turns a nonzero status into an error.
func (b *Builder) execute(ctx context.Context, script, label string) (int, error) {
	status, err := b.exec.Execute(ctx, script, label)
	if err != nil {
		return status, errors.Wrap(err, ErrCodeSystem, "cannot execute "+label)
	}
	if status != 0 {
		b.log.Error("script failed", "label", label, "status", status)
		return status, processExit(label, status)
	}
	return 0, nil
}

// expandWith expands tmpl with name bound to v.
func (b *Builder) expandWith(tmpl string, rel mcfg.Path, name string, v mcfg.Value) (string, error) {
	release := b.file.Bind(name, v)
	defer release()
	return b.expand(tmpl, rel)
}

func (b *Builder) expand(tmpl string, rel mcfg.Path) (string, error) {
	s, err := mcfg.Expand(tmpl, b.file, rel)
	if err != nil {
		return "", errors.Wrap(err, ErrCodeInterpolation, "cannot expand "+rel.String())
	}
	return s, nil
}

// enter pushes name onto stack unless it is already there.
func enter(stack *[]string, kind, name string) (leave func(), err error) {
	if slices.Contains(*stack, name) {
		chain := append(slices.Clone(*stack), name)
		return nil, newError(ErrCodeCircular, "circular dependency between %ss: %s", kind, strings.Join(chain, " -> ")).
			WithContext("history", chain)
	}
	*stack = append(*stack, name)
	return func() { *stack = (*stack)[:len(*stack)-1] }, nil
}

// stringField returns the string value of an optional field. ok is false
// when the field does not exist.
func stringField(sec *mcfg.Section, kind, name string) (s string, ok bool, err error) {
	fld := sec.Field(name)
	if fld == nil {
		return "", false, nil
	}
	v, isString := fld.Value.(mcfg.String)
	if !isString {
		return "", false, wrongType(kind, sec.Name, name, "str")
	}
	return string(v), true, nil
}

func requireString(sec *mcfg.Section, kind, name string) (string, error) {
	s, ok, err := stringField(sec, kind, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", missingField(kind, sec.Name, name)
	}
	return s, nil
}

// nameList returns the optional list of names stored in field name.
func nameList(sec *mcfg.Section, kind, name string) ([]string, error) {
	fld := sec.Field(name)
	if fld == nil {
		return nil, nil
	}
	l := fld.List()
	if l == nil || l.Elem != mcfg.TypeString {
		return nil, wrongType(kind, sec.Name, name, "list str")
	}
	return l.Strings(), nil
}
