package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/agilira/go-errors"
	"gopkg.in/yaml.v3"

	"kiln/internal/build"
	"kiln/internal/logging"
	"kiln/internal/mcfg"
	"kiln/internal/shell"
)

// newLogger returns a logger writing to w. Its level follows opts and may be
// lowered later by the build file.
func newLogger(w io.Writer, opts Options) (*slog.Logger, *slog.LevelVar, error) {
	level := new(slog.LevelVar)
	level.Set(logging.LevelSteps)
	if opts.Verbosity >= 0 {
		l, err := logging.FromVerbosity(opts.Verbosity)
		if err != nil {
			return nil, nil, errors.Wrap(err, ErrCodeUsage, "invalid --verbosity")
		}
		level.Set(l)
	}
	return logging.New(w, level), level, nil
}

// runBuild builds the requested target and returns the worst exit status.
func runBuild(ctx context.Context, stdout, stderr io.Writer, opts Options) (int, error) {
	log, level, err := newLogger(stderr, opts)
	if err != nil {
		return 0, err
	}
	ctx = logging.WithLogger(ctx, log)

	file, cfg, err := loadBuildfile(ctx, opts.Buildfile)
	if err != nil {
		return 0, err
	}
	if opts.Verbosity < 0 && cfg.HasLogLevel {
		level.Set(cfg.LogLevel)
	}

	cfg.Target = opts.Target
	cfg.Force = opts.Force
	cfg.IgnoreFailures = opts.KeepGoing

	reg := shell.NewRegistry()
	stop := shell.HandleSignals(ctx, reg, log)
	defer stop()

	execOpts := []shell.Option{
		shell.WithOutput(stdout, stderr),
		shell.WithDryRun(opts.DryRun),
		shell.WithRegistry(reg),
		shell.WithLogger(log),
	}
	if len(opts.Shell) > 0 {
		execOpts = append(execOpts, shell.WithShell(opts.Shell...))
	}
	if opts.TempDir != "" {
		execOpts = append(execOpts, shell.WithTempDir(opts.TempDir))
	}

	b := build.New(file, cfg,
		build.WithExecutor(shell.New(execOpts...)),
		build.WithLogger(log),
	)
	return b.Run(ctx)
}

func listTargets(w io.Writer, file *mcfg.File, cfg build.Config, format string) error {
	infos := targetInfos(file, cfg)
	switch format {
	case "json":
		return listTargetsJSON(w, infos)
	case "yaml":
		return listTargetsYAML(w, infos)
	case "", "table":
		return listTargetsTable(w, infos)
	}
	return errors.New(ErrCodeUsage, fmt.Sprintf("unknown format %q, expected table, json or yaml", format))
}

func listTargetsTable(w io.Writer, infos []TargetInfo) error {
	_, _ = fmt.Fprintln(w, "Available targets:")
	_, _ = fmt.Fprintln(w, "------------------")

	if len(infos) == 0 {
		_, _ = fmt.Fprintln(w, "No targets found")
		return nil
	}

	maxNameLen := 0
	for _, t := range infos {
		maxNameLen = max(maxNameLen, len(t.Name))
	}

	for _, t := range infos {
		mark := " "
		switch {
		case t.Default:
			mark = "*"
		case t.Public:
			mark = "+"
		}
		padding := strings.Repeat(" ", maxNameLen-len(t.Name)+2)
		var extra []string
		if len(t.Requires) > 0 {
			extra = append(extra, "requires: "+strings.Join(t.Requires, ", "))
		}
		if len(t.Rules) > 0 {
			extra = append(extra, "c_rules: "+strings.Join(t.Rules, ", "))
		}
		details := ""
		if len(extra) > 0 {
			details = " (" + strings.Join(extra, "; ") + ")"
		}
		_, _ = fmt.Fprintf(w, "%s %s%s%s\n", mark, t.Name, padding, details)
	}

	_, _ = fmt.Fprintf(w, "\nTotal: %d targets (* default, + public)\n", len(infos))
	return nil
}

func listTargetsJSON(w io.Writer, infos []TargetInfo) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]any{
		"targets": infos,
		"total":   len(infos),
	})
}

func listTargetsYAML(w io.Writer, infos []TargetInfo) error {
	encoder := yaml.NewEncoder(w)
	defer func() { _ = encoder.Close() }()
	return encoder.Encode(map[string]any{
		"targets": infos,
		"total":   len(infos),
	})
}

// dumpDocument writes the parsed document in the given format.
func dumpDocument(w io.Writer, file *mcfg.File, format string) error {
	doc := document(file)
	switch format {
	case "", "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(doc)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()
		return encoder.Encode(doc)
	case "toml":
		return toml.NewEncoder(w).Encode(doc)
	}
	return errors.New(ErrCodeUsage, fmt.Sprintf("unknown format %q, expected json, yaml or toml", format))
}
