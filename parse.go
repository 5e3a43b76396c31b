package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"

	"github.com/agilira/go-errors"
	"gopkg.in/yaml.v3"

	"kiln/internal/build"
	"kiln/internal/mcfg"
)

const (
	defaultBuildfile = "build.mcfg"
	settingsFile     = "kiln.yaml"
)

const ErrCodeSettings errors.ErrorCode = "KILN_SETTINGS_ERROR"

// loadSettings reads kiln.yaml from dir. A missing file yields zero settings.
func loadSettings(dir string) (Settings, error) {
	var s Settings
	path := filepath.Join(dir, settingsFile)
	data, err := os.ReadFile(path) // #nosec G304 - reading the project settings is intended
	if stderrors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, errors.Wrap(err, ErrCodeSettings, "cannot read "+path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !stderrors.Is(err, io.EOF) {
		return s, errors.Wrap(err, ErrCodeSettings, "invalid "+path)
	}
	return s, nil
}

// resolveOptions fills what the flags left unset from the settings.
func resolveOptions(flags Options, s Settings) Options {
	opts := flags
	if opts.Buildfile == "" {
		opts.Buildfile = s.Buildfile
	}
	if opts.Buildfile == "" {
		opts.Buildfile = defaultBuildfile
	}
	if opts.Verbosity < 0 && s.Verbosity != nil {
		opts.Verbosity = *s.Verbosity
	}
	opts.KeepGoing = opts.KeepGoing || s.KeepGoing
	opts.Force = opts.Force || s.Force
	opts.DryRun = opts.DryRun || s.DryRun
	if len(opts.Shell) == 0 {
		opts.Shell = s.Shell
	}
	if opts.TempDir == "" {
		opts.TempDir = s.TempDir
	}
	return opts
}

// loadBuildfile parses the build file and its config/kiln section.
func loadBuildfile(ctx context.Context, path string) (*mcfg.File, build.Config, error) {
	file, err := mcfg.ParseFile(path)
	if err != nil {
		return nil, build.Config{}, err
	}
	cfg, err := build.LoadConfig(ctx, file)
	if err != nil {
		return nil, build.Config{}, err
	}
	return file, cfg, nil
}
