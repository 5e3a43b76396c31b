package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/agilira/orpheus/pkg/orpheus"

	"kiln/internal/logging"
)

var version = "dev"

// cli holds the output streams and the status of the last command.
type cli struct {
	stdout io.Writer
	stderr io.Writer
	status int
}

func main() {
	c := &cli{stdout: os.Stdout, stderr: os.Stderr}
	if err := c.app().Run(os.Args[1:]); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		if c.status == 0 {
			c.status = exitFailure
		}
		os.Exit(c.status)
	}
}

func (c *cli) app() *orpheus.App {
	app := orpheus.New("kiln").
		SetDescription("Build orchestrator driven by MCFG build files").
		SetVersion(version)

	buildCmd := orpheus.NewCommand("build", "Build a target (default: the configured default target)").
		SetHandler(c.buildCommand).
		AddFlag("in", "i", "", "Build file (default: build.mcfg)").
		AddFlag("target", "t", "", "Target to build").
		AddIntFlag("verbosity", "V", -1, "Log level 0 (debug) to 4 (error)").
		AddBoolFlag("force", "f", false, "Rebuild up to date outputs").
		AddBoolFlag("keep-going", "k", false, "Keep building after failures").
		AddBoolFlag("dry-run", "n", false, "Print scripts instead of running them").
		AddFlag("shell", "", "", "Interpreter for scripts, e.g. \"/bin/bash -e\"").
		AddFlag("temp-dir", "", "", "Directory for temporary scripts")

	listCmd := orpheus.NewCommand("list", "List the targets of the build file").
		SetHandler(c.listCommand).
		AddFlag("in", "i", "", "Build file (default: build.mcfg)").
		AddFlag("format", "o", "table", "Output format: table, json or yaml")

	validateCmd := orpheus.NewCommand("validate", "Check the build file for errors").
		SetHandler(c.validateCommand).
		AddFlag("in", "i", "", "Build file (default: build.mcfg)")

	dumpCmd := orpheus.NewCommand("dump", "Print the parsed build file").
		SetHandler(c.dumpCommand).
		AddFlag("in", "i", "", "Build file (default: build.mcfg)").
		AddFlag("format", "o", "json", "Output format: json, yaml or toml")

	app.AddCommand(buildCmd)
	app.AddCommand(listCmd)
	app.AddCommand(validateCmd)
	app.AddCommand(dumpCmd)
	return app
}

// options reads the flags shared by every command and applies kiln.yaml.
func (c *cli) options(ctx *orpheus.Context) (Options, error) {
	flags := Options{
		Buildfile: ctx.GetFlagString("in"),
		Verbosity: -1,
	}
	dir := "."
	if flags.Buildfile != "" {
		dir = filepath.Dir(flags.Buildfile)
	}
	s, err := loadSettings(dir)
	if err != nil {
		return Options{}, err
	}
	return resolveOptions(flags, s), nil
}

func (c *cli) fail(command string, status int, err error) error {
	c.status = exitStatus(status, err)
	return commandError(command, err)
}

func (c *cli) buildCommand(ctx *orpheus.Context) error {
	opts, err := c.options(ctx)
	if err != nil {
		return c.fail("build", 0, err)
	}
	opts.Target = ctx.GetFlagString("target")
	if opts.Target == "" && len(ctx.Args) > 0 {
		opts.Target = ctx.Args[0]
	}
	if v := ctx.GetFlagInt("verbosity"); v >= 0 {
		opts.Verbosity = v
	}
	opts.Force = opts.Force || ctx.GetFlagBool("force")
	opts.KeepGoing = opts.KeepGoing || ctx.GetFlagBool("keep-going")
	opts.DryRun = opts.DryRun || ctx.GetFlagBool("dry-run")
	if sh := ctx.GetFlagString("shell"); sh != "" {
		opts.Shell = strings.Fields(sh)
	}
	if dir := ctx.GetFlagString("temp-dir"); dir != "" {
		opts.TempDir = dir
	}

	status, err := runBuild(context.Background(), c.stdout, c.stderr, opts)
	if err != nil || status != 0 {
		return c.fail("build", status, err)
	}
	return nil
}

func (c *cli) listCommand(ctx *orpheus.Context) error {
	opts, err := c.options(ctx)
	if err != nil {
		return c.fail("list", 0, err)
	}
	file, cfg, err := loadBuildfile(c.quietContext(), opts.Buildfile)
	if err != nil {
		return c.fail("list", 0, err)
	}
	if err := listTargets(c.stdout, file, cfg, ctx.GetFlagString("format")); err != nil {
		return c.fail("list", 0, err)
	}
	return nil
}

func (c *cli) validateCommand(ctx *orpheus.Context) error {
	opts, err := c.options(ctx)
	if err != nil {
		return c.fail("validate", 0, err)
	}
	if err := validate(c.quietContext(), c.stdout, opts.Buildfile); err != nil {
		return c.fail("validate", 0, err)
	}
	return nil
}

func (c *cli) dumpCommand(ctx *orpheus.Context) error {
	opts, err := c.options(ctx)
	if err != nil {
		return c.fail("dump", 0, err)
	}
	file, _, err := loadBuildfile(c.quietContext(), opts.Buildfile)
	if err != nil {
		return c.fail("dump", 0, err)
	}
	if err := dumpDocument(c.stdout, file, ctx.GetFlagString("format")); err != nil {
		return c.fail("dump", 0, err)
	}
	return nil
}

// quietContext carries a logger that only reports warnings and errors.
func (c *cli) quietContext() context.Context {
	return logging.WithLogger(context.Background(), logging.New(c.stderr, logging.LevelWarning))
}
