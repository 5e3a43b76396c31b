package build

import (
	"context"
	"log/slog"
	"slices"

	"kiln/internal/logging"
	"kiln/internal/mcfg"
)

// Reserved sectors and the section holding tool settings.
const (
	ConfigSector  = "config"
	ConfigSection = "kiln"
	TargetsSector = "targets"
	RulesSector   = "c_rules"
)

// BuildType decides whether up to date outputs are rebuilt.
type BuildType int

const (
	BuildIncremental BuildType = iota
	BuildFull
)

// ParseBuildType accepts "incremental" and "full".
func ParseBuildType(s string) (BuildType, bool) {
	switch s {
	case "incremental":
		return BuildIncremental, true
	case "full":
		return BuildFull, true
	}
	return BuildIncremental, false
}

func (t BuildType) String() string {
	if t == BuildFull {
		return "full"
	}
	return "incremental"
}

// ExecMode decides how a rule maps its inputs onto scripts.
type ExecMode int

const (
	ExecSingular ExecMode = iota
	ExecUnify
)

// ParseExecMode accepts "singular" and "unify".
func ParseExecMode(s string) (ExecMode, bool) {
	switch s {
	case "singular":
		return ExecSingular, true
	case "unify":
		return ExecUnify, true
	}
	return ExecSingular, false
}

func (m ExecMode) String() string {
	if m == ExecUnify {
		return "unify"
	}
	return "singular"
}

// Config controls a build run.
type Config struct {
	// Target is the requested target. Empty selects DefaultTarget.
	Target        string
	DefaultTarget string
	// PublicTargets may be requested through Run.
	PublicTargets []string
	BuildType     BuildType
	// Force rebuilds outputs that are up to date.
	Force bool
	// IgnoreFailures keeps building siblings after a failure.
	IgnoreFailures bool

	// LogLevel is only meaningful when HasLogLevel is set.
	LogLevel    slog.Level
	HasLogLevel bool
}

// DefaultConfig returns the settings used when the build file has no
// config/kiln section.
func DefaultConfig() Config {
	return Config{
		DefaultTarget: "debug",
		PublicTargets: []string{"debug"},
		BuildType:     BuildIncremental,
	}
}

// IsPublic reports whether name may be requested directly. The default
// target always may.
func (c Config) IsPublic(name string) bool {
	return name == c.DefaultTarget || slices.Contains(c.PublicTargets, name)
}

// LoadConfig reads the config/kiln section of f on top of DefaultConfig.
// Fields of the wrong type are errors; unknown build types and log levels
// are logged and ignored.
func LoadConfig(ctx context.Context, f *mcfg.File) (Config, error) {
	log := logging.FromContext(ctx)
	cfg := DefaultConfig()

	sec := f.Sector(ConfigSector).Section(ConfigSection)
	if sec == nil {
		log.Debug("no config section, using defaults", "section", ConfigSector+"/"+ConfigSection)
		return cfg, nil
	}

	if fld := sec.Field("default"); fld != nil {
		s, ok := fld.Value.(mcfg.String)
		if !ok {
			return cfg, wrongType("section", ConfigSection, "default", "str")
		}
		cfg.DefaultTarget = string(s)
	}

	if fld := sec.Field("targets"); fld != nil {
		l := fld.List()
		if l == nil || l.Elem != mcfg.TypeString {
			return cfg, wrongType("section", ConfigSection, "targets", "list str")
		}
		cfg.PublicTargets = l.Strings()
	}

	if fld := sec.Field("build_type"); fld != nil {
		s, ok := fld.Value.(mcfg.String)
		if !ok {
			return cfg, wrongType("section", ConfigSection, "build_type", "str")
		}
		bt, ok := ParseBuildType(string(s))
		if ok {
			cfg.BuildType = bt
		} else {
			log.Warn("invalid build_type, falling back", "value", string(s), "build_type", cfg.BuildType.String())
		}
	}

	if fld := sec.Field("default_log_level"); fld != nil {
		n, ok := mcfg.Int(fld.Value)
		if !ok {
			return cfg, wrongType("section", ConfigSection, "default_log_level", "integer")
		}
		lvl, err := logging.FromVerbosity(int(n))
		if err != nil {
			log.Warn("invalid default_log_level, ignoring", "value", n)
		} else {
			cfg.LogLevel = lvl
			cfg.HasLogLevel = true
		}
	}

	return cfg, nil
}
