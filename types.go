package main

// Settings are project defaults read from kiln.yaml. Flags given on the
// command line take precedence.
type Settings struct {
	Buildfile string   `yaml:"buildfile"`
	Verbosity *int     `yaml:"verbosity"`
	KeepGoing bool     `yaml:"keep_going"`
	Force     bool     `yaml:"force"`
	DryRun    bool     `yaml:"dry_run"`
	Shell     []string `yaml:"shell"`
	TempDir   string   `yaml:"temp_dir"`
}

// Options are the resolved options of one invocation.
type Options struct {
	Buildfile string
	Target    string
	// Verbosity is negative when the level comes from the build file.
	Verbosity int
	KeepGoing bool
	Force     bool
	DryRun    bool
	Shell     []string
	TempDir   string
}

// TargetInfo describes a target for the list command.
type TargetInfo struct {
	Name     string   `json:"name" yaml:"name"`
	Public   bool     `json:"public" yaml:"public"`
	Default  bool     `json:"default,omitempty" yaml:"default,omitempty"`
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"`
	Rules    []string `json:"c_rules,omitempty" yaml:"c_rules,omitempty"`
	Exec     bool     `json:"exec" yaml:"exec"`
}

// DocSector, DocSection and DocField mirror the parsed document for the
// dump command.
type DocSector struct {
	Name     string       `json:"name" yaml:"name" toml:"name"`
	Sections []DocSection `json:"sections" yaml:"sections" toml:"sections"`
}

type DocSection struct {
	Name   string     `json:"name" yaml:"name" toml:"name"`
	Fields []DocField `json:"fields" yaml:"fields" toml:"fields"`
}

type DocField struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	Type  string `json:"type" yaml:"type" toml:"type"`
	Value any    `json:"value" yaml:"value" toml:"value"`
}

// Document is the root of a dump.
type Document struct {
	Path    string      `json:"path" yaml:"path" toml:"path"`
	Sectors []DocSector `json:"sectors" yaml:"sectors" toml:"sectors"`
}
