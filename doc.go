/*
Package main implements kiln, a build orchestrator driven by MCFG build files.

kiln reads a block structured configuration file, resolves the requested
target and runs the shell scripts of the target, of the targets it requires
and of the rules it uses. Rules can skip outputs that are newer than their
inputs, so repeated builds only redo what changed.

# Build Files

A build file is made of sectors holding sections holding typed fields:

	sector config
	  section kiln
	    str default 'debug'
	    list str targets 'debug', 'release'
	  end
	end

	sector targets
	  section debug
	    str target_cflags '-g'
	    list str c_rules 'objects'
	    str exec 'cc -o app obj/$(/c_rules/objects/output).o'
	  end
	end

	sector c_rules
	  section objects
	    list str input 'main', 'util'
	    list str output 'main', 'util'
	    str input_format 'src/$(%element%).c'
	    str output_format 'obj/$(%element%).o'
	    str exec 'cc $(%cflags%) -c $(%input%) -o $(%output%)'
	  end
	end

String fields may embed other fields with $(path). While a target runs,
its target_<name> fields are available as %name%. While a rule runs,
%element%, %input% and %output% hold the values of the current step.

# CLI Commands

  - build: build a target, with --force, --keep-going, --dry-run and --verbosity
  - list: show the targets in table, JSON or YAML format
  - validate: parse the build file and check target and rule references
  - dump: print the parsed build file as JSON, YAML or TOML

# Settings

An optional kiln.yaml next to the build file supplies defaults for the
command line:

	buildfile: build.mcfg
	verbosity: 2
	keep_going: true
	shell: ["/bin/bash", "-e"]

# Usage Examples

	kiln build
	kiln build -t release --force
	kiln list --format json
	kiln dump -i project.mcfg --format toml

# Exit Status

kiln exits with 0 on success. When scripts fail it exits with the highest
status any script returned, and with 1 for other failures.
*/
package main
