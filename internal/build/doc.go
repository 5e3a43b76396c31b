// Package build runs the targets and rules declared in an MCFG build file.
//
// Targets live in the "targets" sector and rules in the "c_rules" sector. A
// target first builds its required_targets and c_rules in declaration order,
// then runs its own exec script. A rule maps an input list onto an output
// list, either one script per element pair (singular mode) or one script for
// every stale input at once (unify mode).
//
// While a target runs, each of its target_<name> fields is visible to
// embeds as the dynamic field %name%. While a rule runs, %element%, %input%
// and %output% are bound to the values of the current step.
//
// The Builder is not safe for concurrent use: bindings mutate the File.
package build
