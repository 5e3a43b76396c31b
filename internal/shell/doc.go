// Package shell runs build scripts and answers file freshness questions.
//
// Scripts are written to a temporary file which is registered with a
// Registry while it exists, so a signal handler can remove it when the run is
// interrupted. A script starting with "#!" is executed directly, anything
// else is handed to the system shell.
package shell
