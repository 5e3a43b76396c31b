package main

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/agilira/go-errors"
	"github.com/agilira/orpheus/pkg/orpheus"

	"kiln/internal/build"
	"kiln/internal/mcfg"
	"kiln/internal/shell"
)

// Exit statuses for failures that have no process status of their own.
const (
	exitFailure = 1
	exitUsage   = 2
)

// errorKinds names every error code for display, in lookup order.
var errorKinds = []struct {
	code errors.ErrorCode
	kind string
}{
	{mcfg.ErrCodeSyntax, "syntax error"},
	{mcfg.ErrCodeInvalidKeyword, "invalid keyword"},
	{mcfg.ErrCodeEndInNowhere, "end in nowhere"},
	{mcfg.ErrCodeStructure, "structure error"},
	{mcfg.ErrCodeDuplicateSector, "duplicate sector"},
	{mcfg.ErrCodeDuplicateSection, "duplicate section"},
	{mcfg.ErrCodeDuplicateField, "duplicate field"},
	{mcfg.ErrCodeDuplicateDynfield, "duplicate dynamic field"},
	{mcfg.ErrCodeInvalidIdentifier, "invalid identifier"},
	{mcfg.ErrCodeInvalidType, "invalid type"},
	{mcfg.ErrCodeOutOfBounds, "integer out of bounds"},
	{mcfg.ErrCodeNullValue, "null value"},
	{mcfg.ErrCodeRecursion, "recursion limit"},
	{mcfg.ErrCodeOS, "system error"},
	{build.ErrCodeMissingField, "missing field"},
	{build.ErrCodeWrongType, "wrong field type"},
	{build.ErrCodeNotFound, "not found"},
	{build.ErrCodeCircular, "circular dependency"},
	{build.ErrCodeInterpolation, "interpolation failed"},
	{build.ErrCodeProcessExit, "process failed"},
	{build.ErrCodeLengthMismatch, "length mismatch"},
	{build.ErrCodePrivateTarget, "private target"},
	{build.ErrCodeInvalidValue, "invalid value"},
	{build.ErrCodeSystem, "system error"},
	{shell.ErrCodeScriptWrite, "system error"},
	{shell.ErrCodeSpawn, "system error"},
	{ErrCodeSettings, "settings error"},
	{ErrCodeUsage, "usage error"},
}

const ErrCodeUsage errors.ErrorCode = "KILN_USAGE_ERROR"

// errorKind returns the display name of the first known code carried by err.
func errorKind(err error) string {
	for _, k := range errorKinds {
		if errors.HasCode(err, k.code) {
			return k.kind
		}
	}
	return "error"
}

// describe renders err for the terminal. Parse errors are followed by the
// offending line of the input.
func describe(err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", errorKind(err), err)

	var perr *mcfg.ParseError
	if stderrors.As(err, &perr) && perr.Line > 0 {
		if line, ok := sourceLine(perr.Path, perr.Line); ok {
			fmt.Fprintf(&b, "\n  %d | %s", perr.Line, line)
		}
	}
	return b.String()
}

// sourceLine returns line n (1-based) of the file at path.
func sourceLine(path string, n int) (string, bool) {
	f, err := os.Open(path) // #nosec G304 - the build file named by the user
	if err != nil {
		return "", false
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for i := 1; sc.Scan(); i++ {
		if i == n {
			return strings.TrimRight(sc.Text(), "\r"), true
		}
	}
	return "", false
}

// commandError converts a failure of command into the orpheus error
// reported to the user.
func commandError(command string, err error) error {
	msg := describe(err)
	switch {
	case errors.HasCode(err, build.ErrCodeNotFound), errors.HasCode(err, mcfg.ErrCodeOS) && stderrors.Is(err, os.ErrNotExist):
		return orpheus.NotFoundError(command, msg)
	default:
		return orpheus.ExecutionError(command, msg)
	}
}

// exitStatus picks the process status for a failed command. Build failures
// carry the worst script status.
func exitStatus(status int, err error) int {
	switch {
	case status > 0:
		return status
	case errors.HasCode(err, ErrCodeUsage):
		return exitUsage
	default:
		return exitFailure
	}
}
