package mcfg

import (
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes reported by the parser, the document model and the
// interpolation engine.
const (
	ErrCodeSyntax            errors.ErrorCode = "MCFG_SYNTAX_ERROR"
	ErrCodeInvalidKeyword    errors.ErrorCode = "MCFG_INVALID_KEYWORD"
	ErrCodeEndInNowhere      errors.ErrorCode = "MCFG_END_IN_NOWHERE"
	ErrCodeStructure         errors.ErrorCode = "MCFG_STRUCTURE_ERROR"
	ErrCodeDuplicateSector   errors.ErrorCode = "MCFG_DUPLICATE_SECTOR"
	ErrCodeDuplicateSection  errors.ErrorCode = "MCFG_DUPLICATE_SECTION"
	ErrCodeDuplicateField    errors.ErrorCode = "MCFG_DUPLICATE_FIELD"
	ErrCodeDuplicateDynfield errors.ErrorCode = "MCFG_DUPLICATE_DYNFIELD"
	ErrCodeInvalidIdentifier errors.ErrorCode = "MCFG_INVALID_IDENTIFIER"
	ErrCodeInvalidType       errors.ErrorCode = "MCFG_INVALID_TYPE"
	ErrCodeOutOfBounds       errors.ErrorCode = "MCFG_INTEGER_OUT_OF_BOUNDS"
	ErrCodeNullValue         errors.ErrorCode = "MCFG_NULL_VALUE"
	ErrCodeRecursion         errors.ErrorCode = "MCFG_RECURSION_LIMIT"
	ErrCodeOS                errors.ErrorCode = "MCFG_OS_ERROR"
)

// ParseError locates a failure inside the parsed input.
type ParseError struct {
	Path  string
	Line  int
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	loc := fmt.Sprintf("line %d", e.Line)
	if e.Path != "" {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	if e.Token != "" {
		return fmt.Sprintf("%s: %v (near %q)", loc, e.Err, e.Token)
	}
	return fmt.Sprintf("%s: %v", loc, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// tokenError is returned by the line-level helpers; the parser turns it into
// a ParseError carrying the line number.
type tokenError struct {
	token string
	err   error
}

func (e *tokenError) Error() string { return e.err.Error() }

func (e *tokenError) Unwrap() error { return e.err }

func syntaxError(token, format string, args ...any) error {
	return &tokenError{token: token, err: errors.New(ErrCodeSyntax, fmt.Sprintf(format, args...))}
}

func newError(code errors.ErrorCode, format string, args ...any) error {
	return errors.New(code, fmt.Sprintf(format, args...))
}
