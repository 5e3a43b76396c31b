package mcfg

import (
	"strings"
	"unicode/utf8"
)

// Token classifies the first word of a line.
type Token int

const (
	TokenInvalid Token = iota
	TokenEmpty
	TokenComment
	TokenSector
	TokenSection
	TokenEnd
	// Every token from TokenStr on introduces a field declaration.
	TokenStr
	TokenList
	TokenBool
	TokenI8
	TokenU8
	TokenI16
	TokenU16
	TokenI32
	TokenU32
)

var keywords = map[string]Token{
	"sector":  TokenSector,
	"section": TokenSection,
	"end":     TokenEnd,
	";":       TokenComment,
	"comment": TokenComment,
	"str":     TokenStr,
	"list":    TokenList,
	"bool":    TokenBool,
	"i8":      TokenI8,
	"u8":      TokenU8,
	"i16":     TokenI16,
	"u16":     TokenU16,
	"i32":     TokenI32,
	"u32":     TokenU32,
}

// Tokenize splits a line into whitespace delimited tokens.
func Tokenize(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r < utf8.RuneSelf && isSpace(byte(r))
	})
}

// ClassifyToken maps a single token to its keyword. Tokens starting with a
// semicolon are comments.
func ClassifyToken(tok string) Token {
	if tok == "" {
		return TokenEmpty
	}
	if t, ok := keywords[tok]; ok {
		return t
	}
	if strings.HasPrefix(tok, ";") {
		return TokenComment
	}
	return TokenInvalid
}

// IsFieldDecl reports whether the token starts a typed field declaration.
func (t Token) IsFieldDecl() bool {
	return t >= TokenStr
}

// FieldType returns the declared type of a field declaration token.
func (t Token) FieldType() Type {
	switch t {
	case TokenStr:
		return TypeString
	case TokenList:
		return TypeList
	case TokenBool:
		return TypeBool
	case TokenI8:
		return TypeI8
	case TokenU8:
		return TypeU8
	case TokenI16:
		return TypeI16
	case TokenU16:
		return TypeU16
	case TokenI32:
		return TypeI32
	case TokenU32:
		return TypeU32
	}
	return TypeInvalid
}

// firstToken returns the first token of line and its class.
func firstToken(line string) (string, Token) {
	toks := Tokenize(line)
	if len(toks) == 0 {
		return "", TokenEmpty
	}
	return toks[0], ClassifyToken(toks[0])
}

// tokenOffset returns the byte offset of the n-th token (zero based) in
// line, or -1 when there are fewer tokens.
func tokenOffset(line string, n int) int {
	idx := 0
	i := 0
	for i < len(line) {
		for i < len(line) && isSpace(line[i]) {
			i++
		}
		if i >= len(line) {
			break
		}
		if idx == n {
			return i
		}
		for i < len(line) && !isSpace(line[i]) {
			i++
		}
		idx++
	}
	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}
