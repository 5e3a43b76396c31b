package mcfg

import (
	stderrors "errors"
	"strconv"
	"strings"
)

// scanQuoted reads a string literal body up to the closing quote. A doubled
// quote stands for one literal quote. When the input ends before a closing
// quote, closed is false and the literal continues on the next line.
func scanQuoted(s string) (text, rest string, closed bool) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\'' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			b.WriteByte('\'')
			i++
			continue
		}
		return b.String(), s[i+1:], true
	}
	return b.String(), "", false
}

// parseScalar converts a single token into a bool or integer value of type t.
func parseScalar(t Type, tok string) (Value, error) {
	if t == TypeBool {
		switch tok {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
		return nil, syntaxError(tok, "invalid boolean literal")
	}

	if !t.IsInteger() {
		return nil, &tokenError{token: tok, err: newError(ErrCodeInvalidType, "type %s has no scalar literal", t)}
	}

	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		if stderrors.Is(err, strconv.ErrRange) {
			return nil, &tokenError{token: tok, err: newError(ErrCodeOutOfBounds, "%s is out of bounds for %s", tok, t)}
		}
		return nil, syntaxError(tok, "invalid integer literal")
	}

	lo, hi := t.bounds()
	if n < lo || n > hi {
		return nil, &tokenError{token: tok, err: newError(ErrCodeOutOfBounds, "%d is out of bounds for %s [%d, %d]", n, t, lo, hi)}
	}
	return intValue(t, n), nil
}

// listState carries a list literal across lines.
type listState struct {
	list *List

	// string lists only
	expectElem bool
	inQuote    bool
	partial    strings.Builder
}

func newListState(l *List) *listState {
	return &listState{list: l, expectElem: true}
}

// feed parses the next chunk of list values. more reports whether the
// literal continues on the following line.
func (st *listState) feed(text string) (more bool, err error) {
	if st.list.Elem == TypeString {
		return st.feedStrings(text)
	}
	return st.feedScalars(text)
}

func (st *listState) feedScalars(text string) (bool, error) {
	if strings.TrimSpace(text) == "" {
		return true, nil
	}

	pieces := strings.Split(text, ",")
	for i, p := range pieces {
		p = strings.TrimSpace(p)
		if p == "" {
			if i > 0 && i == len(pieces)-1 {
				return true, nil
			}
			return false, syntaxError(",", "empty list element")
		}

		toks := Tokenize(p)
		if len(toks) > 1 {
			return false, syntaxError(toks[1], "expected ',' between list elements")
		}

		v, err := parseScalar(st.list.Elem, p)
		if err != nil {
			return false, err
		}
		if err := st.list.Append(v); err != nil {
			return false, &tokenError{token: p, err: err}
		}
	}
	return false, nil
}

func (st *listState) feedStrings(text string) (bool, error) {
	for {
		if st.inQuote {
			s, rest, closed := scanQuoted(text)
			st.partial.WriteString(s)
			if !closed {
				st.partial.WriteByte('\n')
				return true, nil
			}
			if err := st.list.Append(String(st.partial.String())); err != nil {
				return false, err
			}
			st.partial.Reset()
			st.inQuote = false
			st.expectElem = false
			text = rest
			continue
		}

		text = strings.TrimLeft(text, " \t\r\n")
		if text == "" {
			return st.expectElem, nil
		}

		switch text[0] {
		case '\'':
			if !st.expectElem {
				return false, syntaxError(firstWord(text), "expected ',' between list elements")
			}
			st.inQuote = true
			text = text[1:]
		case ',':
			if st.expectElem {
				return false, syntaxError(",", "empty list element")
			}
			st.expectElem = true
			text = text[1:]
		default:
			return false, syntaxError(firstWord(text), "string list elements must be quoted")
		}
	}
}

func firstWord(s string) string {
	if toks := Tokenize(s); len(toks) > 0 {
		return toks[0]
	}
	return s
}
