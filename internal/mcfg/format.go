package mcfg

import "strings"

const (
	// Unresolved replaces embeds whose path does not resolve.
	Unresolved = "(nullptr)"

	maxExpandDepth = 64
)

// Expand replaces every $(path) embed in input with the value of the field
// it addresses. Relative paths are completed against rel. Substituted text is
// expanded again, so field values may embed further fields.
//
// A backslash escapes a following '$' or '\'; any other backslash is kept.
// An embed addressing a list consumes the whitespace delimited text directly
// before and after it and repeats it around every element, see FormatList.
func Expand(input string, file *File, rel Path) (string, error) {
	e := expander{file: file, rel: rel}
	return e.expand(input, 0)
}

// ExpandField expands the textual value of a field.
func ExpandField(field *Field, file *File, rel Path) (string, error) {
	if field == nil || field.Value == nil {
		return "", newError(ErrCodeNullValue, "cannot expand a field without value")
	}
	return Expand(field.Value.String(), file, rel)
}

// FormatList renders prefix+element+postfix for every element, separated by
// single spaces. An empty list renders as the empty string.
func FormatList(l *List, prefix, postfix string) string {
	if l == nil || l.Len() == 0 {
		return ""
	}
	parts := make([]string, l.Len())
	for i, v := range l.Items {
		parts[i] = prefix + v.String() + postfix
	}
	return strings.Join(parts, " ")
}

type expander struct {
	file *File
	rel  Path
}

func (e *expander) expand(in string, depth int) (string, error) {
	if depth > maxExpandDepth {
		return "", newError(ErrCodeRecursion, "embeds nested deeper than %d levels", maxExpandDepth)
	}

	out := make([]byte, 0, len(in))
	escaping := false

	for i := 0; i < len(in); i++ {
		c := in[i]

		if escaping {
			escaping = false
			if c != '\\' && c != '$' {
				out = append(out, '\\')
			}
			out = append(out, c)
			continue
		}

		if c == '\\' {
			escaping = true
			continue
		}

		if c != '$' || i+1 >= len(in) || in[i+1] != '(' {
			out = append(out, c)
			continue
		}

		end := strings.IndexByte(in[i+2:], ')')
		if end < 0 {
			// unterminated embed, keep the rest verbatim
			out = append(out, in[i:]...)
			break
		}
		closing := i + 2 + end
		embed := in[i+2 : closing]
		i = closing

		field := e.file.Lookup(embed, e.rel)
		if field == nil || field.Value == nil {
			out = append(out, Unresolved...)
			continue
		}

		var sub string
		if list, ok := field.Value.(*List); ok {
			// out is already expanded, so the prefix is escaped to come
			// out of the expansion below unchanged
			cut := lastSpace(out) + 1
			prefix := escapeLiteral(string(out[cut:]))
			out = out[:cut]

			rest := in[closing+1:]
			n := indexSpace(rest)
			if n < 0 {
				n = len(rest)
			}
			postfix := rest[:n]
			i = closing + n

			sub = FormatList(list, prefix, postfix)
		} else {
			sub = field.Value.String()
		}

		expanded, err := e.expand(sub, depth+1)
		if err != nil {
			return "", err
		}
		out = append(out, expanded...)
	}

	if escaping {
		out = append(out, '\\')
	}
	return string(out), nil
}

// escapeLiteral escapes s so that expanding it yields s again.
func escapeLiteral(s string) string {
	if !strings.ContainsAny(s, `\$`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' || s[i] == '$' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func lastSpace(b []byte) int {
	for i := len(b) - 1; i >= 0; i-- {
		if isSpace(b[i]) {
			return i
		}
	}
	return -1
}

func indexSpace(s string) int {
	for i := 0; i < len(s); i++ {
		if isSpace(s[i]) {
			return i
		}
	}
	return -1
}
