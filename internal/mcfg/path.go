package mcfg

import "strings"

// Path addresses a field. Absolute paths name sector, section and field;
// relative paths name only the trailing elements and borrow the rest from a
// relativity path through Complete. Dynamic paths (%name%) address the
// dynamic fields of a File.
type Path struct {
	Absolute bool
	Dynamic  bool

	Sector  string
	Section string
	Field   string
}

// ParsePath splits text on '/'. Empty elements are skipped, so "a//b" equals
// "a/b".
func ParsePath(text string) Path {
	var p Path

	elems := make([]string, 0, 3)
	for _, e := range strings.Split(text, "/") {
		if e != "" {
			elems = append(elems, e)
		}
	}
	if len(elems) == 0 {
		return p
	}

	if strings.HasPrefix(text, "/") {
		p.Absolute = true
		p.Sector = elems[0]
		if len(elems) > 1 {
			p.Section = elems[1]
		}
		if len(elems) > 2 {
			p.Field = elems[2]
		}
		return p
	}

	n := len(elems)
	if n == 1 {
		e := elems[0]
		if len(e) >= 2 && e[0] == '%' && e[len(e)-1] == '%' {
			p.Dynamic = true
			p.Field = e[1 : len(e)-1]
			return p
		}
	}

	p.Field = elems[n-1]
	if n > 1 {
		p.Section = elems[n-2]
	}
	if n > 2 {
		p.Sector = elems[n-3]
	}
	return p
}

// String renders the path in its textual form.
func (p Path) String() string {
	if p.Dynamic {
		return "%" + p.Field + "%"
	}

	var b strings.Builder
	if p.Absolute {
		b.WriteByte('/')
	}
	if p.Sector != "" {
		b.WriteString(p.Sector)
		if p.Section != "" {
			b.WriteByte('/')
		}
	}
	if p.Section != "" {
		b.WriteString(p.Section)
		if p.Field != "" {
			b.WriteByte('/')
		}
	}
	b.WriteString(p.Field)
	return b.String()
}

// Complete fills every unset element of p from rel. A path that receives its
// sector this way becomes absolute. Dynamic paths are returned unchanged.
func (p Path) Complete(rel Path) Path {
	if p.Dynamic {
		return p
	}
	if p.Sector == "" {
		p.Sector = rel.Sector
		p.Absolute = true
	}
	if p.Section == "" {
		p.Section = rel.Section
	}
	if p.Field == "" {
		p.Field = rel.Field
	}
	return p
}

// Resolve looks up the field addressed by p. Relative paths must be
// completed first; they never resolve on their own.
func (f *File) Resolve(p Path) *Field {
	if p.Dynamic {
		return f.Dynfield(p.Field)
	}
	if !p.Absolute || p.Sector == "" || p.Section == "" || p.Field == "" {
		return nil
	}
	return f.Sector(p.Sector).Section(p.Section).Field(p.Field)
}

// Lookup parses text, completes it against rel and resolves it.
func (f *File) Lookup(text string, rel Path) *Field {
	return f.Resolve(ParsePath(text).Complete(rel))
}
