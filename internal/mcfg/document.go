package mcfg

import "strings"

// File is the root of a parsed document.
type File struct {
	Path      string
	Sectors   []*Sector
	dynfields []*Field
}

// Sector is a named group of sections.
type Sector struct {
	Name     string
	Sections []*Section
}

// Section is a named group of fields.
type Section struct {
	Name   string
	Fields []*Field
}

// Field is a named, typed value.
type Field struct {
	Name  string
	Value Value
}

// Type returns the declared type of the field.
func (f *Field) Type() Type {
	if f == nil || f.Value == nil {
		return TypeInvalid
	}
	return f.Value.Type()
}

// List returns the field's list payload, or nil if the field is no list.
func (f *Field) List() *List {
	if f == nil {
		return nil
	}
	l, _ := f.Value.(*List)
	return l
}

// NewFile returns an empty document.
func NewFile(path string) *File {
	return &File{Path: path}
}

func validateName(kind, name string) error {
	if name == "" {
		return newError(ErrCodeInvalidIdentifier, "empty %s name", kind)
	}
	if strings.ContainsAny(name, "/ \t\r\n") {
		return newError(ErrCodeInvalidIdentifier, "invalid %s name %q", kind, name)
	}
	return nil
}

// AddSector registers a new sector. Names are unique within a file.
func (f *File) AddSector(name string) (*Sector, error) {
	if err := validateName("sector", name); err != nil {
		return nil, err
	}
	if f.Sector(name) != nil {
		return nil, newError(ErrCodeDuplicateSector, "duplicate sector %q", name)
	}
	s := &Sector{Name: name}
	f.Sectors = append(f.Sectors, s)
	return s, nil
}

// Sector returns the sector with the given name or nil.
func (f *File) Sector(name string) *Sector {
	for _, s := range f.Sectors {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// AddSection registers a new section. Names are unique within a sector.
func (s *Sector) AddSection(name string) (*Section, error) {
	if err := validateName("section", name); err != nil {
		return nil, err
	}
	if s.Section(name) != nil {
		return nil, newError(ErrCodeDuplicateSection, "duplicate section %q in sector %q", name, s.Name)
	}
	sec := &Section{Name: name}
	s.Sections = append(s.Sections, sec)
	return sec, nil
}

// Section returns the section with the given name or nil.
func (s *Sector) Section(name string) *Section {
	if s == nil {
		return nil
	}
	for _, sec := range s.Sections {
		if sec.Name == name {
			return sec
		}
	}
	return nil
}

// AddField registers a new field. Names are unique within a section and the
// value must not be nil.
func (s *Section) AddField(name string, v Value) (*Field, error) {
	if err := validateName("field", name); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, newError(ErrCodeNullValue, "field %q has no value", name)
	}
	if s.Field(name) != nil {
		return nil, newError(ErrCodeDuplicateField, "duplicate field %q in section %q", name, s.Name)
	}
	fld := &Field{Name: name, Value: v}
	s.Fields = append(s.Fields, fld)
	return fld, nil
}

// Field returns the field with the given name or nil.
func (s *Section) Field(name string) *Field {
	if s == nil {
		return nil
	}
	for _, fld := range s.Fields {
		if fld.Name == name {
			return fld
		}
	}
	return nil
}

// AddDynfield registers a dynamic field. Names are unique among the
// dynamic fields of a file.
func (f *File) AddDynfield(name string, v Value) (*Field, error) {
	if err := validateName("dynfield", name); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, newError(ErrCodeNullValue, "dynfield %q has no value", name)
	}
	if f.Dynfield(name) != nil {
		return nil, newError(ErrCodeDuplicateDynfield, "duplicate dynfield %q", name)
	}
	fld := &Field{Name: name, Value: v}
	f.dynfields = append(f.dynfields, fld)
	return fld, nil
}

// Dynfield returns the dynamic field with the given name or nil.
func (f *File) Dynfield(name string) *Field {
	for _, fld := range f.dynfields {
		if fld.Name == name {
			return fld
		}
	}
	return nil
}

// Dynfields returns the currently bound dynamic fields in insertion order.
func (f *File) Dynfields() []*Field {
	out := make([]*Field, len(f.dynfields))
	copy(out, f.dynfields)
	return out
}

// RemoveDynfield unbinds a dynamic field. It reports whether the field
// existed.
func (f *File) RemoveDynfield(name string) bool {
	for i, fld := range f.dynfields {
		if fld.Name == name {
			f.dynfields = append(f.dynfields[:i], f.dynfields[i+1:]...)
			return true
		}
	}
	return false
}

// Bind exposes v as the dynamic field name until the returned release
// function is called. The value is shared, not copied. A binding of the same
// name that already exists is shadowed and restored on release, so bindings
// must be released in reverse order.
func (f *File) Bind(name string, v Value) (release func()) {
	if prev := f.Dynfield(name); prev != nil {
		old := prev.Value
		prev.Value = v
		return once(func() { prev.Value = old })
	}
	f.dynfields = append(f.dynfields, &Field{Name: name, Value: v})
	return once(func() { f.RemoveDynfield(name) })
}

func once(fn func()) func() {
	done := false
	return func() {
		if done {
			return
		}
		done = true
		fn()
	}
}
