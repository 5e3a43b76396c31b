package mcfg

import (
	"math"
	"strconv"
	"strings"
)

// Type is the declared type of a field.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeString
	TypeList
	TypeBool
	TypeI8
	TypeU8
	TypeI16
	TypeU16
	TypeI32
	TypeU32
)

var typeNames = map[Type]string{
	TypeString: "str",
	TypeList:   "list",
	TypeBool:   "bool",
	TypeI8:     "i8",
	TypeU8:     "u8",
	TypeI16:    "i16",
	TypeU16:    "u16",
	TypeI32:    "i32",
	TypeU32:    "u32",
}

// ParseType maps a type keyword such as "u16" to its Type. Unknown keywords
// yield TypeInvalid.
func ParseType(s string) Type {
	for t, name := range typeNames {
		if name == s {
			return t
		}
	}
	return TypeInvalid
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "invalid"
}

// IsInteger reports whether t is one of the sized integer types.
func (t Type) IsInteger() bool {
	return t >= TypeI8 && t <= TypeU32
}

// bounds returns the inclusive range of an integer type.
func (t Type) bounds() (lo, hi int64) {
	switch t {
	case TypeI8:
		return math.MinInt8, math.MaxInt8
	case TypeU8:
		return 0, math.MaxUint8
	case TypeI16:
		return math.MinInt16, math.MaxInt16
	case TypeU16:
		return 0, math.MaxUint16
	case TypeI32:
		return math.MinInt32, math.MaxInt32
	case TypeU32:
		return 0, math.MaxUint32
	}
	return 0, 0
}

// Value is the payload of a field. The concrete types are String, Bool, I8,
// U8, I16, U16, I32, U32 and *List.
type Value interface {
	Type() Type
	String() string
	value()
}

type (
	String string
	Bool   bool
	I8     int8
	U8     uint8
	I16    int16
	U16    uint16
	I32    int32
	U32    uint32
)

func (String) Type() Type { return TypeString }
func (Bool) Type() Type   { return TypeBool }
func (I8) Type() Type     { return TypeI8 }
func (U8) Type() Type     { return TypeU8 }
func (I16) Type() Type    { return TypeI16 }
func (U16) Type() Type    { return TypeU16 }
func (I32) Type() Type    { return TypeI32 }
func (U32) Type() Type    { return TypeU32 }

func (v String) String() string { return string(v) }
func (v Bool) String() string   { return strconv.FormatBool(bool(v)) }
func (v I8) String() string     { return strconv.FormatInt(int64(v), 10) }
func (v U8) String() string     { return strconv.FormatUint(uint64(v), 10) }
func (v I16) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v U16) String() string    { return strconv.FormatUint(uint64(v), 10) }
func (v I32) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v U32) String() string    { return strconv.FormatUint(uint64(v), 10) }

func (String) value() {}
func (Bool) value()   {}
func (I8) value()     {}
func (U8) value()     {}
func (I16) value()    {}
func (U16) value()    {}
func (I32) value()    {}
func (U32) value()    {}

// List is an append-only sequence of values sharing one element type.
type List struct {
	Elem  Type
	Items []Value
}

// NewList returns an empty list of the given element type.
func NewList(elem Type, items ...Value) *List {
	return &List{Elem: elem, Items: items}
}

func (*List) Type() Type { return TypeList }
func (*List) value()     {}

// Len returns the number of elements.
func (l *List) Len() int { return len(l.Items) }

// Append adds v to the end of the list. v must match the element type.
func (l *List) Append(v Value) error {
	if v == nil {
		return newError(ErrCodeNullValue, "cannot append nil to list")
	}
	if v.Type() != l.Elem {
		return newError(ErrCodeInvalidType, "cannot append %s to list of %s", v.Type(), l.Elem)
	}
	l.Items = append(l.Items, v)
	return nil
}

// Strings renders every element with String.
func (l *List) Strings() []string {
	out := make([]string, len(l.Items))
	for i, v := range l.Items {
		out[i] = v.String()
	}
	return out
}

// String joins the elements with ", ".
func (l *List) String() string {
	return strings.Join(l.Strings(), ", ")
}

// Int returns the numeric value of an integer or boolean value.
func Int(v Value) (int64, bool) {
	switch n := v.(type) {
	case Bool:
		if n {
			return 1, true
		}
		return 0, true
	case I8:
		return int64(n), true
	case U8:
		return int64(n), true
	case I16:
		return int64(n), true
	case U16:
		return int64(n), true
	case I32:
		return int64(n), true
	case U32:
		return int64(n), true
	}
	return 0, false
}

// intValue converts n to the sized value of type t. The caller checks bounds.
func intValue(t Type, n int64) Value {
	switch t {
	case TypeI8:
		return I8(n)
	case TypeU8:
		return U8(n)
	case TypeI16:
		return I16(n)
	case TypeU16:
		return U16(n)
	case TypeI32:
		return I32(n)
	case TypeU32:
		return U32(n)
	}
	return nil
}
