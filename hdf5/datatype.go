package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/h5i"
	"github.com/robert-malhotra/h5bind/internal/h5lib"
	"github.com/robert-malhotra/h5bind/internal/message"
)

// TypeClass is the element class of a Datatype.
type TypeClass int

const (
	ClassUnsupported TypeClass = iota
	ClassInteger
	ClassFloat
	ClassString
)

func (c TypeClass) String() string {
	switch c {
	case ClassInteger:
		return "Integer"
	case ClassFloat:
		return "Float"
	case ClassString:
		return "String"
	}
	return "Unsupported"
}

// Encoding is the character set of a string type.
type Encoding int

const (
	EncodingASCII Encoding = iota
	EncodingUTF8
)

func (e Encoding) String() string {
	if e == EncodingUTF8 {
		return "UTF-8"
	}
	return "ASCII"
}

// VariableLength is the StringTraits length of a variable-length string.
const VariableLength = -1

// StringTraits describe a string type.
type StringTraits struct {
	Encoding Encoding
	// Length is the fixed width in bytes, or VariableLength.
	Length int
}

// Datatype is a handle to an element type.
type Datatype struct {
	ID
}

func newDatatype(id h5i.ID) *Datatype {
	t := &Datatype{}
	t.acquire(id, false)
	return t
}

func predefined(p h5lib.Predefined) (*Datatype, error) {
	id, err := h5lib.PredefinedType(p)
	if err != nil {
		return nil, native("copy type", "", err)
	}
	return newDatatype(id), nil
}

// FixedString returns a UTF-8 string type n bytes wide.
func FixedString(n int) (*Datatype, error) {
	t, err := predefined(h5lib.CString)
	if err != nil {
		return nil, err
	}
	if err := t.SetStringTraits(EncodingUTF8, n); err != nil {
		t.Close()
		return nil, err
	}
	return t, nil
}

// VarString returns a variable-length string type, the default for text.
func VarString(enc Encoding) (*Datatype, error) {
	t, err := predefined(h5lib.CString)
	if err != nil {
		return nil, err
	}
	if err := t.SetStringTraits(enc, VariableLength); err != nil {
		t.Close()
		return nil, err
	}
	return t, nil
}

// Class maps the library's type class onto the classes this package binds.
func (t *Datatype) Class() TypeClass {
	c, err := h5lib.TypeClass(t.id)
	if err != nil {
		return ClassUnsupported
	}
	switch c {
	case message.ClassFixedPoint:
		return ClassInteger
	case message.ClassFloatPoint:
		return ClassFloat
	case message.ClassString:
		return ClassString
	}
	return ClassUnsupported
}

// Size returns the element width in bytes.
func (t *Datatype) Size() (int, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	n, err := h5lib.TypeSize(t.id)
	return n, native("type size", "", err)
}

// StringTraits returns the encoding and width of a string type.
func (t *Datatype) StringTraits() (StringTraits, error) {
	if err := t.check(); err != nil {
		return StringTraits{}, err
	}
	if t.Class() != ClassString {
		return StringTraits{}, fmt.Errorf("%w: not a string type", ErrTypeMismatch)
	}
	cs, err := h5lib.TypeGetCset(t.id)
	if err != nil {
		return StringTraits{}, native("type charset", "", err)
	}
	tr := StringTraits{Encoding: EncodingASCII, Length: VariableLength}
	if cs == message.CharsetUTF8 {
		tr.Encoding = EncodingUTF8
	}
	vlen, err := h5lib.TypeIsVariableString(t.id)
	if err != nil {
		return StringTraits{}, native("type is variable", "", err)
	}
	if !vlen {
		if tr.Length, err = h5lib.TypeSize(t.id); err != nil {
			return StringTraits{}, native("type size", "", err)
		}
	}
	return tr, nil
}

// SetStringTraits sets the encoding and width of a string type. length is
// a byte width or VariableLength.
func (t *Datatype) SetStringTraits(enc Encoding, length int) error {
	if err := t.check(); err != nil {
		return err
	}
	if t.Class() != ClassString {
		return fmt.Errorf("%w: not a string type", ErrTypeMismatch)
	}
	if length == 0 {
		return ErrZeroLength
	}
	if length < 0 && length != VariableLength {
		return fmt.Errorf("%w: string length %d", ErrTypeMismatch, length)
	}
	cs := message.CharsetASCII
	if enc == EncodingUTF8 {
		cs = message.CharsetUTF8
	}
	size := length
	if length == VariableLength {
		size = h5lib.Variable
	}
	if err := h5lib.TypeSetSize(t.id, size); err != nil {
		return native("set type size", "", err)
	}
	return native("set type charset", "", h5lib.TypeSetCset(t.id, cs))
}

// Equal reports whether both types have the same element byte layout.
func (t *Datatype) Equal(o *Datatype) bool {
	if !t.IsValid() || !o.IsValid() {
		return false
	}
	eq, err := h5lib.TypeEqual(t.id, o.id)
	return err == nil && eq
}

// Clone returns a second handle sharing the same type.
func (t *Datatype) Clone() *Datatype {
	return &Datatype{ID: t.ID.clone()}
}

// Assign releases t and makes it share src.
func (t *Datatype) Assign(src *Datatype) error {
	return t.assign(&src.ID)
}

func (t *Datatype) String() string {
	switch c := t.Class(); c {
	case ClassString:
		tr, err := t.StringTraits()
		if err != nil {
			return c.String()
		}
		if tr.Length == VariableLength {
			return fmt.Sprintf("String(%s, variable)", tr.Encoding)
		}
		return fmt.Sprintf("String(%s, %d)", tr.Encoding, tr.Length)
	case ClassInteger, ClassFloat:
		n, err := t.Size()
		if err != nil {
			return c.String()
		}
		return fmt.Sprintf("%s(%d)", c, n*8)
	default:
		return c.String()
	}
}
