package h5lib

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/dtype"
	"github.com/robert-malhotra/h5bind/internal/h5i"
	"github.com/robert-malhotra/h5bind/internal/message"
)

// Predefined names a native memory type.
type Predefined int

const (
	NativeInt8 Predefined = iota
	NativeUint8
	NativeInt16
	NativeUint16
	NativeInt32
	NativeUint32
	NativeInt64
	NativeUint64
	NativeFloat
	NativeDouble
	// CString is a one-byte null-terminated ASCII string.
	CString
)

// Variable passed to TypeSetSize makes a string type variable-length.
const Variable = -1

// vlenOffsetSize is the reference width of memory-side variable strings.
// Files with narrower offsets get their own width on create.
const vlenOffsetSize = 8

func (p Predefined) datatype() (*message.Datatype, error) {
	order := dtype.NativeOrder
	switch p {
	case NativeInt8, NativeUint8, NativeInt16, NativeUint16,
		NativeInt32, NativeUint32, NativeInt64, NativeUint64:
		size := uint32(1) << (int(p-NativeInt8) / 2)
		return message.NewInteger(size, (p-NativeInt8)%2 == 0, order), nil
	case NativeFloat:
		return message.NewFloat(4, order), nil
	case NativeDouble:
		return message.NewFloat(8, order), nil
	case CString:
		return message.NewFixedString(1, message.PadNullTerm, message.CharsetASCII), nil
	}
	return nil, fmt.Errorf("unknown predefined type %d", p)
}

// PredefinedType returns a new ID holding a copy of a native type.
func PredefinedType(p Predefined) (h5i.ID, error) {
	t, err := p.datatype()
	if err != nil {
		return h5i.Invalid, err
	}
	return registerType(t), nil
}

func registerType(t *message.Datatype) h5i.ID {
	return reg.Register(h5i.Datatype, t, nil)
}

func typeObject(id h5i.ID) (*message.Datatype, error) {
	obj, err := reg.Object(id, h5i.Datatype)
	if err != nil {
		return nil, err
	}
	return obj.(*message.Datatype), nil
}

// TypeCopy returns a new ID holding a copy of id's type.
func TypeCopy(id h5i.ID) (h5i.ID, error) {
	t, err := typeObject(id)
	if err != nil {
		return h5i.Invalid, err
	}
	return registerType(t.Clone()), nil
}

// TypeClass returns the class of a type. Variable-length strings report
// ClassString.
func TypeClass(id h5i.ID) (message.Class, error) {
	t, err := typeObject(id)
	if err != nil {
		return 0, err
	}
	if t.VarString {
		return message.ClassString, nil
	}
	return t.Class, nil
}

// TypeSize returns the element size in bytes.
func TypeSize(id h5i.ID) (int, error) {
	t, err := typeObject(id)
	if err != nil {
		return 0, err
	}
	return int(t.Size), nil
}

// TypeSetSize changes the width of a string type. Variable turns it into a
// variable-length string with the same charset.
func TypeSetSize(id h5i.ID, size int) error {
	t, err := typeObject(id)
	if err != nil {
		return err
	}
	if !t.IsString() {
		return fmt.Errorf("%w: size of a %s type is fixed", ErrMismatch, t.Class)
	}
	switch {
	case size == Variable:
		*t = *message.NewVarString(t.Charset, vlenOffsetSize)
	case size <= 0:
		return fmt.Errorf("invalid string size %d", size)
	default:
		pad := t.Padding
		if t.VarString {
			pad = message.PadNullTerm
		}
		*t = *message.NewFixedString(uint32(size), pad, t.Charset)
	}
	return nil
}

// TypeSetCset sets the charset of a string type.
func TypeSetCset(id h5i.ID, cs message.Charset) error {
	t, err := typeObject(id)
	if err != nil {
		return err
	}
	if !t.IsString() {
		return fmt.Errorf("%w: %s type has no charset", ErrMismatch, t.Class)
	}
	if cs != message.CharsetASCII && cs != message.CharsetUTF8 {
		return fmt.Errorf("unknown charset %d", cs)
	}
	t.Charset = cs
	return nil
}

// TypeGetCset returns the charset of a string type.
func TypeGetCset(id h5i.ID) (message.Charset, error) {
	t, err := typeObject(id)
	if err != nil {
		return 0, err
	}
	if !t.IsString() {
		return 0, fmt.Errorf("%w: %s type has no charset", ErrMismatch, t.Class)
	}
	return t.Charset, nil
}

// TypeIsVariableString reports whether id is a variable-length string type.
func TypeIsVariableString(id h5i.ID) (bool, error) {
	t, err := typeObject(id)
	if err != nil {
		return false, err
	}
	return t.VarString, nil
}

// TypeEqual reports whether two types have the same element layout.
func TypeEqual(a, b h5i.ID) (bool, error) {
	ta, err := typeObject(a)
	if err != nil {
		return false, err
	}
	tb, err := typeObject(b)
	if err != nil {
		return false, err
	}
	return sameLayout(ta, tb), nil
}

func sameLayout(a, b *message.Datatype) bool {
	if a.VarString || b.VarString {
		return a.VarString && b.VarString
	}
	return a.LayoutEqual(b)
}

// TypeClose releases a datatype ID.
func TypeClose(id h5i.ID) error {
	if reg.TypeOf(id) != h5i.Datatype {
		return fmt.Errorf("%w: %d is not a datatype", ErrInvalidID, id)
	}
	_, err := reg.DecRef(id)
	return err
}

// fileType adapts a memory type for storage in a file with offset width
// offsetSize.
func fileType(t *message.Datatype, offsetSize int) *message.Datatype {
	if t.VarString {
		return message.NewVarString(t.Charset, offsetSize)
	}
	return t.Clone()
}

// TypeIsSigned reports whether an integer type is signed.
func TypeIsSigned(id h5i.ID) (bool, error) {
	t, err := typeObject(id)
	if err != nil {
		return false, err
	}
	if t.Class != message.ClassFixedPoint {
		return false, fmt.Errorf("%w: %s type has no sign", ErrMismatch, t.Class)
	}
	return t.Signed, nil
}
