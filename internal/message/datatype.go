package message

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/binary"
)

// Class is the datatype class stored in the low nibble of the first byte.
type Class uint8

const (
	ClassFixedPoint Class = 0
	ClassFloatPoint Class = 1
	ClassTime       Class = 2
	ClassString     Class = 3
	ClassBitfield   Class = 4
	ClassOpaque     Class = 5
	ClassCompound   Class = 6
	ClassReference  Class = 7
	ClassEnum       Class = 8
	ClassVarLen     Class = 9
	ClassArray      Class = 10
)

var classNames = [...]string{
	"integer", "float", "time", "string", "bitfield", "opaque",
	"compound", "reference", "enum", "vlen", "array",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("Class(%d)", uint8(c))
}

// ByteOrder of a numeric type.
type ByteOrder uint8

const (
	OrderLE ByteOrder = 0
	OrderBE ByteOrder = 1
)

// Padding of a string type.
type Padding uint8

const (
	PadNullTerm Padding = 0
	PadNullPad  Padding = 1
	PadSpacePad Padding = 2
)

// Charset of a string type.
type Charset uint8

const (
	CharsetASCII Charset = 0
	CharsetUTF8  Charset = 1
)

func (c Charset) String() string {
	if c == CharsetUTF8 {
		return "UTF-8"
	}
	return "ASCII"
}

// Datatype is a decoded datatype message.
//
// Integer, float, fixed string and variable-length string types are modelled
// field by field. Every other class keeps its original encoding in raw and
// is written back unchanged.
type Datatype struct {
	Class   Class
	Size    uint32
	Order   ByteOrder
	Signed  bool
	Padding Padding
	Charset Charset

	// VarString marks a variable-length string (class VarLen, type 1).
	VarString bool

	raw []byte
}

func (m *Datatype) Type() Type { return TypeDatatype }

// NewInteger returns a fixed-point type of size bytes.
func NewInteger(size uint32, signed bool, order ByteOrder) *Datatype {
	return &Datatype{Class: ClassFixedPoint, Size: size, Signed: signed, Order: order}
}

// NewFloat returns an IEEE floating point type of 2, 4 or 8 bytes.
func NewFloat(size uint32, order ByteOrder) *Datatype {
	return &Datatype{Class: ClassFloatPoint, Size: size, Order: order}
}

// NewFixedString returns a fixed-width string type.
func NewFixedString(size uint32, pad Padding, cs Charset) *Datatype {
	return &Datatype{Class: ClassString, Size: size, Padding: pad, Charset: cs}
}

// NewVarString returns a variable-length string type. Its element size is
// that of a global heap reference for the given offset width.
func NewVarString(cs Charset, offsetSize int) *Datatype {
	return &Datatype{
		Class:     ClassVarLen,
		Size:      uint32(VlenRefSize(offsetSize)),
		Padding:   PadNullTerm,
		Charset:   cs,
		VarString: true,
	}
}

// VlenRefSize is the on-disk size of one variable-length element: a 4-byte
// length, a collection address and a 4-byte object index.
func VlenRefSize(offsetSize int) int { return 4 + offsetSize + 4 }

// IsString reports whether the type holds text, fixed or variable.
func (m *Datatype) IsString() bool {
	return m.Class == ClassString || m.VarString
}

// Modelled reports whether the fields describe the type completely.
func (m *Datatype) Modelled() bool { return m.raw == nil }

// Clone returns a deep copy.
func (m *Datatype) Clone() *Datatype {
	c := *m
	if m.raw != nil {
		c.raw = append([]byte(nil), m.raw...)
	}
	return &c
}

// LayoutEqual reports whether two types have the same element byte layout.
// Charset and padding do not change the layout and are ignored.
func (m *Datatype) LayoutEqual(o *Datatype) bool {
	if m.Class != o.Class || m.Size != o.Size {
		return false
	}
	switch m.Class {
	case ClassFixedPoint:
		return m.Signed == o.Signed && m.Order == o.Order
	case ClassFloatPoint:
		return m.Order == o.Order
	case ClassString:
		return true
	case ClassVarLen:
		return m.VarString == o.VarString
	}
	return string(m.raw) == string(o.raw)
}

func (m *Datatype) String() string {
	switch m.Class {
	case ClassFixedPoint:
		sign := "u"
		if m.Signed {
			sign = ""
		}
		return fmt.Sprintf("%sint%d", sign, m.Size*8)
	case ClassFloatPoint:
		return fmt.Sprintf("float%d", m.Size*8)
	case ClassString:
		return fmt.Sprintf("string[%d] %s", m.Size, m.Charset)
	case ClassVarLen:
		if m.VarString {
			return fmt.Sprintf("string %s", m.Charset)
		}
	}
	return m.Class.String()
}

// ParseDatatype decodes a datatype and reports how many bytes it used.
func ParseDatatype(data []byte) (*Datatype, int, error) {
	if len(data) < 8 {
		return nil, 0, fmt.Errorf("datatype too short: %d bytes", len(data))
	}
	class := Class(data[0] & 0x0F)
	bits := uint32(data[1]) | uint32(data[2])<<8 | uint32(data[3])<<16
	m := &Datatype{Class: class, Size: uint32(binary.DecodeUint(data[4:8], binary.DefaultConfig()))}

	used := 8
	switch class {
	case ClassFixedPoint:
		m.Order = ByteOrder(bits & 0x01)
		m.Signed = bits&0x08 != 0
		used += 4
	case ClassFloatPoint:
		m.Order = ByteOrder(bits & 0x01)
		used += 12
	case ClassString:
		m.Padding = Padding(bits & 0x0F)
		m.Charset = Charset((bits >> 4) & 0x0F)
	case ClassVarLen:
		if bits&0x0F != 1 {
			m.raw = append([]byte(nil), data...)
			return m, len(data), nil
		}
		m.VarString = true
		m.Padding = Padding((bits >> 4) & 0x0F)
		m.Charset = Charset((bits >> 8) & 0x0F)
		_, n, err := ParseDatatype(data[8:])
		if err != nil {
			return nil, 0, fmt.Errorf("vlen base type: %w", err)
		}
		used += n
	default:
		m.raw = append([]byte(nil), data...)
		return m, len(data), nil
	}
	if used > len(data) {
		return nil, 0, fmt.Errorf("%s datatype truncated", class)
	}
	return m, used, nil
}

// Encode writes the datatype. Unmodelled classes return their original bytes.
func (m *Datatype) Encode(cfg binary.Config) []byte {
	if m.raw != nil {
		return m.raw
	}
	e := binary.NewEncoder(binary.DefaultConfig())
	var bits uint32
	switch m.Class {
	case ClassFixedPoint:
		bits = uint32(m.Order)
		if m.Signed {
			bits |= 0x08
		}
	case ClassFloatPoint:
		// Implied leading mantissa bit, sign in the top bit.
		bits = uint32(m.Order) | 2<<4 | (m.Size*8-1)<<8
	case ClassString:
		bits = uint32(m.Padding) | uint32(m.Charset)<<4
	case ClassVarLen:
		bits = 1 | uint32(m.Padding)<<4 | uint32(m.Charset)<<8
	}
	e.U8(uint8(m.Class) | 1<<4)
	e.U8(uint8(bits))
	e.U8(uint8(bits >> 8))
	e.U8(uint8(bits >> 16))
	e.U32(m.Size)

	switch m.Class {
	case ClassFixedPoint:
		e.U16(0)
		e.U16(uint16(m.Size * 8))
	case ClassFloatPoint:
		encodeFloatProps(e, m.Size)
	case ClassVarLen:
		// Base type of a variable string is an unsigned char.
		e.Bytes(NewInteger(1, false, OrderLE).Encode(cfg))
	}
	return e.Data()
}

// encodeFloatProps writes bit offset, precision, exponent location and size,
// mantissa location and size, and exponent bias.
func encodeFloatProps(e *binary.Encoder, size uint32) {
	var expLoc, expSize, mantSize uint8
	var bias uint32
	switch size {
	case 2:
		expLoc, expSize, mantSize, bias = 10, 5, 10, 15
	case 4:
		expLoc, expSize, mantSize, bias = 23, 8, 23, 127
	default:
		expLoc, expSize, mantSize, bias = 52, 11, 52, 1023
	}
	e.U16(0)
	e.U16(uint16(size * 8))
	e.U8(expLoc)
	e.U8(expSize)
	e.U8(0)
	e.U8(mantSize)
	e.U32(bias)
}
