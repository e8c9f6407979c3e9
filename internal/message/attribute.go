package message

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/binary"
)

// Attribute is a small named value stored in an object header.
type Attribute struct {
	Name      string
	Charset   Charset
	Datatype  *Datatype
	Dataspace *Dataspace

	// Data is the raw element data; variable-length elements are global
	// heap references.
	Data []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

func parseAttribute(data []byte, cfg binary.Config) (*Attribute, error) {
	d := binary.NewDecoder(data, cfg)
	version := d.U8()
	var flags uint8
	switch version {
	case 1:
		d.Skip(1)
	case 2, 3:
		flags = d.U8()
	default:
		return nil, fmt.Errorf("unsupported attribute version %d", version)
	}
	if flags&0x03 != 0 {
		return nil, fmt.Errorf("attribute: %w", ErrShared)
	}
	nameSize := int(d.U16())
	typeSize := int(d.U16())
	spaceSize := int(d.U16())

	m := &Attribute{}
	if version == 3 {
		m.Charset = Charset(d.U8())
	}
	pad := func(n int) int {
		if version == 1 {
			return (n + 7) &^ 7
		}
		return n
	}

	m.Name = trimNUL(d.Bytes(nameSize))
	d.Skip(pad(nameSize) - nameSize)
	typeBytes := d.Bytes(typeSize)
	d.Skip(pad(typeSize) - typeSize)
	spaceBytes := d.Bytes(spaceSize)
	d.Skip(pad(spaceSize) - spaceSize)
	if err := d.Err(); err != nil {
		return nil, err
	}

	dt, _, err := ParseDatatype(typeBytes)
	if err != nil {
		return nil, fmt.Errorf("attribute %q datatype: %w", m.Name, err)
	}
	ds, err := ParseDataspace(spaceBytes, cfg)
	if err != nil {
		return nil, fmt.Errorf("attribute %q dataspace: %w", m.Name, err)
	}
	m.Datatype, m.Dataspace = dt, ds

	n := d.Remaining()
	if dt.Modelled() {
		want := int(ds.NumElements()) * int(dt.Size)
		if want > n {
			return nil, fmt.Errorf("attribute %q: data truncated (%d of %d bytes)", m.Name, n, want)
		}
		n = want
	}
	m.Data = d.Bytes(n)
	return m, d.Err()
}

// Encode writes a version 3 attribute message.
func (m *Attribute) Encode(cfg binary.Config) []byte {
	typeBytes := m.Datatype.Encode(cfg)
	spaceBytes := m.Dataspace.Encode(cfg)

	e := binary.NewEncoder(cfg)
	e.U8(3)
	e.U8(0)
	e.U16(uint16(len(m.Name) + 1))
	e.U16(uint16(len(typeBytes)))
	e.U16(uint16(len(spaceBytes)))
	e.U8(uint8(m.Charset))
	e.Bytes([]byte(m.Name))
	e.U8(0)
	e.Bytes(typeBytes)
	e.Bytes(spaceBytes)
	e.Bytes(m.Data)
	return e.Data()
}
