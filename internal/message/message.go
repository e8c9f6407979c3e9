package message

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/binary"
)

// Type identifies a header message.
type Type uint16

// Header message types.
const (
	TypeNIL                      Type = 0x0000
	TypeDataspace                Type = 0x0001
	TypeLinkInfo                 Type = 0x0002
	TypeDatatype                 Type = 0x0003
	TypeFillValueOld             Type = 0x0004
	TypeFillValue                Type = 0x0005
	TypeLink                     Type = 0x0006
	TypeExternalDataFiles        Type = 0x0007
	TypeDataLayout               Type = 0x0008
	TypeBogus                    Type = 0x0009
	TypeGroupInfo                Type = 0x000A
	TypeFilterPipeline           Type = 0x000B
	TypeAttribute                Type = 0x000C
	TypeObjectComment            Type = 0x000D
	TypeObjectModTimeOld         Type = 0x000E
	TypeSharedMessageTable       Type = 0x000F
	TypeObjectHeaderContinuation Type = 0x0010
	TypeSymbolTable              Type = 0x0011
	TypeObjectModTime            Type = 0x0012
	TypeBTreeKValues             Type = 0x0013
	TypeDriverInfo               Type = 0x0014
	TypeAttributeInfo            Type = 0x0015
	TypeObjectRefCount           Type = 0x0016
)

var typeNames = map[Type]string{
	TypeNIL:                      "NIL",
	TypeDataspace:                "Dataspace",
	TypeLinkInfo:                 "LinkInfo",
	TypeDatatype:                 "Datatype",
	TypeFillValueOld:             "FillValueOld",
	TypeFillValue:                "FillValue",
	TypeLink:                     "Link",
	TypeExternalDataFiles:        "ExternalDataFiles",
	TypeDataLayout:               "DataLayout",
	TypeBogus:                    "Bogus",
	TypeGroupInfo:                "GroupInfo",
	TypeFilterPipeline:           "FilterPipeline",
	TypeAttribute:                "Attribute",
	TypeObjectComment:            "ObjectComment",
	TypeObjectModTimeOld:         "ObjectModTimeOld",
	TypeSharedMessageTable:       "SharedMessageTable",
	TypeObjectHeaderContinuation: "Continuation",
	TypeSymbolTable:              "SymbolTable",
	TypeObjectModTime:            "ObjectModTime",
	TypeBTreeKValues:             "BTreeKValues",
	TypeDriverInfo:               "DriverInfo",
	TypeAttributeInfo:            "AttributeInfo",
	TypeObjectRefCount:           "ObjectRefCount",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%#04x)", uint16(t))
}

// Message flag bits.
const (
	FlagConstant uint8 = 0x01
	FlagShared   uint8 = 0x02
)

// ErrShared is returned for messages stored in the shared message heap.
var ErrShared = errors.New("shared header messages are not supported")

// Message is a decoded header message.
type Message interface {
	Type() Type
}

// Encoder is implemented by messages that can be written.
type Encoder interface {
	Message
	Encode(cfg binary.Config) []byte
}

// Encode returns the encoded body of m.
func Encode(m Encoder, cfg binary.Config) []byte {
	return m.Encode(cfg)
}

// Parse decodes one message body.
func Parse(typ Type, flags uint8, data []byte, cfg binary.Config) (Message, error) {
	if flags&FlagShared != 0 {
		switch typ {
		case TypeDatatype, TypeDataspace, TypeFillValue, TypeFilterPipeline, TypeAttribute:
			return nil, fmt.Errorf("%s: %w", typ, ErrShared)
		}
	}

	var (
		m   Message
		err error
	)
	switch typ {
	case TypeDataspace:
		m, err = ParseDataspace(data, cfg)
	case TypeLinkInfo:
		m, err = parseLinkInfo(data, cfg)
	case TypeDatatype:
		m, _, err = ParseDatatype(data)
	case TypeLink:
		m, err = parseLink(data, cfg)
	case TypeDataLayout:
		m, err = parseLayout(data, cfg)
	case TypeGroupInfo:
		m, err = parseGroupInfo(data)
	case TypeFilterPipeline:
		m, err = parseFilterPipeline(data)
	case TypeAttribute:
		m, err = parseAttribute(data, cfg)
	case TypeObjectHeaderContinuation:
		m, err = parseContinuation(data, cfg)
	case TypeSymbolTable:
		m, err = parseSymbolTable(data, cfg)
	default:
		return &Raw{MsgType: typ, Data: data}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s message: %w", typ, err)
	}
	return m, nil
}

// Raw is an uninterpreted message. It encodes back to its original bytes.
type Raw struct {
	MsgType Type
	Data    []byte
}

func (m *Raw) Type() Type { return m.MsgType }

func (m *Raw) Encode(binary.Config) []byte { return m.Data }

// Continuation points at the next chunk of an object header.
type Continuation struct {
	Offset uint64
	Length uint64
}

func (m *Continuation) Type() Type { return TypeObjectHeaderContinuation }

func parseContinuation(data []byte, cfg binary.Config) (*Continuation, error) {
	d := binary.NewDecoder(data, cfg)
	m := &Continuation{Offset: d.Offset(), Length: d.Length()}
	return m, d.Err()
}

func (m *Continuation) Encode(cfg binary.Config) []byte {
	e := binary.NewEncoder(cfg)
	e.Offset(m.Offset)
	e.Length(m.Length)
	return e.Data()
}

// SymbolTable points at the v1 B-tree and local heap of an old-style group.
type SymbolTable struct {
	BTreeAddress     uint64
	LocalHeapAddress uint64
}

func (m *SymbolTable) Type() Type { return TypeSymbolTable }

func parseSymbolTable(data []byte, cfg binary.Config) (*SymbolTable, error) {
	d := binary.NewDecoder(data, cfg)
	m := &SymbolTable{BTreeAddress: d.Offset(), LocalHeapAddress: d.Offset()}
	return m, d.Err()
}

func (m *SymbolTable) Encode(cfg binary.Config) []byte {
	e := binary.NewEncoder(cfg)
	e.Offset(m.BTreeAddress)
	e.Offset(m.LocalHeapAddress)
	return e.Data()
}
