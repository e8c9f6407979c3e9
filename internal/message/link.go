package message

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/binary"
)

// LinkKind is the link type field.
type LinkKind uint8

const (
	LinkHard     LinkKind = 0
	LinkSoft     LinkKind = 1
	LinkExternal LinkKind = 64
)

// Link flag bits.
const (
	linkNameSizeMask = 0x03
	linkHasOrder     = 0x04
	linkHasType      = 0x08
	linkHasCharset   = 0x10
)

// Link is one entry of a compact new-style group.
type Link struct {
	Name          string
	Kind          LinkKind
	CreationOrder int64
	HasOrder      bool
	Charset       Charset

	// Address is the object header of a hard link.
	Address uint64

	// Target is the soft link path or external file and object names.
	Target []byte
}

func (m *Link) Type() Type { return TypeLink }

func parseLink(data []byte, cfg binary.Config) (*Link, error) {
	d := binary.NewDecoder(data, cfg)
	if v := d.U8(); v != 1 {
		return nil, fmt.Errorf("unsupported link version %d", v)
	}
	flags := d.U8()

	m := &Link{Kind: LinkHard}
	if flags&linkHasType != 0 {
		m.Kind = LinkKind(d.U8())
	}
	if flags&linkHasOrder != 0 {
		m.HasOrder = true
		m.CreationOrder = int64(d.U64())
	}
	if flags&linkHasCharset != 0 {
		m.Charset = Charset(d.U8())
	}
	nameLen := d.Uint(1 << (flags & linkNameSizeMask))
	m.Name = string(d.Bytes(int(nameLen)))

	switch m.Kind {
	case LinkHard:
		m.Address = d.Offset()
	default:
		n := d.U16()
		m.Target = append([]byte(nil), d.Bytes(int(n))...)
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// Encode writes a version 1 link message.
func (m *Link) Encode(cfg binary.Config) []byte {
	var flags uint8
	sizeBits, width := nameWidth(len(m.Name))
	flags |= sizeBits
	if m.HasOrder {
		flags |= linkHasOrder
	}
	if m.Kind != LinkHard {
		flags |= linkHasType
	}
	if m.Charset != CharsetASCII {
		flags |= linkHasCharset
	}

	e := binary.NewEncoder(cfg)
	e.U8(1)
	e.U8(flags)
	if flags&linkHasType != 0 {
		e.U8(uint8(m.Kind))
	}
	if m.HasOrder {
		e.U64(uint64(m.CreationOrder))
	}
	if flags&linkHasCharset != 0 {
		e.U8(uint8(m.Charset))
	}
	e.Uint(uint64(len(m.Name)), width)
	e.Bytes([]byte(m.Name))
	if m.Kind == LinkHard {
		e.Offset(m.Address)
	} else {
		e.U16(uint16(len(m.Target)))
		e.Bytes(m.Target)
	}
	return e.Data()
}

func nameWidth(n int) (uint8, int) {
	switch {
	case n <= 0xFF:
		return 0, 1
	case n <= 0xFFFF:
		return 1, 2
	case n <= 0xFFFFFFFF:
		return 2, 4
	}
	return 3, 8
}

// LinkInfo describes link storage of a new-style group.
type LinkInfo struct {
	TrackOrder       bool
	IndexOrder       bool
	MaxCreationIndex int64

	HeapAddress       uint64
	NameIndexAddress  uint64
	OrderIndexAddress uint64
}

func (m *LinkInfo) Type() Type { return TypeLinkInfo }

// NewLinkInfo returns link info for a compact group with no dense storage.
func NewLinkInfo(trackOrder bool, cfg binary.Config) *LinkInfo {
	u := cfg.Undefined()
	return &LinkInfo{
		TrackOrder:        trackOrder,
		IndexOrder:        trackOrder,
		HeapAddress:       u,
		NameIndexAddress:  u,
		OrderIndexAddress: u,
	}
}

// Dense reports whether links live in a fractal heap rather than in link
// messages.
func (m *LinkInfo) Dense(cfg binary.Config) bool {
	return !cfg.IsUndefined(m.HeapAddress)
}

func parseLinkInfo(data []byte, cfg binary.Config) (*LinkInfo, error) {
	d := binary.NewDecoder(data, cfg)
	if v := d.U8(); v != 0 {
		return nil, fmt.Errorf("unsupported link info version %d", v)
	}
	flags := d.U8()
	m := &LinkInfo{
		TrackOrder:        flags&0x01 != 0,
		IndexOrder:        flags&0x02 != 0,
		OrderIndexAddress: cfg.Undefined(),
	}
	if m.TrackOrder {
		m.MaxCreationIndex = int64(d.U64())
	}
	m.HeapAddress = d.Offset()
	m.NameIndexAddress = d.Offset()
	if m.IndexOrder {
		m.OrderIndexAddress = d.Offset()
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// Encode writes a version 0 link info message.
func (m *LinkInfo) Encode(cfg binary.Config) []byte {
	var flags uint8
	if m.TrackOrder {
		flags |= 0x01
	}
	if m.IndexOrder {
		flags |= 0x02
	}
	e := binary.NewEncoder(cfg)
	e.U8(0)
	e.U8(flags)
	if m.TrackOrder {
		e.U64(uint64(m.MaxCreationIndex))
	}
	e.Offset(m.HeapAddress)
	e.Offset(m.NameIndexAddress)
	if m.IndexOrder {
		e.Offset(m.OrderIndexAddress)
	}
	return e.Data()
}

// GroupInfo carries the compact/dense thresholds of a new-style group.
type GroupInfo struct {
	MaxCompact        uint16
	MinDense          uint16
	EstimatedEntries  uint16
	EstimatedNameSize uint16

	hasLimits    bool
	hasEstimates bool
}

func (m *GroupInfo) Type() Type { return TypeGroupInfo }

func parseGroupInfo(data []byte) (*GroupInfo, error) {
	d := binary.NewDecoder(data, binary.DefaultConfig())
	if v := d.U8(); v != 0 {
		return nil, fmt.Errorf("unsupported group info version %d", v)
	}
	flags := d.U8()
	m := &GroupInfo{}
	if flags&0x01 != 0 {
		m.hasLimits = true
		m.MaxCompact = d.U16()
		m.MinDense = d.U16()
	}
	if flags&0x02 != 0 {
		m.hasEstimates = true
		m.EstimatedEntries = d.U16()
		m.EstimatedNameSize = d.U16()
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// Encode writes a version 0 group info message.
func (m *GroupInfo) Encode(binary.Config) []byte {
	var flags uint8
	if m.hasLimits {
		flags |= 0x01
	}
	if m.hasEstimates {
		flags |= 0x02
	}
	e := binary.NewEncoder(binary.DefaultConfig())
	e.U8(0)
	e.U8(flags)
	if m.hasLimits {
		e.U16(m.MaxCompact)
		e.U16(m.MinDense)
	}
	if m.hasEstimates {
		e.U16(m.EstimatedEntries)
		e.U16(m.EstimatedNameSize)
	}
	return e.Data()
}
