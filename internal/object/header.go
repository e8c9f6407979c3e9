package object

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/binary"
	"github.com/robert-malhotra/h5bind/internal/message"
)

var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksumMismatch   = errors.New("object header checksum mismatch")
	ErrMessageTooLarge    = errors.New("header message exceeds 65535 bytes")
)

const (
	signatureHeader       = "OHDR"
	signatureContinuation = "OCHK"
)

// Entry is one raw header message.
type Entry struct {
	Type  message.Type
	Flags uint8
	Data  []byte
}

// Decode parses the entry body.
func (e Entry) Decode(cfg binary.Config) (message.Message, error) {
	return message.Parse(e.Type, e.Flags, e.Data, cfg)
}

// EntryOf encodes m into a new entry.
func EntryOf(m message.Encoder, cfg binary.Config) Entry {
	var flags uint8
	if m.Type() == message.TypeDatatype {
		flags = message.FlagConstant
	}
	return Entry{Type: m.Type(), Flags: flags, Data: m.Encode(cfg)}
}

// Header is a parsed object header. NIL and continuation messages are
// dropped while reading.
type Header struct {
	Version  uint8
	Address  uint64
	Flags    uint8
	RefCount uint32
	Entries  []Entry

	cfg binary.Config
}

// Config returns the field widths the header was read with.
func (h *Header) Config() binary.Config { return h.cfg }

// Has reports whether a message of type typ is present.
func (h *Header) Has(typ message.Type) bool {
	for _, e := range h.Entries {
		if e.Type == typ {
			return true
		}
	}
	return false
}

// First decodes the first message of type typ. It returns nil, nil when
// there is none.
func (h *Header) First(typ message.Type) (message.Message, error) {
	for _, e := range h.Entries {
		if e.Type == typ {
			return e.Decode(h.cfg)
		}
	}
	return nil, nil
}

// All decodes every message of type typ in header order.
func (h *Header) All(typ message.Type) ([]message.Message, error) {
	var out []message.Message
	for _, e := range h.Entries {
		if e.Type != typ {
			continue
		}
		m, err := e.Decode(h.cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Read parses the object header at addr.
func Read(r *binary.Reader, addr uint64) (*Header, error) {
	peek, err := r.ReadAt(addr, 4)
	if err != nil {
		return nil, fmt.Errorf("object header at %d: %w", addr, err)
	}
	var h *Header
	switch {
	case string(peek) == signatureHeader:
		h, err = readV2(r, addr)
	case peek[0] == 1:
		h, err = readV1(r, addr)
	default:
		return nil, fmt.Errorf("%w at %d", ErrInvalidHeader, addr)
	}
	if err != nil {
		return nil, fmt.Errorf("object header at %d: %w", addr, err)
	}
	return h, nil
}

// appendChunk keeps the data messages of one chunk and queues its
// continuations.
func (h *Header) appendChunk(entries []Entry, pending *[]message.Continuation) error {
	for _, e := range entries {
		switch e.Type {
		case message.TypeNIL:
		case message.TypeObjectHeaderContinuation:
			m, err := e.Decode(h.cfg)
			if err != nil {
				return err
			}
			*pending = append(*pending, *m.(*message.Continuation))
		default:
			h.Entries = append(h.Entries, e)
		}
	}
	return nil
}

// followContinuations reads every chunk reachable from pending, each at most
// once.
func (h *Header) followContinuations(pending []message.Continuation, read func(message.Continuation) ([]Entry, error)) error {
	seen := map[uint64]bool{}
	for len(pending) > 0 {
		c := pending[0]
		pending = pending[1:]
		if seen[c.Offset] {
			continue
		}
		seen[c.Offset] = true
		entries, err := read(c)
		if err != nil {
			return fmt.Errorf("continuation at %d: %w", c.Offset, err)
		}
		if err := h.appendChunk(entries, &pending); err != nil {
			return err
		}
	}
	return nil
}
