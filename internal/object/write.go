package object

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/binary"
	"github.com/robert-malhotra/h5bind/internal/message"
)

// MinGroupChunk is the smallest message area given to group headers, which
// leaves room for a few links the way other writers do.
const MinGroupChunk = 120

// Encode builds a single-chunk version 2 object header. When minChunk is
// larger than the messages, the remainder is filled with a NIL message.
func Encode(entries []Entry, minChunk int, cfg binary.Config) ([]byte, error) {
	size := 0
	for _, e := range entries {
		if len(e.Data) > 0xFFFF {
			return nil, fmt.Errorf("%s: %w", e.Type, ErrMessageTooLarge)
		}
		size += 4 + len(e.Data)
	}
	gap := 0
	if minChunk > size {
		gap = minChunk - size
		// A gap below a message header cannot hold a NIL message.
		if gap < 4 {
			gap = 4
		}
		size += gap
	}

	var flags uint8
	width := 1
	switch {
	case size > 0xFFFFFFFF:
		flags, width = 3, 8
	case size > 0xFFFF:
		flags, width = 2, 4
	case size > 0xFF:
		flags, width = 1, 2
	}

	e := binary.NewEncoder(cfg)
	e.Bytes([]byte(signatureHeader))
	e.U8(2)
	e.U8(flags)
	e.Uint(uint64(size), width)
	for _, m := range entries {
		e.U8(uint8(m.Type))
		e.U16(uint16(len(m.Data)))
		e.U8(m.Flags)
		e.Bytes(m.Data)
	}
	if gap > 0 {
		e.U8(uint8(message.TypeNIL))
		e.U16(uint16(gap - 4))
		e.U8(0)
		e.Zeros(gap - 4)
	}
	e.U32(binary.Lookup3(e.Data()))
	return e.Data(), nil
}
