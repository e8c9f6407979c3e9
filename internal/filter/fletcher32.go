package filter

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/binary"
	"github.com/robert-malhotra/h5bind/internal/message"
)

// ErrChecksum is returned when a chunk fails its Fletcher-32 check.
var ErrChecksum = errors.New("fletcher32 checksum mismatch")

// fletcher32 appends a 4-byte checksum to each chunk.
type fletcher32 struct{}

func (fletcher32) ID() uint16 { return message.FilterFletcher32 }

func (fletcher32) Encode(in []byte) ([]byte, error) {
	sum := binary.Fletcher32(in)
	out := make([]byte, len(in), len(in)+4)
	copy(out, in)
	return append(out, byte(sum), byte(sum>>8), byte(sum>>16), byte(sum>>24)), nil
}

func (fletcher32) Decode(in []byte) ([]byte, error) {
	if len(in) < 4 {
		return nil, fmt.Errorf("chunk of %d bytes has no checksum", len(in))
	}
	n := len(in) - 4
	stored := uint32(in[n]) | uint32(in[n+1])<<8 | uint32(in[n+2])<<16 | uint32(in[n+3])<<24
	if got := binary.Fletcher32(in[:n]); got != stored {
		return nil, fmt.Errorf("%w: got %#08x, stored %#08x", ErrChecksum, got, stored)
	}
	return in[:n], nil
}
