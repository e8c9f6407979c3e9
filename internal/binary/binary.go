// Package binary decodes and encodes the variable-width little-endian fields
// used throughout HDF5 metadata.
package binary

import (
	"encoding/binary"
	"errors"
)

// ErrShortBuffer is returned when a structure runs past the end of its bytes.
var ErrShortBuffer = errors.New("binary: buffer too short")

// ErrInvalidSize is returned when an offset or length width is not 2, 4 or 8.
var ErrInvalidSize = errors.New("binary: invalid offset/length size: must be 2, 4, or 8")

// Config carries the file-wide field widths, taken from the superblock.
type Config struct {
	ByteOrder  binary.ByteOrder
	OffsetSize int
	LengthSize int
}

// DefaultConfig is little-endian with 8-byte offsets and lengths, which is
// what every file written by this module uses.
func DefaultConfig() Config {
	return Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: 8,
		LengthSize: 8,
	}
}

// Validate checks the field widths.
func (c Config) Validate() error {
	for _, n := range []int{c.OffsetSize, c.LengthSize} {
		if n != 2 && n != 4 && n != 8 {
			return ErrInvalidSize
		}
	}
	return nil
}

// Undefined returns the all-ones "undefined address" for the offset width.
func (c Config) Undefined() uint64 {
	if c.OffsetSize >= 8 {
		return ^uint64(0)
	}
	return uint64(1)<<(8*uint(c.OffsetSize)) - 1
}

// IsUndefined reports whether addr is the undefined address.
func (c Config) IsUndefined(addr uint64) bool {
	return addr == c.Undefined()
}

func (c Config) order() binary.ByteOrder {
	if c.ByteOrder == nil {
		return binary.LittleEndian
	}
	return c.ByteOrder
}
