// Package superblock locates, reads and writes the HDF5 superblock.
package superblock

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/robert-malhotra/h5bind/internal/binary"
)

// Signature is the eight-byte HDF5 format signature.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

var (
	// ErrNotHDF5 is returned when no signature is found at any probe offset.
	ErrNotHDF5 = errors.New("not an HDF5 file: signature not found")
	// ErrUnsupportedVersion is returned for superblock versions above 3.
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	// ErrChecksum is returned when a v2/v3 superblock fails its checksum.
	ErrChecksum = errors.New("superblock checksum mismatch")
)

// maxProbe bounds the signature search; HDF5 looks at 0 and at every power
// of two from 512 upward.
const maxProbe = int64(1) << 40

// Superblock holds the fields this module needs from any superblock version.
type Superblock struct {
	Version    uint8
	OffsetSize uint8
	LengthSize uint8
	Flags      uint8

	// Location is where the signature was found. Addresses stored in the
	// file are relative to BaseAddress, which is normally the same.
	Location         int64
	BaseAddress      uint64
	ExtensionAddress uint64
	EOFAddress       uint64
	RootAddress      uint64

	// Version 0/1 only.
	LeafK     uint16
	InternalK uint16
}

// New returns a version 2 superblock with 8-byte offsets and lengths.
func New() *Superblock {
	return &Superblock{
		Version:          2,
		OffsetSize:       8,
		LengthSize:       8,
		ExtensionAddress: binary.DefaultConfig().Undefined(),
	}
}

// Config returns the decoder configuration implied by the superblock.
func (sb *Superblock) Config() binary.Config {
	cfg := binary.DefaultConfig()
	cfg.OffsetSize = int(sb.OffsetSize)
	cfg.LengthSize = int(sb.LengthSize)
	return cfg
}

// Find returns the offset of the first signature, probing 0, 512, 1024, ...
func Find(r io.ReaderAt) (int64, error) {
	sig := make([]byte, len(Signature))
	for off := int64(0); off < maxProbe; {
		n, err := r.ReadAt(sig, off)
		if n < len(sig) {
			if err == nil || errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		if bytes.Equal(sig, Signature) {
			return off, nil
		}
		if off == 0 {
			off = 512
		} else {
			off *= 2
		}
	}
	return 0, ErrNotHDF5
}

// Read locates and decodes the superblock.
func Read(r io.ReaderAt) (*Superblock, error) {
	loc, err := Find(r)
	if err != nil {
		return nil, err
	}

	// The fixed part of every version fits in 24 bytes; widths come after.
	head := make([]byte, 24)
	if n, err := r.ReadAt(head, loc); n < 16 {
		return nil, fmt.Errorf("reading superblock: %w", err)
	}

	version := head[8]
	switch version {
	case 0, 1:
		return readV0(r, loc, head)
	case 2, 3:
		return readV2(r, loc, head)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
}

// readV0 decodes versions 0 and 1. Layout after the signature:
// version, free-space version, root entry version, reserved, shared header
// version, offset size, length size, reserved, leaf K, internal K, flags,
// [v1: indexed storage K, reserved], base, free-space, EOF, driver, root entry.
func readV0(r io.ReaderAt, loc int64, head []byte) (*Superblock, error) {
	sb := &Superblock{
		Version:    head[8],
		OffsetSize: head[13],
		LengthSize: head[14],
		Location:   loc,
	}
	cfg := sb.Config()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fixed := 24
	if sb.Version == 1 {
		fixed += 4
	}
	o := cfg.OffsetSize
	size := fixed + 4*o + 2*o + 8 + 16
	d, err := binary.NewReader(r, cfg).Decoder(uint64(loc), size)
	if err != nil {
		return nil, fmt.Errorf("reading superblock v%d: %w", sb.Version, err)
	}

	d.Skip(16)
	sb.LeafK = d.U16()
	sb.InternalK = d.U16()
	sb.Flags = uint8(d.U32())
	d.Seek(fixed)
	sb.BaseAddress = d.Offset()
	d.Offset() // free-space info
	sb.EOFAddress = d.Offset()
	d.Offset() // driver info
	d.Offset() // root entry link name offset
	sb.RootAddress = d.Offset()
	sb.ExtensionAddress = cfg.Undefined()
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("decoding superblock v%d: %w", sb.Version, err)
	}
	return sb, nil
}

// readV2 decodes versions 2 and 3: version, offset size, length size, flags,
// base, extension, EOF, root header, checksum.
func readV2(r io.ReaderAt, loc int64, head []byte) (*Superblock, error) {
	sb := &Superblock{
		Version:    head[8],
		OffsetSize: head[9],
		LengthSize: head[10],
		Flags:      head[11],
		Location:   loc,
	}
	cfg := sb.Config()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	body := 12 + 4*cfg.OffsetSize
	d, err := binary.NewReader(r, cfg).Decoder(uint64(loc), body+4)
	if err != nil {
		return nil, fmt.Errorf("reading superblock v%d: %w", sb.Version, err)
	}
	raw := d.Bytes(body)
	stored := d.U32()
	if binary.Lookup3(raw) != stored {
		return nil, ErrChecksum
	}

	d.Seek(12)
	sb.BaseAddress = d.Offset()
	sb.ExtensionAddress = d.Offset()
	sb.EOFAddress = d.Offset()
	sb.RootAddress = d.Offset()
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("decoding superblock v%d: %w", sb.Version, err)
	}
	return sb, nil
}
