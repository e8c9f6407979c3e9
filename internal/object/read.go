package object

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/binary"
	"github.com/robert-malhotra/h5bind/internal/message"
)

/*
Version 1 prefix (16 bytes):
  version(1) reserved(1) message count(2) refcount(4) header size(4) reserved(4)
Version 1 message:
  type(2) size(2) flags(1) reserved(3) data(size, 8-aligned)
Continuation chunks hold bare messages.
*/

func readV1(r *binary.Reader, addr uint64) (*Header, error) {
	d, err := r.Decoder(addr, 16)
	if err != nil {
		return nil, err
	}
	h := &Header{Version: d.U8(), Address: addr, cfg: r.Config()}
	d.Skip(1)
	count := int(d.U16())
	h.RefCount = d.U32()
	size := d.U32()

	chunk, err := r.ReadAt(addr+16, int(size))
	if err != nil {
		return nil, err
	}
	var pending []message.Continuation
	if err := h.appendChunk(parseV1Messages(chunk, h.cfg), &pending); err != nil {
		return nil, err
	}
	err = h.followContinuations(pending, func(c message.Continuation) ([]Entry, error) {
		chunk, err := r.ReadAt(c.Offset, int(c.Length))
		if err != nil {
			return nil, err
		}
		return parseV1Messages(chunk, h.cfg), nil
	})
	if err != nil {
		return nil, err
	}
	if count > 0 && len(h.Entries) > count {
		return nil, fmt.Errorf("%w: %d messages, header declares %d", ErrInvalidHeader, len(h.Entries), count)
	}
	return h, nil
}

func parseV1Messages(chunk []byte, cfg binary.Config) []Entry {
	d := binary.NewDecoder(chunk, cfg)
	var out []Entry
	for d.Remaining() >= 8 {
		typ := message.Type(d.U16())
		size := int(d.U16())
		flags := d.U8()
		d.Skip(3)
		data := d.Bytes(size)
		if d.Err() != nil {
			break
		}
		out = append(out, Entry{Type: typ, Flags: flags, Data: data})
		d.Align(8)
	}
	return out
}

/*
Version 2 prefix:
  "OHDR" version(1) flags(1) [times 4x4 if flags&0x20] [attr phase 2x2 if flags&0x10]
  chunk0 size (1 << (flags&3) bytes)
Version 2 message:
  type(1) size(2) flags(1) [creation order(2) if flags&0x04] data
Every chunk ends in a lookup3 checksum; continuation chunks start with "OCHK".
*/

func readV2(r *binary.Reader, addr uint64) (*Header, error) {
	pre, err := r.ReadAt(addr, 6)
	if err != nil {
		return nil, err
	}
	if pre[4] != 2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, pre[4])
	}
	flags := pre[5]
	prefix := 6
	if flags&0x20 != 0 {
		prefix += 16
	}
	if flags&0x10 != 0 {
		prefix += 4
	}
	width := 1 << (flags & 0x03)

	head, err := r.ReadAt(addr, prefix+width)
	if err != nil {
		return nil, err
	}
	size := binary.DecodeUint(head[prefix:], r.Config())
	total := prefix + width + int(size) + 4
	block, err := r.ReadAt(addr, total)
	if err != nil {
		return nil, err
	}
	if err := verify(block); err != nil {
		return nil, err
	}

	h := &Header{Version: 2, Address: addr, Flags: flags, RefCount: 1, cfg: r.Config()}
	withOrder := flags&0x04 != 0
	var pending []message.Continuation
	if err := h.appendChunk(parseV2Messages(block[prefix+width:total-4], withOrder, h.cfg), &pending); err != nil {
		return nil, err
	}
	err = h.followContinuations(pending, func(c message.Continuation) ([]Entry, error) {
		block, err := r.ReadAt(c.Offset, int(c.Length))
		if err != nil {
			return nil, err
		}
		if len(block) < 8 || string(block[:4]) != signatureContinuation {
			return nil, fmt.Errorf("%w: bad continuation signature", ErrInvalidHeader)
		}
		if err := verify(block); err != nil {
			return nil, err
		}
		return parseV2Messages(block[4:len(block)-4], withOrder, h.cfg), nil
	})
	if err != nil {
		return nil, err
	}
	if m, _ := h.First(message.TypeObjectRefCount); m != nil {
		raw := m.(*message.Raw).Data
		if len(raw) >= 5 {
			h.RefCount = uint32(binary.DecodeUint(raw[1:5], h.cfg))
		}
	}
	return h, nil
}

func parseV2Messages(chunk []byte, withOrder bool, cfg binary.Config) []Entry {
	hdr := 4
	if withOrder {
		hdr += 2
	}
	d := binary.NewDecoder(chunk, cfg)
	var out []Entry
	// A gap shorter than a message header is padding.
	for d.Remaining() >= hdr {
		typ := message.Type(d.U8())
		size := int(d.U16())
		flags := d.U8()
		if withOrder {
			d.Skip(2)
		}
		data := d.Bytes(size)
		if d.Err() != nil {
			break
		}
		out = append(out, Entry{Type: typ, Flags: flags, Data: data})
	}
	return out
}

func verify(block []byte) error {
	n := len(block) - 4
	want := uint32(block[n]) | uint32(block[n+1])<<8 | uint32(block[n+2])<<16 | uint32(block[n+3])<<24
	if got := binary.Lookup3(block[:n]); got != want {
		return fmt.Errorf("%w: got %#08x, stored %#08x", ErrChecksumMismatch, got, want)
	}
	return nil
}
