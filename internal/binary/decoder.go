package binary

// Decoder walks a byte slice. The first out-of-range access sets a sticky
// error; later reads return zero values, so callers check Err once at the end.
type Decoder struct {
	cfg Config
	buf []byte
	off int
	err error
}

// NewDecoder returns a decoder over buf.
func NewDecoder(buf []byte, cfg Config) *Decoder {
	return &Decoder{cfg: cfg, buf: buf}
}

// Err returns the first error hit while decoding.
func (d *Decoder) Err() error { return d.err }

// Config returns the field widths in use.
func (d *Decoder) Config() Config { return d.cfg }

// Pos returns the current offset into the buffer.
func (d *Decoder) Pos() int { return d.off }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	if d.off >= len(d.buf) {
		return 0
	}
	return len(d.buf) - d.off
}

// Seek moves to an absolute offset within the buffer.
func (d *Decoder) Seek(off int) {
	if off < 0 || off > len(d.buf) {
		d.fail()
		return
	}
	d.off = off
}

// Skip advances n bytes.
func (d *Decoder) Skip(n int) {
	d.Bytes(n)
}

// Align advances to the next multiple of n relative to the buffer start.
func (d *Decoder) Align(n int) {
	if n <= 1 {
		return
	}
	if r := d.off % n; r != 0 {
		d.Skip(n - r)
	}
}

// Bytes returns the next n bytes without copying.
func (d *Decoder) Bytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.off+n > len(d.buf) {
		d.fail()
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

// U8 reads one byte.
func (d *Decoder) U8() uint8 {
	b := d.Bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// U16 reads a 2-byte unsigned integer.
func (d *Decoder) U16() uint16 {
	b := d.Bytes(2)
	if b == nil {
		return 0
	}
	return d.cfg.order().Uint16(b)
}

// U32 reads a 4-byte unsigned integer.
func (d *Decoder) U32() uint32 {
	b := d.Bytes(4)
	if b == nil {
		return 0
	}
	return d.cfg.order().Uint32(b)
}

// U64 reads an 8-byte unsigned integer.
func (d *Decoder) U64() uint64 {
	b := d.Bytes(8)
	if b == nil {
		return 0
	}
	return d.cfg.order().Uint64(b)
}

// Uint reads an unsigned integer of n bytes.
func (d *Decoder) Uint(n int) uint64 {
	b := d.Bytes(n)
	if b == nil {
		return 0
	}
	return DecodeUint(b, d.cfg)
}

// Offset reads a file address.
func (d *Decoder) Offset() uint64 { return d.Uint(d.cfg.OffsetSize) }

// Length reads a length field.
func (d *Decoder) Length() uint64 { return d.Uint(d.cfg.LengthSize) }

// CString reads a NUL-terminated string and consumes the terminator.
func (d *Decoder) CString() string {
	if d.err != nil {
		return ""
	}
	for i := d.off; i < len(d.buf); i++ {
		if d.buf[i] == 0 {
			s := string(d.buf[d.off:i])
			d.off = i + 1
			return s
		}
	}
	d.fail()
	return ""
}

func (d *Decoder) fail() {
	if d.err == nil {
		d.err = ErrShortBuffer
	}
}

// DecodeUint decodes a len(b)-byte unsigned integer.
func DecodeUint(b []byte, cfg Config) uint64 {
	order := cfg.order()
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(order.Uint16(b))
	case 4:
		return uint64(order.Uint32(b))
	case 8:
		return order.Uint64(b)
	}
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
