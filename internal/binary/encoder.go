package binary

// Encoder appends fields to a growing buffer.
type Encoder struct {
	cfg Config
	buf []byte
}

// NewEncoder returns an empty encoder.
func NewEncoder(cfg Config) *Encoder {
	return &Encoder{cfg: cfg}
}

// Config returns the field widths in use.
func (e *Encoder) Config() Config { return e.cfg }

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int { return len(e.buf) }

// Data returns the encoded bytes.
func (e *Encoder) Data() []byte { return e.buf }

// Bytes appends p.
func (e *Encoder) Bytes(p []byte) { e.buf = append(e.buf, p...) }

// Zeros appends n zero bytes.
func (e *Encoder) Zeros(n int) {
	for ; n > 0; n-- {
		e.buf = append(e.buf, 0)
	}
}

// U8 appends one byte.
func (e *Encoder) U8(v uint8) { e.buf = append(e.buf, v) }

// U16 appends a 2-byte integer.
func (e *Encoder) U16(v uint16) {
	var b [2]byte
	e.cfg.order().PutUint16(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

// U32 appends a 4-byte integer.
func (e *Encoder) U32(v uint32) {
	var b [4]byte
	e.cfg.order().PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

// U64 appends an 8-byte integer.
func (e *Encoder) U64(v uint64) {
	var b [8]byte
	e.cfg.order().PutUint64(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

// Uint appends v as an n-byte integer.
func (e *Encoder) Uint(v uint64, n int) {
	switch n {
	case 1:
		e.U8(uint8(v))
	case 2:
		e.U16(uint16(v))
	case 4:
		e.U32(uint32(v))
	case 8:
		e.U64(v)
	default:
		for i := 0; i < n; i++ {
			e.buf = append(e.buf, byte(v>>(8*uint(i))))
		}
	}
}

// Offset appends a file address.
func (e *Encoder) Offset(v uint64) { e.Uint(v, e.cfg.OffsetSize) }

// Length appends a length field.
func (e *Encoder) Length(v uint64) { e.Uint(v, e.cfg.LengthSize) }

// Undefined appends the undefined address.
func (e *Encoder) Undefined() { e.Offset(e.cfg.Undefined()) }

// PutU32At overwrites four bytes at off, used to patch checksums and sizes.
func (e *Encoder) PutU32At(off int, v uint32) {
	e.cfg.order().PutUint32(e.buf[off:off+4], v)
}

// Pad appends zeros until Len is a multiple of n.
func (e *Encoder) Pad(n int) {
	if n <= 1 {
		return
	}
	if r := len(e.buf) % n; r != 0 {
		e.Zeros(n - r)
	}
}
