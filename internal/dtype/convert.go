package dtype

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/robert-malhotra/h5bind/internal/message"
)

// ErrNotConvertible is returned for type pairs with no numeric conversion.
var ErrNotConvertible = errors.New("no conversion between types")

// NativeOrder is the byte order of the host.
var NativeOrder = func() message.ByteOrder {
	x := uint16(1)
	if *(*byte)(unsafe.Pointer(&x)) == 1 {
		return message.OrderLE
	}
	return message.OrderBE
}()

// Numeric reports whether t is an integer or float type this package handles.
func Numeric(t *message.Datatype) bool {
	switch t.Class {
	case message.ClassFixedPoint:
		return t.Size == 1 || t.Size == 2 || t.Size == 4 || t.Size == 8
	case message.ClassFloatPoint:
		return t.Size == 2 || t.Size == 4 || t.Size == 8
	}
	return false
}

// Convert converts n elements of type from in src into type to in dst.
func Convert(dst []byte, to *message.Datatype, src []byte, from *message.Datatype, n int) error {
	if !Numeric(from) || !Numeric(to) {
		return fmt.Errorf("%w: %s to %s", ErrNotConvertible, from, to)
	}
	fs, ts := int(from.Size), int(to.Size)
	if len(src) < n*fs || len(dst) < n*ts {
		return fmt.Errorf("convert %d elements: buffer too small", n)
	}
	if from.LayoutEqual(to) {
		copy(dst, src[:n*fs])
		return nil
	}
	for i := 0; i < n; i++ {
		v := load(src[i*fs:(i+1)*fs], from)
		store(dst[i*ts:(i+1)*ts], to, v)
	}
	return nil
}

// value holds one element in the widest form of its class.
type value struct {
	float  bool
	signed bool
	f      float64
	i      int64
	u      uint64
}

func order(o message.ByteOrder) binary.ByteOrder {
	if o == message.OrderBE {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func readUint(b []byte, bo binary.ByteOrder) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(bo.Uint16(b))
	case 4:
		return uint64(bo.Uint32(b))
	}
	return bo.Uint64(b)
}

func writeUint(b []byte, bo binary.ByteOrder, v uint64) {
	switch len(b) {
	case 1:
		b[0] = byte(v)
	case 2:
		bo.PutUint16(b, uint16(v))
	case 4:
		bo.PutUint32(b, uint32(v))
	default:
		bo.PutUint64(b, v)
	}
}

func load(b []byte, t *message.Datatype) value {
	bits := readUint(b, order(t.Order))
	if t.Class == message.ClassFloatPoint {
		switch t.Size {
		case 2:
			return value{float: true, f: halfToFloat(uint16(bits))}
		case 4:
			return value{float: true, f: float64(math.Float32frombits(uint32(bits)))}
		}
		return value{float: true, f: math.Float64frombits(bits)}
	}
	if !t.Signed {
		return value{u: bits}
	}
	shift := 64 - 8*uint(t.Size)
	return value{signed: true, i: int64(bits<<shift) >> shift}
}

func store(b []byte, t *message.Datatype, v value) {
	bo := order(t.Order)
	if t.Class == message.ClassFloatPoint {
		f := v.asFloat()
		switch t.Size {
		case 2:
			writeUint(b, bo, uint64(floatToHalf(f)))
		case 4:
			writeUint(b, bo, uint64(math.Float32bits(float32(f))))
		default:
			writeUint(b, bo, math.Float64bits(f))
		}
		return
	}
	bitsz := 8 * uint(t.Size)
	if t.Signed {
		lo := -int64(1) << (bitsz - 1)
		hi := int64(uint64(1)<<(bitsz-1) - 1)
		writeUint(b, bo, uint64(v.clampSigned(lo, hi)))
		return
	}
	hi := ^uint64(0) >> (64 - bitsz)
	writeUint(b, bo, v.clampUnsigned(hi))
}

func (v value) asFloat() float64 {
	switch {
	case v.float:
		return v.f
	case v.signed:
		return float64(v.i)
	}
	return float64(v.u)
}

func (v value) clampSigned(lo, hi int64) int64 {
	switch {
	case v.float:
		switch {
		case math.IsNaN(v.f):
			return 0
		case v.f <= float64(lo):
			return lo
		case v.f >= float64(hi):
			return hi
		}
		return int64(v.f)
	case v.signed:
		return min(max(v.i, lo), hi)
	}
	if v.u > uint64(hi) {
		return hi
	}
	return int64(v.u)
}

func (v value) clampUnsigned(hi uint64) uint64 {
	switch {
	case v.float:
		switch {
		case math.IsNaN(v.f) || v.f <= 0:
			return 0
		case v.f >= float64(hi):
			return hi
		}
		return uint64(v.f)
	case v.signed:
		if v.i < 0 {
			return 0
		}
		return min(uint64(v.i), hi)
	}
	return min(v.u, hi)
}

func halfToFloat(h uint16) float64 {
	sign := 1.0
	if h&0x8000 != 0 {
		sign = -1
	}
	exp := int(h>>10) & 0x1F
	frac := float64(h & 0x3FF)
	switch exp {
	case 0:
		return sign * frac * math.Pow(2, -24)
	case 0x1F:
		if frac != 0 {
			return math.NaN()
		}
		return math.Inf(int(sign))
	}
	return sign * (1 + frac/1024) * math.Pow(2, float64(exp-15))
}

func floatToHalf(f float64) uint16 {
	var sign uint16
	if math.Signbit(f) {
		sign = 0x8000
		f = -f
	}
	switch {
	case math.IsNaN(f):
		return 0x7E00
	case f >= 65520:
		return sign | 0x7C00
	case f < math.Pow(2, -24)/2:
		return sign
	case f < math.Pow(2, -14):
		return sign | uint16(math.RoundToEven(f*math.Pow(2, 24)))
	}
	frac, exp := math.Frexp(f)
	// f = frac * 2^exp with frac in [0.5, 1)
	m := math.RoundToEven((frac*2 - 1) * 1024)
	e := exp - 1 + 15
	if m == 1024 {
		m = 0
		e++
	}
	if e >= 0x1F {
		return sign | 0x7C00
	}
	return sign | uint16(e)<<10 | uint16(m)
}
