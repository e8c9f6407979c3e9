package hdf5

import (
	"bytes"
	"fmt"
	"strconv"
	"unicode/utf8"
	"unsafe"

	"golang.org/x/text/encoding/charmap"

	"github.com/robert-malhotra/h5bind/internal/h5lib"
)

// element is the set of Go types bound to numeric container types.
type element interface {
	bool | int8 | int16 | int32 | int64 | int |
		uint8 | uint16 | uint32 | uint64 | uint |
		float32 | float64
}

// binding is the strategy chosen for one Go value. It yields the shape and
// the natural element type of the value.
type binding interface {
	dataspace() (*Dataspace, error)
	datatype() (*Datatype, error)
	scalar() bool
}

// memoryBinding is implemented by numeric strategies. The memory view
// aliases the Go value.
type memoryBinding interface {
	binding
	memory() []byte
	// stage returns a buffer for n elements read from storage. The value
	// keeps its contents until commit.
	stage(n int) ([]byte, error)
	// commit moves the staged elements into the value.
	commit()
}

// textBinding is implemented by the text strategies.
type textBinding interface {
	binding
	strings() []string
	setStrings(s []string) error
}

// bindValue selects the strategy for a value being written.
func bindValue(v any) (binding, error) {
	switch v := v.(type) {
	case bool:
		return &scalarBinding[bool]{p: &v}, nil
	case int8:
		return &scalarBinding[int8]{p: &v}, nil
	case int16:
		return &scalarBinding[int16]{p: &v}, nil
	case int32:
		return &scalarBinding[int32]{p: &v}, nil
	case int64:
		return &scalarBinding[int64]{p: &v}, nil
	case int:
		return &scalarBinding[int]{p: &v}, nil
	case uint8:
		return &scalarBinding[uint8]{p: &v}, nil
	case uint16:
		return &scalarBinding[uint16]{p: &v}, nil
	case uint32:
		return &scalarBinding[uint32]{p: &v}, nil
	case uint64:
		return &scalarBinding[uint64]{p: &v}, nil
	case uint:
		return &scalarBinding[uint]{p: &v}, nil
	case float32:
		return &scalarBinding[float32]{p: &v}, nil
	case float64:
		return &scalarBinding[float64]{p: &v}, nil
	case []bool:
		return &sliceBinding[bool]{p: &v}, nil
	case []int8:
		return &sliceBinding[int8]{p: &v}, nil
	case []int16:
		return &sliceBinding[int16]{p: &v}, nil
	case []int32:
		return &sliceBinding[int32]{p: &v}, nil
	case []int64:
		return &sliceBinding[int64]{p: &v}, nil
	case []int:
		return &sliceBinding[int]{p: &v}, nil
	case []uint8:
		return &sliceBinding[uint8]{p: &v}, nil
	case []uint16:
		return &sliceBinding[uint16]{p: &v}, nil
	case []uint32:
		return &sliceBinding[uint32]{p: &v}, nil
	case []uint64:
		return &sliceBinding[uint64]{p: &v}, nil
	case []uint:
		return &sliceBinding[uint]{p: &v}, nil
	case []float32:
		return &sliceBinding[float32]{p: &v}, nil
	case []float64:
		return &sliceBinding[float64]{p: &v}, nil
	case string:
		return &textScalar{p: &v}, nil
	case []string:
		return &textSlice{p: &v}, nil
	}
	return bindTarget(v)
}

// bindTarget selects the strategy for a pointer a value is read into.
func bindTarget(dst any) (binding, error) {
	switch p := dst.(type) {
	case *bool:
		return &scalarBinding[bool]{p: p}, nil
	case *int8:
		return &scalarBinding[int8]{p: p}, nil
	case *int16:
		return &scalarBinding[int16]{p: p}, nil
	case *int32:
		return &scalarBinding[int32]{p: p}, nil
	case *int64:
		return &scalarBinding[int64]{p: p}, nil
	case *int:
		return &scalarBinding[int]{p: p}, nil
	case *uint8:
		return &scalarBinding[uint8]{p: p}, nil
	case *uint16:
		return &scalarBinding[uint16]{p: p}, nil
	case *uint32:
		return &scalarBinding[uint32]{p: p}, nil
	case *uint64:
		return &scalarBinding[uint64]{p: p}, nil
	case *uint:
		return &scalarBinding[uint]{p: p}, nil
	case *float32:
		return &scalarBinding[float32]{p: p}, nil
	case *float64:
		return &scalarBinding[float64]{p: p}, nil
	case *[]bool:
		return &sliceBinding[bool]{p: p}, nil
	case *[]int8:
		return &sliceBinding[int8]{p: p}, nil
	case *[]int16:
		return &sliceBinding[int16]{p: p}, nil
	case *[]int32:
		return &sliceBinding[int32]{p: p}, nil
	case *[]int64:
		return &sliceBinding[int64]{p: p}, nil
	case *[]int:
		return &sliceBinding[int]{p: p}, nil
	case *[]uint8:
		return &sliceBinding[uint8]{p: p}, nil
	case *[]uint16:
		return &sliceBinding[uint16]{p: p}, nil
	case *[]uint32:
		return &sliceBinding[uint32]{p: p}, nil
	case *[]uint64:
		return &sliceBinding[uint64]{p: p}, nil
	case *[]uint:
		return &sliceBinding[uint]{p: p}, nil
	case *[]float32:
		return &sliceBinding[float32]{p: p}, nil
	case *[]float64:
		return &sliceBinding[float64]{p: p}, nil
	case *string:
		return &textScalar{p: p}, nil
	case *[]string:
		return &textSlice{p: p}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, dst)
}

// nativeOf returns the memory type of T. bool is stored as an unsigned byte.
func nativeOf[T element]() h5lib.Predefined {
	var zero T
	switch any(zero).(type) {
	case bool, uint8:
		return h5lib.NativeUint8
	case int8:
		return h5lib.NativeInt8
	case int16:
		return h5lib.NativeInt16
	case uint16:
		return h5lib.NativeUint16
	case int32:
		return h5lib.NativeInt32
	case uint32:
		return h5lib.NativeUint32
	case int64:
		return h5lib.NativeInt64
	case uint64:
		return h5lib.NativeUint64
	case int:
		if strconv.IntSize == 32 {
			return h5lib.NativeInt32
		}
		return h5lib.NativeInt64
	case uint:
		if strconv.IntSize == 32 {
			return h5lib.NativeUint32
		}
		return h5lib.NativeUint64
	case float32:
		return h5lib.NativeFloat
	}
	return h5lib.NativeDouble
}

// normalizeBools rewrites stored bytes as valid bool values.
func normalizeBools[T element](s []T) {
	if len(s) == 0 {
		return
	}
	if _, ok := any(s[0]).(bool); !ok {
		return
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s))
	for i, b := range raw {
		if b != 0 {
			raw[i] = 1
		}
	}
}

type scalarBinding[T element] struct {
	p   *T
	tmp T
}

func (b *scalarBinding[T]) dataspace() (*Dataspace, error) { return ScalarDataspace() }
func (b *scalarBinding[T]) datatype() (*Datatype, error) { return predefined(nativeOf[T]()) }
func (b *scalarBinding[T]) scalar() bool { return true }

func (b *scalarBinding[T]) memory() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(b.p)), unsafe.Sizeof(*b.p))
}

func (b *scalarBinding[T]) stage(n int) ([]byte, error) {
	if n != 1 {
		return nil, fmt.Errorf("%w: %d elements stored, reading into a single value", ErrTypeMismatch, n)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&b.tmp)), unsafe.Sizeof(b.tmp)), nil
}

func (b *scalarBinding[T]) commit() {
	normalizeBools(unsafe.Slice(&b.tmp, 1))
	*b.p = b.tmp
}

type sliceBinding[T element] struct {
	p   *[]T
	tmp []T
}

func (b *sliceBinding[T]) dataspace() (*Dataspace, error) {
	return NewDataspace(uint64(len(*b.p)))
}

func (b *sliceBinding[T]) datatype() (*Datatype, error) { return predefined(nativeOf[T]()) }
func (b *sliceBinding[T]) scalar() bool { return false }

func (b *sliceBinding[T]) memory() []byte {
	s := *b.p
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
}

func (b *sliceBinding[T]) stage(n int) ([]byte, error) {
	if n == 0 {
		b.tmp = (*b.p)[:0]
		return nil, nil
	}
	b.tmp = make([]T, n)
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&b.tmp[0])), n*int(unsafe.Sizeof(zero))), nil
}

func (b *sliceBinding[T]) commit() {
	normalizeBools(b.tmp)
	*b.p = b.tmp
	b.tmp = nil
}

type textScalar struct {
	p *string
}

func (b *textScalar) dataspace() (*Dataspace, error) { return ScalarDataspace() }
func (b *textScalar) datatype() (*Datatype, error) { return VarString(EncodingUTF8) }
func (b *textScalar) strings() []string { return []string{*b.p} }
func (b *textScalar) scalar() bool { return true }

func (b *textScalar) setStrings(s []string) error {
	if len(s) != 1 {
		return fmt.Errorf("%w: %d strings stored, reading into a single string", ErrTypeMismatch, len(s))
	}
	*b.p = s[0]
	return nil
}

type textSlice struct {
	p *[]string
}

func (b *textSlice) dataspace() (*Dataspace, error) { return NewDataspace(uint64(len(*b.p))) }
func (b *textSlice) datatype() (*Datatype, error) { return VarString(EncodingUTF8) }
func (b *textSlice) strings() []string { return *b.p }
func (b *textSlice) scalar() bool { return false }

func (b *textSlice) setStrings(s []string) error {
	*b.p = s
	return nil
}

// encodeText converts s to the bytes stored for enc. ASCII strings are
// stored as ISO-8859-1.
func encodeText(s string, enc Encoding) ([]byte, error) {
	if enc == EncodingASCII {
		b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not representable as ASCII: %v", ErrTypeMismatch, s, err)
		}
		return b, nil
	}
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("%w: %q is not valid UTF-8", ErrTypeMismatch, s)
	}
	return []byte(s), nil
}

// decodeText converts stored bytes back to a Go string. Trailing padding of
// fixed-width values is removed.
func decodeText(b []byte, enc Encoding) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	if enc == EncodingASCII {
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
		if err == nil {
			return string(out)
		}
	}
	return string(b)
}

// packFixed lays strings out in width-byte slots, zero padded. Every value
// must be shorter than width.
func packFixed(values []string, enc Encoding, width int) ([]byte, error) {
	buf := make([]byte, len(values)*width)
	for i, s := range values {
		b, err := encodeText(s, enc)
		if err != nil {
			return nil, err
		}
		if len(b) >= width {
			return nil, fmt.Errorf("%w: %d bytes for width %d", ErrCapacityExceeded, len(b), width)
		}
		copy(buf[i*width:], b)
	}
	return buf, nil
}

// unpackFixed splits n width-byte slots into strings.
func unpackFixed(buf []byte, enc Encoding, width, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = decodeText(buf[i*width:(i+1)*width], enc)
	}
	return out
}
