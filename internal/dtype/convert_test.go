package dtype

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/robert-malhotra/h5bind/internal/message"
)

func TestIntWidening(t *testing.T) {
	from := message.NewInteger(1, true, message.OrderLE)
	to := message.NewInteger(4, true, message.OrderBE)
	dst := make([]byte, 12)
	if err := Convert(dst, to, []byte{1, 0xFF, 0x80}, from, 3); err != nil {
		t.Fatal(err)
	}
	want := []int32{1, -1, -128}
	for i, w := range want {
		if got := int32(binary.BigEndian.Uint32(dst[i*4:])); got != w {
			t.Errorf("element %d = %d, want %d", i, got, w)
		}
	}
}

func TestIntSaturates(t *testing.T) {
	from := message.NewInteger(4, true, message.OrderLE)
	to := message.NewInteger(1, false, message.OrderLE)
	src := make([]byte, 8)
	binary.LittleEndian.PutUint32(src, uint32(300))
	v := int32(-5)
	binary.LittleEndian.PutUint32(src[4:], uint32(v))
	dst := make([]byte, 2)
	if err := Convert(dst, to, src, from, 2); err != nil {
		t.Fatal(err)
	}
	if dst[0] != 255 || dst[1] != 0 {
		t.Errorf("got %v, want [255 0]", dst)
	}
}

func TestFloatToInt(t *testing.T) {
	from := message.NewFloat(8, message.OrderLE)
	to := message.NewInteger(2, true, message.OrderLE)
	src := make([]byte, 24)
	binary.LittleEndian.PutUint64(src, math.Float64bits(2.9))
	binary.LittleEndian.PutUint64(src[8:], math.Float64bits(-1e9))
	binary.LittleEndian.PutUint64(src[16:], math.Float64bits(math.NaN()))
	dst := make([]byte, 6)
	if err := Convert(dst, to, src, from, 3); err != nil {
		t.Fatal(err)
	}
	for i, w := range []int16{2, math.MinInt16, 0} {
		if got := int16(binary.LittleEndian.Uint16(dst[i*2:])); got != w {
			t.Errorf("element %d = %d, want %d", i, got, w)
		}
	}
}

func TestFloatNarrowing(t *testing.T) {
	from := message.NewFloat(8, message.OrderBE)
	to := message.NewFloat(4, message.OrderLE)
	src := make([]byte, 8)
	binary.BigEndian.PutUint64(src, math.Float64bits(1.5))
	dst := make([]byte, 4)
	if err := Convert(dst, to, src, from, 1); err != nil {
		t.Fatal(err)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(dst)); got != 1.5 {
		t.Errorf("got %v", got)
	}
}

func TestHalf(t *testing.T) {
	for _, f := range []float64{0, 1, -2.5, 0.333251953125, 65504, math.Pow(2, -20)} {
		if got := halfToFloat(floatToHalf(f)); got != f {
			t.Errorf("half(%v) = %v", f, got)
		}
	}
	if !math.IsInf(halfToFloat(floatToHalf(1e6)), 1) {
		t.Error("overflow should become +Inf")
	}
}

func TestNotConvertible(t *testing.T) {
	s := message.NewFixedString(4, message.PadNullTerm, message.CharsetASCII)
	err := Convert(make([]byte, 4), s, make([]byte, 4), message.NewInteger(4, true, message.OrderLE), 1)
	if !errors.Is(err, ErrNotConvertible) {
		t.Errorf("err = %v", err)
	}
}
