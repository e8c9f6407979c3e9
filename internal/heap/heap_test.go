package heap

import (
	"bytes"
	"testing"

	"github.com/robert-malhotra/h5bind/internal/binary"
)

var cfg = binary.DefaultConfig()

func TestPackAndRead(t *testing.T) {
	values := [][]byte{[]byte("Γιώργος"), {}, []byte("Γιάννης"), []byte("x")}
	const base = 2048
	blob, refs := Pack(values, base, cfg)
	if len(blob) != MinCollectionSize {
		t.Fatalf("collection size = %d, want %d", len(blob), MinCollectionSize)
	}
	if !refs[1].IsNil() || refs[1].Length != 0 {
		t.Errorf("empty value ref = %+v", refs[1])
	}

	file := append(make([]byte, base), blob...)
	c, err := ReadCollection(binary.NewReader(bytes.NewReader(file), cfg), base)
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 3 || c.Size != MinCollectionSize {
		t.Errorf("len = %d, size = %d", c.Len(), c.Size)
	}
	for i, v := range values {
		if len(v) == 0 {
			continue
		}
		if refs[i].Address != base || refs[i].Length != uint32(len(v)) {
			t.Errorf("ref %d = %+v", i, refs[i])
		}
		got, err := c.Object(refs[i].Index)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, v) {
			t.Errorf("object %d = %q, want %q", i, got, v)
		}
	}
	if _, err := c.Object(99); err == nil {
		t.Error("expected error for missing object")
	}
}

func TestPackLarge(t *testing.T) {
	big := bytes.Repeat([]byte{'z'}, 5000)
	blob, refs := Pack([][]byte{big}, 0x100, cfg)
	if len(blob) <= len(big) || len(blob)%8 != 0 {
		t.Errorf("blob size %d", len(blob))
	}
	file := append(make([]byte, 0x100), blob...)
	c, err := ReadCollection(binary.NewReader(bytes.NewReader(file), cfg), refs[0].Address)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := c.Object(refs[0].Index)
	if !bytes.Equal(got, big) {
		t.Error("large object mismatch")
	}
}

func TestPackNothing(t *testing.T) {
	blob, refs := Pack([][]byte{nil, {}}, 64, cfg)
	if len(blob) != 0 {
		t.Errorf("blob = %d bytes, want none", len(blob))
	}
	for _, r := range refs {
		if !r.IsNil() {
			t.Errorf("ref = %+v", r)
		}
	}
}

func TestRefRoundTrip(t *testing.T) {
	want := Ref{Length: 11, Address: 0xABCDEF, Index: 4}
	e := binary.NewEncoder(cfg)
	want.Encode(e)
	if e.Len() != RefSize(cfg) {
		t.Fatalf("size = %d", e.Len())
	}
	got, err := ParseRef(e.Data(), cfg)
	if err != nil || got != want {
		t.Errorf("got %+v, %v", got, err)
	}
}

func TestReadLocal(t *testing.T) {
	e := binary.NewEncoder(cfg)
	e.Bytes([]byte("HEAP"))
	e.U8(0)
	e.Zeros(3)
	e.Length(16)
	e.Length(1)
	e.Offset(64)
	file := make([]byte, 80)
	copy(file, e.Data())
	copy(file[64:], "\x00G1\x00\x00\x00\x00\x00beta\x00\x00\x00\x00")

	h, err := ReadLocal(binary.NewReader(bytes.NewReader(file), cfg), 0)
	if err != nil {
		t.Fatal(err)
	}
	for off, want := range map[uint64]string{0: "", 1: "G1", 8: "beta"} {
		got, err := h.String(off)
		if err != nil || got != want {
			t.Errorf("String(%d) = %q, %v; want %q", off, got, err, want)
		}
	}
	if _, err := h.String(100); err == nil {
		t.Error("expected out of range error")
	}
}
