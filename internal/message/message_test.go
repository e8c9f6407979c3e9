package message

import (
	"bytes"
	"errors"
	"testing"

	"github.com/robert-malhotra/h5bind/internal/binary"
)

var cfg = binary.DefaultConfig()

func TestDataspaceRoundTrip(t *testing.T) {
	tests := []*Dataspace{
		NewScalarDataspace(),
		NewNullDataspace(),
		NewSimpleDataspace(3),
		NewSimpleDataspace(2, 5, 7),
		{Kind: SpaceSimple, Dims: []uint64{4}, MaxDims: []uint64{Unlimited}},
	}
	for _, want := range tests {
		got, err := ParseDataspace(want.Encode(cfg), cfg)
		if err != nil {
			t.Fatalf("%v: %v", want.Dims, err)
		}
		if !got.Equal(want) {
			t.Errorf("got %+v, want %+v", got, want)
		}
		if len(want.MaxDims) > 0 && got.MaxDims[0] != want.MaxDims[0] {
			t.Errorf("max dims = %v, want %v", got.MaxDims, want.MaxDims)
		}
	}
}

func TestDataspaceV1(t *testing.T) {
	data := []byte{1, 1, 0, 0, 0, 0, 0, 0}
	data = append(data, 6, 0, 0, 0, 0, 0, 0, 0)
	ds, err := ParseDataspace(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if ds.Kind != SpaceSimple || len(ds.Dims) != 1 || ds.Dims[0] != 6 {
		t.Errorf("got %+v", ds)
	}

	ds, err = ParseDataspace([]byte{1, 0, 0, 0, 0, 0, 0, 0}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if ds.Kind != SpaceScalar || ds.NumElements() != 1 {
		t.Errorf("rank 0 v1 dataspace should be scalar, got %v", ds.Kind)
	}
}

func TestNumElements(t *testing.T) {
	if n := NewNullDataspace().NumElements(); n != 0 {
		t.Errorf("null: %d", n)
	}
	if n := NewSimpleDataspace(2, 3, 4).NumElements(); n != 24 {
		t.Errorf("simple: %d", n)
	}
}

func TestDatatypeRoundTrip(t *testing.T) {
	tests := []*Datatype{
		NewInteger(1, false, OrderLE),
		NewInteger(4, true, OrderLE),
		NewInteger(8, true, OrderBE),
		NewFloat(4, OrderLE),
		NewFloat(8, OrderBE),
		NewFixedString(16, PadNullTerm, CharsetUTF8),
		NewFixedString(3, PadSpacePad, CharsetASCII),
		NewVarString(CharsetUTF8, 8),
		NewVarString(CharsetASCII, 4),
	}
	for _, want := range tests {
		enc := want.Encode(cfg)
		got, n, err := ParseDatatype(enc)
		if err != nil {
			t.Fatalf("%s: %v", want, err)
		}
		if n != len(enc) {
			t.Errorf("%s: consumed %d of %d bytes", want, n, len(enc))
		}
		if got.Class != want.Class || got.Size != want.Size || got.Order != want.Order ||
			got.Signed != want.Signed || got.Padding != want.Padding ||
			got.Charset != want.Charset || got.VarString != want.VarString {
			t.Errorf("got %+v, want %+v", got, want)
		}
	}
}

func TestDatatypeEncoding(t *testing.T) {
	enc := NewVarString(CharsetUTF8, 8).Encode(cfg)
	// class 9, version 1; type string, charset UTF-8 at bit 8; size 16
	want := []byte{0x19, 0x01, 0x01, 0x00, 16, 0, 0, 0}
	if !bytes.Equal(enc[:8], want) {
		t.Errorf("vlen header = % x, want % x", enc[:8], want)
	}
	if enc[8] != 0x10 || enc[12] != 1 {
		t.Errorf("base type = % x, want unsigned byte", enc[8:])
	}

	enc = NewFloat(8, OrderLE).Encode(cfg)
	want = []byte{0x11, 0x20, 0x3f, 0x00, 8, 0, 0, 0, 0, 0, 64, 0, 52, 11, 0, 52, 0xff, 0x03, 0, 0}
	if !bytes.Equal(enc, want) {
		t.Errorf("float64 = % x, want % x", enc, want)
	}
}

func TestDatatypeUnmodelledPassthrough(t *testing.T) {
	// Opaque, size 4, with a tag.
	raw := []byte{0x15, 0x08, 0, 0, 4, 0, 0, 0, 'a', 'b', 'c', 0, 0, 0, 0, 0}
	dt, n, err := ParseDatatype(raw)
	if err != nil {
		t.Fatal(err)
	}
	if dt.Modelled() || n != len(raw) {
		t.Fatalf("opaque should be kept raw, got modelled=%v n=%d", dt.Modelled(), n)
	}
	if !bytes.Equal(dt.Encode(cfg), raw) {
		t.Error("raw datatype did not encode back unchanged")
	}
}

func TestLayoutEqual(t *testing.T) {
	a := NewFixedString(8, PadNullTerm, CharsetASCII)
	b := NewFixedString(8, PadNullPad, CharsetUTF8)
	if !a.LayoutEqual(b) {
		t.Error("string padding and charset should not change layout")
	}
	if NewInteger(4, true, OrderLE).LayoutEqual(NewInteger(4, false, OrderLE)) {
		t.Error("signedness must differ")
	}
	if NewFloat(4, OrderLE).LayoutEqual(NewFloat(8, OrderLE)) {
		t.Error("sizes must differ")
	}
}

func TestLinkRoundTrip(t *testing.T) {
	tests := []*Link{
		{Name: "G1", Kind: LinkHard, Address: 0x1234},
		{Name: "Γιώργος", Kind: LinkHard, Charset: CharsetUTF8, HasOrder: true, CreationOrder: 7, Address: 96},
		{Name: "soft", Kind: LinkSoft, Target: []byte("/G1/G2")},
		{Name: string(bytes.Repeat([]byte("n"), 300)), Address: 1},
	}
	for _, want := range tests {
		m, err := Parse(TypeLink, 0, want.Encode(cfg), cfg)
		if err != nil {
			t.Fatal(err)
		}
		got := m.(*Link)
		if got.Name != want.Name || got.Kind != want.Kind || got.Address != want.Address ||
			got.HasOrder != want.HasOrder || got.CreationOrder != want.CreationOrder ||
			got.Charset != want.Charset || !bytes.Equal(got.Target, want.Target) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	}
}

func TestLinkInfoRoundTrip(t *testing.T) {
	for _, track := range []bool{false, true} {
		want := NewLinkInfo(track, cfg)
		want.MaxCreationIndex = 3
		if !track {
			want.MaxCreationIndex = 0
		}
		m, err := Parse(TypeLinkInfo, 0, want.Encode(cfg), cfg)
		if err != nil {
			t.Fatal(err)
		}
		got := m.(*LinkInfo)
		if *got != *want {
			t.Errorf("got %+v, want %+v", got, want)
		}
		if got.Dense(cfg) {
			t.Error("compact link info reported dense")
		}
	}
}

func TestGroupInfo(t *testing.T) {
	m, err := Parse(TypeGroupInfo, 0, []byte{0, 1, 8, 0, 6, 0}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	gi := m.(*GroupInfo)
	if gi.MaxCompact != 8 || gi.MinDense != 6 {
		t.Errorf("got %+v", gi)
	}
	if !bytes.Equal(gi.Encode(cfg), []byte{0, 1, 8, 0, 6, 0}) {
		t.Error("group info did not round trip")
	}
}

func TestLayoutContiguousAndCompact(t *testing.T) {
	m, err := Parse(TypeDataLayout, 0, NewContiguousLayout(4096, 48).Encode(cfg), cfg)
	if err != nil {
		t.Fatal(err)
	}
	l := m.(*Layout)
	if l.Class != LayoutContiguous || l.Address != 4096 || l.Size != 48 {
		t.Errorf("got %+v", l)
	}

	m, err = Parse(TypeDataLayout, 0, NewCompactLayout([]byte{1, 2, 3}).Encode(cfg), cfg)
	if err != nil {
		t.Fatal(err)
	}
	l = m.(*Layout)
	if l.Class != LayoutCompact || !bytes.Equal(l.Data, []byte{1, 2, 3}) {
		t.Errorf("got %+v", l)
	}
}

func TestLayoutChunkedV3(t *testing.T) {
	e := binary.NewEncoder(cfg)
	e.U8(3)
	e.U8(uint8(LayoutChunked))
	e.U8(3)
	e.Offset(800)
	e.U32(10)
	e.U32(20)
	e.U32(4)
	m, err := Parse(TypeDataLayout, 0, e.Data(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	l := m.(*Layout)
	if l.Address != 800 || l.ElementSize != 4 || len(l.ChunkDims) != 2 || l.ChunkElements() != 200 {
		t.Errorf("got %+v", l)
	}
	if l.Index != IndexBTreeV1 {
		t.Errorf("index = %d", l.Index)
	}
}

func TestLayoutChunkedV4SingleChunk(t *testing.T) {
	e := binary.NewEncoder(cfg)
	e.U8(4)
	e.U8(uint8(LayoutChunked))
	e.U8(0x02) // filtered single chunk
	e.U8(2)
	e.U8(2)
	e.U16(5)
	e.U16(8)
	e.U8(uint8(IndexSingleChunk))
	e.Length(33)
	e.U32(0)
	e.Offset(1200)
	m, err := Parse(TypeDataLayout, 0, e.Data(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	l := m.(*Layout)
	if l.Index != IndexSingleChunk || l.SingleChunkSize != 33 || l.Address != 1200 || l.ChunkDims[0] != 5 || l.ElementSize != 8 {
		t.Errorf("got %+v", l)
	}
}

func TestAttributeRoundTrip(t *testing.T) {
	want := &Attribute{
		Name:      "version",
		Datatype:  NewInteger(4, true, OrderLE),
		Dataspace: NewScalarDataspace(),
		Data:      []byte{2, 0, 0, 0},
	}
	m, err := Parse(TypeAttribute, 0, want.Encode(cfg), cfg)
	if err != nil {
		t.Fatal(err)
	}
	got := m.(*Attribute)
	if got.Name != want.Name || !bytes.Equal(got.Data, want.Data) || !got.Datatype.LayoutEqual(want.Datatype) {
		t.Errorf("got %+v", got)
	}
}

func TestAttributeV1Padding(t *testing.T) {
	dt := NewInteger(2, false, OrderLE).Encode(cfg)
	ds := (&Dataspace{Kind: SpaceSimple, Dims: []uint64{2}}).Encode(cfg)
	e := binary.NewEncoder(cfg)
	e.U8(1)
	e.U8(0)
	e.U16(3) // "ab" + NUL
	e.U16(uint16(len(dt)))
	e.U16(uint16(len(ds)))
	e.Bytes([]byte("ab\x00"))
	e.Pad(8)
	e.Bytes(dt)
	e.Pad(8)
	e.Bytes(ds)
	e.Pad(8)
	e.Bytes([]byte{1, 0, 2, 0})

	m, err := Parse(TypeAttribute, 0, e.Data(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	got := m.(*Attribute)
	if got.Name != "ab" || !bytes.Equal(got.Data, []byte{1, 0, 2, 0}) {
		t.Errorf("got %+v", got)
	}
}

func TestFilterPipelineV2(t *testing.T) {
	e := binary.NewEncoder(cfg)
	e.U8(2)
	e.U8(2)
	e.U16(FilterShuffle)
	e.U16(0)
	e.U16(1)
	e.U32(4)
	e.U16(FilterDeflate)
	e.U16(1)
	e.U16(1)
	e.U32(6)
	m, err := Parse(TypeFilterPipeline, 0, e.Data(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	fp := m.(*FilterPipeline)
	if len(fp.Filters) != 2 || fp.Filters[0].ID != FilterShuffle || fp.Filters[1].Values[0] != 6 || !fp.Filters[1].Optional {
		t.Errorf("got %+v", fp)
	}
}

func TestSharedRejected(t *testing.T) {
	_, err := Parse(TypeDatatype, FlagShared, []byte{0, 0, 0, 0, 0, 0, 0, 0}, cfg)
	if !errors.Is(err, ErrShared) {
		t.Errorf("err = %v, want ErrShared", err)
	}
}

func TestUnknownIsRaw(t *testing.T) {
	m, err := Parse(TypeObjectModTime, 0, []byte{1, 0, 0, 0, 9, 9, 9, 9}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	raw, ok := m.(*Raw)
	if !ok || raw.Type() != TypeObjectModTime {
		t.Fatalf("got %T", m)
	}
}
