package layout

import (
	"bytes"
	"testing"

	"github.com/robert-malhotra/h5bind/internal/binary"
	"github.com/robert-malhotra/h5bind/internal/filter"
	"github.com/robert-malhotra/h5bind/internal/message"
)

var cfg = binary.DefaultConfig()

func reader(b []byte) *binary.Reader {
	return binary.NewReader(bytes.NewReader(b), cfg)
}

func TestCompact(t *testing.T) {
	s := Source{Layout: message.NewCompactLayout([]byte{1, 2, 3, 4}), Dims: []uint64{2}, ElemSize: 2}
	got, err := Read(reader(nil), s)
	if err != nil || !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestContiguous(t *testing.T) {
	file := make([]byte, 64)
	copy(file[32:], []byte{9, 8, 7, 6})
	s := Source{Layout: message.NewContiguousLayout(32, 4), Dims: []uint64{4}, ElemSize: 1}
	got, err := Read(reader(file), s)
	if err != nil || !bytes.Equal(got, []byte{9, 8, 7, 6}) {
		t.Errorf("got %v, %v", got, err)
	}

	s.Layout = message.NewContiguousLayout(cfg.Undefined(), 0)
	got, err = Read(reader(file), s)
	if err != nil || !bytes.Equal(got, make([]byte, 4)) {
		t.Errorf("unallocated = %v, %v", got, err)
	}
}

func TestImplicitChunks(t *testing.T) {
	// 3x3 dataset of bytes, 2x2 chunks: four chunks, edges partly outside.
	chunks := [][]byte{
		{0, 1, 3, 4},
		{2, 0, 5, 0},
		{6, 7, 0, 0},
		{8, 0, 0, 0},
	}
	file := make([]byte, 100)
	for i, c := range chunks {
		copy(file[50+4*i:], c)
	}
	s := Source{
		Layout: &message.Layout{
			Version: 4, Class: message.LayoutChunked, Index: message.IndexImplicit,
			Address: 50, ChunkDims: []uint64{2, 2}, ElementSize: 1,
		},
		Dims:     []uint64{3, 3},
		ElemSize: 1,
	}
	got, err := Read(reader(file), s)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8}; !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSingleChunkFiltered(t *testing.T) {
	fp := &message.FilterPipeline{Filters: []message.FilterInfo{{ID: message.FilterDeflate, Values: []uint32{6}}}}
	p, err := filter.New(fp)
	if err != nil {
		t.Fatal(err)
	}
	data := bytes.Repeat([]byte{1, 0, 0, 0}, 25)
	enc, err := p.Encode(data)
	if err != nil {
		t.Fatal(err)
	}
	file := append(make([]byte, 16), enc...)
	s := Source{
		Layout: &message.Layout{
			Version: 4, Class: message.LayoutChunked, Index: message.IndexSingleChunk,
			ChunkFlags: 0x02, SingleChunkSize: uint64(len(enc)),
			Address: 16, ChunkDims: []uint64{25}, ElementSize: 4,
		},
		Filters:  fp,
		Dims:     []uint64{25},
		ElemSize: 4,
	}
	got, err := Read(reader(file), s)
	if err != nil || !bytes.Equal(got, data) {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestChunkOrigins(t *testing.T) {
	got := chunkOrigins([]uint64{5, 4}, []uint64{2, 4})
	if len(got) != 3 || got[2][0] != 4 || got[2][1] != 0 {
		t.Errorf("origins = %v", got)
	}
}
