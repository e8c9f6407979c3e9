package object

import (
	"bytes"
	"errors"
	"testing"

	"github.com/robert-malhotra/h5bind/internal/binary"
	"github.com/robert-malhotra/h5bind/internal/message"
)

var cfg = binary.DefaultConfig()

func place(buf []byte, addr int, b []byte) []byte {
	if need := addr + len(b); need > len(buf) {
		buf = append(buf, make([]byte, need-len(buf))...)
	}
	copy(buf[addr:], b)
	return buf
}

func TestEncodeRead(t *testing.T) {
	entries := []Entry{
		EntryOf(message.NewLinkInfo(true, cfg), cfg),
		EntryOf(&message.GroupInfo{}, cfg),
		EntryOf(&message.Link{Name: "a", Address: 512}, cfg),
		{Type: message.TypeObjectModTime, Data: []byte{1, 0, 0, 0, 7, 7, 7, 7}},
	}
	enc, err := Encode(entries, MinGroupChunk, cfg)
	if err != nil {
		t.Fatal(err)
	}
	file := place(nil, 64, enc)

	h, err := Read(binary.NewReader(bytes.NewReader(file), cfg), 64)
	if err != nil {
		t.Fatal(err)
	}
	if h.Version != 2 || len(h.Entries) != len(entries) {
		t.Fatalf("version %d, %d entries", h.Version, len(h.Entries))
	}
	for i := range entries {
		if h.Entries[i].Type != entries[i].Type || !bytes.Equal(h.Entries[i].Data, entries[i].Data) {
			t.Errorf("entry %d = %+v, want %+v", i, h.Entries[i], entries[i])
		}
	}

	m, err := h.First(message.TypeLink)
	if err != nil {
		t.Fatal(err)
	}
	if l := m.(*message.Link); l.Name != "a" || l.Address != 512 {
		t.Errorf("link = %+v", l)
	}
	if m, _ := h.First(message.TypeDataspace); m != nil {
		t.Errorf("unexpected dataspace %v", m)
	}
}

func TestEncodeWideChunk(t *testing.T) {
	big := Entry{Type: message.TypeObjectComment, Data: bytes.Repeat([]byte{'x'}, 300)}
	enc, err := Encode([]Entry{big}, 0, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if enc[5]&0x03 != 1 {
		t.Errorf("chunk size width flag = %d, want 1", enc[5]&0x03)
	}
	h, err := Read(binary.NewReader(bytes.NewReader(enc), cfg), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Entries) != 1 || len(h.Entries[0].Data) != 300 {
		t.Errorf("entries = %d", len(h.Entries))
	}
}

func TestEncodeTooLarge(t *testing.T) {
	_, err := Encode([]Entry{{Type: message.TypeAttribute, Data: make([]byte, 70000)}}, 0, cfg)
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("err = %v", err)
	}
}

func TestChecksumMismatch(t *testing.T) {
	enc, err := Encode([]Entry{{Type: message.TypeObjectComment, Data: []byte("hi\x00")}}, 0, cfg)
	if err != nil {
		t.Fatal(err)
	}
	enc[len(enc)-6] ^= 0xFF
	_, err = Read(binary.NewReader(bytes.NewReader(enc), cfg), 0)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("err = %v", err)
	}
}

func TestReadV2Continuation(t *testing.T) {
	second := binary.NewEncoder(cfg)
	second.Bytes([]byte(signatureContinuation))
	link := (&message.Link{Name: "later", Address: 9}).Encode(cfg)
	second.U8(uint8(message.TypeLink))
	second.U16(uint16(len(link)))
	second.U8(0)
	second.Bytes(link)
	second.U32(binary.Lookup3(second.Data()))
	chunk := second.Data()

	first, err := Encode([]Entry{
		EntryOf(&message.Link{Name: "first", Address: 8}, cfg),
		EntryOf(&message.Continuation{Offset: 400, Length: uint64(len(chunk))}, cfg),
	}, 0, cfg)
	if err != nil {
		t.Fatal(err)
	}
	file := place(nil, 0, first)
	file = place(file, 400, chunk)

	h, err := Read(binary.NewReader(bytes.NewReader(file), cfg), 0)
	if err != nil {
		t.Fatal(err)
	}
	links, err := h.All(message.TypeLink)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 2 || links[1].(*message.Link).Name != "later" {
		t.Errorf("links = %v", links)
	}
}

func TestReadV1(t *testing.T) {
	msgs := binary.NewEncoder(cfg)
	st := binary.NewEncoder(cfg)
	st.Offset(1000)
	st.Offset(2000)
	msgs.U16(uint16(message.TypeSymbolTable))
	msgs.U16(uint16(st.Len()))
	msgs.U8(0)
	msgs.Zeros(3)
	msgs.Bytes(st.Data())
	msgs.Pad(8)
	// A NIL message is skipped.
	msgs.U16(0)
	msgs.U16(8)
	msgs.Zeros(4)
	msgs.Zeros(8)

	e := binary.NewEncoder(cfg)
	e.U8(1)
	e.U8(0)
	e.U16(2)
	e.U32(1)
	e.U32(uint32(msgs.Len()))
	e.Zeros(4)
	e.Bytes(msgs.Data())

	h, err := Read(binary.NewReader(bytes.NewReader(e.Data()), cfg), 0)
	if err != nil {
		t.Fatal(err)
	}
	if h.Version != 1 || h.RefCount != 1 || len(h.Entries) != 1 {
		t.Fatalf("header = %+v", h)
	}
	m, err := h.First(message.TypeSymbolTable)
	if err != nil {
		t.Fatal(err)
	}
	if st := m.(*message.SymbolTable); st.BTreeAddress != 1000 || st.LocalHeapAddress != 2000 {
		t.Errorf("symbol table = %+v", st)
	}
}

func TestReadGarbage(t *testing.T) {
	_, err := Read(binary.NewReader(bytes.NewReader([]byte("nothing here")), cfg), 0)
	if !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("err = %v", err)
	}
}
