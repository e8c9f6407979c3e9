package superblock

import "github.com/robert-malhotra/h5bind/internal/binary"

// Encode serializes the superblock in version 2 format, whatever version it
// was read as. Version 0/1 files rewritten by this module become v2 files;
// the fields they lose (B-tree K values, driver info) have defaults.
func (sb *Superblock) Encode() []byte {
	cfg := sb.Config()
	e := binary.NewEncoder(cfg)
	e.Bytes(Signature)
	e.U8(2)
	e.U8(sb.OffsetSize)
	e.U8(sb.LengthSize)
	e.U8(sb.Flags)
	e.Offset(sb.BaseAddress)
	if sb.ExtensionAddress == 0 {
		e.Undefined()
	} else {
		e.Offset(sb.ExtensionAddress)
	}
	e.Offset(sb.EOFAddress)
	e.Offset(sb.RootAddress)
	e.U32(binary.Lookup3(e.Data()))
	return e.Data()
}

// EncodedSize is the size of Encode's output.
func (sb *Superblock) EncodedSize() int {
	return 12 + 4*int(sb.OffsetSize) + 4
}
