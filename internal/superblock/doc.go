// Package superblock finds and decodes the superblock, the fixed record that
// tells a reader how wide file addresses are and where the root group lives.
//
// [Find] probes for the 8-byte signature at offset 0 and then at 512, 1024,
// 2048 and so on. [Read] decodes versions 0 and 1, which reach the root group
// through a symbol table entry, and versions 2 and 3, which point straight
// at the root object header and end with a lookup3 checksum.
//
// Files are only ever written with version 2:
//
//	sb := superblock.New()
//	sb.RootAddress, sb.EOFAddress = root, eof
//	buf := sb.Encode()
//
// Addresses stored in the file are relative to [Superblock.Location].
package superblock
