// Package message decodes and encodes HDF5 object header messages.
//
// Object headers hold a sequence of typed messages. This package models the
// ones a group/dataset/attribute binding needs:
//
//   - Dataspace (0x0001), see [Dataspace]
//   - Link Info (0x0002), see [LinkInfo]
//   - Datatype (0x0003), see [Datatype]
//   - Link (0x0006), see [Link]
//   - Data Layout (0x0008), see [Layout]
//   - Group Info (0x000A), see [GroupInfo]
//   - Filter Pipeline (0x000B), see [FilterPipeline]
//   - Attribute (0x000C), see [Attribute]
//   - Continuation (0x0010), see [Continuation]
//   - Symbol Table (0x0011), see [SymbolTable]
//
// Everything else decodes to [Raw], which re-encodes to its original bytes
// so rewritten headers keep messages this package does not understand.
//
// Messages that can be written implement [Encoder]:
//
//	data := message.Encode(msg, cfg)
package message
