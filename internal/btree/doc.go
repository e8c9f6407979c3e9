// Package btree walks version 1 B-trees.
//
// Two node types are supported: type 0 indexes the symbol table nodes of an
// old-style group, type 1 indexes the chunks of a chunked dataset. Both are
// read whole; nothing here writes B-trees.
package btree
