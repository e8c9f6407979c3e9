// Package heap reads local heaps, and reads and writes global heap
// collections.
//
// Local heaps hold the link names of old-style groups. Global heap
// collections hold variable-length data; a dataset element refers to one
// object with a Ref (length, collection address, object index).
package heap
