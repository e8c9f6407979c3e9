// Package object reads and writes HDF5 object headers.
//
// An object header is a list of header messages spread over one or more
// chunks linked by continuation messages. Version 1 headers (no signature)
// and version 2 headers ("OHDR", checksummed) are both read; headers are
// always written as version 2 in a single chunk.
//
// Messages are kept as Entry values holding their raw bytes, so a header can
// be rewritten with unknown messages passed through unchanged. Decode turns
// an entry into a typed message.Message on demand.
package object
