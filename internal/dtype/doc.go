// Package dtype converts numeric element buffers between datatypes.
//
// Reads in the native library convert stored elements into the requested
// memory type: any integer or float width, signedness and byte order. Out of
// range values saturate at the destination limits and NaN converts to zero
// for integer destinations.
package dtype
