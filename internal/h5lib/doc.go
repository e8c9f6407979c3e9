// Package h5lib is the container library behind the hdf5 package.
//
// Its API mirrors a C-style HDF5 library: every file, group, dataset,
// attribute, datatype, dataspace and property list is reached through an
// h5i.ID, and callers release IDs explicitly. Objects are loaded lazily from
// disk into an in-memory model; changes stay in memory until the file is
// flushed or closed, at which point every modified object is written to the
// end of the file and the superblock is switched over to the new root.
//
// Each file serializes its operations with one mutex. Datatype, dataspace
// and property list IDs are not tied to any file.
package h5lib
