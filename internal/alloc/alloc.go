// Package alloc hands out file space for the flusher.
//
// Space is only ever appended at the end of the file. Blocks that a flush
// supersedes are recorded as garbage so tools can report how much of the
// file is dead; the space itself is not reused.
package alloc

import "sync"

// Alignment of every allocation.
const Alignment = 8

// Stats summarizes allocator activity.
type Stats struct {
	Allocations uint64
	Allocated   uint64
	Garbage     uint64
}

// Allocator is an append-only space allocator.
type Allocator struct {
	mu    sync.Mutex
	eof   uint64
	stats Stats
}

// New returns an allocator whose first block starts at eof, rounded up.
func New(eof uint64) *Allocator {
	return &Allocator{eof: align(eof)}
}

// Alloc reserves size bytes and returns their address.
func (a *Allocator) Alloc(size uint64) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	addr := a.eof
	a.eof = align(a.eof + size)
	a.stats.Allocations++
	a.stats.Allocated += size
	return addr
}

// Release records a block that is no longer referenced.
func (a *Allocator) Release(size uint64) {
	a.mu.Lock()
	a.stats.Garbage += size
	a.mu.Unlock()
}

// EOF returns the current end of allocated space.
func (a *Allocator) EOF() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eof
}

// Stats returns a snapshot of the counters.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

func align(v uint64) uint64 {
	return (v + Alignment - 1) &^ (Alignment - 1)
}
