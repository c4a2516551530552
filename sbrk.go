// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"encoding/binary"

	"github.com/cznic/mathutil"
)

// Sbrk is the backing memory provider the allocator consumes: an OS-facing
// primitive that grows a contiguous region and reports its high-water
// address, plus the byte-level read/write access a caller would get for
// free by dereferencing a real sbrk'd pointer. A real process is expected to
// implement Sbrk over its own address space; MemRegion below is the
// in-process reference implementation used by every test in this module and
// by cmd/allocbench.
//
// Sbrk is not safe for concurrent use, matching the allocator's own single
// threaded contract.
type Sbrk interface {
	// Sbrk grows the region by deltaBytes (which must be >= 0; the allocator's
	// heap-extension calls always pass a multiple of alignQuantum, while New
	// also requests the padding and the one-word epilogue) and returns the address
	// at which the new bytes begin. delta == 0 returns the current break
	// without modifying anything. Returns an error if the region cannot
	// grow (out of memory).
	Sbrk(deltaBytes int) (oldBreak uintptr, err error)

	// Break reports the current high-water address without growing.
	Break() uintptr

	// HeapStart and HeapEnd are queries for the checker only.
	HeapStart() uintptr
	HeapEnd() uintptr

	// ReadWord/WriteWord access a single 4-byte word at addr, stored in
	// network byte order.
	ReadWord(addr uintptr) uint32
	WriteWord(addr uintptr, v uint32)

	// ReadAt/WriteAt access an arbitrary byte range.
	ReadAt(addr uintptr, buf []byte)
	WriteAt(addr uintptr, buf []byte)
}

// regionBase is an arbitrary, fixed synthetic base address at which every
// MemRegion's byte 0 is deemed to live. It exists only so that returned
// "pointers" look like real addresses (and so alignment/mod-16 checks are
// meaningful) without requiring unsafe, process-real memory.
const regionBase uintptr = 0x5000_0000

// MemRegion is a memory-backed Sbrk. It grows as a single contiguous slice:
// since a heap only ever grows at its high end, no page-map indirection is
// needed.
type MemRegion struct {
	buf []byte
	cap int64 // out-of-memory ceiling; 0 means unlimited
}

var _ Sbrk = (*MemRegion)(nil)

// NewMemRegion returns an empty MemRegion. ceiling, if non-zero, is the
// largest size in bytes the region will grow to before Sbrk starts failing
// with *OutOfMemoryError (used by tests exercising the OOM path without
// actually exhausting process memory).
func NewMemRegion(ceiling int64) *MemRegion {
	return &MemRegion{cap: ceiling}
}

func (m *MemRegion) Sbrk(deltaBytes int) (uintptr, error) {
	old := regionBase + uintptr(len(m.buf))
	if deltaBytes == 0 {
		return old, nil
	}
	if deltaBytes < 0 {
		panic("MemRegion.Sbrk: negative delta")
	}
	newSize := int64(len(m.buf)) + int64(deltaBytes)
	if m.cap != 0 && newSize > m.cap {
		return 0, &OutOfMemoryError{Requested: deltaBytes}
	}
	grown := make([]byte, newSize)
	copy(grown, m.buf)
	m.buf = grown
	return old, nil
}

func (m *MemRegion) Break() uintptr { return regionBase + uintptr(len(m.buf)) }

func (m *MemRegion) HeapStart() uintptr { return regionBase }
func (m *MemRegion) HeapEnd() uintptr   { return m.Break() }

func (m *MemRegion) idx(addr uintptr) int64 {
	return int64(mathutil.MaxInt64(int64(addr)-int64(regionBase), 0))
}

func (m *MemRegion) ReadWord(addr uintptr) uint32 {
	i := m.idx(addr)
	return binary.BigEndian.Uint32(m.buf[i : i+wordSize])
}

func (m *MemRegion) WriteWord(addr uintptr, v uint32) {
	i := m.idx(addr)
	binary.BigEndian.PutUint32(m.buf[i:i+wordSize], v)
}

func (m *MemRegion) ReadAt(addr uintptr, buf []byte) {
	i := m.idx(addr)
	copy(buf, m.buf[i:i+int64(len(buf))])
}

func (m *MemRegion) WriteAt(addr uintptr, buf []byte) {
	i := m.idx(addr)
	copy(m.buf[i:i+int64(len(buf))], buf)
}

// Len reports the region's current size in bytes, i.e. Break()-HeapStart().
func (m *MemRegion) Len() int { return len(m.buf) }
