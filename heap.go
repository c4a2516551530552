// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

// the allocator's heap region manager: Allocator construction, the
// alignment-padding computation and the heap-extension path.

// bucketTableBytes is the space reserved at heap base for the bucket table
// (N buckets, one pointer-sized head each). The bucket heads themselves
// live in the Allocator value; this reservation only preserves the address
// arithmetic a serialized-table implementation would produce, so block
// addresses come out identical either way.
const ptrSize = 8
const bucketTableBytes = numBuckets * ptrSize

// Allocator is the heap region manager, block layer, free-list index and
// allocation engine bound to one backing Sbrk. It is not safe for
// concurrent use and owns no process-wide state of its own: every field
// lives on the value, so independent Allocators over independent Sbrk
// regions never interfere.
type Allocator struct {
	mem       Sbrk
	buckets   [numBuckets]wordOffset
	last      wordOffset // highest-addressed block; noOffset if heap is empty
	heapStart uintptr    // address of the first block ever created
	epilogue  uintptr    // current epilogue address
}

// New initializes a fresh Allocator over mem. mem must be a zero-sized
// region (as returned by NewMemRegion or any Sbrk whose Break() ==
// HeapStart() on entry).
func New(mem Sbrk) (*Allocator, error) {
	a := &Allocator{mem: mem}
	for i := range a.buckets {
		a.buckets[i] = noOffset
	}
	a.last = noOffset

	if _, err := mem.Sbrk(bucketTableBytes); err != nil {
		return nil, err
	}

	afterTable := mem.Break()
	padding := paddingFor(afterTable)
	if padding > 0 {
		if _, err := mem.Sbrk(padding); err != nil {
			return nil, err
		}
	}

	epilogueAddr, err := mem.Sbrk(wordSize)
	if err != nil {
		return nil, err
	}
	mem.WriteWord(epilogueAddr, encodeHeader(0, true, false))

	a.heapStart = epilogueAddr
	a.epilogue = epilogueAddr
	return a, nil
}

// paddingFor returns the smallest padding in [0, alignQuantum) such that
// (addr+padding) mod alignQuantum == wordSize*3, i.e. the header word ends
// up at an address congruent to 12 mod 16.
func paddingFor(addr uintptr) int {
	const target = 3 * wordSize // 12
	residue := int(addr % alignQuantum)
	for p := 0; p < alignQuantum; p++ {
		if (residue+p)%alignQuantum == target {
			return p
		}
	}
	panic("unreachable: no padding satisfies the residue constraint")
}

// extend grows the heap by deltaBytes (already rounded to alignQuantum) and
// returns the address of the new block, after coalescing it with whatever
// free block previously abutted the epilogue.
func (a *Allocator) extend(deltaBytes int) (uintptr, error) {
	wasLastFree := !a.last.isNone() && !a.used(a.addr(a.last))

	oldEpilogue := a.epilogue
	base, err := a.mem.Sbrk(deltaBytes)
	if err != nil {
		return 0, &OutOfMemoryError{Requested: deltaBytes}
	}
	_ = base // base == oldEpilogue+wordSize (the break sits one word past the epilogue); the new block starts at, and overwrites, the old epilogue word

	sizeWords := uint32(deltaBytes / wordSize)
	a.write(oldEpilogue, sizeWords, false, wasLastFree)

	newEpilogue := oldEpilogue + uintptr(deltaBytes)
	a.mem.WriteWord(newEpilogue, encodeHeader(0, true, false))
	a.epilogue = newEpilogue

	a.last = a.offsetOf(oldEpilogue)

	return a.coalesce(oldEpilogue), nil
}
