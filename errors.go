// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "fmt"

// OutOfMemoryError is returned when the backing Sbrk rejects a heap
// extension, and by Calloc (with Requested == -1, before any Sbrk call) when
// k*n overflows. The heap is left exactly as it was before the
// call; no partial block is ever linked.
type OutOfMemoryError struct {
	Requested int // bytes the allocator tried to grow the heap by; -1 for Calloc overflow
}

func (e *OutOfMemoryError) Error() string {
	return fmt.Sprintf("malloc: out of memory: sbrk(%d) failed", e.Requested)
}

// InvariantError is raised only by CheckHeap. Treat it as fatal: it means the
// allocator's own bookkeeping has already diverged from the data it describes.
type InvariantError struct {
	Msg  string
	Addr uintptr
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("malloc: invariant broken at %#x: %s", e.Addr, e.Msg)
}

// invalidHandleError reports the one precondition this module does check on
// a caller-supplied pointer: that it is in-range and aligned. Anything
// beyond that (is it actually a live allocation from this allocator) is
// undefined behavior. Calloc also returns it, with Addr 0, for a negative
// element count or size.
type invalidHandleError struct {
	Op   string
	Addr uintptr
}

func (e *invalidHandleError) Error() string {
	return fmt.Sprintf("malloc: %s: invalid pointer %#x", e.Op, e.Addr)
}
