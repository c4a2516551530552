// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*

Package malloc implements a general-purpose dynamic memory allocator over a
contiguous, monotonically growable heap region: the classic four primitives
alloc/free/realloc/calloc, with 16-byte alignment, boundary-tag bookkeeping
and a segregated free-list index for near-constant-time placement.

Heap layout

The heap is a linear sequence of blocks, preceded by a small bucket-table
reservation and alignment padding, and terminated by a one-word epilogue
sentinel that is rewritten every time the heap grows:

	[ bucket table reservation ][ padding ][ block ][ block ]...[ epilogue ]

Block layout

Every block begins with a one-word header: size in words (bits 31..2), USED
(bit 0) and PREVFREE (bit 1, "the immediately preceding adjacent block is
free"). A free block additionally stores a next/prev free-list link pair and
a footer identical to its header; an allocated block stores only its header
and payload (the boundary-tag optimization, in which the successor's
PREVFREE bit substitutes for a used block's footer).

Free-list index

Ten buckets segregate free blocks by a power-of-two size class. Each bucket
is a doubly linked, LIFO-ordered list of free blocks. Allocation finds the
first sufficiently large block via first fit, starting at the smallest
bucket that could possibly contain one.

Concurrency

An Allocator is single-threaded and not safe for concurrent use; callers
must serialize access themselves. It never returns memory to the backing
Sbrk: the heap only ever grows.

*/
package malloc
