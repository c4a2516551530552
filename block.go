// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

// This file is the allocator's block layer: a set of small functions over a
// block address (header encode/decode helpers, plus Allocator methods for
// everything that reads or writes the backing region).
//
// Header word layout (one word, bits numbered from the LSB):
//
//	bits [31:2] size in words (always a multiple of alignWords)
//	bit  1      PREVFREE (immediately preceding adjacent block is free)
//	bit  0      USED
//
// A free block additionally carries, starting at its second word: a next
// link, a prev link, and, at its last word, a footer byte-identical to the
// header. An allocated block carries no footer (the boundary-tag
// optimization: the next block's PREVFREE bit substitutes for it).

const (
	flagUsed     uint32 = 1 << 0
	flagPrevFree uint32 = 1 << 1
	sizeShift           = 2
)

func encodeHeader(sizeWords uint32, used, prevFree bool) uint32 {
	h := sizeWords << sizeShift
	if used {
		h |= flagUsed
	}
	if prevFree {
		h |= flagPrevFree
	}
	return h
}

func headerSize(h uint32) uint32   { return h >> sizeShift }
func headerUsed(h uint32) bool     { return h&flagUsed != 0 }
func headerPrevFree(h uint32) bool { return h&flagPrevFree != 0 }

// size returns b's size in words.
func (a *Allocator) size(b uintptr) uint32 { return headerSize(a.mem.ReadWord(b)) }

// used reports whether b is currently allocated.
func (a *Allocator) used(b uintptr) bool { return headerUsed(a.mem.ReadWord(b)) }

// prevFree reports whether the block immediately preceding b is free.
func (a *Allocator) prevFree(b uintptr) bool { return headerPrevFree(a.mem.ReadWord(b)) }

// setPrevFree sets b's PREVFREE bit in place, leaving size/USED untouched.
// A no-op on the null address, since it may be invoked on the (possibly
// nonexistent) successor of the heap's last block.
func (a *Allocator) setPrevFree(b uintptr) {
	if b == 0 {
		return
	}
	a.mem.WriteWord(b, a.mem.ReadWord(b)|flagPrevFree)
}

// clearPrevFree clears b's PREVFREE bit in place. A no-op on the null
// address for the same reason as setPrevFree.
func (a *Allocator) clearPrevFree(b uintptr) {
	if b == 0 {
		return
	}
	a.mem.WriteWord(b, a.mem.ReadWord(b)&^flagPrevFree)
}

// payload returns the address of b's first payload byte.
func (a *Allocator) payload(b uintptr) uintptr { return b + wordSize }

// headerFromPayload recovers a block's header address from a payload
// pointer previously returned by Alloc/Realloc/Calloc.
func headerFromPayload(p uintptr) uintptr { return p - wordSize }

// footer returns the address of b's footer word (only meaningful while b is
// free).
func (a *Allocator) footer(b uintptr) uintptr {
	return b + uintptr(a.size(b)-1)*wordSize
}

// nextAdjacent returns the address of the block immediately following b, or
// 0 ("none") when that address is the epilogue.
func (a *Allocator) nextAdjacent(b uintptr) uintptr {
	n := a.footer(b) + wordSize
	if n == a.epilogue {
		return 0
	}
	return n
}

// prevAdjacent returns the address of the block immediately preceding b, or
// 0 ("none") if PREVFREE is clear (no predecessor, or the predecessor is
// used).
func (a *Allocator) prevAdjacent(b uintptr) uintptr {
	if !a.prevFree(b) {
		return 0
	}
	prevFooter := b - wordSize
	prevSize := headerSize(a.mem.ReadWord(prevFooter))
	return b - uintptr(prevSize)*wordSize
}

// write stores b's header (and, for a free block, its footer) and keeps the
// successor's PREVFREE bit coherent with the new USED bit. write is the
// only path in the allocator that ever mutates a header or footer, which is
// what keeps PREVFREE trustworthy.
//
// write takes used and prevFree as separate explicit bools: callers that
// rewrite an existing block in place (place, coalesce, Free) read the old
// PREVFREE bit themselves (via prevFree) and pass it straight through, while
// callers that create a genuinely new block (extend, and place for a split-off
// remainder) compute PREVFREE fresh from their own knowledge of the
// neighboring block's state rather than trusting whatever bit pattern
// happened to be sitting at that address before.
func (a *Allocator) write(b uintptr, sizeWords uint32, used, prevFree bool) {
	h := encodeHeader(sizeWords, used, prevFree)
	a.mem.WriteWord(b, h)
	if !used {
		a.mem.WriteWord(b+uintptr(sizeWords-1)*wordSize, h)
	}

	next := b + uintptr(sizeWords)*wordSize
	if next == a.epilogue {
		return
	}
	if used {
		a.clearPrevFree(next)
	} else {
		a.setPrevFree(next)
	}
}
