// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "github.com/cznic/mathutil"

// the allocator's allocation engine: place, coalesce, and the four
// public primitives.

// place carves wordsNeeded words out of free block b (already located via
// findFit) and marks the result USED, splitting off a free remainder when
// the leftover would itself be a legal block.
func (a *Allocator) place(b uintptr, wordsNeeded uint32) {
	a.remove(b)
	origSize := a.size(b)
	origPrevFree := a.prevFree(b)

	if origSize-wordsNeeded >= minBlockWords {
		a.write(b, wordsNeeded, true, origPrevFree)

		remainder := b + uintptr(wordsNeeded)*wordSize
		remainderWords := origSize - wordsNeeded
		a.write(remainder, remainderWords, false, false)
		a.insert(remainder)

		if a.last == a.offsetOf(b) {
			a.last = a.offsetOf(remainder)
		}
		return
	}

	a.write(b, origSize, true, origPrevFree)
}

// coalesce merges free block b with whichever adjacent neighbors are also
// free, inserts the resulting block into its bucket, and returns its
// (possibly shifted) address. Precondition: b is already written as FREE.
func (a *Allocator) coalesce(b uintptr) uintptr {
	words := a.size(b)
	changeLast := a.offsetOf(b) == a.last

	if next := a.nextAdjacent(b); next != 0 {
		if a.offsetOf(next) == a.last && !a.used(next) {
			changeLast = true
		}
		if !a.used(next) {
			words += a.size(next)
			a.remove(next)
		}
	}

	if prev := a.prevAdjacent(b); prev != 0 && !a.used(prev) {
		a.remove(prev)
		words += a.size(prev)
		b = prev
	}

	a.write(b, words, false, a.prevFree(b))
	a.insert(b)

	if changeLast {
		a.last = a.offsetOf(b)
	}
	return b
}

// usableBytes reports how many bytes of payload a block of the given total
// size (in words) makes available to its caller: everything but the header
// word.
func usableBytes(totalWords uint32) int { return int(totalWords-1) * wordSize }

// Alloc allocates request bytes of storage and returns a payload pointer, or
// 0 ("none") if request == 0 or the heap could not be extended.
func (a *Allocator) Alloc(request int) (uintptr, error) {
	if request <= 0 {
		return 0, nil
	}

	neededWords := roundUpWords(wordSize + request)

	if b := a.findFit(neededWords); b != 0 {
		a.place(b, neededWords)
		return a.payload(b), nil
	}

	neededBytes := int(neededWords) * wordSize
	growBytes := neededBytes - int(a.growthReduction())
	if growBytes < alignQuantum {
		growBytes = alignQuantum
	}

	newBlock, err := a.extend(growBytes)
	if err != nil {
		return 0, err
	}

	a.place(newBlock, neededWords)
	return a.payload(newBlock), nil
}

// validPayload reports whether p looks like a pointer this Allocator could
// have returned: non-null, 16-byte aligned, and inside the live heap range.
// This is the only precondition the allocator checks on a caller-supplied
// pointer; anything beyond it (is p actually still-live, as opposed to
// already freed, or a stale value from a different Allocator) is undefined
// behavior.
func (a *Allocator) validPayload(p uintptr) bool {
	if p == 0 || p%alignQuantum != 0 {
		return false
	}
	b := headerFromPayload(p)
	return b >= a.heapStart && b < a.epilogue
}

// Free deallocates the block referred to by p. Freeing 0 ("none") is a
// no-op.
func (a *Allocator) Free(p uintptr) error {
	if p == 0 {
		return nil
	}
	if !a.validPayload(p) {
		return &invalidHandleError{Op: "Free", Addr: p}
	}

	b := headerFromPayload(p)
	sizeWords := a.size(b)
	wasPrevFree := a.prevFree(b)
	a.write(b, sizeWords, false, wasPrevFree)

	next := a.nextAdjacent(b)
	if wasPrevFree || (next != 0 && !a.used(next)) {
		a.coalesce(b)
	} else {
		a.insert(b)
	}
	return nil
}

// Realloc resizes the block referred to by p to n bytes, preserving
// min(old, new) payload bytes of content, and returns the (possibly new)
// payload pointer. n == 0 behaves as Free(p) followed by returning 0; p ==
// 0 behaves as Alloc(n).
func (a *Allocator) Realloc(p uintptr, n int) (uintptr, error) {
	if n == 0 {
		if err := a.Free(p); err != nil {
			return 0, err
		}
		return 0, nil
	}
	if p == 0 {
		return a.Alloc(n)
	}
	if !a.validPayload(p) {
		return 0, &invalidHandleError{Op: "Realloc", Addr: p}
	}

	oldBlock := headerFromPayload(p)
	oldUsable := usableBytes(a.size(oldBlock))

	newP, err := a.Alloc(n)
	if err != nil {
		return 0, err
	}

	copyLen := mathutil.Min(oldUsable, n)
	if copyLen > 0 {
		buf := make([]byte, copyLen)
		a.mem.ReadAt(p, buf)
		a.mem.WriteAt(newP, buf)
	}

	if err := a.Free(p); err != nil {
		return 0, err
	}
	return newP, nil
}

// Calloc allocates storage for k elements of size n bytes each, zeroed, or 0
// on overflow of k*n or on allocation failure. Guards k*n against overflow
// before allocating.
func (a *Allocator) Calloc(k, n int) (uintptr, error) {
	if k < 0 || n < 0 {
		return 0, &invalidHandleError{Op: "Calloc", Addr: 0}
	}
	total := k * n
	if n != 0 && total/n != k {
		return 0, &OutOfMemoryError{Requested: -1}
	}

	p, err := a.Alloc(total)
	if err != nil || p == 0 {
		return p, err
	}

	usable := usableBytes(a.size(headerFromPayload(p)))
	a.mem.WriteAt(p, make([]byte, usable))
	return p, nil
}
