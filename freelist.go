// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "github.com/cznic/mathutil"

// the allocator's free-list index: ten segregated buckets, each a
// doubly linked LIFO list of free blocks of the bucket's size class, indexed
// by an O(1) size-to-bucket lookup. The bucket heads live directly on the
// Allocator value, since the bucket table is part of the single in-process
// allocator state.

// bucketOf returns the index of the bucket holding free blocks of the given
// size (in words): bucket 0 holds exactly the minimum block size, each
// following bucket doubles the boundary, and the last bucket is the
// catch-all for anything larger than the second-to-last boundary.
func bucketOf(sizeWords uint32) int {
	sizeBytes := int64(sizeWords) * wordSize
	boundary := int64(alignQuantum)
	i := 0
	for sizeBytes > boundary && i < numBuckets-1 {
		boundary *= 2
		i++
	}
	return i
}

// nextLink/prevLink addresses within a free block b.
func nextLinkAddr(b uintptr) uintptr { return b + wordSize }
func prevLinkAddr(b uintptr) uintptr { return b + 2*wordSize }

func (a *Allocator) readLink(addr uintptr) wordOffset {
	return wordOffset(int32(a.mem.ReadWord(addr)))
}

func (a *Allocator) writeLink(addr uintptr, o wordOffset) {
	a.mem.WriteWord(addr, uint32(int32(o)))
}

func (a *Allocator) nextFree(b uintptr) wordOffset { return a.readLink(nextLinkAddr(b)) }
func (a *Allocator) prevFreeLink(b uintptr) wordOffset { return a.readLink(prevLinkAddr(b)) }

func (a *Allocator) setNextFree(b uintptr, o wordOffset) { a.writeLink(nextLinkAddr(b), o) }
func (a *Allocator) setPrevFreeLink(b uintptr, o wordOffset) { a.writeLink(prevLinkAddr(b), o) }

func (a *Allocator) bucketHead(i int) uintptr { return a.addr(a.buckets[i]) }

func (a *Allocator) bucketIsEmpty(i int) bool { return a.buckets[i].isNone() }

// insert adds free block b (LIFO) to the bucket matching its size.
func (a *Allocator) insert(b uintptr) {
	i := bucketOf(a.size(b))
	oldHead := a.buckets[i]
	a.setPrevFreeLink(b, noOffset)
	a.setNextFree(b, oldHead)
	if !oldHead.isNone() {
		a.setPrevFreeLink(a.addr(oldHead), a.offsetOf(b))
	}
	a.buckets[i] = a.offsetOf(b)
}

// remove unlinks free block b from its bucket list.
func (a *Allocator) remove(b uintptr) {
	i := bucketOf(a.size(b))
	prev := a.prevFreeLink(b)
	next := a.nextFree(b)

	switch {
	case prev.isNone() && next.isNone():
		a.buckets[i] = noOffset
	case prev.isNone():
		a.buckets[i] = next
		a.setPrevFreeLink(a.addr(next), noOffset)
	case next.isNone():
		a.setNextFree(a.addr(prev), noOffset)
	default:
		a.setNextFree(a.addr(prev), next)
		a.setPrevFreeLink(a.addr(next), prev)
	}
}

// findFit scans buckets starting at bucketOf(wordsNeeded) upward, returning
// the first free block (first fit within each bucket's list) whose size is
// at least wordsNeeded, or 0 ("none") if every bucket is exhausted.
func (a *Allocator) findFit(wordsNeeded uint32) uintptr {
	start := bucketOf(wordsNeeded)
	for i := start; i < numBuckets; i++ {
		if a.bucketIsEmpty(i) {
			continue
		}
		for b := a.bucketHead(i); b != 0; b = a.addr(a.nextFree(b)) {
			if a.size(b) >= wordsNeeded {
				return b
			}
		}
	}
	return 0
}

// growthReduction computes how many bytes extend() can shave off a raw
// request because the heap's highest block (last) is already free and will
// merge with the newly extended region.
func (a *Allocator) growthReduction() int64 {
	if a.last.isNone() {
		return 0
	}
	lastAddr := a.addr(a.last)
	if a.used(lastAddr) {
		return 0
	}
	return mathutil.MaxInt64(int64(a.size(lastAddr))*wordSize, 0)
}
