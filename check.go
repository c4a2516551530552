// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"log"
	"sort"

	"github.com/cznic/sortutil"
)

// CheckHeap walks the live heap and cross-checks it against the structural
// invariants the block/free-list layout must maintain. It is deliberately a
// minimal property checker, not a full leaked/lost-block bitmap reconciler:
// bucket lists are followed through their next links only, and the prev
// links are not verified.
//
// An invariant violation is returned as *InvariantError; treat it as fatal.
func (a *Allocator) CheckHeap(verbose bool) error {
	freeFromWalk := map[uintptr]bool{}
	sumWords := int64(0)
	numBlocks := 0
	prevUsed := true // "no predecessor" is encoded as if the predecessor were used

	cur := a.heapStart
	for cur != a.epilogue {
		h := a.mem.ReadWord(cur)
		szWords := headerSize(h)
		isUsed := headerUsed(h)
		isPrevFree := headerPrevFree(h)

		if szWords < minBlockWords || szWords%alignWords != 0 {
			return &InvariantError{Addr: cur, Msg: "block size is not a legal multiple of the alignment quantum"}
		}

		if isPrevFree != !prevUsed {
			return &InvariantError{Addr: cur, Msg: "PREVFREE bit disagrees with predecessor's USED bit"}
		}

		if !isUsed {
			if prevUsed == false {
				return &InvariantError{Addr: cur, Msg: "two adjacent free blocks were not coalesced"}
			}
			footerVal := a.mem.ReadWord(cur + uintptr(szWords-1)*wordSize)
			if footerVal != h {
				return &InvariantError{Addr: cur, Msg: "free block's header and footer disagree"}
			}
			freeFromWalk[cur] = true
		} else {
			if a.payload(cur)%alignQuantum != 0 {
				return &InvariantError{Addr: cur, Msg: "used block's payload address is not 16-byte aligned"}
			}
		}

		sumWords += int64(szWords)
		numBlocks++

		next := cur + uintptr(szWords)*wordSize
		if next > a.epilogue {
			return &InvariantError{Addr: cur, Msg: "adjacency chain overshot the epilogue"}
		}
		prevUsed = isUsed
		cur = next
	}

	freeFromBuckets := map[uintptr]bool{}
	for i := 0; i < numBuckets; i++ {
		seen := map[uintptr]bool{}
		for b := a.bucketHead(i); b != 0; b = a.addr(a.nextFree(b)) {
			if seen[b] {
				return &InvariantError{Addr: b, Msg: "free-list cycle detected"}
			}
			seen[b] = true

			if a.used(b) {
				return &InvariantError{Addr: b, Msg: "bucket list contains a used block"}
			}
			if bucketOf(a.size(b)) != i {
				return &InvariantError{Addr: b, Msg: "free block is filed in the wrong bucket"}
			}
			if freeFromBuckets[b] {
				return &InvariantError{Addr: b, Msg: "free block present in more than one bucket"}
			}
			freeFromBuckets[b] = true

			if !freeFromWalk[b] {
				return &InvariantError{Addr: b, Msg: "bucket list references an address not on the adjacency chain"}
			}
		}
	}
	if len(freeFromBuckets) != len(freeFromWalk) {
		return &InvariantError{Addr: a.heapStart, Msg: "adjacency chain has free blocks missing from every bucket"}
	}

	if a.last.isNone() {
		if a.heapStart != a.epilogue {
			return &InvariantError{Addr: a.heapStart, Msg: "heap has blocks but last is none"}
		}
	} else {
		lastAddr := a.addr(a.last)
		if lastAddr+uintptr(a.size(lastAddr))*wordSize != a.epilogue {
			return &InvariantError{Addr: lastAddr, Msg: "last does not abut the current epilogue"}
		}
	}

	if wantBytes := int64(a.epilogue - a.heapStart); sumWords*wordSize != wantBytes {
		return &InvariantError{Addr: a.heapStart, Msg: "sum of block sizes disagrees with current break"}
	}

	if verbose {
		addrs := make(sortutil.Int64Slice, 0, len(freeFromWalk))
		for b := range freeFromWalk {
			addrs = append(addrs, int64(b))
		}
		sort.Sort(addrs)
		log.Printf("malloc: heap OK: %d blocks, %d free, break=%#x", numBlocks, len(addrs), a.mem.Break())
	}

	return nil
}
