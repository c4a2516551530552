// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "testing"

// These mirror the end-to-end scenarios and boundary behaviors the
// specification calls out by name, kept as their own small table rather than
// folded into alloc_test.go's broader coverage so each one stands alone and
// is traceable back to its scenario.

func TestScenarioLIFOReuseOfFreedBlock(t *testing.T) {
	a, err := New(NewMemRegion(0))
	if err != nil {
		t.Fatal(err)
	}
	p, err := a.Alloc(24)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Free(p); err != nil {
		t.Fatal(err)
	}
	q, err := a.Alloc(24)
	if err != nil {
		t.Fatal(err)
	}
	if q != p {
		t.Fatalf("second Alloc(24) = %#x, want reuse of the freed block %#x", q, p)
	}
}

func TestScenarioFreeingTwoNeighborsLeavesOneBlockAtLast(t *testing.T) {
	a, err := New(NewMemRegion(0))
	if err != nil {
		t.Fatal(err)
	}
	pa, err := a.Alloc(32)
	if err != nil {
		t.Fatal(err)
	}
	pb, err := a.Alloc(32)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Free(pa); err != nil {
		t.Fatal(err)
	}
	if err := a.Free(pb); err != nil {
		t.Fatal(err)
	}

	if a.last.isNone() {
		t.Fatal("expected a free block at last")
	}
	lastAddr := a.addr(a.last)
	if a.used(lastAddr) {
		t.Fatal("last block should be free")
	}
	if got, want := usableBytes(a.size(lastAddr)), 64; got < want {
		t.Fatalf("coalesced free block usable bytes = %d, want >= %d", got, want)
	}
	if next := a.nextAdjacent(lastAddr); next != 0 {
		t.Fatal("last block should abut the epilogue")
	}
	if err := a.CheckHeap(false); err != nil {
		t.Fatal(err)
	}
}

func TestScenarioThreeWayCoalesce(t *testing.T) {
	a, err := New(NewMemRegion(0))
	if err != nil {
		t.Fatal(err)
	}
	pa, err := a.Alloc(32)
	if err != nil {
		t.Fatal(err)
	}
	pb, err := a.Alloc(32)
	if err != nil {
		t.Fatal(err)
	}
	pc, err := a.Alloc(32)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Free(pa); err != nil {
		t.Fatal(err)
	}
	if err := a.Free(pc); err != nil {
		t.Fatal(err)
	}
	if err := a.Free(pb); err != nil {
		t.Fatal(err)
	}

	if a.last.isNone() {
		t.Fatal("expected a single free block after the three-way coalesce")
	}
	lastAddr := a.addr(a.last)
	if lastAddr != headerFromPayload(pa) {
		t.Fatalf("coalesced block address = %#x, want %#x (the lowest-addressed of the three)", lastAddr, headerFromPayload(pa))
	}
	if next := a.nextAdjacent(lastAddr); next != 0 {
		t.Fatal("coalesced block should abut the epilogue with nothing after it")
	}
	if err := a.CheckHeap(false); err != nil {
		t.Fatal(err)
	}
}

func TestScenarioReallocPreservesContentAndFreesOld(t *testing.T) {
	a, err := New(NewMemRegion(0))
	if err != nil {
		t.Fatal(err)
	}
	p, err := a.Alloc(100)
	if err != nil {
		t.Fatal(err)
	}
	want := make([]byte, 100)
	for i := range want {
		want[i] = byte(i)
	}
	a.mem.WriteAt(p, want)

	q, err := a.Realloc(p, 200)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]byte, 100)
	a.mem.ReadAt(q, got)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], want[i])
		}
	}
	if b := headerFromPayload(p); a.used(b) {
		t.Fatal("old block should have been freed by Realloc")
	}
}

func TestScenarioCallocZeroesEntireRegion(t *testing.T) {
	a, err := New(NewMemRegion(0))
	if err != nil {
		t.Fatal(err)
	}
	p, err := a.Calloc(10, 16)
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 160)
	a.mem.ReadAt(p, buf)
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d = %d, want 0", i, b)
		}
	}
}

func TestScenarioSequentialAllocGrowsMonotonicallyAndStaysDistinct(t *testing.T) {
	a, err := New(NewMemRegion(0))
	if err != nil {
		t.Fatal(err)
	}
	seen := map[uintptr]bool{}
	prevBreak := a.mem.Break()
	for i := 0; i < 1000; i++ {
		p, err := a.Alloc(48)
		if err != nil {
			t.Fatal(err)
		}
		if got := a.mem.Break(); got < prevBreak {
			t.Fatalf("Alloc(48) iteration %d: break moved down from %#x to %#x", i, prevBreak, got)
		}
		prevBreak = a.mem.Break()
		if p%alignQuantum != 0 {
			t.Fatalf("Alloc(48) iteration %d = %#x, not 16-byte aligned", i, p)
		}
		if seen[p] {
			t.Fatalf("Alloc(48) iteration %d returned duplicate pointer %#x", i, p)
		}
		seen[p] = true
	}
	if got, want := a.mem.Break(), a.heapStart; got <= want {
		t.Fatal("heap did not grow across 1000 allocations")
	}
	// Each 48-byte request rounds up to a 64-byte block (4 header + 48
	// payload rounds to 64), so 1000 of them occupy ~64000 bytes of blocks.
	wantMin := uintptr(1000 * 64)
	if got := a.epilogue - a.heapStart; got < wantMin {
		t.Fatalf("block region size = %d bytes, want at least %d", got, wantMin)
	}
	if err := a.CheckHeap(false); err != nil {
		t.Fatal(err)
	}
}

// TestScenarioSplittingThreshold checks the documented boundary. Since every
// block size is a multiple of the 16-byte alignment quantum, the leftover
// after placement is always a multiple of minBlockWords too: an exact fit
// (0 leftover words) never splits, while a minBlockWords leftover — the
// smallest possible nonzero leftover, corresponding to the spec's "k+16
// bytes" case — always does.
func TestScenarioSplittingThreshold(t *testing.T) {
	t.Run("no split on an exact fit", func(t *testing.T) {
		a, err := New(NewMemRegion(0))
		if err != nil {
			t.Fatal(err)
		}
		neededWords := roundUpWords(wordSize + 16) // a 16-byte request
		b, err := a.extend(int(neededWords) * wordSize)
		if err != nil {
			t.Fatal(err)
		}
		if a.used(b) {
			t.Fatal("precondition: block should start free")
		}
		a.place(b, neededWords)
		if got := a.size(b); got != neededWords {
			t.Fatalf("exact-fit placement changed block size to %d, want untouched %d", got, neededWords)
		}
	})

	t.Run("split at the threshold", func(t *testing.T) {
		a, err := New(NewMemRegion(0))
		if err != nil {
			t.Fatal(err)
		}
		neededWords := roundUpWords(wordSize + 16)
		freeWords := neededWords + minBlockWords
		b, err := a.extend(int(freeWords) * wordSize)
		if err != nil {
			t.Fatal(err)
		}
		a.place(b, neededWords)
		if got := a.size(b); got != neededWords {
			t.Fatalf("split placement left block size %d, want %d", got, neededWords)
		}
		remainder := b + uintptr(neededWords)*wordSize
		if got := a.size(remainder); got != minBlockWords {
			t.Fatalf("remainder size = %d, want %d", got, minBlockWords)
		}
		if a.used(remainder) {
			t.Fatal("remainder should be free")
		}
	})
}
