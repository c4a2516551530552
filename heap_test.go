// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "testing"

func TestNewProducesEmptyConsistentHeap(t *testing.T) {
	mem := NewMemRegion(0)
	a, err := New(mem)
	if err != nil {
		t.Fatal(err)
	}
	if a.heapStart != a.epilogue {
		t.Fatalf("fresh heap: heapStart %#x != epilogue %#x", a.heapStart, a.epilogue)
	}
	if !a.last.isNone() {
		t.Fatal("fresh heap: last should be none")
	}
	for i := 0; i < numBuckets; i++ {
		if !a.bucketIsEmpty(i) {
			t.Fatalf("fresh heap: bucket %d should be empty", i)
		}
	}
	if err := a.CheckHeap(false); err != nil {
		t.Fatalf("fresh heap fails CheckHeap: %v", err)
	}
}

func TestPaddingForEveryResidue(t *testing.T) {
	for residue := 0; residue < alignQuantum; residue++ {
		addr := uintptr(residue)
		p := paddingFor(addr)
		if p < 0 || p >= alignQuantum {
			t.Fatalf("paddingFor(residue=%d) = %d, out of [0, %d)", residue, p, alignQuantum)
		}
		if got := int(addr+uintptr(p)) % alignQuantum; got != 3*wordSize {
			t.Fatalf("paddingFor(residue=%d): (addr+p) mod %d = %d, want %d", residue, alignQuantum, got, 3*wordSize)
		}
	}
}

func TestExtendCoalescesWithFreeLast(t *testing.T) {
	mem := NewMemRegion(0)
	a, err := New(mem)
	if err != nil {
		t.Fatal(err)
	}

	p, err := a.Alloc(alignQuantum)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Free(p); err != nil {
		t.Fatal(err)
	}
	if a.last.isNone() || a.used(a.addr(a.last)) {
		t.Fatal("expected the freed block to be the free last block")
	}

	q, err := a.Alloc(4 * alignQuantum)
	if err != nil {
		t.Fatal(err)
	}
	if q == 0 {
		t.Fatal("expected a successful allocation")
	}

	if err := a.CheckHeap(false); err != nil {
		t.Fatalf("heap invalid after extend: %v", err)
	}
}
