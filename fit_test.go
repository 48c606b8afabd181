// Copyright 2026 The segalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package segalloc

import "testing"

// TestFindFitBestOfK seeds a bucket with several qualifying candidates
// and checks that findFit returns the smallest one inspected, not
// merely the first, proving the best-of-k walk actually compares sizes.
func TestFindFitBestOfK(t *testing.T) {
	a := newTestAllocator(t)
	if err := a.Init(); err != nil {
		t.Fatal(err)
	}

	base := a.heapStart
	sizes := []uintptr{96, 80, 112} // inserted in this order, all class 3
	var sl segList
	addr := base
	for _, s := range sizes {
		writeWord(addr, pack(s, false, true, false))
		sl.insert(addr, s)
		addr += 128 // keep candidates well apart; we never coalesce them here
	}

	got, ok := findFit(&sl, 80)
	if !ok {
		t.Fatal("findFit found nothing")
	}
	if getSize(got) != 80 {
		t.Fatalf("findFit returned a block of size %d, want the smallest qualifying one (80)", getSize(got))
	}
}

func TestFindFitMiniFastPath(t *testing.T) {
	a := newTestAllocator(t)
	if err := a.Init(); err != nil {
		t.Fatal(err)
	}

	base := a.heapStart
	writeWord(base, pack(miniSize, false, true, false))
	var sl segList
	sl.insert(base, miniSize)

	got, ok := findFit(&sl, miniSize)
	if !ok || got != base {
		t.Fatalf("findFit(mini) = %#x, %v; want %#x, true", got, ok, base)
	}
}

func TestFindFitNoneQualifies(t *testing.T) {
	var sl segList
	if _, ok := findFit(&sl, 32); ok {
		t.Fatal("findFit succeeded against an empty free list")
	}
}

// TestSplitLeavesRemainder confirms split carves a request down to asize
// and leaves a correctly sized, correctly tagged remainder when the
// leftover is at least one minimum block. addr must be real, committed
// heap memory since split writes through it (and past it, to propagate
// the back-reference bits onto whatever follows).
func TestSplitLeavesRemainder(t *testing.T) {
	a := newTestAllocator(t)
	if err := a.Init(); err != nil {
		t.Fatal(err)
	}
	addr := a.heapStart
	writeBlock(addr, 96, true, true, false)

	remainder, ok := split(addr, 96, 32, true, false)
	if !ok {
		t.Fatal("split reported no remainder for a 64-byte leftover")
	}
	if remainder != addr+32 {
		t.Fatalf("remainder addr = %#x, want %#x", remainder, addr+32)
	}
	if getSize(remainder) != 64 || getAlloc(remainder) {
		t.Fatalf("remainder block malformed: size=%d alloc=%v", getSize(remainder), getAlloc(remainder))
	}
}

func TestSplitTooSmallToSplit(t *testing.T) {
	a := newTestAllocator(t)
	if err := a.Init(); err != nil {
		t.Fatal(err)
	}
	addr := a.heapStart
	writeBlock(addr, 90, true, true, false)

	// 90 - 80 = 10, below miniSize, so split must refuse.
	if _, ok := split(addr, 90, 80, true, false); ok {
		t.Fatal("split should refuse to carve off fewer than miniSize bytes")
	}
}
