// Copyright 2026 The segalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package segalloc

import "testing"

// layFreeRun carves n consecutive 32-byte blocks starting at a.heapStart,
// marks them all free with correct back-reference bits, and caps the run
// by forcing the block immediately following it allocated — so a test
// driving coalesce directly against a hand-built segList never wanders
// into the real free chunk Init left beyond the run. It does not touch
// the allocator's free list; callers run coalesce against a fresh
// segList of their own.
func layFreeRun(a *Allocator, n int) []uintptr {
	const size = 32
	addrs := make([]uintptr, n)
	addr := a.heapStart
	prevAlloc := true // heapStart's predecessor is the prologue
	for i := 0; i < n; i++ {
		writeBlock(addr, size, false, prevAlloc, false)
		addrs[i] = addr
		addr += size
		prevAlloc = false
	}
	boundary := readWord(addr)
	writeWord(addr, pack(extractSize(boundary), true, false, false))
	return addrs
}

func TestCoalesceNoFreeNeighbors(t *testing.T) {
	a := newTestAllocator(t)
	if err := a.Init(); err != nil {
		t.Fatal(err)
	}
	addr := a.heapStart
	writeBlock(addr, 32, true, true, false) // prev alloc (prologue), next still part of the big free chunk...
	writeBlock(addr, 32, false, true, false)

	// force the physically next block allocated so coalesce has nothing
	// free to merge with on either side
	next := addr + 32
	nh := readWord(next)
	writeWord(next, pack(extractSize(nh), true, false, false))

	var sl segList
	got := coalesce(&sl, addr)
	if got != addr {
		t.Fatalf("coalesce merged when neither neighbor is free: got %#x, want %#x", got, addr)
	}
	if getSize(got) != 32 {
		t.Fatalf("size changed to %d, want 32", getSize(got))
	}
}

func TestCoalesceWithNext(t *testing.T) {
	a := newTestAllocator(t)
	if err := a.Init(); err != nil {
		t.Fatal(err)
	}
	addrs := layFreeRun(a, 2)
	var sl segList
	sl.insert(addrs[1], getSize(addrs[1]))

	got := coalesce(&sl, addrs[0])
	if got != addrs[0] {
		t.Fatalf("got %#x, want %#x", got, addrs[0])
	}
	if want := getSize(addrs[0]); want != 64 {
		t.Fatalf("merged size = %d, want 64", want)
	}
	for cur := sl.heads[class(32)]; cur != 0; cur = readPtr(nextLinkAddr(cur)) {
		if cur == addrs[1] {
			t.Fatal("next block was not removed from its bucket")
		}
	}
}

func TestCoalesceWithPrev(t *testing.T) {
	a := newTestAllocator(t)
	if err := a.Init(); err != nil {
		t.Fatal(err)
	}
	addrs := layFreeRun(a, 2)
	// mark the second block allocated behind coalesce's back, then free
	// it via coalesce to exercise the prev-free merge path
	writeWord(addrs[1], pack(32, true, false, false))

	var sl segList
	sl.insert(addrs[0], 32)

	writeBlock(addrs[1], 32, false, false, false)
	got := coalesce(&sl, addrs[1])
	if got != addrs[0] {
		t.Fatalf("got %#x, want prev block %#x", got, addrs[0])
	}
	if getSize(got) != 64 {
		t.Fatalf("merged size = %d, want 64", getSize(got))
	}
}

func TestCoalesceWithBoth(t *testing.T) {
	a := newTestAllocator(t)
	if err := a.Init(); err != nil {
		t.Fatal(err)
	}
	addrs := layFreeRun(a, 3)
	writeWord(addrs[1], pack(32, true, false, false)) // temporarily allocated

	var sl segList
	sl.insert(addrs[0], 32)
	sl.insert(addrs[2], 32)

	writeBlock(addrs[1], 32, false, false, false)
	got := coalesce(&sl, addrs[1])
	if got != addrs[0] {
		t.Fatalf("got %#x, want %#x", got, addrs[0])
	}
	if getSize(got) != 96 {
		t.Fatalf("merged size = %d, want 96", getSize(got))
	}
}
