// Copyright 2026 The segalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package segalloc

import "fmt"

// Stats is filled in by Verify on success, the way lldb's Allocator.Verify
// optionally fills an AllocStats for its caller.
type Stats struct {
	TotalBlocks int
	FreeBlocks  int
	AllocBlocks int
	FreeBytes   uintptr
	AllocBytes  uintptr
}

// Verify walks the whole heap and the whole free list, checking the
// prologue and epilogue sentinels, block size alignment and bounds, back-
// reference bit consistency, footer mirroring, coalescing maximality,
// and free-list/class/doubly-linked-list consistency. It does not check
// that every free block is listed in a bucket, nor that every listed
// block is marked free. It is intended for
// debug builds and tests, not the allocation hot path; stats, if
// non-nil, is populated on success.
func (a *Allocator) Verify(stats *Stats) error {
	if !a.started {
		return ErrNotInitialized
	}
	if stats == nil {
		stats = &Stats{}
	} else {
		*stats = Stats{}
	}

	if err := a.verifyImplicitList(stats); err != nil {
		return err
	}
	return a.verifyFreeLists(stats)
}

func (a *Allocator) verifyImplicitList(stats *Stats) error {
	lo, hi := a.ext.Lo(), a.ext.Hi()

	if h := readWord(a.heapStart - wordSize); extractSize(h) != 0 || !extractAlloc(h) {
		return fmt.Errorf("segalloc: prologue at %#x is malformed", a.heapStart-wordSize)
	}

	addr := a.heapStart
	prevWasFree := false
	prevWasAlloc := true // the prologue counts as allocated
	prevWasMini := false

	for {
		h := readWord(addr)
		size := extractSize(h)
		if size == 0 {
			if !extractAlloc(h) {
				return fmt.Errorf("segalloc: epilogue at %#x is not marked allocated", addr)
			}
			break
		}

		if size%dsize != 0 || size < miniSize {
			return fmt.Errorf("segalloc: block at %#x has invalid size %d", addr, size)
		}
		if addr < lo || addr > hi {
			return fmt.Errorf("segalloc: block at %#x out of heap bounds [%#x, %#x]", addr, lo, hi)
		}

		alloc := extractAlloc(h)
		prevAllocBit := extractPrevAlloc(h)
		prevMiniBit := extractPrevMini(h)
		if prevAllocBit != prevWasAlloc {
			return fmt.Errorf("segalloc: block at %#x has stale prev-alloc bit", addr)
		}
		if prevMiniBit != prevWasMini {
			return fmt.Errorf("segalloc: block at %#x has stale prev-mini bit", addr)
		}

		if !alloc && size != miniSize {
			footer := readWord(footerAddr(addr, size))
			if footer != h {
				return fmt.Errorf("segalloc: block at %#x has mismatched header/footer", addr)
			}
		}

		if !alloc {
			if prevWasFree {
				return fmt.Errorf("segalloc: adjacent free blocks ending at %#x", addr)
			}
			stats.FreeBlocks++
			stats.FreeBytes += size
		} else {
			stats.AllocBlocks++
			stats.AllocBytes += size
		}
		stats.TotalBlocks++

		prevWasFree = !alloc
		prevWasAlloc = alloc
		prevWasMini = size == miniSize
		addr += size
	}
	return nil
}

func (a *Allocator) verifyFreeLists(stats *Stats) error {
	lo, hi := a.ext.Lo(), a.ext.Hi()

	seen := map[uintptr]bool{}
	for cur := a.free.heads[0]; cur != 0; cur = readPtr(miniNextAddr(cur)) {
		if seen[cur] {
			return fmt.Errorf("segalloc: cycle in bucket 0 at %#x", cur)
		}
		seen[cur] = true
		if cur < lo || cur > hi {
			return fmt.Errorf("segalloc: bucket 0 member %#x out of bounds", cur)
		}
		if getSize(cur) != miniSize {
			return fmt.Errorf("segalloc: bucket 0 member %#x has size %d", cur, getSize(cur))
		}
	}

	for i := 1; i < numClasses; i++ {
		var tail uintptr
		count := 0
		for cur := a.free.heads[i]; cur != 0; cur = readPtr(nextLinkAddr(cur)) {
			if cur < lo || cur > hi {
				return fmt.Errorf("segalloc: bucket %d member %#x out of bounds", i, cur)
			}
			size := getSize(cur)
			if class(size) != i {
				return fmt.Errorf("segalloc: bucket %d member %#x has class %d", i, cur, class(size))
			}
			if next := readPtr(nextLinkAddr(cur)); next != 0 {
				if readPtr(prevLinkAddr(next)) != cur {
					return fmt.Errorf("segalloc: bucket %d broken symmetry at %#x", i, cur)
				}
			}
			tail = cur
			count++
		}
		back := 0
		for cur := tail; cur != 0; cur = readPtr(prevLinkAddr(cur)) {
			back++
		}
		if back != count {
			return fmt.Errorf("segalloc: bucket %d forward/backward count mismatch (%d vs %d)", i, count, back)
		}
	}
	return nil
}
