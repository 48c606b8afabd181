// Copyright 2026 The segalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package segalloc

// bestOfK bounds how many candidates find_fit inspects per bucket. Strict
// best-fit is O(n) per bucket; first-fit fragments badly over long runs.
// Walking a handful of candidates amortizes to O(k) while keeping most of
// best-fit's compaction benefit. Not a correctness parameter.
const bestOfK = 3

// adjustSize translates a user payload request into the internal,
// 16-byte-aligned block size, including the 8-byte header overhead.
// Requests of 8 bytes or fewer collapse to the 16-byte mini class.
func adjustSize(r uintptr) uintptr {
	if r <= wordSize {
		return miniSize
	}
	return roundUp(r+wordSize, dsize)
}

func roundUp(n, m uintptr) uintptr {
	return m * ((n + m - 1) / m)
}

// findFit locates a free block of at least asize bytes. Bucket 0 (mini)
// is special-cased: since every mini block is exactly 16 bytes, any
// non-empty bucket 0 satisfies an asize-16 request without a size check.
// Otherwise buckets are walked in increasing class order; within each,
// up to bestOfK qualifying candidates are inspected and the smallest is
// kept.
func findFit(sl *segList, asize uintptr) (uintptr, bool) {
	i := class(asize)
	if i == 0 {
		if sl.heads[0] != 0 {
			return sl.heads[0], true
		}
		i = 1
	}

	for ; i < numClasses; i++ {
		cur := sl.heads[i]
		var best uintptr
		limit := bestOfK
		for cur != 0 && limit > 0 {
			if size := getSize(cur); size >= asize {
				if best == 0 || getSize(best) > size {
					best = cur
				}
				limit--
			}
			cur = readPtr(nextLinkAddr(cur))
		}
		if best != 0 {
			return best, true
		}
	}
	return 0, false
}

// place marks a free candidate block allocated, removes it from its
// bucket, and splits off any excess as a new free block, reinserting the
// remainder. asize must already fit within getSize(addr).
func (sl *segList) place(addr, asize uintptr) {
	size := getSize(addr)
	h := readWord(addr)
	prevAlloc := extractPrevAlloc(h)
	prevMini := extractPrevMini(h)

	writeBlock(addr, size, true, prevAlloc, prevMini)
	sl.delete(addr, size)

	if remainder, ok := split(addr, size, asize, prevAlloc, prevMini); ok {
		sl.insert(remainder, getSize(remainder))
	}
}

// split carves addr (currently size bytes, already marked allocated) down
// to asize bytes if the leftover is at least one minimum block (16
// bytes), writing the leftover as a new free block immediately after it.
// It returns the leftover block's address, or (0, false) if the excess
// was too small to split off.
func split(addr, size, asize uintptr, prevAlloc, prevMini bool) (uintptr, bool) {
	if size-asize < miniSize {
		return 0, false
	}

	remainder := addr + asize
	remainderMini := asize == miniSize
	writeBlock(remainder, size-asize, false, true, remainderMini)
	writeBlock(addr, asize, true, prevAlloc, prevMini)
	return remainder, true
}
