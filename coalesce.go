// Copyright 2026 The segalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package segalloc

// coalesce merges addr, a block already marked free but not yet present
// in any bucket, with whichever physical neighbors are also free. It
// returns the address of the resulting block (addr itself, or its
// predecessor if the predecessor absorbed it). The caller is responsible
// for inserting the returned block into its bucket.
func coalesce(sl *segList, addr uintptr) uintptr {
	size := getSize(addr)
	h := readWord(addr)
	prevAlloc := extractPrevAlloc(h)
	prevMini := extractPrevMini(h)
	next := addr + size
	nextFree := !getAlloc(next)

	switch {
	case prevAlloc && !nextFree:
		// Neither neighbor is free; nothing to merge, just keep the
		// header/footer and back-reference bits current.
		writeBlock(addr, size, false, prevAlloc, prevMini)
		return addr

	case prevAlloc && nextFree:
		nsize := getSize(next)
		sl.delete(next, nsize)
		writeBlock(addr, size+nsize, false, prevAlloc, prevMini)
		return addr

	case !prevAlloc && !nextFree:
		prevAddr, ok := findPrev(addr)
		if !ok {
			panic("segalloc: prevAlloc clear on the first heap block")
		}
		psize := getSize(prevAddr)
		sl.delete(prevAddr, psize)
		ph := readWord(prevAddr)
		writeBlock(prevAddr, psize+size, false, extractPrevAlloc(ph), extractPrevMini(ph))
		return prevAddr

	default: // !prevAlloc && nextFree
		prevAddr, ok := findPrev(addr)
		if !ok {
			panic("segalloc: prevAlloc clear on the first heap block")
		}
		psize := getSize(prevAddr)
		nsize := getSize(next)
		sl.delete(prevAddr, psize)
		sl.delete(next, nsize)
		ph := readWord(prevAddr)
		writeBlock(prevAddr, psize+size+nsize, false, extractPrevAlloc(ph), extractPrevMini(ph))
		return prevAddr
	}
}
