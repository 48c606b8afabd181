// Copyright 2026 The segalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package segalloc

import "unsafe"

// A word is the 8-byte unit used for every header, footer and sentinel on
// the heap.
type word uint64

const (
	wordSize  = 8
	dsize     = 16 // double word; also the alignment and the mini block size
	miniSize  = 16
	chunkSize = 1 << 12 // 4 KiB, the default heap-extension granularity

	allocMask     word = 0x1
	prevAllocMask word = 0x2
	prevMiniMask  word = 0x4
	sizeMask      word = ^word(0xF)
)

// pack folds size and the three status bits into one header/footer word.
// size must already be 16-byte aligned; pack does not validate that,
// mirroring the original's unchecked pack().
func pack(size uintptr, alloc, prevAlloc, prevMini bool) word {
	w := word(size)
	if alloc {
		w |= allocMask
	}
	if prevAlloc {
		w |= prevAllocMask
	}
	if prevMini {
		w |= prevMiniMask
	}
	return w
}

func extractSize(w word) uintptr   { return uintptr(w & sizeMask) }
func extractAlloc(w word) bool     { return w&allocMask != 0 }
func extractPrevAlloc(w word) bool { return w&prevAllocMask != 0 }
func extractPrevMini(w word) bool  { return w&prevMiniMask != 0 }

// readWord/writeWord (header and footer words) and readPtr/writePtr
// (free-list link slots) are the accessors that dereference a raw heap
// address for block metadata; the other helpers in this file are built
// on top of them. The heap backing these addresses is obtained from an Extender
// (committed OS pages, not Go-managed memory), so holding their
// addresses as plain uintptr values between calls is safe: the Go
// garbage collector never relocates or reclaims that memory.
func readWord(addr uintptr) word {
	return *(*word)(unsafe.Pointer(addr))
}

func writeWord(addr uintptr, w word) {
	*(*word)(unsafe.Pointer(addr)) = w
}

func readPtr(addr uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(addr))
}

func writePtr(addr uintptr, v uintptr) {
	*(*uintptr)(unsafe.Pointer(addr)) = v
}

func getSize(addr uintptr) uintptr   { return extractSize(readWord(addr)) }
func getAlloc(addr uintptr) bool     { return extractAlloc(readWord(addr)) }
func getPrevAlloc(addr uintptr) bool { return extractPrevAlloc(readWord(addr)) }
func getPrevMini(addr uintptr) bool  { return extractPrevMini(readWord(addr)) }

func footerAddr(addr, size uintptr) uintptr { return addr + size - wordSize }

// nextLinkAddr and prevLinkAddr locate the doubly-linked-list pointer
// slots of a free regular block (size >= 32); miniNextAddr locates the
// singly-linked slot of a free mini block (size == 16). All three live
// immediately after the header, matching the layout in the data model:
// the first 16 bytes of a free block's body are {next, prev}.
func nextLinkAddr(addr uintptr) uintptr { return addr + wordSize }
func prevLinkAddr(addr uintptr) uintptr { return addr + 2*wordSize }
func miniNextAddr(addr uintptr) uintptr { return addr + wordSize }

// writeHF rewrites a block's header (and, for a free non-mini block, its
// footer) with new prevAlloc/prevMini bits while leaving the block's own
// size and alloc status untouched. It is the mechanism by which writing
// one block keeps its physical successor's back-reference bits honest.
func writeHF(addr uintptr, prevAlloc, prevMini bool) {
	size := getSize(addr)
	alloc := getAlloc(addr)
	w := pack(size, alloc, prevAlloc, prevMini)
	writeWord(addr, w)
	if !alloc && size > miniSize {
		writeWord(footerAddr(addr, size), w)
	}
}

// writeEpilogue writes the zero-sized allocated sentinel at addr. The
// prevAlloc/prevMini bits passed here are only a placeholder: whatever
// block is written immediately afterwards at addr's predecessor will
// overwrite them via writeBlock's trailing writeHF call, the same
// seed-then-overwrite sequencing extend_heap relies on in the original.
func writeEpilogue(addr uintptr, prevAlloc, prevMini bool) {
	writeWord(addr, pack(0, true, prevAlloc, prevMini))
}

// writeBlock writes a complete block header (and footer, if free and not
// mini) at addr, then propagates this block's own alloc status and
// mini-ness forward onto the physically next block's prevAlloc/prevMini
// bits. It is the single point responsible for keeping the back-reference
// invariant (I2) true after any structural write.
func writeBlock(addr, size uintptr, alloc, prevAlloc, prevMini bool) {
	curMini := size == miniSize
	w := pack(size, alloc, prevAlloc, prevMini)
	writeWord(addr, w)
	if !alloc && !curMini {
		writeWord(footerAddr(addr, size), w)
	}
	writeHF(addr+size, alloc, curMini)
}

// findNext returns the physically next block. addr must not be the
// epilogue (getSize(addr) must be > 0).
func findNext(addr uintptr) uintptr {
	return addr + getSize(addr)
}

// findPrev returns the physically previous block and true, or
// (0, false) if addr is the first real block on the heap.
func findPrev(addr uintptr) (uintptr, bool) {
	if getPrevMini(addr) {
		return addr - miniSize, true
	}
	footer := readWord(addr - wordSize)
	size := extractSize(footer)
	if size == 0 {
		return 0, false
	}
	return addr - size, true
}
