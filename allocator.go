// Copyright 2026 The segalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package segalloc

import (
	"fmt"
	"os"
	"unsafe"
)

// trace, when set, makes Malloc/Free/Realloc/Calloc log each call to
// stderr.
var trace = false

func dbgf(format string, args ...interface{}) {
	if !trace {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

// Allocator is a segregated-fit heap allocator over memory obtained from
// an Extender. Its zero value is not ready for use; construct one with
// New or NewDefaultAllocator, since it has no default Extender to fall
// back on.
type Allocator struct {
	ext Extender
	cfg Config

	free      segList
	started   bool
	heapStart uintptr

	allocCount int
	extends    int
	bytes      uintptr
}

// New constructs an Allocator over ext using cfg. The heap is not
// touched until the first Malloc (or an explicit call to Init).
func New(ext Extender, cfg Config) *Allocator {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = chunkSize
	}
	return &Allocator{ext: ext, cfg: cfg}
}

// NewDefaultAllocator wires an Allocator to a VirtualExtender sized from
// DefaultConfig, for callers who don't need a custom Extender.
func NewDefaultAllocator() (*Allocator, error) {
	cfg := DefaultConfig()
	ext, err := NewVirtualExtender(cfg.InitialReserve)
	if err != nil {
		return nil, err
	}
	return New(ext, cfg), nil
}

// Init explicitly initializes the heap: a 16-byte prologue/epilogue pair
// followed by one chunkSize-sized free block. It is implicitly invoked by
// the first Malloc; callers rarely need to call it directly.
func (a *Allocator) Init() error {
	if a.started {
		return nil
	}

	base, ok := a.ext.Extend(dsize)
	if !ok {
		return ErrOOM
	}
	writeWord(base, pack(0, true, false, false))         // prologue
	writeWord(base+wordSize, pack(0, true, true, false)) // epilogue

	a.free = segList{}
	a.heapStart = base + wordSize
	a.started = true
	a.bytes += dsize

	if _, ok := a.extendHeap(a.cfg.ChunkSize); !ok {
		return ErrOOM
	}
	return nil
}

// extendHeap requests size more bytes (rounded up to 16) from the
// Extender, seeds a new free block over the returned region (whose first
// word was, until now, the epilogue), writes a fresh epilogue past it,
// coalesces with the previous block if it was free, and inserts the
// result into the free list.
func (a *Allocator) extendHeap(size uintptr) (uintptr, bool) {
	size = roundUp(size, dsize)

	base, ok := a.ext.Extend(int(size))
	if !ok {
		return 0, false
	}

	// base is the new break; the old epilogue's word sits one word
	// before it and becomes the new block's header, exactly as
	// payload_to_header(bp) recovers a header from a payload address.
	block := base - wordSize

	prevAlloc := getPrevAlloc(block)
	prevMini := getPrevMini(block)

	newEpilogue := block + size
	writeEpilogue(newEpilogue, false, false)
	writeBlock(block, size, false, prevAlloc, prevMini)

	a.extends++
	a.bytes += size

	merged := coalesce(&a.free, block)
	a.free.insert(merged, getSize(merged))
	return merged, true
}

// Malloc allocates size bytes and returns a byte slice over them. The
// slice's length is size; its capacity is the block's full usable
// payload size, which may be larger (see UsableSize). Malloc panics for
// size < 0 and returns (nil, nil) for size == 0.
func (a *Allocator) Malloc(size int) (r []byte, err error) {
	if trace {
		defer func() { dbgf("Malloc(%#x) %p, %v\n", size, firstByte(r), err) }()
	}
	if size < 0 {
		panic("segalloc: invalid Malloc size")
	}
	if size == 0 {
		return nil, nil
	}

	addr, err := a.allocBlock(size)
	if err != nil {
		return nil, err
	}

	asize := getSize(addr)
	payload := addr + wordSize
	usable := int(asize - wordSize)
	return unsafe.Slice((*byte)(unsafe.Pointer(payload)), usable)[:size], nil
}

// allocBlock runs the shared allocate → find_fit → (extend) → place
// pipeline and returns the address of the placed block's header.
func (a *Allocator) allocBlock(size int) (uintptr, error) {
	if !a.started {
		if err := a.Init(); err != nil {
			return 0, err
		}
	}

	asize := adjustSize(uintptr(size))
	addr, ok := findFit(&a.free, asize)
	if !ok {
		extendSize := asize
		if a.cfg.ChunkSize > extendSize {
			extendSize = a.cfg.ChunkSize
		}
		addr, ok = a.extendHeap(extendSize)
		if !ok {
			return 0, ErrOOM
		}
	}

	a.free.place(addr, asize)
	a.allocCount++
	return addr, nil
}

// Free releases a block previously returned by Malloc, Calloc or Realloc.
// A nil slice, or any slice of zero capacity, is a no-op; a zero-length
// slice that still has capacity frees its block.
func (a *Allocator) Free(b []byte) error {
	b = b[:cap(b)]
	if len(b) == 0 {
		return nil
	}
	if trace {
		defer func() { dbgf("Free(%p)\n", &b[0]) }()
	}
	addr := uintptr(unsafe.Pointer(&b[0])) - wordSize
	a.freeBlock(addr)
	return nil
}

func (a *Allocator) freeBlock(addr uintptr) {
	size := getSize(addr)
	h := readWord(addr)
	prevAlloc := extractPrevAlloc(h)
	prevMini := extractPrevMini(h)

	writeBlock(addr, size, false, prevAlloc, prevMini)
	merged := coalesce(&a.free, addr)
	a.free.insert(merged, getSize(merged))
	a.allocCount--
}

// Realloc resizes b to size bytes. If b is nil (or has zero capacity),
// Realloc behaves as Malloc(size). If size is 0, Realloc behaves as
// Free(b) and returns nil. Otherwise it always allocates a fresh block,
// copies min(size, len(b)) bytes, frees b, and returns the new slice; if
// the allocation fails, b is left untouched and Realloc returns nil. It
// deliberately never shrinks a block in place, even when the requested
// size already fits — see DESIGN.md.
func (a *Allocator) Realloc(b []byte, size int) (r []byte, err error) {
	if trace {
		p0 := firstByte(b)
		defer func() { dbgf("Realloc(%p, %#x) %p, %v\n", p0, size, firstByte(r), err) }()
	}
	if size < 0 {
		panic("segalloc: invalid Realloc size")
	}
	if b == nil || cap(b) == 0 {
		return a.Malloc(size)
	}
	if size == 0 {
		return nil, a.Free(b)
	}

	newB, err := a.Malloc(size)
	if err != nil {
		return nil, err
	}

	copy(newB, b)
	if err := a.Free(b); err != nil {
		return nil, err
	}
	return newB, nil
}

// Calloc allocates n*size bytes and zeroes them. It returns (nil, nil) if
// n is 0 or if n*size overflows, without calling Malloc in that case.
func (a *Allocator) Calloc(n, size int) (r []byte, err error) {
	if trace {
		defer func() { dbgf("Calloc(%#x, %#x) %p, %v\n", n, size, firstByte(r), err) }()
	}
	if n < 0 || size < 0 {
		panic("segalloc: invalid Calloc arguments")
	}
	if n == 0 {
		return nil, nil
	}

	un, usz := uint64(n), uint64(size)
	total := un * usz
	if usz != 0 && total/usz != un {
		return nil, nil // overflow
	}
	if total > uint64(maxAllocSize) {
		return nil, nil
	}

	b, err := a.Malloc(int(total))
	if err != nil {
		return nil, err
	}
	for i := range b {
		b[i] = 0
	}
	return b, nil
}

// UsableSize reports the usable payload size of a live allocation's block
// — the same quantity the returned slice's cap() already reflects,
// exposed for callers working through the Unsafe* pointer API.
func (a *Allocator) UsableSize(p unsafe.Pointer) int {
	if p == nil {
		return 0
	}
	addr := uintptr(p) - wordSize
	return int(getSize(addr) - wordSize)
}

// Close releases the Extender's resources, if it implements io.Closer-
// like semantics via a Close() error method. It is not necessary to
// Close the Allocator when exiting a process.
func (a *Allocator) Close() error {
	type closer interface{ Close() error }
	if c, ok := a.ext.(closer); ok {
		return c.Close()
	}
	return nil
}

func firstByte(b []byte) *byte {
	if len(b) == 0 {
		return nil
	}
	return &b[0]
}

const maxAllocSize = int(^uint(0) >> 1)
