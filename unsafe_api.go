// Copyright 2026 The segalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package segalloc

import "unsafe"

// UnsafeMalloc is like Malloc except it returns an unsafe.Pointer to the
// payload directly, without building a []byte header around it. Useful
// for callers embedding segalloc behind a pointer-based foreign API.
func (a *Allocator) UnsafeMalloc(size int) (unsafe.Pointer, error) {
	if size < 0 {
		panic("segalloc: invalid UnsafeMalloc size")
	}
	if size == 0 {
		return nil, nil
	}
	addr, err := a.allocBlock(size)
	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(addr + wordSize), nil
}

// UnsafeFree is like Free except its argument is an unsafe.Pointer
// acquired from UnsafeMalloc, UnsafeCalloc or UnsafeRealloc. p == nil is
// a no-op.
func (a *Allocator) UnsafeFree(p unsafe.Pointer) {
	if p == nil {
		return
	}
	a.freeBlock(uintptr(p) - wordSize)
}

// UnsafeCalloc is like Calloc except it returns an unsafe.Pointer.
func (a *Allocator) UnsafeCalloc(n, size int) (unsafe.Pointer, error) {
	if n < 0 || size < 0 {
		panic("segalloc: invalid UnsafeCalloc arguments")
	}
	if n == 0 {
		return nil, nil
	}

	un, usz := uint64(n), uint64(size)
	total := un * usz
	if usz != 0 && total/usz != un {
		return nil, nil
	}
	if total > uint64(maxAllocSize) {
		return nil, nil
	}

	p, err := a.UnsafeMalloc(int(total))
	if err != nil || p == nil {
		return p, err
	}

	b := unsafe.Slice((*byte)(p), int(total))
	for i := range b {
		b[i] = 0
	}
	return p, nil
}

// UnsafeRealloc is like Realloc except its argument and result are
// unsafe.Pointer values acquired from / returned to the Unsafe* family.
func (a *Allocator) UnsafeRealloc(p unsafe.Pointer, size int) (unsafe.Pointer, error) {
	if size < 0 {
		panic("segalloc: invalid UnsafeRealloc size")
	}
	if p == nil {
		return a.UnsafeMalloc(size)
	}
	if size == 0 {
		a.UnsafeFree(p)
		return nil, nil
	}

	oldSize := a.UsableSize(p)
	newP, err := a.UnsafeMalloc(size)
	if err != nil {
		return nil, err
	}

	copySize := oldSize
	if size < copySize {
		copySize = size
	}
	dst := unsafe.Slice((*byte)(newP), copySize)
	src := unsafe.Slice((*byte)(p), copySize)
	copy(dst, src)

	a.UnsafeFree(p)
	return newP, nil
}
