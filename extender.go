// Copyright 2026 The segalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package segalloc

import (
	"fmt"
	"unsafe"
)

// Extender is the page-extender collaborator: it owns the raw OS memory
// backing the heap and hands out more of it on demand. Extend(delta)
// grows the heap by delta bytes and returns the address of the
// previous break (delta may be 0 to query the current break without
// growing). Lo/Hi report the heap's current inclusive bounds.
type Extender interface {
	Extend(delta int) (base uintptr, ok bool)
	Lo() uintptr
	Hi() uintptr
	PageSize() int
}

// platformReserver is implemented by
// extender_unix.go / extender_windows.go; it isolates the one piece of
// this file that is genuinely OS-specific (reserving address space and
// changing page protection).
type platformReserver interface {
	reserve(size int) (base uintptr, err error)
	commit(base uintptr, size int) error
	release(base uintptr, size int) error
	pageSize() int
}

// VirtualExtender implements Extender over a single large virtual memory
// reservation, committing pages into it lazily as Extend advances the
// break. The reservation's base address never moves once chosen, which
// the implicit block list and footer back-references require.
type VirtualExtender struct {
	plat platformReserver

	base      uintptr
	capacity  int
	committed int // bytes from base currently RW-mapped
	brk       uintptr
	pageSize  int
}

// NewVirtualExtender reserves capacity bytes of virtual address space
// (rounded up to a multiple of the OS page size) and returns an Extender
// ready for use. No physical memory is committed until Extend is called.
func NewVirtualExtender(capacity int) (*VirtualExtender, error) {
	plat := newPlatformReserver()
	pageSize := plat.pageSize()
	capacity = roundUpInt(capacity, pageSize)

	base, err := plat.reserve(capacity)
	if err != nil {
		return nil, fmt.Errorf("segalloc: reserve %d bytes: %w", capacity, err)
	}

	return &VirtualExtender{
		plat:     plat,
		base:     base,
		capacity: capacity,
		brk:      base,
		pageSize: pageSize,
	}, nil
}

func roundUpInt(n, m int) int {
	return m * ((n + m - 1) / m)
}

func (v *VirtualExtender) Extend(delta int) (uintptr, bool) {
	if delta < 0 {
		return 0, false
	}
	used := int(v.brk - v.base)
	needed := used + delta
	if needed > v.capacity {
		return 0, false
	}
	if needed > v.committed {
		commitTo := roundUpInt(needed, v.pageSize)
		if commitTo > v.capacity {
			commitTo = v.capacity
		}
		if err := v.plat.commit(v.base+uintptr(v.committed), commitTo-v.committed); err != nil {
			return 0, false
		}
		v.committed = commitTo
	}

	prev := v.brk
	v.brk += uintptr(delta)
	return prev, true
}

func (v *VirtualExtender) Lo() uintptr { return v.base }
func (v *VirtualExtender) Hi() uintptr {
	if v.brk == v.base {
		return v.base
	}
	return v.brk - 1
}
func (v *VirtualExtender) PageSize() int { return v.pageSize }

// Close releases the reservation. It is not necessary to call Close
// before process exit.
func (v *VirtualExtender) Close() error {
	if v.base == 0 {
		return nil
	}
	err := v.plat.release(v.base, v.capacity)
	v.base = 0
	return err
}

// asSlice exposes the committed region as a byte slice, useful for tests
// that want to sanity-check page contents without unsafe.Pointer math of
// their own.
func (v *VirtualExtender) asSlice() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v.base)), v.committed)
}
