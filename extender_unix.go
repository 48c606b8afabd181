// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2026 The segalloc Authors.

//go:build darwin || dragonfly || freebsd || linux || openbsd || solaris || netbsd

package segalloc

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// unixReserver commits and releases pages through golang.org/x/sys/unix:
// one PROT_NONE reservation up front, grown by mprotect as Extend
// advances the break. This keeps the heap's base address fixed for the
// lifetime of the Allocator, which the implicit block list and footer
// back-references require.
type unixReserver struct{}

func newPlatformReserver() platformReserver { return unixReserver{} }

func (unixReserver) pageSize() int { return os.Getpagesize() }

func (unixReserver) reserve(size int) (uintptr, error) {
	b, err := unix.Mmap(-1, 0, size, unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return 0, err
	}
	return uintptr(unsafe.Pointer(&b[0])), nil
}

func (unixReserver) commit(base uintptr, size int) error {
	b := unsafe.Slice((*byte)(unsafe.Pointer(base)), size)
	return unix.Mprotect(b, unix.PROT_READ|unix.PROT_WRITE)
}

func (unixReserver) release(base uintptr, size int) error {
	b := unsafe.Slice((*byte)(unsafe.Pointer(base)), size)
	return unix.Munmap(b)
}
