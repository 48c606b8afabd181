// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2026 The segalloc Authors.

//go:build windows

package segalloc

import (
	"golang.org/x/sys/windows"
)

// windowsReserver reserves address space with VirtualAlloc(MEM_RESERVE)
// and commits pages into it with VirtualAlloc(MEM_COMMIT), keeping the
// reservation's base address fixed for the Allocator's lifetime.
type windowsReserver struct{}

func newPlatformReserver() platformReserver { return windowsReserver{} }

func (windowsReserver) pageSize() int { return 4096 }

func (windowsReserver) reserve(size int) (uintptr, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_RESERVE, windows.PAGE_NOACCESS)
	if err != nil {
		return 0, err
	}
	return addr, nil
}

func (windowsReserver) commit(base uintptr, size int) error {
	_, err := windows.VirtualAlloc(base, uintptr(size), windows.MEM_COMMIT, windows.PAGE_READWRITE)
	return err
}

func (windowsReserver) release(base uintptr, size int) error {
	return windows.VirtualFree(base, 0, windows.MEM_RELEASE)
}
