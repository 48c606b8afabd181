// Copyright 2026 The segalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package segalloc implements a segregated-fit dynamic memory allocator.
//
// The allocator manages a single, contiguous, monotonically growing heap
// obtained from an Extender (a page-extender abstraction analogous to
// sbrk). Blocks are described by an 8-byte bit-packed header carrying the
// block size, the block's own allocation bit, and two bits describing its
// physically preceding block (whether that block is allocated, and
// whether it is a minimum-sized "mini" block). Free non-mini blocks carry
// a mirrored footer; allocated blocks and free mini blocks do not, which
// is what lets a minimum block settle at 16 bytes.
//
// Free blocks are indexed by a 15-bucket segregated free list: bucket 0
// is a singly linked list of 16-byte mini blocks, buckets 1 through 14
// are doubly linked lists keyed by power-of-two size classes. Freeing a
// block immediately coalesces it with any free physical neighbor, so no
// two physically adjacent blocks are ever both free.
//
// Changelog
//
// 2026-07-31 Initial release.
package segalloc
