// Copyright 2026 The segalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package segalloc

import "github.com/cznic/mathutil"

// numClasses is the number of segregated free list buckets: one for the
// mini class plus 14 power-of-two classes.
const numClasses = 15

// segList is the segregated free list: bucket 0 holds mini (16 byte)
// blocks as a singly linked list; buckets 1..14 hold regular free blocks
// as doubly linked lists. Zero is used as the "no block" sentinel address
// since a real block can never sit at heap address 0.
type segList struct {
	heads [numClasses]uintptr
}

// class maps a block size to its bucket index. Bucket i (i >= 1) holds
// sizes in (2^(i+3), 2^(i+4)], clamped at bucket 14 for anything above
// 2^17 (131072). mathutil.BitLen(size-1) computes ceil(log2(size)) for
// any size > 0.
func class(size uintptr) int {
	if size == miniSize {
		return 0
	}
	i := mathutil.BitLen(int(size-1)) - 4
	if i < 1 {
		i = 1
	}
	if i > numClasses-1 {
		i = numClasses - 1
	}
	return i
}

// insert pushes a free block onto the head of its bucket. Bucket order is
// LIFO: the most recently freed block of a class is the first one
// find_fit or the mini fast-path will see.
func (sl *segList) insert(addr, size uintptr) {
	i := class(size)
	if size == miniSize {
		writePtr(miniNextAddr(addr), sl.heads[0])
		sl.heads[0] = addr
		return
	}
	head := sl.heads[i]
	writePtr(nextLinkAddr(addr), head)
	writePtr(prevLinkAddr(addr), 0)
	if head != 0 {
		writePtr(prevLinkAddr(head), addr)
	}
	sl.heads[i] = addr
}

// delete removes a free block from its bucket. size must be the block's
// current size (its bucket is derived from it), and the block must
// actually be a member of that bucket.
func (sl *segList) delete(addr, size uintptr) {
	i := class(size)
	if size == miniSize {
		if sl.heads[0] == addr {
			sl.heads[0] = readPtr(miniNextAddr(addr))
			writePtr(miniNextAddr(addr), 0)
			return
		}
		prev := sl.heads[0]
		for prev != 0 {
			next := readPtr(miniNextAddr(prev))
			if next == addr {
				writePtr(miniNextAddr(prev), readPtr(miniNextAddr(addr)))
				writePtr(miniNextAddr(addr), 0)
				return
			}
			prev = next
		}
		return
	}

	prev := readPtr(prevLinkAddr(addr))
	next := readPtr(nextLinkAddr(addr))
	if prev == 0 {
		sl.heads[i] = next
	} else {
		writePtr(nextLinkAddr(prev), next)
	}
	if next != 0 {
		writePtr(prevLinkAddr(next), prev)
	}
	writePtr(nextLinkAddr(addr), 0)
	writePtr(prevLinkAddr(addr), 0)
}
