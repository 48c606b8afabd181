// Copyright 2026 The segalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package segalloc

import "errors"

// ErrOOM is returned when the Extender cannot grow the heap any further.
var ErrOOM = errors.New("segalloc: out of memory")

// ErrNotInitialized is returned by operations that require Init to have
// run and cannot lazily initialize themselves. Currently that is only
// Verify, which refuses to walk a heap that was never initialized.
var ErrNotInitialized = errors.New("segalloc: allocator not initialized")
