/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package diskio

import (
	"sync"

	"plotqueue/internal/ioerrors"
)

// WorkHeap is a bump-and-release arena backing every scratch buffer the
// producer hands to the dispatch thread. Producers allocate forward
// from a write cursor; buffers are released (usually by the
// ReleaseBuffer command, once the dispatch thread reaches it) in
// roughly allocation order, and the oldest still-outstanding
// allocation's offset is the "floor" past which the write cursor may
// not wrap (spec.md §4.B, grounded in the reservation/release style of
// other_examples/ipfs-go-qringbuf's QuantizedRingBuffer).
//
// Unlike the command ring, WorkHeap never blocks the caller: a phase's
// heap size is a sizing decision the caller makes up front, so
// exhaustion here means the heap was undersized, not a rate mismatch,
// and is reported as a fatal OutOfMemory error.
type WorkHeap struct {
	mu          sync.Mutex
	data        []byte
	alignment   int
	writeOffset int
	outstanding []*liveRegion
}

type liveRegion struct {
	offset, length int
	released       bool
}

// Buffer is a live allocation returned by WorkHeap.Alloc. It must be
// released, usually by enqueuing a ReleaseBuffer command, exactly once.
type Buffer struct {
	heap   *WorkHeap
	region *liveRegion
}

// Bytes returns the allocated region's backing slice.
func (b *Buffer) Bytes() []byte {
	return b.heap.data[b.region.offset : b.region.offset+b.region.length]
}

// Len returns the aligned allocation size, which may be larger than
// the size originally requested.
func (b *Buffer) Len() int {
	return b.region.length
}

// NewWorkHeap creates a WorkHeap over buffer, rounding every allocation
// up to alignment bytes. alignment must be >= any FileSet's discovered
// block size; Queue enforces that once block size discovery completes.
func NewWorkHeap(buffer []byte, alignment int) *WorkHeap {
	if alignment <= 0 {
		alignment = 1
	}
	return &WorkHeap{data: buffer, alignment: alignment}
}

// Alloc reserves size bytes (rounded up to the heap's alignment) and
// returns a Buffer, or an error if the heap has no room for it.
func (h *WorkHeap) Alloc(size int) (*Buffer, error) {
	aligned := roundUpInt(size, h.alignment)

	h.mu.Lock()
	defer h.mu.Unlock()

	floor := len(h.data)
	if len(h.outstanding) > 0 {
		floor = h.outstanding[0].offset
	}

	if h.writeOffset+aligned > len(h.data) {
		// Wrapping is only possible while the cursor is still above the
		// oldest live allocation, and only if the request fits below it.
		if len(h.outstanding) > 0 && (h.writeOffset <= floor || aligned > floor) {
			return nil, ioerrors.OutOfMemory("work heap buffer (no room to wrap before the oldest live allocation)")
		}
		h.writeOffset = 0
		if len(h.outstanding) == 0 {
			floor = len(h.data)
		}
	}

	if len(h.outstanding) > 0 && h.writeOffset <= floor && h.writeOffset+aligned > floor {
		return nil, ioerrors.OutOfMemory("work heap buffer (would overlap the oldest live allocation)")
	}

	region := &liveRegion{offset: h.writeOffset, length: aligned}
	h.outstanding = append(h.outstanding, region)
	h.writeOffset += aligned

	return &Buffer{heap: h, region: region}, nil
}

// Release returns buf's region to the heap. Because allocations are
// reclaimed oldest-first, a buffer released out of order only marks
// itself as free; the write cursor's floor advances once every older
// outstanding allocation has also been released.
func (h *WorkHeap) Release(buf *Buffer) {
	h.mu.Lock()
	buf.region.released = true
	for len(h.outstanding) > 0 && h.outstanding[0].released {
		h.outstanding = h.outstanding[1:]
	}
	h.mu.Unlock()
}

// ResetHeap rebinds the heap's backing storage, discarding any
// outstanding allocations. Callers must ensure the dispatch thread is
// idle (e.g. via CompletePendingReleases) before calling this.
func (h *WorkHeap) ResetHeap(buffer []byte) {
	h.mu.Lock()
	h.data = buffer
	h.writeOffset = 0
	h.outstanding = h.outstanding[:0]
	h.mu.Unlock()
}

func roundUpInt(n, boundary int) int {
	if boundary <= 0 {
		return n
	}
	return (n + boundary - 1) / boundary * boundary
}
