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

/*
Package diskio implements the asynchronous disk I/O dispatch core: a
single producer stages Commands into a bounded ring, a dedicated
dispatch goroutine drains and executes them in FIFO order, and Fences
let the producer observe "everything submitted before this point has
completed" without blocking on individual commands.

The call sequence a plotting phase follows is: construct a Queue,
InitAllFileSets, then repeatedly Alloc a work buffer, fill it, submit
WriteBuckets/WriteFile/ReadFile/Seek/Delete commands against it,
CommitCommands, and eventually ReleaseBuffer it - synchronizing across
phases with SignalFence/WaitForFence and, at true phase boundaries,
CompletePendingReleases.
*/
package diskio

import (
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"plotqueue/internal/config"
	"plotqueue/internal/ioerrors"
	"plotqueue/internal/logging"
)

const dispatchBatchSize = 64

// Queue is the producer-facing handle onto the dispatch core: it owns
// the command ring, the work heap, the file set registry and the
// dispatch goroutine.
type Queue struct {
	cfg         config.Config
	logger      *logging.Logger
	useDirectIO bool

	ring *commandRing
	heap *WorkHeap

	setsMu sync.RWMutex
	sets   [fileIdCount]*FileSet

	blockSizeMu    sync.Mutex
	blockSize      int64
	blockSizeKnown bool

	readyMu   sync.Mutex
	readyCond *sync.Cond
	readyFlag bool

	mu                      sync.Mutex
	plotTablePointersOffset int64

	group     *errgroup.Group
	closeOnce sync.Once
	closeErr  error
}

// NewQueue constructs a Queue over heapBuffer and starts its dispatch
// goroutine. It does not open any file sets; call InitAllFileSets
// before submitting commands that reference non-plot FileIds.
func NewQueue(cfg config.Config, heapBuffer []byte) (*Queue, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewLogger("diskio")

	useDirectIO := cfg.UseDirectIO
	if useDirectIO && !platformSupportsDirectIO {
		logger.Warn("direct I/O is not supported on this platform, falling back to buffered I/O")
		useDirectIO = false
	}

	// The caller's heapBuffer is plain make([]byte, ...) and isn't
	// guaranteed to start at a block-aligned address, which O_DIRECT
	// writes require; re-home its contents in an aligned allocation
	// rather than assume the caller did that work.
	aligned := alignedBuffer(len(heapBuffer), directIOAlignment)
	copy(aligned, heapBuffer)

	q := &Queue{
		cfg:         cfg,
		logger:      logger,
		useDirectIO: useDirectIO,
		ring:        newCommandRing(cfg.RingCapacity),
		heap:        NewWorkHeap(aligned, directIOAlignment),
	}
	q.readyCond = sync.NewCond(&q.readyMu)

	group := &errgroup.Group{}
	group.Go(q.dispatchLoop)
	q.group = group

	return q, nil
}

// Alloc reserves size bytes from the queue's work heap.
func (q *Queue) Alloc(size int) (*Buffer, error) {
	return q.heap.Alloc(size)
}

// ResetHeap rebinds the work heap's backing storage. Callers must
// ensure the dispatch thread has no outstanding work against the old
// buffer, typically via CompletePendingReleases.
func (q *Queue) ResetHeap(buffer []byte) {
	aligned := alignedBuffer(len(buffer), directIOAlignment)
	copy(aligned, buffer)
	q.heap.ResetHeap(aligned)
}

// acquire stages a command of the given type, logging (once per call)
// and timing any wait caused by a full ring.
func (q *Queue) acquire(cmdType CommandType) *Command {
	start := time.Now()
	waited := false

	slot := q.ring.acquire(cmdType, func() {
		waited = true
		q.logger.Warn(ioerrors.RingFull().Error())
	})

	if waited {
		q.logger.Debug("resumed after ring backpressure", "seconds", time.Since(start).Seconds())
	}
	return slot
}

// CommitCommands publishes every command staged since the previous
// commit and wakes the dispatch thread.
func (q *Queue) CommitCommands() {
	q.ring.commit()
	q.signalReady()
}

func (q *Queue) signalReady() {
	q.readyMu.Lock()
	q.readyFlag = true
	q.readyMu.Unlock()
	q.readyCond.Signal()
}

func (q *Queue) waitReady() {
	q.readyMu.Lock()
	for !q.readyFlag {
		q.readyCond.Wait()
	}
	q.readyFlag = false
	q.readyMu.Unlock()
}

// WriteBuckets submits one write per bucket in id's FileSet, slicing
// buf according to sizes (in direct mode each bucket's slice starts at
// the previous one's offset plus its size rounded up to the block size)
// - callers still own buf until the matching ReleaseBuffer executes.
func (q *Queue) WriteBuckets(id FileId, buf []byte, sizes []uint32) {
	cmd := q.acquire(CmdWriteBuckets)
	cmd.FileId = id
	cmd.BucketBuffer = buf
	cmd.BucketSizes = sizes
}

// WriteFile submits a single-bucket write.
func (q *Queue) WriteFile(id FileId, bucket uint32, buf []byte, size uint32) {
	cmd := q.acquire(CmdWriteFile)
	cmd.FileId = id
	cmd.Bucket = bucket
	cmd.Buffer = buf
	cmd.Size = size
}

// ReadFile submits a single-bucket read into dst.
func (q *Queue) ReadFile(id FileId, bucket uint32, dst []byte, size uint32) {
	cmd := q.acquire(CmdReadFile)
	cmd.FileId = id
	cmd.Bucket = bucket
	cmd.Buffer = dst
	cmd.Size = size
}

// SeekFile submits a seek against a single bucket's file.
func (q *Queue) SeekFile(id FileId, bucket uint32, offset int64, origin SeekOrigin) {
	cmd := q.acquire(CmdSeekFile)
	cmd.FileId = id
	cmd.Bucket = bucket
	cmd.SeekOffset = offset
	cmd.SeekOrigin = origin
}

// SeekBucket submits a seek applied to every bucket in id's FileSet.
func (q *Queue) SeekBucket(id FileId, offset int64, origin SeekOrigin) {
	cmd := q.acquire(CmdSeekBucket)
	cmd.FileId = id
	cmd.SeekOffset = offset
	cmd.SeekOrigin = origin
}

// ReleaseBuffer submits a deferred release of buf: the dispatch thread
// frees it only once every command submitted ahead of this one has
// executed, preserving FIFO safety against in-flight writes/reads.
func (q *Queue) ReleaseBuffer(buf *Buffer) {
	cmd := q.acquire(CmdReleaseBuffer)
	cmd.ReleaseTarget = buf
}

// SignalFence submits a raw fence signal.
func (q *Queue) SignalFence(f *Fence) {
	cmd := q.acquire(CmdSignalFence)
	cmd.Fence = f
	cmd.FenceValue = -1
}

// SignalFenceValue submits a value-carrying fence signal.
func (q *Queue) SignalFenceValue(f *Fence, value uint32) {
	cmd := q.acquire(CmdSignalFence)
	cmd.Fence = f
	cmd.FenceValue = int64(value)
}

// WaitForFence submits a dispatch-thread-side wait: the dispatch
// thread itself blocks on f before executing anything queued after
// this command, letting a producer order its own work against a fence
// raised elsewhere without stalling its own submission.
func (q *Queue) WaitForFence(f *Fence) {
	cmd := q.acquire(CmdWaitForFence)
	cmd.Fence = f
}

// DeleteFile submits deletion of a single bucket's file.
func (q *Queue) DeleteFile(id FileId, bucket uint32) {
	cmd := q.acquire(CmdDeleteFile)
	cmd.FileId = id
	cmd.Bucket = bucket
}

// DeleteBucket submits deletion of every file in id's FileSet.
func (q *Queue) DeleteBucket(id FileId) {
	cmd := q.acquire(CmdDeleteBucket)
	cmd.FileId = id
}

// CompletePendingReleases blocks until every command submitted so far
// has executed, guaranteeing any ReleaseBuffer calls already committed
// have actually freed their heap regions. It is implemented as a
// fence, rather than as WorkHeap-internal bookkeeping, because FIFO
// command order already gives the exact guarantee needed (see
// DESIGN.md).
func (q *Queue) CompletePendingReleases() {
	fence := NewFence()
	q.SignalFence(fence)
	q.CommitCommands()
	fence.Wait()
}

// Close submits a poison command, waits for the dispatch goroutine to
// exit, and closes every open file handle.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() {
		q.ring.acquire(cmdPoison, nil)
		q.CommitCommands()
		q.closeErr = q.group.Wait()
		q.closeAllFiles()
	})
	return q.closeErr
}

func (q *Queue) closeAllFiles() {
	q.setsMu.Lock()
	defer q.setsMu.Unlock()
	for _, set := range q.sets {
		if set == nil {
			continue
		}
		for _, h := range set.files {
			if h != nil && h.file != nil {
				h.file.Close()
			}
		}
	}
}
