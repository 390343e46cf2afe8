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
	"os"

	"plotqueue/internal/ioerrors"
)

// dispatchLoop is the dispatch thread body: wait for a ready signal,
// drain the ring in batches of dispatchBatchSize, execute each command
// in strict FIFO order, and repeat until a poison command is seen
// (spec.md §4.E, grounded on DiskBufferQueue.cpp's CommandMain).
func (q *Queue) dispatchLoop() error {
	batch := make([]Command, dispatchBatchSize)
	scratch := make([]byte, q.scratchBlockSize())

	for {
		q.waitReady()

		for {
			n := q.ring.dequeue(batch, len(batch))
			if n == 0 {
				break
			}

			for i := 0; i < n; i++ {
				if batch[i].Type == cmdPoison {
					return nil
				}
				q.executeCommand(&batch[i], scratch)
			}
		}
	}
}

// scratchBlockSize sizes the dispatch thread's private zero-padding
// scratch block. Direct I/O isn't known to be active until the first
// FileSet opens, so this picks a size generous enough for any realistic
// block size; writeToFile re-slices it against the real block size
// once known.
func (q *Queue) scratchBlockSize() int {
	return maxScratchBlockSize
}

// maxScratchBlockSize generously covers the block sizes this package's
// platform files report (a fixed 4096 on Windows and other platforms,
// the filesystem's statfs f_bsize on Linux); a filesystem reporting a
// larger block size than this is out of scope.
const maxScratchBlockSize = 65536

func (q *Queue) executeCommand(cmd *Command, scratch []byte) {
	switch cmd.Type {
	case CmdWriteBuckets:
		q.cmdWriteBuckets(cmd, scratch)
	case CmdWriteFile:
		q.cmdWriteFile(cmd, scratch)
	case CmdReadFile:
		q.cmdReadFile(cmd)
	case CmdSeekFile:
		q.cmdSeekFile(cmd)
	case CmdSeekBucket:
		q.cmdSeekBucket(cmd)
	case CmdReleaseBuffer:
		q.heap.Release(cmd.ReleaseTarget)
	case CmdSignalFence:
		if cmd.FenceValue < 0 {
			cmd.Fence.Signal()
		} else {
			cmd.Fence.SignalValue(uint32(cmd.FenceValue))
		}
	case CmdWaitForFence:
		cmd.Fence.Wait()
	case CmdDeleteFile:
		q.cmdDeleteFile(cmd)
	case CmdDeleteBucket:
		q.cmdDeleteBucket(cmd)
	}
}

// handleIOError routes an I/O failure to the right place: fatal errors
// (every IOFailure today) go through Abort, anything a future error
// constructor marks non-fatal is just logged and the dispatch thread
// keeps running.
func (q *Queue) handleIOError(err error) {
	if err == nil {
		return
	}
	if ioerrors.IsFatal(err) {
		ioerrors.Abort(err)
		return
	}
	q.logger.Warn(err.Error())
}

func (q *Queue) blockSizeOrZero() int64 {
	q.blockSizeMu.Lock()
	defer q.blockSizeMu.Unlock()
	if !q.blockSizeKnown {
		return 0
	}
	return q.blockSize
}

// cmdWriteBuckets writes buf sliced according to sizes across every
// bucket in id's FileSet, one bucket per slice, in order (spec.md
// §4.F, grounded on DiskBufferQueue.cpp's CmdWriteBuckets). In direct
// mode only the block-aligned prefix of each bucket's slice is written
// here; the remainder is the caller's to flush later via WriteFile, so
// this must never zero-pad and write a tail block of its own - doing so
// would write bytes the caller hasn't supplied yet and corrupt the
// layout the next WriteFile call assumes (DiskBufferQueue.cpp:517-522).
func (q *Queue) cmdWriteBuckets(cmd *Command, scratch []byte) {
	set := q.fileSet(cmd.FileId)
	if set == nil {
		return
	}

	direct := q.useDirectIO && q.blockSizeOrZero() > 0
	blockSize := q.blockSizeOrZero()

	offset := int64(0)
	for i, h := range set.files {
		if i >= len(cmd.BucketSizes) {
			break
		}
		size := int64(cmd.BucketSizes[i])
		chunk := cmd.BucketBuffer[offset : offset+size]

		writeSize := size
		if direct {
			writeSize = (size / blockSize) * blockSize
		}

		if err := writeToFile(h.file, writeSize, chunk, scratch, direct, blockSize, set.name, uint32(i)); err != nil {
			q.handleIOError(err)
			return
		}

		advance := size
		if direct {
			advance = roundUpInt64(size, blockSize)
		}
		offset += advance
	}
}

func (q *Queue) cmdWriteFile(cmd *Command, scratch []byte) {
	set := q.fileSet(cmd.FileId)
	if set == nil || int(cmd.Bucket) >= len(set.files) {
		return
	}
	h := set.files[cmd.Bucket]

	if err := writeToFile(h.file, int64(cmd.Size), cmd.Buffer, scratch, q.useDirectIO, q.blockSizeOrZero(), set.name, cmd.Bucket); err != nil {
		q.handleIOError(err)
	}
}

func (q *Queue) cmdReadFile(cmd *Command) {
	set := q.fileSet(cmd.FileId)
	if set == nil || int(cmd.Bucket) >= len(set.files) {
		return
	}
	h := set.files[cmd.Bucket]

	if err := readFromFile(h.file, int64(cmd.Size), cmd.Buffer, q.useDirectIO, q.blockSizeOrZero(), set.name, cmd.Bucket); err != nil {
		q.handleIOError(err)
	}
}

func (q *Queue) cmdSeekFile(cmd *Command) {
	set := q.fileSet(cmd.FileId)
	if set == nil || int(cmd.Bucket) >= len(set.files) {
		return
	}
	h := set.files[cmd.Bucket]

	if _, err := h.file.Seek(cmd.SeekOffset, int(cmd.SeekOrigin)); err != nil {
		q.handleIOError(ioerrors.IOFailure("seek", set.name, cmd.Bucket, err))
	}
}

func (q *Queue) cmdSeekBucket(cmd *Command) {
	set := q.fileSet(cmd.FileId)
	if set == nil {
		return
	}
	for i, h := range set.files {
		if _, err := h.file.Seek(cmd.SeekOffset, int(cmd.SeekOrigin)); err != nil {
			q.handleIOError(ioerrors.IOFailure("seek", set.name, uint32(i), err))
			return
		}
	}
}

// cmdDeleteFile and cmdDeleteBucket report failures but never abort:
// a file that is already gone, or a disk that briefly denies a delete,
// isn't a reason to take down the whole plotting process (spec.md
// §7.5, grounded on DiskBufferQueue.cpp's CmdDeleteFile/CmdDeleteBucket,
// which log and continue).
func (q *Queue) cmdDeleteFile(cmd *Command) {
	set := q.fileSet(cmd.FileId)
	if set == nil || int(cmd.Bucket) >= len(set.files) {
		return
	}
	h := set.files[cmd.Bucket]
	q.deleteHandle(h)
}

func (q *Queue) cmdDeleteBucket(cmd *Command) {
	set := q.fileSet(cmd.FileId)
	if set == nil {
		return
	}
	for _, h := range set.files {
		q.deleteHandle(h)
	}
}

func (q *Queue) deleteHandle(h *fileHandle) {
	if h == nil || h.file == nil {
		return
	}
	if err := h.file.Close(); err != nil {
		q.logger.Warn("failed to close file before delete", "path", h.path, "error", err)
	}
	path := h.path
	h.file = nil
	if err := os.Remove(path); err != nil {
		q.logger.Warn(ioerrors.DeleteFailure(path, err).Error())
	}
}
