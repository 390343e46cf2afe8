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

// CommandType identifies which union member of Command is populated.
type CommandType int

const (
	CmdWriteBuckets CommandType = iota
	CmdWriteFile
	CmdReadFile
	CmdSeekFile
	CmdSeekBucket
	CmdReleaseBuffer
	CmdSignalFence
	CmdWaitForFence
	CmdDeleteFile
	CmdDeleteBucket

	// cmdPoison is an internal, non-exported command the dispatch loop
	// uses to stop on Close. It never reaches executeCommand.
	cmdPoison
)

func (t CommandType) String() string {
	switch t {
	case CmdWriteBuckets:
		return "WriteBuckets"
	case CmdWriteFile:
		return "WriteFile"
	case CmdReadFile:
		return "ReadFile"
	case CmdSeekFile:
		return "SeekFile"
	case CmdSeekBucket:
		return "SeekBucket"
	case CmdReleaseBuffer:
		return "ReleaseBuffer"
	case CmdSignalFence:
		return "SignalFence"
	case CmdWaitForFence:
		return "WaitForFence"
	case CmdDeleteFile:
		return "DeleteFile"
	case CmdDeleteBucket:
		return "DeleteBucket"
	case cmdPoison:
		return "Poison"
	default:
		return "Unknown"
	}
}

// SeekOrigin mirrors os.Seek's whence argument for SeekFile/SeekBucket.
type SeekOrigin int

const (
	SeekBegin SeekOrigin = iota
	SeekCurrent
	SeekEnd
)

// Command is a fixed-size tagged union of every operation the dispatch
// thread can execute, copied by value through the command ring so that
// no command ever outlives the buffer it was staged in
// (spec.md §3/§4.D, grounded on DiskBufferQueue.cpp's Command struct).
// Only the fields relevant to Type are meaningful.
type Command struct {
	Type CommandType

	// WriteBuckets: one buffer sliced into BucketSizes[i]-byte chunks,
	// one chunk per bucket in FileId's FileSet. Chunks lie back to back
	// in buffered mode; in direct mode each chunk starts at the previous
	// chunk's offset plus its size rounded up to the block size.
	BucketBuffer []byte
	BucketSizes  []uint32

	// WriteFile / ReadFile / SeekFile / DeleteFile share these.
	FileId FileId
	Bucket uint32

	// WriteFile / ReadFile
	Buffer []byte
	Size   uint32

	// SeekFile / SeekBucket
	SeekOffset int64
	SeekOrigin SeekOrigin

	// ReleaseBuffer
	ReleaseTarget *Buffer

	// SignalFence / WaitForFence
	Fence      *Fence
	FenceValue int64 // -1 => raw Signal/Wait, >= 0 => value-carrying
}
