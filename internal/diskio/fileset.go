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
	"fmt"
	"os"
	"path/filepath"

	"plotqueue/internal/ioerrors"
)

// fileHandle is one bucket's open file within a FileSet.
type fileHandle struct {
	file *os.File
	path string
}

// FileSet is an indexed collection of named, bucketed file handles
// sharing one block size (spec.md §4.A).
type FileSet struct {
	name  string
	files []*fileHandle
}

// Name returns the FileSet's base name.
func (s *FileSet) Name() string { return s.name }

// BucketCount returns how many file handles this set holds.
func (s *FileSet) BucketCount() int { return len(s.files) }

// initFileSet opens bucketCount handles for id, publishing the file
// set's block size the first time any file set is opened and checking
// every subsequent set against it (spec.md §4.A's "uniform block size"
// invariant). The plot file is the one FileId whose open failure is
// recoverable rather than fatal (spec.md §3).
func (q *Queue) initFileSet(id FileId, path string, bucketCount uint32, isPlotFile bool) (bool, error) {
	handles := make([]*fileHandle, bucketCount)

	for i := uint32(0); i < bucketCount; i++ {
		bucketPath := path
		if !isPlotFile {
			bucketPath = filepath.Join(q.cfg.WorkDir, fmt.Sprintf("%s_%d.tmp", path, i))
		}

		f, blockSize, err := openWorkFile(bucketPath, q.useDirectIO, q.cfg.AllowOpenExisting)
		if err != nil {
			if isPlotFile {
				plotErr := ioerrors.PlotFileOpenFailure(bucketPath, err)
				q.logger.Warn("failed to open plot file", "path", bucketPath, "error", err)
				return false, plotErr
			}
			fatalErr := ioerrors.TempFileOpenFailure(bucketPath, err)
			q.logger.Error(fatalErr.Error())
			ioerrors.Abort(fatalErr)
			return false, fatalErr
		}

		if err := q.checkBlockSize(path, blockSize); err != nil {
			f.Close()
			ioerrors.Abort(err)
			return false, err
		}

		handles[i] = &fileHandle{file: f, path: bucketPath}
	}

	q.setsMu.Lock()
	q.sets[id] = &FileSet{name: path, files: handles}
	q.setsMu.Unlock()

	return true, nil
}

// checkBlockSize publishes the queue's block size on first use and
// fatally rejects any FileSet reporting a different one.
func (q *Queue) checkBlockSize(setName string, blockSize int64) error {
	q.blockSizeMu.Lock()
	defer q.blockSizeMu.Unlock()

	if !q.blockSizeKnown {
		q.blockSize = blockSize
		q.blockSizeKnown = true
		if blockSize > int64(q.heap.alignment) {
			return ioerrors.OutOfMemory("work heap buffer (alignment smaller than discovered block size)")
		}
		return nil
	}

	if blockSize != q.blockSize {
		return ioerrors.BlockSizeMismatch(setName, q.blockSize, blockSize)
	}
	return nil
}

// InitAllFileSets opens every temp FileId (every FileId but PLOT, which
// is opened on demand by OpenPlotFile) using the queue's configured
// bucket count, mirroring the full init sequence in
// DiskBufferQueue.cpp's constructor (SPEC_FULL.md §5, a supplemental
// operation the distilled spec left implicit).
func (q *Queue) InitAllFileSets() error {
	for _, id := range allTempFileIds() {
		bucketCount := id.BucketCountFor(q.cfg.BucketCount)
		if _, err := q.initFileSet(id, id.String(), bucketCount, false); err != nil {
			return err
		}
	}
	return nil
}

func (q *Queue) fileSet(id FileId) *FileSet {
	q.setsMu.RLock()
	defer q.setsMu.RUnlock()
	return q.sets[id]
}
