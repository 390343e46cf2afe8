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

import "encoding/binary"

// PlotIdSize is the fixed width, in bytes, of a plot id.
const PlotIdSize = 32

// 10 * 8 bytes reserved for the 10 table pointers
// written into the header once every table has been sized (spec.md
// §4.G), matching the 80-byte reserved block in
// DiskBufferQueue.cpp's OpenPlotFile.
const plotTablePointersSize = 80

var plotMagic = []byte("Proof of Space Plot")

// plotFormatDescription is written verbatim into the header's
// description field.
var plotFormatDescription = []byte("Proof of Space Plot v1.0")

// BuildPlotHeader encodes the plot file header: magic, a 32-byte plot
// id, a 1-byte k, a big-endian 16-bit length-prefixed format
// description, a big-endian 16-bit length-prefixed memo, and 80
// reserved bytes for table pointers filled in later. It returns the
// full header buffer and the byte offset of the reserved table-pointer
// block within it (spec.md §4.G).
func BuildPlotHeader(plotId [PlotIdSize]byte, k byte, memo []byte) (header []byte, tablePointersOffset int64) {
	descLen := len(plotFormatDescription)
	memoLen := len(memo)

	size := len(plotMagic) + PlotIdSize + 1 + 2 + descLen + 2 + memoLen + plotTablePointersSize
	header = alignedBuffer(size, directIOAlignment)

	w := header
	w = w[copy(w, plotMagic):]
	w = w[copy(w, plotId[:]):]

	w[0] = k
	w = w[1:]

	binary.BigEndian.PutUint16(w, uint16(descLen))
	w = w[2:]
	w = w[copy(w, plotFormatDescription):]

	binary.BigEndian.PutUint16(w, uint16(memoLen))
	w = w[2:]
	copy(w, memo)

	tablePointersOffset = int64(size - plotTablePointersSize)
	return header, tablePointersOffset
}

// OpenPlotFile opens the plot file at fileName, builds its header and
// submits a single WriteFile(PLOT, bucket 0, header) command followed
// by a commit. It returns false, without aborting the process, if the
// plot file itself could not be opened - the one recoverable failure
// mode in the registry (spec.md §3/§6).
func (q *Queue) OpenPlotFile(fileName string, plotId [PlotIdSize]byte, k byte, memo []byte) bool {
	ok, _ := q.initFileSet(FilePlot, fileName, 1, true)
	if !ok {
		return false
	}

	header, tablePointersOffset := BuildPlotHeader(plotId, k, memo)

	q.mu.Lock()
	q.plotTablePointersOffset = tablePointersOffset
	q.mu.Unlock()

	cmd := q.acquire(CmdWriteFile)
	cmd.FileId = FilePlot
	cmd.Bucket = 0
	cmd.Buffer = header
	cmd.Size = uint32(len(header))
	q.CommitCommands()

	return true
}
