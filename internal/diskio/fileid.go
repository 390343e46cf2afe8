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

// FileId names every logical file set the plotter uses. Bucketed
// FileIds get one file per configured bucket; monolithic ones always
// use a single file regardless of bucket count (spec.md §3, recovered
// concretely from original_source/DiskBufferQueue.cpp's InitFileSet
// call list).
type FileId int

const (
	FileY0 FileId = iota
	FileY1
	FileMetaA0
	FileMetaA1
	FileMetaB0
	FileMetaB1
	FileX
	FileF7
	FileT2L
	FileT2R
	FileT3L
	FileT3R
	FileT4L
	FileT4R
	FileT5L
	FileT5R
	FileT6L
	FileT6R
	FileT7L
	FileT7R
	FileSortKey2
	FileSortKey3
	FileSortKey4
	FileSortKey5
	FileSortKey6
	FileSortKey7
	FileMap2
	FileMap3
	FileMap4
	FileMap5
	FileMap6
	FileMap7
	FileMarkedEntries2
	FileMarkedEntries3
	FileMarkedEntries4
	FileMarkedEntries5
	FileMarkedEntries6
	FilePlot

	fileIdCount
)

type fileSetSpec struct {
	name     string
	bucketed bool // false => monolithic, always 1 file
}

var fileSetSpecs = [fileIdCount]fileSetSpec{
	FileY0:             {"y0", true},
	FileY1:             {"y1", true},
	FileMetaA0:         {"meta_a0", true},
	FileMetaA1:         {"meta_a1", true},
	FileMetaB0:         {"meta_b0", true},
	FileMetaB1:         {"meta_b1", true},
	FileX:              {"x", true},
	FileF7:             {"f7", true},
	FileT2L:            {"table_2_l", false},
	FileT2R:            {"table_2_r", false},
	FileT3L:            {"table_3_l", false},
	FileT3R:            {"table_3_r", false},
	FileT4L:            {"table_4_l", false},
	FileT4R:            {"table_4_r", false},
	FileT5L:            {"table_5_l", false},
	FileT5R:            {"table_5_r", false},
	FileT6L:            {"table_6_l", false},
	FileT6R:            {"table_6_r", false},
	FileT7L:            {"table_7_l", false},
	FileT7R:            {"table_7_r", false},
	FileSortKey2:       {"table_2_key", true},
	FileSortKey3:       {"table_3_key", true},
	FileSortKey4:       {"table_4_key", true},
	FileSortKey5:       {"table_5_key", true},
	FileSortKey6:       {"table_6_key", true},
	FileSortKey7:       {"table_7_key", true},
	FileMap2:           {"table_2_map", true},
	FileMap3:           {"table_3_map", true},
	FileMap4:           {"table_4_map", true},
	FileMap5:           {"table_5_map", true},
	FileMap6:           {"table_6_map", true},
	FileMap7:           {"table_7_map", true},
	FileMarkedEntries2: {"table_2_marks", false},
	FileMarkedEntries3: {"table_3_marks", false},
	FileMarkedEntries4: {"table_4_marks", false},
	FileMarkedEntries5: {"table_5_marks", false},
	FileMarkedEntries6: {"table_6_marks", false},
	FilePlot:           {"plot", false},
}

// String returns the base name used to build this FileId's temp file
// paths.
func (id FileId) String() string {
	if id < 0 || id >= fileIdCount {
		return "invalid"
	}
	return fileSetSpecs[id].name
}

// BucketCountFor returns how many files this FileId opens given the
// queue's configured bucket count: the configured value for bucketed
// FileIds, or 1 for monolithic ones.
func (id FileId) BucketCountFor(configured uint32) uint32 {
	if id < 0 || id >= fileIdCount {
		return 0
	}
	if !fileSetSpecs[id].bucketed {
		return 1
	}
	return configured
}

// allTempFileIds returns every FileId InitAllFileSets opens up front,
// i.e. every FileId except PLOT, which is opened on demand by
// OpenPlotFile.
func allTempFileIds() []FileId {
	ids := make([]FileId, 0, fileIdCount-1)
	for id := FileId(0); id < fileIdCount; id++ {
		if id == FilePlot {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
