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
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func openTestFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.OpenFile(filepath.Join(t.TempDir(), "data.tmp"), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWriteReadBufferedRoundTrip(t *testing.T) {
	f := openTestFile(t)
	data := []byte("the quick brown fox jumps over the lazy dog")

	if err := writeToFile(f, int64(len(data)), data, nil, false, 0, "test", 0); err != nil {
		t.Fatalf("writeToFile: %v", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		t.Fatalf("Seek: %v", err)
	}

	got := make([]byte, len(data))
	if err := readFromFile(f, int64(len(data)), got, false, 0, "test", 0); err != nil {
		t.Fatalf("readFromFile: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("got %q, want %q", got, data)
	}
}

func TestWriteDirectModePadsTailToBlockSize(t *testing.T) {
	f := openTestFile(t)
	const blockSize = int64(512)

	data := make([]byte, 1000) // not a multiple of blockSize
	for i := range data {
		data[i] = byte(i)
	}
	scratch := make([]byte, blockSize)

	if err := writeToFile(f, int64(len(data)), data, scratch, true, blockSize, "test", 0); err != nil {
		t.Fatalf("writeToFile: %v", err)
	}

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	wantFileSize := roundUpInt64(int64(len(data)), blockSize)
	if info.Size() != wantFileSize {
		t.Errorf("file size = %d, want %d (block-aligned)", info.Size(), wantFileSize)
	}

	// The logical content, read back in direct mode, must match
	// despite the on-disk tail padding.
	if _, err := f.Seek(0, 0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	got := make([]byte, wantFileSize)
	if err := readFromFile(f, int64(len(data)), got, true, blockSize, "test", 0); err != nil {
		t.Fatalf("readFromFile: %v", err)
	}
	if !bytes.Equal(got[:len(data)], data) {
		t.Error("logical content differs after direct-mode round trip")
	}
	for i := len(data); i < len(got); i++ {
		if got[i] != 0 {
			t.Fatalf("tail padding byte %d = %d, want 0", i, got[i])
		}
	}
}

func TestWriteDirectModeExactMultipleNeedsNoPadding(t *testing.T) {
	f := openTestFile(t)
	const blockSize = int64(512)

	data := make([]byte, 1024) // exact multiple of blockSize
	for i := range data {
		data[i] = byte(i % 7)
	}

	if err := writeToFile(f, int64(len(data)), data, make([]byte, blockSize), true, blockSize, "test", 0); err != nil {
		t.Fatalf("writeToFile: %v", err)
	}

	info, _ := f.Stat()
	if info.Size() != int64(len(data)) {
		t.Errorf("file size = %d, want %d (no padding expected)", info.Size(), len(data))
	}
}

func TestRoundUpAndCeilDiv(t *testing.T) {
	cases := []struct{ n, boundary, want int64 }{
		{0, 512, 0},
		{1, 512, 512},
		{512, 512, 512},
		{513, 512, 1024},
	}
	for _, c := range cases {
		if got := roundUpInt64(c.n, c.boundary); got != c.want {
			t.Errorf("roundUpInt64(%d, %d) = %d, want %d", c.n, c.boundary, got, c.want)
		}
	}

	if got := ceilDivInt64(1000, 512); got != 2 {
		t.Errorf("ceilDivInt64(1000, 512) = %d, want 2", got)
	}
	if got := ceilDivInt64(1024, 512); got != 2 {
		t.Errorf("ceilDivInt64(1024, 512) = %d, want 2", got)
	}
}
