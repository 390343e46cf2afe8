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

//go:build linux

package diskio

import (
	"os"

	"golang.org/x/sys/unix"
)

const platformSupportsDirectIO = true

// openWorkFile opens path for read/write, creating it (and truncating
// unless allowExisting) the way the original debug-build escape hatch
// does, and reports the underlying filesystem's block size via
// statfs(2) (spec.md §3, grounded on other_examples' x/sys/unix use for
// O_DIRECT file handling).
func openWorkFile(path string, direct bool, allowExisting bool) (*os.File, int64, error) {
	flags := os.O_RDWR | os.O_CREATE
	if !allowExisting {
		flags |= os.O_TRUNC
	}

	sysFlags := unix.O_LARGEFILE
	if direct {
		sysFlags |= unix.O_DIRECT
	}

	f, err := os.OpenFile(path, flags|sysFlags, 0o644)
	if err != nil {
		return nil, 0, err
	}

	var stat unix.Statfs_t
	if err := unix.Fstatfs(int(f.Fd()), &stat); err != nil {
		f.Close()
		return nil, 0, err
	}

	return f, int64(stat.Bsize), nil
}
