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

//go:build !linux && !windows

package diskio

import "os"

// platformSupportsDirectIO is false on every platform without a wired
// direct-I/O primitive (e.g. darwin, which would need a separate
// F_NOCACHE fcntl path). Queue forces UseDirectIO off and logs a
// one-time warning rather than silently degrading (SPEC_FULL.md §8).
const platformSupportsDirectIO = false

const fallbackBlockSize = 4096

func openWorkFile(path string, direct bool, allowExisting bool) (*os.File, int64, error) {
	flags := os.O_RDWR | os.O_CREATE
	if !allowExisting {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, 0, err
	}
	return f, fallbackBlockSize, nil
}
