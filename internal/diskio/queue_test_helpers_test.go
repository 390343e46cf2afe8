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
	"testing"

	"plotqueue/internal/config"
)

// newTestQueue builds a Queue over a temp directory with a small
// bucket count and buffered (non-direct) I/O, suitable for exercising
// dispatch-thread behavior without relying on the test filesystem
// supporting O_DIRECT.
func newTestQueue(t *testing.T) (*Queue, func()) {
	t.Helper()

	cfg := config.DefaultConfig(t.TempDir())
	cfg.BucketCount = 2
	cfg.RingCapacity = 8
	cfg.HeapSize = 1 << 20
	cfg.UseDirectIO = false

	q, err := NewQueue(cfg, make([]byte, cfg.HeapSize))
	if err != nil {
		t.Fatalf("NewQueue: %v", err)
	}
	if err := q.InitAllFileSets(); err != nil {
		t.Fatalf("InitAllFileSets: %v", err)
	}

	return q, func() {
		if err := q.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	}
}

// drain submits a raw fence and blocks until the dispatch thread
// reaches it, guaranteeing everything submitted so far has executed.
func drain(q *Queue) {
	f := NewFence()
	q.SignalFence(f)
	q.CommitCommands()
	f.Wait()
}
