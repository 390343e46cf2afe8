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

// Command plotio-bench drives a diskio.Queue against a scratch
// directory: it writes and reads back a configurable number of
// bucketed buffers through the dispatch core and reports throughput,
// exercising the same command surface a plotting phase would.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"golang.org/x/sync/semaphore"

	"plotqueue/internal/config"
	"plotqueue/internal/diskio"
	"plotqueue/internal/logging"
)

func main() {
	workDir := flag.String("work-dir", "", "scratch directory for temp files (required)")
	bucketCount := flag.Uint("buckets", 32, "bucket count")
	heapMiB := flag.Uint64("heap-mib", 64, "work heap size in MiB")
	bufferSize := flag.Uint("buffer-size", 1<<20, "size in bytes of each write/read round")
	rounds := flag.Uint("rounds", 8, "number of write/read rounds per bucket")
	concurrency := flag.Int("concurrency", 4, "max buffers in flight at once")
	direct := flag.Bool("direct-io", true, "use direct I/O when the platform supports it")
	jsonLogs := flag.Bool("json-logs", false, "emit structured JSON log lines")
	flag.Parse()

	if *workDir == "" {
		fmt.Fprintln(os.Stderr, "plotio-bench: -work-dir is required")
		os.Exit(2)
	}

	logging.SetJSONMode(*jsonLogs)
	logger := logging.NewLogger("plotio-bench")

	cfg := config.DefaultConfig(*workDir)
	cfg.BucketCount = uint32(*bucketCount)
	cfg.HeapSize = *heapMiB << 20
	cfg.UseDirectIO = *direct

	q, err := diskio.NewQueue(cfg, make([]byte, cfg.HeapSize))
	if err != nil {
		logger.Error("failed to construct queue", "error", err)
		os.Exit(1)
	}
	defer q.Close()

	if err := q.InitAllFileSets(); err != nil {
		logger.Error("failed to initialize file sets", "error", err)
		os.Exit(1)
	}

	arena := newBoundedArena(*concurrency)
	start := time.Now()
	totalBytes := runBenchmark(q, arena, cfg, *bufferSize, *rounds, logger)

	elapsed := time.Since(start)
	mib := float64(totalBytes) / (1 << 20)
	logger.Info("benchmark complete",
		"bytes", totalBytes,
		"seconds", elapsed.Seconds(),
		"mib_per_sec", mib/elapsed.Seconds(),
	)
}

// boundedArena caps how many work-heap buffers are in flight at once,
// independent of the heap's own sizing, using a counting semaphore the
// way a caller might bound concurrent phases of plotting work.
type boundedArena struct {
	sem *semaphore.Weighted
}

func newBoundedArena(n int) *boundedArena {
	if n < 1 {
		n = 1
	}
	return &boundedArena{sem: semaphore.NewWeighted(int64(n))}
}

func (a *boundedArena) acquire(ctx context.Context) error { return a.sem.Acquire(ctx, 1) }
func (a *boundedArena) release()                          { a.sem.Release(1) }

func runBenchmark(q *diskio.Queue, arena *boundedArena, cfg config.Config, bufferSize uint, rounds uint, logger *logging.Logger) int64 {
	ctx := context.Background()
	var totalBytes int64
	src := rand.New(rand.NewSource(1))

	for round := uint(0); round < rounds; round++ {
		for bucket := uint32(0); bucket < cfg.BucketCount; bucket++ {
			if err := arena.acquire(ctx); err != nil {
				logger.Error("arena acquire failed", "error", err)
				return totalBytes
			}

			buf, err := q.Alloc(int(bufferSize))
			if err != nil {
				logger.Error("alloc failed", "error", err)
				arena.release()
				return totalBytes
			}
			_, _ = src.Read(buf.Bytes()[:bufferSize])

			q.WriteFile(diskio.FileX, bucket, buf.Bytes(), uint32(bufferSize))
			q.SeekFile(diskio.FileX, bucket, 0, diskio.SeekBegin)

			readBack := make([]byte, bufferSize)
			q.ReadFile(diskio.FileX, bucket, readBack, uint32(bufferSize))
			q.ReleaseBuffer(buf)
			q.CommitCommands()

			fence := diskio.NewFence()
			q.SignalFence(fence)
			q.CommitCommands()
			fence.Wait()

			arena.release()
			totalBytes += int64(bufferSize) * 2
		}
	}

	return totalBytes
}
