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

import "sync"

// Fence is a cross-thread signal the dispatch thread raises once every
// command committed ahead of it, in the same FIFO stream, has executed.
// A Fence may be signaled raw or with a uint32 value; Wait never
// returns early on a wakeup that isn't a genuine new signal.
type Fence struct {
	mu         sync.Mutex
	cond       *sync.Cond
	value      int64 // -1 until first SignalValue
	generation uint64
	observed   uint64
}

// NewFence returns an unset Fence.
func NewFence() *Fence {
	f := &Fence{value: -1}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Signal raises the fence without an associated value.
func (f *Fence) Signal() {
	f.mu.Lock()
	f.generation++
	f.mu.Unlock()
	f.cond.Broadcast()
}

// SignalValue raises the fence carrying value, which Wait's caller can
// later observe via Value.
func (f *Fence) SignalValue(value uint32) {
	f.mu.Lock()
	f.value = int64(value)
	f.generation++
	f.mu.Unlock()
	f.cond.Broadcast()
}

// Wait blocks until a signal has landed since this Fence's last
// observed signal - since construction, if Wait has never returned
// before - then records that signal as observed. A Signal that lands
// before Wait is called is not lost: Wait compares against the
// generation already observed, not against the generation at the
// moment Wait was entered, so a signal racing ahead of the waiter still
// lets it through immediately.
func (f *Fence) Wait() {
	f.mu.Lock()
	defer f.mu.Unlock()
	start := f.observed
	for f.generation == start {
		f.cond.Wait()
	}
	f.observed = f.generation
}

// Value returns the most recently signaled value, or -1 if the fence
// has never carried a value.
func (f *Fence) Value() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}
