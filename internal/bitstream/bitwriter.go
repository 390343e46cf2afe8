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

package bitstream

import "math/bits"

// BitWriter accumulates MSB-first bit fields, the inverse of BitReader.
// original_source/util/BitView.h doesn't give a matching writer; this
// one exists so BitReader's round-trip behavior is directly testable.
type BitWriter struct {
	fields   []uint64
	sizeBits uint64
}

// NewBitWriter returns an empty BitWriter with room pre-allocated for
// capacityBits bits.
func NewBitWriter(capacityBits uint64) *BitWriter {
	fieldCount := (capacityBits + 63) / 64
	return &BitWriter{fields: make([]uint64, 0, fieldCount)}
}

// WriteBits64 appends the low n bits (1 <= n <= 64) of value, MSB-first.
func (w *BitWriter) WriteBits64(value uint64, n uint32) {
	if n < 64 {
		value &= (uint64(1) << n) - 1
	}

	fieldIndex := w.sizeBits >> 6
	bitsAvailable := uint32(((fieldIndex + 1) * 64) - w.sizeBits)

	for uint64(len(w.fields)) <= fieldIndex {
		w.fields = append(w.fields, 0)
	}

	if bitsAvailable >= n {
		w.fields[fieldIndex] |= value << (bitsAvailable - n)
	} else {
		overflow := n - bitsAvailable
		w.fields[fieldIndex] |= value >> overflow

		for uint64(len(w.fields)) <= fieldIndex+1 {
			w.fields = append(w.fields, 0)
		}
		w.fields[fieldIndex+1] |= value << (64 - overflow)
	}

	w.sizeBits += uint64(n)
}

// Fields returns the written fields in big-endian-on-disk order - the
// same representation NewBitReader expects - along with the total bit
// count, ready for a round trip through NewBitReader.
func (w *BitWriter) Fields() ([]uint64, uint64) {
	out := make([]uint64, len(w.fields))
	for i, f := range w.fields {
		out[i] = bits.ReverseBytes64(f)
	}
	return out, w.sizeBits
}
