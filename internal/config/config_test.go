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

package config

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/tmp/plot")

	if cfg.BucketCount != 128 {
		t.Errorf("BucketCount = %d, want 128", cfg.BucketCount)
	}
	if cfg.RingCapacity != 64 {
		t.Errorf("RingCapacity = %d, want 64", cfg.RingCapacity)
	}
	if !cfg.UseDirectIO {
		t.Error("UseDirectIO should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig() should validate, got: %v", err)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty work dir", Config{WorkDir: "", BucketCount: 1, HeapSize: 1, RingCapacity: 1}},
		{"zero bucket count", Config{WorkDir: "/tmp", BucketCount: 0, HeapSize: 1, RingCapacity: 1}},
		{"zero heap size", Config{WorkDir: "/tmp", BucketCount: 1, HeapSize: 0, RingCapacity: 1}},
		{"zero ring capacity", Config{WorkDir: "/tmp", BucketCount: 1, HeapSize: 1, RingCapacity: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Errorf("Validate() on %+v should have failed", tt.cfg)
			}
		})
	}
}
