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

package vio

import (
	"errors"
	"fmt"
)

var (
	// ErrDescriptorMismatch is returned when the three descriptor
	// sequences do not all cover the declared size.
	ErrDescriptorMismatch = errors.New("descriptor sequences shorter than declared size")

	// ErrDescriptorRange is returned when a descriptor's offset/length
	// pair falls outside its backing region.
	ErrDescriptorRange = errors.New("descriptor outside backing region")
)

// Space resolves a buffer handle to its backing region. A lookup failure
// is returned as-is by BuildVector; no additional error is layered on top.
type Space interface {
	View(handle int32) ([]byte, error)
}

// BuildVector converts three parallel descriptor sequences into a
// scatter/gather vector of the declared size. Entry i aliases
// region(handles[i])[offsets[i] : offsets[i]+lengths[i]]; no bytes are
// copied. On any failure the returned vector is nil.
func BuildVector(space Space, handles, offsets, lengths []int32, size int32) ([][]byte, error) {
	n := int(size)
	if n < 0 {
		n = 0
	}
	if len(handles) < n || len(offsets) < n || len(lengths) < n {
		return nil, ErrDescriptorMismatch
	}

	vec := make([][]byte, n)
	for i := 0; i < n; i++ {
		region, err := space.View(handles[i])
		if err != nil {
			return nil, err
		}
		off, length := int64(offsets[i]), int64(lengths[i])
		if off < 0 || length < 0 || off+length > int64(len(region)) {
			return nil, fmt.Errorf("%w: entry %d: [%d:%d) in region of %d bytes",
				ErrDescriptorRange, i, off, off+length, len(region))
		}
		vec[i] = region[off : off+length : off+length]
	}
	return vec, nil
}

// VectorBytes returns the total byte span of a scatter/gather vector.
func VectorBytes(vec [][]byte) int64 {
	var total int64
	for _, region := range vec {
		total += int64(len(region))
	}
	return total
}
