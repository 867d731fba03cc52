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

/*
Package buffer implements the FlyIO buffer space.

OVERVIEW:
=========
Callers never hand raw memory across the bridge. Instead they register
byte regions here and refer to them by signed 32-bit handles. A vectored
call names (handle, offset, length) triples; the registry resolves each
handle back to its region and enforces that the triple stays inside it.

REGION KINDS:
=============
- Allocated: a plain heap region of a requested size.
- Mapped: a memory-mapped file (via gommap). Scattering a read into a
  mapped region lands the bytes in the page cache of the backing file;
  gathering a write from one sends file bytes without an extra copy.

HANDLE LIFECYCLE:
=================
Handles are dense positive int32 values, unique per registry, never
reused within one registry's lifetime. Release drops the region (and
unmaps it, for mapped regions); Close releases everything.
*/
package buffer

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/tysonmote/gommap"
)

var (
	// ErrUnknownHandle is returned when a handle does not name a live region.
	ErrUnknownHandle = errors.New("unknown buffer handle")

	// ErrRegistryFull is returned when the registry's capacity is exhausted.
	ErrRegistryFull = errors.New("buffer registry full")

	// ErrNotMapped is returned by Sync on a region with no backing file.
	ErrNotMapped = errors.New("buffer is not file-backed")
)

// region is one registered buffer. Exactly one of data/mmap is the
// backing store; for mapped regions data aliases the mapping.
type region struct {
	data []byte
	mmap gommap.MMap
	file *os.File
}

// Registry is a buffer space: a handle-addressed set of byte regions.
// All methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	regions  map[int32]*region
	next     int32
	capacity int
}

// NewRegistry creates an empty registry holding at most capacity regions.
// capacity <= 0 means unbounded.
func NewRegistry(capacity int) *Registry {
	return &Registry{
		regions:  make(map[int32]*region),
		next:     1,
		capacity: capacity,
	}
}

// Alloc registers a fresh zeroed region of the given size and returns
// its handle.
func (r *Registry) Alloc(size int32) (int32, error) {
	if size < 0 {
		return 0, fmt.Errorf("negative buffer size %d", size)
	}
	return r.add(&region{data: make([]byte, size)})
}

// Register adds a caller-owned region. The registry aliases data rather
// than copying it, so writes through the region are visible to the caller.
func (r *Registry) Register(data []byte) (int32, error) {
	return r.add(&region{data: data})
}

// MapFile memory-maps the whole of f read-write and registers the
// mapping. The file must stay open for the life of the handle; Release
// syncs and unmaps but does not close it.
func (r *Registry) MapFile(f *os.File) (int32, error) {
	mmap, err := gommap.Map(f.Fd(), gommap.PROT_READ|gommap.PROT_WRITE, gommap.MAP_SHARED)
	if err != nil {
		return 0, fmt.Errorf("map %s: %w", f.Name(), err)
	}
	handle, err := r.add(&region{data: mmap, mmap: mmap, file: f})
	if err != nil {
		mmap.UnsafeUnmap()
		return 0, err
	}
	return handle, nil
}

func (r *Registry) add(reg *region) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.capacity > 0 && len(r.regions) >= r.capacity {
		return 0, ErrRegistryFull
	}
	handle := r.next
	r.next++
	r.regions[handle] = reg
	return handle, nil
}

// View resolves a handle to its full backing region. The slice aliases
// the registered memory; it must not be retained past the call that
// needed it.
func (r *Registry) View(handle int32) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.regions[handle]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandle, handle)
	}
	return reg.data, nil
}

// Size returns the byte length of a region.
func (r *Registry) Size(handle int32) (int32, error) {
	view, err := r.View(handle)
	if err != nil {
		return 0, err
	}
	return int32(len(view)), nil
}

// Sync flushes a mapped region to its backing file. Allocated regions
// have nothing to flush and return ErrNotMapped.
func (r *Registry) Sync(handle int32) error {
	r.mu.RLock()
	reg, ok := r.regions[handle]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, handle)
	}
	if reg.mmap == nil {
		return ErrNotMapped
	}
	return reg.mmap.Sync(gommap.MS_SYNC)
}

// Release drops a region. Mapped regions are synced and unmapped first.
func (r *Registry) Release(handle int32) error {
	r.mu.Lock()
	reg, ok := r.regions[handle]
	if ok {
		delete(r.regions, handle)
	}
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, handle)
	}
	return reg.release()
}

func (reg *region) release() error {
	if reg.mmap == nil {
		return nil
	}
	if err := reg.mmap.Sync(gommap.MS_SYNC); err != nil {
		reg.mmap.UnsafeUnmap()
		return err
	}
	return reg.mmap.UnsafeUnmap()
}

// Len returns the number of live regions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.regions)
}

// Close releases every region. The first release failure is returned,
// but all regions are dropped regardless.
func (r *Registry) Close() error {
	r.mu.Lock()
	regions := r.regions
	r.regions = make(map[int32]*region)
	r.mu.Unlock()

	var firstErr error
	for _, reg := range regions {
		if err := reg.release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
