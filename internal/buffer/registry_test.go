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

package buffer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAllocAndView(t *testing.T) {
	r := NewRegistry(0)
	defer r.Close()

	handle, err := r.Alloc(64)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if handle <= 0 {
		t.Errorf("Expected positive handle, got %d", handle)
	}

	view, err := r.View(handle)
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if len(view) != 64 {
		t.Errorf("Expected 64-byte region, got %d", len(view))
	}

	size, err := r.Size(handle)
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != 64 {
		t.Errorf("Expected size 64, got %d", size)
	}
}

func TestAllocNegativeSize(t *testing.T) {
	r := NewRegistry(0)
	defer r.Close()

	if _, err := r.Alloc(-1); err == nil {
		t.Error("Expected error for negative size")
	}
}

func TestRegisterAliases(t *testing.T) {
	r := NewRegistry(0)
	defer r.Close()

	data := []byte("hello")
	handle, err := r.Register(data)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	view, err := r.View(handle)
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	view[0] = 'H'
	if data[0] != 'H' {
		t.Error("Expected view to alias the registered region")
	}
}

func TestHandlesUniqueAndNotReused(t *testing.T) {
	r := NewRegistry(0)
	defer r.Close()

	h1, _ := r.Alloc(8)
	h2, _ := r.Alloc(8)
	if h1 == h2 {
		t.Fatalf("Expected distinct handles, both are %d", h1)
	}

	if err := r.Release(h1); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	h3, _ := r.Alloc(8)
	if h3 == h1 {
		t.Errorf("Handle %d was reused after release", h1)
	}
}

func TestUnknownHandle(t *testing.T) {
	r := NewRegistry(0)
	defer r.Close()

	if _, err := r.View(99); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("Expected ErrUnknownHandle from View, got %v", err)
	}
	if err := r.Release(99); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("Expected ErrUnknownHandle from Release, got %v", err)
	}
	if err := r.Sync(99); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("Expected ErrUnknownHandle from Sync, got %v", err)
	}
}

func TestCapacityLimit(t *testing.T) {
	r := NewRegistry(2)
	defer r.Close()

	if _, err := r.Alloc(8); err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if _, err := r.Alloc(8); err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if _, err := r.Alloc(8); !errors.Is(err, ErrRegistryFull) {
		t.Errorf("Expected ErrRegistryFull, got %v", err)
	}

	if r.Len() != 2 {
		t.Errorf("Expected 2 live regions, got %d", r.Len())
	}
}

func TestSyncUnmappedRegion(t *testing.T) {
	r := NewRegistry(0)
	defer r.Close()

	handle, _ := r.Alloc(8)
	if err := r.Sync(handle); !errors.Is(err, ErrNotMapped) {
		t.Errorf("Expected ErrNotMapped, got %v", err)
	}
}

func TestMapFileRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapped.dat")
	content := bytes.Repeat([]byte("fly"), 1024)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		t.Fatalf("Failed to open file: %v", err)
	}
	defer f.Close()

	r := NewRegistry(0)
	defer r.Close()

	handle, err := r.MapFile(f)
	if err != nil {
		t.Fatalf("MapFile failed: %v", err)
	}

	view, err := r.View(handle)
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if !bytes.Equal(view, content) {
		t.Fatal("Mapped view does not match file content")
	}

	// Mutate through the mapping, sync, and check the file.
	copy(view, []byte("MAP"))
	if err := r.Sync(handle); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	onDisk, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to re-read file: %v", err)
	}
	if string(onDisk[:3]) != "MAP" {
		t.Errorf("Expected file to start with MAP, got %q", onDisk[:3])
	}

	if err := r.Release(handle); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := r.View(handle); !errors.Is(err, ErrUnknownHandle) {
		t.Error("Expected handle to be gone after release")
	}
}

func TestCloseReleasesAll(t *testing.T) {
	r := NewRegistry(0)
	r.Alloc(8)
	r.Alloc(8)
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Expected empty registry after Close, got %d regions", r.Len())
	}
}
