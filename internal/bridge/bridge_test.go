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

package bridge

import (
	"bytes"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"flyio/internal/buffer"
	"flyio/internal/vio"
)

func newTestBridge(t *testing.T) (*Bridge, *buffer.Registry, *Status) {
	t.Helper()
	registry := buffer.NewRegistry(0)
	t.Cleanup(func() { registry.Close() })
	status := &Status{}
	return New(registry, status), registry, status
}

func TestWritevReadvFileRoundtrip(t *testing.T) {
	if !vio.Supported() {
		t.Skip("vectored I/O not supported on this platform")
	}

	b, registry, status := newTestBridge(t)

	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "roundtrip.dat"))
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	defer f.Close()

	src, err := registry.Register([]byte("scatter-gather"))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	fd := int32(f.Fd())
	n := b.Writev(fd,
		[]int32{src, src},
		[]int32{0, 7},
		[]int32{7, 7},
		2)
	if n != 14 {
		t.Fatalf("Expected 14 bytes written, got %d (status: %v)", n, status.Err())
	}
	if status.Reports() != 0 {
		t.Fatalf("Expected no reports, got %d", status.Reports())
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}

	dst, err := registry.Alloc(14)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	n = b.Readv(fd, []int32{dst}, []int32{0}, []int32{14}, 1)
	if n != 14 {
		t.Fatalf("Expected 14 bytes read, got %d (status: %v)", n, status.Err())
	}
	view, _ := registry.View(dst)
	if string(view) != "scatter-gather" {
		t.Errorf("Read back %q", view)
	}
}

func TestReadvEndOfStreamYieldsSentinel(t *testing.T) {
	if !vio.Supported() {
		t.Skip("vectored I/O not supported on this platform")
	}

	b, registry, status := newTestBridge(t)

	pr, pw, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	defer pr.Close()
	pw.Close()

	handle, _ := registry.Alloc(8)
	n := b.Readv(int32(pr.Fd()), []int32{handle}, []int32{0}, []int32{8}, 1)
	if n != -1 {
		t.Fatalf("Expected -1 at end of stream, got %d", n)
	}
	// End of stream is not a failure; nothing may be reported.
	if status.Reports() != 0 {
		t.Errorf("Expected no reports, got %d (err: %v)", status.Reports(), status.Err())
	}
	if status.Err() != nil {
		t.Errorf("Expected nil status error, got %v", status.Err())
	}
}

func TestWritevZeroBytesPassesThrough(t *testing.T) {
	if !vio.Supported() {
		t.Skip("vectored I/O not supported on this platform")
	}

	b, _, status := newTestBridge(t)

	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "empty.dat"))
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	defer f.Close()

	n := b.Writev(int32(f.Fd()), nil, nil, nil, 0)
	if n != 0 {
		t.Errorf("Expected 0 for an empty gather, got %d", n)
	}
	if status.Reports() != 0 {
		t.Errorf("Expected no reports, got %d", status.Reports())
	}
}

func TestReadvBadDescriptorReportsOnce(t *testing.T) {
	if !vio.Supported() {
		t.Skip("vectored I/O not supported on this platform")
	}

	b, registry, status := newTestBridge(t)

	handle, _ := registry.Alloc(8)
	n := b.Readv(-1, []int32{handle}, []int32{0}, []int32{8}, 1)
	if n != -1 {
		t.Fatalf("Expected -1, got %d", n)
	}
	if status.Reports() != 1 {
		t.Fatalf("Expected exactly one report, got %d", status.Reports())
	}
	if status.Errno() != syscall.EBADF {
		t.Errorf("Expected EBADF, got %v", status.Errno())
	}
}

func TestVectorFailurePassedThrough(t *testing.T) {
	b, registry, status := newTestBridge(t)

	// Unknown handle: the registry's own error must reach the reporter
	// unchanged.
	n := b.Readv(0, []int32{99}, []int32{0}, []int32{4}, 1)
	if n != -1 {
		t.Fatalf("Expected -1, got %d", n)
	}
	if status.Reports() != 1 {
		t.Fatalf("Expected exactly one report, got %d", status.Reports())
	}
	if !errors.Is(status.Err(), buffer.ErrUnknownHandle) {
		t.Errorf("Expected ErrUnknownHandle, got %v", status.Err())
	}
	if status.Errno() != 0 {
		t.Errorf("Expected no errno for a lookup failure, got %v", status.Errno())
	}

	// Out-of-range descriptor on a live handle.
	status.Reset()
	handle, _ := registry.Alloc(4)
	n = b.Writev(0, []int32{handle}, []int32{0}, []int32{8}, 1)
	if n != -1 {
		t.Fatalf("Expected -1, got %d", n)
	}
	if !errors.Is(status.Err(), vio.ErrDescriptorRange) {
		t.Errorf("Expected ErrDescriptorRange, got %v", status.Err())
	}
}

func TestTransferOverLoopback(t *testing.T) {
	if !vio.Supported() {
		t.Skip("zero-copy transfer not supported on this platform")
	}

	b, _, status := newTestBridge(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "payload.dat")
	payload := bytes.Repeat([]byte("transfer"), 1024)
	if err := os.WriteFile(path, payload, 0644); err != nil {
		t.Fatalf("Failed to write payload: %v", err)
	}
	src, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open payload: %v", err)
	}
	defer src.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			received <- nil
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}

	var total int64
	offset := int64(0)
	for total < int64(len(payload)) {
		n := b.Transfer(int32(src.Fd()), conn.(*net.TCPConn), offset+total, int64(len(payload))-total)
		if n == -1 {
			t.Fatalf("Transfer failed after %d bytes: %v", total, status.Err())
		}
		if n == 0 {
			break
		}
		total += n
	}
	conn.Close()

	if total != int64(len(payload)) {
		t.Fatalf("Expected %d bytes transferred, got %d", len(payload), total)
	}
	if status.Reports() != 0 {
		t.Errorf("Expected no reports, got %d", status.Reports())
	}

	data := <-received
	if !bytes.Equal(data, payload) {
		t.Errorf("Received %d bytes, payload was %d", len(data), len(payload))
	}
}

func TestTransferBadFileDescriptor(t *testing.T) {
	if !vio.Supported() {
		t.Skip("zero-copy transfer not supported on this platform")
	}

	b, _, status := newTestBridge(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			defer conn.Close()
			io.Copy(io.Discard, conn)
		}
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	n := b.Transfer(-1, conn.(*net.TCPConn), 0, 64)
	if n != -1 {
		t.Fatalf("Expected -1, got %d", n)
	}
	if status.Reports() != 1 {
		t.Fatalf("Expected exactly one report, got %d", status.Reports())
	}
	if status.Errno() == 0 {
		t.Error("Expected a platform errno for a bad source descriptor")
	}
}

func TestEntrypointsTable(t *testing.T) {
	b, _, _ := newTestBridge(t)
	eps := b.Entrypoints()
	if eps.Readv == nil || eps.Writev == nil || eps.Transfer == nil {
		t.Error("Expected all three entry points to be bound")
	}
}
