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

//go:build darwin

package vio

import (
	"syscall"
	"unsafe"
)

// golang.org/x/sys/unix does not expose readv/writev on Darwin, so both
// are issued as raw syscalls over a hand-built iovec array.

// iovecs builds the Darwin iovec array for a scatter/gather vector.
// Zero-length regions keep a nil base, matching what the kernel expects.
func iovecs(vec [][]byte) []syscall.Iovec {
	iovs := make([]syscall.Iovec, len(vec))
	for i, region := range vec {
		if len(region) > 0 {
			iovs[i].Base = &region[0]
		}
		iovs[i].SetLen(len(region))
	}
	return iovs
}

// Readv scatters one read from fd into the vector's regions, in order.
// Exactly one readv system call is made; a short or zero-byte result is
// returned as the kernel produced it.
func Readv(fd int, vec [][]byte) (int64, error) {
	iovs := iovecs(vec)
	var base unsafe.Pointer
	if len(iovs) > 0 {
		base = unsafe.Pointer(&iovs[0])
	}
	n, _, errno := syscall.Syscall(syscall.SYS_READV,
		uintptr(fd), uintptr(base), uintptr(len(iovs)))
	if errno != 0 {
		return -1, osError("readv", errno)
	}
	return int64(n), nil
}

// Writev gathers the vector's regions into one write on fd. Exactly one
// writev system call is made; a short write is not an error.
func Writev(fd int, vec [][]byte) (int64, error) {
	iovs := iovecs(vec)
	var base unsafe.Pointer
	if len(iovs) > 0 {
		base = unsafe.Pointer(&iovs[0])
	}
	n, _, errno := syscall.Syscall(syscall.SYS_WRITEV,
		uintptr(fd), uintptr(base), uintptr(len(iovs)))
	if errno != 0 {
		return -1, osError("writev", errno)
	}
	return int64(n), nil
}

// Supported reports whether the vectored and zero-copy primitives are
// available on this platform.
func Supported() bool {
	return true
}
