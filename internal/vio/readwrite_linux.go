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

//go:build linux

package vio

import (
	"golang.org/x/sys/unix"
)

// Readv scatters one read from fd into the vector's regions, in order.
// Exactly one readv system call is made; a short or zero-byte result is
// returned as the kernel produced it.
func Readv(fd int, vec [][]byte) (int64, error) {
	n, err := unix.Readv(fd, vec)
	if err != nil {
		return -1, osError("readv", err)
	}
	return int64(n), nil
}

// Writev gathers the vector's regions into one write on fd. Exactly one
// writev system call is made; a short write is not an error.
func Writev(fd int, vec [][]byte) (int64, error) {
	n, err := unix.Writev(fd, vec)
	if err != nil {
		return -1, osError("writev", err)
	}
	return int64(n), nil
}

// Supported reports whether the vectored and zero-copy primitives are
// available on this platform.
func Supported() bool {
	return true
}
