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

//go:build !linux && !darwin

package vio

import (
	"syscall"
)

// Readv reports ENOSYS. Vectored I/O is not wired up on this platform;
// this includes Windows and the BSDs other than Darwin.
func Readv(fd int, vec [][]byte) (int64, error) {
	return -1, &Error{Op: "readv", Errno: syscall.ENOSYS}
}

// Writev reports ENOSYS on this platform.
func Writev(fd int, vec [][]byte) (int64, error) {
	return -1, &Error{Op: "writev", Errno: syscall.ENOSYS}
}

// Supported reports whether the vectored and zero-copy primitives are
// available on this platform.
func Supported() bool {
	return false
}
