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
Vectored and zero-copy I/O primitives for FlyIO.

OVERVIEW:
=========
This package wraps the three operating-system primitives FlyIO is built
around: readv, writev, and sendfile. Each wrapper makes exactly one system
call and hands the result back unchanged; retry policy, sentinel mapping,
and error reporting all live one layer up in the bridge.

SCATTER/GATHER VECTORS:
=======================
A scatter/gather vector is an ordered [][]byte. Entry i describes one
contiguous region; readv fills the regions in order, writev drains them in
order. The kernel sees the same regions through an iovec array built by
the platform layer.

	Region 0: [........]     ┐
	Region 1: [....]         ├─→ one readv/writev system call
	Region 2: [............] ┘

PLATFORM SUPPORT:
=================
- Linux: readv/writev via golang.org/x/sys/unix, sendfile with the
  conventional Linux signature.
- Darwin: readv/writev via raw syscalls (x/sys does not expose them),
  sendfile through a shim that translates Darwin's length-out-parameter
  convention into the return-value convention.
- Other platforms: all primitives report ENOSYS.
*/
package vio

import (
	"syscall"
)

// Error is an operating-system failure from one of the I/O primitives.
// It carries the platform error code so callers can surface it unchanged.
type Error struct {
	Op    string
	Errno syscall.Errno
}

// Error returns the failure in "vio: op: cause" form.
func (e *Error) Error() string {
	return "vio: " + e.Op + ": " + e.Errno.Error()
}

// Unwrap exposes the errno for errors.Is comparisons.
func (e *Error) Unwrap() error {
	return e.Errno
}

// Temporary reports whether the failure may clear on retry.
func (e *Error) Temporary() bool {
	return e.Errno == syscall.EAGAIN || e.Errno == syscall.EINTR
}

// osError converts a primitive's error into *Error, preserving the errno.
func osError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errno, ok := err.(syscall.Errno); ok {
		return &Error{Op: op, Errno: errno}
	}
	return &Error{Op: op, Errno: syscall.EIO}
}
