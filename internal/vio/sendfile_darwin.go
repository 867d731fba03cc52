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

// Sendfile moves up to count bytes from srcFd (a file) to dstFd (a
// socket) without copying through user space. offset is advanced by the
// number of bytes sent. Exactly one sendfile system call is made.
//
// Darwin sendfile has a different shape than Linux:
//
//	int sendfile(int fd, int s, off_t offset, off_t *len, struct sf_hdtr *hdtr, int flags)
//
// The source fd comes first, the byte count goes in and the bytes sent
// come back out through the len parameter. This shim re-expresses it in
// the conventional return-value form used everywhere else in FlyIO.
func Sendfile(dstFd, srcFd int, offset *int64, count int64) (int64, error) {
	length := count
	_, _, errno := syscall.Syscall6(
		syscall.SYS_SENDFILE,
		uintptr(srcFd),
		uintptr(dstFd),
		uintptr(*offset),
		uintptr(unsafe.Pointer(&length)),
		0, // hdtr = nil
		0, // flags = 0
	)
	if errno != 0 {
		// Darwin reports bytes already sent through len even when the
		// call stops on EAGAIN/EINTR. Surfacing those as a short success
		// matches the Linux convention and keeps retries from resending
		// the same range.
		if (errno == syscall.EAGAIN || errno == syscall.EINTR) && length > 0 {
			*offset += length
			return length, nil
		}
		return -1, osError("sendfile", errno)
	}
	if length < 0 {
		return -1, osError("sendfile", syscall.EIO)
	}
	*offset += length
	return length, nil
}
