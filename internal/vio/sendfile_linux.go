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

// Sendfile moves up to count bytes from srcFd (a file) to dstFd (a
// socket) without copying through user space. offset is the position in
// the source file and is advanced by the number of bytes sent. Exactly
// one sendfile system call is made; a short transfer is returned as-is.
//
// Linux sendfile: ssize_t sendfile(int out_fd, int in_fd, off_t *offset, size_t count)
func Sendfile(dstFd, srcFd int, offset *int64, count int64) (int64, error) {
	n, err := unix.Sendfile(dstFd, srcFd, offset, int(count))
	if err != nil {
		return -1, osError("sendfile", err)
	}
	return int64(n), nil
}
