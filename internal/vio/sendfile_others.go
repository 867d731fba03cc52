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

// Sendfile reports ENOSYS. Zero-copy transfer is only wired up for Linux
// and Darwin; other platforms either lack sendfile or give it
// incompatible semantics.
func Sendfile(dstFd, srcFd int, offset *int64, count int64) (int64, error) {
	return -1, &Error{Op: "sendfile", Errno: syscall.ENOSYS}
}
