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
Package bridge exposes the three FlyIO I/O entry points.

OVERVIEW:
=========
The bridge is the boundary between callers who speak in buffer handles
and the vio primitives that speak in memory regions and file
descriptors. Three operations are exposed, each with a fixed name and
signature:

	readv    (fd, handles[], offsets[], lengths[], size) -> int64
	writev   (fd, handles[], offsets[], lengths[], size) -> int64
	transfer (fd, socket descriptor, offset, count)      -> int64

RESULT CONVENTION:
==================
Every entry point returns a signed 64-bit byte count, or -1. -1 alone
says "no valid result"; whether a failure was actually raised travels on
a side channel, the per-call Reporter. At most one failure is reported
per call.

ENTRY POINT SEMANTICS:
======================
- readv: a primitive result of exactly 0 is collapsed to -1 with nothing
  reported. The caller cannot tell end-of-stream from a hard failure at
  this layer. Preserved as observed in the system this bridge replaces;
  see the note on Readv.
- writev: a 0-byte result is returned as 0. Short writes are normal.
- transfer: the destination handle is resolved to a native socket
  descriptor first; the primitive sees the offset by reference and
  advances it. Short transfers are returned unchanged.

FAILURE HANDLING:
=================
Handle-lookup and descriptor-resolution failures are passed to the
Reporter exactly as the resolving layer produced them; nothing is
layered on top. Operating-system failures are reported with their errno.
Nothing is retried and nothing is logged here.

CONCURRENCY:
============
A Bridge holds no mutable state. Each call is synchronous and blocking;
whatever ordering the kernel gives concurrent calls on the same fd is
the ordering the caller gets.
*/
package bridge

import (
	"syscall"

	"flyio/internal/vio"
)

// Reporter is the side channel for per-call failures. Implementations
// decide how a failure reaches the caller (wire error response, test
// assertion, log line).
type Reporter interface {
	// ReportIOFailure records an operating-system failure with its
	// platform error code.
	ReportIOFailure(op string, errno syscall.Errno)

	// ReportFailure records a failure another layer already described.
	// The error is passed through unchanged.
	ReportFailure(op string, err error)
}

// SocketDescriptor is anything that can surface a native socket
// descriptor. *net.TCPConn and *os.File both satisfy it.
type SocketDescriptor interface {
	SyscallConn() (syscall.RawConn, error)
}

// VectoredFunc is the fixed signature of the readv and writev entry points.
type VectoredFunc func(fd int32, handles, offsets, lengths []int32, size int32) int64

// TransferFunc is the fixed signature of the transfer entry point.
type TransferFunc func(fd int32, dst SocketDescriptor, offset, count int64) int64

// Entrypoints is the fixed operation table a transport registers.
type Entrypoints struct {
	Readv    VectoredFunc
	Writev   VectoredFunc
	Transfer TransferFunc
}

// Bridge binds the entry points to a buffer space and a failure reporter.
type Bridge struct {
	space    vio.Space
	reporter Reporter
}

// New creates a Bridge over the given buffer space and reporter.
func New(space vio.Space, reporter Reporter) *Bridge {
	return &Bridge{space: space, reporter: reporter}
}

// Entrypoints returns the bridge's operation table.
func (b *Bridge) Entrypoints() Entrypoints {
	return Entrypoints{
		Readv:    b.Readv,
		Writev:   b.Writev,
		Transfer: b.Transfer,
	}
}

// buildVector assembles the scatter/gather vector for one call. A nil
// return means construction failed and the failure is already reported.
func (b *Bridge) buildVector(op string, handles, offsets, lengths []int32, size int32) [][]byte {
	vec, err := vio.BuildVector(b.space, handles, offsets, lengths, size)
	if err != nil {
		b.reporter.ReportFailure(op, err)
		return nil
	}
	return vec
}

// Readv scatters one read from fd into the named buffer regions and
// returns the byte count, or -1.
//
// A primitive result of exactly 0 maps to -1 with no reported failure,
// so end-of-stream and "failed, see reporter" share a sentinel. The
// system this bridge replaces behaved that way and callers depend on
// it, so it is kept rather than fixed.
func (b *Bridge) Readv(fd int32, handles, offsets, lengths []int32, size int32) int64 {
	vec := b.buildVector("readv", handles, offsets, lengths, size)
	if vec == nil {
		return -1
	}
	n, err := vio.Readv(int(fd), vec)
	if err != nil {
		b.reportOS("readv", err)
		return -1
	}
	if n == 0 {
		return -1
	}
	return n
}

// Writev gathers the named buffer regions into one write on fd and
// returns the byte count, or -1. Unlike Readv, a 0-byte result is
// returned as 0.
func (b *Bridge) Writev(fd int32, handles, offsets, lengths []int32, size int32) int64 {
	vec := b.buildVector("writev", handles, offsets, lengths, size)
	if vec == nil {
		return -1
	}
	n, err := vio.Writev(int(fd), vec)
	if err != nil {
		b.reportOS("writev", err)
		return -1
	}
	return n
}

// Transfer moves count bytes from the file fd, starting at offset,
// straight to dst's socket. Returns the bytes sent, or -1. The transfer
// may be short; the caller sees the actual count unchanged.
func (b *Bridge) Transfer(fd int32, dst SocketDescriptor, offset, count int64) int64 {
	rawConn, err := dst.SyscallConn()
	if err != nil {
		b.reporter.ReportFailure("transfer", err)
		return -1
	}

	// offset is already bounds-checked at int64 by the signature; the
	// platform off_t is at least as wide, so the conversion in the vio
	// layer cannot truncate.
	off := offset

	var sent int64
	var sendErr error
	err = rawConn.Write(func(sock uintptr) bool {
		sent, sendErr = vio.Sendfile(int(sock), int(fd), &off, count)
		if verr, ok := sendErr.(*vio.Error); ok && verr.Errno == syscall.EAGAIN {
			// Socket not writable yet; let the poller wait and call again.
			return false
		}
		return true
	})
	if err != nil {
		b.reporter.ReportFailure("transfer", err)
		return -1
	}
	if sendErr != nil {
		b.reportOS("transfer", sendErr)
		return -1
	}
	return sent
}

// reportOS surfaces a vio failure with its errno.
func (b *Bridge) reportOS(op string, err error) {
	if verr, ok := err.(*vio.Error); ok {
		b.reporter.ReportIOFailure(op, verr.Errno)
		return
	}
	b.reporter.ReportFailure(op, err)
}
