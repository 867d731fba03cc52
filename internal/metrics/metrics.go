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
Package metrics provides Prometheus-compatible metrics for FlyIO.

METRIC CATEGORIES:
==================
- Entry points: readv/writev/transfer call counts
- Bytes: read, written, transferred
- Failures: reported I/O failures, end-of-stream collapses
- Connections: active, total

EXAMPLE OUTPUT:
===============

	flyio_readv_calls_total 12345
	flyio_bytes_read_total 104857600
	flyio_io_failures_total 3
	flyio_active_connections 2
*/
package metrics

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics holds all FlyIO counters.
type Metrics struct {
	// Entry-point call counts
	ReadvCalls    atomic.Uint64
	WritevCalls   atomic.Uint64
	TransferCalls atomic.Uint64

	// Bytes moved by each entry point
	BytesRead        atomic.Uint64
	BytesWritten     atomic.Uint64
	BytesTransferred atomic.Uint64

	// Failure counts
	IOFailures   atomic.Uint64 // operating-system failures reported to callers
	EndOfStreams atomic.Uint64 // readv results of 0 collapsed to -1

	// Connection counts
	ActiveConnections atomic.Int64
	TotalConnections  atomic.Uint64

	// Buffer space
	LiveBuffers atomic.Int64
	OpenFiles   atomic.Int64
}

// Global metrics instance
var globalMetrics = &Metrics{}

// Get returns the global metrics instance.
func Get() *Metrics {
	return globalMetrics
}

// RecordCall bumps the call counter for an entry point and, when the
// call produced a positive count, the matching byte counter.
func (m *Metrics) RecordCall(op string, count int64) {
	switch op {
	case "readv":
		m.ReadvCalls.Add(1)
		if count > 0 {
			m.BytesRead.Add(uint64(count))
		}
	case "writev":
		m.WritevCalls.Add(1)
		if count > 0 {
			m.BytesWritten.Add(uint64(count))
		}
	case "transfer":
		m.TransferCalls.Add(1)
		if count > 0 {
			m.BytesTransferred.Add(uint64(count))
		}
	}
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	ReadvCalls        uint64 `json:"readv_calls"`
	WritevCalls       uint64 `json:"writev_calls"`
	TransferCalls     uint64 `json:"transfer_calls"`
	BytesRead         uint64 `json:"bytes_read"`
	BytesWritten      uint64 `json:"bytes_written"`
	BytesTransferred  uint64 `json:"bytes_transferred"`
	IOFailures        uint64 `json:"io_failures"`
	EndOfStreams      uint64 `json:"end_of_streams"`
	ActiveConnections int64  `json:"active_connections"`
	TotalConnections  uint64 `json:"total_connections"`
	LiveBuffers       int64  `json:"live_buffers"`
	OpenFiles         int64  `json:"open_files"`
}

// GetSnapshot returns a consistent-enough copy of the counters.
func (m *Metrics) GetSnapshot() Snapshot {
	return Snapshot{
		ReadvCalls:        m.ReadvCalls.Load(),
		WritevCalls:       m.WritevCalls.Load(),
		TransferCalls:     m.TransferCalls.Load(),
		BytesRead:         m.BytesRead.Load(),
		BytesWritten:      m.BytesWritten.Load(),
		BytesTransferred:  m.BytesTransferred.Load(),
		IOFailures:        m.IOFailures.Load(),
		EndOfStreams:      m.EndOfStreams.Load(),
		ActiveConnections: m.ActiveConnections.Load(),
		TotalConnections:  m.TotalConnections.Load(),
		LiveBuffers:       m.LiveBuffers.Load(),
		OpenFiles:         m.OpenFiles.Load(),
	}
}

// Format renders the counters in Prometheus text exposition format.
func (m *Metrics) Format() string {
	s := m.GetSnapshot()
	var b strings.Builder

	counter := func(name string, value uint64) {
		fmt.Fprintf(&b, "# TYPE %s counter\n%s %d\n", name, name, value)
	}
	gauge := func(name string, value int64) {
		fmt.Fprintf(&b, "# TYPE %s gauge\n%s %d\n", name, name, value)
	}

	counter("flyio_readv_calls_total", s.ReadvCalls)
	counter("flyio_writev_calls_total", s.WritevCalls)
	counter("flyio_transfer_calls_total", s.TransferCalls)
	counter("flyio_bytes_read_total", s.BytesRead)
	counter("flyio_bytes_written_total", s.BytesWritten)
	counter("flyio_bytes_transferred_total", s.BytesTransferred)
	counter("flyio_io_failures_total", s.IOFailures)
	counter("flyio_end_of_streams_total", s.EndOfStreams)
	counter("flyio_connections_total", s.TotalConnections)
	gauge("flyio_active_connections", s.ActiveConnections)
	gauge("flyio_live_buffers", s.LiveBuffers)
	gauge("flyio_open_files", s.OpenFiles)

	return b.String()
}

// Reset zeroes every counter. Tests only.
func (m *Metrics) Reset() {
	m.ReadvCalls.Store(0)
	m.WritevCalls.Store(0)
	m.TransferCalls.Store(0)
	m.BytesRead.Store(0)
	m.BytesWritten.Store(0)
	m.BytesTransferred.Store(0)
	m.IOFailures.Store(0)
	m.EndOfStreams.Store(0)
	m.ActiveConnections.Store(0)
	m.TotalConnections.Store(0)
	m.LiveBuffers.Store(0)
	m.OpenFiles.Store(0)
}
