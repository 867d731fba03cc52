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

package logging

import (
	"net"
	"time"
)

// ConnectionLogger provides detailed logging for client connections.
// Each connection carries a session ID for correlating entries.
type ConnectionLogger struct {
	logger *Logger
}

// NewConnectionLogger creates a new connection logger.
func NewConnectionLogger(logger *Logger) *ConnectionLogger {
	return &ConnectionLogger{logger: logger}
}

// LogNewConnection logs a new client connection with details.
func (cl *ConnectionLogger) LogNewConnection(conn net.Conn, sessionID string) {
	cl.logger.Info("New client connection established",
		"session_id", sessionID,
		"remote_addr", conn.RemoteAddr().String(),
		"local_addr", conn.LocalAddr().String(),
	)
}

// LogConnectionClosed logs when a connection is closed.
func (cl *ConnectionLogger) LogConnectionClosed(conn net.Conn, sessionID, reason string, duration time.Duration) {
	cl.logger.Info("Client connection closed",
		"session_id", sessionID,
		"remote_addr", conn.RemoteAddr().String(),
		"reason", reason,
		"duration_seconds", duration.Seconds(),
	)
}

// OpLogger logs I/O entry-point outcomes without exposing payload bytes.
type OpLogger struct {
	logger *Logger
}

// NewOpLogger creates a new entry-point logger.
func NewOpLogger(logger *Logger) *OpLogger {
	return &OpLogger{logger: logger}
}

// LogOp logs one completed entry-point call. count is the bridge result,
// -1 included.
func (ol *OpLogger) LogOp(op, sessionID string, count int64, latency time.Duration) {
	ol.logger.Debug("Entry point completed",
		"op", op,
		"session_id", sessionID,
		"count", count,
		"latency_ms", float64(latency.Microseconds())/1000.0,
	)
}

// LogOpFailure logs a reported failure from one entry-point call.
func (ol *OpLogger) LogOpFailure(op, sessionID string, err error, errno int32) {
	ol.logger.Error("Entry point failed",
		"op", op,
		"session_id", sessionID,
		"error", err,
		"errno", errno,
	)
}
