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
Package protocol defines the FlyIO binary wire protocol.

PROTOCOL OVERVIEW:
==================
FlyIO exposes the bridge operations over a compact binary protocol. The
protocol is designed to be:
- Simple: Easy to implement in any language
- Efficient: Fixed header, length-prefixed binary payloads
- Safe: Magic byte and version checking catch protocol mismatches

MESSAGE FORMAT:
===============
Every message is a fixed 8-byte header followed by a binary payload:

	+-------+-------+-------+-------+-------+-------+-------+-------+
	| Magic | Ver   | Op    | Flags | Length (4 bytes, big-endian) |
	+-------+-------+-------+-------+-------+-------+-------+-------+
	|                  Binary Payload (Length bytes)                |
	+---------------------------------------------------------------+

HEADER FIELDS:
==============
- Magic (1 byte): 0xB7 - Identifies this as a FlyIO message
- Version (1 byte): Protocol version (currently 0x01)
- Op (1 byte): Operation code (see OpCode constants)
- Flags (1 byte): Reserved, must be 0
- Length (4 bytes): Payload length in bytes (big-endian)

OPCODE RANGES:
==============
- 0x01-0x0F: File and buffer management
- 0x10-0x1F: I/O entry points (readv, writev, transfer)
- 0x20-0x2F: Introspection
- 0xFF: Error response

TRANSFER RESPONSES:
===================
OpTransfer is the one operation whose response payload is raw file
bytes rather than an encoded struct: the server writes the header with
Length set to the byte count it is about to send, then moves the bytes
onto the socket with sendfile. Everything else round-trips through the
codecs in binary.go.

BINARY PAYLOAD ENCODING:
========================

	Strings:      [uint16 length][UTF-8 bytes]
	Byte slices:  [uint32 length][raw bytes]
	Integers:     Big-endian (int32=4 bytes, int64=8 bytes)
	Int32 arrays: [uint32 count][count * 4 bytes]
*/
package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

// Protocol constants define the wire format parameters.
const (
	// MagicByte identifies FlyIO protocol messages.
	MagicByte byte = 0xB7

	// ProtocolVersion is the current protocol version.
	ProtocolVersion byte = 0x01

	// MaxMessageSize limits payload size to prevent memory exhaustion.
	MaxMessageSize = 32 * 1024 * 1024 // 32MB

	// HeaderSize is the fixed size of the message header in bytes.
	HeaderSize = 8
)

// OpCode represents the operation type in a protocol message.
type OpCode byte

// Operation codes. The three I/O entry points carry the same fixed
// names on the wire that the bridge registers them under.
const (
	// File and buffer management
	OpOpenFile      OpCode = 0x01 // Open a file inside the data directory
	OpCloseFile     OpCode = 0x02 // Close a previously opened file
	OpAllocBuffer   OpCode = 0x03 // Allocate a buffer region, returns handle
	OpReleaseBuffer OpCode = 0x04 // Release a buffer handle
	OpLoadBuffer    OpCode = 0x05 // Copy caller bytes into a buffer region
	OpReadBuffer    OpCode = 0x06 // Copy bytes out of a buffer region
	OpMapFile       OpCode = 0x07 // Map an open file into the buffer space
	OpSyncBuffer    OpCode = 0x08 // Flush a mapped buffer to its file

	// I/O entry points
	OpReadv    OpCode = 0x10 // Vectored read into buffer regions
	OpWritev   OpCode = 0x11 // Vectored write from buffer regions
	OpTransfer OpCode = 0x12 // Zero-copy file-to-socket transfer

	// Introspection
	OpStats OpCode = 0x20 // Server metrics snapshot

	// OpError is sent by the server when an operation fails.
	OpError OpCode = 0xFF
)

// Name returns the registered entry-point name for an I/O opcode, or
// the empty string for management opcodes.
func (op OpCode) Name() string {
	switch op {
	case OpReadv:
		return "readv"
	case OpWritev:
		return "writev"
	case OpTransfer:
		return "transfer"
	default:
		return ""
	}
}

// Header is the fixed-size message header.
type Header struct {
	Magic   byte   // Must be MagicByte (0xB7)
	Version byte   // Protocol version (currently 0x01)
	Op      OpCode // Operation code
	Flags   byte   // Reserved, must be 0
	Length  uint32 // Payload length in bytes
}

// Message represents a complete protocol message (header + payload).
type Message struct {
	Header  Header // Fixed-size header
	Payload []byte // Variable-length binary payload (see binary.go)
}

// Protocol errors returned during message parsing.
var (
	// ErrInvalidMagic indicates the magic byte doesn't match. This
	// usually means the peer is not speaking FlyIO protocol.
	ErrInvalidMagic = errors.New("invalid magic byte")

	// ErrInvalidVersion indicates an unsupported protocol version.
	ErrInvalidVersion = errors.New("invalid protocol version")

	// ErrMessageTooLarge indicates the payload exceeds MaxMessageSize.
	ErrMessageTooLarge = errors.New("message too large")
)

// ReadHeader reads and validates a message header from the reader.
func ReadHeader(r io.Reader) (Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, err
	}

	h := Header{
		Magic:   buf[0],
		Version: buf[1],
		Op:      OpCode(buf[2]),
		Flags:   buf[3],
		Length:  binary.BigEndian.Uint32(buf[4:]),
	}

	if h.Magic != MagicByte {
		return Header{}, ErrInvalidMagic
	}
	if h.Version != ProtocolVersion {
		return Header{}, ErrInvalidVersion
	}
	if h.Length > MaxMessageSize {
		return Header{}, ErrMessageTooLarge
	}

	return h, nil
}

// WriteHeader writes a message header as 8 big-endian bytes.
func WriteHeader(w io.Writer, h Header) error {
	buf := make([]byte, HeaderSize)
	buf[0] = h.Magic
	buf[1] = h.Version
	buf[2] = byte(h.Op)
	buf[3] = h.Flags
	binary.BigEndian.PutUint32(buf[4:], h.Length)
	_, err := w.Write(buf)
	return err
}

// ReadMessage reads a complete message (header + payload) from the reader.
func ReadMessage(r io.Reader) (*Message, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	msg := &Message{Header: h}
	if h.Length > 0 {
		msg.Payload = make([]byte, h.Length)
		if _, err := io.ReadFull(r, msg.Payload); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

// WriteMessage writes a complete message with the given opcode and payload.
func WriteMessage(w io.Writer, op OpCode, payload []byte) error {
	h := Header{
		Magic:   MagicByte,
		Version: ProtocolVersion,
		Op:      op,
		Length:  uint32(len(payload)),
	}
	if err := WriteHeader(w, h); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
	return nil
}

// WriteError sends an error response carrying the failure message and
// the platform error code (0 when the failure was not an OS failure).
func WriteError(w io.Writer, err error, errno int32) error {
	return WriteMessage(w, OpError, EncodeErrorResponse(&ErrorResponse{
		Errno:   errno,
		Message: err.Error(),
	}))
}
