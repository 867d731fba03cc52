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
Package client provides a Go client for the FlyIO server.

USAGE:
======

	c, err := client.Connect("localhost:9611")
	if err != nil { ... }
	defer c.Close()

	fd, _ := c.OpenFile("data.bin", true)
	h, _ := c.AllocBuffer(4096)
	c.LoadBuffer(h, 0, payload)
	n, _ := c.Writev(fd, []client.Descriptor{{Handle: h, Offset: 0, Length: int32(len(payload))}})

A Client is not safe for concurrent use; the protocol is strictly
request/response on one connection. Use one Client per goroutine.
*/
package client

import (
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"flyio/internal/protocol"
)

// Descriptor names one (handle, offset, length) triple of a vectored call.
type Descriptor struct {
	Handle int32
	Offset int32
	Length int32
}

// ServerError is a failure reported by the server. Errno carries the
// platform error code when the failure came from the operating system.
type ServerError struct {
	Errno   syscall.Errno
	Message string
}

// Error returns the server's failure message.
func (e *ServerError) Error() string {
	return "flyio: " + e.Message
}

// Client is a connection to a FlyIO server.
type Client struct {
	conn    net.Conn
	timeout time.Duration
}

// Connect dials a FlyIO server.
func Connect(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetNoDelay(true)
	}
	return &Client{conn: conn, timeout: 30 * time.Second}, nil
}

// Close closes the connection. The server releases everything this
// session owned.
func (c *Client) Close() error {
	return c.conn.Close()
}

// roundTrip sends one request and reads one response, translating error
// responses into *ServerError.
func (c *Client) roundTrip(op protocol.OpCode, payload []byte) (*protocol.Message, error) {
	c.conn.SetDeadline(time.Now().Add(c.timeout))
	if err := protocol.WriteMessage(c.conn, op, payload); err != nil {
		return nil, err
	}
	msg, err := protocol.ReadMessage(c.conn)
	if err != nil {
		return nil, err
	}
	if msg.Header.Op == protocol.OpError {
		resp, err := protocol.DecodeErrorResponse(msg.Payload)
		if err != nil {
			return nil, err
		}
		return nil, &ServerError{
			Errno:   syscall.Errno(resp.Errno),
			Message: resp.Message,
		}
	}
	if msg.Header.Op != op {
		return nil, fmt.Errorf("response opcode 0x%02X does not match request 0x%02X",
			byte(msg.Header.Op), byte(op))
	}
	return msg, nil
}

// OpenFile opens (optionally creating) a file inside the server's data
// directory and returns its descriptor.
func (c *Client) OpenFile(path string, create bool) (int32, error) {
	msg, err := c.roundTrip(protocol.OpOpenFile,
		protocol.EncodeOpenFileRequest(&protocol.OpenFileRequest{Path: path, Create: create}))
	if err != nil {
		return -1, err
	}
	resp, err := protocol.DecodeOpenFileResponse(msg.Payload)
	if err != nil {
		return -1, err
	}
	return resp.FD, nil
}

// CloseFile closes a previously opened file.
func (c *Client) CloseFile(fd int32) error {
	_, err := c.roundTrip(protocol.OpCloseFile, protocol.EncodeInt32(fd))
	return err
}

// AllocBuffer allocates a server-side buffer region and returns its handle.
func (c *Client) AllocBuffer(size int32) (int32, error) {
	msg, err := c.roundTrip(protocol.OpAllocBuffer, protocol.EncodeInt32(size))
	if err != nil {
		return 0, err
	}
	return protocol.DecodeInt32(msg.Payload)
}

// ReleaseBuffer drops a buffer handle.
func (c *Client) ReleaseBuffer(handle int32) error {
	_, err := c.roundTrip(protocol.OpReleaseBuffer, protocol.EncodeInt32(handle))
	return err
}

// LoadBuffer copies data into a buffer region at the given offset.
func (c *Client) LoadBuffer(handle, offset int32, data []byte) error {
	_, err := c.roundTrip(protocol.OpLoadBuffer,
		protocol.EncodeLoadBufferRequest(&protocol.LoadBufferRequest{
			Handle: handle, Offset: offset, Data: data,
		}))
	return err
}

// ReadBuffer copies length bytes out of a buffer region at the given offset.
func (c *Client) ReadBuffer(handle, offset, length int32) ([]byte, error) {
	msg, err := c.roundTrip(protocol.OpReadBuffer,
		protocol.EncodeReadBufferRequest(&protocol.ReadBufferRequest{
			Handle: handle, Offset: offset, Length: length,
		}))
	if err != nil {
		return nil, err
	}
	resp, err := protocol.DecodeReadBufferResponse(msg.Payload)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// MapFile maps an opened file into the session's buffer space and
// returns the mapping's handle.
func (c *Client) MapFile(fd int32) (int32, error) {
	msg, err := c.roundTrip(protocol.OpMapFile, protocol.EncodeInt32(fd))
	if err != nil {
		return 0, err
	}
	return protocol.DecodeInt32(msg.Payload)
}

// SyncBuffer flushes a mapped buffer to its backing file.
func (c *Client) SyncBuffer(handle int32) error {
	_, err := c.roundTrip(protocol.OpSyncBuffer, protocol.EncodeInt32(handle))
	return err
}

// Readv scatters one read from fd into the named regions. The result is
// the bridge's count: positive bytes read, or -1 for the end-of-stream
// sentinel. Reported failures arrive as *ServerError.
func (c *Client) Readv(fd int32, descs []Descriptor) (int64, error) {
	return c.vectored(protocol.OpReadv, fd, descs)
}

// Writev gathers the named regions into one write on fd. A 0 result is
// a valid short write, not an error.
func (c *Client) Writev(fd int32, descs []Descriptor) (int64, error) {
	return c.vectored(protocol.OpWritev, fd, descs)
}

func (c *Client) vectored(op protocol.OpCode, fd int32, descs []Descriptor) (int64, error) {
	req := &protocol.VectoredRequest{
		FD:      fd,
		Handles: make([]int32, len(descs)),
		Offsets: make([]int32, len(descs)),
		Lengths: make([]int32, len(descs)),
	}
	for i, d := range descs {
		req.Handles[i] = d.Handle
		req.Offsets[i] = d.Offset
		req.Lengths[i] = d.Length
	}

	msg, err := c.roundTrip(op, protocol.EncodeVectoredRequest(req))
	if err != nil {
		return -1, err
	}
	resp, err := protocol.DecodeCountResponse(msg.Payload)
	if err != nil {
		return -1, err
	}
	return resp.Count, nil
}

// Transfer asks the server to sendfile count bytes of fd, starting at
// offset, down this connection. Returns the bytes received. The count
// is clamped server-side to what the file holds past offset, and to
// protocol.MaxMessageSize per response frame; a short result means the
// caller should continue from offset plus the returned length.
func (c *Client) Transfer(fd int32, offset, count int64) ([]byte, error) {
	c.conn.SetDeadline(time.Now().Add(c.timeout))
	if err := protocol.WriteMessage(c.conn, protocol.OpTransfer,
		protocol.EncodeTransferRequest(&protocol.TransferRequest{
			FD: fd, Offset: offset, Count: count,
		})); err != nil {
		return nil, err
	}

	msg, err := protocol.ReadHeader(c.conn)
	if err != nil {
		return nil, err
	}
	if msg.Op == protocol.OpError {
		payload := make([]byte, msg.Length)
		if _, err := io.ReadFull(c.conn, payload); err != nil {
			return nil, err
		}
		resp, err := protocol.DecodeErrorResponse(payload)
		if err != nil {
			return nil, err
		}
		return nil, &ServerError{Errno: syscall.Errno(resp.Errno), Message: resp.Message}
	}
	if msg.Op != protocol.OpTransfer {
		return nil, fmt.Errorf("unexpected response opcode 0x%02X", byte(msg.Op))
	}

	data := make([]byte, msg.Length)
	if _, err := io.ReadFull(c.conn, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Stats fetches the server's metrics snapshot in Prometheus text format.
func (c *Client) Stats() (string, error) {
	msg, err := c.roundTrip(protocol.OpStats, nil)
	if err != nil {
		return "", err
	}
	return string(msg.Payload), nil
}
