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
Binary payload codecs for the FlyIO protocol.

Every request and response struct has an EncodeXxx/DecodeXxx pair using
length-prefixed binary encoding with explicit offset arithmetic. Decoders
never alias the input slice; byte fields are copied out so payload
buffers can be reused.

VECTORED REQUEST FORMAT (OpReadv / OpWritev):
=============================================

	[4 bytes] file descriptor (int32, big-endian)
	[4 bytes] descriptor count N (uint32, big-endian)
	[N * 4]   buffer handles (int32 each)
	[N * 4]   offsets (int32 each)
	[N * 4]   lengths (int32 each)

The three sequences always carry exactly N entries each; the declared
size of the vectored call is N.
*/
package protocol

import (
	"encoding/binary"
	"errors"
)

var (
	ErrInvalidBinaryFormat = errors.New("invalid binary format")
	ErrBufferTooSmall      = errors.New("buffer too small")
)

// OpenFileRequest asks the server to open a file inside its data
// directory. Create selects O_RDWR|O_CREATE; otherwise O_RDWR.
type OpenFileRequest struct {
	Path   string
	Create bool
}

// OpenFileResponse carries the server-side descriptor for an opened file.
type OpenFileResponse struct {
	FD int32
}

// CloseFileRequest closes a previously opened file.
type CloseFileRequest struct {
	FD int32
}

// AllocBufferRequest allocates a buffer region of Size bytes.
type AllocBufferRequest struct {
	Size int32
}

// BufferResponse carries a buffer handle, from OpAllocBuffer or OpMapFile.
type BufferResponse struct {
	Handle int32
}

// ReleaseBufferRequest drops a buffer handle.
type ReleaseBufferRequest struct {
	Handle int32
}

// LoadBufferRequest copies Data into a region at Offset.
type LoadBufferRequest struct {
	Handle int32
	Offset int32
	Data   []byte
}

// ReadBufferRequest copies Length bytes out of a region at Offset.
type ReadBufferRequest struct {
	Handle int32
	Offset int32
	Length int32
}

// ReadBufferResponse carries bytes copied out of a region.
type ReadBufferResponse struct {
	Data []byte
}

// MapFileRequest maps an opened file into the buffer space.
type MapFileRequest struct {
	FD int32
}

// SyncBufferRequest flushes a mapped region to its backing file.
type SyncBufferRequest struct {
	Handle int32
}

// VectoredRequest is the wire form of a readv or writev call.
type VectoredRequest struct {
	FD      int32
	Handles []int32
	Offsets []int32
	Lengths []int32
}

// CountResponse carries the signed 64-bit result of an I/O entry point.
type CountResponse struct {
	Count int64
}

// TransferRequest is the wire form of a transfer call. The destination
// socket is the caller's own connection.
type TransferRequest struct {
	FD     int32
	Offset int64
	Count  int64
}

// ErrorResponse reports a failed operation. Errno is the platform error
// code when the failure came from the operating system, 0 otherwise.
type ErrorResponse struct {
	Errno   int32
	Message string
}

// EncodeOpenFileRequest encodes an open-file request.
func EncodeOpenFileRequest(req *OpenFileRequest) []byte {
	buf := make([]byte, 2+len(req.Path)+1)
	binary.BigEndian.PutUint16(buf, uint16(len(req.Path)))
	copy(buf[2:], req.Path)
	if req.Create {
		buf[2+len(req.Path)] = 1
	}
	return buf
}

// DecodeOpenFileRequest decodes an open-file request.
func DecodeOpenFileRequest(data []byte) (*OpenFileRequest, error) {
	if len(data) < 3 {
		return nil, ErrBufferTooSmall
	}
	pathLen := int(binary.BigEndian.Uint16(data))
	if 2+pathLen+1 > len(data) {
		return nil, ErrInvalidBinaryFormat
	}
	return &OpenFileRequest{
		Path:   string(data[2 : 2+pathLen]),
		Create: data[2+pathLen] == 1,
	}, nil
}

// EncodeOpenFileResponse encodes an open-file response.
func EncodeOpenFileResponse(resp *OpenFileResponse) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(resp.FD))
	return buf
}

// DecodeOpenFileResponse decodes an open-file response.
func DecodeOpenFileResponse(data []byte) (*OpenFileResponse, error) {
	if len(data) < 4 {
		return nil, ErrBufferTooSmall
	}
	return &OpenFileResponse{FD: int32(binary.BigEndian.Uint32(data))}, nil
}

// EncodeInt32 encodes a single int32 payload. Close, release, alloc,
// map, and sync requests and the buffer response all share this shape.
func EncodeInt32(v int32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(v))
	return buf
}

// DecodeInt32 decodes a single int32 payload.
func DecodeInt32(data []byte) (int32, error) {
	if len(data) < 4 {
		return 0, ErrBufferTooSmall
	}
	return int32(binary.BigEndian.Uint32(data)), nil
}

// EncodeLoadBufferRequest encodes a load-buffer request.
func EncodeLoadBufferRequest(req *LoadBufferRequest) []byte {
	buf := make([]byte, 4+4+4+len(req.Data))
	binary.BigEndian.PutUint32(buf, uint32(req.Handle))
	binary.BigEndian.PutUint32(buf[4:], uint32(req.Offset))
	binary.BigEndian.PutUint32(buf[8:], uint32(len(req.Data)))
	copy(buf[12:], req.Data)
	return buf
}

// DecodeLoadBufferRequest decodes a load-buffer request.
func DecodeLoadBufferRequest(data []byte) (*LoadBufferRequest, error) {
	if len(data) < 12 {
		return nil, ErrBufferTooSmall
	}
	dataLen := int(binary.BigEndian.Uint32(data[8:]))
	if dataLen < 0 || 12+dataLen > len(data) {
		return nil, ErrInvalidBinaryFormat
	}
	req := &LoadBufferRequest{
		Handle: int32(binary.BigEndian.Uint32(data)),
		Offset: int32(binary.BigEndian.Uint32(data[4:])),
		Data:   make([]byte, dataLen),
	}
	copy(req.Data, data[12:12+dataLen])
	return req, nil
}

// EncodeReadBufferRequest encodes a read-buffer request.
func EncodeReadBufferRequest(req *ReadBufferRequest) []byte {
	buf := make([]byte, 12)
	binary.BigEndian.PutUint32(buf, uint32(req.Handle))
	binary.BigEndian.PutUint32(buf[4:], uint32(req.Offset))
	binary.BigEndian.PutUint32(buf[8:], uint32(req.Length))
	return buf
}

// DecodeReadBufferRequest decodes a read-buffer request.
func DecodeReadBufferRequest(data []byte) (*ReadBufferRequest, error) {
	if len(data) < 12 {
		return nil, ErrBufferTooSmall
	}
	return &ReadBufferRequest{
		Handle: int32(binary.BigEndian.Uint32(data)),
		Offset: int32(binary.BigEndian.Uint32(data[4:])),
		Length: int32(binary.BigEndian.Uint32(data[8:])),
	}, nil
}

// EncodeReadBufferResponse encodes a read-buffer response.
func EncodeReadBufferResponse(resp *ReadBufferResponse) []byte {
	buf := make([]byte, 4+len(resp.Data))
	binary.BigEndian.PutUint32(buf, uint32(len(resp.Data)))
	copy(buf[4:], resp.Data)
	return buf
}

// DecodeReadBufferResponse decodes a read-buffer response.
func DecodeReadBufferResponse(data []byte) (*ReadBufferResponse, error) {
	if len(data) < 4 {
		return nil, ErrBufferTooSmall
	}
	dataLen := int(binary.BigEndian.Uint32(data))
	if dataLen < 0 || 4+dataLen > len(data) {
		return nil, ErrInvalidBinaryFormat
	}
	resp := &ReadBufferResponse{Data: make([]byte, dataLen)}
	copy(resp.Data, data[4:4+dataLen])
	return resp, nil
}

// EncodeVectoredRequest encodes a readv/writev request. The three
// sequences must have equal length; the count on the wire is the
// declared size of the call.
func EncodeVectoredRequest(req *VectoredRequest) []byte {
	n := len(req.Handles)
	buf := make([]byte, 4+4+12*n)
	binary.BigEndian.PutUint32(buf, uint32(req.FD))
	binary.BigEndian.PutUint32(buf[4:], uint32(n))
	offset := 8
	for _, h := range req.Handles {
		binary.BigEndian.PutUint32(buf[offset:], uint32(h))
		offset += 4
	}
	for _, o := range req.Offsets {
		binary.BigEndian.PutUint32(buf[offset:], uint32(o))
		offset += 4
	}
	for _, l := range req.Lengths {
		binary.BigEndian.PutUint32(buf[offset:], uint32(l))
		offset += 4
	}
	return buf
}

// DecodeVectoredRequest decodes a readv/writev request, enforcing that
// all three sequences carry the declared count of entries.
func DecodeVectoredRequest(data []byte) (*VectoredRequest, error) {
	if len(data) < 8 {
		return nil, ErrBufferTooSmall
	}
	fd := int32(binary.BigEndian.Uint32(data))
	n := int(int32(binary.BigEndian.Uint32(data[4:])))
	if n < 0 || 8+12*n > len(data) {
		return nil, ErrInvalidBinaryFormat
	}

	req := &VectoredRequest{
		FD:      fd,
		Handles: make([]int32, n),
		Offsets: make([]int32, n),
		Lengths: make([]int32, n),
	}
	offset := 8
	for i := 0; i < n; i++ {
		req.Handles[i] = int32(binary.BigEndian.Uint32(data[offset:]))
		offset += 4
	}
	for i := 0; i < n; i++ {
		req.Offsets[i] = int32(binary.BigEndian.Uint32(data[offset:]))
		offset += 4
	}
	for i := 0; i < n; i++ {
		req.Lengths[i] = int32(binary.BigEndian.Uint32(data[offset:]))
		offset += 4
	}
	return req, nil
}

// EncodeCountResponse encodes an I/O result count.
func EncodeCountResponse(resp *CountResponse) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(resp.Count))
	return buf
}

// DecodeCountResponse decodes an I/O result count.
func DecodeCountResponse(data []byte) (*CountResponse, error) {
	if len(data) < 8 {
		return nil, ErrBufferTooSmall
	}
	return &CountResponse{Count: int64(binary.BigEndian.Uint64(data))}, nil
}

// EncodeTransferRequest encodes a transfer request.
func EncodeTransferRequest(req *TransferRequest) []byte {
	buf := make([]byte, 4+8+8)
	binary.BigEndian.PutUint32(buf, uint32(req.FD))
	binary.BigEndian.PutUint64(buf[4:], uint64(req.Offset))
	binary.BigEndian.PutUint64(buf[12:], uint64(req.Count))
	return buf
}

// DecodeTransferRequest decodes a transfer request.
func DecodeTransferRequest(data []byte) (*TransferRequest, error) {
	if len(data) < 20 {
		return nil, ErrBufferTooSmall
	}
	return &TransferRequest{
		FD:     int32(binary.BigEndian.Uint32(data)),
		Offset: int64(binary.BigEndian.Uint64(data[4:])),
		Count:  int64(binary.BigEndian.Uint64(data[12:])),
	}, nil
}

// EncodeErrorResponse encodes an error response.
func EncodeErrorResponse(resp *ErrorResponse) []byte {
	buf := make([]byte, 4+2+len(resp.Message))
	binary.BigEndian.PutUint32(buf, uint32(resp.Errno))
	binary.BigEndian.PutUint16(buf[4:], uint16(len(resp.Message)))
	copy(buf[6:], resp.Message)
	return buf
}

// DecodeErrorResponse decodes an error response.
func DecodeErrorResponse(data []byte) (*ErrorResponse, error) {
	if len(data) < 6 {
		return nil, ErrBufferTooSmall
	}
	msgLen := int(binary.BigEndian.Uint16(data[4:]))
	if 6+msgLen > len(data) {
		return nil, ErrInvalidBinaryFormat
	}
	return &ErrorResponse{
		Errno:   int32(binary.BigEndian.Uint32(data)),
		Message: string(data[6 : 6+msgLen]),
	}, nil
}
