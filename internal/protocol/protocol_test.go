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

package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestHeaderRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	h := Header{
		Magic:   MagicByte,
		Version: ProtocolVersion,
		Op:      OpReadv,
		Length:  1234,
	}
	if err := WriteHeader(&buf, h); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	if buf.Len() != HeaderSize {
		t.Fatalf("Expected %d header bytes, got %d", HeaderSize, buf.Len())
	}

	got, err := ReadHeader(&buf)
	if err != nil {
		t.Fatalf("ReadHeader failed: %v", err)
	}
	if got != h {
		t.Errorf("Header roundtrip mismatch: %+v != %+v", got, h)
	}
}

func TestReadHeaderRejectsBadMagic(t *testing.T) {
	buf := []byte{0x00, ProtocolVersion, byte(OpReadv), 0, 0, 0, 0, 0}
	if _, err := ReadHeader(bytes.NewReader(buf)); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("Expected ErrInvalidMagic, got %v", err)
	}
}

func TestReadHeaderRejectsBadVersion(t *testing.T) {
	buf := []byte{MagicByte, 0x7F, byte(OpReadv), 0, 0, 0, 0, 0}
	if _, err := ReadHeader(bytes.NewReader(buf)); !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("Expected ErrInvalidVersion, got %v", err)
	}
}

func TestReadHeaderRejectsOversizedPayload(t *testing.T) {
	buf := []byte{MagicByte, ProtocolVersion, byte(OpReadv), 0, 0xFF, 0xFF, 0xFF, 0xFF}
	if _, err := ReadHeader(bytes.NewReader(buf)); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("Expected ErrMessageTooLarge, got %v", err)
	}
}

func TestMessageRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("payload")
	if err := WriteMessage(&buf, OpWritev, payload); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}

	msg, err := ReadMessage(&buf)
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if msg.Header.Op != OpWritev {
		t.Errorf("Expected opcode %v, got %v", OpWritev, msg.Header.Op)
	}
	if !bytes.Equal(msg.Payload, payload) {
		t.Errorf("Payload mismatch: %q", msg.Payload)
	}
}

func TestOpCodeNames(t *testing.T) {
	cases := []struct {
		op   OpCode
		name string
	}{
		{OpReadv, "readv"},
		{OpWritev, "writev"},
		{OpTransfer, "transfer"},
		{OpOpenFile, ""},
		{OpStats, ""},
	}
	for _, tc := range cases {
		if got := tc.op.Name(); got != tc.name {
			t.Errorf("OpCode 0x%02X: expected name %q, got %q", byte(tc.op), tc.name, got)
		}
	}
}

func TestVectoredRequestRoundtrip(t *testing.T) {
	req := &VectoredRequest{
		FD:      42,
		Handles: []int32{1, 2, 3},
		Offsets: []int32{0, 128, 4096},
		Lengths: []int32{64, 64, 512},
	}
	got, err := DecodeVectoredRequest(EncodeVectoredRequest(req))
	if err != nil {
		t.Fatalf("DecodeVectoredRequest failed: %v", err)
	}
	if got.FD != req.FD {
		t.Errorf("FD mismatch: %d != %d", got.FD, req.FD)
	}
	for i := range req.Handles {
		if got.Handles[i] != req.Handles[i] || got.Offsets[i] != req.Offsets[i] || got.Lengths[i] != req.Lengths[i] {
			t.Errorf("Triple %d mismatch: (%d,%d,%d)", i, got.Handles[i], got.Offsets[i], got.Lengths[i])
		}
	}
}

func TestVectoredRequestEmpty(t *testing.T) {
	req := &VectoredRequest{FD: 7}
	got, err := DecodeVectoredRequest(EncodeVectoredRequest(req))
	if err != nil {
		t.Fatalf("DecodeVectoredRequest failed: %v", err)
	}
	if len(got.Handles) != 0 || len(got.Offsets) != 0 || len(got.Lengths) != 0 {
		t.Error("Expected empty descriptor sequences")
	}
}

func TestVectoredRequestTruncated(t *testing.T) {
	data := EncodeVectoredRequest(&VectoredRequest{
		FD:      1,
		Handles: []int32{1},
		Offsets: []int32{0},
		Lengths: []int32{8},
	})
	for _, n := range []int{0, 3, 7, len(data) - 1} {
		if _, err := DecodeVectoredRequest(data[:n]); err == nil {
			t.Errorf("Expected error decoding %d of %d bytes", n, len(data))
		}
	}
}

func TestOpenFileRequestRoundtrip(t *testing.T) {
	req := &OpenFileRequest{Path: "sub/dir/data.bin", Create: true}
	got, err := DecodeOpenFileRequest(EncodeOpenFileRequest(req))
	if err != nil {
		t.Fatalf("DecodeOpenFileRequest failed: %v", err)
	}
	if got.Path != req.Path || got.Create != req.Create {
		t.Errorf("Roundtrip mismatch: %+v", got)
	}
}

func TestLoadBufferRequestRoundtrip(t *testing.T) {
	req := &LoadBufferRequest{Handle: 5, Offset: 512, Data: []byte{0xDE, 0xAD, 0xBE, 0xEF}}
	got, err := DecodeLoadBufferRequest(EncodeLoadBufferRequest(req))
	if err != nil {
		t.Fatalf("DecodeLoadBufferRequest failed: %v", err)
	}
	if got.Handle != 5 || got.Offset != 512 || !bytes.Equal(got.Data, req.Data) {
		t.Errorf("Roundtrip mismatch: %+v", got)
	}
}

func TestTransferRequestRoundtrip(t *testing.T) {
	req := &TransferRequest{FD: 3, Offset: 1 << 33, Count: 1 << 20}
	got, err := DecodeTransferRequest(EncodeTransferRequest(req))
	if err != nil {
		t.Fatalf("DecodeTransferRequest failed: %v", err)
	}
	if *got != *req {
		t.Errorf("Roundtrip mismatch: %+v != %+v", got, req)
	}
}

func TestCountResponseNegative(t *testing.T) {
	got, err := DecodeCountResponse(EncodeCountResponse(&CountResponse{Count: -1}))
	if err != nil {
		t.Fatalf("DecodeCountResponse failed: %v", err)
	}
	if got.Count != -1 {
		t.Errorf("Expected -1 to survive the wire, got %d", got.Count)
	}
}

func TestErrorResponseRoundtrip(t *testing.T) {
	resp := &ErrorResponse{Errno: 9, Message: "vio: readv: bad file descriptor"}
	got, err := DecodeErrorResponse(EncodeErrorResponse(resp))
	if err != nil {
		t.Fatalf("DecodeErrorResponse failed: %v", err)
	}
	if got.Errno != resp.Errno || got.Message != resp.Message {
		t.Errorf("Roundtrip mismatch: %+v", got)
	}
}

func TestWriteError(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteError(&buf, errors.New("boom"), 32); err != nil {
		t.Fatalf("WriteError failed: %v", err)
	}
	msg, err := ReadMessage(&buf)
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if msg.Header.Op != OpError {
		t.Fatalf("Expected OpError, got %v", msg.Header.Op)
	}
	resp, err := DecodeErrorResponse(msg.Payload)
	if err != nil {
		t.Fatalf("DecodeErrorResponse failed: %v", err)
	}
	if resp.Errno != 32 || resp.Message != "boom" {
		t.Errorf("Unexpected error response: %+v", resp)
	}
}
