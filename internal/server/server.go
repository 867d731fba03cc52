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
Package server implements the FlyIO TCP server.

ARCHITECTURE OVERVIEW:
======================
The server is the network face of the bridge. It:

1. Accepts incoming client connections
2. Parses FlyIO binary protocol messages
3. Routes I/O requests through a per-session bridge instance
4. Manages connection lifecycle and graceful shutdown

SESSION MODEL:
==============
Each connection is a session with its own buffer registry and its own
set of opened files. Handles and descriptors never cross sessions, and
everything a session owns is released when it disconnects. Session IDs
are UUIDs used for log correlation.

CONNECTION FLOW:
================
1. Client connects
2. Server spawns a goroutine to handle the connection
3. Handler reads messages in a loop and dispatches on opcode
4. Failed operations produce an error response; the loop continues
5. Loop exits on disconnect, shutdown, or a desynchronized transfer

TRANSFER FRAMING:
=================
OpTransfer responses are framed by byte count: the header promises
exactly N payload bytes, then sendfile moves N bytes from the file to
the socket. The requested count is clamped to what the file can provide
so the promise can be kept; if the kernel still comes up short the
connection is closed rather than left desynchronized.

THREAD SAFETY:
==============
One goroutine per connection; a session is only ever touched by its own
goroutine. Shared state (metrics, config) is atomic or read-only.
*/
package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"flyio/internal/bridge"
	"flyio/internal/buffer"
	"flyio/internal/config"
	"flyio/internal/logging"
	"flyio/internal/metrics"
	"flyio/internal/protocol"
	"flyio/internal/vio"
)

// errDesynced marks a connection whose response stream no longer lines
// up with its framing. The only safe handling is to drop the connection.
var errDesynced = errors.New("connection desynchronized")

// errUnknownFD is returned for descriptors the session never opened.
var errUnknownFD = errors.New("unknown file descriptor")

// Server accepts FlyIO protocol connections and serves bridge calls.
type Server struct {
	config     *config.Config
	logger     *logging.Logger
	connLogger *logging.ConnectionLogger
	opLogger   *logging.OpLogger

	ln      net.Listener
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a Server with the given configuration.
func New(cfg *config.Config) *Server {
	return &Server{
		config:     cfg,
		logger:     logging.NewLogger("server"),
		connLogger: logging.NewConnectionLogger(logging.NewLogger("connection")),
		opLogger:   logging.NewOpLogger(logging.NewLogger("op")),
		stopCh:     make(chan struct{}),
	}
}

// Start creates the data directory, binds the listener, and begins
// accepting connections in the background.
func (s *Server) Start() error {
	if err := os.MkdirAll(s.config.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	ln, err := net.Listen("tcp", s.config.BindAddr)
	if err != nil {
		return err
	}
	s.ln = ln

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.logger.Info("Server started", "addr", ln.Addr().String(), "data_dir", s.config.DataDir)

	go s.acceptLoop()
	return nil
}

// Addr returns the listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stop gracefully shuts down the server and waits for all connection
// handlers to finish. Idempotent.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.ln.Close()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Server stopped")
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				s.logger.Error("Accept error", "error", err)
				continue
			}
		}
		// Add to WaitGroup BEFORE spawning goroutine to prevent race
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		// Disable Nagle's algorithm for lower latency
		tcpConn.SetNoDelay(true)
		tcpConn.SetKeepAlive(true)
		tcpConn.SetKeepAlivePeriod(30 * time.Second)
	}

	m := metrics.Get()
	m.ActiveConnections.Add(1)
	m.TotalConnections.Add(1)
	defer m.ActiveConnections.Add(-1)

	sess := newSession(conn, s.config)
	defer sess.close()

	connStart := time.Now()
	s.connLogger.LogNewConnection(conn, sess.id)
	reason := "client_disconnect"
	defer func() {
		s.connLogger.LogConnectionClosed(conn, sess.id, reason, time.Since(connStart))
	}()

	for {
		select {
		case <-s.stopCh:
			reason = "server_shutdown"
			return
		default:
		}

		// Reset per message so active connections stay open.
		conn.SetReadDeadline(time.Now().Add(s.config.ReadDeadline()))

		msg, err := protocol.ReadMessage(conn)
		if err != nil {
			if err != io.EOF {
				s.logger.Error("Read error", "error", err, "addr", conn.RemoteAddr())
				reason = "read_error"
			}
			return
		}

		if err := s.handleMessage(conn, sess, msg); err != nil {
			if errors.Is(err, errDesynced) {
				s.logger.Error("Dropping desynchronized connection",
					"session_id", sess.id, "error", err)
				reason = "desynchronized"
				return
			}
			protocol.WriteError(conn, err, errnoOf(err))
		}
	}
}

// handleMessage routes one message to its handler. Handler errors are
// turned into error responses by the caller; errDesynced drops the
// connection instead.
func (s *Server) handleMessage(conn net.Conn, sess *session, msg *protocol.Message) error {
	payload := msg.Payload

	switch msg.Header.Op {
	// ========== File and Buffer Management ==========
	case protocol.OpOpenFile:
		return s.handleOpenFile(conn, sess, payload)
	case protocol.OpCloseFile:
		return s.handleCloseFile(conn, sess, payload)
	case protocol.OpAllocBuffer:
		return s.handleAllocBuffer(conn, sess, payload)
	case protocol.OpReleaseBuffer:
		return s.handleReleaseBuffer(conn, sess, payload)
	case protocol.OpLoadBuffer:
		return s.handleLoadBuffer(conn, sess, payload)
	case protocol.OpReadBuffer:
		return s.handleReadBuffer(conn, sess, payload)
	case protocol.OpMapFile:
		return s.handleMapFile(conn, sess, payload)
	case protocol.OpSyncBuffer:
		return s.handleSyncBuffer(conn, sess, payload)

	// ========== I/O Entry Points ==========
	case protocol.OpReadv:
		return s.handleVectored(conn, sess, msg.Header.Op, payload)
	case protocol.OpWritev:
		return s.handleVectored(conn, sess, msg.Header.Op, payload)
	case protocol.OpTransfer:
		return s.handleTransfer(conn, sess, payload)

	// ========== Introspection ==========
	case protocol.OpStats:
		return s.handleStats(conn)

	default:
		return fmt.Errorf("unknown opcode 0x%02X", byte(msg.Header.Op))
	}
}

func (s *Server) handleOpenFile(w io.Writer, sess *session, payload []byte) error {
	req, err := protocol.DecodeOpenFileRequest(payload)
	if err != nil {
		return err
	}

	path, err := s.resolvePath(req.Path)
	if err != nil {
		return err
	}

	flags := os.O_RDWR
	if req.Create {
		flags |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return err
	}

	fd := sess.addFile(f)
	metrics.Get().OpenFiles.Add(1)
	return protocol.WriteMessage(w, protocol.OpOpenFile,
		protocol.EncodeOpenFileResponse(&protocol.OpenFileResponse{FD: fd}))
}

func (s *Server) handleCloseFile(w io.Writer, sess *session, payload []byte) error {
	fd, err := protocol.DecodeInt32(payload)
	if err != nil {
		return err
	}
	if err := sess.closeFile(fd); err != nil {
		return err
	}
	metrics.Get().OpenFiles.Add(-1)
	return protocol.WriteMessage(w, protocol.OpCloseFile, nil)
}

func (s *Server) handleAllocBuffer(w io.Writer, sess *session, payload []byte) error {
	size, err := protocol.DecodeInt32(payload)
	if err != nil {
		return err
	}
	if size > s.config.MaxBufferBytes {
		return fmt.Errorf("buffer size %d exceeds limit %d", size, s.config.MaxBufferBytes)
	}
	handle, err := sess.registry.Alloc(size)
	if err != nil {
		return err
	}
	metrics.Get().LiveBuffers.Add(1)
	return protocol.WriteMessage(w, protocol.OpAllocBuffer, protocol.EncodeInt32(handle))
}

func (s *Server) handleReleaseBuffer(w io.Writer, sess *session, payload []byte) error {
	handle, err := protocol.DecodeInt32(payload)
	if err != nil {
		return err
	}
	if err := sess.registry.Release(handle); err != nil {
		return err
	}
	metrics.Get().LiveBuffers.Add(-1)
	return protocol.WriteMessage(w, protocol.OpReleaseBuffer, nil)
}

func (s *Server) handleLoadBuffer(w io.Writer, sess *session, payload []byte) error {
	req, err := protocol.DecodeLoadBufferRequest(payload)
	if err != nil {
		return err
	}
	view, err := sess.registry.View(req.Handle)
	if err != nil {
		return err
	}
	if req.Offset < 0 || int(req.Offset)+len(req.Data) > len(view) {
		return fmt.Errorf("load of %d bytes at %d exceeds region of %d bytes",
			len(req.Data), req.Offset, len(view))
	}
	copy(view[req.Offset:], req.Data)
	return protocol.WriteMessage(w, protocol.OpLoadBuffer, nil)
}

func (s *Server) handleReadBuffer(w io.Writer, sess *session, payload []byte) error {
	req, err := protocol.DecodeReadBufferRequest(payload)
	if err != nil {
		return err
	}
	view, err := sess.registry.View(req.Handle)
	if err != nil {
		return err
	}
	if req.Offset < 0 || req.Length < 0 || int64(req.Offset)+int64(req.Length) > int64(len(view)) {
		return fmt.Errorf("read of %d bytes at %d exceeds region of %d bytes",
			req.Length, req.Offset, len(view))
	}
	data := make([]byte, req.Length)
	copy(data, view[req.Offset:])
	return protocol.WriteMessage(w, protocol.OpReadBuffer,
		protocol.EncodeReadBufferResponse(&protocol.ReadBufferResponse{Data: data}))
}

func (s *Server) handleMapFile(w io.Writer, sess *session, payload []byte) error {
	fd, err := protocol.DecodeInt32(payload)
	if err != nil {
		return err
	}
	f, ok := sess.file(fd)
	if !ok {
		return fmt.Errorf("%w: %d", errUnknownFD, fd)
	}
	handle, err := sess.registry.MapFile(f)
	if err != nil {
		return err
	}
	metrics.Get().LiveBuffers.Add(1)
	return protocol.WriteMessage(w, protocol.OpMapFile, protocol.EncodeInt32(handle))
}

func (s *Server) handleSyncBuffer(w io.Writer, sess *session, payload []byte) error {
	handle, err := protocol.DecodeInt32(payload)
	if err != nil {
		return err
	}
	if err := sess.registry.Sync(handle); err != nil {
		return err
	}
	return protocol.WriteMessage(w, protocol.OpSyncBuffer, nil)
}

// handleVectored serves both readv and writev. The bridge result,
// including the -1 sentinel, goes back as a count response; a reported
// failure goes back as an error response instead.
func (s *Server) handleVectored(w io.Writer, sess *session, op protocol.OpCode, payload []byte) error {
	req, err := protocol.DecodeVectoredRequest(payload)
	if err != nil {
		return err
	}
	if _, ok := sess.file(req.FD); !ok {
		return fmt.Errorf("%w: %d", errUnknownFD, req.FD)
	}

	name := op.Name()
	size := int32(len(req.Handles))
	start := time.Now()

	sess.status.Reset()
	var count int64
	if op == protocol.OpReadv {
		count = sess.ops.Readv(req.FD, req.Handles, req.Offsets, req.Lengths, size)
	} else {
		count = sess.ops.Writev(req.FD, req.Handles, req.Offsets, req.Lengths, size)
	}

	m := metrics.Get()
	m.RecordCall(name, count)

	if reportErr := sess.status.Err(); reportErr != nil {
		m.IOFailures.Add(1)
		s.opLogger.LogOpFailure(name, sess.id, reportErr, int32(sess.status.Errno()))
		return reportErr
	}
	if op == protocol.OpReadv && count == -1 {
		// End-of-stream collapse: -1 with nothing reported.
		m.EndOfStreams.Add(1)
	}

	s.opLogger.LogOp(name, sess.id, count, time.Since(start))
	return protocol.WriteMessage(w, op,
		protocol.EncodeCountResponse(&protocol.CountResponse{Count: count}))
}

// handleTransfer serves the transfer entry point. The client's own
// connection is the destination socket.
func (s *Server) handleTransfer(conn net.Conn, sess *session, payload []byte) error {
	req, err := protocol.DecodeTransferRequest(payload)
	if err != nil {
		return err
	}
	f, ok := sess.file(req.FD)
	if !ok {
		return fmt.Errorf("%w: %d", errUnknownFD, req.FD)
	}
	if req.Offset < 0 || req.Count < 0 {
		return fmt.Errorf("negative offset or count")
	}
	dst, ok := conn.(bridge.SocketDescriptor)
	if !ok {
		return fmt.Errorf("connection does not expose a socket descriptor")
	}

	// Clamp to what the file can provide so the response framing can
	// promise an exact byte count.
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	total := req.Count
	if avail := fi.Size() - req.Offset; avail < total {
		total = avail
	}
	if total < 0 {
		total = 0
	}
	// One response frame carries at most MaxMessageSize bytes; the
	// header's Length field is validated against that limit on both
	// sides. A larger request comes back short and the caller continues
	// from the next offset.
	if total > protocol.MaxMessageSize {
		total = protocol.MaxMessageSize
	}

	h := protocol.Header{
		Magic:   protocol.MagicByte,
		Version: protocol.ProtocolVersion,
		Op:      protocol.OpTransfer,
		Length:  uint32(total),
	}
	if err := protocol.WriteHeader(conn, h); err != nil {
		return fmt.Errorf("%w: %v", errDesynced, err)
	}

	name := "transfer"
	start := time.Now()
	m := metrics.Get()

	// The header has promised exactly total bytes, so short transfers
	// are resumed until the promise is kept. Each iteration is one
	// bridge call; the bridge itself never retries.
	offset := req.Offset
	var sent int64
	for sent < total {
		sess.status.Reset()
		n := sess.ops.Transfer(req.FD, dst, offset, total-sent)
		m.RecordCall(name, n)
		if reportErr := sess.status.Err(); reportErr != nil {
			m.IOFailures.Add(1)
			s.opLogger.LogOpFailure(name, sess.id, reportErr, int32(sess.status.Errno()))
			return fmt.Errorf("%w: %v", errDesynced, reportErr)
		}
		if n <= 0 {
			return fmt.Errorf("%w: transfer stalled at %d of %d bytes", errDesynced, sent, total)
		}
		offset += n
		sent += n
	}

	s.opLogger.LogOp(name, sess.id, sent, time.Since(start))
	return nil
}

func (s *Server) handleStats(w io.Writer) error {
	return protocol.WriteMessage(w, protocol.OpStats, []byte(metrics.Get().Format()))
}

// resolvePath confines a client path to the data directory.
func (s *Server) resolvePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("absolute paths are not allowed")
	}
	clean := filepath.Clean(path)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes data directory")
	}
	return filepath.Join(s.config.DataDir, clean), nil
}

// errnoOf extracts the platform error code for the wire, 0 when the
// failure did not come from the operating system.
func errnoOf(err error) int32 {
	var verr *vio.Error
	if errors.As(err, &verr) {
		return int32(verr.Errno)
	}
	return 0
}

// session is the per-connection state: a UUID for log correlation, the
// session's buffer registry, its opened files, and its entry-point table.
type session struct {
	id       string
	registry *buffer.Registry
	files    map[int32]*os.File
	status   *bridge.Status
	ops      bridge.Entrypoints
}

func newSession(conn net.Conn, cfg *config.Config) *session {
	sess := &session{
		id:       uuid.New().String(),
		registry: buffer.NewRegistry(cfg.RegistryCapacity),
		files:    make(map[int32]*os.File),
		status:   &bridge.Status{},
	}
	sess.ops = bridge.New(sess.registry, sess.status).Entrypoints()
	return sess
}

// addFile records an opened file under its OS descriptor.
func (sess *session) addFile(f *os.File) int32 {
	fd := int32(f.Fd())
	sess.files[fd] = f
	return fd
}

func (sess *session) file(fd int32) (*os.File, bool) {
	f, ok := sess.files[fd]
	return f, ok
}

func (sess *session) closeFile(fd int32) error {
	f, ok := sess.files[fd]
	if !ok {
		return fmt.Errorf("%w: %d", errUnknownFD, fd)
	}
	delete(sess.files, fd)
	return f.Close()
}

// close releases everything the session owns: mapped and allocated
// buffers first, then files.
func (sess *session) close() {
	m := metrics.Get()
	m.LiveBuffers.Add(int64(-sess.registry.Len()))
	sess.registry.Close()
	for fd, f := range sess.files {
		f.Close()
		delete(sess.files, fd)
		m.OpenFiles.Add(-1)
	}
}
