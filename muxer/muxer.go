// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package muxer reads and writes framed Bitcoin P2P messages over a connection
package muxer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/blinklabs-io/btcpeer/wire"
)

// Size of the buffered reader in front of the connection. Bytes read past the end of one
// message are kept for the next one.
const readBufferSize = 64 * 1024

var ErrMuxerStopped = errors.New("muxer has been stopped")

type Muxer struct {
	conn           net.Conn
	reader         *bufio.Reader
	logger         *slog.Logger
	magic          uint32
	strictChecksum bool
	readTimeout    time.Duration
	connectionId   string
	sendMutex      sync.Mutex
	readMutex      sync.Mutex
	doneChan       chan struct{}
	onceStop       sync.Once
}

type MuxerOptionFunc func(*Muxer)

// WithNetworkMagic specifies the network magic expected on every received message and
// written on every sent message
func WithNetworkMagic(magic uint32) MuxerOptionFunc {
	return func(m *Muxer) {
		m.magic = magic
	}
}

// WithStrictChecksum controls whether a checksum mismatch is returned as an error (the
// default) or logged and the message delivered anyway
func WithStrictChecksum(strict bool) MuxerOptionFunc {
	return func(m *Muxer) {
		m.strictChecksum = strict
	}
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) MuxerOptionFunc {
	return func(m *Muxer) {
		m.logger = logger
	}
}

// WithReadTimeout sets a deadline for each call to ReadMessage
func WithReadTimeout(timeout time.Duration) MuxerOptionFunc {
	return func(m *Muxer) {
		m.readTimeout = timeout
	}
}

func New(conn net.Conn, options ...MuxerOptionFunc) *Muxer {
	m := &Muxer{
		conn:           conn,
		reader:         bufio.NewReaderSize(conn, readBufferSize),
		strictChecksum: true,
		doneChan:       make(chan struct{}),
	}
	for _, option := range options {
		option(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if addr := conn.RemoteAddr(); addr != nil {
		m.connectionId = addr.String()
	}
	return m
}

// ConnectionId identifies the connection in log messages
func (m *Muxer) ConnectionId() string {
	return m.connectionId
}

// Magic returns the network magic used for framing
func (m *Muxer) Magic() uint32 {
	return m.magic
}

// ReadTimeout returns the deadline currently applied to each ReadMessage call
func (m *Muxer) ReadTimeout() time.Duration {
	m.readMutex.Lock()
	defer m.readMutex.Unlock()
	return m.readTimeout
}

// SetReadTimeout changes the deadline applied to each subsequent ReadMessage call. A zero
// value disables the deadline.
func (m *Muxer) SetReadTimeout(timeout time.Duration) {
	m.readMutex.Lock()
	defer m.readMutex.Unlock()
	m.readTimeout = timeout
}

// Stop marks the muxer as stopped. It does not close the underlying connection.
func (m *Muxer) Stop() {
	m.onceStop.Do(func() {
		close(m.doneChan)
	})
}

func (m *Muxer) stopped() bool {
	select {
	case <-m.doneChan:
		return true
	default:
		return false
	}
}

// Send frames the payload with the given command and writes it to the connection
func (m *Muxer) Send(command string, payload []byte) error {
	if m.stopped() {
		return ErrMuxerStopped
	}
	msg, err := wire.BuildMessage(m.magic, command, payload)
	if err != nil {
		return err
	}
	// We use a mutex to make sure only one message is written at a time
	m.sendMutex.Lock()
	defer m.sendMutex.Unlock()
	if _, err := m.conn.Write(msg); err != nil {
		return connError(fmt.Sprintf("writing %s message", command), err)
	}
	m.logger.Debug(
		"sent message",
		"component", "network",
		"connection_id", m.connectionId,
		"command", command,
		"length", len(payload),
	)
	return nil
}

// ReadMessage blocks until a complete message has been read from the connection. With
// strict checksums, a message with a bad checksum is returned along with an error matching
// wire.ErrChecksumMismatch.
func (m *Muxer) ReadMessage() (*wire.Message, error) {
	if m.stopped() {
		return nil, ErrMuxerStopped
	}
	m.readMutex.Lock()
	defer m.readMutex.Unlock()
	if m.readTimeout > 0 {
		if err := m.conn.SetReadDeadline(time.Now().Add(m.readTimeout)); err != nil {
			return nil, err
		}
		defer func() {
			_ = m.conn.SetReadDeadline(time.Time{})
		}()
	}
	header := make([]byte, wire.MessageHeaderSize)
	if _, err := io.ReadFull(m.reader, header); err != nil {
		return nil, connError("reading message header", err)
	}
	msg, err := ReadFullMessage(header, m.reader, m.magic)
	if err != nil {
		if !errors.Is(err, wire.ErrChecksumMismatch) {
			return nil, err
		}
		if m.strictChecksum {
			// The frame was consumed in full, so the message is returned for reporting
			return msg, err
		}
		m.logger.Warn(
			"accepting message with bad checksum",
			"component", "network",
			"connection_id", m.connectionId,
			"command", msg.Command,
			"error", err,
		)
	}
	m.logger.Debug(
		"received message",
		"component", "network",
		"connection_id", m.connectionId,
		"command", msg.Command,
		"length", msg.Length,
	)
	return msg, nil
}

// connError normalizes transport errors so a closed or reset connection always matches
// wire.ErrConnectionClosed, and a close partway through a header also matches
// wire.ErrTruncatedInput. ReadFullMessage marks short payloads itself.
func connError(what string, err error) error {
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: %w: %s", wire.ErrConnectionClosed, wire.ErrTruncatedInput, what)
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return fmt.Errorf("%w: %s: %w", wire.ErrConnectionClosed, what, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}
