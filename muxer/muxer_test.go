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

package muxer_test

import (
	"bytes"
	"errors"
	"io"
	"net"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/blinklabs-io/btcpeer/internal/test"
	"github.com/blinklabs-io/btcpeer/muxer"
	"github.com/blinklabs-io/btcpeer/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testMagic uint32 = 0xd9b4bef9

func TestReadFullMessage(t *testing.T) {
	payload := bytes.Repeat([]byte{0xab}, 100)
	full := test.MustBuildMessage(testMagic, wire.CmdTx, payload)
	tests := []struct {
		name   string
		buf    []byte
		stream []byte
	}{
		{
			name:   "header only",
			buf:    full[:wire.MessageHeaderSize],
			stream: full[wire.MessageHeaderSize:],
		},
		{
			name:   "partial payload",
			buf:    full[:wire.MessageHeaderSize+30],
			stream: full[wire.MessageHeaderSize+30:],
		},
		{
			name: "complete",
			buf:  full,
		},
		{
			name: "trailing bytes",
			buf:  append(append([]byte{}, full...), test.MustBuildMessage(testMagic, wire.CmdVerack, nil)...),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := bytes.NewReader(tt.stream)
			msg, err := muxer.ReadFullMessage(tt.buf, stream, testMagic)
			require.NoError(t, err)
			assert.Equal(t, wire.CmdTx, msg.Command)
			assert.Equal(t, uint32(len(payload)), msg.Length)
			assert.Equal(t, payload, msg.Payload)
			// Only the declared payload length is consumed from the stream
			assert.Equal(t, 0, stream.Len())
		})
	}
}

// errReader fails every read with err
type errReader struct {
	err error
}

func (r errReader) Read([]byte) (int, error) {
	return 0, r.err
}

func TestReadFullMessageTruncated(t *testing.T) {
	// Declared length of 100 with only 50 payload bytes before the peer goes away
	full := test.MustBuildMessage(testMagic, wire.CmdBlock, make([]byte, 100))
	tests := []struct {
		name      string
		buf       []byte
		stream    []byte
		streamErr error
	}{
		{
			name:   "header only",
			buf:    full[:wire.MessageHeaderSize],
			stream: full[wire.MessageHeaderSize : wire.MessageHeaderSize+50],
		},
		{
			name: "buffer only",
			buf:  full[:wire.MessageHeaderSize+50],
		},
		{
			name:      "closed pipe",
			buf:       full[:wire.MessageHeaderSize+20],
			stream:    full[wire.MessageHeaderSize+20 : wire.MessageHeaderSize+50],
			streamErr: io.ErrClosedPipe,
		},
		{
			name:      "closed network connection",
			buf:       full[:wire.MessageHeaderSize],
			stream:    full[wire.MessageHeaderSize : wire.MessageHeaderSize+50],
			streamErr: net.ErrClosed,
		},
		{
			name:      "connection reset",
			buf:       full[:wire.MessageHeaderSize],
			stream:    full[wire.MessageHeaderSize : wire.MessageHeaderSize+50],
			streamErr: &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", syscall.ECONNRESET)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stream io.Reader = bytes.NewReader(tt.stream)
			if tt.streamErr != nil {
				stream = io.MultiReader(stream, errReader{err: tt.streamErr})
			}
			_, err := muxer.ReadFullMessage(tt.buf, stream, testMagic)
			require.ErrorIs(t, err, wire.ErrConnectionClosed)
			require.ErrorIs(t, err, wire.ErrTruncatedInput)
			assert.Contains(t, err.Error(), "have 50 of 100 bytes")
		})
	}
}

func TestReadFullMessageChecksumMismatch(t *testing.T) {
	full := test.MustBuildMessage(testMagic, wire.CmdTx, []byte{1, 2, 3, 4})
	full[len(full)-1] ^= 0x01
	msg, err := muxer.ReadFullMessage(full, bytes.NewReader(nil), testMagic)
	require.ErrorIs(t, err, wire.ErrChecksumMismatch)
	require.NotNil(t, msg)
	assert.Equal(t, []byte{1, 2, 3, 5}, msg.Payload)
}

func TestReadFullMessageBadMagic(t *testing.T) {
	full := test.MustBuildMessage(testMagic, wire.CmdTx, nil)
	_, err := muxer.ReadFullMessage(full, bytes.NewReader(nil), 0x0709110b)
	require.ErrorIs(t, err, wire.ErrBadMagic)
}

// newPipe returns a muxer over one end of a pipe along with the other end
func newPipe(t *testing.T, options ...muxer.MuxerOptionFunc) (*muxer.Muxer, net.Conn) {
	t.Helper()
	local, remote := net.Pipe()
	t.Cleanup(func() {
		local.Close()
		remote.Close()
	})
	options = append([]muxer.MuxerOptionFunc{muxer.WithNetworkMagic(testMagic)}, options...)
	return muxer.New(local, options...), remote
}

// writeAsync writes each chunk in a separate Write call from a goroutine and returns a
// channel that receives the result
func writeAsync(conn net.Conn, chunks ...[]byte) <-chan error {
	errChan := make(chan error, 1)
	go func() {
		for _, chunk := range chunks {
			if _, err := conn.Write(chunk); err != nil {
				errChan <- err
				return
			}
		}
		errChan <- nil
	}()
	return errChan
}

func TestMuxerReadMessagesSingleWrite(t *testing.T) {
	defer goleak.VerifyNone(t)
	m, remote := newPipe(t)
	version := test.MustBuildMessage(testMagic, wire.CmdVersion, []byte("not really a version"))
	verack := test.MustBuildMessage(testMagic, wire.CmdVerack, nil)
	errChan := writeAsync(remote, append(append([]byte{}, version...), verack...))
	msg, err := m.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, wire.CmdVersion, msg.Command)
	msg, err = m.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, wire.CmdVerack, msg.Command)
	assert.Empty(t, msg.Payload)
	require.NoError(t, <-errChan)
}

func TestMuxerReadMessageSplitWrites(t *testing.T) {
	defer goleak.VerifyNone(t)
	m, remote := newPipe(t)
	full := test.MustBuildMessage(testMagic, wire.CmdInv, wire.EncodeInventory(nil))
	// Split inside the header and again inside the payload
	errChan := writeAsync(remote, full[:10], full[10:wire.MessageHeaderSize], full[wire.MessageHeaderSize:])
	msg, err := m.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, wire.CmdInv, msg.Command)
	assert.Equal(t, []byte{0x00}, msg.Payload)
	require.NoError(t, <-errChan)
}

func TestMuxerPeerClosedMidPayload(t *testing.T) {
	defer goleak.VerifyNone(t)
	m, remote := newPipe(t)
	full := test.MustBuildMessage(testMagic, wire.CmdBlock, make([]byte, 100))
	go func() {
		_, _ = remote.Write(full[:wire.MessageHeaderSize+50])
		remote.Close()
	}()
	_, err := m.ReadMessage()
	require.ErrorIs(t, err, wire.ErrConnectionClosed)
	require.ErrorIs(t, err, wire.ErrTruncatedInput)
}

func TestMuxerPeerClosed(t *testing.T) {
	defer goleak.VerifyNone(t)
	m, remote := newPipe(t)
	remote.Close()
	_, err := m.ReadMessage()
	require.ErrorIs(t, err, wire.ErrConnectionClosed)
	assert.False(t, errors.Is(err, wire.ErrTruncatedInput))
}

func TestMuxerChecksum(t *testing.T) {
	tests := []struct {
		name    string
		strict  bool
		wantErr bool
	}{
		{name: "strict", strict: true, wantErr: true},
		{name: "lenient", strict: false, wantErr: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)
			m, remote := newPipe(t, muxer.WithStrictChecksum(tt.strict))
			full := test.MustBuildMessage(testMagic, wire.CmdTx, []byte{1, 2, 3})
			full[wire.MessageHeaderSize] = 0xff
			errChan := writeAsync(remote, full)
			msg, err := m.ReadMessage()
			if tt.wantErr {
				require.ErrorIs(t, err, wire.ErrChecksumMismatch)
				require.NotNil(t, msg)
				assert.Equal(t, wire.CmdTx, msg.Command)
			} else {
				require.NoError(t, err)
				assert.Equal(t, []byte{0xff, 2, 3}, msg.Payload)
			}
			require.NoError(t, <-errChan)
		})
	}
}

func TestMuxerSend(t *testing.T) {
	defer goleak.VerifyNone(t)
	m, remote := newPipe(t)
	readChan := make(chan []byte, 1)
	go func() {
		buf := make([]byte, wire.MessageHeaderSize+4)
		if _, err := io.ReadFull(remote, buf); err != nil {
			readChan <- nil
			return
		}
		readChan <- buf
	}()
	require.NoError(t, m.Send(wire.CmdVerack, wire.VerackPayload(false)))
	expected := test.MustBuildMessage(testMagic, wire.CmdVerack, make([]byte, 4))
	assert.Equal(t, expected, <-readChan)
	err := m.Send("commandistoolong", nil)
	require.ErrorIs(t, err, wire.ErrInvalidCommandName)
}

func TestMuxerReadTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)
	m, _ := newPipe(t, muxer.WithReadTimeout(20*time.Millisecond))
	_, err := m.ReadMessage()
	require.ErrorIs(t, err, os.ErrDeadlineExceeded)
	assert.False(t, errors.Is(err, wire.ErrConnectionClosed))
}

func TestMuxerStop(t *testing.T) {
	defer goleak.VerifyNone(t)
	m, _ := newPipe(t)
	m.Stop()
	m.Stop()
	_, err := m.ReadMessage()
	require.ErrorIs(t, err, muxer.ErrMuxerStopped)
	require.ErrorIs(t, m.Send(wire.CmdPing, nil), muxer.ErrMuxerStopped)
}
