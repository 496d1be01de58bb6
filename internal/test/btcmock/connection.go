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

// Package btcmock provides a scripted Bitcoin peer over an in-memory pipe
package btcmock

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/blinklabs-io/btcpeer/muxer"
	"github.com/blinklabs-io/btcpeer/wire"
)

type Connection struct {
	mockConn     net.Conn
	conn         net.Conn
	conversation []ConversationEntry
	muxer        *muxer.Muxer
	received     []string
	receivedLock sync.Mutex
	onceClose    sync.Once
	doneChan     chan struct{}
}

// NewConnection returns the client end of a pipe. The other end plays the conversation in
// a goroutine, then keeps reading and recording messages until the connection is closed.
func NewConnection(conversation []ConversationEntry) *Connection {
	c := &Connection{
		conversation: conversation,
		doneChan:     make(chan struct{}),
	}
	c.conn, c.mockConn = net.Pipe()
	c.muxer = muxer.New(
		c.mockConn,
		muxer.WithNetworkMagic(MockNetworkMagic),
	)
	go c.asyncLoop()
	return c
}

func (c *Connection) Read(b []byte) (n int, err error) {
	return c.conn.Read(b)
}

func (c *Connection) Write(b []byte) (n int, err error) {
	return c.conn.Write(b)
}

// Close closes both ends of the pipe and waits for the conversation goroutine to exit
func (c *Connection) Close() error {
	err := c.closeConns()
	<-c.doneChan
	return err
}

func (c *Connection) closeConns() error {
	var err error
	c.onceClose.Do(func() {
		c.muxer.Stop()
		err = errors.Join(c.conn.Close(), c.mockConn.Close())
	})
	return err
}

func (c *Connection) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *Connection) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

// Received returns the commands received by the mock peer so far, in order
func (c *Connection) Received() []string {
	c.receivedLock.Lock()
	defer c.receivedLock.Unlock()
	return append([]string{}, c.received...)
}

func (c *Connection) recordReceived(command string) {
	c.receivedLock.Lock()
	defer c.receivedLock.Unlock()
	c.received = append(c.received, command)
}

func (c *Connection) asyncLoop() {
	defer close(c.doneChan)
	for _, entry := range c.conversation {
		var err error
		switch entry.Type {
		case EntryTypeInput:
			err = c.processInputEntry(entry)
		case EntryTypeOutput:
			err = c.processOutputEntry(entry)
		case EntryTypeClose:
			_ = c.closeConns()
			return
		default:
			err = fmt.Errorf(
				"unknown conversation entry type: %d: %#v",
				entry.Type,
				entry,
			)
		}
		if err != nil {
			if isClosed(err) {
				return
			}
			panic(err.Error())
		}
	}
	// Record anything else the client sends until the connection goes away
	for {
		msg, err := c.muxer.ReadMessage()
		if err != nil {
			return
		}
		c.recordReceived(msg.Command)
	}
}

func isClosed(err error) bool {
	return errors.Is(err, wire.ErrConnectionClosed) ||
		errors.Is(err, muxer.ErrMuxerStopped)
}

func (c *Connection) processInputEntry(entry ConversationEntry) error {
	msg, err := c.muxer.ReadMessage()
	if err != nil {
		return err
	}
	c.recordReceived(msg.Command)
	if msg.Command != entry.Command {
		return fmt.Errorf(
			"input message is not of expected command: expected %s, got %s",
			entry.Command,
			msg.Command,
		)
	}
	if entry.InputFunc != nil {
		if err := entry.InputFunc(msg); err != nil {
			return fmt.Errorf("input %s message check failed: %w", msg.Command, err)
		}
	}
	return nil
}

func (c *Connection) processOutputEntry(entry ConversationEntry) error {
	var buf []byte
	messages := entry.Messages
	if entry.MessagesFunc != nil {
		messages = append(append([]wire.RawMessage{}, messages...), entry.MessagesFunc()...)
	}
	for _, msg := range messages {
		data, err := wire.BuildMessage(MockNetworkMagic, msg.Command, msg.Payload)
		if err != nil {
			return err
		}
		buf = append(buf, data...)
	}
	buf = append(buf, entry.RawOutput...)
	if _, err := c.mockConn.Write(buf); err != nil {
		return fmt.Errorf("%w: %w", wire.ErrConnectionClosed, err)
	}
	return nil
}
