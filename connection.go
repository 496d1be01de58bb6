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

// Package btcpeer implements a single outbound Bitcoin peer session: dial, version/verack
// handshake, then a sequential loop that decodes inv, tx and block messages and requests
// announced data with getdata.
package btcpeer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/blinklabs-io/btcpeer/muxer"
	"github.com/blinklabs-io/btcpeer/protocol/handshake"
	"github.com/blinklabs-io/btcpeer/wire"
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultSeenInventorySize = 10000

// Message is a decoded message returned by Connection.Next. It is one of *wire.Inventory,
// *wire.MsgTx, *wire.MsgBlock, *wire.MsgVersion or *wire.RawMessage.
type Message any

// DecodeError reports a message that was read successfully but could not be decoded. The
// connection remains usable.
type DecodeError struct {
	Command string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s message: %s", e.Command, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Connection is a single peer session. It is not safe for concurrent use by multiple
// goroutines, except for Close.
type Connection struct {
	conn                    net.Conn
	network                 Network
	networkMagic            uint32
	logger                  *slog.Logger
	muxer                   *muxer.Muxer
	handshake               *handshake.Client
	handshakeConfig         *handshake.Config
	strictChecksum          bool
	readTimeout             time.Duration
	seenInventorySize       int
	seenInventory           *lru.Cache[wire.InvVect, struct{}]
	decodeBlockTransactions bool
	sendEmptyGetData        bool
	onceClose               sync.Once
}

func NewConnection(options ...ConnectionOptionFunc) (*Connection, error) {
	c := &Connection{
		strictChecksum:    true,
		seenInventorySize: DefaultSeenInventorySize,
	}
	// Apply provided options functions
	for _, option := range options {
		option(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.conn != nil {
		if err := c.setupConnection(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Dial connects to the given address and performs the handshake
func (c *Connection) Dial(ctx context.Context, proto string, address string) error {
	if c.conn != nil {
		return errors.New("a connection was already established")
	}
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, proto, address)
	if err != nil {
		return err
	}
	c.conn = conn
	return c.setupConnection()
}

func (c *Connection) Close() error {
	var err error
	c.onceClose.Do(func() {
		if c.muxer != nil {
			c.muxer.Stop()
		}
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

func (c *Connection) Muxer() *muxer.Muxer {
	return c.muxer
}

func (c *Connection) Handshake() *handshake.Client {
	return c.handshake
}

// PeerVersion returns the version message received from the peer during the handshake
func (c *Connection) PeerVersion() *wire.MsgVersion {
	if c.handshake == nil {
		return nil
	}
	return c.handshake.PeerVersion()
}

func (c *Connection) NetworkMagic() uint32 {
	return c.networkMagic
}

func (c *Connection) setupConnection() error {
	// Check network magic value
	if c.networkMagic == 0 {
		c.conn.Close()
		return fmt.Errorf("invalid network magic value provided: %d", c.networkMagic)
	}
	if c.seenInventorySize > 0 {
		cache, err := lru.New[wire.InvVect, struct{}](c.seenInventorySize)
		if err != nil {
			c.conn.Close()
			return err
		}
		c.seenInventory = cache
	}
	c.muxer = muxer.New(
		c.conn,
		muxer.WithNetworkMagic(c.networkMagic),
		muxer.WithStrictChecksum(c.strictChecksum),
		muxer.WithLogger(c.logger),
		muxer.WithReadTimeout(c.readTimeout),
	)
	var handshakeConfig handshake.Config
	if c.handshakeConfig != nil {
		handshakeConfig = *c.handshakeConfig
	} else {
		handshakeConfig = handshake.NewConfig()
	}
	handshakeConfig.NetworkMagic = c.networkMagic
	if handshakeConfig.Logger == nil {
		handshakeConfig.Logger = c.logger
	}
	if handshakeConfig.PeerAddress.IP == nil {
		if addr, ok := c.conn.RemoteAddr().(*net.TCPAddr); ok {
			handshakeConfig.PeerAddress = wire.NewNetAddress(addr.IP, uint16(addr.Port), 0)
		} else {
			handshakeConfig.PeerAddress.Port = c.network.DefaultPort
		}
	}
	c.handshake = handshake.NewClient(c.muxer, &handshakeConfig)
	if err := c.handshake.Run(); err != nil {
		c.Close()
		return err
	}
	return nil
}

// Next blocks until the next message that the caller needs to see has been read. Pings are
// answered and not returned. A *DecodeError is returned for a message that could not be
// decoded, after which Next may be called again. Any other error is fatal to the connection.
func (c *Connection) Next() (Message, error) {
	if c.muxer == nil {
		return nil, errors.New("connection has not been established")
	}
	for {
		msg, err := c.muxer.ReadMessage()
		if err != nil {
			// The whole frame was consumed, so the stream is still in sync
			if errors.Is(err, wire.ErrChecksumMismatch) && msg != nil {
				return nil, &DecodeError{Command: msg.Command, Err: err}
			}
			return nil, err
		}
		if msg.Command == wire.CmdPing {
			if err := c.muxer.Send(wire.CmdPong, msg.Payload); err != nil {
				return nil, err
			}
			continue
		}
		ret, err := c.decodeMessage(msg)
		if err != nil {
			return nil, &DecodeError{Command: msg.Command, Err: err}
		}
		return ret, nil
	}
}

func (c *Connection) decodeMessage(msg *wire.Message) (Message, error) {
	switch msg.Command {
	case wire.CmdInv:
		return wire.DecodeInventory(msg.Payload)
	case wire.CmdTx:
		return wire.DecodeTransaction(msg.Payload)
	case wire.CmdBlock:
		if c.decodeBlockTransactions {
			return wire.DecodeBlockTransactions(msg.Payload)
		}
		return wire.DecodeBlock(msg.Payload)
	case wire.CmdVersion:
		return wire.DecodeVersion(msg.Payload)
	default:
		return &wire.RawMessage{
			Command: msg.Command,
			Payload: msg.Payload,
		}, nil
	}
}

// RequestData sends a getdata message for the transaction and block vectors of an inv
// message, skipping any that have already been requested on this connection. It returns
// the number of vectors requested. When no vectors remain, nothing is sent unless
// WithSendEmptyGetData is set, in which case an empty getdata (a single 0x00 count byte)
// is sent.
func (c *Connection) RequestData(inv *wire.Inventory) (int, error) {
	if c.muxer == nil {
		return 0, errors.New("connection has not been established")
	}
	vectors := make([]wire.InvVect, 0, len(inv.Vectors))
	for _, vec := range inv.Vectors {
		if c.seenInventory != nil && c.seenInventory.Contains(vec) {
			continue
		}
		vectors = append(vectors, vec)
	}
	if len(vectors) == 0 && !c.sendEmptyGetData {
		return 0, nil
	}
	if err := c.muxer.Send(wire.CmdGetData, wire.BuildGetData(vectors)); err != nil {
		return 0, err
	}
	if c.seenInventory != nil {
		for _, vec := range vectors {
			c.seenInventory.Add(vec, struct{}{})
		}
	}
	c.logger.Debug(
		"requested inventory",
		"component", "network",
		"connection_id", c.muxer.ConnectionId(),
		"count", len(vectors),
		"skipped", len(inv.Vectors)-len(vectors),
	)
	return len(vectors), nil
}
