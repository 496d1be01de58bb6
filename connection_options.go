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

package btcpeer

import (
	"log/slog"
	"net"
	"time"

	"github.com/blinklabs-io/btcpeer/protocol/handshake"
)

// ConnectionOptionFunc is a type that represents functions that modify the Connection config
type ConnectionOptionFunc func(*Connection)

// WithConnection specifies an existing connection to use. The handshake is performed
// immediately by NewConnection.
func WithConnection(conn net.Conn) ConnectionOptionFunc {
	return func(c *Connection) {
		c.conn = conn
	}
}

// WithNetwork specifies the network
func WithNetwork(network Network) ConnectionOptionFunc {
	return func(c *Connection) {
		c.network = network
		c.networkMagic = network.NetworkMagic
	}
}

// WithNetworkMagic specifies the network magic value, overriding the one from WithNetwork
func WithNetworkMagic(networkMagic uint32) ConnectionOptionFunc {
	return func(c *Connection) {
		c.networkMagic = networkMagic
	}
}

func WithLogger(logger *slog.Logger) ConnectionOptionFunc {
	return func(c *Connection) {
		c.logger = logger
	}
}

// WithHandshakeConfig specifies the handshake config. The network magic always comes from
// the connection.
func WithHandshakeConfig(cfg handshake.Config) ConnectionOptionFunc {
	return func(c *Connection) {
		c.handshakeConfig = &cfg
	}
}

// WithStrictChecksum controls whether a message with a bad checksum is rejected
func WithStrictChecksum(strict bool) ConnectionOptionFunc {
	return func(c *Connection) {
		c.strictChecksum = strict
	}
}

// WithReadTimeout sets a deadline for each message read after the handshake
func WithReadTimeout(timeout time.Duration) ConnectionOptionFunc {
	return func(c *Connection) {
		c.readTimeout = timeout
	}
}

// WithSeenInventorySize sets how many requested inventory vectors are remembered to avoid
// requesting them again. A size of 0 disables this.
func WithSeenInventorySize(size int) ConnectionOptionFunc {
	return func(c *Connection) {
		c.seenInventorySize = size
	}
}

// WithDecodeBlockTransactions enables decoding every transaction in a block message
func WithDecodeBlockTransactions(decode bool) ConnectionOptionFunc {
	return func(c *Connection) {
		c.decodeBlockTransactions = decode
	}
}

// WithSendEmptyGetData sends a getdata with a zero count from RequestData even when no
// vectors remain to be requested
func WithSendEmptyGetData(send bool) ConnectionOptionFunc {
	return func(c *Connection) {
		c.sendEmptyGetData = send
	}
}
