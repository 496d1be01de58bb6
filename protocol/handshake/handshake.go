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

// Package handshake implements the version/verack exchange that opens every peer session
package handshake

import (
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/blinklabs-io/btcpeer/protocol"
	"github.com/blinklabs-io/btcpeer/wire"
)

const (
	ProtocolName = "handshake"

	// MaxInterleavedMessages is the number of messages other than version and verack
	// tolerated before the handshake completes
	MaxInterleavedMessages = 16

	DefaultTimeout = 5 * time.Second
)

var (
	StateNotStarted           = protocol.NewState(1, "NotStarted")
	StateVersionSent          = protocol.NewState(2, "VersionSent")
	StateAwaitingPeerResponse = protocol.NewState(3, "AwaitingPeerResponse")
	StateVerackSent           = protocol.NewState(4, "VerackSent")
	StateAborted              = protocol.NewState(5, "Aborted")
)

var StateMap = protocol.StateMap{
	StateNotStarted: protocol.StateMapEntry{
		Agency: protocol.AgencyLocal,
		Transitions: []protocol.StateTransition{
			{
				Event:    protocol.SendEvent(wire.CmdVersion),
				NewState: StateVersionSent,
			},
			{
				Event:    protocol.EventAbort,
				NewState: StateAborted,
			},
		},
	},
	StateVersionSent: protocol.StateMapEntry{
		Agency: protocol.AgencyPeer,
		Transitions: []protocol.StateTransition{
			{
				Event:    protocol.RecvEvent(wire.CmdVersion),
				NewState: StateAwaitingPeerResponse,
			},
			{
				Event:    protocol.EventAbort,
				NewState: StateAborted,
			},
		},
	},
	StateAwaitingPeerResponse: protocol.StateMapEntry{
		Agency: protocol.AgencyPeer,
		Transitions: []protocol.StateTransition{
			{
				Event:    protocol.RecvEvent(wire.CmdVerack),
				NewState: StateVerackSent,
			},
			{
				Event:    protocol.EventAbort,
				NewState: StateAborted,
			},
		},
	},
	StateVerackSent: protocol.StateMapEntry{
		Agency: protocol.AgencyNone,
	},
	StateAborted: protocol.StateMapEntry{
		Agency: protocol.AgencyNone,
	},
}

var (
	ErrSelfConnection         = errors.New("connected to self")
	ErrProtocolVersionTooLow  = errors.New("peer protocol version too low")
	ErrHandshakeAlreadyActive = errors.New("handshake has already been started")
)

type Config struct {
	ProtocolVersion    int32
	MinProtocolVersion int32
	NetworkMagic       uint32
	Services           wire.ServiceFlag
	PeerAddress        wire.NetAddress
	UserAgent          string
	StartHeight        int32
	Relay              bool
	EmptyVerack        bool
	FinishedFunc       FinishedFunc
	Timeout            time.Duration
	Logger             *slog.Logger
}

// FinishedFunc is called with the peer's version message before the final verack is sent.
// Returning an error aborts the handshake.
type FinishedFunc func(*wire.MsgVersion) error

type HandshakeOptionFunc func(*Config)

func NewConfig(options ...HandshakeOptionFunc) Config {
	c := Config{
		ProtocolVersion: wire.ProtocolVersion,
		Relay:           true,
		Timeout:         DefaultTimeout,
	}
	// Apply provided options functions
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithProtocolVersion specifies the protocol version advertised to the peer
func WithProtocolVersion(version int32) HandshakeOptionFunc {
	return func(c *Config) {
		c.ProtocolVersion = version
	}
}

// WithMinProtocolVersion rejects peers advertising a lower protocol version
func WithMinProtocolVersion(version int32) HandshakeOptionFunc {
	return func(c *Config) {
		c.MinProtocolVersion = version
	}
}

func WithNetworkMagic(networkMagic uint32) HandshakeOptionFunc {
	return func(c *Config) {
		c.NetworkMagic = networkMagic
	}
}

func WithServices(services wire.ServiceFlag) HandshakeOptionFunc {
	return func(c *Config) {
		c.Services = services
	}
}

// WithPeerAddress specifies the address reported as addr_recv in our version message
func WithPeerAddress(ip net.IP, port uint16) HandshakeOptionFunc {
	return func(c *Config) {
		c.PeerAddress = wire.NewNetAddress(ip, port, 0)
	}
}

func WithUserAgent(userAgent string) HandshakeOptionFunc {
	return func(c *Config) {
		c.UserAgent = userAgent
	}
}

func WithStartHeight(height int32) HandshakeOptionFunc {
	return func(c *Config) {
		c.StartHeight = height
	}
}

// WithRelay controls whether the peer is asked to announce transactions
func WithRelay(relay bool) HandshakeOptionFunc {
	return func(c *Config) {
		c.Relay = relay
	}
}

// WithEmptyVerack sends a verack with an empty payload instead of 4 zero bytes
func WithEmptyVerack(empty bool) HandshakeOptionFunc {
	return func(c *Config) {
		c.EmptyVerack = empty
	}
}

func WithFinishedFunc(finishedFunc FinishedFunc) HandshakeOptionFunc {
	return func(c *Config) {
		c.FinishedFunc = finishedFunc
	}
}

// WithTimeout sets the read deadline while waiting for each peer message
func WithTimeout(timeout time.Duration) HandshakeOptionFunc {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

func WithLogger(logger *slog.Logger) HandshakeOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}
