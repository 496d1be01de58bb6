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

package handshake

import (
	"fmt"
	"math/rand/v2"
	"net"
	"time"

	"github.com/blinklabs-io/btcpeer/muxer"
	"github.com/blinklabs-io/btcpeer/protocol"
	"github.com/blinklabs-io/btcpeer/wire"
)

// Client drives the outbound side of the handshake
type Client struct {
	*protocol.Protocol
	config       *Config
	muxer        *muxer.Muxer
	connectionId string
	nonce        uint64
	peerVersion  *wire.MsgVersion
}

func NewClient(m *muxer.Muxer, cfg *Config) *Client {
	if cfg == nil {
		tmpCfg := NewConfig()
		cfg = &tmpCfg
	}
	c := &Client{
		config: cfg,
		muxer:  m,
		nonce:  rand.Uint64(),
	}
	c.connectionId = m.ConnectionId()
	// Update state map with timeouts
	stateMap := StateMap.Copy()
	for _, state := range []protocol.State{StateVersionSent, StateAwaitingPeerResponse} {
		if entry, ok := stateMap[state]; ok {
			entry.Timeout = c.config.Timeout
			stateMap[state] = entry
		}
	}
	c.Protocol = protocol.New(protocol.ProtocolConfig{
		Name:         ProtocolName,
		Role:         protocol.ProtocolRoleClient,
		Logger:       cfg.Logger,
		ConnectionId: c.connectionId,
		StateMap:     stateMap,
		InitialState: StateNotStarted,
	})
	return c
}

// PeerVersion returns the version message received from the peer, or nil if none has been
// received yet
func (c *Client) PeerVersion() *wire.MsgVersion {
	return c.peerVersion
}

// Nonce returns the nonce sent in our version message
func (c *Client) Nonce() uint64 {
	return c.nonce
}

// Run performs the handshake, blocking until it completes or fails. Any failure leaves the
// client in StateAborted and returns an error wrapping wire.ErrHandshakeFailed.
func (c *Client) Run() error {
	if c.CurrentState() != StateNotStarted {
		return fmt.Errorf("%w: %w", wire.ErrHandshakeFailed, ErrHandshakeAlreadyActive)
	}
	c.Logger().
		Debug("starting handshake",
			"component", "network",
			"protocol", ProtocolName,
			"role", "client",
			"connection_id", c.connectionId,
		)
	if c.config.NetworkMagic != 0 && c.config.NetworkMagic != c.muxer.Magic() {
		return c.abort(
			fmt.Errorf(
				"%w: configured %08x, connection uses %08x",
				wire.ErrBadMagic,
				c.config.NetworkMagic,
				c.muxer.Magic(),
			),
		)
	}
	prevTimeout := c.muxer.ReadTimeout()
	defer c.muxer.SetReadTimeout(prevTimeout)
	if err := c.sendVersion(); err != nil {
		return c.abort(err)
	}
	interleaved := 0
	for !c.IsDone() {
		c.muxer.SetReadTimeout(c.CurrentEntry().Timeout)
		msg, err := c.muxer.ReadMessage()
		if err != nil {
			return c.abort(err)
		}
		switch msg.Command {
		case wire.CmdVersion:
			err = c.handleVersion(msg)
		case wire.CmdVerack:
			err = c.handleVerack()
		default:
			interleaved++
			if interleaved > MaxInterleavedMessages {
				err = fmt.Errorf(
					"%w: %d messages received before handshake completed",
					protocol.ErrProtocolViolationMessageLimitExceeded,
					interleaved,
				)
				break
			}
			c.Logger().
				Debug("skipping message during handshake",
					"component", "network",
					"protocol", ProtocolName,
					"role", "client",
					"connection_id", c.connectionId,
					"command", msg.Command,
				)
		}
		if err != nil {
			return c.abort(err)
		}
	}
	c.Logger().
		Debug("handshake complete",
			"component", "network",
			"protocol", ProtocolName,
			"role", "client",
			"connection_id", c.connectionId,
			"peer_version", c.peerVersion.ProtocolVersion,
			"peer_user_agent", c.peerVersion.UserAgent,
		)
	return nil
}

func (c *Client) abort(err error) error {
	// The only failure here is when the state is already terminal
	_, _ = c.Transition(protocol.EventAbort)
	c.Logger().
		Debug("handshake aborted",
			"component", "network",
			"protocol", ProtocolName,
			"role", "client",
			"connection_id", c.connectionId,
			"error", err,
		)
	return fmt.Errorf("%w: %w", wire.ErrHandshakeFailed, err)
}

func (c *Client) sendVersion() error {
	msg := &wire.MsgVersion{
		ProtocolVersion: c.config.ProtocolVersion,
		Services:        c.config.Services,
		Timestamp:       time.Now(),
		AddrRecv:        c.config.PeerAddress,
		// We don't advertise a reachable address
		AddrFrom:    wire.NewNetAddress(net.IPv4(127, 0, 0, 1), c.config.PeerAddress.Port, 0),
		Nonce:       c.nonce,
		UserAgent:   c.config.UserAgent,
		StartHeight: c.config.StartHeight,
		Relay:       c.config.Relay,
	}
	payload, err := msg.Encode()
	if err != nil {
		return err
	}
	if err := c.muxer.Send(wire.CmdVersion, payload); err != nil {
		return err
	}
	_, err = c.Transition(protocol.SendEvent(wire.CmdVersion))
	return err
}

func (c *Client) handleVersion(msg *wire.Message) error {
	if c.CurrentState() != StateVersionSent {
		return fmt.Errorf(
			"%w: duplicate %s message",
			protocol.ErrProtocolViolationInvalidMessage,
			wire.CmdVersion,
		)
	}
	peerVersion, err := wire.DecodeVersion(msg.Payload)
	if err != nil {
		return err
	}
	if peerVersion.Nonce == c.nonce {
		return fmt.Errorf("%w: peer nonce %x matches our own", ErrSelfConnection, c.nonce)
	}
	if c.config.MinProtocolVersion > 0 &&
		peerVersion.ProtocolVersion < c.config.MinProtocolVersion {
		return fmt.Errorf(
			"%w: peer advertised %d, minimum is %d",
			ErrProtocolVersionTooLow,
			peerVersion.ProtocolVersion,
			c.config.MinProtocolVersion,
		)
	}
	c.peerVersion = peerVersion
	_, err = c.Transition(protocol.RecvEvent(wire.CmdVersion))
	return err
}

func (c *Client) handleVerack() error {
	if c.CurrentState() != StateAwaitingPeerResponse {
		return fmt.Errorf(
			"%w: %s received before %s",
			protocol.ErrProtocolViolationInvalidMessage,
			wire.CmdVerack,
			wire.CmdVersion,
		)
	}
	if c.config.FinishedFunc != nil {
		if err := c.config.FinishedFunc(c.peerVersion); err != nil {
			return err
		}
	}
	if err := c.muxer.Send(wire.CmdVerack, wire.VerackPayload(c.config.EmptyVerack)); err != nil {
		return err
	}
	_, err := c.Transition(protocol.RecvEvent(wire.CmdVerack))
	return err
}
