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

package wire_test

import (
	"net"
	"testing"
	"time"

	"github.com/blinklabs-io/btcpeer/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVersion() *wire.MsgVersion {
	return &wire.MsgVersion{
		ProtocolVersion: wire.ProtocolVersion,
		Services:        wire.SFNodeNetwork | wire.SFNodeWitness,
		Timestamp:       time.Unix(1700000000, 0),
		AddrRecv:        wire.NewNetAddress(net.ParseIP("192.0.2.1"), 8333, wire.SFNodeNetwork),
		AddrFrom:        wire.NewNetAddress(net.ParseIP("2001:db8::1"), 18333, 0),
		Nonce:           0x0102030405060708,
		UserAgent:       "/btcpeer:0.1.0/",
		StartHeight:     800000,
		Relay:           false,
	}
}

func TestVersionRoundTrip(t *testing.T) {
	msg := testVersion()
	payload, err := msg.Encode()
	require.NoError(t, err)
	assert.Len(t, payload, 85+1+len(msg.UserAgent))
	decoded, err := wire.DecodeVersion(payload)
	require.NoError(t, err)
	assert.Equal(t, msg.ProtocolVersion, decoded.ProtocolVersion)
	assert.Equal(t, msg.Services, decoded.Services)
	assert.True(t, msg.Timestamp.Equal(decoded.Timestamp))
	assert.True(t, msg.AddrRecv.IP.Equal(decoded.AddrRecv.IP))
	assert.Equal(t, msg.AddrRecv.Port, decoded.AddrRecv.Port)
	assert.Equal(t, "[2001:db8::1]:18333", decoded.AddrFrom.String())
	assert.Equal(t, msg.Nonce, decoded.Nonce)
	assert.Equal(t, msg.UserAgent, decoded.UserAgent)
	assert.Equal(t, msg.StartHeight, decoded.StartHeight)
	assert.False(t, decoded.Relay)
}

func TestVersionPortBigEndian(t *testing.T) {
	payload, err := testVersion().Encode()
	require.NoError(t, err)
	// addr_recv port follows version, services, timestamp, services and ip
	assert.Equal(t, []byte{0x20, 0x8d}, payload[20+8+16:20+8+16+2])
}

func TestVersionMissingRelay(t *testing.T) {
	msg := testVersion()
	payload, err := msg.Encode()
	require.NoError(t, err)
	decoded, err := wire.DecodeVersion(payload[:len(payload)-1])
	require.NoError(t, err)
	assert.True(t, decoded.Relay)
	// Fields from newer protocol versions are ignored
	decoded, err = wire.DecodeVersion(append(payload, 0xaa, 0xbb))
	require.NoError(t, err)
	assert.Equal(t, msg.UserAgent, decoded.UserAgent)
}

func TestVersionDecodeErrors(t *testing.T) {
	payload, err := testVersion().Encode()
	require.NoError(t, err)
	_, err = wire.DecodeVersion(payload[:40])
	require.ErrorIs(t, err, wire.ErrTruncatedInput)
	msg := testVersion()
	msg.UserAgent = string(make([]byte, wire.MaxUserAgentLen+1))
	_, err = msg.Encode()
	require.Error(t, err)
}

func TestServiceFlagString(t *testing.T) {
	assert.Equal(t, "NONE", wire.ServiceFlag(0).String())
	assert.Equal(t, "NODE_NETWORK|NODE_WITNESS", (wire.SFNodeNetwork | wire.SFNodeWitness).String())
	assert.Equal(t, "NODE_NETWORK|0x100000", (wire.SFNodeNetwork | 1<<20).String())
}

func TestVerackPayload(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 0, 0}, wire.VerackPayload(false))
	assert.Empty(t, wire.VerackPayload(true))
}
