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

package btcmock

import (
	"testing"

	"github.com/blinklabs-io/btcpeer/muxer"
	"github.com/blinklabs-io/btcpeer/wire"
	"go.uber.org/goleak"
)

func TestBasic(t *testing.T) {
	defer goleak.VerifyNone(t)
	mockConn := NewConnection(ConversationHandshake)
	m := muxer.New(mockConn, muxer.WithNetworkMagic(MockNetworkMagic))
	if err := m.Send(wire.CmdVersion, MessageVersion.Payload); err != nil {
		t.Fatalf("unexpected error sending version: %s", err)
	}
	for _, expected := range []string{wire.CmdVersion, wire.CmdVerack} {
		msg, err := m.ReadMessage()
		if err != nil {
			t.Fatalf("unexpected error reading message: %s", err)
		}
		if msg.Command != expected {
			t.Fatalf("did not get expected command: got %s, wanted %s", msg.Command, expected)
		}
	}
	if err := m.Send(wire.CmdVerack, nil); err != nil {
		t.Fatalf("unexpected error sending verack: %s", err)
	}
	if err := m.Send(wire.CmdPing, make([]byte, 8)); err != nil {
		t.Fatalf("unexpected error sending ping: %s", err)
	}
	if err := mockConn.Close(); err != nil {
		t.Fatalf("unexpected error when closing mock connection: %s", err)
	}
	received := mockConn.Received()
	if len(received) != 3 || received[0] != wire.CmdVersion || received[1] != wire.CmdVerack || received[2] != wire.CmdPing {
		t.Fatalf("did not get expected received commands: %v", received)
	}
}

func TestClose(t *testing.T) {
	defer goleak.VerifyNone(t)
	mockConn := NewConnection([]ConversationEntry{ConversationEntryClose})
	m := muxer.New(mockConn, muxer.WithNetworkMagic(MockNetworkMagic))
	if _, err := m.ReadMessage(); err == nil {
		t.Fatalf("did not get expected error reading from closed connection")
	}
	if err := mockConn.Close(); err != nil {
		t.Fatalf("unexpected error when closing mock connection: %s", err)
	}
}
