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
	"net"
	"time"

	"github.com/blinklabs-io/btcpeer/wire"
)

const (
	// MockNetworkMagic is the regtest network magic
	MockNetworkMagic     uint32 = 0xdab5bffa
	MockProtocolVersion  int32  = 70016
	MockNonce            uint64 = 0x6b636f6d6b636f6d
	MockUserAgent               = "/btcmock:0.1.0/"
	MockStartHeight      int32  = 850000
	MockServices                = wire.SFNodeNetwork | wire.SFNodeWitness
	mockVersionTimestamp int64  = 1700000000
)

type EntryType int

const (
	EntryTypeNone   EntryType = 0
	EntryTypeInput  EntryType = 1
	EntryTypeOutput EntryType = 2
	EntryTypeClose  EntryType = 3
)

type ConversationEntry struct {
	Type EntryType
	// Command expected for an input entry
	Command string
	// Optional check run against the received message for an input entry
	InputFunc func(*wire.Message) error
	// Messages for an output entry. They are framed and written with a single Write call,
	// followed by RawOutput.
	Messages  []wire.RawMessage
	RawOutput []byte
	// Optional function called when an output entry is played, for messages that depend on
	// earlier input. Its messages are written after Messages.
	MessagesFunc func() []wire.RawMessage
}

// NewMsgVersion returns the version message sent by the mock peer
func NewMsgVersion() *wire.MsgVersion {
	return &wire.MsgVersion{
		ProtocolVersion: MockProtocolVersion,
		Services:        MockServices,
		Timestamp:       time.Unix(mockVersionTimestamp, 0),
		AddrRecv:        wire.NewNetAddress(net.IPv4(127, 0, 0, 1), 18444, 0),
		AddrFrom:        wire.NewNetAddress(net.IPv4(192, 0, 2, 10), 18444, MockServices),
		Nonce:           MockNonce,
		UserAgent:       MockUserAgent,
		StartHeight:     MockStartHeight,
		Relay:           true,
	}
}

// VersionMessage encodes a version message for use in an output entry
func VersionMessage(msg *wire.MsgVersion) wire.RawMessage {
	payload, err := msg.Encode()
	if err != nil {
		panic(err.Error())
	}
	return wire.RawMessage{Command: wire.CmdVersion, Payload: payload}
}

var (
	MessageVersion = VersionMessage(NewMsgVersion())
	MessageVerack  = wire.RawMessage{Command: wire.CmdVerack}
)

var ConversationEntryVersionRequest = ConversationEntry{
	Type:    EntryTypeInput,
	Command: wire.CmdVersion,
}

var ConversationEntryVerackRequest = ConversationEntry{
	Type:    EntryTypeInput,
	Command: wire.CmdVerack,
}

var ConversationEntryVersionResponse = ConversationEntry{
	Type:     EntryTypeOutput,
	Messages: []wire.RawMessage{MessageVersion},
}

var ConversationEntryVerackResponse = ConversationEntry{
	Type:     EntryTypeOutput,
	Messages: []wire.RawMessage{MessageVerack},
}

// ConversationEntryHandshakeResponse sends version and verack in a single write
var ConversationEntryHandshakeResponse = ConversationEntry{
	Type:     EntryTypeOutput,
	Messages: []wire.RawMessage{MessageVersion, MessageVerack},
}

var ConversationEntryClose = ConversationEntry{
	Type: EntryTypeClose,
}

// ConversationHandshake is a complete handshake with version and verack arriving together
var ConversationHandshake = []ConversationEntry{
	ConversationEntryVersionRequest,
	ConversationEntryHandshakeResponse,
	ConversationEntryVerackRequest,
}
