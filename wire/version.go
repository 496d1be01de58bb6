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

package wire

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	// ProtocolVersion is the protocol version advertised by default
	ProtocolVersion int32 = 70015

	// MaxUserAgentLen is the longest user agent accepted from a peer
	MaxUserAgentLen = 256

	// VerackLegacyPayloadSize is the size of the zero-filled verack payload sent by default
	VerackLegacyPayloadSize = 4
)

// MsgVersion is the payload of a version message
type MsgVersion struct {
	ProtocolVersion int32
	Services        ServiceFlag
	Timestamp       time.Time
	AddrRecv        NetAddress
	AddrFrom        NetAddress
	Nonce           uint64
	UserAgent       string
	StartHeight     int32
	Relay           bool
}

// Encode serializes the version payload
func (m *MsgVersion) Encode() ([]byte, error) {
	if len(m.UserAgent) > MaxUserAgentLen {
		return nil, fmt.Errorf(
			"version: user agent is %d bytes, maximum is %d",
			len(m.UserAgent),
			MaxUserAgentLen,
		)
	}
	buf := make([]byte, 0, 86+len(m.UserAgent)+VarIntSize(uint64(len(m.UserAgent))))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(m.ProtocolVersion))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(m.Services))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(m.Timestamp.Unix()))
	buf = AppendNetAddress(buf, m.AddrRecv)
	buf = AppendNetAddress(buf, m.AddrFrom)
	buf = binary.LittleEndian.AppendUint64(buf, m.Nonce)
	buf = AppendVarBytes(buf, []byte(m.UserAgent))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(m.StartHeight))
	if m.Relay {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	return buf, nil
}

// DecodeVersion decodes the payload of a version message received from a peer. The relay
// flag is optional and defaults to true when absent. Bytes following the relay flag are
// ignored, since newer protocol versions may append fields
func DecodeVersion(payload []byte) (*MsgVersion, error) {
	m, err := decodeVersion(NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", CmdVersion, err)
	}
	return m, nil
}

func decodeVersion(r *Reader) (*MsgVersion, error) {
	var err error
	m := &MsgVersion{Relay: true}
	if m.ProtocolVersion, err = r.ReadInt32("protocol version"); err != nil {
		return nil, err
	}
	services, err := r.ReadUint64("services")
	if err != nil {
		return nil, err
	}
	m.Services = ServiceFlag(services)
	timestamp, err := r.ReadInt64("timestamp")
	if err != nil {
		return nil, err
	}
	m.Timestamp = time.Unix(timestamp, 0)
	if m.AddrRecv, err = readNetAddress(r, "addr_recv"); err != nil {
		return nil, err
	}
	if m.AddrFrom, err = readNetAddress(r, "addr_from"); err != nil {
		return nil, err
	}
	if m.Nonce, err = r.ReadUint64("nonce"); err != nil {
		return nil, err
	}
	uaLen, _, err := r.ReadVarInt("user agent length")
	if err != nil {
		return nil, err
	}
	if uaLen > MaxUserAgentLen {
		return nil, fmt.Errorf(
			"%w: user agent of %d bytes exceeds maximum of %d",
			ErrMalformedPayload,
			uaLen,
			MaxUserAgentLen,
		)
	}
	ua, err := r.ReadBytes(int(uaLen), "user agent")
	if err != nil {
		return nil, err
	}
	m.UserAgent = string(ua)
	if m.StartHeight, err = r.ReadInt32("start height"); err != nil {
		return nil, err
	}
	if r.Remaining() > 0 {
		relay, _ := r.ReadUint8("relay")
		m.Relay = relay != 0
	}
	return m, nil
}

// VerackPayload returns the payload sent with our verack. The default is 4 zero bytes,
// which peers accept since they only check the declared length. When empty is true the
// canonical zero-length payload is returned instead
func VerackPayload(empty bool) []byte {
	if empty {
		return []byte{}
	}
	return make([]byte, VerackLegacyPayloadSize)
}
