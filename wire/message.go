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
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	MessageHeaderSize = 24
	CommandSize       = 12
	ChecksumSize      = 4

	// MaxPayloadLength is the largest payload length accepted from a message header
	MaxPayloadLength = 32 * 1024 * 1024
)

// Command names
const (
	CmdVersion     = "version"
	CmdVerack      = "verack"
	CmdInv         = "inv"
	CmdGetData     = "getdata"
	CmdTx          = "tx"
	CmdBlock       = "block"
	CmdPing        = "ping"
	CmdPong        = "pong"
	CmdSendHeaders = "sendheaders"
	CmdWtxidRelay  = "wtxidrelay"
	CmdSendAddrV2  = "sendaddrv2"
)

// MessageHeader is the fixed-size envelope preceding every payload
type MessageHeader struct {
	Magic    uint32
	Command  string
	Length   uint32
	Checksum [ChecksumSize]byte
}

// Message is a framed message with its payload
type Message struct {
	MessageHeader
	Payload []byte
}

// Checksum returns the first 4 bytes of SHA256(SHA256(payload))
func Checksum(payload []byte) [ChecksumSize]byte {
	var ret [ChecksumSize]byte
	copy(ret[:], chainhash.DoubleHashB(payload))
	return ret
}

// VerifyChecksum checks the payload against the checksum declared in the header
func VerifyChecksum(header MessageHeader, payload []byte) error {
	actual := Checksum(payload)
	if actual != header.Checksum {
		return fmt.Errorf(
			"%w: %s message declared %x, computed %x",
			ErrChecksumMismatch,
			header.Command,
			header.Checksum,
			actual,
		)
	}
	return nil
}

func validateCommand(command string) error {
	if len(command) > CommandSize {
		return fmt.Errorf(
			"%w: %q is %d bytes, maximum is %d",
			ErrInvalidCommandName,
			command,
			len(command),
			CommandSize,
		)
	}
	for i := 0; i < len(command); i++ {
		c := command[i]
		if c == 0 || c > 0x7f {
			return fmt.Errorf(
				"%w: %q contains non-ASCII or NUL byte at %d",
				ErrInvalidCommandName,
				command,
				i,
			)
		}
	}
	return nil
}

// EncodeHeader serializes the 24-byte header
func EncodeHeader(header MessageHeader) ([]byte, error) {
	if err := validateCommand(header.Command); err != nil {
		return nil, err
	}
	buf := make([]byte, MessageHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], header.Magic)
	// Remaining command bytes are already zero
	copy(buf[4:4+CommandSize], header.Command)
	binary.LittleEndian.PutUint32(buf[16:20], header.Length)
	copy(buf[20:24], header.Checksum[:])
	return buf, nil
}

// BuildMessage frames payload as the given command for the network identified by magic
func BuildMessage(magic uint32, command string, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLength {
		return nil, fmt.Errorf(
			"%w: %s payload of %d bytes exceeds maximum of %d",
			ErrMalformedPayload,
			command,
			len(payload),
			MaxPayloadLength,
		)
	}
	header, err := EncodeHeader(MessageHeader{
		Magic:    magic,
		Command:  command,
		Length:   uint32(len(payload)),
		Checksum: Checksum(payload),
	})
	if err != nil {
		return nil, err
	}
	return append(header, payload...), nil
}

// ParseHeader decodes the 24-byte message header at the start of buf. The command name is
// returned with its zero padding stripped
func ParseHeader(buf []byte, magic uint32) (MessageHeader, error) {
	var header MessageHeader
	if len(buf) < MessageHeaderSize {
		return header, fmt.Errorf(
			"%w: message header needs %d bytes, have %d",
			ErrTruncatedInput,
			MessageHeaderSize,
			len(buf),
		)
	}
	header.Magic = binary.LittleEndian.Uint32(buf[0:4])
	if header.Magic != magic {
		return header, fmt.Errorf(
			"%w: expected %08x, got %08x",
			ErrBadMagic,
			magic,
			header.Magic,
		)
	}
	rawCommand := buf[4 : 4+CommandSize]
	if idx := bytes.IndexByte(rawCommand, 0); idx >= 0 {
		// Everything after the first NUL must also be NUL
		if bytes.ContainsFunc(rawCommand[idx:], func(r rune) bool { return r != 0 }) {
			return header, fmt.Errorf(
				"%w: non-zero bytes after padding in %q",
				ErrInvalidCommandName,
				rawCommand,
			)
		}
		rawCommand = rawCommand[:idx]
	}
	header.Command = string(rawCommand)
	if err := validateCommand(header.Command); err != nil {
		return header, err
	}
	header.Length = binary.LittleEndian.Uint32(buf[16:20])
	if header.Length > MaxPayloadLength {
		return header, fmt.Errorf(
			"%w: %s declares payload of %d bytes, maximum is %d",
			ErrMalformedPayload,
			header.Command,
			header.Length,
			MaxPayloadLength,
		)
	}
	copy(header.Checksum[:], buf[20:24])
	return header, nil
}

// RawMessage carries the payload of a command that has no dedicated decoder
type RawMessage struct {
	Command string
	Payload []byte
}
