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

package muxer

import (
	"errors"
	"fmt"
	"io"

	"github.com/blinklabs-io/btcpeer/wire"
)

// ReadFullMessage assembles one message from buf, which must start with a complete header,
// topping up from conn with an exact-length read when buf holds less than the declared
// payload. Bytes in buf beyond the declared payload are ignored.
//
// On a checksum mismatch the assembled message is returned along with an error wrapping
// wire.ErrChecksumMismatch.
func ReadFullMessage(buf []byte, conn io.Reader, magic uint32) (*wire.Message, error) {
	header, err := wire.ParseHeader(buf, magic)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, header.Length)
	have := copy(payload, buf[wire.MessageHeaderSize:])
	if have < len(payload) {
		n, err := io.ReadFull(conn, payload[have:])
		if err != nil {
			// The header promised more, so any failure here leaves the payload cut short
			if errors.Is(err, io.ErrUnexpectedEOF) {
				err = io.EOF
			}
			return nil, fmt.Errorf(
				"%w: %w",
				wire.ErrTruncatedInput,
				connError(
					fmt.Sprintf(
						"reading %s payload: have %d of %d bytes",
						header.Command,
						have+n,
						header.Length,
					),
					err,
				),
			)
		}
	}
	msg := &wire.Message{
		MessageHeader: header,
		Payload:       payload,
	}
	if err := wire.VerifyChecksum(header, payload); err != nil {
		return msg, err
	}
	return msg, nil
}
