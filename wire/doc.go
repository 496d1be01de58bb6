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

// Package wire implements the Bitcoin peer-to-peer message encoding.
//
// All multi-byte integers are little-endian except network address ports, which are
// big-endian.
//
// # Key Files
//
//   - varint.go: compact variable length integers (DecodeVarInt, EncodeVarInt)
//   - reader.go: Reader, a bounds-checked cursor over a single payload
//   - message.go: the 24-byte envelope (BuildMessage, ParseHeader, VerifyChecksum)
//   - version.go, netaddress.go: version payload encoding and decoding
//   - inventory.go: inv decoding and getdata construction
//   - transaction.go, locktime.go: tx decoding
//   - block.go: block header and transaction count decoding
//   - errors.go: sentinel errors, matched with errors.Is
//
// # Error Pattern
//
// Payload decoders never return partial records. A read past the end of a payload is
// reported as ErrMalformedPayload wrapping ErrTruncatedInput, so callers can match either:
//
//	tx, err := wire.DecodeTransaction(payload)
//	if errors.Is(err, wire.ErrMalformedPayload) {
//	    // skip this message and keep reading
//	}
package wire
