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

import "errors"

// Framing errors
var (
	ErrBadMagic           = errors.New("bad network magic")
	ErrInvalidCommandName = errors.New("invalid command name")
	ErrChecksumMismatch   = errors.New("checksum mismatch")
)

// Decoding errors
var (
	// ErrTruncatedInput is returned when fewer bytes remain than a declared field requires
	ErrTruncatedInput = errors.New("truncated input")
	// ErrMalformedPayload is returned for structural inconsistencies within a payload
	ErrMalformedPayload = errors.New("malformed payload")
)

// Session errors
var (
	ErrHandshakeFailed  = errors.New("handshake failed")
	ErrConnectionClosed = errors.New("connection closed")
)
