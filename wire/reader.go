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

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Reader is a cursor over a single message payload. Reads never go past the end of the
// payload: any attempt to do so is reported as ErrMalformedPayload wrapping ErrTruncatedInput.
// Byte slices returned by the Reader alias the underlying payload
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader positioned at the start of payload
func NewReader(payload []byte) *Reader {
	return &Reader{buf: payload}
}

// Offset returns the current read position
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the number of unread bytes
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// Bytes returns the payload slice between two offsets previously reported by Offset
func (r *Reader) Bytes(start int, end int) []byte {
	return r.buf[start:end]
}

func (r *Reader) truncated(field string, need int) error {
	return fmt.Errorf(
		"%w: %w: %s needs %d bytes at offset %d, %d remain",
		ErrMalformedPayload,
		ErrTruncatedInput,
		field,
		need,
		r.off,
		r.Remaining(),
	)
}

// ReadBytes returns the next n bytes
func (r *Reader) ReadBytes(n int, field string) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, r.truncated(field, n)
	}
	ret := r.buf[r.off : r.off+n]
	r.off += n
	return ret, nil
}

// PeekUint8 returns the next byte without consuming it
func (r *Reader) PeekUint8() (uint8, bool) {
	if r.Remaining() < 1 {
		return 0, false
	}
	return r.buf[r.off], true
}

func (r *Reader) ReadUint8(field string) (uint8, error) {
	data, err := r.ReadBytes(1, field)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// ReadUint16BE reads a big-endian uint16. Only network address ports use this byte order
func (r *Reader) ReadUint16BE(field string) (uint16, error) {
	data, err := r.ReadBytes(2, field)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(data), nil
}

func (r *Reader) ReadUint32(field string) (uint32, error) {
	data, err := r.ReadBytes(4, field)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

func (r *Reader) ReadInt32(field string) (int32, error) {
	v, err := r.ReadUint32(field)
	return int32(v), err
}

func (r *Reader) ReadUint64(field string) (uint64, error) {
	data, err := r.ReadBytes(8, field)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data), nil
}

func (r *Reader) ReadInt64(field string) (int64, error) {
	v, err := r.ReadUint64(field)
	return int64(v), err
}

// ReadHash reads a 32-byte hash in wire (internal) byte order
func (r *Reader) ReadHash(field string) (chainhash.Hash, error) {
	var h chainhash.Hash
	data, err := r.ReadBytes(chainhash.HashSize, field)
	if err != nil {
		return h, err
	}
	copy(h[:], data)
	return h, nil
}

// ReadVarInt reads a variable length integer and reports the width class it was encoded with
func (r *Reader) ReadVarInt(field string) (uint64, VarIntWidth, error) {
	if r.Remaining() < 1 {
		return 0, 0, r.truncated(field, 1)
	}
	w := varIntWidthForPrefix(r.buf[r.off])
	if r.Remaining() < w.Size() {
		return 0, 0, r.truncated(field, w.Size())
	}
	v, _, err := decodeVarInt(r.buf, r.off)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s: %w", ErrMalformedPayload, field, err)
	}
	r.off += w.Size()
	return v, w, nil
}

// ReadCount reads a varint element count and checks that count elements of at least
// minSize bytes each can fit in the remaining payload. This guards allocations against
// corrupt or adversarial counts
func (r *Reader) ReadCount(field string, minSize int) (uint64, VarIntWidth, error) {
	count, w, err := r.ReadVarInt(field)
	if err != nil {
		return 0, 0, err
	}
	if minSize > 0 && count > uint64(r.Remaining()/minSize) {
		return 0, 0, fmt.Errorf(
			"%w: %s of %d cannot fit in %d remaining bytes",
			ErrMalformedPayload,
			field,
			count,
			r.Remaining(),
		)
	}
	return count, w, nil
}

// ReadVarBytes reads a varint length followed by that many bytes. A zero length yields nil
func (r *Reader) ReadVarBytes(field string) ([]byte, error) {
	length, _, err := r.ReadVarInt(field + " length")
	if err != nil {
		return nil, err
	}
	if length > uint64(r.Remaining()) {
		return nil, r.truncated(field, int(min(length, uint64(MaxPayloadLength))))
	}
	if length == 0 {
		return nil, nil
	}
	return r.ReadBytes(int(length), field)
}

// ReadVarString reads a varint length-prefixed string
func (r *Reader) ReadVarString(field string) (string, error) {
	data, err := r.ReadVarBytes(field)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ExpectEnd returns an error if any bytes remain unread
func (r *Reader) ExpectEnd(what string) error {
	if r.Remaining() != 0 {
		return fmt.Errorf(
			"%w: %d trailing bytes after %s",
			ErrMalformedPayload,
			r.Remaining(),
			what,
		)
	}
	return nil
}
