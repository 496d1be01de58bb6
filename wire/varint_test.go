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
	"math"
	"testing"

	"github.com/blinklabs-io/btcpeer/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestVarIntRoundTrip(t *testing.T) {
	testDefs := []struct {
		value    uint64
		size     int
		prefix   byte
		expected []byte
	}{
		{value: 0, size: 1, prefix: 0x00, expected: []byte{0x00}},
		{value: 0xfc, size: 1, prefix: 0xfc, expected: []byte{0xfc}},
		{value: 0xfd, size: 3, prefix: 0xfd, expected: []byte{0xfd, 0xfd, 0x00}},
		{value: 0xffff, size: 3, prefix: 0xfd, expected: []byte{0xfd, 0xff, 0xff}},
		{value: 0x10000, size: 5, prefix: 0xfe, expected: []byte{0xfe, 0x00, 0x00, 0x01, 0x00}},
		{value: 0xfffffffe, size: 5, prefix: 0xfe, expected: []byte{0xfe, 0xfe, 0xff, 0xff, 0xff}},
		{value: 1 << 32, size: 9, prefix: 0xff, expected: []byte{0xff, 0, 0, 0, 0, 1, 0, 0, 0}},
		{value: math.MaxUint64, size: 9, prefix: 0xff, expected: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}
	for _, testDef := range testDefs {
		encoded := wire.EncodeVarInt(testDef.value)
		assert.Equal(t, testDef.expected, encoded, "encoding of %d", testDef.value)
		assert.Equal(t, testDef.prefix, encoded[0], "prefix of %d", testDef.value)
		assert.Equal(t, testDef.size, wire.VarIntSize(testDef.value))
		value, consumed, err := wire.DecodeVarInt(encoded, 0)
		require.NoError(t, err)
		assert.Equal(t, testDef.value, value)
		assert.Equal(t, testDef.size, consumed)
	}
}

func TestVarIntDecodeAtOffset(t *testing.T) {
	buf := []byte{0xaa, 0xbb, 0xfd, 0x34, 0x12, 0xcc}
	value, consumed, err := wire.DecodeVarInt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1234), value)
	assert.Equal(t, 3, consumed)
}

func TestVarIntDecodeNonCanonical(t *testing.T) {
	// Over-wide encodings are accepted
	value, consumed, err := wire.DecodeVarInt([]byte{0xfe, 0x01, 0x00, 0x00, 0x00}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), value)
	assert.Equal(t, 5, consumed)
}

func TestVarIntDecodeTruncated(t *testing.T) {
	testDefs := []struct {
		name string
		buf  []byte
	}{
		{name: "Empty", buf: []byte{}},
		{name: "Prefix16Short", buf: []byte{0xfd, 0x01}},
		{name: "Prefix32Short", buf: []byte{0xfe, 0x01, 0x02, 0x03}},
		{name: "Prefix64Short", buf: []byte{0xff, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, _, err := wire.DecodeVarInt(testDef.buf, 0)
			require.ErrorIs(t, err, wire.ErrTruncatedInput)
		})
	}
	_, _, err := wire.DecodeVarInt([]byte{0x01}, 1)
	require.ErrorIs(t, err, wire.ErrTruncatedInput)
}

func TestVarIntProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		value := rapid.Uint64().Draw(t, "value")
		prefix := rapid.SliceOfN(rapid.Byte(), 0, 8).Draw(t, "prefix")
		buf := wire.AppendVarInt(append([]byte{}, prefix...), value)
		decoded, consumed, err := wire.DecodeVarInt(buf, len(prefix))
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if decoded != value {
			t.Fatalf("decoded %d, expected %d", decoded, value)
		}
		if consumed != wire.VarIntSize(value) || consumed != len(buf)-len(prefix) {
			t.Fatalf("consumed %d bytes, encoded %d", consumed, len(buf)-len(prefix))
		}
	})
}
