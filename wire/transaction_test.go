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
	"encoding/binary"
	"testing"
	"time"

	"github.com/blinklabs-io/btcpeer/internal/test"
	"github.com/blinklabs-io/btcpeer/internal/testdata"
	"github.com/blinklabs-io/btcpeer/wire"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// simpleTx builds a one input, one output transaction with an empty signature script
func simpleTx(lockTime uint32) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, 1)
	buf = append(buf, 0x01)
	h := test.FilledHash(0xab)
	buf = append(buf, h[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, 7)
	buf = append(buf, 0x00)
	buf = binary.LittleEndian.AppendUint32(buf, 0xffffffff)
	buf = append(buf, 0x01)
	buf = binary.LittleEndian.AppendUint64(buf, 12345)
	buf = append(buf, 0x03, 0x51, 0x52, 0x53)
	return binary.LittleEndian.AppendUint32(buf, lockTime)
}

func TestDecodeTransactionSimple(t *testing.T) {
	tx, err := wire.DecodeTransaction(simpleTx(0))
	require.NoError(t, err)
	assert.Equal(t, int32(1), tx.Version)
	assert.Equal(t, uint64(1), tx.InputCount)
	require.Len(t, tx.TxIn, 1)
	assert.Equal(t, test.FilledHash(0xab), tx.TxIn[0].PreviousOutPoint.Hash)
	assert.Equal(t, uint32(7), tx.TxIn[0].PreviousOutPoint.Index)
	assert.Empty(t, tx.TxIn[0].SignatureScript)
	assert.Equal(t, uint32(0xffffffff), tx.TxIn[0].Sequence)
	require.Len(t, tx.TxOut, 1)
	assert.Equal(t, btcutil.Amount(12345), tx.TxOut[0].Value)
	assert.Equal(t, []byte{0x51, 0x52, 0x53}, tx.TxOut[0].PkScript)
	assert.False(t, tx.Summary)
	assert.False(t, tx.HasWitness)
	assert.Equal(t, wire.LockTimeNone, tx.LockTime.Kind())
	assert.Equal(t, "not locked", tx.LockTime.String())
	assert.Equal(t, btcutil.Amount(12345), tx.TotalOutput())
}

func TestDecodeTransactionLockTime(t *testing.T) {
	testDefs := []struct {
		lockTime uint32
		kind     wire.LockTimeKind
		expected string
	}{
		{lockTime: 1, kind: wire.LockTimeBlock, expected: "unlocked at block 1"},
		{lockTime: 499999999, kind: wire.LockTimeBlock, expected: "unlocked at block 499999999"},
		{lockTime: 500000000, kind: wire.LockTimeTimestamp, expected: "unlocked at 1985-11-05 00:53:20"},
		{lockTime: 1700000000, kind: wire.LockTimeTimestamp, expected: "unlocked at 2023-11-14 22:13:20"},
	}
	for _, testDef := range testDefs {
		tx, err := wire.DecodeTransaction(simpleTx(testDef.lockTime))
		require.NoError(t, err)
		assert.Equal(t, testDef.kind, tx.LockTime.Kind())
		assert.Equal(t, testDef.expected, tx.LockTime.String())
	}
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), wire.LockTime(1700000000).Time())
	assert.True(t, wire.LockTime(5).Time().IsZero())
}

func TestDecodeTransactionSummary(t *testing.T) {
	// A 9 byte output count yields a summary record without reading further
	payload := simpleTx(0)[:4+1+41]
	payload = append(payload, 0xff)
	payload = binary.LittleEndian.AppendUint64(payload, 1<<40)
	tx, err := wire.DecodeTransaction(payload)
	require.NoError(t, err)
	assert.True(t, tx.Summary)
	assert.Equal(t, uint64(1<<40), tx.OutputCount)
	assert.Empty(t, tx.TxOut)
	_, err = tx.Encode()
	require.Error(t, err)
}

func TestDecodeTransactionErrors(t *testing.T) {
	full := simpleTx(0)
	testDefs := []struct {
		name    string
		payload []byte
	}{
		{name: "Empty", payload: nil},
		{name: "MissingLockTime", payload: full[:len(full)-4]},
		{name: "TruncatedInput", payload: full[:20]},
		{name: "TrailingBytes", payload: append(append([]byte{}, full...), 0x00)},
		{name: "InputCountTooLarge", payload: append(binary.LittleEndian.AppendUint32(nil, 1), 0xfd, 0xff, 0xff)},
		{name: "OutputCountTooLarge", payload: append(full[:4+1+41:4+1+41], 0xfc)},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := wire.DecodeTransaction(testDef.payload)
			require.ErrorIs(t, err, wire.ErrMalformedPayload)
		})
	}
}

func TestDecodeTransactionFixtures(t *testing.T) {
	for _, testTx := range testdata.GetTestTxs() {
		t.Run(testTx.Name, func(t *testing.T) {
			tx, err := wire.DecodeTransaction(testTx.Raw)
			require.NoError(t, err)
			assert.Equal(t, testTx.TxHash, tx.TxHash().String())
		})
	}
}

func TestDecodeTransactionSegwit(t *testing.T) {
	tx, err := wire.DecodeTransaction(testdata.MustDecodeHex(testdata.SegwitTxHex))
	require.NoError(t, err)
	assert.True(t, tx.HasWitness)
	assert.Equal(t, int32(2), tx.Version)
	require.Len(t, tx.TxIn, 1)
	assert.Equal(t, test.FilledHash(0x11), tx.TxIn[0].PreviousOutPoint.Hash)
	assert.Equal(t, uint32(1), tx.TxIn[0].PreviousOutPoint.Index)
	assert.Equal(t, uint32(0xfffffffd), tx.TxIn[0].Sequence)
	require.Len(t, tx.TxIn[0].Witness, 2)
	assert.Len(t, tx.TxIn[0].Witness[0], 4)
	assert.Len(t, tx.TxIn[0].Witness[1], 33)
	require.Len(t, tx.TxOut, 1)
	assert.Equal(t, btcutil.Amount(50000), tx.TxOut[0].Value)
	assert.Len(t, tx.TxOut[0].PkScript, 22)
	assert.Equal(t, "unlocked at block 800000", tx.LockTime.String())
}

func TestDecodeTransactionZeroInputsReadAsSegwit(t *testing.T) {
	// Version 1, no inputs, one output of 5 satoshis with pk_script 51, lock time 0. The
	// 00 01 after the version is taken as the segwit marker and flag, so the first value
	// byte becomes the input count.
	payload := test.DecodeHexString(
		"01000000" + "00" + "01" + "0500000000000000" + "0151" + "00000000",
	)
	_, err := wire.DecodeTransaction(payload)
	require.ErrorIs(t, err, wire.ErrMalformedPayload)
	assert.ErrorContains(t, err, "input count")
}

func TestTransactionEncodeRoundTrip(t *testing.T) {
	raw := testdata.MustDecodeHex(testdata.GenesisCoinbaseTxHex)
	tx, err := wire.DecodeTransaction(raw)
	require.NoError(t, err)
	encoded, err := tx.Encode()
	require.NoError(t, err)
	assert.Equal(t, raw, encoded)
}
