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
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	// OutPointSize is the encoded size of a previous output reference
	OutPointSize = chainhash.HashSize + 4

	// Smallest possible encodings, used to bound element counts before allocating
	minTxInSize  = OutPointSize + 1 + 4
	minTxOutSize = 8 + 1

	witnessMarker = 0x00
	witnessFlag   = 0x01
)

// OutPoint references an output of a previous transaction
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

func (o OutPoint) String() string {
	return o.Hash.String() + ":" + strconv.FormatUint(uint64(o.Index), 10)
}

// TxIn is a transaction input. SignatureScript is nil when the script length is zero
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32
	Witness          [][]byte
}

// TxOut is a transaction output. PkScript is nil when the script length is zero
type TxOut struct {
	Value    btcutil.Amount
	PkScript []byte
}

// MsgTx is a decoded transaction.
//
// When the output count is encoded with the 8-byte varint width, the transaction is treated
// as too large to materialize: Summary is set, OutputCount holds the declared count, and
// TxOut, witness data and LockTime are not decoded
type MsgTx struct {
	Version     int32
	InputCount  uint64
	OutputCount uint64
	TxIn        []TxIn
	TxOut       []TxOut
	LockTime    LockTime
	HasWitness  bool
	Summary     bool
}

// DecodeTransaction decodes the payload of a tx message
func DecodeTransaction(payload []byte) (*MsgTx, error) {
	r := NewReader(payload)
	tx, err := readTransaction(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", CmdTx, err)
	}
	if !tx.Summary {
		if err := r.ExpectEnd("lock time"); err != nil {
			return nil, fmt.Errorf("%s: %w", CmdTx, err)
		}
	}
	return tx, nil
}

func readTransaction(r *Reader) (*MsgTx, error) {
	var err error
	tx := &MsgTx{}
	if tx.Version, err = r.ReadInt32("version"); err != nil {
		return nil, err
	}
	if tx.InputCount, _, err = r.ReadCount("input count", minTxInSize); err != nil {
		return nil, err
	}
	// A zero input count followed by the flag byte marks the segregated witness encoding.
	// A legacy transaction with no inputs and one output has the same prefix and is always
	// read as segwit, as Bitcoin Core does.
	if tx.InputCount == witnessMarker {
		if next, ok := r.PeekUint8(); ok && next == witnessFlag {
			_, _ = r.ReadUint8("witness flag")
			tx.HasWitness = true
			if tx.InputCount, _, err = r.ReadCount("input count", minTxInSize); err != nil {
				return nil, err
			}
		}
	}
	tx.TxIn = make([]TxIn, 0, tx.InputCount)
	for i := uint64(0); i < tx.InputCount; i++ {
		txIn, err := readTxIn(r, i)
		if err != nil {
			return nil, err
		}
		tx.TxIn = append(tx.TxIn, txIn)
	}
	outputCount, width, err := r.ReadVarInt("output count")
	if err != nil {
		return nil, err
	}
	tx.OutputCount = outputCount
	if width == VarIntWidth9 {
		tx.Summary = true
		return tx, nil
	}
	if outputCount > uint64(r.Remaining()/minTxOutSize) {
		return nil, fmt.Errorf(
			"%w: output count of %d cannot fit in %d remaining bytes",
			ErrMalformedPayload,
			outputCount,
			r.Remaining(),
		)
	}
	tx.TxOut = make([]TxOut, 0, outputCount)
	for i := uint64(0); i < outputCount; i++ {
		txOut, err := readTxOut(r, i)
		if err != nil {
			return nil, err
		}
		tx.TxOut = append(tx.TxOut, txOut)
	}
	if tx.HasWitness {
		for i := range tx.TxIn {
			if tx.TxIn[i].Witness, err = readWitness(r, i); err != nil {
				return nil, err
			}
		}
	}
	lockTime, err := r.ReadUint32("lock time")
	if err != nil {
		return nil, err
	}
	tx.LockTime = LockTime(lockTime)
	return tx, nil
}

func readTxIn(r *Reader, idx uint64) (TxIn, error) {
	var txIn TxIn
	var err error
	field := "input " + strconv.FormatUint(idx, 10)
	if txIn.PreviousOutPoint.Hash, err = r.ReadHash(field + " previous output hash"); err != nil {
		return txIn, err
	}
	if txIn.PreviousOutPoint.Index, err = r.ReadUint32(field + " previous output index"); err != nil {
		return txIn, err
	}
	if txIn.SignatureScript, err = r.ReadVarBytes(field + " signature script"); err != nil {
		return txIn, err
	}
	if txIn.Sequence, err = r.ReadUint32(field + " sequence"); err != nil {
		return txIn, err
	}
	return txIn, nil
}

func readTxOut(r *Reader, idx uint64) (TxOut, error) {
	var txOut TxOut
	field := "output " + strconv.FormatUint(idx, 10)
	value, err := r.ReadInt64(field + " value")
	if err != nil {
		return txOut, err
	}
	txOut.Value = btcutil.Amount(value)
	if txOut.PkScript, err = r.ReadVarBytes(field + " pk_script"); err != nil {
		return txOut, err
	}
	return txOut, nil
}

func readWitness(r *Reader, idx int) ([][]byte, error) {
	field := "input " + strconv.Itoa(idx) + " witness"
	count, _, err := r.ReadCount(field+" item count", 1)
	if err != nil {
		return nil, err
	}
	witness := make([][]byte, 0, count)
	for i := uint64(0); i < count; i++ {
		item, err := r.ReadVarBytes(field + " item")
		if err != nil {
			return nil, err
		}
		witness = append(witness, item)
	}
	return witness, nil
}

// Encode serializes the transaction without witness data. Summary transactions cannot be
// encoded
func (tx *MsgTx) Encode() ([]byte, error) {
	if tx.Summary {
		return nil, fmt.Errorf("%s: cannot encode summary transaction", CmdTx)
	}
	buf := make([]byte, 0, 10+len(tx.TxIn)*minTxInSize+len(tx.TxOut)*minTxOutSize)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(tx.Version))
	buf = AppendVarInt(buf, uint64(len(tx.TxIn)))
	for _, txIn := range tx.TxIn {
		buf = append(buf, txIn.PreviousOutPoint.Hash[:]...)
		buf = binary.LittleEndian.AppendUint32(buf, txIn.PreviousOutPoint.Index)
		buf = AppendVarBytes(buf, txIn.SignatureScript)
		buf = binary.LittleEndian.AppendUint32(buf, txIn.Sequence)
	}
	buf = AppendVarInt(buf, uint64(len(tx.TxOut)))
	for _, txOut := range tx.TxOut {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(txOut.Value))
		buf = AppendVarBytes(buf, txOut.PkScript)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(tx.LockTime))
	return buf, nil
}

// TxHash returns the transaction id, the double SHA-256 of the serialization without
// witness data. The zero hash is returned for summary transactions
func (tx *MsgTx) TxHash() chainhash.Hash {
	data, err := tx.Encode()
	if err != nil {
		return chainhash.Hash{}
	}
	return chainhash.DoubleHashH(data)
}

// TotalOutput returns the sum of all decoded output values
func (tx *MsgTx) TotalOutput() btcutil.Amount {
	var total btcutil.Amount
	for _, txOut := range tx.TxOut {
		total += txOut.Value
	}
	return total
}
