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

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BlockHeaderSize is the size of the fixed block header
const BlockHeaderSize = 80

// BlockHeader is the fixed 80-byte header of a block
type BlockHeader struct {
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  time.Time
	Bits       uint32
	Nonce      uint32
}

// MsgBlock is a decoded block message. Transactions is only populated by
// DecodeBlockTransactions
type MsgBlock struct {
	Header       BlockHeader
	TxCount      uint64
	Transactions []*MsgTx
}

// Encode serializes the 80-byte header
func (h *BlockHeader) Encode() []byte {
	buf := make([]byte, 0, BlockHeaderSize)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(h.Version))
	buf = append(buf, h.PrevBlock[:]...)
	buf = append(buf, h.MerkleRoot[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(h.Timestamp.Unix()))
	buf = binary.LittleEndian.AppendUint32(buf, h.Bits)
	buf = binary.LittleEndian.AppendUint32(buf, h.Nonce)
	return buf
}

// BlockHash returns the double SHA-256 of the header
func (h *BlockHeader) BlockHash() chainhash.Hash {
	return chainhash.DoubleHashH(h.Encode())
}

func readBlockHeader(r *Reader) (BlockHeader, error) {
	var h BlockHeader
	var err error
	if h.Version, err = r.ReadInt32("version"); err != nil {
		return h, err
	}
	if h.PrevBlock, err = r.ReadHash("previous block hash"); err != nil {
		return h, err
	}
	if h.MerkleRoot, err = r.ReadHash("merkle root"); err != nil {
		return h, err
	}
	timestamp, err := r.ReadUint32("timestamp")
	if err != nil {
		return h, err
	}
	h.Timestamp = time.Unix(int64(timestamp), 0).UTC()
	if h.Bits, err = r.ReadUint32("bits"); err != nil {
		return h, err
	}
	if h.Nonce, err = r.ReadUint32("nonce"); err != nil {
		return h, err
	}
	return h, nil
}

// DecodeBlockHeader decodes a standalone 80-byte block header
func DecodeBlockHeader(data []byte) (*BlockHeader, error) {
	r := NewReader(data)
	h, err := readBlockHeader(r)
	if err != nil {
		return nil, fmt.Errorf("block header: %w", err)
	}
	if err := r.ExpectEnd("block header"); err != nil {
		return nil, fmt.Errorf("block header: %w", err)
	}
	return &h, nil
}

// DecodeBlock decodes the header and transaction count of a block message. The embedded
// transactions are left undecoded
func DecodeBlock(payload []byte) (*MsgBlock, error) {
	blk, _, err := decodeBlock(payload)
	return blk, err
}

func decodeBlock(payload []byte) (*MsgBlock, *Reader, error) {
	r := NewReader(payload)
	header, err := readBlockHeader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", CmdBlock, err)
	}
	txCount, _, err := r.ReadVarInt("transaction count")
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", CmdBlock, err)
	}
	return &MsgBlock{Header: header, TxCount: txCount}, r, nil
}

// DecodeBlockTransactions decodes a block message including every embedded transaction
func DecodeBlockTransactions(payload []byte) (*MsgBlock, error) {
	blk, r, err := decodeBlock(payload)
	if err != nil {
		return nil, err
	}
	// Every transaction is at least 10 bytes: version, two counts and lock time
	if blk.TxCount > uint64(r.Remaining()/10) {
		return nil, fmt.Errorf(
			"%s: %w: transaction count of %d cannot fit in %d remaining bytes",
			CmdBlock,
			ErrMalformedPayload,
			blk.TxCount,
			r.Remaining(),
		)
	}
	blk.Transactions = make([]*MsgTx, 0, blk.TxCount)
	for i := uint64(0); i < blk.TxCount; i++ {
		tx, err := readTransaction(r)
		if err != nil {
			return nil, fmt.Errorf("%s: transaction %d: %w", CmdBlock, i, err)
		}
		if tx.Summary {
			return nil, fmt.Errorf(
				"%s: %w: transaction %d declares %d outputs",
				CmdBlock,
				ErrMalformedPayload,
				i,
				tx.OutputCount,
			)
		}
		blk.Transactions = append(blk.Transactions, tx)
	}
	if err := r.ExpectEnd("last transaction"); err != nil {
		return nil, fmt.Errorf("%s: %w", CmdBlock, err)
	}
	return blk, nil
}
