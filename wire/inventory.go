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

const (
	// InvVectSize is the encoded size of an inventory vector
	InvVectSize = 4 + chainhash.HashSize

	// MaxInvPerMsg is the maximum number of inventory vectors in a single inv or getdata message
	MaxInvPerMsg = 50000

	invWitnessFlag = 1 << 30
)

// InvType is the kind of object an inventory vector refers to
type InvType uint32

const (
	InvTypeError                InvType = 0
	InvTypeTx                   InvType = 1
	InvTypeBlock                InvType = 2
	InvTypeFilteredBlock        InvType = 3
	InvTypeCompactBlock         InvType = 4
	InvTypeWitnessTx            InvType = InvTypeTx | invWitnessFlag
	InvTypeWitnessBlock         InvType = InvTypeBlock | invWitnessFlag
	InvTypeFilteredWitnessBlock InvType = InvTypeFilteredBlock | invWitnessFlag
)

var invTypeNames = map[InvType]string{
	InvTypeError:                "UNDEFINED",
	InvTypeTx:                   "MSG_TX",
	InvTypeBlock:                "MSG_BLOCK",
	InvTypeFilteredBlock:        "MSG_FILTERED_BLOCK",
	InvTypeCompactBlock:         "MSG_CMPCT_BLOCK",
	InvTypeWitnessTx:            "MSG_WITNESS_TX",
	InvTypeWitnessBlock:         "MSG_WITNESS_BLOCK",
	InvTypeFilteredWitnessBlock: "MSG_FILTERED_WITNESS_BLOCK",
}

func (t InvType) String() string {
	if name, ok := invTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint32(t))
}

// InvVect is an inventory vector announcing or requesting a transaction or block
type InvVect struct {
	Type InvType
	Hash chainhash.Hash
}

// Inventory is the decoded body of an inv message. Vectors holds only the MSG_TX and
// MSG_BLOCK vectors, in their original order. The per-kind counts cover the whole message
type Inventory struct {
	Count      uint64
	Vectors    []InvVect
	TxCount    int
	BlockCount int
	OtherCount int
}

// DecodeInventory decodes an inv (or getdata) payload. The payload must contain exactly
// count 36-byte vectors after the count prefix
func DecodeInventory(payload []byte) (*Inventory, error) {
	count, consumed, err := DecodeVarInt(payload, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: count: %w", CmdInv, ErrMalformedPayload, err)
	}
	if count > MaxInvPerMsg {
		return nil, fmt.Errorf(
			"%s: %w: count %d exceeds maximum of %d",
			CmdInv,
			ErrMalformedPayload,
			count,
			MaxInvPerMsg,
		)
	}
	remaining := len(payload) - consumed
	if expected := count * InvVectSize; expected != uint64(remaining) {
		return nil, fmt.Errorf(
			"%s: %w: inventory length mismatch: count %d needs %d bytes, have %d",
			CmdInv,
			ErrMalformedPayload,
			count,
			expected,
			remaining,
		)
	}
	inv := &Inventory{
		Count: count,
	}
	for off := consumed; off < len(payload); off += InvVectSize {
		vec := InvVect{
			Type: InvType(binary.LittleEndian.Uint32(payload[off : off+4])),
		}
		copy(vec.Hash[:], payload[off+4:off+InvVectSize])
		switch vec.Type {
		case InvTypeTx:
			inv.TxCount++
			inv.Vectors = append(inv.Vectors, vec)
		case InvTypeBlock:
			inv.BlockCount++
			inv.Vectors = append(inv.Vectors, vec)
		default:
			inv.OtherCount++
		}
	}
	return inv, nil
}

// EncodeInventory serializes a list of vectors as an inv/getdata body
func EncodeInventory(vectors []InvVect) []byte {
	buf := make([]byte, 0, VarIntSize(uint64(len(vectors)))+len(vectors)*InvVectSize)
	buf = AppendVarInt(buf, uint64(len(vectors)))
	for _, vec := range vectors {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(vec.Type))
		buf = append(buf, vec.Hash[:]...)
	}
	return buf
}

// BuildGetData returns the getdata payload requesting the given vectors. An empty list
// yields the single zero byte meaning "no data requested"
func BuildGetData(vectors []InvVect) []byte {
	return EncodeInventory(vectors)
}
