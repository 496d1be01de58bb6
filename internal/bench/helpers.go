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

// Package bench provides benchmarks and fixtures for the wire decoders and the muxer.
package bench

import (
	"fmt"

	"github.com/blinklabs-io/btcpeer/internal/testdata"
	"github.com/blinklabs-io/btcpeer/wire"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BenchNetworkMagic is the mainnet magic
const BenchNetworkMagic uint32 = 0xd9b4bef9

// MessageFixture is a payload along with its framed message
type MessageFixture struct {
	Name    string
	Command string
	Payload []byte
	Framed  []byte
}

// LoadMessageFixtures returns a framed message for each payload fixture: the transaction
// fixtures, the genesis block and a full inv message
func LoadMessageFixtures() ([]MessageFixture, error) {
	var ret []MessageFixture
	for _, tx := range testdata.GetTestTxs() {
		ret = append(ret, MessageFixture{
			Name:    "Tx_" + tx.Name,
			Command: wire.CmdTx,
			Payload: tx.Raw,
		})
	}
	ret = append(
		ret,
		MessageFixture{
			Name:    "Block_Genesis",
			Command: wire.CmdBlock,
			Payload: testdata.MustDecodeHex(testdata.GenesisBlockHex),
		},
		MessageFixture{
			Name:    "Inv_Max",
			Command: wire.CmdInv,
			Payload: wire.EncodeInventory(InvVectors(wire.MaxInvPerMsg)),
		},
	)
	for i := range ret {
		framed, err := wire.BuildMessage(BenchNetworkMagic, ret[i].Command, ret[i].Payload)
		if err != nil {
			return nil, fmt.Errorf("frame %s fixture: %w", ret[i].Name, err)
		}
		ret[i].Framed = framed
	}
	return ret, nil
}

// MustLoadMessageFixtures loads the message fixtures and panics on error
func MustLoadMessageFixtures() []MessageFixture {
	fixtures, err := LoadMessageFixtures()
	if err != nil {
		panic(fmt.Sprintf("failed to load message fixtures: %v", err))
	}
	return fixtures
}

// InvVectors returns count vectors alternating between MSG_TX and MSG_BLOCK
func InvVectors(count int) []wire.InvVect {
	ret := make([]wire.InvVect, count)
	for i := range ret {
		ret[i].Type = wire.InvTypeTx
		if i%2 == 1 {
			ret[i].Type = wire.InvTypeBlock
		}
		ret[i].Hash = chainhash.DoubleHashH([]byte(fmt.Sprintf("vector %d", i)))
	}
	return ret
}
