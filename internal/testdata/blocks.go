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

package testdata

import (
	_ "embed"
	"encoding/hex"
	"strings"
)

// Mainnet genesis block: 80-byte header, transaction count and the coinbase transaction
// Hash: 000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f
//
//go:embed genesis_block.hex
var GenesisBlockHex string

// GenesisBlockHash is the mainnet genesis block hash in display byte order
const GenesisBlockHash = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"

// Coinbase transaction of the mainnet genesis block
//
//go:embed genesis_coinbase_tx.hex
var GenesisCoinbaseTxHex string

// GenesisCoinbaseTxHash is the txid of the genesis coinbase transaction
const GenesisCoinbaseTxHash = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"

// Version 2 segregated witness transaction with one input carrying a two item witness
// stack, one P2WPKH output of 50000 satoshis and a lock time of block 800000
//
//go:embed segwit_tx.hex
var SegwitTxHex string

// SegwitTxHash is the txid (non-witness serialization hash) of SegwitTxHex
const SegwitTxHash = "c666830569a7036c520d3dfa5018e91898dc88f6275895962bd7e48286eb0037"

// TestTx contains raw transaction data for testing
type TestTx struct {
	Name   string
	TxHash string
	Raw    []byte
}

// GetTestTxs returns the transaction fixtures
func GetTestTxs() []TestTx {
	return []TestTx{
		{Name: "GenesisCoinbase", TxHash: GenesisCoinbaseTxHash, Raw: MustDecodeHex(GenesisCoinbaseTxHex)},
		{Name: "Segwit", TxHash: SegwitTxHash, Raw: MustDecodeHex(SegwitTxHex)},
	}
}

// MustDecodeHex decodes a hex string to bytes, panicking on error.
func MustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		panic(err)
	}
	return b
}
