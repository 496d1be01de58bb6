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

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/blinklabs-io/btcpeer/wire"
	"github.com/fxamacker/cbor/v2"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatCBOR = "cbor"
)

type invRecord struct {
	Type       string   `cbor:"type"        json:"type"`
	Count      uint64   `cbor:"count"       json:"count"`
	TxCount    int      `cbor:"tx_count"    json:"tx_count"`
	BlockCount int      `cbor:"block_count" json:"block_count"`
	OtherCount int      `cbor:"other_count" json:"other_count"`
	Hashes     []string `cbor:"hashes"      json:"hashes"`
}

type txInRecord struct {
	PreviousOutput  string   `cbor:"previous_output"  json:"previous_output"`
	SignatureScript string   `cbor:"signature_script" json:"signature_script"`
	Sequence        uint32   `cbor:"sequence"         json:"sequence"`
	Witness         []string `cbor:"witness,omitempty" json:"witness,omitempty"`
}

type txOutRecord struct {
	Value    int64  `cbor:"value"     json:"value"`
	PkScript string `cbor:"pk_script" json:"pk_script"`
}

type txRecord struct {
	Type         string        `cbor:"type"                json:"type"`
	TxId         string        `cbor:"txid,omitempty"      json:"txid,omitempty"`
	Version      int32         `cbor:"version"             json:"version"`
	InputCount   uint64        `cbor:"input_count"         json:"input_count"`
	OutputCount  uint64        `cbor:"output_count"        json:"output_count"`
	Summary      bool          `cbor:"summary"             json:"summary"`
	Inputs       []txInRecord  `cbor:"inputs,omitempty"    json:"inputs,omitempty"`
	Outputs      []txOutRecord `cbor:"outputs,omitempty"   json:"outputs,omitempty"`
	LockTime     uint32        `cbor:"lock_time"           json:"lock_time"`
	LockTimeKind string        `cbor:"lock_time_kind"      json:"lock_time_kind"`
}

type blockRecord struct {
	Type       string     `cbor:"type"                   json:"type"`
	Hash       string     `cbor:"hash"                   json:"hash"`
	Version    int32      `cbor:"version"                json:"version"`
	PrevBlock  string     `cbor:"prev_block"             json:"prev_block"`
	MerkleRoot string     `cbor:"merkle_root"            json:"merkle_root"`
	Timestamp  time.Time  `cbor:"timestamp"              json:"timestamp"`
	Bits       uint32     `cbor:"bits"                   json:"bits"`
	Nonce      uint32     `cbor:"nonce"                  json:"nonce"`
	TxCount    uint64     `cbor:"tx_count"               json:"tx_count"`
	Txs        []txRecord `cbor:"transactions,omitempty" json:"transactions,omitempty"`
}

// printer writes one record per displayed message. The cbor format produces a CBOR
// sequence with one data item per record.
type printer struct {
	w      io.Writer
	format string
	json   *json.Encoder
	cbor   *cbor.Encoder
}

func newPrinter(w io.Writer, format string) (*printer, error) {
	p := &printer{
		w:      w,
		format: format,
	}
	switch format {
	case formatText:
	case formatJSON:
		p.json = json.NewEncoder(w)
	case formatCBOR:
		encMode, err := cbor.EncOptions{Time: cbor.TimeRFC3339}.EncMode()
		if err != nil {
			return nil, err
		}
		p.cbor = encMode.NewEncoder(w)
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
	return p, nil
}

func (p *printer) encode(record any) error {
	if p.json != nil {
		return p.json.Encode(record)
	}
	return p.cbor.Encode(record)
}

func (p *printer) Inventory(inv *wire.Inventory) error {
	if p.format != formatText {
		record := invRecord{
			Type:       wire.CmdInv,
			Count:      inv.Count,
			TxCount:    inv.TxCount,
			BlockCount: inv.BlockCount,
			OtherCount: inv.OtherCount,
			Hashes:     make([]string, 0, len(inv.Vectors)),
		}
		for _, vec := range inv.Vectors {
			record.Hashes = append(record.Hashes, vec.Hash.String())
		}
		return p.encode(record)
	}
	var sb strings.Builder
	sb.WriteString("******************* INV MESSAGE *******************\n")
	fmt.Fprintf(&sb, "Inv count = %d\n", inv.Count)
	fmt.Fprintf(&sb, "Length of inventory vectors = %d bytes\n", inv.Count*wire.InvVectSize)
	sb.WriteString("\nSummary of inventory vectors received\n")
	fmt.Fprintf(&sb, "\tNumber of MSG_TX vectors = %d\n", inv.TxCount)
	fmt.Fprintf(&sb, "\tNumber of MSG_BLOCK vectors = %d\n", inv.BlockCount)
	if inv.OtherCount > 0 {
		fmt.Fprintf(&sb, "\tNumber of other vectors = %d\n", inv.OtherCount)
	}
	sb.WriteString("*************** END OF INV MESSAGE ****************\n")
	_, err := io.WriteString(p.w, sb.String())
	return err
}

func newTxRecord(tx *wire.MsgTx) txRecord {
	record := txRecord{
		Type:         wire.CmdTx,
		Version:      tx.Version,
		InputCount:   tx.InputCount,
		OutputCount:  tx.OutputCount,
		Summary:      tx.Summary,
		LockTime:     uint32(tx.LockTime),
		LockTimeKind: tx.LockTime.Kind().String(),
	}
	if tx.Summary {
		return record
	}
	record.TxId = tx.TxHash().String()
	for _, in := range tx.TxIn {
		inRecord := txInRecord{
			PreviousOutput:  in.PreviousOutPoint.String(),
			SignatureScript: hex.EncodeToString(in.SignatureScript),
			Sequence:        in.Sequence,
		}
		for _, item := range in.Witness {
			inRecord.Witness = append(inRecord.Witness, hex.EncodeToString(item))
		}
		record.Inputs = append(record.Inputs, inRecord)
	}
	for _, out := range tx.TxOut {
		record.Outputs = append(record.Outputs, txOutRecord{
			Value:    int64(out.Value),
			PkScript: hex.EncodeToString(out.PkScript),
		})
	}
	return record
}

func (p *printer) Transaction(tx *wire.MsgTx) error {
	if p.format != formatText {
		return p.encode(newTxRecord(tx))
	}
	_, err := io.WriteString(p.w, formatTransaction(tx))
	return err
}

func formatTransaction(tx *wire.MsgTx) string {
	var sb strings.Builder
	sb.WriteString("******************* TX MESSAGE *******************\n")
	if tx.Summary {
		fmt.Fprintf(
			&sb,
			"Warning: 8 byte tx_out count, details not shown. %d transaction outputs\n",
			tx.OutputCount,
		)
	} else {
		fmt.Fprintf(&sb, "txid = %s\n", tx.TxHash())
	}
	fmt.Fprintf(&sb, "version = %d\n", tx.Version)
	fmt.Fprintf(&sb, "tx_in count = %d\n", tx.InputCount)
	if tx.Summary {
		fmt.Fprintf(&sb, "tx_out count = %d\n", tx.OutputCount)
		sb.WriteString("**************** END OF TX MESSAGE ****************\n")
		return sb.String()
	}
	for i, in := range tx.TxIn {
		fmt.Fprintf(&sb, "\tTransaction input %d\n", i)
		fmt.Fprintf(&sb, "\t\tprevious_output = %s\n", in.PreviousOutPoint)
		fmt.Fprintf(&sb, "\t\tscript length = %d\n", len(in.SignatureScript))
		fmt.Fprintf(&sb, "\t\tscript signature = %x\n", in.SignatureScript)
		fmt.Fprintf(&sb, "\t\tsequence = %08x\n", in.Sequence)
		if len(in.Witness) > 0 {
			fmt.Fprintf(&sb, "\t\twitness items = %d\n", len(in.Witness))
		}
	}
	fmt.Fprintf(&sb, "tx_out count = %d\n", tx.OutputCount)
	for i, out := range tx.TxOut {
		fmt.Fprintf(&sb, "\tTransaction output %d\n", i)
		fmt.Fprintf(&sb, "\t\tvalue = %d satoshis (%s)\n", int64(out.Value), out.Value)
		fmt.Fprintf(&sb, "\t\tpk_script length = %d\n", len(out.PkScript))
		fmt.Fprintf(&sb, "\t\tpk_script = %x\n", out.PkScript)
	}
	fmt.Fprintf(&sb, "lock_time = %d, transaction %s\n", uint32(tx.LockTime), tx.LockTime)
	sb.WriteString("**************** END OF TX MESSAGE ****************\n")
	return sb.String()
}

func (p *printer) Block(block *wire.MsgBlock) error {
	if p.format != formatText {
		record := blockRecord{
			Type:       wire.CmdBlock,
			Hash:       block.Header.BlockHash().String(),
			Version:    block.Header.Version,
			PrevBlock:  block.Header.PrevBlock.String(),
			MerkleRoot: block.Header.MerkleRoot.String(),
			Timestamp:  block.Header.Timestamp.UTC(),
			Bits:       block.Header.Bits,
			Nonce:      block.Header.Nonce,
			TxCount:    block.TxCount,
		}
		for _, tx := range block.Transactions {
			record.Txs = append(record.Txs, newTxRecord(tx))
		}
		return p.encode(record)
	}
	var sb strings.Builder
	sb.WriteString("****************** BLOCK MESSAGE ******************\n")
	fmt.Fprintf(&sb, "hash = %s\n", block.Header.BlockHash())
	fmt.Fprintf(&sb, "version = %d\n", block.Header.Version)
	fmt.Fprintf(&sb, "prev_block hash = %s\n", block.Header.PrevBlock)
	fmt.Fprintf(&sb, "merkle_root = %s\n", block.Header.MerkleRoot)
	fmt.Fprintf(&sb, "timestamp = %s\n", block.Header.Timestamp.UTC().Format(time.DateTime))
	fmt.Fprintf(&sb, "difficulty target = %d or %08x\n", block.Header.Bits, block.Header.Bits)
	fmt.Fprintf(&sb, "nonce = %d\n", block.Header.Nonce)
	fmt.Fprintf(&sb, "txn count = %d\n", block.TxCount)
	sb.WriteString("*************** END OF BLOCK MESSAGE **************\n")
	for _, tx := range block.Transactions {
		sb.WriteString(formatTransaction(tx))
	}
	_, err := io.WriteString(p.w, sb.String())
	return err
}
