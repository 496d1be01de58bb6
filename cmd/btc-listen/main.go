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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/blinklabs-io/btcpeer"
	"github.com/blinklabs-io/btcpeer/cmd/common"
	"github.com/blinklabs-io/btcpeer/wire"
)

type listenFlags struct {
	*common.GlobalFlags
	showInv   bool
	showTx    bool
	showBlock bool
	format    string
	fullBlock bool
}

func main() {
	// Parse commandline
	f := listenFlags{
		GlobalFlags: common.NewGlobalFlags(),
	}
	f.Flagset.BoolVar(&f.showInv, "show-inv", true, "display inv messages")
	f.Flagset.BoolVar(&f.showTx, "show-tx", true, "display tx messages")
	f.Flagset.BoolVar(&f.showBlock, "show-block", true, "display block messages")
	f.Flagset.StringVar(&f.format, "format", formatText, "output format: text, json or cbor")
	f.Flagset.BoolVar(
		&f.fullBlock,
		"full-block",
		false,
		"decode every transaction of received blocks",
	)
	f.Parse()

	level := slog.LevelInfo
	if f.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	)
	slog.SetDefault(logger)

	out, err := newPrinter(os.Stdout, f.format)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := common.CreateClientConnection(
		ctx,
		f.GlobalFlags,
		logger,
		btcpeer.WithDecodeBlockTransactions(f.fullBlock),
	)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	peer := conn.PeerVersion()
	logger.Info(
		"handshake complete",
		"component", "network",
		"user_agent", peer.UserAgent,
		"protocol_version", peer.ProtocolVersion,
		"start_height", peer.StartHeight,
	)

	// Next blocks on the socket, so the connection is closed to interrupt it
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	if err := listen(conn, out, f, logger); err != nil && ctx.Err() == nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, "Program exited")
}

func listen(conn *btcpeer.Connection, out *printer, f listenFlags, logger *slog.Logger) error {
	for {
		msg, err := conn.Next()
		if err != nil {
			var decodeErr *btcpeer.DecodeError
			if errors.As(err, &decodeErr) {
				logger.Warn(
					"skipping message",
					"component", "network",
					"command", decodeErr.Command,
					"error", decodeErr.Err,
				)
				continue
			}
			return err
		}
		switch m := msg.(type) {
		case *wire.Inventory:
			if f.showInv {
				if err := out.Inventory(m); err != nil {
					return err
				}
			}
			if _, err := conn.RequestData(m); err != nil {
				return err
			}
		case *wire.MsgTx:
			if f.showTx {
				if err := out.Transaction(m); err != nil {
					return err
				}
			}
		case *wire.MsgBlock:
			if f.showBlock {
				if err := out.Block(m); err != nil {
					return err
				}
			}
		case *wire.RawMessage:
			logger.Debug(
				"ignoring message",
				"component", "network",
				"command", m.Command,
				"length", len(m.Payload),
			)
		}
	}
}
