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

package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/blinklabs-io/btcpeer"
)

// PeerAddress returns the address to dial. An address without a port gets the network's
// default port. When no address is given, a DNS seed is queried and its first address used.
func PeerAddress(ctx context.Context, f *GlobalFlags, logger *slog.Logger) (string, error) {
	network := f.SelectedNetwork()
	if f.Address != "" {
		if _, _, err := net.SplitHostPort(f.Address); err == nil {
			return f.Address, nil
		}
		if network.DefaultPort == 0 {
			return "", fmt.Errorf("address %s has no port and the network has no default", f.Address)
		}
		return network.Address(f.Address), nil
	}
	seed := f.DNSSeed
	if seed == "" {
		if len(network.DNSSeeds) == 0 {
			return "", errors.New("you must specify -address or -dns-seed for this network")
		}
		seed = network.DNSSeeds[0]
	}
	ips, err := btcpeer.LookupSeed(ctx, seed, f.Resolver)
	if err != nil {
		return "", err
	}
	logger.Debug(
		"resolved DNS seed",
		"component", "network",
		"seed", seed,
		"count", len(ips),
	)
	return network.Address(ips[0].String()), nil
}

// CreateClientConnection dials the peer and completes the handshake
func CreateClientConnection(
	ctx context.Context,
	f *GlobalFlags,
	logger *slog.Logger,
	options ...btcpeer.ConnectionOptionFunc,
) (*btcpeer.Connection, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()
	address, err := PeerAddress(ctx, f, logger)
	if err != nil {
		return nil, err
	}
	options = append(
		[]btcpeer.ConnectionOptionFunc{
			btcpeer.WithNetwork(f.SelectedNetwork()),
			btcpeer.WithLogger(logger),
			btcpeer.WithStrictChecksum(f.StrictChecksum),
		},
		options...,
	)
	conn, err := btcpeer.NewConnection(options...)
	if err != nil {
		return nil, err
	}
	logger.Info(
		"connecting to peer",
		"component", "network",
		"address", address,
	)
	if err := conn.Dial(ctx, "tcp", address); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", address, err)
	}
	return conn, nil
}
