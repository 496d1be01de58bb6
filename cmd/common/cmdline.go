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
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/blinklabs-io/btcpeer"
)

type GlobalFlags struct {
	Flagset        *flag.FlagSet
	Address        string
	Network        string
	NetworkMagic   uint
	DNSSeed        string
	Resolver       string
	StrictChecksum bool
	Debug          bool
	Timeout        time.Duration
}

func NewGlobalFlags() *GlobalFlags {
	f := &GlobalFlags{
		Flagset: flag.NewFlagSet(os.Args[0], flag.ExitOnError),
	}
	f.Flagset.StringVar(
		&f.Address,
		"address",
		"",
		"TCP address of the peer in host or host:port format. when empty, a DNS seed is queried",
	)
	f.Flagset.StringVar(
		&f.Network,
		"network",
		"mainnet",
		"specifies network that the peer is participating in",
	)
	f.Flagset.UintVar(
		&f.NetworkMagic,
		"network-magic",
		0,
		"specifies network magic value. this overrides the -network option",
	)
	f.Flagset.StringVar(
		&f.DNSSeed,
		"dns-seed",
		"",
		"DNS seed used to find a peer (defaults to the first seed of the network)",
	)
	f.Flagset.StringVar(
		&f.Resolver,
		"resolver",
		"",
		"DNS resolver in host:port format (defaults to the first nameserver in /etc/resolv.conf)",
	)
	f.Flagset.BoolVar(
		&f.StrictChecksum,
		"strict-checksum",
		true,
		"reject messages with a bad checksum",
	)
	f.Flagset.BoolVar(&f.Debug, "debug", false, "enable debug logging")
	f.Flagset.DurationVar(
		&f.Timeout,
		"timeout",
		30*time.Second,
		"timeout for connecting and handshaking with the peer",
	)
	return f
}

func (f *GlobalFlags) Parse() {
	if err := f.Flagset.Parse(os.Args[1:]); err != nil {
		fmt.Printf("failed to parse command args: %s\n", err)
		os.Exit(1)
	}
	if f.NetworkMagic > 0xffffffff {
		fmt.Printf("Invalid network magic specified: %d\n", f.NetworkMagic)
		os.Exit(1)
	}
	if f.NetworkMagic == 0 {
		network := btcpeer.NetworkByName(f.Network)
		if network.NetworkMagic == 0 {
			fmt.Printf("Invalid network specified: %s\n", f.Network)
			os.Exit(1)
		}
		f.NetworkMagic = uint(network.NetworkMagic)
	}
}

// SelectedNetwork returns the network matching the configured magic. A custom magic that
// matches no known network returns NetworkInvalid with the magic filled in.
func (f *GlobalFlags) SelectedNetwork() btcpeer.Network {
	network := btcpeer.NetworkByNetworkMagic(uint32(f.NetworkMagic))
	if network.NetworkMagic == 0 {
		network.NetworkMagic = uint32(f.NetworkMagic)
	}
	return network
}
