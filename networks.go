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

package btcpeer

import (
	"net"
	"strconv"

	"github.com/btcsuite/btcd/chaincfg"
)

var (
	NetworkMainnet  = networkFromParams(&chaincfg.MainNetParams)
	NetworkTestnet3 = networkFromParams(&chaincfg.TestNet3Params)
	NetworkTestnet4 = Network{
		Name:         "testnet4",
		NetworkMagic: 0x283f161c,
		DefaultPort:  48333,
		DNSSeeds: []string{
			"seed.testnet4.bitcoin.sprovoost.nl",
			"seed.testnet4.wiz.biz",
		},
	}
	NetworkSignet  = networkFromParams(&chaincfg.SigNetParams)
	NetworkRegtest = networkFromParams(&chaincfg.RegressionNetParams)

	NetworkInvalid = Network{
		Name:         "invalid",
		NetworkMagic: 0,
	} // NetworkInvalid is used as a return value for lookup functions when a network isn't found
)

var networks = []Network{
	NetworkMainnet,
	NetworkTestnet3,
	NetworkTestnet4,
	NetworkSignet,
	NetworkRegtest,
}

func networkFromParams(params *chaincfg.Params) Network {
	port, err := strconv.ParseUint(params.DefaultPort, 10, 16)
	if err != nil {
		panic("invalid default port for network " + params.Name)
	}
	seeds := make([]string, 0, len(params.DNSSeeds))
	for _, seed := range params.DNSSeeds {
		seeds = append(seeds, seed.Host)
	}
	return Network{
		Name:         params.Name,
		NetworkMagic: uint32(params.Net),
		DefaultPort:  uint16(port),
		DNSSeeds:     seeds,
	}
}

func NetworkByName(name string) Network {
	for _, network := range networks {
		if network.Name == name {
			return network
		}
	}
	return NetworkInvalid
}

func NetworkByNetworkMagic(networkMagic uint32) Network {
	for _, network := range networks {
		if network.NetworkMagic == networkMagic {
			return network
		}
	}
	return NetworkInvalid
}

type Network struct {
	Name         string
	NetworkMagic uint32
	DefaultPort  uint16
	DNSSeeds     []string
}

func (n Network) String() string {
	return n.Name
}

// Address joins a host with the network's default port
func (n Network) Address(host string) string {
	return net.JoinHostPort(host, strconv.Itoa(int(n.DefaultPort)))
}
