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
	"net"
	"strconv"
	"strings"
)

// ServiceFlag is the bitmask of services advertised by a node
type ServiceFlag uint64

const (
	SFNodeNetwork        ServiceFlag = 1 << 0
	SFNodeGetUTXO        ServiceFlag = 1 << 1
	SFNodeBloom          ServiceFlag = 1 << 2
	SFNodeWitness        ServiceFlag = 1 << 3
	SFNodeCompactFilters ServiceFlag = 1 << 6
	SFNodeNetworkLimited ServiceFlag = 1 << 10
	SFNodeP2PV2          ServiceFlag = 1 << 11
)

var serviceFlagNames = []struct {
	flag ServiceFlag
	name string
}{
	{SFNodeNetwork, "NODE_NETWORK"},
	{SFNodeGetUTXO, "NODE_GETUTXO"},
	{SFNodeBloom, "NODE_BLOOM"},
	{SFNodeWitness, "NODE_WITNESS"},
	{SFNodeCompactFilters, "NODE_COMPACT_FILTERS"},
	{SFNodeNetworkLimited, "NODE_NETWORK_LIMITED"},
	{SFNodeP2PV2, "NODE_P2P_V2"},
}

func (f ServiceFlag) String() string {
	if f == 0 {
		return "NONE"
	}
	var names []string
	remaining := f
	for _, entry := range serviceFlagNames {
		if f&entry.flag == entry.flag {
			names = append(names, entry.name)
			remaining &^= entry.flag
		}
	}
	if remaining != 0 {
		names = append(names, "0x"+strconv.FormatUint(uint64(remaining), 16))
	}
	return strings.Join(names, "|")
}

// NetAddressSize is the encoded size of a network address without a timestamp, as used
// in the version message
const NetAddressSize = 26

// NetAddress is a peer network address. IPv4 addresses are carried as IPv4-mapped IPv6
type NetAddress struct {
	Services ServiceFlag
	IP       net.IP
	Port     uint16
}

// NewNetAddress returns a NetAddress for the given host IP and port
func NewNetAddress(ip net.IP, port uint16, services ServiceFlag) NetAddress {
	return NetAddress{
		Services: services,
		IP:       ip,
		Port:     port,
	}
}

func (a NetAddress) String() string {
	return net.JoinHostPort(a.IP.String(), strconv.Itoa(int(a.Port)))
}

// AppendNetAddress appends the 26-byte encoding of addr
func AppendNetAddress(dst []byte, addr NetAddress) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, uint64(addr.Services))
	ip := addr.IP.To16()
	if ip == nil {
		ip = net.IPv6zero
	}
	dst = append(dst, ip...)
	// Ports are big-endian on the wire
	return binary.BigEndian.AppendUint16(dst, addr.Port)
}

func readNetAddress(r *Reader, field string) (NetAddress, error) {
	var addr NetAddress
	services, err := r.ReadUint64(field + " services")
	if err != nil {
		return addr, err
	}
	ip, err := r.ReadBytes(net.IPv6len, field+" ip")
	if err != nil {
		return addr, err
	}
	port, err := r.ReadUint16BE(field + " port")
	if err != nil {
		return addr, err
	}
	addr.Services = ServiceFlag(services)
	addr.IP = make(net.IP, net.IPv6len)
	copy(addr.IP, ip)
	addr.Port = port
	return addr, nil
}

// DecodeNetAddress decodes a 26-byte network address
func DecodeNetAddress(data []byte) (NetAddress, error) {
	r := NewReader(data)
	addr, err := readNetAddress(r, "address")
	if err != nil {
		return addr, fmt.Errorf("netaddress: %w", err)
	}
	return addr, r.ExpectEnd("address")
}
