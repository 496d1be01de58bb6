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
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

const (
	defaultResolvConf = "/etc/resolv.conf"
	seedLookupTimeout = 10 * time.Second
)

var ErrNoSeedAddresses = errors.New("DNS seed returned no addresses")

// LookupSeed resolves the A and AAAA records of a DNS seed. The resolver is a host:port
// address; when empty, the first nameserver from /etc/resolv.conf is used.
func LookupSeed(ctx context.Context, seed string, resolver string) ([]net.IP, error) {
	if resolver == "" {
		config, err := dns.ClientConfigFromFile(defaultResolvConf)
		if err != nil {
			return nil, fmt.Errorf("load resolver config: %w", err)
		}
		if len(config.Servers) == 0 {
			return nil, fmt.Errorf("no nameservers in %s", defaultResolvConf)
		}
		resolver = net.JoinHostPort(config.Servers[0], config.Port)
	}
	client := &dns.Client{
		Timeout: seedLookupTimeout,
	}
	var ips []net.IP
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(seed), qtype)
		resp, _, err := client.ExchangeContext(ctx, msg, resolver)
		if err != nil {
			return nil, fmt.Errorf("query %s for %s: %w", dns.TypeToString[qtype], seed, err)
		}
		if resp.Rcode != dns.RcodeSuccess {
			return nil, fmt.Errorf(
				"query %s for %s: unsuccessful response: %s",
				dns.TypeToString[qtype],
				seed,
				dns.RcodeToString[resp.Rcode],
			)
		}
		for _, rr := range resp.Answer {
			switch record := rr.(type) {
			case *dns.A:
				ips = append(ips, record.A)
			case *dns.AAAA:
				ips = append(ips, record.AAAA)
			}
		}
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSeedAddresses, seed)
	}
	return ips, nil
}
