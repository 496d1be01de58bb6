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

// Package protocol provides the common functionality for peer protocols
package protocol

import (
	"fmt"
	"log/slog"
	"sync"
)

type ProtocolRole uint

const (
	ProtocolRoleNone ProtocolRole = iota
	ProtocolRoleClient
	ProtocolRoleServer
)

func (r ProtocolRole) String() string {
	switch r {
	case ProtocolRoleClient:
		return "client"
	case ProtocolRoleServer:
		return "server"
	default:
		return "none"
	}
}

// Protocol tracks the state of a single protocol instance. Transitions are applied
// sequentially by the owner of the protocol.
type Protocol struct {
	config     ProtocolConfig
	logger     *slog.Logger
	stateMutex sync.Mutex
	state      State
}

type ProtocolConfig struct {
	Name         string
	Role         ProtocolRole
	Logger       *slog.Logger
	ConnectionId string
	StateMap     StateMap
	InitialState State
}

func New(config ProtocolConfig) *Protocol {
	p := &Protocol{
		config: config,
		logger: config.Logger,
		state:  config.InitialState,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

func (p *Protocol) Logger() *slog.Logger {
	return p.logger
}

func (p *Protocol) Name() string {
	return p.config.Name
}

// CurrentState returns the current protocol state
func (p *Protocol) CurrentState() State {
	p.stateMutex.Lock()
	defer p.stateMutex.Unlock()
	return p.state
}

// CurrentEntry returns the state map entry for the current state
func (p *Protocol) CurrentEntry() StateMapEntry {
	p.stateMutex.Lock()
	defer p.stateMutex.Unlock()
	return p.config.StateMap[p.state]
}

// IsDone returns true when the current state has no outgoing transitions
func (p *Protocol) IsDone() bool {
	return len(p.CurrentEntry().Transitions) == 0
}

// Transition moves the protocol to the state reached from the current state by the given
// event. It returns an error wrapping ErrInvalidTransition if there is no such transition.
func (p *Protocol) Transition(event Event) (State, error) {
	p.stateMutex.Lock()
	defer p.stateMutex.Unlock()
	entry, ok := p.config.StateMap[p.state]
	if !ok {
		return p.state, fmt.Errorf(
			"%w: unknown state %s",
			ErrInvalidTransition,
			p.state,
		)
	}
	for _, transition := range entry.Transitions {
		if transition.Event != event {
			continue
		}
		p.logger.Debug(
			"state transition",
			"component", "network",
			"protocol", p.config.Name,
			"role", p.config.Role.String(),
			"connection_id", p.config.ConnectionId,
			"event", event.String(),
			"from", p.state.String(),
			"to", transition.NewState.String(),
		)
		p.state = transition.NewState
		return p.state, nil
	}
	return p.state, fmt.Errorf(
		"%w: %s in state %s",
		ErrInvalidTransition,
		event,
		p.state,
	)
}
