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

package protocol

import (
	"time"
)

// Agency indicates which side is expected to act next in a state
const (
	AgencyNone  uint = 0
	AgencyLocal uint = 1
	AgencyPeer  uint = 2
)

type State struct {
	Id   uint
	Name string
}

func NewState(id uint, name string) State {
	return State{
		Id:   id,
		Name: name,
	}
}

func (s State) String() string {
	return s.Name
}

type Direction uint8

const (
	DirectionNone Direction = iota
	DirectionSend
	DirectionRecv
)

// Event is what drives a state transition: sending or receiving a command, or aborting
type Event struct {
	Direction Direction
	Command   string
}

// EventAbort moves a state machine to its failure state
var EventAbort = Event{Command: "abort"}

func SendEvent(command string) Event {
	return Event{Direction: DirectionSend, Command: command}
}

func RecvEvent(command string) Event {
	return Event{Direction: DirectionRecv, Command: command}
}

func (e Event) String() string {
	switch e.Direction {
	case DirectionSend:
		return "send " + e.Command
	case DirectionRecv:
		return "recv " + e.Command
	default:
		return e.Command
	}
}

type StateTransition struct {
	Event    Event
	NewState State
}

type StateMapEntry struct {
	Agency      uint
	Transitions []StateTransition
	Timeout     time.Duration
}

type StateMap map[State]StateMapEntry

func (s StateMap) Copy() StateMap {
	ret := StateMap{}
	for k, v := range s {
		ret[k] = v
	}
	return ret
}
