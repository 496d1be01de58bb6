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
	"fmt"
	"time"
)

// LockTimeThreshold separates block height lock times from Unix timestamp lock times
const LockTimeThreshold = 500000000

type LockTimeKind int

const (
	LockTimeNone LockTimeKind = iota
	LockTimeBlock
	LockTimeTimestamp
)

func (k LockTimeKind) String() string {
	switch k {
	case LockTimeNone:
		return "none"
	case LockTimeBlock:
		return "block"
	case LockTimeTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("LockTimeKind(%d)", int(k))
	}
}

// LockTime is the lock_time field of a transaction
type LockTime uint32

// Kind classifies the lock time as unlocked, a block height or a Unix timestamp
func (l LockTime) Kind() LockTimeKind {
	switch {
	case l == 0:
		return LockTimeNone
	case l < LockTimeThreshold:
		return LockTimeBlock
	default:
		return LockTimeTimestamp
	}
}

// Time returns the unlock time for timestamp lock times, and the zero time otherwise
func (l LockTime) Time() time.Time {
	if l.Kind() != LockTimeTimestamp {
		return time.Time{}
	}
	return time.Unix(int64(l), 0).UTC()
}

func (l LockTime) String() string {
	switch l.Kind() {
	case LockTimeNone:
		return "not locked"
	case LockTimeBlock:
		return fmt.Sprintf("unlocked at block %d", uint32(l))
	default:
		return "unlocked at " + l.Time().Format(time.DateTime)
	}
}
