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

package bench

import (
	"testing"

	"github.com/blinklabs-io/btcpeer/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMessageFixtures(t *testing.T) {
	fixtures, err := LoadMessageFixtures()
	require.NoError(t, err)
	require.NotEmpty(t, fixtures)
	for _, fixture := range fixtures {
		t.Run(fixture.Name, func(t *testing.T) {
			header, err := wire.ParseHeader(fixture.Framed, BenchNetworkMagic)
			require.NoError(t, err)
			assert.Equal(t, fixture.Command, header.Command)
			_, err = decoderFor(fixture.Command)(fixture.Payload)
			require.NoError(t, err)
		})
	}
}

func TestInvVectors(t *testing.T) {
	vectors := InvVectors(4)
	require.Len(t, vectors, 4)
	assert.Equal(t, wire.InvTypeTx, vectors[0].Type)
	assert.Equal(t, wire.InvTypeBlock, vectors[1].Type)
	assert.NotEqual(t, vectors[0].Hash, vectors[2].Hash)
}
