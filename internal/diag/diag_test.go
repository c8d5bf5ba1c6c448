// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDedupsByHeaderHash(t *testing.T) {
	r := NewRecorder(4)
	headers := []byte{0x01, 0x02, 0x03, 0x04, 0x00, 0x01}

	r.Record("resync", 3, headers)
	r.Record("resync", 3, headers)
	r.Record("resync", 3, headers)

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 3, snap[0].Count)
	assert.Equal(t, "resync", snap[0].Kind)
	assert.Equal(t, uint8(3), snap[0].VCID)
}

func TestRecordEvictsOldestWhenFull(t *testing.T) {
	r := NewRecorder(2)

	r.Record("resync", 0, []byte{0x00})
	r.Record("resync", 1, []byte{0x01})
	r.Record("resync", 2, []byte{0x02})

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, uint8(1), snap[0].VCID)
	assert.Equal(t, uint8(2), snap[1].VCID)
}

func TestHashHeaderIsDeterministic(t *testing.T) {
	headers := []byte{0xAA, 0xBB, 0xCC}
	assert.Equal(t, HashHeader(headers), HashHeader(append([]byte{}, headers...)))
}
