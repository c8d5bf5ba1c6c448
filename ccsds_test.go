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

package ccsds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustConfig(t *testing.T, frameLength, secondaryHeaderLength int, hasOCF, hasFECF, prefixPackets, includeIdlePackets bool) *Config {
	t.Helper()
	cfg, err := NewConfig(frameLength, secondaryHeaderLength, hasOCF, hasFECF, prefixPackets, includeIdlePackets)
	require.NoError(t, err)
	return cfg
}

// drain feeds a whole byte stream through an Engine one frame-worth at a
// time, then keeps calling Consume with an empty slice until it stops
// yielding packets, and returns every emitted packet in order.
func drain(e *Engine, frames ...[]byte) ([][]byte, error) {
	var out [][]byte
	consume := func(b []byte) error {
		for {
			res, err := e.Consume(b)
			b = nil // only feed new bytes once
			if err != nil {
				return err
			}
			switch v := res.(type) {
			case ResultPacket:
				out = append(out, v.Data)
				continue
			case ResultNeedMore, ResultPassThrough:
				return nil
			}
		}
	}
	for _, f := range frames {
		if err := consume(f); err != nil {
			return out, err
		}
	}
	return out, nil
}

func TestScenario1_SinglePacketFillsDataField(t *testing.T) {
	cfg := mustConfig(t, 14, 0, false, false, false, false)
	e := NewEngine(cfg)

	f := []byte{0x02, 0x02, 0x03, 0x04, 0x00, 0x00, 0x05, 0x06, 0x07, 0x08, 0x00, 0x00, 0xDA, 0xFF}
	// data field is bytes [6:14): 05 06 07 08 00 00 DA FF -> 8 bytes, header says length field=0 -> total packet length 7
	out, err := drain(e, f)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []byte{0x05, 0x06, 0x07, 0x08, 0x00, 0x00, 0xDA}, out[0])
}

func TestScenario2_PacketSpansTwoFrames(t *testing.T) {
	cfg := mustConfig(t, 14, 0, false, false, false, false)
	e := NewEngine(cfg)

	// Frame A: FHP=0 (nothing pending yet, packet starts immediately),
	// data field (8 bytes) = 05 06 07 08 00 02 DA DA. Header says data
	// length field = 2 -> total packet length 9, so 1 byte is still owed.
	frameA := []byte{0x01, 0x02, 0x03, 0x04, 0x00, 0x00, 0x05, 0x06, 0x07, 0x08, 0x00, 0x02, 0xDA, 0xDA}
	// Frame B: FHP=1 (bytes4-5=00 01): 1 continuation byte closes packet 1,
	// then packet 2 starts. data field = DA 14 15 16 17 00 00 DA
	frameB := []byte{0x10, 0x02, 0x12, 0x13, 0x00, 0x01, 0xDA, 0x14, 0x15, 0x16, 0x17, 0x00, 0x00, 0xDA}

	out, err := drain(e, frameA, frameB)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []byte{0x05, 0x06, 0x07, 0x08, 0x00, 0x02, 0xDA, 0xDA, 0xDA}, out[0])
	assert.Equal(t, []byte{0x14, 0x15, 0x16, 0x17, 0x00, 0x00, 0xDA}, out[1])
}

func TestScenario3_ThreePacketsInOneFrame(t *testing.T) {
	// frame_data_field_length = 27 -> frameLength = 6 + 27 = 33
	cfg := mustConfig(t, 33, 0, false, false, false, false)
	e := NewEngine(cfg)

	f := append([]byte{0x01, 0x02, 0x03, 0x04, 0x00, 0x00},
		append([]byte{0x08, 0x09, 0x10, 0x11, 0x00, 0x01, 0xDA, 0xDA},
			append([]byte{0x12, 0x13, 0x14, 0x15, 0x00, 0x03, 0xDA, 0xDA, 0xDA, 0xDA},
				[]byte{0x16, 0x17, 0x18, 0x19, 0x00, 0x02, 0xDA, 0xDA, 0xDA}...)...)...)
	require.Len(t, f, 33)

	out, err := drain(e, f)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Len(t, out[0], 8)
	assert.Len(t, out[1], 10)
	assert.Len(t, out[2], 9)
}

func TestScenario4_IdlePacketDiscardedBetweenTwoPackets(t *testing.T) {
	cfg := mustConfig(t, 33, 0, false, false, false, false)
	e := NewEngine(cfg)

	f := append([]byte{0x01, 0x02, 0x03, 0x04, 0x00, 0x00},
		append([]byte{0x05, 0x06, 0x07, 0x08, 0x00, 0x01, 0xDA, 0xDA},
			append([]byte{0x3F, 0xFF, 0x09, 0x0A, 0x00, 0x02, 0x5A, 0x5A, 0x5A},
				[]byte{0x0B, 0x0C, 0x0D, 0x0E, 0x00, 0x03, 0xDA, 0xDA, 0xDA, 0xDA}...)...)...)
	require.Len(t, f, 33)

	out, err := drain(e, f)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Len(t, out[0], 8)
	assert.Len(t, out[1], 10)
}

func TestScenario5_FHPNoPacketStartNoPending(t *testing.T) {
	cfg := mustConfig(t, 14, 0, false, false, false, false)
	e := NewEngine(cfg)

	f := []byte{0x01, 0x02, 0x03, 0x04, 0x07, 0xFF, 0xDA, 0xDA, 0xDA, 0xDA, 0xDA, 0xDA, 0xDA, 0xDA}
	out, err := drain(e, f)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestScenario6_LengthFHPDisagreementFHPWins(t *testing.T) {
	cfg := mustConfig(t, 14, 0, false, false, false, false)
	e := NewEngine(cfg)

	// Frame A: header claims data length = 4 (packet_length = 6+4+1 = 11),
	// data field only holds 8 bytes, so 3 more bytes are owed going in.
	frameA := []byte{0x01, 0x02, 0x03, 0x04, 0x00, 0x00, 0x05, 0x06, 0x07, 0x08, 0x00, 0x04, 0xDA, 0xDA}
	// Frame B: FHP=1, so the pending packet must end at offset 1 of this
	// frame's data field, even though 3 bytes were still owed.
	frameB := []byte{0x10, 0x02, 0x11, 0x12, 0x00, 0x01, 0xDA, 0x13, 0x14, 0x15, 0x16, 0x00, 0x00, 0xDA}

	out, err := drain(e, frameA, frameB)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []byte{0x05, 0x06, 0x07, 0x08, 0x00, 0x04, 0xDA, 0xDA, 0xDA}, out[0])
	assert.Equal(t, []byte{0x13, 0x14, 0x15, 0x16, 0x00, 0x00, 0xDA}, out[1])

	assert.Equal(t, uint64(1), e.Stats().ResyncEvents)
}

func TestScenario7_PrefixMode(t *testing.T) {
	// secondaryHeaderLength=2, OCF present -> headers=8, trailer=4
	// frameLength chosen so frame A carries the same data field as scenario 2.
	cfg := mustConfig(t, 6+2+8+4, 2, true, false, true, false)
	e := NewEngine(cfg)

	frameAHeaders := []byte{0x01, 0x02, 0x03, 0x04, 0x00, 0x00, 0xAA, 0xBB}
	frameAData := []byte{0x05, 0x06, 0x07, 0x08, 0x00, 0x02, 0xDA, 0xDA}
	frameA := append(append([]byte{}, frameAHeaders...), append(frameAData, 0, 0, 0, 0)...)
	require.Len(t, frameA, cfg.FrameLength)

	frameBHeaders := []byte{0x10, 0x02, 0x12, 0x13, 0x00, 0x01, 0xCC, 0xDD}
	frameBData := []byte{0xDA, 0x14, 0x15, 0x16, 0x17, 0x00, 0x00, 0xDA}
	frameB := append(append([]byte{}, frameBHeaders...), append(frameBData, 0, 0, 0, 0)...)
	require.Len(t, frameB, cfg.FrameLength)

	out, err := drain(e, frameA, frameB)
	require.NoError(t, err)
	require.Len(t, out, 2)

	expected0 := append(append([]byte{}, frameAHeaders...), []byte{0x05, 0x06, 0x07, 0x08, 0x00, 0x02, 0xDA, 0xDA, 0xDA}...)
	assert.Equal(t, expected0, out[0])
	assert.True(t, len(out[0]) >= cfg.FrameHeadersLength()+6)
	assert.Equal(t, frameAHeaders, out[0][:cfg.FrameHeadersLength()])
}

func TestIdleFrameNoStateChange(t *testing.T) {
	cfg := mustConfig(t, 14, 0, false, false, false, false)
	e := NewEngine(cfg)

	idleFrame := make([]byte, 14)
	idleFrame[4] = 0x07
	idleFrame[5] = 0xFE

	out, err := drain(e, idleFrame)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, uint64(1), e.Stats().FramesConsumed)
	assert.Equal(t, uint64(1), e.Stats().IdleFramesDiscarded)
}

// TestByteAtATimeMatchesWholeFrame exercises the round-trip property: any
// partition of the same byte stream yields the same emitted packets.
func TestByteAtATimeMatchesWholeFrame(t *testing.T) {
	cfg := mustConfig(t, 14, 0, false, false, false, false)

	frameA := []byte{0x01, 0x02, 0x03, 0x04, 0x00, 0x01, 0x05, 0x06, 0x07, 0x08, 0x00, 0x02, 0xDA, 0xDA}
	frameB := []byte{0x10, 0x02, 0x12, 0x13, 0x00, 0x01, 0xDA, 0x14, 0x15, 0x16, 0x17, 0x00, 0x00, 0xDA}
	all := append(append([]byte{}, frameA...), frameB...)

	whole := NewEngine(cfg)
	wantOut, err := drain(whole, frameA, frameB)
	require.NoError(t, err)

	byteAtATime := NewEngine(cfg)
	var gotOut [][]byte
	for _, b := range all {
		res, err := byteAtATime.Consume([]byte{b})
		require.NoError(t, err)
		if p, ok := res.(ResultPacket); ok {
			gotOut = append(gotOut, p.Data)
		}
	}
	for {
		res, err := byteAtATime.Consume(nil)
		require.NoError(t, err)
		p, ok := res.(ResultPacket)
		if !ok {
			break
		}
		gotOut = append(gotOut, p.Data)
	}

	assert.Equal(t, wantOut, gotOut)
}

func TestIncludeIdlePackets(t *testing.T) {
	cfg := mustConfig(t, 33, 0, false, false, false, true)
	e := NewEngine(cfg)

	f := append([]byte{0x01, 0x02, 0x03, 0x04, 0x00, 0x00},
		append([]byte{0x05, 0x06, 0x07, 0x08, 0x00, 0x01, 0xDA, 0xDA},
			append([]byte{0x3F, 0xFF, 0x09, 0x0A, 0x00, 0x02, 0x5A, 0x5A, 0x5A},
				[]byte{0x0B, 0x0C, 0x0D, 0x0E, 0x00, 0x03, 0xDA, 0xDA, 0xDA, 0xDA}...)...)...)

	out, err := drain(e, f)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Len(t, out[1], 9) // the idle packet, kept this time
}

func TestNewConfigRejectsInvalidLayout(t *testing.T) {
	_, err := NewConfig(5, 0, false, false, false, false)
	assert.Error(t, err)

	_, err = NewConfig(14, -1, false, false, false, false)
	assert.Error(t, err)
}
