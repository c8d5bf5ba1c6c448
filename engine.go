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
	"github.com/packetd/ccsds/frame"
	"github.com/packetd/ccsds/packet"
	"github.com/packetd/ccsds/vchan"
)

// numVirtualChannels is fixed by the 3-bit VCID field (CCSDS 132.0-B).
const numVirtualChannels = 8

// AnomalyFunc is notified whenever processFrame observes something worth
// a diagnostic record: an FHP/length resynchronization or a malformed
// packet length. kind is "resync" or "malformed"; headers are the
// originating frame's primary+secondary header bytes.
type AnomalyFunc func(kind string, vcid uint8, headers []byte)

// Engine is a single-threaded, fully synchronous protocol instance: one
// byte accumulator plus eight independent VirtualChannel reassemblers. It
// has no internal goroutines, timers, or I/O; the host drives it entirely
// through Consume.
type Engine struct {
	cfg      *Config
	acc      []byte
	accFront int

	channels [numVirtualChannels]*vchan.Channel

	stats     Stats
	onAnomaly AnomalyFunc
}

// NewEngine constructs an Engine for cfg. The Engine is immediately usable;
// Reset returns it to this same just-constructed state.
func NewEngine(cfg *Config) *Engine {
	e := &Engine{cfg: cfg}
	e.Reset()
	return e
}

// Reset discards all accumulated bytes and per-channel reassembly state.
// Call it on construction (handled by NewEngine) and whenever the host
// re-initializes the underlying byte stream (e.g. a transport reconnect).
func (e *Engine) Reset() {
	e.acc = e.acc[:0]
	e.accFront = 0
	prefixLen := e.cfg.PacketPrefixLength()
	for i := range e.channels {
		if e.channels[i] == nil {
			e.channels[i] = vchan.New(prefixLen)
			continue
		}
		e.channels[i].Reset()
	}
	e.stats = Stats{}
}

// Stats returns a snapshot of the engine's running counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

// SetAnomalyHandler installs f to be called synchronously, from within
// Consume, whenever a resynchronization or a malformed packet length is
// observed. Passing nil disables notification. f must not call back into
// the Engine.
func (e *Engine) SetAnomalyHandler(f AnomalyFunc) {
	e.onAnomaly = f
}

// Consume appends b to the internal accumulator, drains at most one whole
// frame from its front if one is available, and returns exactly one of
// ResultPacket, ResultNeedMore or ResultPassThrough.
//
// Only one frame is ever consumed per call, even when the accumulator
// holds several: callers drain a backlog by invoking Consume repeatedly
// with an empty slice.
func (e *Engine) Consume(b []byte) (Result, error) {
	e.appendAcc(b)

	if e.available() >= e.cfg.FrameLength {
		buf := e.popFrame()
		if err := e.processFrame(buf); err != nil {
			return nil, err
		}
	}

	result := e.emit()
	if _, ok := result.(ResultNeedMore); ok && len(b) == 0 {
		return ResultPassThrough{}, nil
	}
	return result, nil
}

func (e *Engine) available() int {
	return len(e.acc) - e.accFront
}

func (e *Engine) appendAcc(b []byte) {
	if len(b) == 0 {
		return
	}
	// Compact the read offset out once it has drifted far enough to be
	// worth the copy, instead of letting acc grow unboundedly.
	if e.accFront > 0 && e.accFront == len(e.acc) {
		e.acc = e.acc[:0]
		e.accFront = 0
	} else if e.accFront > 4096 {
		e.acc = append(e.acc[:0], e.acc[e.accFront:]...)
		e.accFront = 0
	}
	e.acc = append(e.acc, b...)
}

func (e *Engine) popFrame() []byte {
	buf := e.acc[e.accFront : e.accFront+e.cfg.FrameLength]
	e.accFront += e.cfg.FrameLength
	return buf
}

func (e *Engine) processFrame(buf []byte) error {
	e.stats.FramesConsumed++

	f, err := frame.Parse(buf, e.cfg.layout)
	if err != nil {
		return err
	}

	if f.IsIdle() {
		e.stats.IdleFramesDiscarded++
		return nil
	}

	ch := e.channels[f.VCID]
	resynced, err := ch.Process(f.FHP, f.DataField, f.Headers)
	if err != nil {
		e.stats.MalformedAborts++
		if e.onAnomaly != nil {
			e.onAnomaly("malformed", f.VCID, f.Headers)
		}
		return err
	}
	if resynced {
		e.stats.ResyncEvents++
		if e.onAnomaly != nil {
			e.onAnomaly("resync", f.VCID, f.Headers)
		}
	}
	return nil
}

// emit implements the idle-packet filter: it walks the virtual channels in
// ascending VCID order and returns the first deliverable packet, silently
// discarding idle packets (APID == packet.IdleAPID) along the way unless
// IncludeIdlePackets is set. With IncludeIdlePackets unset, a packet too
// short to hold an APID (fewer than 2 bytes after any prefix) is discarded
// the same way.
func (e *Engine) emit() Result {
	for vcid := 0; vcid < numVirtualChannels; vcid++ {
		ch := e.channels[vcid]
		for {
			buf, ok := ch.Pop()
			if !ok {
				break
			}

			if e.cfg.IncludeIdlePackets {
				e.stats.PacketsEmitted++
				return ResultPacket{Data: buf}
			}

			idle, err := packet.IsIdle(buf[e.cfg.PacketPrefixLength():])
			if err != nil || idle {
				e.stats.IdlePacketsDiscarded++
				continue
			}

			e.stats.PacketsEmitted++
			return ResultPacket{Data: buf}
		}
	}
	return ResultNeedMore{}
}
