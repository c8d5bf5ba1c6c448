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

// Package vchan implements per-virtual-channel space-packet reassembly.
//
// A Channel owns a queue of in-progress/completed packet buffers plus a
// counter of bytes still owed to the queue's tail entry. All eight
// instances of Channel partition the frame stream strictly at the
// frame-dispatch boundary in ccsds.Engine; a Channel itself never touches
// the raw byte accumulator.
package vchan

import (
	"github.com/pkg/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/packetd/ccsds/frame"
	"github.com/packetd/ccsds/packet"
)

// ErrCorruptState signals the one unrecoverable condition in this engine:
// a packet length was requested with fewer than 6 header bytes on hand.
// This indicates an implementation bug, not wire-level data corruption,
// and per the protocol design must abort rather than guess.
var ErrCorruptState = errors.New("vchan: packet length requested with an incomplete header")

// Channel reassembles space packets for one of the eight virtual channels.
type Channel struct {
	// prefixLen is frame_headers_length when prefix_packets is enabled,
	// else 0. It is baked in at construction since it never changes for
	// the lifetime of a Channel.
	prefixLen int

	// queue holds one *bytebufferpool.ByteBuffer per in-progress or
	// completed packet, in emission order. Only queue[len-1] may be
	// incomplete. front is a read index so Pop is O(1) amortized instead
	// of shifting the whole slice on every packet.
	queue []*bytebufferpool.ByteBuffer
	front int

	// pending is pending_bytes_left: > 0 iff the tail entry is
	// incomplete. While the tail has fewer than 6 header bytes, pending
	// counts header bytes still needed; once the header completes it is
	// rewritten to the remaining data-field bytes.
	pending int
}

// New returns a Channel. prefixLen is the number of bytes to prepend
// (copied from the owning frame's headers) to every packet this channel
// assembles; pass 0 when prefix_packets is disabled.
func New(prefixLen int) *Channel {
	return &Channel{prefixLen: prefixLen}
}

// Reset discards all queued state, returning the channel to its
// just-constructed condition.
func (c *Channel) Reset() {
	for i := c.front; i < len(c.queue); i++ {
		bytebufferpool.Put(c.queue[i])
	}
	c.queue = c.queue[:0]
	c.front = 0
	c.pending = 0
}

func (c *Channel) tail() *bytebufferpool.ByteBuffer {
	return c.queue[len(c.queue)-1]
}

func (c *Channel) hasPending() bool {
	return len(c.queue) > c.front && c.pending > 0
}

func (c *Channel) pushEntry(frameHeaders []byte) {
	buf := bytebufferpool.Get()
	if c.prefixLen > 0 {
		buf.Write(frameHeaders[:c.prefixLen])
	}
	c.queue = append(c.queue, buf)
}

// Process dispatches one frame's data field to this channel: the
// continuation phase (handle_continuation) followed by the emission phase
// (store_packets), exactly as described by the reassembler's frame
// processing algorithm. Callers must not invoke Process for idle frames
// (FHP == frame.FHPIdleFrame): those are discarded before any channel is
// selected.
//
// The bool return reports whether a length/FHP disagreement forced a
// recovery truncation this call (for diagnostics/metrics only, it never
// changes what gets stored).
func (c *Channel) Process(fhp int, dataField, frameHeaders []byte) (bool, error) {
	noPacketStart := fhp == frame.FHPNoPacketStart

	if !c.hasPending() {
		if noPacketStart {
			return false, nil
		}
		return false, c.storePackets(dataField[fhp:], frameHeaders)
	}

	var continuation, rest []byte
	if noPacketStart {
		continuation = dataField
	} else {
		continuation = dataField[:fhp]
		rest = dataField[fhp:]
	}

	tail := c.tail()
	tailHeaderLen := tail.Len() - c.prefixLen
	if tailHeaderLen < packet.HeaderLength {
		restOfHeader := c.pending
		if len(continuation) < restOfHeader {
			tail.Write(continuation)
			c.pending = 0
			return true, nil
		}

		tail.Write(continuation[:restOfHeader])
		continuation = continuation[restOfHeader:]

		hdr := tail.Bytes()[c.prefixLen:]
		n, err := packet.Length(hdr)
		if err != nil {
			return false, ErrCorruptState
		}
		c.pending = n - packet.HeaderLength
	}

	if noPacketStart {
		if c.pending < len(continuation) {
			tail.Write(continuation[:c.pending])
			c.pending = 0
			return true, nil
		}
		tail.Write(continuation)
		c.pending -= len(continuation)
		return false, nil
	}

	resynced := c.pending != len(continuation)
	if c.pending < len(continuation) {
		tail.Write(continuation[:c.pending])
	} else {
		// Either length agrees with FHP exactly, or FHP says the packet
		// must end sooner than length claims: FHP wins, and in the second
		// case the packet is cut short.
		tail.Write(continuation)
	}
	c.pending = 0

	if err := c.storePackets(rest, frameHeaders); err != nil {
		return resynced, err
	}
	return resynced, nil
}

// storePackets implements the emission-phase loop: it is only ever called
// with a dataField slice that begins at a packet boundary.
func (c *Channel) storePackets(dataField, frameHeaders []byte) error {
	for len(dataField) > 0 {
		c.pushEntry(frameHeaders)
		tail := c.tail()

		if len(dataField) < packet.HeaderLength {
			tail.Write(dataField)
			c.pending = packet.HeaderLength - len(dataField)
			return nil
		}

		n, err := packet.Length(dataField[:packet.HeaderLength])
		if err != nil {
			return ErrCorruptState
		}

		if n > len(dataField) {
			tail.Write(dataField)
			c.pending = n - len(dataField)
			return nil
		}

		tail.Write(dataField[:n])
		c.pending = 0
		dataField = dataField[n:]
	}
	return nil
}

// Ready reports whether the front of the queue holds a packet that is
// fully assembled and available to pop.
func (c *Channel) Ready() bool {
	if c.front >= len(c.queue) {
		return false
	}
	// The only entry that can be incomplete is the tail.
	if c.front == len(c.queue)-1 && c.pending > 0 {
		return false
	}
	return true
}

// Pop removes and returns the front completed packet's bytes. The returned
// slice is owned by the caller; the pooled buffer backing it is recycled.
func (c *Channel) Pop() ([]byte, bool) {
	if !c.Ready() {
		return nil, false
	}

	buf := c.queue[c.front]
	out := append([]byte(nil), buf.Bytes()...)
	bytebufferpool.Put(buf)
	c.queue[c.front] = nil
	c.front++

	if c.front == len(c.queue) {
		c.queue = c.queue[:0]
		c.front = 0
	}
	return out, true
}
