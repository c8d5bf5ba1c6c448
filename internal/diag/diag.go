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

// Package diag keeps a bounded ring of recent anomaly events (FHP/length
// resynchronizations, malformed packet lengths) for operator-facing
// diagnostics, deduplicated by a hash of the offending frame's primary and
// secondary header bytes.
package diag

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/valyala/bytebufferpool"

	"github.com/packetd/ccsds/internal/fasttime"
)

// Event describes one anomaly observed while processing a frame.
type Event struct {
	Kind        string
	VCID        uint8
	HeaderHash  uint64
	Count       int
	LastSeenUTC int64
}

// Recorder is a fixed-capacity, dedup-by-hash ring of recent Events. The
// zero value is not usable; construct one with NewRecorder.
type Recorder struct {
	mu       sync.Mutex
	capacity int
	order    []uint64
	byHash   map[uint64]*Event
}

// NewRecorder returns a Recorder holding at most capacity distinct events.
// Once full, the event that was first recorded earliest is evicted to make
// room for a new one; repeated occurrences of an already-tracked header
// only bump its Count and do not change its place in the eviction order.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = 1
	}
	return &Recorder{
		capacity: capacity,
		byHash:   make(map[uint64]*Event, capacity),
	}
}

// HashHeader returns a stable hash of a frame's primary+secondary header
// bytes, used as the dedup key for Record.
func HashHeader(headers []byte) uint64 {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.Write(headers)
	return xxhash.Sum64(buf.Bytes())
}

// Record notes one occurrence of kind for vcid's frame headers. Calling it
// repeatedly with the same headers increments that event's Count instead
// of growing the ring.
func (r *Recorder) Record(kind string, vcid uint8, headers []byte) {
	h := HashHeader(headers)

	r.mu.Lock()
	defer r.mu.Unlock()

	if ev, ok := r.byHash[h]; ok {
		ev.Count++
		ev.LastSeenUTC = fasttime.UnixTimestamp()
		return
	}

	if len(r.order) >= r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.byHash, oldest)
	}

	r.byHash[h] = &Event{Kind: kind, VCID: vcid, HeaderHash: h, Count: 1, LastSeenUTC: fasttime.UnixTimestamp()}
	r.order = append(r.order, h)
}

// Snapshot returns a copy of every currently tracked event, oldest first.
func (r *Recorder) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, 0, len(r.order))
	for _, h := range r.order {
		out = append(out, *r.byHash[h])
	}
	return out
}
