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

// Stats is a point-in-time snapshot of one Engine's running counters. It
// is cheap to copy and safe to read at any time between Consume calls.
type Stats struct {
	// FramesConsumed counts every whole frame drained from the
	// accumulator, idle or not.
	FramesConsumed uint64

	// IdleFramesDiscarded counts frames whose FHP was the idle sentinel
	// (0x7FE); they never reach a virtual channel.
	IdleFramesDiscarded uint64

	// PacketsEmitted counts packets handed back to the caller as
	// ResultPacket.
	PacketsEmitted uint64

	// IdlePacketsDiscarded counts complete packets dropped because
	// IncludeIdlePackets is false: those whose APID was the idle pattern,
	// and those too short for their APID to be read.
	IdlePacketsDiscarded uint64

	// ResyncEvents counts continuation-phase calls where the FHP and the
	// space-packet length field disagreed about where a packet ends.
	ResyncEvents uint64

	// MalformedAborts counts the internal invariant violation described
	// by ErrCorruptState: a packet length was requested with fewer than
	// 6 header bytes on hand.
	MalformedAborts uint64
}
