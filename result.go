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

// Result is the tagged outcome of one Consume call: exactly one of
// ResultPacket, ResultNeedMore or ResultPassThrough.
type Result interface {
	isResult()
}

// ResultPacket carries one fully reassembled, ready-to-deliver space
// packet (with its prefix bytes, if PrefixPackets is set).
type ResultPacket struct {
	Data []byte
}

func (ResultPacket) isResult() {}

// ResultNeedMore means no packet is ready and more bytes must be fed to
// Consume before trying again.
type ResultNeedMore struct{}

func (ResultNeedMore) isResult() {}

// ResultPassThrough is returned instead of ResultNeedMore when Consume was
// called with zero input bytes (a caller draining the engine) and nothing
// was ready to emit. It lets a caller chained behind another protocol
// forward an empty delivery downstream instead of treating the call as a
// genuine request for more data.
type ResultPassThrough struct{}

func (ResultPassThrough) isResult() {}
