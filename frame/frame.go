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

// Package frame parses one fixed-size CCSDS TM Transfer Frame (CCSDS
// 132.0-B) primary header and isolates its headers / data-field / trailer
// regions.
//
// Wire layout:
//
//	| Primary Header (6) | Secondary Header (0..N) | Data Field (M) | OCF (0/4) | FECF (0/2) |
//
// Primary header bits of interest (big-endian, MSB-first):
//
//	bits 12..14 (3 bits)  Virtual Channel ID
//	bits 37..47 (11 bits) First Header Pointer, i.e. low 11 bits of bytes 4-5
package frame

import (
	"github.com/pkg/errors"

	"github.com/packetd/ccsds/bitfield"
)

const (
	// FHPIdleFrame is the sentinel FHP value marking an idle frame: the
	// whole frame is discarded, no state changes.
	FHPIdleFrame = 0x7FE

	// FHPNoPacketStart is the sentinel FHP value meaning no space-packet
	// header begins anywhere in this frame's data field.
	FHPNoPacketStart = 0x7FF

	vcidBitOffset = 12
	vcidBitCount  = 3
	fhpBitOffset  = 37
	fhpBitCount   = 11
)

// ErrShortFrame is returned when the supplied buffer is not exactly
// Layout.Length bytes.
var ErrShortFrame = errors.New("frame: buffer is not a whole frame")

// Layout describes the byte geometry of a fixed-size transfer frame, derived
// once from a Config and reused for every frame on the wire.
type Layout struct {
	Length            int
	HeadersLength     int
	DataFieldLength   int
	TrailerLength     int
}

// NewLayout computes Layout from the frame's total length, secondary-header
// length and trailer flags.
func NewLayout(frameLength, secondaryHeaderLength int, hasOCF, hasFECF bool) Layout {
	headers := 6 + secondaryHeaderLength
	trailer := 0
	if hasOCF {
		trailer += 4
	}
	if hasFECF {
		trailer += 2
	}
	return Layout{
		Length:          frameLength,
		HeadersLength:   headers,
		DataFieldLength: frameLength - headers - trailer,
		TrailerLength:   trailer,
	}
}

// Frame is one parsed transfer frame: the primary+secondary headers (kept
// for optional packet prefixing) and the data-field slice.
type Frame struct {
	FHP         int
	VCID        uint8
	Headers     []byte
	DataField   []byte
}

// IsIdle reports whether FHP marks this frame as an idle frame (the whole
// frame must be discarded with no state change).
func (f Frame) IsIdle() bool {
	return f.FHP == FHPIdleFrame
}

// HasNoPacketStart reports whether FHP marks this frame's data field as
// pure continuation, with no packet header starting within it.
func (f Frame) HasNoPacketStart() bool {
	return f.FHP == FHPNoPacketStart
}

// Parse decodes one whole frame of exactly layout.Length bytes.
//
// Headers is a fresh copy of buf's header bytes (needed for packet
// prefixing, and to survive the caller reusing its accumulator buffer);
// DataField aliases buf's backing array, since callers only ever consume it
// front-to-back within the same call.
func Parse(buf []byte, layout Layout) (Frame, error) {
	if len(buf) != layout.Length {
		return Frame{}, ErrShortFrame
	}

	fhp, err := bitfield.ReadUint(buf, fhpBitOffset, fhpBitCount)
	if err != nil {
		return Frame{}, errors.Wrap(err, "frame: decode FHP")
	}
	vcid, err := bitfield.ReadUint(buf, vcidBitOffset, vcidBitCount)
	if err != nil {
		return Frame{}, errors.Wrap(err, "frame: decode VCID")
	}

	headers := make([]byte, layout.HeadersLength)
	copy(headers, buf[:layout.HeadersLength])

	dataField := buf[layout.HeadersLength : layout.HeadersLength+layout.DataFieldLength]

	return Frame{
		FHP:       int(fhp),
		VCID:      uint8(vcid),
		Headers:   headers,
		DataField: dataField,
	}, nil
}
