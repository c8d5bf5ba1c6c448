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

// Package bitfield extracts unsigned integer fields at arbitrary bit
// offsets from a big-endian byte buffer.
//
// CCSDS primary headers and space-packet headers pack fields (VCID, FHP,
// APID) across byte boundaries; the frame parser reads VCID and FHP
// through ReadUint, while the packet package decodes its byte-aligned
// header fields with plain shifts and masks.
package bitfield

import "github.com/pkg/errors"

// ErrOutOfRange is returned when the requested bit span exceeds the buffer.
var ErrOutOfRange = errors.New("bitfield: bit span exceeds buffer length")

// ReadUint reads bitCount bits (1..64) starting at bitOffset from buf,
// MSB-first, and returns them right-justified in a uint64.
//
// bitOffset counts from the start of buf: byte index is bitOffset/8, and
// bit 0 of each byte is its most significant bit.
func ReadUint(buf []byte, bitOffset, bitCount int) (uint64, error) {
	if bitCount <= 0 || bitCount > 64 {
		return 0, errors.Errorf("bitfield: invalid bitCount %d", bitCount)
	}
	if bitOffset < 0 || bitOffset+bitCount > 8*len(buf) {
		return 0, ErrOutOfRange
	}

	var v uint64
	remaining := bitCount
	pos := bitOffset
	for remaining > 0 {
		byteIdx := pos / 8
		bitInByte := pos % 8
		take := 8 - bitInByte
		if take > remaining {
			take = remaining
		}

		shift := 8 - bitInByte - take
		mask := byte((1 << take) - 1)
		bits := (buf[byteIdx] >> shift) & mask

		v = (v << take) | uint64(bits)
		pos += take
		remaining -= take
	}
	return v, nil
}

// MustReadUint is ReadUint without the error return, for call sites that
// have already validated the buffer length (e.g. a fixed-size frame whose
// total length was checked once at the call boundary).
func MustReadUint(buf []byte, bitOffset, bitCount int) uint64 {
	v, err := ReadUint(buf, bitOffset, bitCount)
	if err != nil {
		panic(err)
	}
	return v
}
