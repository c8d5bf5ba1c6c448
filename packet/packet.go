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

// Package packet decodes the fixed 6-byte CCSDS Space Packet primary
// header (CCSDS 133.0-B).
//
// Header layout:
//
//	+-------+-------+----------------+------------------+------------------+
//	| Ver   | Type  | APID (11 bits) | Sequence (16b)   | Data Length (16b)|
//	| (3b)  | +Sec  |                |                  | minus one        |
//	|       | (2b)  |                |                  |                  |
//	+-------+-------+----------------+------------------+------------------+
//	  bits 0-2 bits 3-4  bits 5-15      bytes 2-4           bytes 4-6
package packet

import "github.com/pkg/errors"

const (
	// HeaderLength is the fixed size of a space-packet primary header.
	HeaderLength = 6

	// IdleAPID is the 11-bit APID reserved for idle (fill) packets.
	IdleAPID = 0x7FF
)

// ErrShortHeader is returned when hdr is too short for the requested
// field: fewer than HeaderLength bytes for Length, fewer than 2 bytes for
// APID and IsIdle.
//
// Per the protocol design, this is always an internal invariant violation:
// callers must only invoke these helpers once a full header has been
// accumulated.
var ErrShortHeader = errors.New("packet: fewer than 6 header bytes available")

// Length returns the total packet length (header + data) encoded by hdr's
// first 6 bytes: 6 + (data length field + 1).
func Length(hdr []byte) (int, error) {
	if len(hdr) < HeaderLength {
		return 0, ErrShortHeader
	}
	dataLen := int(hdr[4])<<8 | int(hdr[5])
	return HeaderLength + dataLen + 1, nil
}

// APID returns the 11-bit Application Process Identifier from the first
// two header bytes (bits 5..15).
func APID(hdr []byte) (uint16, error) {
	if len(hdr) < 2 {
		return 0, ErrShortHeader
	}
	v := uint16(hdr[0]&0x07)<<8 | uint16(hdr[1])
	return v, nil
}

// IsIdle reports whether hdr's APID equals the idle pattern (11 bits set).
func IsIdle(hdr []byte) (bool, error) {
	apid, err := APID(hdr)
	if err != nil {
		return false, err
	}
	return apid == IdleAPID, nil
}
