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

// Package ccsds implements a streaming demultiplexer that extracts CCSDS
// Space Packets (CCSDS 133.0-B) from a continuous byte stream of
// fixed-size CCSDS TM Transfer Frames (CCSDS 132.0-B).
package ccsds

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/packetd/ccsds/frame"
)

// Config is an immutable description of one transfer-frame layout. Build
// one with NewConfig and share it across every Engine decoding the same
// kind of frame.
type Config struct {
	FrameLength           int
	SecondaryHeaderLength int
	HasOCF                bool
	HasFECF               bool
	PrefixPackets         bool
	IncludeIdlePackets    bool

	layout frame.Layout
}

// NewConfig validates and constructs a Config. All invariant violations
// are collected and returned together via a *multierror.Error, rather than
// failing fast on the first one, so a misconfigured deployment reports
// every problem in one pass instead of one fix-rerun cycle at a time.
func NewConfig(frameLength, secondaryHeaderLength int, hasOCF, hasFECF, prefixPackets, includeIdlePackets bool) (*Config, error) {
	layout := frame.NewLayout(frameLength, secondaryHeaderLength, hasOCF, hasFECF)

	var result *multierror.Error
	if secondaryHeaderLength < 0 {
		result = multierror.Append(result, errors.Errorf("secondaryHeaderLength must be >= 0, got %d", secondaryHeaderLength))
	}
	if layout.HeadersLength < 6 {
		result = multierror.Append(result, errors.Errorf("frame_headers_length must be >= 6, got %d", layout.HeadersLength))
	}
	if layout.TrailerLength < 0 {
		result = multierror.Append(result, errors.Errorf("frame_trailer_length must be >= 0, got %d", layout.TrailerLength))
	}
	if layout.DataFieldLength < 1 {
		result = multierror.Append(result, errors.Errorf("frame_data_field_length must be >= 1, got %d (frameLength=%d)", layout.DataFieldLength, frameLength))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, errors.Wrap(err, "ccsds: invalid configuration")
	}

	return &Config{
		FrameLength:           frameLength,
		SecondaryHeaderLength: secondaryHeaderLength,
		HasOCF:                hasOCF,
		HasFECF:               hasFECF,
		PrefixPackets:         prefixPackets,
		IncludeIdlePackets:    includeIdlePackets,
		layout:                layout,
	}, nil
}

// FrameHeadersLength returns 6 + SecondaryHeaderLength.
func (c *Config) FrameHeadersLength() int { return c.layout.HeadersLength }

// FrameTrailerLength returns 4·HasOCF + 2·HasFECF.
func (c *Config) FrameTrailerLength() int { return c.layout.TrailerLength }

// FrameDataFieldLength returns FrameLength - FrameHeadersLength - FrameTrailerLength.
func (c *Config) FrameDataFieldLength() int { return c.layout.DataFieldLength }

// PacketPrefixLength returns FrameHeadersLength() when PrefixPackets is
// set, else 0.
func (c *Config) PacketPrefixLength() int {
	if c.PrefixPackets {
		return c.layout.HeadersLength
	}
	return 0
}
