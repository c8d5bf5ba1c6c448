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

// Package pcapfile reads an offline pcap capture of CCSDS transfer frames
// carried as UDP payloads and replays those payloads as a transport.Source,
// using the pure-Go pcapgo reader, no cgo or libpcap required.
package pcapfile

import (
	"io"
	"os"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"
	"github.com/pkg/errors"

	"github.com/packetd/ccsds/logger"
)

// Source replays UDP payload bytes from a pcap capture file.
type Source struct {
	f          *os.File
	reader     *pcapgo.Reader
	firstLayer gopacket.LayerType
}

// Open opens path and prepares to replay its packets' UDP payloads.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "pcapfile: open %s", path)
	}

	r, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "pcapfile: read header of %s", path)
	}

	return &Source{
		f:          f,
		reader:     r,
		firstLayer: r.LinkType().LayerType(),
	}, nil
}

// Next returns the UDP payload of the next packet in the capture whose
// decode chain includes a UDP layer, skipping anything else (ARP, ICMP,
// malformed frames). It returns io.EOF once the capture is exhausted.
func (s *Source) Next() ([]byte, error) {
	for {
		data, _, err := s.reader.ReadPacketData()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, errors.Wrap(err, "pcapfile: read packet")
		}

		pkt := gopacket.NewPacket(data, s.firstLayer, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
		udpLayer := pkt.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			logger.Debugf("pcapfile: skipping packet with no UDP layer")
			continue
		}

		udp, ok := udpLayer.(*layers.UDP)
		if !ok || len(udp.Payload) == 0 {
			continue
		}

		out := make([]byte, len(udp.Payload))
		copy(out, udp.Payload)
		return out, nil
	}
}

// Close releases the underlying file handle.
func (s *Source) Close() error {
	return s.f.Close()
}
