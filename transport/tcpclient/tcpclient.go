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

// Package tcpclient is a thin stdlib net.Conn transport: it dials a frame
// source once and hands back whatever bytes arrive on each read, with no
// framing of its own. The demultiplexer core does not care where its
// bytes come from or how they are chunked.
package tcpclient

import (
	"net"
	"time"

	"github.com/packetd/ccsds/common"
)

// Source is a transport.Source backed by one long-lived TCP connection.
type Source struct {
	conn net.Conn
	buf  []byte
}

// Dial connects to addr and returns a Source reading from it. timeout
// bounds the initial connection attempt only; reads block indefinitely.
func Dial(addr string, timeout time.Duration) (*Source, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	return &Source{
		conn: conn,
		buf:  make([]byte, common.ReadWriteBlockSize),
	}, nil
}

// Next blocks until at least one byte is read from the connection and
// returns a copy of it. It returns io.EOF when the peer closes the
// connection.
func (s *Source) Next() ([]byte, error) {
	n, err := s.conn.Read(s.buf)
	if n == 0 {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, s.buf[:n])
	return out, err
}

// Close closes the underlying connection.
func (s *Source) Close() error {
	return s.conn.Close()
}
