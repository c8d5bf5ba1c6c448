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

// Package transport defines the byte-source boundary the demultiplexer
// core never touches directly: something that hands the agent raw bytes
// to feed into (*ccsds.Engine).Consume.
package transport

import "io"

// Source yields successive chunks of raw transfer-frame bytes. Next
// returns io.EOF once the source is exhausted; any other error aborts the
// read loop. The returned slice is owned by the caller until the next
// call to Next.
type Source interface {
	Next() ([]byte, error)
	Close() error
}

var _ io.Closer = Source(nil)
