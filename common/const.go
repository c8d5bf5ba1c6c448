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

package common

const (
	// App is the application name, used as the prometheus metric namespace.
	App = "ccsds_demux"

	// Version is the application version.
	Version = "v0.1.0"

	// ReadWriteBlockSize is the default chunk size used to read from a
	// byte-oriented transport (tcpclient).
	ReadWriteBlockSize = 4096
)
