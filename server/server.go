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

// Package server exposes the demultiplexer's operational HTTP surface:
// prometheus metrics and a liveness probe.
package server

import (
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/packetd/ccsds/confengine"
	"github.com/packetd/ccsds/logger"
)

// Config describes whether and where the HTTP server listens.
type Config struct {
	Enabled bool          `config:"enabled"`
	Address string        `config:"address"`
	Timeout time.Duration `config:"timeout"`
}

// Server wraps a gorilla/mux router behind an http.Server.
type Server struct {
	config Config
	router *mux.Router
	server *http.Server
}

// New builds a Server from conf's "server" section. It returns a nil
// Server (and a nil error) when the section is absent or disabled;
// callers must check for nil before calling ListenAndServe.
func New(conf *confengine.Config) (*Server, error) {
	if !conf.Has("server") {
		return nil, nil
	}
	var config Config
	if err := conf.UnpackChild("server", &config); err != nil {
		return nil, err
	}
	if !config.Enabled {
		return nil, nil
	}

	router := mux.NewRouter()
	s := &Server{
		config: config,
		router: router,
		server: &http.Server{
			Handler:      router,
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
		},
	}
	s.RegisterGetRoute("/healthz", s.handleHealthz)
	return s, nil
}

// ListenAndServe blocks serving HTTP on Config.Address.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	logger.Infof("server listening on %s", s.config.Address)
	return s.server.Serve(l)
}

// RegisterGetRoute attaches f to a GET route. Used by the agent to wire
// /metrics and /diag alongside the built-in /healthz.
func (s *Server) RegisterGetRoute(path string, f http.HandlerFunc) {
	s.router.Methods(http.MethodGet).Path(path).HandlerFunc(f)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
