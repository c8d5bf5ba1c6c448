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

// Package agent wires the demultiplexer core to a transport, an HTTP
// metrics surface, and the operational lifecycle (start/stop/reload) that
// a long-running process needs around it.
package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/packetd/ccsds"
	"github.com/packetd/ccsds/common"
	"github.com/packetd/ccsds/confengine"
	"github.com/packetd/ccsds/internal/diag"
	"github.com/packetd/ccsds/internal/rescue"
	"github.com/packetd/ccsds/internal/runid"
	"github.com/packetd/ccsds/logger"
	"github.com/packetd/ccsds/server"
	"github.com/packetd/ccsds/transport"
	"github.com/packetd/ccsds/transport/pcapfile"
	"github.com/packetd/ccsds/transport/tcpclient"
)

// diagCapacity bounds how many distinct anomalous headers the agent's
// diag.Recorder remembers at once, scaled with common.Concurrency() since
// busier hosts see a proportionally wider spread of virtual channels.
func diagCapacity() int {
	return common.Concurrency() * 32
}

// DemuxConfig maps directly onto ccsds.NewConfig's constructor arguments.
type DemuxConfig struct {
	FrameLength           int  `config:"frameLength"`
	SecondaryHeaderLength int  `config:"secondaryHeaderLength"`
	HasOCF                bool `config:"hasOCF"`
	HasFECF               bool `config:"hasFECF"`
	PrefixPackets         bool `config:"prefixPackets"`
	IncludeIdlePackets    bool `config:"includeIdlePackets"`
}

// TransportConfig selects and configures exactly one byte source.
type TransportConfig struct {
	PcapFile    string        `config:"pcapFile"`
	TCPAddress  string        `config:"tcpAddress"`
	DialTimeout time.Duration `config:"dialTimeout"`
}

func (t TransportConfig) open() (transport.Source, error) {
	switch {
	case t.PcapFile != "":
		return pcapfile.Open(t.PcapFile)
	case t.TCPAddress != "":
		timeout := t.DialTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		return tcpclient.Dial(t.TCPAddress, timeout)
	default:
		return nil, errors.New("agent: transport requires either pcapFile or tcpAddress")
	}
}

// Config is the top-level, YAML-unpackable agent configuration.
type Config struct {
	Demux     DemuxConfig     `config:"demux"`
	Transport TransportConfig `config:"transport"`

	// Extra carries deployment-specific tags (site name, spacecraft ID,
	// ground station) that have no fixed schema of their own; they are
	// attached to startup logging only, never consulted by the core.
	Extra common.Options `config:"extra"`
}

// Agent owns one Engine, its transport, and the HTTP server exposing its
// metrics, with a Start/Stop/Reload lifecycle.
type Agent struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg       Config
	buildInfo common.BuildInfo
	runID     string

	engine *ccsds.Engine
	source transport.Source
	svr    *server.Server
	diag   *diag.Recorder
}

func setupLogger(conf *confengine.Config) error {
	var opts logger.Options
	if conf.Has("logger") {
		if err := conf.UnpackChild("logger", &opts); err != nil {
			return err
		}
	}
	if opts.Filename == "" {
		opts.Filename = "ccsds-demux.log"
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 10
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 7
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 100
	}
	logger.SetOptions(opts)
	return nil
}

// New builds an Agent from conf. It requires a "demux" section and a
// "transport" section; "server" and "logger" are optional.
func New(conf *confengine.Config, buildInfo common.BuildInfo) (*Agent, error) {
	if err := setupLogger(conf); err != nil {
		return nil, err
	}

	var cfg Config
	if err := conf.UnpackChild("demux", &cfg.Demux); err != nil {
		return nil, errors.Wrap(err, "agent: unpack demux config")
	}
	if err := conf.UnpackChild("transport", &cfg.Transport); err != nil {
		return nil, errors.Wrap(err, "agent: unpack transport config")
	}
	if conf.Has("extra") {
		cfg.Extra = common.NewOptions()
		if err := conf.UnpackChild("extra", &cfg.Extra); err != nil {
			return nil, errors.Wrap(err, "agent: unpack extra config")
		}
		logger.Infof("agent: extra tags: %v", cfg.Extra)
	}

	demuxCfg, err := ccsds.NewConfig(
		cfg.Demux.FrameLength,
		cfg.Demux.SecondaryHeaderLength,
		cfg.Demux.HasOCF,
		cfg.Demux.HasFECF,
		cfg.Demux.PrefixPackets,
		cfg.Demux.IncludeIdlePackets,
	)
	if err != nil {
		return nil, err
	}

	source, err := cfg.Transport.open()
	if err != nil {
		return nil, err
	}

	svr, err := server.New(conf)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &Agent{
		ctx:       ctx,
		cancel:    cancel,
		cfg:       cfg,
		buildInfo: buildInfo,
		runID:     runid.New(),
		engine:    ccsds.NewEngine(demuxCfg),
		source:    source,
		svr:       svr,
		diag:      diag.NewRecorder(diagCapacity()),
	}
	a.engine.SetAnomalyHandler(a.diag.Record)
	return a, nil
}

func (a *Agent) setupServerRoutes() {
	if a.svr == nil {
		return
	}
	a.svr.RegisterGetRoute("/metrics", func(w http.ResponseWriter, r *http.Request) {
		a.recordMetrics()
		promhttp.Handler().ServeHTTP(w, r)
	})
	a.svr.RegisterGetRoute("/diag", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a.diag.Snapshot())
	})
}

// Start launches the HTTP server (if configured) and the read loop in
// background goroutines, then returns immediately.
func (a *Agent) Start() error {
	a.setupServerRoutes()

	if a.svr != nil {
		go func() {
			defer rescue.HandleCrash()
			err := a.svr.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("failed to start server: %v", err)
			}
		}()
	}

	go func() {
		defer rescue.HandleCrash()
		a.readLoop()
	}()

	return nil
}

// Stop tears down the read loop and releases the transport.
func (a *Agent) Stop() {
	a.cancel()
	if err := a.source.Close(); err != nil {
		logger.Debugf("agent: close transport: %v", err)
	}
}

// Reload re-applies logger configuration from a freshly loaded conf.
// Demux and transport configuration are immutable for an Agent's lifetime;
// rebuild the Agent to change them.
func (a *Agent) Reload(conf *confengine.Config) error {
	return setupLogger(conf)
}

// RunID returns the identifier attached to this Agent's metrics and logs.
func (a *Agent) RunID() string {
	return a.runID
}

func (a *Agent) readLoop() {
	for {
		select {
		case <-a.ctx.Done():
			return
		default:
		}

		b, err := a.source.Next()
		if err != nil && len(b) == 0 {
			if errors.Is(err, io.EOF) {
				logger.Infof("agent[%s]: transport exhausted", a.runID)
				return
			}
			logger.Errorf("agent[%s]: transport read failed: %v", a.runID, err)
			return
		}

		if consumeErr := a.consume(b); consumeErr != nil {
			logger.Errorf("agent[%s]: %v, resetting engine", a.runID, consumeErr)
			a.engine.Reset()
		}
	}
}

// consume drives the Engine with one transport chunk, draining every
// packet it yields before returning.
func (a *Agent) consume(b []byte) error {
	for {
		result, err := a.engine.Consume(b)
		b = nil
		if err != nil {
			return err
		}
		if _, ok := result.(ccsds.ResultPacket); !ok {
			return nil
		}
	}
}
