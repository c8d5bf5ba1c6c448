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

package agent

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/packetd/ccsds/common"
)

var (
	uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "uptime",
			Help:      "Uptime in seconds",
		},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version", "git_hash", "build_time"},
	)

	framesConsumed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "frames_consumed_total",
			Help:      "Transfer frames consumed total",
		},
		[]string{"run_id"},
	)

	idleFramesDiscarded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "idle_frames_discarded_total",
			Help:      "Idle transfer frames discarded total",
		},
		[]string{"run_id"},
	)

	packetsEmitted = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "packets_emitted_total",
			Help:      "Space packets emitted total",
		},
		[]string{"run_id"},
	)

	idlePacketsDiscarded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "idle_packets_discarded_total",
			Help:      "Idle space packets discarded total",
		},
		[]string{"run_id"},
	)

	resyncEvents = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "resync_events_total",
			Help:      "FHP/length disagreement recoveries total",
		},
		[]string{"run_id"},
	)

	malformedAborts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "malformed_aborts_total",
			Help:      "Corrupt-state aborts total",
		},
		[]string{"run_id"},
	)
)

func (a *Agent) recordMetrics() {
	uptime.Set(float64(time.Now().Unix() - common.Started()))
	buildInfo.WithLabelValues(a.buildInfo.Version, a.buildInfo.GitHash, a.buildInfo.Time).Inc()

	stats := a.engine.Stats()
	framesConsumed.WithLabelValues(a.runID).Set(float64(stats.FramesConsumed))
	idleFramesDiscarded.WithLabelValues(a.runID).Set(float64(stats.IdleFramesDiscarded))
	packetsEmitted.WithLabelValues(a.runID).Set(float64(stats.PacketsEmitted))
	idlePacketsDiscarded.WithLabelValues(a.runID).Set(float64(stats.IdlePacketsDiscarded))
	resyncEvents.WithLabelValues(a.runID).Set(float64(stats.ResyncEvents))
	malformedAborts.WithLabelValues(a.runID).Set(float64(stats.MalformedAborts))
}
