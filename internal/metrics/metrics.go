// Copyright 2024 The AgentFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes AgentFS's runtime counters over Prometheus:
// op counts and latencies, copy-up volume, and path-cache hit rate.
// Every metric is registered by New against that Recorder's own private
// registry, so importing the package registers nothing globally and
// tests that construct more than one filesystem never panic on
// double-registration.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Annotation values for the "op" label, matching the public API's
// operation names.
const (
	OpLookup  = "lookup"
	OpCreate  = "create"
	OpMkdir   = "mkdir"
	OpRemove  = "remove"
	OpRename  = "rename"
	OpLink    = "link"
	OpRead    = "read"
	OpWrite   = "write"
	OpReaddir = "readdir"
	OpFsync   = "fsync"
)

// Recorder collects AgentFS's operational metrics. A nil *Recorder is
// valid and records nothing, so callers that don't wire metrics can
// pass one around without a conditional at every call site.
type Recorder struct {
	reg *prometheus.Registry

	opsTotal      *prometheus.CounterVec
	opsErrorTotal *prometheus.CounterVec
	opLatency     *prometheus.HistogramVec
	copyUpsTotal  prometheus.Counter
	cacheLookups  *prometheus.CounterVec
}

// New constructs a Recorder with its own registry, so multiple
// filesystems in the same process (as in tests) never collide on
// metric names.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		reg: reg,
		opsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentfs",
			Name:      "ops_total",
			Help:      "Count of filesystem operations processed, by op.",
		}, []string{"op"}),
		opsErrorTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentfs",
			Name:      "ops_error_total",
			Help:      "Count of filesystem operations that returned an error, by op and error kind.",
		}, []string{"op", "kind"}),
		opLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agentfs",
			Name:      "op_latency_seconds",
			Help:      "Latency of filesystem operations, by op.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		copyUpsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "agentfs",
			Name:      "copy_ups_total",
			Help:      "Count of base-layer objects materialized into the delta layer.",
		}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentfs",
			Name:      "path_cache_lookups_total",
			Help:      "Count of path-resolution cache lookups, by result.",
		}, []string{"result"}),
	}
}

// Handler exposes the Recorder's registry for scraping.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveOp records one op's outcome and latency. kind is the
// apperr.Kind string for a failed op, or "" on success.
func (r *Recorder) ObserveOp(op string, start time.Time, kind string) {
	if r == nil {
		return
	}
	r.opsTotal.WithLabelValues(op).Inc()
	r.opLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if kind != "" {
		r.opsErrorTotal.WithLabelValues(op, kind).Inc()
	}
}

// RecordCopyUp counts one base-object materialization.
func (r *Recorder) RecordCopyUp() {
	if r == nil {
		return
	}
	r.copyUpsTotal.Inc()
}

// RecordCacheLookup counts one path-cache probe.
func (r *Recorder) RecordCacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}
