/*
 *  Copyright 2018 KardiaChain
 *  This file is part of the go-kardia library.
 *
 *  The go-kardia library is free software: you can redistribute it and/or modify
 *  it under the terms of the GNU Lesser General Public License as published by
 *  the Free Software Foundation, either version 3 of the License, or
 *  (at your option) any later version.
 *
 *  The go-kardia library is distributed in the hope that it will be useful,
 *  but WITHOUT ANY WARRANTY; without even the implied warranty of
 *  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 *  GNU Lesser General Public License for more details.
 *
 *  You should have received a copy of the GNU Lesser General Public License
 *  along with the go-kardia library. If not, see <http://www.gnu.org/licenses/>.
 */

// Package metrics
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "circulation"

const (
	CycleSuccess = "success"
	CycleAborted = "aborted"
	CycleSkipped = "skipped"
)

// Provider groups every collector of the service. A nil *Provider is valid
// and records nothing.
type Provider struct {
	cycles         *prometheus.CounterVec
	cycleDuration  prometheus.Histogram
	lastSuccess    prometheus.Gauge
	sourceCalls    *prometheus.CounterVec
	sourceDuration *prometheus.HistogramVec
	requests       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Provider {
	f := promauto.With(reg)
	return &Provider{
		cycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_cycles_total",
			Help:      "Refresh cycles by result.",
		}, []string{"result"}),
		cycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_cycle_duration_seconds",
			Help:      "Duration of refresh cycles that ran.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last committed refresh cycle.",
		}),
		sourceCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_calls_total",
			Help:      "Source client calls by kind and result.",
		}, []string{"kind", "result"}),
		sourceDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_call_duration_seconds",
			Help:      "Source client call latency by kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Served HTTP requests by path and status code.",
		}, []string{"path", "code"}),
	}
}

func (p *Provider) ObserveCycle(result string, elapsed time.Duration) {
	if p == nil {
		return
	}
	p.cycles.WithLabelValues(result).Inc()
	if result != CycleSkipped {
		p.cycleDuration.Observe(elapsed.Seconds())
	}
	if result == CycleSuccess {
		p.lastSuccess.SetToCurrentTime()
	}
}

func (p *Provider) ObserveSource(kind string, elapsed time.Duration, err error) {
	if p == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.sourceCalls.WithLabelValues(kind, result).Inc()
	p.sourceDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (p *Provider) ObserveRequest(path string, code int) {
	if p == nil {
		return
	}
	p.requests.WithLabelValues(path, strconv.Itoa(code)).Inc()
}
