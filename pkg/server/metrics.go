/*
Copyright 2025 The AlaudaDevops Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts total generation requests received
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "changelog_gen_requests_total",
			Help: "Total number of changelog generation requests received",
		},
		[]string{"platform", "status"},
	)

	// GenerationDuration tracks changelog generation duration
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "changelog_gen_generation_duration_seconds",
			Help:    "Changelog generation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"platform", "status"},
	)

	// PagesFetchedTotal counts API pages fetched per resource
	PagesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "changelog_gen_pages_fetched_total",
			Help: "Total number of API pages fetched, by resource",
		},
		[]string{"resource"},
	)

	// EntriesGenerated tracks entries produced per generation run
	EntriesGenerated = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "changelog_gen_entries_per_run",
			Help:    "Number of changelog entries produced per generation run",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	// RateLimitedTotal counts requests rejected by the per-client rate limit
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "changelog_gen_rate_limited_total",
			Help: "Total number of requests rejected by the per-client rate limit",
		},
	)

	// QueueSize tracks current job queue size
	QueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "changelog_gen_queue_size",
			Help: "Current size of the generation job queue",
		},
	)

	// ActiveWorkers tracks number of active workers
	ActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "changelog_gen_active_workers",
			Help: "Number of active worker goroutines",
		},
	)
)
