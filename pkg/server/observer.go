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

import "github.com/AlaudaDevops/toolbox/changelog-gen/pkg/git"

// MetricsObserver exports generation progress as Prometheus metrics
type MetricsObserver struct{}

// NewMetricsObserver creates an Observer that records page fetch metrics
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

func (MetricsObserver) PageFetched(resource string, page, count int) {
	PagesFetchedTotal.WithLabelValues(resource).Inc()
}

func (MetricsObserver) TagResolved(string, string)                    {}
func (MetricsObserver) ReleasesSelected(string, string)               {}
func (MetricsObserver) PullRequestIncluded(git.PullRequest)           {}
func (MetricsObserver) PriorContentUnavailable(string, string, error) {}
