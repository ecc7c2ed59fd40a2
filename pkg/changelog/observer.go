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

package changelog

import (
	"github.com/AlaudaDevops/toolbox/changelog-gen/pkg/git"
	"github.com/sirupsen/logrus"
)

// Resource names reported through Observer.PageFetched
const (
	ResourceTags     = "tags"
	ResourceReleases = "releases"
	ResourceCommits  = "commits"
	ResourcePulls    = "pulls"
)

// Observer receives progress events from a generation run. The generator
// itself performs no logging; callers inject whatever sink they need.
type Observer interface {
	// PageFetched is called after every page fetch with the item count
	PageFetched(resource string, page, count int)
	// TagResolved is called when a tag name is resolved to a commit SHA
	TagResolved(tag, sha string)
	// ReleasesSelected is called once the release pair is known
	ReleasesSelected(latestTag, previousTag string)
	// PullRequestIncluded is called for every PR that makes the changelog
	PullRequestIncluded(pr git.PullRequest)
	// PriorContentUnavailable is called when the prior changelog file could
	// not be fetched; generation continues with an empty tail
	PriorContentUnavailable(path, ref string, err error)
}

// NopObserver discards all events
type NopObserver struct{}

func (NopObserver) PageFetched(string, int, int)                  {}
func (NopObserver) TagResolved(string, string)                    {}
func (NopObserver) ReleasesSelected(string, string)               {}
func (NopObserver) PullRequestIncluded(git.PullRequest)           {}
func (NopObserver) PriorContentUnavailable(string, string, error) {}

// LogObserver reports events through a logrus logger
type LogObserver struct {
	*logrus.Logger
}

// NewLogObserver creates an Observer backed by the given logger
func NewLogObserver(logger *logrus.Logger) *LogObserver {
	return &LogObserver{Logger: logger}
}

func (o *LogObserver) PageFetched(resource string, page, count int) {
	o.Debugf("Fetched %s page %d (%d items)", resource, page, count)
}

func (o *LogObserver) TagResolved(tag, sha string) {
	o.Debugf("Resolved tag %s to %s", tag, sha)
}

func (o *LogObserver) ReleasesSelected(latestTag, previousTag string) {
	o.Infof("Generating changelog between %s and %s", previousTag, latestTag)
}

func (o *LogObserver) PullRequestIncluded(pr git.PullRequest) {
	o.Debugf("Including PR #%d: %s", pr.Number, pr.Title)
}

func (o *LogObserver) PriorContentUnavailable(path, ref string, err error) {
	o.Warnf("Could not fetch prior changelog %s at %s: %v", path, ref, err)
}

// Observers fans events out to multiple observers
type Observers []Observer

func (os Observers) PageFetched(resource string, page, count int) {
	for _, o := range os {
		o.PageFetched(resource, page, count)
	}
}

func (os Observers) TagResolved(tag, sha string) {
	for _, o := range os {
		o.TagResolved(tag, sha)
	}
}

func (os Observers) ReleasesSelected(latestTag, previousTag string) {
	for _, o := range os {
		o.ReleasesSelected(latestTag, previousTag)
	}
}

func (os Observers) PullRequestIncluded(pr git.PullRequest) {
	for _, o := range os {
		o.PullRequestIncluded(pr)
	}
}

func (os Observers) PriorContentUnavailable(path, ref string, err error) {
	for _, o := range os {
		o.PriorContentUnavailable(path, ref, err)
	}
}
