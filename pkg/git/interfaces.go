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

// Package git defines the platform-neutral types and interfaces that all
// repository host clients must implement.
package git

import "github.com/sirupsen/logrus"

// Tag represents a named pointer to a commit, used to mark a release point
type Tag struct {
	Name string // Tag name (e.g. v1.2.3)
	SHA  string // Commit SHA the tag points to
}

// Release represents a host-platform release associated with exactly one tag
type Release struct {
	TagName string // Tag the release was cut from
	Name    string // Human-readable release name
}

// PullRequest represents a merged pull request across different platforms
type PullRequest struct {
	Number         int    // Pull request number
	Title          string // Pull request title
	URL            string // URL to the pull request
	MergeCommitSHA string // Commit created when the PR was merged into the base branch
}

// Commit represents a git commit
type Commit struct {
	SHA     string // Commit SHA hash
	Message string // Commit message
	Author  string // Commit author
}

// HostClient defines the repository host operations the changelog generator
// depends on. List operations fetch exactly one page per call; cursor state is
// owned by the caller so a run never refetches a page. Each list operation
// also reports whether the host has further pages, taken from the host's
// pagination response. Callers must use that flag, not the item count, to
// detect the end of a list: implementations may filter items out of a page
// after fetching it, so a short or empty page does not imply exhaustion.
type HostClient interface {
	// GetDefaultBranch retrieves the repository's default branch name
	GetDefaultBranch() (string, error)

	// GetLatestRelease retrieves the most recent published release
	GetLatestRelease() (*Release, error)
	// ListReleases retrieves one page of releases in reverse-chronological order
	ListReleases(page, perPage int) ([]Release, bool, error)

	// ListTags retrieves one page of repository tags
	ListTags(page, perPage int) ([]Tag, bool, error)

	// ListCommits retrieves one page of commits on the given branch,
	// newest first
	ListCommits(branch string, page, perPage int) ([]Commit, bool, error)

	// ListMergedPullRequests retrieves one page of merged pull requests
	// targeting the given base branch, in the host's default list order.
	// The returned page may be shorter than perPage on platforms that can
	// only filter merged state client-side.
	ListMergedPullRequests(base string, page, perPage int) ([]PullRequest, bool, error)

	// GetFileContent retrieves the decoded content of a file at the given ref
	GetFileContent(path, ref string) (string, error)
}

// Config holds the configuration for creating a host client
type Config struct {
	Platform string // "github" or "gitlab"
	Token    string
	BaseURL  string // API base URL
	Owner    string // Repository owner/namespace
	Repo     string // Repository name
}

// ClientFactory defines the interface for creating platform-specific clients
type ClientFactory interface {
	// CreateClient creates a new host client for the specified platform
	CreateClient(logger *logrus.Logger, config *Config) (HostClient, error)
}
