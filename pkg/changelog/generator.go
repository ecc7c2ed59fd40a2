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
	"errors"
	"fmt"

	"github.com/AlaudaDevops/toolbox/changelog-gen/pkg/config"
	"github.com/AlaudaDevops/toolbox/changelog-gen/pkg/git"
)

// Generator owns the fetch windows and cursor state for a single changelog
// generation run. It is not safe for concurrent use; create one Generator per
// run.
type Generator struct {
	client git.HostClient
	cfg    *config.Config
	obs    Observer

	branch string // memoized branch name, resolved once per run

	tags       *window[git.Tag]
	tagSHA     map[string]string // tag name -> commit SHA, indexed as pages land
	tagIndexed int               // number of tags already indexed into tagSHA
	releases   *window[git.Release]
	commits    *window[git.Commit]
	commitAt   map[string]int // commit SHA -> index in the newest-first window
	indexed    int            // number of commits already indexed into commitAt
	pulls      *window[git.PullRequest]
}

// New creates a Generator for one run. A nil observer disables reporting.
func New(client git.HostClient, cfg *config.Config, obs Observer) *Generator {
	if obs == nil {
		obs = NopObserver{}
	}

	g := &Generator{
		client:   client,
		cfg:      cfg,
		obs:      obs,
		tagSHA:   make(map[string]string),
		commitAt: make(map[string]int),
	}

	g.tags = newWindow(cfg.PerPage, cfg.MaxPages, func(page, perPage int) ([]git.Tag, bool, error) {
		items, hasMore, err := client.ListTags(page, perPage)
		if err != nil {
			return nil, false, fmt.Errorf("failed to list tags: %w", err)
		}
		obs.PageFetched(ResourceTags, page, len(items))
		return items, hasMore, nil
	})
	g.releases = newWindow(cfg.PerPage, cfg.MaxPages, func(page, perPage int) ([]git.Release, bool, error) {
		items, hasMore, err := client.ListReleases(page, perPage)
		if err != nil {
			return nil, false, fmt.Errorf("failed to list releases: %w", err)
		}
		obs.PageFetched(ResourceReleases, page, len(items))
		return items, hasMore, nil
	})
	g.commits = newWindow(cfg.PerPage, cfg.MaxPages, func(page, perPage int) ([]git.Commit, bool, error) {
		items, hasMore, err := client.ListCommits(g.branch, page, perPage)
		if err != nil {
			return nil, false, fmt.Errorf("failed to list commits on %s: %w", g.branch, err)
		}
		obs.PageFetched(ResourceCommits, page, len(items))
		return items, hasMore, nil
	})
	g.pulls = newWindow(cfg.PerPage, cfg.MaxPages, func(page, perPage int) ([]git.PullRequest, bool, error) {
		items, hasMore, err := client.ListMergedPullRequests(g.branch, page, perPage)
		if err != nil {
			return nil, false, fmt.Errorf("failed to list pull requests on %s: %w", g.branch, err)
		}
		obs.PageFetched(ResourcePulls, page, len(items))
		return items, hasMore, nil
	})

	return g
}

// Generate produces the changelog between the latest release and the release
// immediately preceding it.
func (g *Generator) Generate() (*Changelog, error) {
	if err := g.resolveBranch(); err != nil {
		return nil, err
	}

	latest, err := g.client.GetLatestRelease()
	if err != nil {
		return nil, fmt.Errorf("failed to get latest release: %w", err)
	}

	latestSHA, err := g.resolveTag(latest.TagName)
	if err != nil {
		return nil, err
	}

	previousTag, err := g.previousRelease(latestSHA)
	if err != nil {
		return nil, err
	}

	previousSHA, err := g.resolveTag(previousTag)
	if err != nil {
		return nil, err
	}

	g.obs.ReleasesSelected(latest.TagName, previousTag)

	idxLatest, err := g.commitIndex(latestSHA)
	if err != nil {
		return nil, err
	}
	idxPrev, err := g.commitIndex(previousSHA)
	if err != nil {
		return nil, err
	}

	// Under newest-first ordering the latest release commit must sit above
	// the previous one.
	if idxLatest >= idxPrev {
		return nil, fmt.Errorf("release commits out of order: latest %s at index %d, previous %s at index %d",
			latest.TagName, idxLatest, previousTag, idxPrev)
	}

	entries, err := g.collectEntries(idxLatest, idxPrev)
	if err != nil {
		return nil, err
	}

	title := g.cfg.Title
	if title == "" {
		title = latest.TagName
	}

	cl := &Changelog{
		Title:       title,
		Entries:     entries,
		LatestTag:   latest.TagName,
		PreviousTag: previousTag,
	}

	// Best effort: a missing or unreadable prior changelog degrades to an
	// empty tail and never fails the run.
	prior, err := g.client.GetFileContent(g.cfg.ChangelogPath, previousSHA)
	if err != nil {
		g.obs.PriorContentUnavailable(g.cfg.ChangelogPath, previousSHA, err)
		prior = ""
	}
	cl.Prior = prior

	return cl, nil
}

// resolveBranch memoizes the target branch: the configured override wins,
// otherwise the repository default branch is fetched once.
func (g *Generator) resolveBranch() error {
	if g.branch != "" {
		return nil
	}
	if g.cfg.Branch != "" {
		g.branch = g.cfg.Branch
		return nil
	}

	branch, err := g.client.GetDefaultBranch()
	if err != nil {
		return fmt.Errorf("failed to get default branch: %w", err)
	}
	g.branch = branch
	return nil
}

// resolveTag maps a tag name to its commit SHA, growing the shared tag window
// until the tag appears. The search is bounded: an exhausted tag list or a
// tripped page cap yields ErrTagNotFound.
func (g *Generator) resolveTag(name string) (string, error) {
	for {
		if sha, ok := g.tagSHA[name]; ok {
			return sha, nil
		}
		if g.tags.done() {
			return "", fmt.Errorf("tag %q: %w", name, ErrTagNotFound)
		}

		if _, err := g.tags.grow(); err != nil {
			if errors.Is(err, ErrPaginationExhausted) {
				return "", fmt.Errorf("tag %q: %w: %w", name, ErrTagNotFound, err)
			}
			return "", err
		}

		tags := g.tags.all()
		for ; g.tagIndexed < len(tags); g.tagIndexed++ {
			g.tagSHA[tags[g.tagIndexed].Name] = tags[g.tagIndexed].SHA
		}
		if sha, ok := g.tagSHA[name]; ok {
			g.obs.TagResolved(name, sha)
			return sha, nil
		}
	}
}

// previousRelease scans the release list, assumed reverse-chronological, for
// the first release whose tag resolves to a SHA distinct from latestSHA.
// Exhausting the list is an explicit failure, so repositories with zero or
// one distinct release terminate instead of spinning.
func (g *Generator) previousRelease(latestSHA string) (string, error) {
	scanned := 0
	for {
		releases := g.releases.all()
		for ; scanned < len(releases); scanned++ {
			sha, err := g.resolveTag(releases[scanned].TagName)
			if err != nil {
				return "", err
			}
			if sha != latestSHA {
				return releases[scanned].TagName, nil
			}
		}
		if g.releases.done() {
			return "", ErrNoPreviousRelease
		}
		if _, err := g.releases.grow(); err != nil {
			if errors.Is(err, ErrPaginationExhausted) {
				return "", fmt.Errorf("%w: %w", ErrNoPreviousRelease, err)
			}
			return "", err
		}
	}
}

// commitIndex returns the position of sha in the newest-first commit window,
// fetching further pages as needed. Once a SHA has been seen, later lookups
// never fetch. Reaching the end of history yields ErrCommitNotReachable.
func (g *Generator) commitIndex(sha string) (int, error) {
	for {
		if idx, ok := g.commitAt[sha]; ok {
			return idx, nil
		}
		if g.commits.done() {
			return 0, fmt.Errorf("commit %s: %w", sha, ErrCommitNotReachable)
		}

		if _, err := g.commits.grow(); err != nil {
			if errors.Is(err, ErrPaginationExhausted) {
				return 0, fmt.Errorf("commit %s: %w: %w", sha, ErrCommitNotReachable, err)
			}
			return 0, err
		}
		g.indexCommits()
	}
}

// indexCommits extends the SHA index over newly fetched commit pages
func (g *Generator) indexCommits() {
	commits := g.commits.all()
	for ; g.indexed < len(commits); g.indexed++ {
		g.commitAt[commits[g.indexed].SHA] = g.indexed
	}
}

// collectEntries filters the full merged-PR window by commit index range.
// The commit window already covers every index up to idxPrev, so membership
// is a pure lookup: no commit fetches happen here. Both boundary commits are
// the release-tagged commits themselves and are excluded.
func (g *Generator) collectEntries(idxLatest, idxPrev int) ([]string, error) {
	for !g.pulls.done() {
		if _, err := g.pulls.grow(); err != nil {
			if errors.Is(err, ErrPaginationExhausted) {
				// The page cap bounds the PR scan; everything fetched so
				// far still gets filtered.
				break
			}
			return nil, err
		}
	}

	var entries []string
	for _, pr := range g.pulls.all() {
		idx, ok := g.commitAt[pr.MergeCommitSHA]
		if !ok {
			continue
		}
		if idx > idxLatest && idx < idxPrev {
			entries = append(entries, formatEntry(g.cfg.Prefix, pr.Title))
			g.obs.PullRequestIncluded(pr)
		}
	}
	return entries, nil
}
