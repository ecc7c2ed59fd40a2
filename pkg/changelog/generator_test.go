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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlaudaDevops/toolbox/changelog-gen/pkg/config"
	"github.com/AlaudaDevops/toolbox/changelog-gen/pkg/git"
)

// fakeClient serves fixture data page by page and records which pages each
// resource was asked for
type fakeClient struct {
	branch   string
	releases []git.Release
	tags     []git.Tag
	commits  []git.Commit
	pulls    []git.PullRequest
	prior    map[string]string // ref -> changelog content at that ref

	// When set, pull pages are served from these pre-built pages instead of
	// slicing pulls, mimicking a host whose pages get thinned client-side
	pullPageData [][]git.PullRequest

	defaultBranchErr error

	tagPages     []int
	releasePages []int
	commitPages  []int
	pullPages    []int

	commitBranches []string
}

func pageOf[T any](items []T, page, perPage int) ([]T, bool) {
	start := (page - 1) * perPage
	if start >= len(items) {
		return nil, false
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], end < len(items)
}

func (c *fakeClient) GetDefaultBranch() (string, error) {
	if c.defaultBranchErr != nil {
		return "", c.defaultBranchErr
	}
	return c.branch, nil
}

func (c *fakeClient) GetLatestRelease() (*git.Release, error) {
	if len(c.releases) == 0 {
		return nil, errors.New("no releases")
	}
	return &c.releases[0], nil
}

func (c *fakeClient) ListReleases(page, perPage int) ([]git.Release, bool, error) {
	c.releasePages = append(c.releasePages, page)
	items, hasMore := pageOf(c.releases, page, perPage)
	return items, hasMore, nil
}

func (c *fakeClient) ListTags(page, perPage int) ([]git.Tag, bool, error) {
	c.tagPages = append(c.tagPages, page)
	items, hasMore := pageOf(c.tags, page, perPage)
	return items, hasMore, nil
}

func (c *fakeClient) ListCommits(branch string, page, perPage int) ([]git.Commit, bool, error) {
	c.commitBranches = append(c.commitBranches, branch)
	c.commitPages = append(c.commitPages, page)
	items, hasMore := pageOf(c.commits, page, perPage)
	return items, hasMore, nil
}

func (c *fakeClient) ListMergedPullRequests(base string, page, perPage int) ([]git.PullRequest, bool, error) {
	c.pullPages = append(c.pullPages, page)
	if c.pullPageData != nil {
		if page > len(c.pullPageData) {
			return nil, false, nil
		}
		return c.pullPageData[page-1], page < len(c.pullPageData), nil
	}
	items, hasMore := pageOf(c.pulls, page, perPage)
	return items, hasMore, nil
}

func (c *fakeClient) GetFileContent(path, ref string) (string, error) {
	content, ok := c.prior[ref]
	if !ok {
		return "", fmt.Errorf("file %s not found at %s", path, ref)
	}
	return content, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Platform:      "github",
		Token:         "test-token",
		Owner:         "test-owner",
		Repo:          "test-repo",
		Prefix:        "-",
		ChangelogPath: "CHANGELOG.md",
		PerPage:       2,
		MaxPages:      10,
	}
}

func commits(shas ...string) []git.Commit {
	result := make([]git.Commit, len(shas))
	for i, sha := range shas {
		result[i] = git.Commit{SHA: sha, Message: "commit " + sha}
	}
	return result
}

// scenarioClient models a repository with releases v2 (commit c4) and
// v1 (commit c1) on a five commit history, newest first
func scenarioClient() *fakeClient {
	return &fakeClient{
		branch: "main",
		releases: []git.Release{
			{TagName: "v2", Name: "Release v2"},
			{TagName: "v1", Name: "Release v1"},
		},
		tags: []git.Tag{
			{Name: "v2", SHA: "c4"},
			{Name: "v1", SHA: "c1"},
		},
		commits: commits("c5", "c4", "c3", "c2", "c1"),
		pulls: []git.PullRequest{
			{Number: 5, Title: "Landed after the release", MergeCommitSHA: "c5"},
			{Number: 4, Title: "Release v2 itself", MergeCommitSHA: "c4"},
			{Number: 3, Title: "Fix data race in cache", MergeCommitSHA: "c3"},
			{Number: 1, Title: "Release v1 itself", MergeCommitSHA: "c1"},
			{Number: 9, Title: "Merged elsewhere", MergeCommitSHA: "zz"},
		},
		prior: map[string]string{
			"c1": "- Initial release\n",
		},
	}
}

func TestGenerate(t *testing.T) {
	client := scenarioClient()
	cl, err := New(client, testConfig(), nil).Generate()
	require.NoError(t, err)

	// Only the PR strictly between the two release commits is included:
	// both release commits themselves are excluded
	assert.Equal(t, []string{"- Fix data race in cache"}, cl.Entries)
	assert.Equal(t, "v2", cl.Title)
	assert.Equal(t, "v2", cl.LatestTag)
	assert.Equal(t, "v1", cl.PreviousTag)
	assert.Equal(t, "- Initial release\n", cl.Prior)
	assert.False(t, cl.IsEmpty())

	assert.Equal(t, "- Fix data race in cache\n- Initial release\n", cl.Body())
}

func TestGenerateFetchesEachPageOnce(t *testing.T) {
	client := scenarioClient()
	_, err := New(client, testConfig(), nil).Generate()
	require.NoError(t, err)

	// Commit pages stop as soon as the previous release commit is indexed
	assert.Equal(t, []int{1, 2, 3}, client.commitPages)
	assert.Equal(t, []int{1}, client.tagPages)
	assert.Equal(t, []int{1}, client.releasePages)

	for _, branch := range client.commitBranches {
		assert.Equal(t, "main", branch)
	}
}

func TestGenerateScansPastFilteredShortPullPage(t *testing.T) {
	// A page of closed PRs can lose entries to the merged filter and come
	// back short of perPage. The scan must trust the host's hasMore flag
	// and keep fetching, or merged PRs on later pages get dropped.
	client := scenarioClient()
	client.pullPageData = [][]git.PullRequest{
		{{Number: 3, Title: "Fix data race in cache", MergeCommitSHA: "c3"}},
		{{Number: 2, Title: "Support tag filters", MergeCommitSHA: "c2"}},
	}

	cl, err := New(client, testConfig(), nil).Generate()
	require.NoError(t, err)
	assert.Equal(t, []string{"- Fix data race in cache", "- Support tag filters"}, cl.Entries)
	assert.Equal(t, []int{1, 2}, client.pullPages)
}

func TestGenerateTitleOverride(t *testing.T) {
	cfg := testConfig()
	cfg.Title = "Spring cleaning"

	cl, err := New(scenarioClient(), cfg, nil).Generate()
	require.NoError(t, err)
	assert.Equal(t, "Spring cleaning", cl.Title)
}

func TestGenerateBranchOverrideSkipsDefaultBranchLookup(t *testing.T) {
	client := scenarioClient()
	client.defaultBranchErr = errors.New("must not be called")

	cfg := testConfig()
	cfg.Branch = "release-2.x"

	_, err := New(client, cfg, nil).Generate()
	require.NoError(t, err)
	assert.Equal(t, "release-2.x", client.commitBranches[0])
}

func TestGenerateTagAcrossPageBoundary(t *testing.T) {
	client := scenarioClient()
	// Push the release tags onto later pages with filler tags
	client.tags = []git.Tag{
		{Name: "nightly-3", SHA: "c5"},
		{Name: "nightly-2", SHA: "c5"},
		{Name: "nightly-1", SHA: "c5"},
		{Name: "v2", SHA: "c4"},
		{Name: "v1", SHA: "c1"},
	}

	cl, err := New(client, testConfig(), nil).Generate()
	require.NoError(t, err)
	assert.Equal(t, []string{"- Fix data race in cache"}, cl.Entries)
	assert.Equal(t, []int{1, 2, 3}, client.tagPages)
}

func TestGenerateTagNotFound(t *testing.T) {
	client := scenarioClient()
	client.releases[0].TagName = "v3" // never tagged

	_, err := New(client, testConfig(), nil).Generate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTagNotFound))
	assert.Contains(t, err.Error(), "v3")
}

func TestGenerateTagSearchBoundedByPageCap(t *testing.T) {
	client := scenarioClient()
	client.releases[0].TagName = "v3"
	// Enough full pages that the window hits the cap before running out
	client.tags = []git.Tag{
		{Name: "a", SHA: "c5"},
		{Name: "b", SHA: "c5"},
		{Name: "c", SHA: "c5"},
		{Name: "d", SHA: "c5"},
	}

	cfg := testConfig()
	cfg.MaxPages = 1

	_, err := New(client, cfg, nil).Generate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTagNotFound))
	assert.True(t, errors.Is(err, ErrPaginationExhausted))
}

func TestGenerateNoPreviousRelease(t *testing.T) {
	client := scenarioClient()
	client.releases = client.releases[:1]

	_, err := New(client, testConfig(), nil).Generate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoPreviousRelease))
}

func TestPreviousReleaseSkipsSameCommit(t *testing.T) {
	// Releases A and B were both cut from s1; C is the real predecessor
	client := &fakeClient{
		branch: "main",
		releases: []git.Release{
			{TagName: "A"},
			{TagName: "B"},
			{TagName: "C"},
		},
		tags: []git.Tag{
			{Name: "A", SHA: "s1"},
			{Name: "B", SHA: "s1"},
			{Name: "C", SHA: "s2"},
		},
		commits: commits("s1", "x1", "s2"),
		prior:   map[string]string{"s2": ""},
	}

	cl, err := New(client, testConfig(), nil).Generate()
	require.NoError(t, err)
	assert.Equal(t, "A", cl.LatestTag)
	assert.Equal(t, "C", cl.PreviousTag)
	assert.True(t, cl.IsEmpty())
}

func TestGenerateCommitNotReachable(t *testing.T) {
	client := scenarioClient()
	client.tags[0].SHA = "not-on-branch"

	_, err := New(client, testConfig(), nil).Generate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommitNotReachable))
}

func TestGenerateReleaseCommitsOutOfOrder(t *testing.T) {
	// Latest release points below the previous one in branch history
	client := scenarioClient()
	client.tags = []git.Tag{
		{Name: "v2", SHA: "c1"},
		{Name: "v1", SHA: "c4"},
	}

	_, err := New(client, testConfig(), nil).Generate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of order")
}

func TestGeneratePriorContentUnavailable(t *testing.T) {
	client := scenarioClient()
	client.prior = nil

	var reported bool
	obs := &recordingObserver{onPriorUnavailable: func() { reported = true }}

	cl, err := New(client, testConfig(), obs).Generate()
	require.NoError(t, err)
	assert.Equal(t, []string{"- Fix data race in cache"}, cl.Entries)
	assert.Equal(t, "", cl.Prior)
	assert.True(t, reported)

	assert.Equal(t, "- Fix data race in cache\n", cl.Body())
}

func TestGenerateObserverEvents(t *testing.T) {
	obs := &recordingObserver{}
	_, err := New(scenarioClient(), testConfig(), obs).Generate()
	require.NoError(t, err)

	assert.Equal(t, "v2", obs.latestTag)
	assert.Equal(t, "v1", obs.previousTag)
	assert.Equal(t, []int{3}, obs.includedPRs)
	assert.NotZero(t, obs.pagesFetched)
}

// recordingObserver captures events for assertions
type recordingObserver struct {
	latestTag          string
	previousTag        string
	includedPRs        []int
	pagesFetched       int
	onPriorUnavailable func()
}

func (o *recordingObserver) PageFetched(string, int, int) { o.pagesFetched++ }
func (o *recordingObserver) TagResolved(string, string)   {}
func (o *recordingObserver) ReleasesSelected(latest, previous string) {
	o.latestTag, o.previousTag = latest, previous
}
func (o *recordingObserver) PullRequestIncluded(pr git.PullRequest) {
	o.includedPRs = append(o.includedPRs, pr.Number)
}
func (o *recordingObserver) PriorContentUnavailable(string, string, error) {
	if o.onPriorUnavailable != nil {
		o.onPriorUnavailable()
	}
}
