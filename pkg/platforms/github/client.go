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

package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v74/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/AlaudaDevops/toolbox/changelog-gen/pkg/git"
)

func init() {
	git.RegisterFactory("github", &Factory{})
}

// Client-side pacing for the GitHub REST API. The core limit is 5000
// requests per hour; pacing below that avoids secondary rate limits on
// pagination-heavy runs.
const (
	requestsPerSecond = 5
	requestBurst      = 10
)

// Client implements the HostClient interface for GitHub
type Client struct {
	*logrus.Logger
	client  *github.Client  // GitHub API client
	ctx     context.Context // Request context
	limiter *rate.Limiter   // Client-side API pacing
	owner   string          // Repository owner
	repo    string          // Repository name
}

// Factory implements ClientFactory for GitHub
type Factory struct{}

// createGitHubClient creates a GitHub client with the specified token
func createGitHubClient(ctx context.Context, token, baseURL string) (*github.Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	// Set custom base URL if provided
	if baseURL != "" && baseURL != "https://api.github.com" {
		var err error
		client, err = client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to set GitHub enterprise URL: %w", err)
		}
	}

	return client, nil
}

// CreateClient creates a new GitHub host client
func (f *Factory) CreateClient(logger *logrus.Logger, config *git.Config) (git.HostClient, error) {
	ctx := context.Background()

	client, err := createGitHubClient(ctx, config.Token, config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	return &Client{
		Logger:  logger,
		client:  client,
		ctx:     ctx,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		owner:   config.Owner,
		repo:    config.Repo,
	}, nil
}

// wait blocks until the pacing limiter admits the next API call
func (c *Client) wait() error {
	return c.limiter.Wait(c.ctx)
}

// GetDefaultBranch retrieves the repository's default branch name
func (c *Client) GetDefaultBranch() (string, error) {
	if err := c.wait(); err != nil {
		return "", err
	}

	repo, _, err := c.client.Repositories.Get(c.ctx, c.owner, c.repo)
	if err != nil {
		return "", fmt.Errorf("failed to get repository: %w", err)
	}

	c.Debugf("Default branch for %s/%s is %s", c.owner, c.repo, repo.GetDefaultBranch())
	return repo.GetDefaultBranch(), nil
}

// GetLatestRelease retrieves the most recent published release
func (c *Client) GetLatestRelease() (*git.Release, error) {
	if err := c.wait(); err != nil {
		return nil, err
	}

	release, _, err := c.client.Repositories.GetLatestRelease(c.ctx, c.owner, c.repo)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest release: %w", err)
	}

	return &git.Release{
		TagName: release.GetTagName(),
		Name:    release.GetName(),
	}, nil
}

// ListReleases retrieves one page of releases, newest first
func (c *Client) ListReleases(page, perPage int) ([]git.Release, bool, error) {
	if err := c.wait(); err != nil {
		return nil, false, err
	}

	opts := &github.ListOptions{Page: page, PerPage: perPage}
	releases, resp, err := c.client.Repositories.ListReleases(c.ctx, c.owner, c.repo, opts)
	if err != nil {
		return nil, false, err
	}

	result := make([]git.Release, len(releases))
	for i, release := range releases {
		result[i] = git.Release{
			TagName: release.GetTagName(),
			Name:    release.GetName(),
		}
	}
	return result, resp.NextPage != 0, nil
}

// ListTags retrieves one page of repository tags
func (c *Client) ListTags(page, perPage int) ([]git.Tag, bool, error) {
	if err := c.wait(); err != nil {
		return nil, false, err
	}

	opts := &github.ListOptions{Page: page, PerPage: perPage}
	tags, resp, err := c.client.Repositories.ListTags(c.ctx, c.owner, c.repo, opts)
	if err != nil {
		return nil, false, err
	}

	result := make([]git.Tag, len(tags))
	for i, tag := range tags {
		result[i] = git.Tag{
			Name: tag.GetName(),
			SHA:  tag.GetCommit().GetSHA(),
		}
	}
	return result, resp.NextPage != 0, nil
}

// ListCommits retrieves one page of commits on the given branch, newest first
func (c *Client) ListCommits(branch string, page, perPage int) ([]git.Commit, bool, error) {
	if err := c.wait(); err != nil {
		return nil, false, err
	}

	opts := &github.CommitsListOptions{
		SHA:         branch,
		ListOptions: github.ListOptions{Page: page, PerPage: perPage},
	}
	commits, resp, err := c.client.Repositories.ListCommits(c.ctx, c.owner, c.repo, opts)
	if err != nil {
		return nil, false, err
	}

	result := make([]git.Commit, len(commits))
	for i, commit := range commits {
		result[i] = git.Commit{
			SHA:     commit.GetSHA(),
			Message: commit.GetCommit().GetMessage(),
			Author:  commit.GetCommit().GetAuthor().GetName(),
		}
	}
	return result, resp.NextPage != 0, nil
}

// ListMergedPullRequests retrieves one page of merged pull requests targeting
// the given base branch. GitHub has no direct "merged" list filter, so closed
// PRs are fetched and unmerged ones dropped. The hasMore flag comes from the
// response's Link header, so a page thinned out by that filter does not look
// like the end of the list.
func (c *Client) ListMergedPullRequests(base string, page, perPage int) ([]git.PullRequest, bool, error) {
	if err := c.wait(); err != nil {
		return nil, false, err
	}

	opts := &github.PullRequestListOptions{
		State:       "closed",
		Base:        base,
		ListOptions: github.ListOptions{Page: page, PerPage: perPage},
	}
	prs, resp, err := c.client.PullRequests.List(c.ctx, c.owner, c.repo, opts)
	if err != nil {
		return nil, false, err
	}

	var result []git.PullRequest
	for _, pr := range prs {
		if pr.MergedAt == nil {
			continue
		}
		result = append(result, git.PullRequest{
			Number:         pr.GetNumber(),
			Title:          pr.GetTitle(),
			URL:            pr.GetHTMLURL(),
			MergeCommitSHA: pr.GetMergeCommitSHA(),
		})
	}
	return result, resp.NextPage != 0, nil
}

// GetFileContent retrieves the decoded content of a file at the given ref
func (c *Client) GetFileContent(path, ref string) (string, error) {
	if err := c.wait(); err != nil {
		return "", err
	}

	opts := &github.RepositoryContentGetOptions{Ref: ref}
	fileContent, _, _, err := c.client.Repositories.GetContents(c.ctx, c.owner, c.repo, path, opts)
	if err != nil {
		return "", fmt.Errorf("failed to get contents of %s at %s: %w", path, ref, err)
	}
	if fileContent == nil {
		return "", fmt.Errorf("path %s at %s is not a file", path, ref)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return "", fmt.Errorf("failed to decode contents of %s at %s: %w", path, ref, err)
	}
	return content, nil
}
