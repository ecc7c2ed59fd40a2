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

package gitlab

import (
	"encoding/base64"
	"fmt"

	"github.com/sirupsen/logrus"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/AlaudaDevops/toolbox/changelog-gen/pkg/git"
)

func init() {
	git.RegisterFactory("gitlab", &Factory{})
}

// Client implements the HostClient interface for GitLab
type Client struct {
	*logrus.Logger
	client *gitlab.Client // GitLab API client
	pid    string         // Project path in "owner/repo" form
}

// Factory implements ClientFactory for GitLab
type Factory struct{}

// CreateClient creates a new GitLab host client
func (f *Factory) CreateClient(logger *logrus.Logger, config *git.Config) (git.HostClient, error) {
	var opts []gitlab.ClientOptionFunc
	if config.BaseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(config.BaseURL))
	}

	client, err := gitlab.NewClient(config.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}

	return &Client{
		Logger: logger,
		client: client,
		pid:    fmt.Sprintf("%s/%s", config.Owner, config.Repo),
	}, nil
}

// GetDefaultBranch retrieves the project's default branch name
func (c *Client) GetDefaultBranch() (string, error) {
	project, _, err := c.client.Projects.GetProject(c.pid, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get project: %w", err)
	}

	c.Debugf("Default branch for %s is %s", c.pid, project.DefaultBranch)
	return project.DefaultBranch, nil
}

// GetLatestRelease retrieves the most recent release. GitLab has no dedicated
// latest-release endpoint, so the first entry of the release list is used.
func (c *Client) GetLatestRelease() (*git.Release, error) {
	releases, _, err := c.ListReleases(1, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest release: %w", err)
	}
	if len(releases) == 0 {
		return nil, fmt.Errorf("project %s has no releases", c.pid)
	}
	return &releases[0], nil
}

// ListReleases retrieves one page of releases, newest first
func (c *Client) ListReleases(page, perPage int) ([]git.Release, bool, error) {
	opts := &gitlab.ListReleasesOptions{
		ListOptions: gitlab.ListOptions{Page: page, PerPage: perPage},
	}
	releases, resp, err := c.client.Releases.ListReleases(c.pid, opts)
	if err != nil {
		return nil, false, err
	}

	result := make([]git.Release, len(releases))
	for i, release := range releases {
		result[i] = git.Release{
			TagName: release.TagName,
			Name:    release.Name,
		}
	}
	return result, resp.NextPage != 0, nil
}

// ListTags retrieves one page of repository tags
func (c *Client) ListTags(page, perPage int) ([]git.Tag, bool, error) {
	opts := &gitlab.ListTagsOptions{
		ListOptions: gitlab.ListOptions{Page: page, PerPage: perPage},
	}
	tags, resp, err := c.client.Tags.ListTags(c.pid, opts)
	if err != nil {
		return nil, false, err
	}

	result := make([]git.Tag, len(tags))
	for i, tag := range tags {
		result[i] = git.Tag{Name: tag.Name}
		if tag.Commit != nil {
			result[i].SHA = tag.Commit.ID
		}
	}
	return result, resp.NextPage != 0, nil
}

// ListCommits retrieves one page of commits on the given branch, newest first
func (c *Client) ListCommits(branch string, page, perPage int) ([]git.Commit, bool, error) {
	opts := &gitlab.ListCommitsOptions{
		RefName:     gitlab.Ptr(branch),
		ListOptions: gitlab.ListOptions{Page: page, PerPage: perPage},
	}
	commits, resp, err := c.client.Commits.ListCommits(c.pid, opts)
	if err != nil {
		return nil, false, err
	}

	result := make([]git.Commit, len(commits))
	for i, commit := range commits {
		result[i] = git.Commit{
			SHA:     commit.ID,
			Message: commit.Message,
			Author:  commit.AuthorName,
		}
	}
	return result, resp.NextPage != 0, nil
}

// ListMergedPullRequests retrieves one page of merged merge requests targeting
// the given base branch. GitLab filters merged state server-side, so pages
// come back full until the real end of the list.
func (c *Client) ListMergedPullRequests(base string, page, perPage int) ([]git.PullRequest, bool, error) {
	opts := &gitlab.ListProjectMergeRequestsOptions{
		State:        gitlab.Ptr("merged"),
		TargetBranch: gitlab.Ptr(base),
		ListOptions:  gitlab.ListOptions{Page: page, PerPage: perPage},
	}
	mrs, resp, err := c.client.MergeRequests.ListProjectMergeRequests(c.pid, opts)
	if err != nil {
		return nil, false, err
	}

	result := make([]git.PullRequest, len(mrs))
	for i, mr := range mrs {
		result[i] = git.PullRequest{
			Number:         mr.IID,
			Title:          mr.Title,
			URL:            mr.WebURL,
			MergeCommitSHA: mergeCommitSHA(mr),
		}
	}
	return result, resp.NextPage != 0, nil
}

// mergeCommitSHA picks the commit a merge request landed as. Squash merges
// record SquashCommitSHA instead of MergeCommitSHA; fast-forward merges record
// neither, leaving only the head SHA.
func mergeCommitSHA(mr *gitlab.BasicMergeRequest) string {
	if mr.MergeCommitSHA != "" {
		return mr.MergeCommitSHA
	}
	if mr.SquashCommitSHA != "" {
		return mr.SquashCommitSHA
	}
	return mr.SHA
}

// GetFileContent retrieves the decoded content of a file at the given ref
func (c *Client) GetFileContent(path, ref string) (string, error) {
	opts := &gitlab.GetFileOptions{Ref: gitlab.Ptr(ref)}
	file, _, err := c.client.RepositoryFiles.GetFile(c.pid, path, opts)
	if err != nil {
		return "", fmt.Errorf("failed to get file %s at %s: %w", path, ref, err)
	}

	content, err := base64.StdEncoding.DecodeString(file.Content)
	if err != nil {
		return "", fmt.Errorf("failed to decode file %s at %s: %w", path, ref, err)
	}
	return string(content), nil
}
