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
	"testing"

	"github.com/sirupsen/logrus"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/AlaudaDevops/toolbox/changelog-gen/pkg/git"
)

func TestCreateClient(t *testing.T) {
	factory := &Factory{}
	client, err := factory.CreateClient(logrus.New(), &git.Config{
		Platform: "gitlab",
		Token:    "test-token",
		Owner:    "test-group",
		Repo:     "test-project",
	})
	if err != nil {
		t.Fatalf("CreateClient returned error: %v", err)
	}

	glClient, ok := client.(*Client)
	if !ok {
		t.Fatalf("expected *Client, got %T", client)
	}
	if glClient.pid != "test-group/test-project" {
		t.Errorf("expected project path test-group/test-project, got %s", glClient.pid)
	}
}

func TestMergeCommitSHAFallback(t *testing.T) {
	tests := []struct {
		name string
		mr   *gitlab.BasicMergeRequest
		want string
	}{
		{
			name: "merge commit",
			mr:   &gitlab.BasicMergeRequest{MergeCommitSHA: "merge-sha", SquashCommitSHA: "squash-sha", SHA: "head-sha"},
			want: "merge-sha",
		},
		{
			name: "squash merge",
			mr:   &gitlab.BasicMergeRequest{SquashCommitSHA: "squash-sha", SHA: "head-sha"},
			want: "squash-sha",
		},
		{
			name: "fast-forward merge",
			mr:   &gitlab.BasicMergeRequest{SHA: "head-sha"},
			want: "head-sha",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mergeCommitSHA(tt.mr); got != tt.want {
				t.Errorf("mergeCommitSHA() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFactoryIsRegistered(t *testing.T) {
	if _, err := git.CreateClient(logrus.New(), &git.Config{
		Platform: "gitlab",
		Token:    "test-token",
	}); err != nil {
		t.Fatalf("gitlab factory not registered: %v", err)
	}
}
