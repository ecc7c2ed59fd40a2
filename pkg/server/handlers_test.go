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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlaudaDevops/toolbox/changelog-gen/pkg/config"
)

func testServer() *Server {
	cfg := config.NewDefaultServerConfig()
	cfg.BaseConfig.Token = "test-token"

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	return NewServer(cfg, logger)
}

func TestHandleGenerateRejectsNonPOST(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodGet, "/v1/changelog", nil)
	rec := httptest.NewRecorder()
	s.handleGenerate(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleGenerateRejectsInvalidJSON(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodPost, "/v1/changelog", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.handleGenerate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGenerateRejectsMissingFields(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodPost, "/v1/changelog", strings.NewReader(`{"owner": "me"}`))
	rec := httptest.NewRecorder()
	s.handleGenerate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "repo is required")
}

func TestHandleGenerateRejectsDisallowedRepo(t *testing.T) {
	s := testServer()
	s.config.AllowedRepos = []string{"myorg/*"}

	req := httptest.NewRequest(http.MethodPost, "/v1/changelog",
		strings.NewReader(`{"owner": "other", "repo": "thing"}`))
	rec := httptest.NewRecorder()
	s.handleGenerate(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleGenerateAsyncAccepts(t *testing.T) {
	s := testServer()
	s.config.AsyncProcessing = true

	req := httptest.NewRequest(http.MethodPost, "/v1/changelog",
		strings.NewReader(`{"owner": "me", "repo": "proj"}`))
	rec := httptest.NewRecorder()
	s.handleGenerate(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	// The job must be waiting in the queue
	job := <-s.jobQueue
	assert.Equal(t, "me", job.Request.Owner)
	assert.Equal(t, "proj", job.Request.Repo)
}

func TestHandleGenerateAsyncQueueFull(t *testing.T) {
	cfg := config.NewDefaultServerConfig()
	cfg.BaseConfig.Token = "test-token"
	cfg.AsyncProcessing = true
	cfg.QueueSize = 1

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	s := NewServer(cfg, logger)
	s.jobQueue <- &GenerateJob{}

	req := httptest.NewRequest(http.MethodPost, "/v1/changelog",
		strings.NewReader(`{"owner": "me", "repo": "proj"}`))
	rec := httptest.NewRecorder()
	s.handleGenerate(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestHandleReadiness(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	s.handleReadiness(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuildRunConfigMergesOverBase(t *testing.T) {
	base := config.NewDefaultConfig()
	base.Token = "base-token"
	base.Prefix = "-"

	cfg := buildRunConfig(base, &GenerateRequest{
		Owner:  "me",
		Repo:   "proj",
		Branch: "release-1.x",
		Prefix: "*",
	})

	assert.Equal(t, "me", cfg.Owner)
	assert.Equal(t, "proj", cfg.Repo)
	assert.Equal(t, "release-1.x", cfg.Branch)
	assert.Equal(t, "*", cfg.Prefix)
	// Untouched fields come from the base config
	assert.Equal(t, "base-token", cfg.Token)
	assert.Equal(t, "github", cfg.Platform)
	assert.Equal(t, "CHANGELOG.md", cfg.ChangelogPath)

	// The base config itself is not mutated
	assert.Equal(t, "", base.Owner)
	assert.Equal(t, "-", base.Prefix)
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	assert.Equal(t, "10.0.0.1", getClientIP(req))

	req.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	assert.Equal(t, "10.0.0.3", getClientIP(req))
}
