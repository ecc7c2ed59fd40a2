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
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/AlaudaDevops/toolbox/changelog-gen/internal/version"
	"github.com/AlaudaDevops/toolbox/changelog-gen/pkg/config"
)

// GenerateRequest is the JSON body accepted by the generate endpoint.
// Fields other than owner and repo fall back to the server's base config.
type GenerateRequest struct {
	Owner         string `json:"owner"`
	Repo          string `json:"repo"`
	Platform      string `json:"platform,omitempty"`
	Branch        string `json:"branch,omitempty"`
	Title         string `json:"title,omitempty"`
	Prefix        string `json:"prefix,omitempty"`
	ChangelogPath string `json:"changelog_path,omitempty"`
}

// GenerateResponse is the JSON body returned for synchronous generation
type GenerateResponse struct {
	Title       string   `json:"title"`
	Entries     []string `json:"entries"`
	Body        string   `json:"body"`
	LatestTag   string   `json:"latest_tag"`
	PreviousTag string   `json:"previous_tag"`
	Empty       bool     `json:"empty"`
}

// validate checks the request for required fields
func (req *GenerateRequest) validate() error {
	req.Owner = strings.TrimSpace(req.Owner)
	req.Repo = strings.TrimSpace(req.Repo)
	if req.Owner == "" {
		return fmt.Errorf("owner is required")
	}
	if req.Repo == "" {
		return fmt.Errorf("repo is required")
	}
	return nil
}

// buildRunConfig merges a generation request over the server's base config
func buildRunConfig(base *config.Config, req *GenerateRequest) *config.Config {
	cfg := *base
	cfg.Owner = req.Owner
	cfg.Repo = req.Repo
	if req.Platform != "" {
		cfg.Platform = req.Platform
	}
	if req.Branch != "" {
		cfg.Branch = req.Branch
	}
	if req.Title != "" {
		cfg.Title = req.Title
	}
	if req.Prefix != "" {
		cfg.Prefix = req.Prefix
	}
	if req.ChangelogPath != "" {
		cfg.ChangelogPath = req.ChangelogPath
	}
	return &cfg
}

// handleGenerate processes changelog generation requests
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	// Only accept POST requests
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Errorf("Failed to decode request body: %v", err)
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		RequestsTotal.WithLabelValues("unknown", "invalid").Inc()
		return
	}
	defer r.Body.Close()

	if err := req.validate(); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		RequestsTotal.WithLabelValues("unknown", "invalid").Inc()
		return
	}

	// Validate repository against the allow list
	if !s.config.RepoAllowed(req.Owner, req.Repo) {
		s.logger.Warnf("Repository not allowed: %s/%s", req.Owner, req.Repo)
		http.Error(w, "Repository not allowed", http.StatusForbidden)
		RequestsTotal.WithLabelValues("unknown", "forbidden").Inc()
		return
	}

	cfg := buildRunConfig(s.config.BaseConfig, &req)

	s.logger.Infof("Received generation request for %s/%s on %s", req.Owner, req.Repo, cfg.Platform)

	// Process request (async or sync)
	if s.config.AsyncProcessing {
		// Enqueue job
		job := &GenerateJob{
			Request:   &req,
			Timestamp: time.Now(),
		}

		select {
		case s.jobQueue <- job:
			s.logger.Debug("Job enqueued successfully")
			QueueSize.Set(float64(len(s.jobQueue)))
		default:
			s.logger.Error("Job queue is full")
			http.Error(w, "Server busy, please try again later", http.StatusServiceUnavailable)
			RequestsTotal.WithLabelValues(cfg.Platform, "queue_full").Inc()
			return
		}

		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, "Accepted")
		return
	}

	// Process synchronously
	cl, err := runGeneration(s.logger, cfg)
	if err != nil {
		s.logger.Errorf("Generation failed for %s/%s: %v", req.Owner, req.Repo, err)
		http.Error(w, "Changelog generation failed", http.StatusInternalServerError)
		RequestsTotal.WithLabelValues(cfg.Platform, "error").Inc()
		GenerationDuration.WithLabelValues(cfg.Platform, "error").Observe(time.Since(startTime).Seconds())
		return
	}

	resp := GenerateResponse{
		Title:       cl.Title,
		Entries:     cl.Entries,
		Body:        cl.Body(),
		LatestTag:   cl.LatestTag,
		PreviousTag: cl.PreviousTag,
		Empty:       cl.IsEmpty(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Errorf("Failed to encode response: %v", err)
	}

	EntriesGenerated.Observe(float64(len(cl.Entries)))
	RequestsTotal.WithLabelValues(cfg.Platform, "success").Inc()
	GenerationDuration.WithLabelValues(cfg.Platform, "success").Observe(time.Since(startTime).Seconds())
}

// handleHealth returns health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":         "healthy",
		"version":        version.Get().Version,
		"uptime":         time.Since(s.startTime).String(),
		"queue_size":     len(s.jobQueue),
		"queue_capacity": cap(s.jobQueue),
		"workers":        s.config.WorkerCount,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}

// handleReadiness returns readiness status
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	// Check if queue is not full
	queueUsage := float64(len(s.jobQueue)) / float64(cap(s.jobQueue))
	if queueUsage > 0.95 {
		http.Error(w, "Queue nearly full", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}
