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

// Package server implements the HTTP API for on-demand changelog generation
// with a worker pool for asynchronous requests and Prometheus metrics.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/AlaudaDevops/toolbox/changelog-gen/pkg/changelog"
	"github.com/AlaudaDevops/toolbox/changelog-gen/pkg/config"
	"github.com/AlaudaDevops/toolbox/changelog-gen/pkg/git"
)

// Server represents the changelog generation HTTP server
type Server struct {
	config    *config.ServerConfig
	logger    *logrus.Logger
	server    *http.Server
	jobQueue  chan *GenerateJob
	workers   []*Worker
	startTime time.Time
}

// NewServer creates a new server
func NewServer(cfg *config.ServerConfig, logger *logrus.Logger) *Server {
	return &Server{
		config:    cfg,
		logger:    logger,
		jobQueue:  make(chan *GenerateJob, cfg.QueueSize),
		startTime: time.Now(),
	}
}

// Start starts the server
func (s *Server) Start(ctx context.Context) error {
	s.logger.Infof("Starting changelog server on %s", s.config.ListenAddr)
	s.logger.Infof("Configuration: %s", s.config.DebugString())

	// Start workers if async processing is enabled
	if s.config.AsyncProcessing {
		s.startWorkers(ctx)
	}

	// Create HTTP router
	mux := http.NewServeMux()

	// Register handlers
	mux.HandleFunc(s.config.GeneratePath, s.handleGenerate)
	mux.HandleFunc(s.config.HealthPath, s.handleHealth)
	mux.HandleFunc(s.config.HealthPath+"/ready", s.handleReadiness)
	mux.Handle(s.config.MetricsPath, promhttp.Handler())

	// Apply middleware. Probe and scrape endpoints stay out of the request
	// log; the rate limiter's eviction sweeper stops with ctx.
	handler := securityHeadersMiddleware(mux)
	handler = recoveryMiddleware(s.logger)(handler)
	handler = loggingMiddleware(s.logger,
		s.config.HealthPath, s.config.HealthPath+"/ready", s.config.MetricsPath)(handler)
	handler = rateLimitMiddleware(ctx, s.config.RateLimitEnabled, s.config.RateLimitRequests, s.logger)(handler)

	// Create HTTP server
	s.server = &http.Server{
		Addr:         s.config.ListenAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server
	errChan := make(chan error, 1)
	go func() {
		if s.config.TLSEnabled {
			s.logger.Infof("Starting HTTPS server with TLS")
			errChan <- s.server.ListenAndServeTLS(s.config.TLSCertFile, s.config.TLSKeyFile)
		} else {
			s.logger.Infof("Starting HTTP server (TLS disabled)")
			errChan <- s.server.ListenAndServe()
		}
	}()

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		s.logger.Info("Context cancelled, shutting down server")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down changelog server")

	// Stop accepting new requests
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Errorf("Server shutdown error: %v", err)
			return err
		}
	}

	// Close job queue; workers exit once it drains
	if s.jobQueue != nil {
		close(s.jobQueue)
	}

	time.Sleep(2 * time.Second)

	s.logger.Info("Server shutdown complete")
	return nil
}

// startWorkers starts the worker pool
func (s *Server) startWorkers(ctx context.Context) {
	s.workers = make([]*Worker, s.config.WorkerCount)

	for i := 0; i < s.config.WorkerCount; i++ {
		worker := newWorker(i, s.jobQueue, s.logger, s.config.BaseConfig)
		s.workers[i] = worker
		go worker.start(ctx)
	}

	s.logger.Infof("Started %d generation workers", s.config.WorkerCount)
}

// runGeneration performs one changelog generation run for the given config
func runGeneration(logger *logrus.Logger, cfg *config.Config) (*changelog.Changelog, error) {
	client, err := git.CreateClient(logger, &git.Config{
		Platform: cfg.Platform,
		Token:    cfg.Token,
		BaseURL:  cfg.BaseURL,
		Owner:    cfg.Owner,
		Repo:     cfg.Repo,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create platform client: %w", err)
	}

	obs := changelog.Observers{
		changelog.NewLogObserver(logger),
		NewMetricsObserver(),
	}
	return changelog.New(client, cfg, obs).Generate()
}
