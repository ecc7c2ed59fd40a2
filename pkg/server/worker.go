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
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AlaudaDevops/toolbox/changelog-gen/pkg/config"
)

// GenerateJob represents a queued changelog generation request
type GenerateJob struct {
	Request   *GenerateRequest
	Timestamp time.Time
}

// Worker processes generation jobs from a queue
type Worker struct {
	id         int
	jobQueue   <-chan *GenerateJob
	logger     *logrus.Logger
	baseConfig *config.Config
}

// newWorker creates a new worker
func newWorker(id int, jobQueue <-chan *GenerateJob, logger *logrus.Logger, baseConfig *config.Config) *Worker {
	return &Worker{
		id:         id,
		jobQueue:   jobQueue,
		logger:     logger,
		baseConfig: baseConfig,
	}
}

// start begins processing jobs
func (w *Worker) start(ctx context.Context) {
	w.logger.Infof("Worker %d started", w.id)
	ActiveWorkers.Inc()
	defer ActiveWorkers.Dec()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("Worker %d stopping", w.id)
			return
		case job, ok := <-w.jobQueue:
			if !ok {
				w.logger.Infof("Worker %d: job queue closed", w.id)
				return
			}
			w.processJob(job)
		}
	}
}

// processJob runs a single queued generation
func (w *Worker) processJob(job *GenerateJob) {
	startTime := time.Now()

	logger := w.logger.WithFields(logrus.Fields{
		"worker": w.id,
		"repo":   fmt.Sprintf("%s/%s", job.Request.Owner, job.Request.Repo),
	})

	logger.Info("Processing generation job")
	QueueSize.Set(float64(len(w.jobQueue)))

	cfg := buildRunConfig(w.baseConfig, job.Request)
	cl, err := runGeneration(w.logger, cfg)
	if err != nil {
		logger.Errorf("Generation failed: %v", err)
		RequestsTotal.WithLabelValues(cfg.Platform, "error").Inc()
		GenerationDuration.WithLabelValues(cfg.Platform, "error").Observe(time.Since(startTime).Seconds())
		return
	}

	logger.Infof("Generated changelog %s with %d entries", cl.Title, len(cl.Entries))
	EntriesGenerated.Observe(float64(len(cl.Entries)))
	RequestsTotal.WithLabelValues(cfg.Platform, "success").Inc()
	GenerationDuration.WithLabelValues(cfg.Platform, "success").Observe(time.Since(startTime).Seconds())
}
