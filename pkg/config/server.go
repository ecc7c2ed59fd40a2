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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ServerConfig holds HTTP API server configuration
type ServerConfig struct {
	// Server settings
	ListenAddr   string `json:"listen_addr" yaml:"listen_addr" mapstructure:"listen-addr"`
	GeneratePath string `json:"generate_path" yaml:"generate_path" mapstructure:"generate-path"`
	HealthPath   string `json:"health_path" yaml:"health_path" mapstructure:"health-path"`
	MetricsPath  string `json:"metrics_path" yaml:"metrics_path" mapstructure:"metrics-path"`

	// Security
	AllowedRepos []string `json:"allowed_repos" yaml:"allowed_repos" mapstructure:"allowed-repos"`

	// TLS
	TLSEnabled  bool   `json:"tls_enabled" yaml:"tls_enabled" mapstructure:"tls-enabled"`
	TLSCertFile string `json:"tls_cert_file" yaml:"tls_cert_file" mapstructure:"tls-cert-file"`
	TLSKeyFile  string `json:"tls_key_file" yaml:"tls_key_file" mapstructure:"tls-key-file"`

	// Processing
	AsyncProcessing bool `json:"async_processing" yaml:"async_processing" mapstructure:"async-processing"`
	WorkerCount     int  `json:"worker_count" yaml:"worker_count" mapstructure:"worker-count"`
	QueueSize       int  `json:"queue_size" yaml:"queue_size" mapstructure:"queue-size"`

	// Rate limiting
	RateLimitEnabled  bool `json:"rate_limit_enabled" yaml:"rate_limit_enabled" mapstructure:"rate-limit-enabled"`
	RateLimitRequests int  `json:"rate_limit_requests" yaml:"rate_limit_requests" mapstructure:"rate-limit-requests"`

	// Base generation configuration shared by all requests
	BaseConfig *Config `json:"-" yaml:"-"`
}

// NewDefaultServerConfig returns default server configuration
func NewDefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ListenAddr:        ":8080",
		GeneratePath:      "/v1/changelog",
		HealthPath:        "/health",
		MetricsPath:       "/metrics",
		TLSEnabled:        false,
		AsyncProcessing:   false,
		WorkerCount:       4,
		QueueSize:         100,
		RateLimitEnabled:  true,
		RateLimitRequests: 60,
		BaseConfig:        NewDefaultConfig(),
	}
}

// LoadFromEnv loads server configuration from environment variables
func (sc *ServerConfig) LoadFromEnv() error {
	// Server settings
	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		sc.ListenAddr = addr
	}
	if path := os.Getenv("GENERATE_PATH"); path != "" {
		sc.GeneratePath = path
	}
	if path := os.Getenv("HEALTH_PATH"); path != "" {
		sc.HealthPath = path
	}
	if path := os.Getenv("METRICS_PATH"); path != "" {
		sc.MetricsPath = path
	}

	// Security
	if repos := os.Getenv("ALLOWED_REPOS"); repos != "" {
		sc.AllowedRepos = strings.Split(repos, ",")
		for i := range sc.AllowedRepos {
			sc.AllowedRepos[i] = strings.TrimSpace(sc.AllowedRepos[i])
		}
	}

	// TLS
	if tlsEnabled := os.Getenv("TLS_ENABLED"); tlsEnabled != "" {
		sc.TLSEnabled = tlsEnabled == "true"
	}
	if certFile := os.Getenv("TLS_CERT_FILE"); certFile != "" {
		sc.TLSCertFile = certFile
	}
	if keyFile := os.Getenv("TLS_KEY_FILE"); keyFile != "" {
		sc.TLSKeyFile = keyFile
	}

	// Processing
	if async := os.Getenv("ASYNC_PROCESSING"); async != "" {
		sc.AsyncProcessing = async == "true"
	}
	if workers := os.Getenv("WORKER_COUNT"); workers != "" {
		if count, err := strconv.Atoi(workers); err == nil {
			sc.WorkerCount = count
		}
	}
	if queueSize := os.Getenv("QUEUE_SIZE"); queueSize != "" {
		if size, err := strconv.Atoi(queueSize); err == nil {
			sc.QueueSize = size
		}
	}

	// Rate limiting
	if rateLimitEnabled := os.Getenv("RATE_LIMIT_ENABLED"); rateLimitEnabled != "" {
		sc.RateLimitEnabled = rateLimitEnabled == "true"
	}
	if rateLimitReqs := os.Getenv("RATE_LIMIT_REQUESTS"); rateLimitReqs != "" {
		if reqs, err := strconv.Atoi(rateLimitReqs); err == nil {
			sc.RateLimitRequests = reqs
		}
	}

	return nil
}

// Validate checks if the server configuration is valid
func (sc *ServerConfig) Validate() error {
	if sc.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}
	if sc.GeneratePath == "" {
		return fmt.Errorf("generate path is required")
	}
	if sc.TLSEnabled {
		if sc.TLSCertFile == "" || sc.TLSKeyFile == "" {
			return fmt.Errorf("TLS cert and key files are required when TLS is enabled")
		}
	}
	if sc.WorkerCount < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if sc.QueueSize < 1 {
		return fmt.Errorf("queue size must be at least 1")
	}
	if sc.RateLimitEnabled && sc.RateLimitRequests < 1 {
		return fmt.Errorf("rate limit requests must be at least 1")
	}
	if sc.BaseConfig == nil {
		return fmt.Errorf("base config is required")
	}
	return nil
}

// RepoAllowed reports whether owner/repo may be generated by this server.
// An empty allow list permits everything; entries support "owner/*" wildcards.
func (sc *ServerConfig) RepoAllowed(owner, repo string) bool {
	if len(sc.AllowedRepos) == 0 {
		return true
	}

	full := fmt.Sprintf("%s/%s", owner, repo)
	for _, allowed := range sc.AllowedRepos {
		if allowed == full {
			return true
		}
		if strings.HasSuffix(allowed, "/*") && strings.TrimSuffix(allowed, "/*") == owner {
			return true
		}
	}
	return false
}

// DebugString returns a string representation with sensitive data redacted
func (sc *ServerConfig) DebugString() string {
	return fmt.Sprintf("ServerConfig{ListenAddr: %s, GeneratePath: %s, AsyncProcessing: %v, WorkerCount: %d, QueueSize: %d, AllowedRepos: %v}",
		sc.ListenAddr, sc.GeneratePath, sc.AsyncProcessing, sc.WorkerCount, sc.QueueSize, sc.AllowedRepos)
}
