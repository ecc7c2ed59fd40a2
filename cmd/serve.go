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

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlaudaDevops/toolbox/changelog-gen/pkg/config"
	"github.com/AlaudaDevops/toolbox/changelog-gen/pkg/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for on-demand changelog generation",
	Long: `Start an HTTP server that generates changelogs on demand. Clients POST a
JSON request naming the repository; the server resolves the two most recent
releases, collects merged pull request titles between them and returns the
rendered changelog.

The server exposes health and readiness endpoints and Prometheus metrics.
Requests can be processed synchronously (response carries the changelog) or
asynchronously through a worker pool.

Example:
  # Start server with default settings
  changelog-gen serve

  # Restrict generation to one organization
  changelog-gen serve --listen-addr=:8080 --allowed-repos="myorg/*"

  # Start with TLS
  changelog-gen serve --tls-enabled --tls-cert-file=/etc/certs/tls.crt --tls-key-file=/etc/certs/tls.key

Environment Variables:
  LISTEN_ADDR              Server listen address (default: :8080)
  GENERATE_PATH            Generation endpoint path (default: /v1/changelog)
  HEALTH_PATH              Health check endpoint path (default: /health)
  METRICS_PATH             Metrics endpoint path (default: /metrics)
  ALLOWED_REPOS            Comma-separated list of allowed repositories (owner/repo or owner/*)
  TLS_ENABLED              Enable TLS (default: false)
  TLS_CERT_FILE            TLS certificate file
  TLS_KEY_FILE             TLS private key file
  ASYNC_PROCESSING         Process requests asynchronously (default: false)
  WORKER_COUNT             Number of worker goroutines (default: 4)
  QUEUE_SIZE               Job queue size (default: 100)
  RATE_LIMIT_ENABLED       Enable rate limiting (default: true)
  RATE_LIMIT_REQUESTS      Max requests per minute per IP (default: 60)

  Plus all generator environment variables (CHANGELOG_TOKEN, CHANGELOG_PLATFORM, etc.)
`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server configuration flags
	serveCmd.Flags().String("listen-addr", ":8080", "Server listen address")
	serveCmd.Flags().String("generate-path", "/v1/changelog", "Generation endpoint path")
	serveCmd.Flags().String("health-path", "/health", "Health check endpoint path")
	serveCmd.Flags().String("metrics-path", "/metrics", "Metrics endpoint path")

	// Security flags
	serveCmd.Flags().StringSlice("allowed-repos", []string{}, "Allowed repositories (owner/repo format, supports wildcards)")

	// TLS flags
	serveCmd.Flags().Bool("tls-enabled", false, "Enable TLS")
	serveCmd.Flags().String("tls-cert-file", "", "TLS certificate file")
	serveCmd.Flags().String("tls-key-file", "", "TLS private key file")

	// Processing flags
	serveCmd.Flags().Bool("async-processing", false, "Process requests asynchronously")
	serveCmd.Flags().Int("worker-count", 4, "Number of worker goroutines")
	serveCmd.Flags().Int("queue-size", 100, "Job queue size")

	// Rate limiting flags
	serveCmd.Flags().Bool("rate-limit-enabled", true, "Enable rate limiting")
	serveCmd.Flags().Int("rate-limit-requests", 60, "Max requests per minute per IP")

	// Add generator flags to serve command
	generateOption.AddFlags(serveCmd.Flags())
}

func runServe(cmd *cobra.Command, args []string) error {
	// Create server configuration
	serverConfig := config.NewDefaultServerConfig()

	// Load from flags
	if addr, _ := cmd.Flags().GetString("listen-addr"); addr != "" {
		serverConfig.ListenAddr = addr
	}
	if path, _ := cmd.Flags().GetString("generate-path"); path != "" {
		serverConfig.GeneratePath = path
	}
	if path, _ := cmd.Flags().GetString("health-path"); path != "" {
		serverConfig.HealthPath = path
	}
	if path, _ := cmd.Flags().GetString("metrics-path"); path != "" {
		serverConfig.MetricsPath = path
	}

	if repos, _ := cmd.Flags().GetStringSlice("allowed-repos"); len(repos) > 0 {
		serverConfig.AllowedRepos = repos
	}

	if tlsEnabled, _ := cmd.Flags().GetBool("tls-enabled"); cmd.Flags().Changed("tls-enabled") {
		serverConfig.TLSEnabled = tlsEnabled
	}
	if certFile, _ := cmd.Flags().GetString("tls-cert-file"); certFile != "" {
		serverConfig.TLSCertFile = certFile
	}
	if keyFile, _ := cmd.Flags().GetString("tls-key-file"); keyFile != "" {
		serverConfig.TLSKeyFile = keyFile
	}

	if async, _ := cmd.Flags().GetBool("async-processing"); cmd.Flags().Changed("async-processing") {
		serverConfig.AsyncProcessing = async
	}
	if workers, _ := cmd.Flags().GetInt("worker-count"); cmd.Flags().Changed("worker-count") {
		serverConfig.WorkerCount = workers
	}
	if queueSize, _ := cmd.Flags().GetInt("queue-size"); cmd.Flags().Changed("queue-size") {
		serverConfig.QueueSize = queueSize
	}

	if rateLimitEnabled, _ := cmd.Flags().GetBool("rate-limit-enabled"); cmd.Flags().Changed("rate-limit-enabled") {
		serverConfig.RateLimitEnabled = rateLimitEnabled
	}
	if rateLimitReqs, _ := cmd.Flags().GetInt("rate-limit-requests"); cmd.Flags().Changed("rate-limit-requests") {
		serverConfig.RateLimitRequests = rateLimitReqs
	}

	// Load from environment variables (overrides flags)
	if err := serverConfig.LoadFromEnv(); err != nil {
		return fmt.Errorf("failed to load server config from environment: %w", err)
	}

	// Initialize base generator configuration. Owner and repo arrive with each
	// request, so their absence is not an error in server mode.
	if err := generateOption.initialize(); err != nil && !isRequestScopedError(err) {
		return fmt.Errorf("failed to initialize generator config: %w", err)
	}
	serverConfig.BaseConfig = generateOption.Config

	// Validate configuration
	if err := serverConfig.Validate(); err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}

	// Configure logging
	logger := logrus.New()
	if generateOption.Config.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	switch generateOption.Config.LogFormat {
	case "console":
		logger.SetFormatter(&logrus.TextFormatter{})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger.Debugf("Server config: %s", serverConfig.DebugString())

	// Create and start server
	srv := server.NewServer(serverConfig, logger)

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Infof("Received signal: %v", sig)
		cancel()
	}()

	// Start server
	logger.Info("Starting changelog generation server")
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// isRequestScopedError returns true for validation errors about fields that
// are supplied per request in server mode
func isRequestScopedError(err error) bool {
	return errors.Is(err, config.ErrMissingOwner) || errors.Is(err, config.ErrMissingRepo)
}
