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
	"fmt"
	"os"
	"strings"

	"github.com/AlaudaDevops/toolbox/changelog-gen/pkg/changelog"
	"github.com/AlaudaDevops/toolbox/changelog-gen/pkg/config"
	"github.com/AlaudaDevops/toolbox/changelog-gen/pkg/git"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// GenerateOption option for the changelog generation command
type GenerateOption struct {
	*logrus.Logger
	Config *config.Config

	// OutputFile receives the generated changelog body; stdout when empty
	OutputFile string
}

// NewGenerateOption creates a new GenerateOption instance
func NewGenerateOption() *GenerateOption {
	return &GenerateOption{
		Logger: logrus.New(),
		Config: config.NewDefaultConfig(),
	}
}

// AddFlags add flags to options
func (g *GenerateOption) AddFlags(flags *pflag.FlagSet) {
	// Platform and authentication configuration
	flags.StringVar(&g.Config.Platform, "platform", g.Config.Platform, "Git platform (github or gitlab)")
	flags.StringVar(&g.Config.Token, "token", "", "Git platform API token for authentication")
	flags.StringVar(&g.Config.BaseURL, "base-url", "", "API base URL (optional, defaults per platform)")
	flags.StringVar(&g.Config.Owner, "repo-owner", "", "Repository owner (organization or user)")
	flags.StringVar(&g.Config.Repo, "repo-name", "", "Repository name")

	// Changelog configuration
	flags.StringVar(&g.Config.Branch, "branch", "", "Branch to scan for commits (defaults to the repository default branch)")
	flags.StringVar(&g.Config.Title, "title", "", "Changelog title (defaults to the latest release tag)")
	flags.StringVar(&g.Config.Prefix, "prefix", g.Config.Prefix, "Prefix prepended to each changelog entry")
	flags.StringVar(&g.Config.ChangelogPath, "changelog-path", g.Config.ChangelogPath, "Path of the changelog file within the repository")

	// Pagination configuration
	flags.IntVar(&g.Config.PerPage, "per-page", g.Config.PerPage, "Number of items to fetch per API page")
	flags.IntVar(&g.Config.MaxPages, "max-pages", g.Config.MaxPages, "Maximum number of API pages to fetch per resource")

	// Output configuration
	flags.StringVar(&g.OutputFile, "output-file", "", "Write the changelog body to this file instead of stdout")

	// Debug and logging flags
	flags.BoolVar(&g.Config.Verbose, "verbose", false, "Enable verbose logging (debug level logs)")
	flags.StringVar(&g.Config.LogFormat, "log-format", g.Config.LogFormat, "Log format (console or json)")
}

// Run executes the changelog generation
func (g *GenerateOption) Run(cmd *cobra.Command, args []string) error {
	// Initialize and validate configuration
	if err := g.initialize(); err != nil {
		return err
	}

	if g.Config.Verbose {
		g.Debugf("Generating changelog, config: %s", g.Config.DebugString())
	}

	client, err := git.CreateClient(g.Logger, &git.Config{
		Platform: g.Config.Platform,
		Token:    g.Config.Token,
		BaseURL:  g.Config.BaseURL,
		Owner:    g.Config.Owner,
		Repo:     g.Config.Repo,
	})
	if err != nil {
		return fmt.Errorf("failed to create platform client: %w", err)
	}

	generator := changelog.New(client, g.Config, changelog.NewLogObserver(g.Logger))
	cl, err := generator.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate changelog: %w", err)
	}

	if cl.IsEmpty() {
		g.Warnf("No merged pull requests found between %s and %s", cl.PreviousTag, cl.LatestTag)
	}

	return g.writeChangelog(cl)
}

// writeChangelog emits the result to the output file or stdout
func (g *GenerateOption) writeChangelog(cl *changelog.Changelog) error {
	if g.OutputFile != "" {
		if err := os.WriteFile(g.OutputFile, []byte(cl.Body()), 0o644); err != nil {
			return fmt.Errorf("failed to write changelog to %s: %w", g.OutputFile, err)
		}
		g.Infof("Wrote changelog %s to %s (%d new entries)", cl.Title, g.OutputFile, len(cl.Entries))
		return nil
	}

	fmt.Println(cl.Title)
	fmt.Println()
	fmt.Print(cl.Body())
	return nil
}

// readAllFromViper reads all configuration values from viper
// This includes environment variables with CHANGELOG_ prefix
func (g *GenerateOption) readAllFromViper() {
	// Use viper.Unmarshal to automatically map all values to the config struct
	if err := viper.Unmarshal(g.Config); err != nil {
		// Log warning but continue - this shouldn't prevent the application from running
		g.Warnf("Failed to unmarshal config from viper: %v", err)
	}

	// Clean up string values by trimming whitespace and newlines
	g.Config.Platform = strings.TrimSpace(g.Config.Platform)
	g.Config.Token = strings.TrimSpace(g.Config.Token)
	g.Config.BaseURL = strings.TrimSpace(g.Config.BaseURL)
	g.Config.Owner = strings.TrimSpace(g.Config.Owner)
	g.Config.Repo = strings.TrimSpace(g.Config.Repo)
	g.Config.Branch = strings.TrimSpace(g.Config.Branch)
	g.Config.ChangelogPath = strings.TrimSpace(g.Config.ChangelogPath)

	if g.OutputFile == "" {
		g.OutputFile = strings.TrimSpace(viper.GetString("output-file"))
	}
}

// initialize initializes and validates the GenerateOption configuration
func (g *GenerateOption) initialize() error {
	// Read all values from viper (which includes environment variables)
	g.readAllFromViper()

	// Set log level based on verbose flag
	if g.Config.Verbose {
		g.SetLevel(logrus.DebugLevel)
		g.Debug("Verbose logging enabled")
	} else {
		g.SetLevel(logrus.InfoLevel)
	}

	switch g.Config.LogFormat {
	case "json":
		g.SetFormatter(&logrus.JSONFormatter{})
	default:
		g.SetFormatter(&logrus.TextFormatter{})
	}

	// Validate configuration
	if err := g.Config.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	return nil
}
