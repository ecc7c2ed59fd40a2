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

// Package cmd provides the command line interface for the changelog generator
package cmd

import (
	"os"

	"github.com/AlaudaDevops/toolbox/changelog-gen/internal/version"
	"github.com/spf13/cobra"

	// Import platform implementations to register them
	_ "github.com/AlaudaDevops/toolbox/changelog-gen/pkg/platforms/github"
	_ "github.com/AlaudaDevops/toolbox/changelog-gen/pkg/platforms/gitlab"
)

// generateOption is the global instance of GenerateOption
var generateOption *GenerateOption

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "changelog-gen",
	Short: "Release changelog generator for GitHub and GitLab repositories",
	Long: `changelog-gen collects the titles of pull requests merged between the two
most recent releases of a repository and renders them as changelog entries,
prepended to the changelog content of the previous release.

The latest release and the one immediately preceding it are discovered through
the platform API; no local clone is required.

Example usage:
  # Generate the changelog for the latest release
  changelog-gen --platform github --repo-owner owner --repo-name repo --token $TOKEN

  # Use a custom entry prefix and changelog location
  changelog-gen --prefix "*" --changelog-path docs/CHANGELOG.md --repo-owner owner --repo-name repo --token $TOKEN

  # Write the result to a file instead of stdout
  changelog-gen --output-file CHANGELOG.md --repo-owner owner --repo-name repo --token $TOKEN

All flags can also be provided as environment variables with the CHANGELOG_
prefix (e.g. CHANGELOG_TOKEN, CHANGELOG_REPO_OWNER).`,

	RunE: func(cmd *cobra.Command, args []string) error {
		// Handle --version flag
		if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
			versionInfo := version.Get()

			if outputFormat == "json" {
				return printVersionJSON(versionInfo)
			}
			return printVersionText(versionInfo)
		}
		return generateOption.Run(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
