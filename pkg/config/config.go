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

// Package config provides configuration management for the changelog
// generator.
package config

import (
	"encoding/json"
	"fmt"
)

// Config holds the configuration for a single changelog generation run
type Config struct {
	// Platform configuration
	Platform string `json:"platform" yaml:"platform" mapstructure:"platform"`
	Token    string `json:"token" yaml:"token" mapstructure:"token"`
	BaseURL  string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base-url"`

	// Repository configuration
	Owner string `json:"owner" yaml:"owner" mapstructure:"repo-owner"`
	Repo  string `json:"repo" yaml:"repo" mapstructure:"repo-name"`

	// Branch override; when empty the repository default branch is used
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty" mapstructure:"branch"`

	// Changelog output configuration
	Title         string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Prefix        string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
	ChangelogPath string `json:"changelog_path" yaml:"changelog_path" mapstructure:"changelog-path"`

	// Pagination configuration
	PerPage  int `json:"per_page" yaml:"per_page" mapstructure:"per-page"`
	MaxPages int `json:"max_pages" yaml:"max_pages" mapstructure:"max-pages"`

	// Logging configuration
	Verbose   bool   `json:"verbose,omitempty" yaml:"verbose,omitempty" mapstructure:"verbose"`
	LogFormat string `json:"log_format" yaml:"log_format" mapstructure:"log-format"`
	LogLevel  string `json:"log_level" yaml:"log_level" mapstructure:"log-level"`
}

// NewDefaultConfig returns a new Config with default values
func NewDefaultConfig() *Config {
	return &Config{
		Platform:      "github",
		Prefix:        "-",
		ChangelogPath: "CHANGELOG.md",
		PerPage:       30,
		MaxPages:      100,
		LogFormat:     "console",
		LogLevel:      "info",
	}
}

// DebugString returns a JSON representation of the config with sensitive
// information redacted
func (c *Config) DebugString() string {
	debugConfig := *c
	debugConfig.Token = "[REDACTED]"

	data, err := json.MarshalIndent(debugConfig, "", "  ")
	if err != nil {
		return fmt.Sprintf("failed to marshal config: %v", err)
	}
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Platform == "" {
		return ErrMissingPlatform
	}
	if c.Token == "" {
		return ErrMissingToken
	}
	if c.Owner == "" {
		return ErrMissingOwner
	}
	if c.Repo == "" {
		return ErrMissingRepo
	}
	if c.PerPage <= 0 {
		return ErrInvalidPerPage
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	return nil
}
