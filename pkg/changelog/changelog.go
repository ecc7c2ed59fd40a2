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

// Package changelog implements the release changelog generation core: tag and
// release resolution, commit and pull request pagination windows, and the
// assembly of formatted changelog entries.
package changelog

import "strings"

// Changelog is the result of one generation run
type Changelog struct {
	// Title of the changelog, usually the latest release tag
	Title string
	// Entries are the newly generated "<prefix> <PR title>" lines, in pull
	// request order
	Entries []string
	// Prior is the previous changelog content fetched from the repository at
	// the previous release's commit; empty when unavailable
	Prior string
	// LatestTag and PreviousTag are the resolved release boundary tags
	LatestTag   string
	PreviousTag string
}

// IsEmpty reports whether the run produced no new entries. Prior content is
// deliberately ignored: emptiness is about which PRs were found, not about
// the final printed text.
func (c *Changelog) IsEmpty() bool {
	return len(c.Entries) == 0
}

// Body returns the newline-terminated entries followed by the prior content
func (c *Changelog) Body() string {
	var b strings.Builder
	for _, entry := range c.Entries {
		b.WriteString(entry)
		b.WriteByte('\n')
	}
	b.WriteString(c.Prior)
	return b.String()
}

// formatEntry renders one changelog line for a merged pull request title
func formatEntry(prefix, title string) string {
	return prefix + " " + title
}
