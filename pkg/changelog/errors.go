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

package changelog

import "errors"

// Sentinel errors returned by the generator. All of them terminate a run;
// callers can classify with errors.Is.
var (
	// ErrTagNotFound indicates the requested tag does not exist in the
	// repository's tag list
	ErrTagNotFound = errors.New("tag not found")

	// ErrNoPreviousRelease indicates the release list was exhausted without
	// finding a release distinct from the latest one
	ErrNoPreviousRelease = errors.New("no previous release")

	// ErrCommitNotReachable indicates a commit SHA was not found on the
	// target branch before its history ended
	ErrCommitNotReachable = errors.New("commit not reachable on branch")

	// ErrPaginationExhausted indicates a search hit the configured page cap
	// before completing
	ErrPaginationExhausted = errors.New("pagination exhausted")
)
