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

import "errors"

// Validation errors returned by Config.Validate
var (
	ErrMissingPlatform = errors.New("platform is required")
	ErrMissingToken    = errors.New("token is required")
	ErrMissingOwner    = errors.New("repository owner is required")
	ErrMissingRepo     = errors.New("repository name is required")
	ErrInvalidPerPage  = errors.New("per-page must be a positive number")
	ErrInvalidMaxPages = errors.New("max-pages must be a positive number")
)
