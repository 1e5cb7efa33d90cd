// Soundpath - Personalized Media Recommendations and Discovery
// Copyright 2026 Soundpath Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundpath/soundpath

package models

import "time"

// APIResponse is the standardized response wrapper used by all HTTP endpoints.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Error
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError carries a machine-readable code plus a human-readable message.
//
// Codes used by the API layer:
//   - VALIDATION_ERROR: request parameters failed validation
//   - RATE_LIMITED: upstream provider throttled the request
//   - PROVIDER_ERROR: upstream provider failed
//   - NOT_CONFIGURED: the provider integration has no credentials
//   - NOT_FOUND: no result could be produced
//   - INTERNAL_ERROR: unexpected server-side failure
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RecommendationsResponse is the payload for GET /recommendations/{user_id}.
type RecommendationsResponse struct {
	UserID          string   `json:"user_id"`
	Recommendations []string `json:"recommendations"`
	FallbackUsed    bool     `json:"fallback_used"`
}
