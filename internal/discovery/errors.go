// Soundpath - Personalized Media Recommendations and Discovery
// Copyright 2026 Soundpath Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundpath/soundpath

package discovery

import (
	"fmt"
	"time"
)

// ConfigurationError indicates a provider cannot be used because its
// credentials or endpoint configuration are missing or invalid. It is
// returned at client construction time, never mid-request.
type ConfigurationError struct {
	Provider string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured: %s", e.Provider, e.Reason)
}

// ProviderError indicates an upstream provider returned an unusable
// response: a non-2xx status, a malformed body, or a transport failure.
type ProviderError struct {
	Provider  string
	Operation string
	Status    int // 0 when the failure happened before a status was received
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s %s failed with status %d: %v", e.Provider, e.Operation, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Operation, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// RateLimitError indicates the upstream provider returned HTTP 429.
// RetryAfter carries the provider's Retry-After hint when one was sent;
// zero means the provider gave no hint.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s rate limit exceeded, retry after %s", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s rate limit exceeded", e.Provider)
}
