// Soundpath - Personalized Media Recommendations and Discovery
// Copyright 2026 Soundpath Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundpath/soundpath

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/soundpath/soundpath/internal/discovery"
	"github.com/soundpath/soundpath/internal/logging"
	"github.com/soundpath/soundpath/internal/models"
	"github.com/soundpath/soundpath/internal/recommend"
	"github.com/soundpath/soundpath/internal/validation"
)

// sanitizeLogValue replaces control characters so attacker-supplied strings
// cannot forge log entries.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a success or error envelope with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

// respondSuccess wraps data in the standard envelope with timing metadata.
func respondSuccess(w http.ResponseWriter, data interface{}, started time.Time) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(started).Milliseconds(),
		},
	})
}

// respondError sends an error envelope.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Str("error", sanitizeLogValue(err.Error())).Msg("API error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondServiceError maps the discovery/recommend error taxonomy onto HTTP
// statuses:
//
//	*RateLimitError       -> 429, Retry-After header when a hint exists
//	*ConfigurationError   -> 503 NOT_CONFIGURED
//	*ProviderError        -> 503 PROVIDER_ERROR
//	ErrNoRecommendations  -> 404 NOT_FOUND
//	anything else         -> 500 INTERNAL_ERROR
func respondServiceError(w http.ResponseWriter, err error) {
	var rateErr *discovery.RateLimitError
	var cfgErr *discovery.ConfigurationError
	var provErr *discovery.ProviderError

	switch {
	case errors.As(err, &rateErr):
		if rateErr.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(rateErr.RetryAfter.Seconds())))
		}
		respondError(w, http.StatusTooManyRequests, "RATE_LIMITED",
			"upstream provider is rate limiting requests, try again later", err)
	case errors.As(err, &cfgErr):
		respondError(w, http.StatusServiceUnavailable, "NOT_CONFIGURED",
			fmt.Sprintf("%s integration is not configured", cfgErr.Provider), err)
	case errors.As(err, &provErr):
		respondError(w, http.StatusServiceUnavailable, "PROVIDER_ERROR",
			"upstream provider is unavailable", err)
	case errors.Is(err, recommend.ErrNoRecommendations):
		respondError(w, http.StatusNotFound, "NOT_FOUND",
			"no recommendations available", nil)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"internal server error", err)
	}
}

// validateRequest validates a request struct, responding with 400 on
// failure. Returns false when the request was rejected.
func validateRequest(w http.ResponseWriter, req interface{}) bool {
	validationErr := validation.ValidateStruct(req)
	if validationErr == nil {
		return true
	}

	details := make(map[string]interface{}, len(validationErr.Fields()))
	for _, fe := range validationErr.Fields() {
		details[fe.Field] = fe.Message
	}

	respondJSON(w, http.StatusBadRequest, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error: &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: validationErr.Error(),
			Details: details,
		},
	})
	return false
}

// getIntParam extracts an integer query parameter with a default.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}
