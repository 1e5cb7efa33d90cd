// Soundpath - Personalized Media Recommendations and Discovery
// Copyright 2026 Soundpath Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundpath/soundpath

package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/soundpath/soundpath/internal/config"
	"github.com/soundpath/soundpath/internal/metrics"
	"github.com/soundpath/soundpath/internal/models"
	"github.com/soundpath/soundpath/internal/models/tmdb"
)

const tmdbProvider = "tmdb"

// maxErrorBodySize limits how much of an error response body is read for
// diagnostics, so a large upstream error page cannot balloon memory.
const maxErrorBodySize = 64 * 1024 // 64KB

// readBodyForError reads a response body for error reporting (max 64KB).
// Returns the body content or a placeholder if reading fails.
func readBodyForError(r io.Reader) []byte {
	limited := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("... (truncated)")...)
	}
	return body
}

// parseRetryAfter parses a Retry-After header value given in seconds,
// accepting fractional values. Returns 0 when the header is absent or
// unparseable.
func parseRetryAfter(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

// decodeObjectBody decodes a 2xx response body into result, requiring the
// payload to be a non-empty JSON object. Upstreams occasionally serve "{}"
// or "null" with a 200 during incidents; treating those as valid empty
// results would hide the outage.
func decodeObjectBody(body io.Reader, result interface{}) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("malformed response body: %w", err)
	}
	if len(fields) == 0 {
		return fmt.Errorf("response body is not a non-empty JSON object")
	}

	return json.Unmarshal(data, result)
}

// MovieClient talks to the TMDb REST API.
//
// A client-side rate limiter smooths outbound request bursts; HTTP 429 from
// the provider is still surfaced as *RateLimitError without retrying, so
// callers (and the circuit breaker above them) decide how to back off.
//
// Thread safety: safe for concurrent use.
type MovieClient struct {
	baseURL      string
	imageBaseURL string
	apiKey       string
	client       *http.Client
	limiter      *rate.Limiter
}

// NewMovieClient creates a TMDb client from configuration.
// Returns *ConfigurationError when the API key is missing.
func NewMovieClient(cfg *config.TMDbConfig) (*MovieClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &ConfigurationError{Provider: tmdbProvider, Reason: "api_key is empty"}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &MovieClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		imageBaseURL: cfg.ImageBaseURL,
		apiKey:       cfg.APIKey,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: limiter,
	}, nil
}

// SearchMovies queries /search/movie. The query must be non-empty; language
// and page fall back to "en-US" and 1 when unset.
func (c *MovieClient) SearchMovies(ctx context.Context, query, language string, page int) (*models.MovieSearchResults, error) {
	if language == "" {
		language = "en-US"
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("language", language)
	params.Set("page", strconv.Itoa(page))

	var list tmdb.MovieList
	if err := c.makeRequest(ctx, "search_movies", "/search/movie", params, &list); err != nil {
		return nil, err
	}

	return &models.MovieSearchResults{
		MovieCollection: *c.mapMovieList(&list, page),
		Query:           query,
	}, nil
}

// PopularMovies queries /movie/popular. Region is an optional ISO 3166-1
// country code; language and page default as in SearchMovies.
func (c *MovieClient) PopularMovies(ctx context.Context, language, region string, page int) (*models.MovieCollection, error) {
	if language == "" {
		language = "en-US"
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("language", language)
	params.Set("page", strconv.Itoa(page))
	if region != "" {
		params.Set("region", region)
	}

	var list tmdb.MovieList
	if err := c.makeRequest(ctx, "popular_movies", "/movie/popular", params, &list); err != nil {
		return nil, err
	}

	return c.mapMovieList(&list, page), nil
}

// makeRequest performs a GET against the TMDb API and decodes the JSON body
// into result. It applies the client-side rate limiter, classifies HTTP 429
// as *RateLimitError, other non-200 statuses and malformed bodies as
// *ProviderError, and records request metrics.
func (c *MovieClient) makeRequest(ctx context.Context, operation, path string, params url.Values, result interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &ProviderError{Provider: tmdbProvider, Operation: operation, Err: err}
		}
	}

	params.Set("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return &ProviderError{Provider: tmdbProvider, Operation: operation, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordProviderRequest(tmdbProvider, operation, "error", time.Since(start).Seconds())
		return &ProviderError{Provider: tmdbProvider, Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	elapsed := time.Since(start).Seconds()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		metrics.RecordProviderRequest(tmdbProvider, operation, "rate_limited", elapsed)
		metrics.ProviderRateLimited.WithLabelValues(tmdbProvider).Inc()
		return &RateLimitError{Provider: tmdbProvider, RetryAfter: parseRetryAfter(resp.Header)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		metrics.RecordProviderRequest(tmdbProvider, operation, "error", elapsed)
		body := readBodyForError(resp.Body)
		return &ProviderError{
			Provider:  tmdbProvider,
			Operation: operation,
			Status:    resp.StatusCode,
			Err:       fmt.Errorf("unexpected response: %s", string(body)),
		}
	}

	if err := decodeObjectBody(resp.Body, result); err != nil {
		metrics.RecordProviderRequest(tmdbProvider, operation, "error", elapsed)
		return &ProviderError{
			Provider:  tmdbProvider,
			Operation: operation,
			Status:    resp.StatusCode,
			Err:       err,
		}
	}

	metrics.RecordProviderRequest(tmdbProvider, operation, "success", elapsed)
	return nil
}

// mapMovieList converts a TMDb wire response into the provider-agnostic
// collection. Pagination fields the provider omitted fall back to the
// requested page, a single page, and the returned item count.
func (c *MovieClient) mapMovieList(list *tmdb.MovieList, requestedPage int) *models.MovieCollection {
	out := &models.MovieCollection{
		Page:         requestedPage,
		TotalPages:   1,
		TotalResults: len(list.Results),
		Items:        make([]models.MovieSummary, 0, len(list.Results)),
	}
	if list.Page != nil {
		out.Page = *list.Page
	}
	if list.TotalPages != nil {
		out.TotalPages = *list.TotalPages
	}
	if list.TotalResults != nil {
		out.TotalResults = *list.TotalResults
	}

	for i := range list.Results {
		out.Items = append(out.Items, c.mapMovie(&list.Results[i]))
	}
	return out
}

func (c *MovieClient) mapMovie(m *tmdb.Movie) models.MovieSummary {
	title := m.Title
	if title == "" {
		title = m.Name
	}

	summary := models.MovieSummary{
		ID:          strconv.FormatInt(m.ID, 10),
		Title:       title,
		Overview:    m.Overview,
		ReleaseDate: m.ReleaseDate,
		Language:    m.OriginalLanguage,
		Popularity:  m.Popularity,
		VoteAverage: m.VoteAverage,
		VoteCount:   m.VoteCount,
	}

	if m.PosterPath != nil && *m.PosterPath != "" {
		posterURL := c.imageBaseURL + *m.PosterPath
		summary.PosterURL = &posterURL
	}
	return summary
}
