// Soundpath - Personalized Media Recommendations and Discovery
// Copyright 2026 Soundpath Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundpath/soundpath

package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/soundpath/soundpath/internal/config"
	"github.com/soundpath/soundpath/internal/logging"
	"github.com/soundpath/soundpath/internal/metrics"
	"github.com/soundpath/soundpath/internal/models"
	spotifymodels "github.com/soundpath/soundpath/internal/models/spotify"
)

const spotifyProvider = "spotify"

// tokenExpiryMargin is subtracted from the provider's expires_in so a token
// is refreshed before it actually lapses mid-request.
const tokenExpiryMargin = 30 * time.Second

// tokenMinimumLifetime floors the computed token lifetime so an absurdly
// short expires_in never produces an already-expired token.
const tokenMinimumLifetime = 5 * time.Second

// spotifyMaxPageSize is the provider's hard cap on limit for search and
// browse endpoints.
const spotifyMaxPageSize = 50

// MusicClient talks to the Spotify Web API using the client-credentials
// OAuth flow.
//
// Token lifecycle: an access token is fetched lazily on first use and reused
// until tokenExpiryMargin before its expiry. Concurrent refreshes collapse
// into a single upstream request. When the API rejects a token with 401 the
// client refreshes once and retries the request a single time.
//
// Thread safety: safe for concurrent use.
type MusicClient struct {
	authBaseURL  string
	apiBaseURL   string
	clientID     string
	clientSecret string
	client       *http.Client

	// now is replaceable in tests for deterministic expiry behavior.
	now func() time.Time

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time

	refreshGroup singleflight.Group
}

// NewMusicClient creates a Spotify client from configuration.
// Returns *ConfigurationError when either credential is missing.
func NewMusicClient(cfg *config.SpotifyConfig) (*MusicClient, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, &ConfigurationError{Provider: spotifyProvider, Reason: "client_id is empty"}
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, &ConfigurationError{Provider: spotifyProvider, Reason: "client_secret is empty"}
	}

	return &MusicClient{
		authBaseURL:  strings.TrimRight(cfg.AuthBaseURL, "/"),
		apiBaseURL:   strings.TrimRight(cfg.APIBaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		now: time.Now,
	}, nil
}

// SearchTracks queries /v1/search?type=track. The limit is clamped to the
// provider's 1..50 range; market is an optional ISO 3166-1 country code.
func (c *MusicClient) SearchTracks(ctx context.Context, query string, limit int, market string) (*models.MusicSearchResults, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(clampPageSize(limit)))
	if market != "" {
		params.Set("market", market)
	}

	var resp spotifymodels.SearchResponse
	if err := c.makeRequest(ctx, "search_tracks", "/v1/search", params, &resp); err != nil {
		return nil, err
	}

	return &models.MusicSearchResults{
		MusicCollection: *mapTrackPage(&resp.Tracks),
		Query:           query,
	}, nil
}

// PopularMusic returns currently featured music via /v1/browse/new-releases.
// The client-credentials flow has no user context, so new releases stand in
// for a personalized "popular" feed.
func (c *MusicClient) PopularMusic(ctx context.Context, limit int, market string) (*models.MusicCollection, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(clampPageSize(limit)))
	if market != "" {
		params.Set("country", market)
	}

	var resp spotifymodels.NewReleasesResponse
	if err := c.makeRequest(ctx, "popular_music", "/v1/browse/new-releases", params, &resp); err != nil {
		return nil, err
	}

	return mapAlbumPage(&resp.Albums), nil
}

func clampPageSize(limit int) int {
	if limit < 1 {
		return 20
	}
	if limit > spotifyMaxPageSize {
		return spotifyMaxPageSize
	}
	return limit
}

// token returns a valid access token, fetching one when none is cached or
// the cached one is within the expiry margin. Concurrent callers share a
// single refresh via singleflight.
func (c *MusicClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.accessToken != "" && c.now().Before(c.tokenExpiry) {
		tok := c.accessToken
		c.mu.Unlock()
		return tok, nil
	}
	c.mu.Unlock()

	v, err, _ := c.refreshGroup.Do("token", func() (interface{}, error) {
		// Re-check under the lock: a concurrent flight may have refreshed
		// between our check and joining this one.
		c.mu.Lock()
		if c.accessToken != "" && c.now().Before(c.tokenExpiry) {
			tok := c.accessToken
			c.mu.Unlock()
			return tok, nil
		}
		c.mu.Unlock()

		tok, expiry, err := c.requestToken(ctx)
		if err != nil {
			metrics.TokenRefreshes.WithLabelValues(spotifyProvider, "failure").Inc()
			return "", err
		}
		metrics.TokenRefreshes.WithLabelValues(spotifyProvider, "success").Inc()

		c.mu.Lock()
		c.accessToken = tok
		c.tokenExpiry = expiry
		c.mu.Unlock()
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// invalidate drops the cached token if it is still the one that was just
// rejected, so a concurrent refresh's fresh token is never discarded.
func (c *MusicClient) invalidate(rejected string) {
	c.mu.Lock()
	if c.accessToken == rejected {
		c.accessToken = ""
		c.tokenExpiry = time.Time{}
	}
	c.mu.Unlock()
}

// requestToken performs the client-credentials grant against the accounts
// service. The returned expiry applies the safety margin and minimum
// lifetime floor.
func (c *MusicClient) requestToken(ctx context.Context) (string, time.Time, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	reqURL := c.authBaseURL + "/api/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, &ProviderError{Provider: spotifyProvider, Operation: "token", Err: err}
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", time.Time{}, &ProviderError{Provider: spotifyProvider, Operation: "token", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		metrics.ProviderRateLimited.WithLabelValues(spotifyProvider).Inc()
		return "", time.Time{}, &RateLimitError{Provider: spotifyProvider, RetryAfter: parseRetryAfter(resp.Header)}
	case resp.StatusCode != http.StatusOK:
		body := readBodyForError(resp.Body)
		return "", time.Time{}, &ProviderError{
			Provider:  spotifyProvider,
			Operation: "token",
			Status:    resp.StatusCode,
			Err:       fmt.Errorf("token request rejected: %s", string(body)),
		}
	}

	var tok spotifymodels.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", time.Time{}, &ProviderError{
			Provider:  spotifyProvider,
			Operation: "token",
			Status:    resp.StatusCode,
			Err:       fmt.Errorf("malformed token response: %w", err),
		}
	}
	if tok.AccessToken == "" {
		return "", time.Time{}, &ProviderError{
			Provider:  spotifyProvider,
			Operation: "token",
			Status:    resp.StatusCode,
			Err:       fmt.Errorf("token response missing access_token"),
		}
	}

	lifetime := time.Duration(tok.ExpiresIn)*time.Second - tokenExpiryMargin
	if lifetime < tokenMinimumLifetime {
		lifetime = tokenMinimumLifetime
	}
	return tok.AccessToken, c.now().Add(lifetime), nil
}

// makeRequest performs an authenticated GET against the Web API and decodes
// the JSON body into result. A 401 triggers exactly one token refresh and
// retry; a second 401 is surfaced as *ProviderError.
func (c *MusicClient) makeRequest(ctx context.Context, operation, path string, params url.Values, result interface{}) error {
	tok, err := c.token(ctx)
	if err != nil {
		return err
	}

	retried := false
	for {
		status, err := c.doAPIRequest(ctx, operation, path, params, tok, result)
		if err == nil {
			return nil
		}
		if status != http.StatusUnauthorized || retried {
			return err
		}

		// Token rejected mid-lifetime. Refresh once and retry.
		logging.Debug().Str("operation", operation).Msg("access token rejected, refreshing")
		retried = true
		c.invalidate(tok)
		tok, err = c.token(ctx)
		if err != nil {
			return err
		}
	}
}

// doAPIRequest executes one attempt. The returned status lets makeRequest
// distinguish a 401 from other failures; it is 0 for transport errors.
func (c *MusicClient) doAPIRequest(ctx context.Context, operation, path string, params url.Values, token string, result interface{}) (int, error) {
	reqURL := fmt.Sprintf("%s%s?%s", c.apiBaseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return 0, &ProviderError{Provider: spotifyProvider, Operation: operation, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordProviderRequest(spotifyProvider, operation, "error", time.Since(start).Seconds())
		return 0, &ProviderError{Provider: spotifyProvider, Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	elapsed := time.Since(start).Seconds()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		metrics.RecordProviderRequest(spotifyProvider, operation, "rate_limited", elapsed)
		metrics.ProviderRateLimited.WithLabelValues(spotifyProvider).Inc()
		return resp.StatusCode, &RateLimitError{Provider: spotifyProvider, RetryAfter: parseRetryAfter(resp.Header)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		metrics.RecordProviderRequest(spotifyProvider, operation, "error", elapsed)
		body := readBodyForError(resp.Body)
		return resp.StatusCode, &ProviderError{
			Provider:  spotifyProvider,
			Operation: operation,
			Status:    resp.StatusCode,
			Err:       fmt.Errorf("unexpected response: %s", string(body)),
		}
	}

	if err := decodeObjectBody(resp.Body, result); err != nil {
		metrics.RecordProviderRequest(spotifyProvider, operation, "error", elapsed)
		return resp.StatusCode, &ProviderError{
			Provider:  spotifyProvider,
			Operation: operation,
			Status:    resp.StatusCode,
			Err:       err,
		}
	}

	metrics.RecordProviderRequest(spotifyProvider, operation, "success", elapsed)
	return resp.StatusCode, nil
}

func mapTrackPage(page *spotifymodels.TrackPage) *models.MusicCollection {
	out := &models.MusicCollection{
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
		Items:  make([]models.MusicSummary, 0, len(page.Items)),
	}
	for i := range page.Items {
		out.Items = append(out.Items, mapTrack(&page.Items[i]))
	}
	return out
}

func mapAlbumPage(page *spotifymodels.AlbumPage) *models.MusicCollection {
	out := &models.MusicCollection{
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
		Items:  make([]models.MusicSummary, 0, len(page.Items)),
	}
	for i := range page.Items {
		out.Items = append(out.Items, mapAlbum(&page.Items[i]))
	}
	return out
}

func mapTrack(t *spotifymodels.Track) models.MusicSummary {
	summary := models.MusicSummary{
		ID:         t.ID,
		Name:       t.Name,
		Artists:    artistNames(t.Artists),
		PreviewURL: t.PreviewURL,
		Popularity: t.Popularity,
		Source:     "track",
	}
	if t.Album.Name != "" {
		album := t.Album.Name
		summary.Album = &album
	}
	if u, ok := t.ExternalURLs["spotify"]; ok && u != "" {
		summary.ExternalURL = &u
	}
	if img := firstImageURL(t.Album.Images); img != "" {
		summary.ImageURL = &img
	}
	return summary
}

func mapAlbum(a *spotifymodels.Album) models.MusicSummary {
	source := a.AlbumType
	if source == "" {
		source = "album"
	}
	summary := models.MusicSummary{
		ID:         a.ID,
		Name:       a.Name,
		Artists:    artistNames(a.Artists),
		Popularity: a.Popularity,
		Source:     source,
	}
	// An album entry is its own parent album.
	if a.Name != "" {
		album := a.Name
		summary.Album = &album
	}
	if u, ok := a.ExternalURLs["spotify"]; ok && u != "" {
		summary.ExternalURL = &u
	}
	if img := firstImageURL(a.Images); img != "" {
		summary.ImageURL = &img
	}
	return summary
}

func artistNames(artists []spotifymodels.Artist) []string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return names
}

// firstImageURL returns the first cover-art URL; Spotify orders images
// widest first so this picks the largest.
func firstImageURL(images []spotifymodels.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
