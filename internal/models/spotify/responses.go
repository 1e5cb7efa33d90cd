// Soundpath - Personalized Media Recommendations and Discovery
// Copyright 2026 Soundpath Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundpath/soundpath

// Package spotify defines the wire format of Spotify Web API responses.
package spotify

// TokenResponse is the body returned by the accounts service for the
// client-credentials grant.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// SearchResponse is the response shape of /v1/search?type=track.
type SearchResponse struct {
	Tracks TrackPage `json:"tracks"`
}

// NewReleasesResponse is the response shape of /v1/browse/new-releases.
type NewReleasesResponse struct {
	Albums AlbumPage `json:"albums"`
}

// TrackPage is a paged list of tracks.
type TrackPage struct {
	Total  *int    `json:"total"`
	Limit  *int    `json:"limit"`
	Offset *int    `json:"offset"`
	Items  []Track `json:"items"`
}

// AlbumPage is a paged list of albums.
type AlbumPage struct {
	Total  *int    `json:"total"`
	Limit  *int    `json:"limit"`
	Offset *int    `json:"offset"`
	Items  []Album `json:"items"`
}

// Track is a single track object.
type Track struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Artists      []Artist          `json:"artists"`
	Album        Album             `json:"album"`
	PreviewURL   *string           `json:"preview_url"`
	ExternalURLs map[string]string `json:"external_urls"`
	Popularity   *int              `json:"popularity"`
}

// Album is a single album object. AlbumType distinguishes "album",
// "single", and "compilation".
type Album struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	AlbumType    string            `json:"album_type"`
	Artists      []Artist          `json:"artists"`
	Images       []Image           `json:"images"`
	ExternalURLs map[string]string `json:"external_urls"`
	Popularity   *int              `json:"popularity"`
}

// Artist is the subset of the artist object the mapping needs.
type Artist struct {
	Name string `json:"name"`
}

// Image is a cover-art entry; Spotify orders these widest first.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
