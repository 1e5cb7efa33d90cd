// Soundpath - Personalized Media Recommendations and Discovery
// Copyright 2026 Soundpath Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundpath/soundpath

// Package tmdb defines the wire format of TMDb API responses.
//
// Fields the provider may omit are pointers; the client applies explicit
// defaults when mapping to the provider-agnostic models instead of failing
// the whole response.
package tmdb

// MovieList is the response shape shared by /search/movie and /movie/popular.
type MovieList struct {
	Page         *int    `json:"page"`
	TotalPages   *int    `json:"total_pages"`
	TotalResults *int    `json:"total_results"`
	Results      []Movie `json:"results"`
}

// Movie is a single movie entry in a TMDb list response.
type Movie struct {
	ID int64 `json:"id"`

	// Title is set for movies; Name is the TV-series equivalent that the
	// search endpoint can return for mixed results.
	Title string `json:"title"`
	Name  string `json:"name"`

	Overview         *string  `json:"overview"`
	ReleaseDate      *string  `json:"release_date"`
	OriginalLanguage *string  `json:"original_language"`
	Popularity       *float64 `json:"popularity"`
	PosterPath       *string  `json:"poster_path"`
	VoteAverage      *float64 `json:"vote_average"`
	VoteCount        *int     `json:"vote_count"`
}
