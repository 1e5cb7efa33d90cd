// Soundpath - Personalized Media Recommendations and Discovery
// Copyright 2026 Soundpath Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundpath/soundpath

package api

// recommendationsRequest carries the validated parameters of
// GET /api/v1/recommendations/{user_id}.
type recommendationsRequest struct {
	UserID string `validate:"required,min=1,max=256"`
	Limit  int    `validate:"min=1,max=100"`
}

// popularMoviesRequest carries the validated parameters of
// GET /api/v1/movies/popular.
type popularMoviesRequest struct {
	Language string `validate:"omitempty,max=16"`
	Region   string `validate:"omitempty,len=2,alpha"`
	Page     int    `validate:"min=1,max=500"`
	Limit    int    `validate:"min=1,max=100"`
}

// searchMoviesRequest carries the validated parameters of
// GET /api/v1/movies/search.
type searchMoviesRequest struct {
	Query    string `validate:"required,min=1,max=256"`
	Language string `validate:"omitempty,max=16"`
	Page     int    `validate:"min=1,max=500"`
}

// popularMusicRequest carries the validated parameters of
// GET /api/v1/music/popular.
type popularMusicRequest struct {
	Limit  int    `validate:"min=1,max=50"`
	Market string `validate:"omitempty,len=2,alpha"`
}

// searchTracksRequest carries the validated parameters of
// GET /api/v1/music/search.
type searchTracksRequest struct {
	Query  string `validate:"required,min=1,max=256"`
	Limit  int    `validate:"min=1,max=50"`
	Market string `validate:"omitempty,len=2,alpha"`
}
