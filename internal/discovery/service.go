// Soundpath - Personalized Media Recommendations and Discovery
// Copyright 2026 Soundpath Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundpath/soundpath

// Package discovery provides the content discovery layer: provider clients
// for movie and music metadata, circuit breaker protection, and a caching
// facade that the HTTP API consumes.
package discovery

import (
	"context"
	"strings"

	"github.com/soundpath/soundpath/internal/cache"
	"github.com/soundpath/soundpath/internal/logging"
	"github.com/soundpath/soundpath/internal/metrics"
	"github.com/soundpath/soundpath/internal/models"
)

// Service is the discovery facade. Popular feeds are cached with a TTL;
// search queries always go upstream. Cached collections are handed out as
// deep copies so callers can never mutate shared cache state.
//
// Either provider may be nil when its credentials are absent; the
// corresponding operations then fail with *ConfigurationError.
type Service struct {
	movies MovieProvider
	music  MusicProvider
	cache  *cache.Cache
}

// NewService builds the facade. A nil provider disables that provider's
// operations without affecting the other.
func NewService(movies MovieProvider, music MusicProvider, c *cache.Cache) *Service {
	return &Service{
		movies: movies,
		music:  music,
		cache:  c,
	}
}

type popularMoviesKey struct {
	Language string `json:"language"`
	Region   string `json:"region"`
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
}

type popularMusicKey struct {
	Market string `json:"market"`
	Limit  int    `json:"limit"`
}

// PopularMovies returns a popular-movies page, truncated to limit items.
// Responses are cached per (language, region, page, limit), already
// truncated.
func (s *Service) PopularMovies(ctx context.Context, language, region string, page, limit int) (*models.MovieCollection, error) {
	if s.movies == nil {
		return nil, &ConfigurationError{Provider: tmdbProvider, Reason: "movie provider is not configured"}
	}
	if page < 1 {
		page = 1
	}
	region = strings.ToUpper(region)

	key := cache.GenerateKey("popular_movies", popularMoviesKey{Language: language, Region: region, Page: page, Limit: limit})
	if cached, ok := s.cache.Get(key); ok {
		if coll, ok := cached.(*models.MovieCollection); ok {
			metrics.CacheHits.WithLabelValues("popular_movies").Inc()
			return coll.Clone(), nil
		}
	}
	metrics.CacheMisses.WithLabelValues("popular_movies").Inc()

	coll, err := s.movies.PopularMovies(ctx, language, region, page)
	if err != nil {
		return nil, err
	}
	coll = truncateMovies(coll, limit)

	s.cache.Set(key, coll)
	logging.Debug().Str("language", language).Str("region", region).Int("page", page).
		Int("items", len(coll.Items)).Msg("cached popular movies page")

	return coll.Clone(), nil
}

// SearchMovies forwards a movie search upstream. Search results are never
// cached: queries have long-tail cardinality and results change often.
func (s *Service) SearchMovies(ctx context.Context, query, language string, page int) (*models.MovieSearchResults, error) {
	if s.movies == nil {
		return nil, &ConfigurationError{Provider: tmdbProvider, Reason: "movie provider is not configured"}
	}
	return s.movies.SearchMovies(ctx, query, language, page)
}

// PopularMusic returns the current featured-music feed, truncated to limit
// items. Responses are cached per (market, limit), already truncated.
func (s *Service) PopularMusic(ctx context.Context, limit int, market string) (*models.MusicCollection, error) {
	if s.music == nil {
		return nil, &ConfigurationError{Provider: spotifyProvider, Reason: "music provider is not configured"}
	}
	market = strings.ToUpper(market)

	key := cache.GenerateKey("popular_music", popularMusicKey{Market: market, Limit: limit})
	if cached, ok := s.cache.Get(key); ok {
		if coll, ok := cached.(*models.MusicCollection); ok {
			metrics.CacheHits.WithLabelValues("popular_music").Inc()
			return coll.Clone(), nil
		}
	}
	metrics.CacheMisses.WithLabelValues("popular_music").Inc()

	coll, err := s.music.PopularMusic(ctx, limit, market)
	if err != nil {
		return nil, err
	}
	coll = truncateMusic(coll, limit)

	s.cache.Set(key, coll)
	logging.Debug().Str("market", market).Int("items", len(coll.Items)).Msg("cached popular music feed")

	return coll.Clone(), nil
}

// SearchTracks forwards a track search upstream, uncached.
func (s *Service) SearchTracks(ctx context.Context, query string, limit int, market string) (*models.MusicSearchResults, error) {
	if s.music == nil {
		return nil, &ConfigurationError{Provider: spotifyProvider, Reason: "music provider is not configured"}
	}
	return s.music.SearchTracks(ctx, query, limit, strings.ToUpper(market))
}

func truncateMovies(coll *models.MovieCollection, limit int) *models.MovieCollection {
	if limit > 0 && len(coll.Items) > limit {
		coll.Items = coll.Items[:limit]
	}
	return coll
}

func truncateMusic(coll *models.MusicCollection, limit int) *models.MusicCollection {
	if limit > 0 && len(coll.Items) > limit {
		coll.Items = coll.Items[:limit]
	}
	return coll
}
