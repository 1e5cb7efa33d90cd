// Soundpath - Personalized Media Recommendations and Discovery
// Copyright 2026 Soundpath Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundpath/soundpath

package discovery

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/soundpath/soundpath/internal/cache"
	"github.com/soundpath/soundpath/internal/models"
)

type stubMovieProvider struct {
	popularCalls int
	searchCalls  int
	popularSize  int
	err          error
}

func (s *stubMovieProvider) PopularMovies(_ context.Context, language, region string, page int) (*models.MovieCollection, error) {
	s.popularCalls++
	if s.err != nil {
		return nil, s.err
	}
	size := s.popularSize
	if size == 0 {
		size = 20
	}
	coll := &models.MovieCollection{Page: page, TotalPages: 10, TotalResults: 200}
	for i := 0; i < size; i++ {
		coll.Items = append(coll.Items, models.MovieSummary{
			ID:    fmt.Sprintf("%d", i+1),
			Title: fmt.Sprintf("Movie %d", i+1),
		})
	}
	return coll, nil
}

func (s *stubMovieProvider) SearchMovies(_ context.Context, query, language string, page int) (*models.MovieSearchResults, error) {
	s.searchCalls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.MovieSearchResults{
		MovieCollection: models.MovieCollection{Page: page, Items: []models.MovieSummary{{ID: "1", Title: query}}},
		Query:           query,
	}, nil
}

type stubMusicProvider struct {
	popularCalls int
	searchCalls  int
}

func (s *stubMusicProvider) PopularMusic(_ context.Context, limit int, market string) (*models.MusicCollection, error) {
	s.popularCalls++
	coll := &models.MusicCollection{}
	for i := 0; i < limit; i++ {
		coll.Items = append(coll.Items, models.MusicSummary{
			ID:     fmt.Sprintf("t%d", i+1),
			Name:   fmt.Sprintf("Track %d", i+1),
			Source: "album",
		})
	}
	return coll, nil
}

func (s *stubMusicProvider) SearchTracks(_ context.Context, query string, limit int, market string) (*models.MusicSearchResults, error) {
	s.searchCalls++
	return &models.MusicSearchResults{
		MusicCollection: models.MusicCollection{Items: []models.MusicSummary{{ID: "t1", Name: query}}},
		Query:           query,
	}, nil
}

func newTestService(t *testing.T, movies MovieProvider, music MusicProvider, now func() time.Time) *Service {
	t.Helper()
	var c *cache.Cache
	if now != nil {
		c = cache.NewWithClock(5*time.Minute, now)
	} else {
		c = cache.New(5 * time.Minute)
	}
	t.Cleanup(c.Stop)
	return NewService(movies, music, c)
}

func TestPopularMoviesCaching(t *testing.T) {
	movies := &stubMovieProvider{}
	svc := newTestService(t, movies, nil, nil)
	ctx := context.Background()

	first, err := svc.PopularMovies(ctx, "en-US", "US", 1, 10)
	if err != nil {
		t.Fatalf("PopularMovies() error = %v", err)
	}
	if len(first.Items) != 10 {
		t.Errorf("len(Items) = %d, want 10 (truncated)", len(first.Items))
	}

	second, err := svc.PopularMovies(ctx, "en-US", "US", 1, 10)
	if err != nil {
		t.Fatalf("PopularMovies() second call error = %v", err)
	}
	if movies.popularCalls != 1 {
		t.Errorf("upstream calls = %d, want 1 (second call cached)", movies.popularCalls)
	}
	if len(second.Items) != 10 {
		t.Errorf("cached len(Items) = %d, want 10", len(second.Items))
	}
}

func TestPopularMoviesCacheIsolation(t *testing.T) {
	movies := &stubMovieProvider{}
	svc := newTestService(t, movies, nil, nil)
	ctx := context.Background()

	first, err := svc.PopularMovies(ctx, "en-US", "", 1, 5)
	if err != nil {
		t.Fatalf("PopularMovies() error = %v", err)
	}

	// Mutate the returned copy; the cached entry must be unaffected.
	first.Items[0].Title = "mutated"
	overview := "injected"
	first.Items[0].Overview = &overview

	second, err := svc.PopularMovies(ctx, "en-US", "", 1, 5)
	if err != nil {
		t.Fatalf("PopularMovies() second call error = %v", err)
	}
	if second.Items[0].Title != "Movie 1" {
		t.Errorf("cached Title = %q, caller mutation leaked into cache", second.Items[0].Title)
	}
	if second.Items[0].Overview != nil {
		t.Error("cached Overview mutated through returned pointer")
	}
}

func TestPopularMoviesKeyVariants(t *testing.T) {
	movies := &stubMovieProvider{}
	svc := newTestService(t, movies, nil, nil)
	ctx := context.Background()

	// Region is case-normalized: "us" and "US" share a cache entry.
	if _, err := svc.PopularMovies(ctx, "en-US", "us", 1, 5); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.PopularMovies(ctx, "en-US", "US", 1, 5); err != nil {
		t.Fatal(err)
	}
	if movies.popularCalls != 1 {
		t.Errorf("upstream calls = %d, want 1 (region case-insensitive)", movies.popularCalls)
	}

	// A different page is a different entry.
	if _, err := svc.PopularMovies(ctx, "en-US", "US", 2, 5); err != nil {
		t.Fatal(err)
	}
	if movies.popularCalls != 2 {
		t.Errorf("upstream calls = %d, want 2 (page varies key)", movies.popularCalls)
	}

	// A different limit is a different entry.
	if _, err := svc.PopularMovies(ctx, "en-US", "US", 1, 20); err != nil {
		t.Fatal(err)
	}
	if movies.popularCalls != 3 {
		t.Errorf("upstream calls = %d, want 3 (limit varies key)", movies.popularCalls)
	}
}

func TestPopularMoviesCacheExpiry(t *testing.T) {
	movies := &stubMovieProvider{}
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, movies, nil, func() time.Time { return current })
	ctx := context.Background()

	if _, err := svc.PopularMovies(ctx, "en-US", "", 1, 5); err != nil {
		t.Fatal(err)
	}
	current = current.Add(5*time.Minute + time.Second)
	if _, err := svc.PopularMovies(ctx, "en-US", "", 1, 5); err != nil {
		t.Fatal(err)
	}
	if movies.popularCalls != 2 {
		t.Errorf("upstream calls = %d, want 2 after TTL expiry", movies.popularCalls)
	}
}

func TestSearchMoviesNeverCached(t *testing.T) {
	movies := &stubMovieProvider{}
	svc := newTestService(t, movies, nil, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		results, err := svc.SearchMovies(ctx, "dune", "en-US", 1)
		if err != nil {
			t.Fatalf("SearchMovies() error = %v", err)
		}
		if results.Query != "dune" {
			t.Errorf("Query = %q, want dune", results.Query)
		}
	}
	if movies.searchCalls != 2 {
		t.Errorf("upstream calls = %d, want 2 (search is uncached)", movies.searchCalls)
	}
}

func TestPopularMusicCaching(t *testing.T) {
	music := &stubMusicProvider{}
	svc := newTestService(t, nil, music, nil)
	ctx := context.Background()

	first, err := svc.PopularMusic(ctx, 10, "se")
	if err != nil {
		t.Fatalf("PopularMusic() error = %v", err)
	}
	if len(first.Items) != 10 {
		t.Errorf("len(Items) = %d, want 10", len(first.Items))
	}

	// Same limit, market case-normalized: served from cache.
	second, err := svc.PopularMusic(ctx, 10, "SE")
	if err != nil {
		t.Fatalf("PopularMusic() error = %v", err)
	}
	if len(second.Items) != 10 {
		t.Errorf("len(Items) = %d, want 10", len(second.Items))
	}
	if music.popularCalls != 1 {
		t.Errorf("upstream calls = %d, want 1", music.popularCalls)
	}

	// A different limit is a different entry.
	if _, err := svc.PopularMusic(ctx, 25, "SE"); err != nil {
		t.Fatalf("PopularMusic() error = %v", err)
	}
	if music.popularCalls != 2 {
		t.Errorf("upstream calls = %d, want 2 (limit varies key)", music.popularCalls)
	}
}

func TestServiceUnconfiguredProviders(t *testing.T) {
	svc := newTestService(t, nil, nil, nil)
	ctx := context.Background()

	var cfgErr *ConfigurationError

	if _, err := svc.PopularMovies(ctx, "", "", 1, 10); !errors.As(err, &cfgErr) {
		t.Errorf("PopularMovies error = %T, want *ConfigurationError", err)
	}
	if _, err := svc.SearchMovies(ctx, "q", "", 1); !errors.As(err, &cfgErr) {
		t.Errorf("SearchMovies error = %T, want *ConfigurationError", err)
	}
	if _, err := svc.PopularMusic(ctx, 10, ""); !errors.As(err, &cfgErr) {
		t.Errorf("PopularMusic error = %T, want *ConfigurationError", err)
	}
	if _, err := svc.SearchTracks(ctx, "q", 10, ""); !errors.As(err, &cfgErr) {
		t.Errorf("SearchTracks error = %T, want *ConfigurationError", err)
	}
}

func TestPopularMoviesUpstreamErrorNotCached(t *testing.T) {
	movies := &stubMovieProvider{err: &ProviderError{Provider: "tmdb", Operation: "popular_movies", Status: 500, Err: errors.New("boom")}}
	svc := newTestService(t, movies, nil, nil)
	ctx := context.Background()

	if _, err := svc.PopularMovies(ctx, "", "", 1, 10); err == nil {
		t.Fatal("PopularMovies() should fail when upstream fails")
	}

	// Recovery: a later successful fetch is not shadowed by a cached error.
	movies.err = nil
	coll, err := svc.PopularMovies(ctx, "", "", 1, 10)
	if err != nil {
		t.Fatalf("PopularMovies() after recovery error = %v", err)
	}
	if len(coll.Items) != 10 {
		t.Errorf("len(Items) = %d, want 10", len(coll.Items))
	}
	if movies.popularCalls != 2 {
		t.Errorf("upstream calls = %d, want 2 (failure not cached)", movies.popularCalls)
	}
}
