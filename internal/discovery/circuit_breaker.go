// Soundpath - Personalized Media Recommendations and Discovery
// Copyright 2026 Soundpath Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundpath/soundpath

package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/soundpath/soundpath/internal/logging"
	"github.com/soundpath/soundpath/internal/metrics"
	"github.com/soundpath/soundpath/internal/models"
)

// MovieProvider is the movie metadata surface the facade consumes. It is
// implemented by MovieClient and by MovieBreaker, and by mocks in tests.
type MovieProvider interface {
	SearchMovies(ctx context.Context, query, language string, page int) (*models.MovieSearchResults, error)
	PopularMovies(ctx context.Context, language, region string, page int) (*models.MovieCollection, error)
}

// MusicProvider is the music metadata surface the facade consumes.
type MusicProvider interface {
	SearchTracks(ctx context.Context, query string, limit int, market string) (*models.MusicSearchResults, error)
	PopularMusic(ctx context.Context, limit int, market string) (*models.MusicCollection, error)
}

// newBreaker builds a circuit breaker with the shared provider policy:
// 3 concurrent probes in half-open state, counts reset every minute while
// closed, 2 minutes open before probing, and a trip at a 60% failure rate
// over at least 10 requests.
//
// DETERMINISM NOTE: the breaker uses real time for its interval and timeout.
// Unit tests should exercise the wrapped client directly.
func newBreaker(name string) *gobreaker.CircuitBreaker[interface{}] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed

	return gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Str("breaker", name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})
}

// executeBreaker runs fn through cb and records result metrics. Rejections
// from an open circuit come back as *ProviderError so callers see the same
// error taxonomy as for a failing upstream.
func executeBreaker(cb *gobreaker.CircuitBreaker[interface{}], name, provider string, fn func() (interface{}, error)) (interface{}, error) {
	result, err := cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(name, "rejected").Inc()
			return nil, &ProviderError{
				Provider:  provider,
				Operation: "circuit_breaker",
				Err:       fmt.Errorf("circuit open: %w", err),
			}
		}
		metrics.CircuitBreakerRequests.WithLabelValues(name, "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(name, "success").Inc()
	return result, nil
}

// castResult type-casts a breaker result with error checking.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// MovieBreaker wraps a MovieProvider with circuit breaker protection.
type MovieBreaker struct {
	provider MovieProvider
	cb       *gobreaker.CircuitBreaker[interface{}]
	name     string
}

// NewMovieBreaker wraps the given provider.
func NewMovieBreaker(provider MovieProvider) *MovieBreaker {
	name := "tmdb-api"
	return &MovieBreaker{
		provider: provider,
		cb:       newBreaker(name),
		name:     name,
	}
}

// SearchMovies searches movies with circuit breaker protection.
func (b *MovieBreaker) SearchMovies(ctx context.Context, query, language string, page int) (*models.MovieSearchResults, error) {
	return castResult[models.MovieSearchResults](executeBreaker(b.cb, b.name, tmdbProvider, func() (interface{}, error) {
		return b.provider.SearchMovies(ctx, query, language, page)
	}))
}

// PopularMovies fetches popular movies with circuit breaker protection.
func (b *MovieBreaker) PopularMovies(ctx context.Context, language, region string, page int) (*models.MovieCollection, error) {
	return castResult[models.MovieCollection](executeBreaker(b.cb, b.name, tmdbProvider, func() (interface{}, error) {
		return b.provider.PopularMovies(ctx, language, region, page)
	}))
}

// MusicBreaker wraps a MusicProvider with circuit breaker protection.
type MusicBreaker struct {
	provider MusicProvider
	cb       *gobreaker.CircuitBreaker[interface{}]
	name     string
}

// NewMusicBreaker wraps the given provider.
func NewMusicBreaker(provider MusicProvider) *MusicBreaker {
	name := "spotify-api"
	return &MusicBreaker{
		provider: provider,
		cb:       newBreaker(name),
		name:     name,
	}
}

// SearchTracks searches tracks with circuit breaker protection.
func (b *MusicBreaker) SearchTracks(ctx context.Context, query string, limit int, market string) (*models.MusicSearchResults, error) {
	return castResult[models.MusicSearchResults](executeBreaker(b.cb, b.name, spotifyProvider, func() (interface{}, error) {
		return b.provider.SearchTracks(ctx, query, limit, market)
	}))
}

// PopularMusic fetches featured music with circuit breaker protection.
func (b *MusicBreaker) PopularMusic(ctx context.Context, limit int, market string) (*models.MusicCollection, error) {
	return castResult[models.MusicCollection](executeBreaker(b.cb, b.name, spotifyProvider, func() (interface{}, error) {
		return b.provider.PopularMusic(ctx, limit, market)
	}))
}
