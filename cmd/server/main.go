// Soundpath - Personalized Media Recommendations and Discovery
// Copyright 2026 Soundpath Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundpath/soundpath

// Package main is the entry point for the Soundpath serving layer.
//
// Soundpath serves personalized media recommendations from a pre-trained
// model artifact and fronts movie/music metadata providers behind a cached
// discovery API.
//
// # Startup order
//
//  1. Configuration: Koanf v2 layered loading (defaults, config.yaml,
//     environment variables)
//  2. Logging: zerolog, level and format from configuration
//  3. Recommendation model: artifact loaded from RECOMMEND_MODEL_PATH;
//     a missing artifact disables the recommendations endpoint but the
//     server still starts
//  4. Provider clients: TMDb and Spotify, each optional; a provider
//     without credentials is disabled rather than fatal
//  5. HTTP server: Chi router, graceful shutdown on SIGINT/SIGTERM
//
// # Configuration
//
// Key environment variables:
//
//	TMDB_API_KEY           movie provider credentials
//	SPOTIFY_CLIENT_ID      music provider credentials
//	SPOTIFY_CLIENT_SECRET
//	RECOMMEND_MODEL_PATH   trained model artifact (JSON)
//	HTTP_PORT              listen port (default 8080)
//	LOG_LEVEL              debug, info, warn, error
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soundpath/soundpath/internal/api"
	"github.com/soundpath/soundpath/internal/cache"
	"github.com/soundpath/soundpath/internal/config"
	"github.com/soundpath/soundpath/internal/discovery"
	"github.com/soundpath/soundpath/internal/logging"
	"github.com/soundpath/soundpath/internal/recommend"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().Str("environment", cfg.Server.Environment).Msg("starting soundpath")

	// Model artifact. Absence is a degraded mode, not a startup failure:
	// discovery endpoints work without it.
	var engine *recommend.Engine
	engine, err = recommend.NewEngineFromFile(cfg.Recommend.ModelPath)
	if err != nil {
		logging.Warn().Err(err).Str("path", cfg.Recommend.ModelPath).
			Msg("recommendation model unavailable, recommendations endpoint disabled")
		engine = nil
	}

	// Provider clients. Each is optional and independently wrapped in a
	// circuit breaker.
	var movies discovery.MovieProvider
	if client, err := discovery.NewMovieClient(&cfg.TMDb); err != nil {
		logging.Warn().Err(err).Msg("movie provider disabled")
	} else {
		movies = discovery.NewMovieBreaker(client)
		logging.Info().Msg("movie provider enabled")
	}

	var music discovery.MusicProvider
	if client, err := discovery.NewMusicClient(&cfg.Spotify); err != nil {
		logging.Warn().Err(err).Msg("music provider disabled")
	} else {
		music = discovery.NewMusicBreaker(client)
		logging.Info().Msg("music provider enabled")
	}

	discoveryCache := cache.New(cfg.Cache.PopularTTL)
	defer discoveryCache.Stop()

	svc := discovery.NewService(movies, music, discoveryCache)
	handler := api.NewHandler(cfg, svc, engine)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(cfg, handler),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}

	logging.Info().Msg("soundpath stopped")
}
