// Soundpath - Personalized Media Recommendations and Discovery
// Copyright 2026 Soundpath Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundpath/soundpath

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soundpath/soundpath/internal/config"
)

// NewRouter assembles the full HTTP surface.
//
// Routes:
//
//	GET /health                                liveness probe, unthrottled
//	GET /metrics                               Prometheus exposition
//	GET /api/v1/recommendations/{userID}
//	GET /api/v1/movies/popular
//	GET /api/v1/movies/search
//	GET /api/v1/music/popular
//	GET /api/v1/music/search
func NewRouter(cfg *config.Config, handler *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger)

	if len(cfg.Server.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", requestIDHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Probes and metrics stay outside the rate limit so monitoring keeps
	// working when clients exhaust their budget.
	r.Get("/health", handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Server.RateLimitReqs > 0 {
			r.Use(httprate.LimitByIP(cfg.Server.RateLimitReqs, cfg.Server.RateLimitWindow))
		}
		r.Use(Metrics)

		r.Get("/health", handler.Health)
		r.Get("/recommendations/{userID}", handler.Recommendations)

		r.Route("/movies", func(r chi.Router) {
			r.Get("/popular", handler.PopularMovies)
			r.Get("/search", handler.SearchMovies)
		})
		r.Route("/music", func(r chi.Router) {
			r.Get("/popular", handler.PopularMusic)
			r.Get("/search", handler.SearchTracks)
		})
	})

	return r
}
