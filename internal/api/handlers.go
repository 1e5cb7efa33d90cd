// Soundpath - Personalized Media Recommendations and Discovery
// Copyright 2026 Soundpath Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundpath/soundpath

// Package api provides the HTTP surface of Soundpath: recommendation
// serving, movie and music discovery, and health reporting.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/soundpath/soundpath/internal/config"
	"github.com/soundpath/soundpath/internal/discovery"
	"github.com/soundpath/soundpath/internal/logging"
	"github.com/soundpath/soundpath/internal/models"
	"github.com/soundpath/soundpath/internal/recommend"
)

// Handler implements all HTTP endpoints.
//
// The engine may be nil when no model artifact is available; the
// recommendations endpoint then reports 503 while discovery keeps working.
type Handler struct {
	cfg       *config.Config
	discovery *discovery.Service
	engine    *recommend.Engine
	started   time.Time
}

// NewHandler wires the handler with its dependencies.
func NewHandler(cfg *config.Config, svc *discovery.Service, engine *recommend.Engine) *Handler {
	return &Handler{
		cfg:       cfg,
		discovery: svc,
		engine:    engine,
		started:   time.Now(),
	}
}

// Health reports liveness and basic process information.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"model_loaded":   h.engine != nil,
	}, time.Now())
}

// Recommendations serves GET /api/v1/recommendations/{user_id}.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	if h.engine == nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_CONFIGURED",
			"recommendation model is not loaded", nil)
		return
	}

	req := recommendationsRequest{
		UserID: chi.URLParam(r, "userID"),
		Limit:  getIntParam(r, "limit", h.cfg.Recommend.DefaultLimit),
	}
	if req.Limit > h.cfg.Recommend.MaxLimit {
		req.Limit = h.cfg.Recommend.MaxLimit
	}
	if !validateRequest(w, &req) {
		return
	}

	items, fallback, err := h.engine.Recommend(r.Context(), req.UserID, req.Limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logging.Ctx(r.Context()).Debug().
		Str("user_id", sanitizeLogValue(req.UserID)).
		Int("count", len(items)).
		Bool("fallback", fallback).
		Msg("served recommendations")

	respondSuccess(w, &models.RecommendationsResponse{
		UserID:          req.UserID,
		Recommendations: items,
		FallbackUsed:    fallback,
	}, started)
}

// PopularMovies serves GET /api/v1/movies/popular.
func (h *Handler) PopularMovies(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	req := popularMoviesRequest{
		Language: r.URL.Query().Get("language"),
		Region:   r.URL.Query().Get("region"),
		Page:     getIntParam(r, "page", 1),
		Limit:    getIntParam(r, "limit", 20),
	}
	if !validateRequest(w, &req) {
		return
	}

	coll, err := h.discovery.PopularMovies(r.Context(), req.Language, req.Region, req.Page, req.Limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, coll, started)
}

// SearchMovies serves GET /api/v1/movies/search.
func (h *Handler) SearchMovies(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	req := searchMoviesRequest{
		Query:    r.URL.Query().Get("query"),
		Language: r.URL.Query().Get("language"),
		Page:     getIntParam(r, "page", 1),
	}
	if !validateRequest(w, &req) {
		return
	}

	results, err := h.discovery.SearchMovies(r.Context(), req.Query, req.Language, req.Page)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, results, started)
}

// PopularMusic serves GET /api/v1/music/popular.
func (h *Handler) PopularMusic(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	req := popularMusicRequest{
		Limit:  getIntParam(r, "limit", 20),
		Market: r.URL.Query().Get("market"),
	}
	if !validateRequest(w, &req) {
		return
	}

	coll, err := h.discovery.PopularMusic(r.Context(), req.Limit, req.Market)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, coll, started)
}

// SearchTracks serves GET /api/v1/music/search.
func (h *Handler) SearchTracks(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	req := searchTracksRequest{
		Query:  r.URL.Query().Get("query"),
		Limit:  getIntParam(r, "limit", 20),
		Market: r.URL.Query().Get("market"),
	}
	if !validateRequest(w, &req) {
		return
	}

	results, err := h.discovery.SearchTracks(r.Context(), req.Query, req.Limit, req.Market)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, results, started)
}
