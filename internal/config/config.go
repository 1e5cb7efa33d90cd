// Soundpath - Personalized Media Recommendations and Discovery
// Copyright 2026 Soundpath Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundpath/soundpath

// Package config provides layered configuration loading for Soundpath.
//
// Configuration is loaded via Koanf v2 with the following precedence
// (highest wins):
//
//  1. Environment variables (TMDB_API_KEY, SPOTIFY_CLIENT_ID, ...)
//  2. Config file (config.yaml, or CONFIG_PATH override)
//  3. Built-in defaults
//
// Provider credentials are deliberately NOT validated here. Absence of a
// required credential is a construction-time error of the corresponding
// provider client, so that a deployment can run the recommendation engine
// without discovery credentials and vice versa.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Soundpath serving layer.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	TMDb      TMDbConfig      `koanf:"tmdb"`
	Spotify   SpotifyConfig   `koanf:"spotify"`
	Cache     CacheConfig     `koanf:"cache"`
	Recommend RecommendConfig `koanf:"recommend"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`

	// CORSOrigins lists allowed origins for browser clients.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs/RateLimitWindow bound inbound requests per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_requests"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// TMDbConfig holds movie metadata provider settings.
// APIKey is required for the movie client; the other fields have working
// defaults and exist mainly so tests can point the client at a fake upstream.
type TMDbConfig struct {
	APIKey       string        `koanf:"api_key"`
	BaseURL      string        `koanf:"base_url"`
	ImageBaseURL string        `koanf:"image_base_url"`
	Timeout      time.Duration `koanf:"timeout"`

	// RequestsPerSecond bounds outbound request rate (0 = unlimited).
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// SpotifyConfig holds music metadata provider settings.
// ClientID and ClientSecret are required for the music client.
type SpotifyConfig struct {
	ClientID     string        `koanf:"client_id"`
	ClientSecret string        `koanf:"client_secret"`
	AuthBaseURL  string        `koanf:"auth_base_url"`
	APIBaseURL   string        `koanf:"api_base_url"`
	Timeout      time.Duration `koanf:"timeout"`
}

// CacheConfig holds TTL cache settings for the discovery facade.
type CacheConfig struct {
	// PopularTTL is how long cached "popular" responses stay fresh.
	PopularTTL time.Duration `koanf:"popular_ttl"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	// ModelPath points at the trained artifact JSON exported by the
	// offline training pipeline.
	ModelPath string `koanf:"model_path"`

	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks configuration bounds. Credential presence is checked at
// client construction, not here.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Cache.PopularTTL <= 0 {
		return fmt.Errorf("cache.popular_ttl must be positive, got %s", c.Cache.PopularTTL)
	}
	if c.TMDb.Timeout <= 0 {
		return fmt.Errorf("tmdb.timeout must be positive, got %s", c.TMDb.Timeout)
	}
	if c.TMDb.RequestsPerSecond < 0 {
		return fmt.Errorf("tmdb.requests_per_second must not be negative, got %f", c.TMDb.RequestsPerSecond)
	}
	if c.Spotify.Timeout <= 0 {
		return fmt.Errorf("spotify.timeout must be positive, got %s", c.Spotify.Timeout)
	}
	if c.Recommend.DefaultLimit < 1 {
		return fmt.Errorf("recommend.default_limit must be at least 1, got %d", c.Recommend.DefaultLimit)
	}
	if c.Recommend.MaxLimit < c.Recommend.DefaultLimit {
		return fmt.Errorf("recommend.max_limit (%d) must not be below recommend.default_limit (%d)",
			c.Recommend.MaxLimit, c.Recommend.DefaultLimit)
	}
	switch c.Server.Environment {
	case "development", "production", "test":
	default:
		return fmt.Errorf("server.environment must be development, production, or test, got %q", c.Server.Environment)
	}
	return nil
}
