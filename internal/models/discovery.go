// Soundpath - Personalized Media Recommendations and Discovery
// Copyright 2026 Soundpath Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundpath/soundpath

// Package models defines the provider-agnostic data structures exchanged
// between the discovery layer, the recommendation engine, and the HTTP API.
//
// Raw provider wire formats live in the tmdb and spotify sub-packages; the
// types here are what callers of the discovery facade see, independent of
// which upstream produced them.
package models

// MovieSummary is a provider-agnostic movie entry.
//
// Optional fields are pointers so that "provider did not send a value" stays
// distinguishable from a zero value in JSON output.
type MovieSummary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Overview    *string  `json:"overview,omitempty"`
	ReleaseDate *string  `json:"release_date,omitempty"`
	Language    *string  `json:"language,omitempty"`
	Popularity  *float64 `json:"popularity,omitempty"`
	PosterURL   *string  `json:"poster_url,omitempty"`
	VoteAverage *float64 `json:"vote_average,omitempty"`
	VoteCount   *int     `json:"vote_count,omitempty"`
}

// MovieCollection is a page of movie summaries with pagination totals.
type MovieCollection struct {
	Page         int            `json:"page"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
	Items        []MovieSummary `json:"items"`
}

// MovieSearchResults is a MovieCollection carrying the query that produced it.
type MovieSearchResults struct {
	MovieCollection
	Query string `json:"query"`
}

// MusicSummary is a provider-agnostic music entry. Source discriminates the
// originating entity type ("track", "album", or an album subtype like
// "single") so mixed result sets can be handled uniformly downstream.
type MusicSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	Album       *string  `json:"album,omitempty"`
	PreviewURL  *string  `json:"preview_url,omitempty"`
	ExternalURL *string  `json:"external_url,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
	Popularity  *int     `json:"popularity,omitempty"`
	Source      string   `json:"source,omitempty"`
}

// MusicCollection is a page of music summaries with pagination totals.
type MusicCollection struct {
	Total  *int           `json:"total,omitempty"`
	Limit  *int           `json:"limit,omitempty"`
	Offset *int           `json:"offset,omitempty"`
	Items  []MusicSummary `json:"items"`
}

// MusicSearchResults is a MusicCollection carrying the query that produced it.
type MusicSearchResults struct {
	MusicCollection
	Query string `json:"query"`
}

// Clone returns a deep copy. The discovery facade hands out clones of cached
// collections so callers can never mutate a shared cached object.
func (c *MovieCollection) Clone() *MovieCollection {
	if c == nil {
		return nil
	}
	out := &MovieCollection{
		Page:         c.Page,
		TotalPages:   c.TotalPages,
		TotalResults: c.TotalResults,
		Items:        make([]MovieSummary, len(c.Items)),
	}
	for i := range c.Items {
		out.Items[i] = c.Items[i].clone()
	}
	return out
}

func (m MovieSummary) clone() MovieSummary {
	out := m
	out.Overview = cloneStringPtr(m.Overview)
	out.ReleaseDate = cloneStringPtr(m.ReleaseDate)
	out.Language = cloneStringPtr(m.Language)
	out.Popularity = cloneFloatPtr(m.Popularity)
	out.PosterURL = cloneStringPtr(m.PosterURL)
	out.VoteAverage = cloneFloatPtr(m.VoteAverage)
	out.VoteCount = cloneIntPtr(m.VoteCount)
	return out
}

// Clone returns a deep copy of the collection.
func (c *MusicCollection) Clone() *MusicCollection {
	if c == nil {
		return nil
	}
	out := &MusicCollection{
		Total:  cloneIntPtr(c.Total),
		Limit:  cloneIntPtr(c.Limit),
		Offset: cloneIntPtr(c.Offset),
		Items:  make([]MusicSummary, len(c.Items)),
	}
	for i := range c.Items {
		out.Items[i] = c.Items[i].clone()
	}
	return out
}

func (m MusicSummary) clone() MusicSummary {
	out := m
	out.Artists = append([]string(nil), m.Artists...)
	out.Album = cloneStringPtr(m.Album)
	out.PreviewURL = cloneStringPtr(m.PreviewURL)
	out.ExternalURL = cloneStringPtr(m.ExternalURL)
	out.ImageURL = cloneStringPtr(m.ImageURL)
	out.Popularity = cloneIntPtr(m.Popularity)
	return out
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloatPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
