// Soundpath - Personalized Media Recommendations and Discovery
// Copyright 2026 Soundpath Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundpath/soundpath

package recommend

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/soundpath/soundpath/internal/logging"
	"github.com/soundpath/soundpath/internal/metrics"
)

// ErrNoRecommendations is returned when no items remain after filtering,
// e.g. when an unknown user asks for recommendations and the artifact has
// no popularity ranking.
var ErrNoRecommendations = errors.New("no recommendations available")

// Engine serves recommendations from a loaded artifact.
//
// The artifact is immutable after load, so Engine has no locking and is
// safe for concurrent use.
type Engine struct {
	artifact *Artifact
}

// NewEngine wraps a loaded artifact.
func NewEngine(artifact *Artifact) *Engine {
	return &Engine{artifact: artifact}
}

// NewEngineFromFile loads the artifact at path and wraps it.
func NewEngineFromFile(path string) (*Engine, error) {
	artifact, err := LoadArtifact(path)
	if err != nil {
		return nil, err
	}
	logging.Info().Str("path", path).
		Int("users", artifact.NumUsers()).
		Int("items", artifact.NumItems()).
		Msg("loaded recommendation model")
	return NewEngine(artifact), nil
}

type scoredItem struct {
	index int
	score float64
}

// Recommend returns up to limit item IDs for userID, best first, plus a
// flag reporting whether personalization alone could not fill the request.
//
// Behavior:
//   - limit <= 0 returns an empty list with the fallback flag set.
//   - An unknown user gets the top-limit popularity items.
//   - A known user gets factor-model scores over all items, with their
//     interaction history excluded; when fewer than limit items remain,
//     popularity items pad the tail.
//
// Returns ErrNoRecommendations when filtering leaves nothing to return.
func (e *Engine) Recommend(ctx context.Context, userID string, limit int) ([]string, bool, error) {
	start := time.Now()
	items, fallback, err := e.recommend(ctx, userID, limit)
	if err == nil {
		metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
		metrics.RecommendationRequests.WithLabelValues(boolLabel(fallback)).Inc()
	}
	return items, fallback, err
}

func (e *Engine) recommend(ctx context.Context, userID string, limit int) ([]string, bool, error) {
	if limit <= 0 {
		return []string{}, true, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	a := e.artifact
	history := e.historySet(userID)

	userIdx, known := a.UserMapping[userID]
	if !known {
		items := e.topPopular(limit, history, nil)
		if len(items) == 0 {
			return nil, true, ErrNoRecommendations
		}
		return items, true, nil
	}

	userVec := a.UserFactors[userIdx]
	scored := make([]scoredItem, 0, len(a.ItemFactors))
	for i, itemVec := range a.ItemFactors {
		if _, seen := history[a.itemIDs[i]]; seen {
			continue
		}
		scored = append(scored, scoredItem{
			index: i,
			score: dot(userVec, itemVec) + a.ItemBiases[i] + a.GlobalBias,
		})
	}

	// Ties break on item index so output is deterministic across runs.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].index < scored[j].index
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	items := make([]string, 0, limit)
	chosen := make(map[string]struct{}, limit)
	for _, s := range scored {
		id := a.itemIDs[s.index]
		items = append(items, id)
		chosen[id] = struct{}{}
	}

	// Coming up short of limit counts as a fallback even when the
	// popularity pool has nothing left to pad with.
	fallback := len(items) < limit
	if fallback {
		items = append(items, e.topPopular(limit-len(items), history, chosen)...)
	}

	if len(items) == 0 {
		return nil, fallback, ErrNoRecommendations
	}
	return items, fallback, nil
}

// topPopular returns up to limit items from the popularity ranking,
// skipping anything in history or chosen.
func (e *Engine) topPopular(limit int, history, chosen map[string]struct{}) []string {
	items := make([]string, 0, limit)
	for _, entry := range e.artifact.ItemPopularity {
		if len(items) >= limit {
			break
		}
		if _, seen := history[entry.ItemID]; seen {
			continue
		}
		if _, seen := chosen[entry.ItemID]; seen {
			continue
		}
		items = append(items, entry.ItemID)
	}
	return items
}

// historySet returns the user's consumed items as a set. Interactions
// referencing items absent from the item mapping are kept: they still must
// not be recommended from popularity padding.
func (e *Engine) historySet(userID string) map[string]struct{} {
	interactions := e.artifact.UserInteractions[userID]
	if len(interactions) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(interactions))
	for _, id := range interactions {
		set[id] = struct{}{}
	}
	return set
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
